// Copyright 2022 Gustavo C. Viegas. All rights reserved.

// Package wsi provides window system integration (WSI)
// for Vulkan renderers.
//
// One backend is active per process: Wayland or XCB on
// Linux, Win32 on Windows. Which backends exist is fixed
// at build time (build tags nowayland and nox11 remove the
// Linux ones); SelectBackend picks among them at run time
// using a documented precedence.
//
// A Display owns the connection to the window system, and
// Windows are created on it. Windows never block: events
// queued by the window system are drained by PollEvents,
// which must be called regularly from the goroutine that
// opened the Display. Callers should lock that goroutine
// to its OS thread (runtime.LockOSThread) before calling
// OpenDisplay.
package wsi

import (
	"errors"
	"strconv"
	"strings"
)

// Backend identifies a window system implementation.
type Backend int

// Backends.
const (
	// None means that no backend is selected.
	None Backend = iota
	Wayland
	XCB
	Win32
	// AndroidStub is recognized, but not implemented.
	// It is never selected.
	AndroidStub
)

var backendNames = [...]string{
	None:        "none",
	Wayland:     "wayland",
	XCB:         "xcb",
	Win32:       "win32",
	AndroidStub: "android",
}

func (b Backend) String() string {
	if b < 0 || int(b) >= len(backendNames) {
		return "unknown"
	}
	return backendNames[b]
}

// ParseBackend returns the Backend named by s.
// It accepts "x11" as an alias for XCB and is case
// insensitive. "auto" and "" parse as None.
func ParseBackend(s string) (Backend, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return None, nil
	case "wayland":
		return Wayland, nil
	case "xcb", "x11":
		return XCB, nil
	case "win32", "windows":
		return Win32, nil
	case "android":
		return AndroidStub, nil
	}
	return None, &selectError{reason: "unknown backend " + strconv.Quote(s)}
}

// Native holds the raw window system handles of a window.
// They are what the Vulkan surface extensions consume:
//
//	Wayland: wl_display*,       wl_surface*
//	XCB:     xcb_connection_t*, xcb_window_t
//	Win32:   HINSTANCE,         HWND
type Native struct {
	Backend Backend
	Display uintptr
	Window  uintptr
}

// Event is the interface implemented by window events.
type Event interface {
	isEvent()
}

// ResizeEvent reports a new acknowledged size.
// Swapchains built for the previous size must be
// recreated by the caller.
type ResizeEvent struct {
	Width  int
	Height int
}

// CloseEvent reports that the window was asked to close,
// either by the user through the window system or by
// Window.RequestClose. It is delivered at most once.
type CloseEvent struct{}

// FocusEvent reports a change in keyboard focus.
type FocusEvent struct {
	Focused bool
}

func (ResizeEvent) isEvent() {}
func (CloseEvent) isEvent()  {}
func (FocusEvent) isEvent()  {}

// Errors of SelectBackend and OpenDisplay.
var (
	// ErrNoBackend means that no implemented backend is
	// available. It is a fatal configuration error: the
	// build or the environment must change.
	ErrNoBackend = errors.New("wsi: no window system backend available")

	// ErrDisplayOpen means that a Display is already open.
	ErrDisplayOpen = errors.New("wsi: display already open")
)

// ConnError kinds.
var (
	ErrServerUnreachable = errors.New("wsi: display server unreachable")
	ErrProtocol          = errors.New("wsi: protocol error")
	ErrClientLibrary     = errors.New("wsi: client library not found")
)

// Window errors.
var (
	ErrWindowCreate    = errors.New("wsi: cannot create window")
	ErrInvalidSize     = errors.New("wsi: width/height less than 1")
	ErrTooManyWindows  = errors.New("wsi: too many windows")
	ErrDisplayClosed   = errors.New("wsi: display closed")
	ErrWindowDestroyed = errors.New("wsi: window destroyed")
)

// ConnError is returned when a Display cannot be opened.
// Err is one of ErrServerUnreachable, ErrProtocol and
// ErrClientLibrary; Cause, if not nil, is the underlying
// failure.
type ConnError struct {
	Backend Backend
	Err     error
	Cause   error
}

func (e *ConnError) Error() string {
	s := e.Err.Error() + " (" + e.Backend.String() + ")"
	if e.Cause != nil {
		s += ": " + e.Cause.Error()
	}
	return s
}

func (e *ConnError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Err}
	}
	return []error{e.Err, e.Cause}
}

// WindowError is returned when a window operation fails.
type WindowError struct {
	Backend Backend
	Op      string
	Err     error
	Cause   error
}

func (e *WindowError) Error() string {
	s := e.Err.Error() + " (" + e.Backend.String() + " " + e.Op + ")"
	if e.Cause != nil {
		s += ": " + e.Cause.Error()
	}
	return s
}

func (e *WindowError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Err}
	}
	return []error{e.Err, e.Cause}
}

type selectError struct {
	reason string
}

func (e *selectError) Error() string { return ErrNoBackend.Error() + ": " + e.reason }
func (e *selectError) Unwrap() error { return ErrNoBackend }
