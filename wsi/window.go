// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package wsi

import (
	"github.com/gviegas/ngl/internal/debug"
)

// The maximum number of windows that can exist at any
// given time.
const MaxWindows = 16

// Window is a drawable window.
// Its purpose is to provide the native handles from which
// a Vulkan surface is created, and to report when that
// surface must be rebuilt (resize) or torn down (close).
// Window methods must be called from the goroutine that
// opened the Display.
type Window struct {
	d  *Display
	nw nativeWindow

	// Size known to the caller: the requested size, then
	// the size of the last delivered ResizeEvent.
	width  int
	height int

	title     string
	visible   bool
	focused   bool
	closeReq  bool
	destroyed bool

	events []Event
}

// NewWindow creates a new window of the given client size.
// The window is shown on creation.
func (d *Display) NewWindow(width, height int, title string) (*Window, error) {
	switch {
	case d.closed:
		return nil, &WindowError{Backend: d.backend, Op: "create", Err: ErrDisplayClosed}
	case width < 1 || height < 1:
		return nil, &WindowError{Backend: d.backend, Op: "create", Err: ErrInvalidSize}
	case len(d.wins) >= MaxWindows:
		return nil, &WindowError{Backend: d.backend, Op: "create", Err: ErrTooManyWindows}
	}
	w := &Window{
		d:       d,
		width:   width,
		height:  height,
		title:   title,
		visible: true,
	}
	nw, err := d.c.newWindow(w)
	if err != nil {
		if _, ok := err.(*WindowError); ok {
			return nil, err
		}
		return nil, &WindowError{Backend: d.backend, Op: "create", Err: ErrWindowCreate, Cause: err}
	}
	w.nw = nw
	d.wins = append(d.wins, w)
	return w, nil
}

// Display returns the Display that w belongs to.
func (w *Window) Display() *Display { return w.d }

// Width returns the window's width.
func (w *Window) Width() int { return w.width }

// Height returns the window's height.
func (w *Window) Height() int { return w.height }

// Title returns the window's title.
func (w *Window) Title() string { return w.title }

// Visible reports whether the window is shown.
func (w *Window) Visible() bool { return w.visible }

// Focused reports whether the window has keyboard focus,
// as of the last delivered FocusEvent.
func (w *Window) Focused() bool { return w.focused }

// IsClosed reports whether a close was requested, either
// through RequestClose or by the window system.
func (w *Window) IsClosed() bool { return w.closeReq }

// Destroyed reports whether the window was destroyed.
func (w *Window) Destroyed() bool { return w.destroyed }

// PollEvents returns the events queued for w since the
// previous call. It never blocks and never fails: an empty
// result means that nothing happened.
// Events for other windows of the same Display are kept
// for their own PollEvents calls.
func (w *Window) PollEvents() []Event {
	if w.destroyed || w.d.closed {
		return nil
	}
	w.d.c.dispatch()
	if len(w.events) == 0 {
		return nil
	}
	evs := w.events
	w.events = nil
	for _, e := range evs {
		switch e := e.(type) {
		case ResizeEvent:
			w.width = e.Width
			w.height = e.Height
		case FocusEvent:
			w.focused = e.Focused
		}
	}
	return evs
}

// RequestClose marks the window as closed, queues a
// CloseEvent (unless one was already queued) and hides
// the window. It does not destroy w.
func (w *Window) RequestClose() {
	if w.destroyed {
		return
	}
	w.notifyClose()
	if w.visible {
		if err := w.nw.hide(); err != nil {
			debug.Printf("wsi: hide on close: %v", err)
			return
		}
		w.visible = false
	}
}

// Show makes the window visible.
func (w *Window) Show() error {
	if err := w.check("show"); err != nil {
		return err
	}
	if w.visible {
		return nil
	}
	if err := w.nw.show(); err != nil {
		return &WindowError{Backend: w.d.backend, Op: "show", Err: ErrProtocol, Cause: err}
	}
	w.visible = true
	return nil
}

// Hide hides the window.
func (w *Window) Hide() error {
	if err := w.check("hide"); err != nil {
		return err
	}
	if !w.visible {
		return nil
	}
	if err := w.nw.hide(); err != nil {
		return &WindowError{Backend: w.d.backend, Op: "hide", Err: ErrProtocol, Cause: err}
	}
	w.visible = false
	return nil
}

// Resize asks the window system to resize the window.
// The new size is reported by a ResizeEvent once the
// window system acknowledges it.
func (w *Window) Resize(width, height int) error {
	if err := w.check("resize"); err != nil {
		return err
	}
	if width < 1 || height < 1 {
		return &WindowError{Backend: w.d.backend, Op: "resize", Err: ErrInvalidSize}
	}
	if pw, ph := w.pendingSize(); pw == width && ph == height {
		return nil
	}
	if err := w.nw.resize(width, height); err != nil {
		return &WindowError{Backend: w.d.backend, Op: "resize", Err: ErrProtocol, Cause: err}
	}
	return nil
}

// SetTitle sets the window's title.
func (w *Window) SetTitle(title string) error {
	if err := w.check("title"); err != nil {
		return err
	}
	if title == w.title {
		return nil
	}
	if err := w.nw.setTitle(title); err != nil {
		return &WindowError{Backend: w.d.backend, Op: "title", Err: ErrProtocol, Cause: err}
	}
	w.title = title
	return nil
}

// Destroy destroys the window.
// Surfaces created from it become invalid; callers must
// destroy them first.
func (w *Window) Destroy() {
	if w.destroyed {
		return
	}
	w.nw.destroy()
	w.d.removeWindow(w)
	w.destroyed = true
	w.closeReq = true
	w.visible = false
	w.events = nil
}

// Native returns the raw handles of w.
// It fails once w is destroyed or its Display is closed.
func (w *Window) Native() (Native, error) {
	if err := w.check("native"); err != nil {
		return Native{}, err
	}
	return Native{
		Backend: w.d.backend,
		Display: w.d.c.display(),
		Window:  w.nw.handle(),
	}, nil
}

func (w *Window) check(op string) error {
	switch {
	case w.destroyed:
		return &WindowError{Backend: w.d.backend, Op: op, Err: ErrWindowDestroyed}
	case w.d.closed:
		return &WindowError{Backend: w.d.backend, Op: op, Err: ErrDisplayClosed}
	}
	return nil
}

// pendingSize returns the size the caller will know after
// the queued events are delivered.
func (w *Window) pendingSize() (int, int) {
	for i := len(w.events) - 1; i >= 0; i-- {
		if e, ok := w.events[i].(ResizeEvent); ok {
			return e.Width, e.Height
		}
	}
	return w.width, w.height
}

// notifyResize is called by backends when the window
// system acknowledges a new size.
// Consecutive resizes are merged, and sizes the caller
// would already know are dropped.
func (w *Window) notifyResize(width, height int) {
	if width < 1 || height < 1 || w.destroyed {
		return
	}
	if n := len(w.events); n > 0 {
		if _, ok := w.events[n-1].(ResizeEvent); ok {
			w.events = w.events[:n-1]
		}
	}
	if pw, ph := w.pendingSize(); pw == width && ph == height {
		return
	}
	w.events = append(w.events, ResizeEvent{width, height})
}

// notifyClose is called by backends when the window
// system asks the window to close.
func (w *Window) notifyClose() {
	if w.closeReq || w.destroyed {
		return
	}
	w.closeReq = true
	w.events = append(w.events, CloseEvent{})
}

// notifyFocus is called by backends when focus changes.
func (w *Window) notifyFocus(focused bool) {
	if w.destroyed {
		return
	}
	last := w.focused
	for i := len(w.events) - 1; i >= 0; i-- {
		if e, ok := w.events[i].(FocusEvent); ok {
			last = e.Focused
			break
		}
	}
	if last != focused {
		w.events = append(w.events, FocusEvent{focused})
	}
}
