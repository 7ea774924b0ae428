// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package wsi

import (
	"sync"

	"github.com/gviegas/ngl/internal/config"
)

// conn is the native connection of a backend.
type conn interface {
	// newWindow creates the native window for w.
	// w's size and title are already set.
	newWindow(w *Window) (nativeWindow, error)

	// dispatch drains the events that the window system
	// has already queued, without blocking, and forwards
	// them to the windows they target.
	dispatch()

	// display returns the native display handle.
	display() uintptr

	// close disconnects. All windows were destroyed.
	close()
}

// nativeWindow is the native part of a Window.
type nativeWindow interface {
	handle() uintptr
	show() error
	hide() error
	resize(width, height int) error
	setTitle(title string) error
	destroy()
}

// Display is a connection to the window system.
// At most one Display can be open at any given time.
type Display struct {
	backend Backend
	c       conn
	appName string
	wins    []*Window
	closed  bool
}

var (
	displayMu sync.Mutex
	current   *Display
)

// OpenDisplay selects a backend (see SelectBackend) and
// connects to its window system.
// Connection failures are reported as *ConnError and are
// never retried with another backend.
// It fails with ErrDisplayOpen if a Display is already
// open.
func OpenDisplay() (*Display, error) {
	b, err := SelectBackend()
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return openDisplay(b, connectors[b], cfg.AppName)
}

func openDisplay(b Backend, connect connector, appName string) (*Display, error) {
	displayMu.Lock()
	defer displayMu.Unlock()
	if current != nil {
		return nil, ErrDisplayOpen
	}
	if connect == nil {
		return nil, &selectError{reason: b.String() + " backend not compiled in"}
	}
	d := &Display{
		backend: b,
		appName: appName,
	}
	c, err := connect(d)
	if err != nil {
		return nil, err
	}
	d.c = c
	current = d
	return d, nil
}

// Backend returns the backend in use.
func (d *Display) Backend() Backend { return d.backend }

// AppName returns the name used to identify the
// application to the window system.
func (d *Display) AppName() string { return d.appName }

// Windows returns the windows that were created on d
// and not yet destroyed.
func (d *Display) Windows() []*Window {
	if len(d.wins) == 0 {
		return nil
	}
	wins := make([]*Window, len(d.wins))
	copy(wins, d.wins)
	return wins
}

// NativeDisplay returns the native display handle
// (wl_display*, xcb_connection_t* or HINSTANCE), or 0 if
// d is closed.
func (d *Display) NativeDisplay() uintptr {
	if d.closed {
		return 0
	}
	return d.c.display()
}

// Closed reports whether Close was called.
func (d *Display) Closed() bool { return d.closed }

// Close destroys every window of d and disconnects from
// the window system. Handles obtained from d and its
// windows become invalid.
// Another Display can be opened afterwards.
func (d *Display) Close() error {
	displayMu.Lock()
	defer displayMu.Unlock()
	if d.closed {
		return ErrDisplayClosed
	}
	for len(d.wins) > 0 {
		d.wins[len(d.wins)-1].Destroy()
	}
	d.c.close()
	d.closed = true
	if current == d {
		current = nil
	}
	return nil
}

// removeWindow removes w from d.wins.
func (d *Display) removeWindow(w *Window) {
	for i := range d.wins {
		if d.wins[i] == w {
			copy(d.wins[i:], d.wins[i+1:])
			d.wins[len(d.wins)-1] = nil
			d.wins = d.wins[:len(d.wins)-1]
			return
		}
	}
}
