// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package wsi

import (
	"testing"
)

// fakeConn is a conn whose native notifications are queued
// by the test and delivered on dispatch.
type fakeConn struct {
	wins       []*fakeWindow
	pending    []func()
	dispatches int
	closed     bool
	failNew    error
}

const fakeDisplay = 0xd15b

func (c *fakeConn) newWindow(w *Window) (nativeWindow, error) {
	if c.failNew != nil {
		return nil, c.failNew
	}
	fw := &fakeWindow{
		c:       c,
		w:       w,
		id:      uintptr(len(c.wins) + 1),
		title:   w.title,
		visible: true,
	}
	c.wins = append(c.wins, fw)
	return fw, nil
}

func (c *fakeConn) dispatch() {
	c.dispatches++
	p := c.pending
	c.pending = nil
	for _, f := range p {
		f()
	}
}

func (c *fakeConn) display() uintptr { return fakeDisplay }
func (c *fakeConn) close()           { c.closed = true }

type fakeWindow struct {
	c         *fakeConn
	w         *Window
	id        uintptr
	title     string
	visible   bool
	destroyed bool
	resizes   int
}

func (w *fakeWindow) handle() uintptr { return w.id }
func (w *fakeWindow) show() error     { w.visible = true; return nil }
func (w *fakeWindow) hide() error     { w.visible = false; return nil }

// resize is acknowledged on the next dispatch.
func (w *fakeWindow) resize(width, height int) error {
	w.resizes++
	w.sendResize(width, height)
	return nil
}

func (w *fakeWindow) setTitle(title string) error { w.title = title; return nil }
func (w *fakeWindow) destroy()                    { w.destroyed = true }

func (w *fakeWindow) sendResize(width, height int) {
	w.c.pending = append(w.c.pending, func() { w.w.notifyResize(width, height) })
}

func (w *fakeWindow) sendClose() {
	w.c.pending = append(w.c.pending, func() { w.w.notifyClose() })
}

func (w *fakeWindow) sendFocus(focused bool) {
	w.c.pending = append(w.c.pending, func() { w.w.notifyFocus(focused) })
}

// openFake opens a Display on a fakeConn.
// The Display is closed when the test ends.
func openFake(t *testing.T) (*Display, *fakeConn) {
	t.Helper()
	fc := &fakeConn{}
	d, err := openDisplay(XCB, func(*Display) (conn, error) { return fc, nil }, "test")
	if err != nil {
		t.Fatalf("openDisplay: unexpected error: %v", err)
	}
	t.Cleanup(func() {
		if !d.Closed() {
			d.Close()
		}
	})
	return d, fc
}

// newFakeWindow creates a window on d and returns its
// fakeWindow.
func newFakeWindow(t *testing.T, d *Display, width, height int) (*Window, *fakeWindow) {
	t.Helper()
	w, err := d.NewWindow(width, height, "test")
	if err != nil {
		t.Fatalf("NewWindow: unexpected error: %v", err)
	}
	return w, w.nw.(*fakeWindow)
}
