// Copyright 2022 Gustavo C. Viegas. All rights reserved.

//go:build ((linux && !android) || freebsd) && (amd64 || arm64) && !nox11

package wsi

import (
	"errors"
	"math"
	"unsafe"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/icccm"
	"github.com/BurntSushi/xgbutil/xprop"

	"github.com/gviegas/ngl/internal/debug"
	"github.com/gviegas/ngl/internal/dl"
)

func init() {
	register(XCB, connectXCB)
}

// libXCB holds the libxcb entry points needed to open the
// xcb_connection_t that Vulkan presents through.
// The window itself is managed over an xgb connection; X
// resources are server-wide, so both connections see the
// same window.
type libXCB struct {
	lib        *dl.Lib
	connect    uintptr
	disconnect uintptr
	hasError   uintptr
}

// Handle for the shared object.
// It stays open once loaded.
var hXCB *libXCB

// openXCB opens the shared library and gets function pointers.
func openXCB() (*libXCB, error) {
	if hXCB != nil {
		return hXCB, nil
	}
	lib, err := dl.Open("libxcb.so.1", "libxcb.so")
	if err != nil {
		return nil, err
	}
	x := &libXCB{lib: lib}
	syms := [...]struct {
		name string
		dst  *uintptr
	}{
		{"xcb_connect", &x.connect},
		{"xcb_disconnect", &x.disconnect},
		{"xcb_connection_has_error", &x.hasError},
	}
	for _, s := range syms {
		if *s.dst, err = lib.Sym(s.name); err != nil {
			lib.Close()
			return nil, errors.New("wsi: failed to fetch XCB symbol " + s.name)
		}
	}
	debug.Printf("wsi: loaded %s", lib.Name())
	hXCB = x
	return x, nil
}

// connXCB implements conn.
type connXCB struct {
	d      *Display
	xc     *xgb.Conn
	xu     *xgbutil.XUtil
	screen *xproto.ScreenInfo
	native uintptr

	protoAtom xproto.Atom
	delAtom   xproto.Atom

	wins map[xproto.Window]*Window
}

// connectXCB connects to the X server and queries the
// default screen.
func connectXCB(d *Display) (conn, error) {
	lib, err := openXCB()
	if err != nil {
		return nil, &ConnError{Backend: XCB, Err: ErrClientLibrary, Cause: err}
	}

	xc, err := xgb.NewConn()
	if err != nil {
		return nil, &ConnError{Backend: XCB, Err: ErrServerUnreachable, Cause: err}
	}
	fail := func(kind, cause error) (conn, error) {
		xc.Close()
		return nil, &ConnError{Backend: XCB, Err: kind, Cause: cause}
	}
	screen := xproto.Setup(xc).DefaultScreen(xc)
	if screen == nil {
		return fail(ErrProtocol, errors.New("no default screen"))
	}
	xu, err := xgbutil.NewConnXgb(xc)
	if err != nil {
		return fail(ErrProtocol, err)
	}
	protoAtom, err := xprop.Atm(xu, "WM_PROTOCOLS")
	if err != nil {
		return fail(ErrProtocol, err)
	}
	delAtom, err := xprop.Atm(xu, "WM_DELETE_WINDOW")
	if err != nil {
		return fail(ErrProtocol, err)
	}

	var screenNum int32
	native := dl.Call(lib.connect, 0, uintptr(unsafe.Pointer(&screenNum)))
	if native == 0 {
		return fail(ErrServerUnreachable, errors.New("xcb_connect failed"))
	}
	if dl.Call(lib.hasError, native) != 0 {
		dl.Call(lib.disconnect, native)
		return fail(ErrServerUnreachable, errors.New("xcb_connect failed"))
	}

	debug.Printf("wsi: xcb: screen %dx%d, root %d", screen.WidthInPixels, screen.HeightInPixels, screen.Root)
	return &connXCB{
		d:         d,
		xc:        xc,
		xu:        xu,
		screen:    screen,
		native:    native,
		protoAtom: protoAtom,
		delAtom:   delAtom,
		wins:      make(map[xproto.Window]*Window),
	}, nil
}

func (c *connXCB) display() uintptr { return c.native }

func (c *connXCB) close() {
	for id := range c.wins {
		xproto.DestroyWindow(c.xc, id)
	}
	c.wins = nil
	c.xc.Close()
	if c.native != 0 {
		dl.Call(hXCB.disconnect, c.native)
		c.native = 0
	}
}

// windowXCB implements nativeWindow.
type windowXCB struct {
	c  *connXCB
	id xproto.Window
}

// newWindow creates and maps a new window.
func (c *connXCB) newWindow(w *Window) (nativeWindow, error) {
	if w.width > math.MaxUint16 || w.height > math.MaxUint16 {
		return nil, &WindowError{Backend: XCB, Op: "create", Err: ErrInvalidSize}
	}
	id, err := xproto.NewWindowId(c.xc)
	if err != nil {
		return nil, err
	}
	valMask := uint32(xproto.CwBackPixel | xproto.CwEventMask)
	valList := []uint32{
		c.screen.BlackPixel,
		xproto.EventMaskStructureNotify | xproto.EventMaskFocusChange | xproto.EventMaskExposure,
	}
	err = xproto.CreateWindowChecked(c.xc, c.screen.RootDepth, id, c.screen.Root, 0, 0,
		uint16(w.width), uint16(w.height), 0, xproto.WindowClassInputOutput,
		c.screen.RootVisual, valMask, valList).Check()
	if err != nil {
		return nil, err
	}

	nw := &windowXCB{c: c, id: id}
	if err := nw.setTitle(w.title); err != nil {
		xproto.DestroyWindow(c.xc, id)
		return nil, err
	}
	class := &icccm.WmClass{Instance: c.d.appName, Class: c.d.appName}
	if err := icccm.WmClassSet(c.xu, id, class); err != nil {
		xproto.DestroyWindow(c.xc, id)
		return nil, err
	}
	if err := icccm.WmProtocolsSet(c.xu, id, []string{"WM_DELETE_WINDOW"}); err != nil {
		xproto.DestroyWindow(c.xc, id)
		return nil, err
	}
	if err := nw.show(); err != nil {
		xproto.DestroyWindow(c.xc, id)
		return nil, err
	}
	c.wins[id] = w
	return nw, nil
}

func (w *windowXCB) handle() uintptr { return uintptr(w.id) }

func (w *windowXCB) show() error {
	return xproto.MapWindowChecked(w.c.xc, w.id).Check()
}

func (w *windowXCB) hide() error {
	return xproto.UnmapWindowChecked(w.c.xc, w.id).Check()
}

func (w *windowXCB) resize(width, height int) error {
	if width > math.MaxUint16 || height > math.MaxUint16 {
		return ErrInvalidSize
	}
	valMask := uint16(xproto.ConfigWindowWidth | xproto.ConfigWindowHeight)
	valList := []uint32{uint32(width), uint32(height)}
	return xproto.ConfigureWindowChecked(w.c.xc, w.id, valMask, valList).Check()
}

func (w *windowXCB) setTitle(title string) error {
	if err := icccm.WmNameSet(w.c.xu, w.id, title); err != nil {
		return err
	}
	return ewmh.WmNameSet(w.c.xu, w.id, title)
}

func (w *windowXCB) destroy() {
	if w.c.wins == nil {
		return
	}
	delete(w.c.wins, w.id)
	xproto.DestroyWindow(w.c.xc, w.id)
}

// dispatch drains the events that xgb has already read.
func (c *connXCB) dispatch() {
	for {
		ev, xerr := c.xc.PollForEvent()
		if ev == nil && xerr == nil {
			return
		}
		if xerr != nil {
			debug.Printf("wsi: xcb: %v", xerr)
			continue
		}
		switch ev := ev.(type) {
		case xproto.ConfigureNotifyEvent:
			if w := c.wins[ev.Window]; w != nil {
				w.notifyResize(int(ev.Width), int(ev.Height))
			}
		case xproto.ClientMessageEvent:
			if ev.Type != c.protoAtom || ev.Format != 32 || len(ev.Data.Data32) == 0 {
				break
			}
			if xproto.Atom(ev.Data.Data32[0]) != c.delAtom {
				break
			}
			if w := c.wins[ev.Window]; w != nil {
				w.notifyClose()
			}
		case xproto.FocusInEvent:
			if w := c.wins[ev.Event]; w != nil && focusChangeXCB(ev.Mode, ev.Detail) {
				w.notifyFocus(true)
			}
		case xproto.FocusOutEvent:
			if w := c.wins[ev.Event]; w != nil && focusChangeXCB(ev.Mode, ev.Detail) {
				w.notifyFocus(false)
			}
		case xproto.DestroyNotifyEvent:
			// Destroyed by someone else.
			if w := c.wins[ev.Window]; w != nil {
				w.notifyClose()
			}
		}
	}
}

// focusChangeXCB filters out focus events caused by
// keyboard grabs and pointer-root focus.
func focusChangeXCB(mode, detail byte) bool {
	if mode == xproto.NotifyModeGrab || mode == xproto.NotifyModeUngrab {
		return false
	}
	return detail != xproto.NotifyDetailPointer
}
