// Copyright 2022 Gustavo C. Viegas. All rights reserved.

//go:build windows && (amd64 || arm64)

package wsi

import (
	"sync"
	"unsafe"

	"golang.org/x/sys/windows"

	"github.com/gviegas/ngl/internal/debug"
)

func init() {
	register(Win32, connectWin32)
}

var (
	user32               = windows.NewLazySystemDLL("user32.dll")
	procRegisterClassEx  = user32.NewProc("RegisterClassExW")
	procUnregisterClass  = user32.NewProc("UnregisterClassW")
	procCreateWindowEx   = user32.NewProc("CreateWindowExW")
	procDestroyWindow    = user32.NewProc("DestroyWindow")
	procDefWindowProc    = user32.NewProc("DefWindowProcW")
	procShowWindow       = user32.NewProc("ShowWindow")
	procSetWindowPos     = user32.NewProc("SetWindowPos")
	procSetWindowText    = user32.NewProc("SetWindowTextW")
	procAdjustWindowRect = user32.NewProc("AdjustWindowRectEx")
	procPeekMessage      = user32.NewProc("PeekMessageW")
	procTranslateMessage = user32.NewProc("TranslateMessage")
	procDispatchMessage  = user32.NewProc("DispatchMessageW")
	procLoadCursor       = user32.NewProc("LoadCursorW")
	procLoadIcon         = user32.NewProc("LoadIconW")
)

const (
	csHRedraw          = 0x0002
	csVRedraw          = 0x0001
	csOwnDC            = 0x0020
	wsOverlappedWindow = 0x00CF0000
	cwUseDefault       = 0x80000000
	swHide             = 0
	swShowNormal       = 1
	swpNoMove          = 0x0002
	swpNoZOrder        = 0x0004
	swpNoActivate      = 0x0010
	pmRemove           = 0x0001
	idcArrow           = 32512
	idiApplication     = 32512

	wmSize      = 0x0005
	wmSetFocus  = 0x0007
	wmKillFocus = 0x0008
	wmClose     = 0x0010

	sizeMinimized = 1
)

type wndClassEx struct {
	size       uint32
	style      uint32
	wndProc    uintptr
	clsExtra   int32
	wndExtra   int32
	instance   windows.Handle
	icon       windows.Handle
	cursor     windows.Handle
	background windows.Handle
	menuName   *uint16
	className  *uint16
	iconSm     windows.Handle
}

type msgWin32 struct {
	hwnd    uintptr
	message uint32
	wParam  uintptr
	lParam  uintptr
	time    uint32
	ptX     int32
	ptY     int32
	private uint32
}

type rectWin32 struct {
	left, top, right, bottom int32
}

// The window procedure is created once per process.
var (
	wndProcOnce sync.Once
	wndProc     uintptr
)

// connWin32 implements conn.
type connWin32 struct {
	d         *Display
	hinst     windows.Handle
	className *uint16
	classOK   bool
	wins      map[uintptr]*Window
}

// The open connection, for use by wndProcWin32.
var curWin32 *connWin32

// connectWin32 wraps the module handle of the process.
func connectWin32(d *Display) (conn, error) {
	if err := user32.Load(); err != nil {
		return nil, &ConnError{Backend: Win32, Err: ErrClientLibrary, Cause: err}
	}
	var hinst windows.Handle
	if err := windows.GetModuleHandleEx(0, nil, &hinst); err != nil {
		return nil, &ConnError{Backend: Win32, Err: ErrProtocol, Cause: err}
	}
	name := d.appName
	if name == "" {
		name = "ngl"
	}
	className, err := windows.UTF16PtrFromString(name)
	if err != nil {
		return nil, &ConnError{Backend: Win32, Err: ErrProtocol, Cause: err}
	}
	wndProcOnce.Do(func() { wndProc = windows.NewCallback(wndProcWin32) })
	c := &connWin32{
		d:         d,
		hinst:     hinst,
		className: className,
		wins:      make(map[uintptr]*Window),
	}
	curWin32 = c
	debug.Printf("wsi: win32: module %#x, class %q", hinst, name)
	return c, nil
}

// registerClass registers the window class on first use.
func (c *connWin32) registerClass() error {
	if c.classOK {
		return nil
	}
	icon, _, _ := procLoadIcon.Call(0, idiApplication)
	cursor, _, _ := procLoadCursor.Call(0, idcArrow)
	wc := wndClassEx{
		style:     csHRedraw | csVRedraw | csOwnDC,
		wndProc:   wndProc,
		instance:  c.hinst,
		icon:      windows.Handle(icon),
		cursor:    windows.Handle(cursor),
		className: c.className,
	}
	wc.size = uint32(unsafe.Sizeof(wc))
	if r, _, err := procRegisterClassEx.Call(uintptr(unsafe.Pointer(&wc))); r == 0 {
		return err
	}
	c.classOK = true
	return nil
}

func (c *connWin32) display() uintptr { return uintptr(c.hinst) }

func (c *connWin32) close() {
	for hwnd := range c.wins {
		procDestroyWindow.Call(hwnd)
	}
	c.wins = nil
	if c.classOK {
		procUnregisterClass.Call(uintptr(unsafe.Pointer(c.className)), uintptr(c.hinst))
		c.classOK = false
	}
	if curWin32 == c {
		curWin32 = nil
	}
}

// dispatch drains the thread's message queue.
func (c *connWin32) dispatch() {
	var msg msgWin32
	for {
		r, _, _ := procPeekMessage.Call(uintptr(unsafe.Pointer(&msg)), 0, 0, 0, pmRemove)
		if r == 0 {
			return
		}
		procTranslateMessage.Call(uintptr(unsafe.Pointer(&msg)))
		procDispatchMessage.Call(uintptr(unsafe.Pointer(&msg)))
	}
}

// windowWin32 implements nativeWindow.
type windowWin32 struct {
	c    *connWin32
	hwnd uintptr
}

// outerSize returns the window size whose client area
// is width by height.
func outerSize(width, height int) (int, int, error) {
	rect := rectWin32{right: int32(width), bottom: int32(height)}
	r, _, err := procAdjustWindowRect.Call(uintptr(unsafe.Pointer(&rect)), wsOverlappedWindow, 0, 0)
	if r == 0 {
		return 0, 0, err
	}
	return int(rect.right - rect.left), int(rect.bottom - rect.top), nil
}

// newWindow creates and shows a new window.
func (c *connWin32) newWindow(w *Window) (nativeWindow, error) {
	if err := c.registerClass(); err != nil {
		return nil, err
	}
	ow, oh, err := outerSize(w.width, w.height)
	if err != nil {
		return nil, err
	}
	title, err := windows.UTF16PtrFromString(w.title)
	if err != nil {
		return nil, err
	}
	hwnd, _, err := procCreateWindowEx.Call(
		0,
		uintptr(unsafe.Pointer(c.className)),
		uintptr(unsafe.Pointer(title)),
		wsOverlappedWindow,
		cwUseDefault,
		cwUseDefault,
		uintptr(ow),
		uintptr(oh),
		0,
		0,
		uintptr(c.hinst),
		0,
	)
	if hwnd == 0 {
		return nil, err
	}
	c.wins[hwnd] = w
	nw := &windowWin32{c: c, hwnd: hwnd}
	nw.show()
	return nw, nil
}

func (w *windowWin32) handle() uintptr { return w.hwnd }

func (w *windowWin32) show() error {
	procShowWindow.Call(w.hwnd, swShowNormal)
	return nil
}

func (w *windowWin32) hide() error {
	procShowWindow.Call(w.hwnd, swHide)
	return nil
}

// resize resizes the window. WM_SIZE is sent before
// SetWindowPos returns.
func (w *windowWin32) resize(width, height int) error {
	ow, oh, err := outerSize(width, height)
	if err != nil {
		return err
	}
	flags := uintptr(swpNoMove | swpNoZOrder | swpNoActivate)
	if r, _, err := procSetWindowPos.Call(w.hwnd, 0, 0, 0, uintptr(ow), uintptr(oh), flags); r == 0 {
		return err
	}
	return nil
}

func (w *windowWin32) setTitle(title string) error {
	s, err := windows.UTF16PtrFromString(title)
	if err != nil {
		return err
	}
	if r, _, err := procSetWindowText.Call(w.hwnd, uintptr(unsafe.Pointer(s))); r == 0 {
		return err
	}
	return nil
}

func (w *windowWin32) destroy() {
	if w.c.wins == nil {
		return
	}
	delete(w.c.wins, w.hwnd)
	procDestroyWindow.Call(w.hwnd)
}

func wndProcWin32(hwnd, msg, wParam, lParam uintptr) uintptr {
	var w *Window
	if c := curWin32; c != nil {
		w = c.wins[hwnd]
	}
	if w == nil {
		r, _, _ := procDefWindowProc.Call(hwnd, msg, wParam, lParam)
		return r
	}
	switch msg {
	case wmSize:
		if wParam != sizeMinimized {
			w.notifyResize(int(lParam&0xffff), int(lParam>>16&0xffff))
		}
		return 0
	case wmClose:
		// DefWindowProc would destroy the window.
		w.notifyClose()
		return 0
	case wmSetFocus:
		w.notifyFocus(true)
	case wmKillFocus:
		w.notifyFocus(false)
	}
	r, _, _ := procDefWindowProc.Call(hwnd, msg, wParam, lParam)
	return r
}
