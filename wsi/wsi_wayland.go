// Copyright 2022 Gustavo C. Viegas. All rights reserved.

//go:build linux && !android && (amd64 || arm64) && !nowayland

package wsi

import (
	"errors"
	"runtime"
	"sync"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/gviegas/ngl/internal/bitvec"
	"github.com/gviegas/ngl/internal/debug"
	"github.com/gviegas/ngl/internal/dl"
)

func init() {
	register(Wayland, connectWayland)
}

// libWayland holds the libwayland-client entry points.
type libWayland struct {
	lib *dl.Lib

	displayConnect         uintptr
	displayDisconnect      uintptr
	displayGetFd           uintptr
	displayRoundtrip       uintptr
	displayDispatchPending uintptr
	displayFlush           uintptr
	displayPrepareRead     uintptr
	displayReadEvents      uintptr
	displayCancelRead      uintptr
	displayGetError        uintptr
	proxyMarshalCtor       uintptr
	proxyMarshal           uintptr
	proxyAddListener       uintptr
	proxyDestroy           uintptr
	proxyGetVersion        uintptr

	registryInterface   uintptr
	compositorInterface uintptr
	surfaceInterface    uintptr
}

// Handle for the shared object.
// It stays open once loaded.
var hWayland *libWayland

// openWayland opens the shared library and gets function
// pointers and interfaces.
func openWayland() (*libWayland, error) {
	if hWayland != nil {
		return hWayland, nil
	}
	lib, err := dl.Open("libwayland-client.so.0", "libwayland-client.so")
	if err != nil {
		return nil, err
	}
	l := &libWayland{lib: lib}
	syms := [...]struct {
		name string
		dst  *uintptr
	}{
		{"wl_display_connect", &l.displayConnect},
		{"wl_display_disconnect", &l.displayDisconnect},
		{"wl_display_get_fd", &l.displayGetFd},
		{"wl_display_roundtrip", &l.displayRoundtrip},
		{"wl_display_dispatch_pending", &l.displayDispatchPending},
		{"wl_display_flush", &l.displayFlush},
		{"wl_display_prepare_read", &l.displayPrepareRead},
		{"wl_display_read_events", &l.displayReadEvents},
		{"wl_display_cancel_read", &l.displayCancelRead},
		{"wl_display_get_error", &l.displayGetError},
		{"wl_proxy_marshal_array_constructor_versioned", &l.proxyMarshalCtor},
		{"wl_proxy_marshal_array", &l.proxyMarshal},
		{"wl_proxy_add_listener", &l.proxyAddListener},
		{"wl_proxy_destroy", &l.proxyDestroy},
		{"wl_proxy_get_version", &l.proxyGetVersion},
		{"wl_registry_interface", &l.registryInterface},
		{"wl_compositor_interface", &l.compositorInterface},
		{"wl_surface_interface", &l.surfaceInterface},
	}
	for _, s := range syms {
		if *s.dst, err = lib.Sym(s.name); err != nil {
			lib.Close()
			return nil, errors.New("wsi: failed to fetch Wayland symbol " + s.name)
		}
	}
	debug.Printf("wsi: loaded %s", lib.Name())
	hWayland = l
	return l, nil
}

// Listeners are arrays of C function pointers. Callbacks
// are a scarce resource, so they are created once.
var (
	listenersOnce       sync.Once
	registryListener    [2]uintptr
	wmBaseListenerXDG   [1]uintptr
	surfaceListenerXDG  [1]uintptr
	toplevelListenerXDG [2]uintptr
)

func initListenersWayland() {
	listenersOnce.Do(func() {
		registryListener = [2]uintptr{
			dl.NewCallback(registryGlobalWayland),
			dl.NewCallback(registryGlobalRemoveWayland),
		}
		wmBaseListenerXDG = [1]uintptr{
			dl.NewCallback(wmBasePingXDG),
		}
		surfaceListenerXDG = [1]uintptr{
			dl.NewCallback(surfaceConfigureXDG),
		}
		toplevelListenerXDG = [2]uintptr{
			dl.NewCallback(toplevelConfigureXDG),
			dl.NewCallback(toplevelCloseXDG),
		}
	})
}

// connWayland implements conn.
type connWayland struct {
	d   *Display
	lib *libWayland
	fd  int32

	dpy        uintptr
	registry   uintptr
	compositor uintptr
	wmBase     uintptr

	compositorName uint32
	wmBaseName     uint32

	// Listener user data is a window id.
	// Bit id-1 of ids is set while the id is in use.
	wins map[uintptr]*windowWayland
	ids  bitvec.V[uint16]
	lost bool

	// Arguments of the request being marshaled.
	args []uintptr
}

// The open connection, for use by listener callbacks.
var curWayland *connWayland

// connectWayland connects to the compositor and binds the
// globals that windows need.
func connectWayland(d *Display) (conn, error) {
	lib, err := openWayland()
	if err != nil {
		return nil, &ConnError{Backend: Wayland, Err: ErrClientLibrary, Cause: err}
	}
	initListenersWayland()

	dpy := dl.Call(lib.displayConnect, 0)
	if dpy == 0 {
		return nil, &ConnError{Backend: Wayland, Err: ErrServerUnreachable, Cause: errors.New("wl_display_connect failed")}
	}
	c := &connWayland{
		d:    d,
		lib:  lib,
		dpy:  dpy,
		wins: make(map[uintptr]*windowWayland),
	}
	c.ids.Grow((MaxWindows + 15) / 16)
	curWayland = c
	fail := func(cause string) (conn, error) {
		c.close()
		return nil, &ConnError{Backend: Wayland, Err: ErrProtocol, Cause: errors.New(cause)}
	}

	c.registry = c.newProxy(dpy, displayGetRegistryWayland, lib.registryInterface, c.version(dpy), 0)
	if c.registry == 0 {
		return fail("wl_display.get_registry failed")
	}
	registryPtr := uintptr(unsafe.Pointer(&registryListener[0]))
	if dl.Call(lib.proxyAddListener, c.registry, registryPtr, 0) != 0 {
		return fail("wl_registry listener not set")
	}
	if int32(dl.Call(lib.displayRoundtrip, dpy)) < 0 {
		return fail("wl_display.roundtrip failed")
	}
	switch {
	case c.compositor == 0:
		return fail("wl_compositor not advertised")
	case c.wmBase == 0:
		return fail("xdg_wm_base not advertised")
	}
	c.fd = int32(dl.Call(lib.displayGetFd, dpy))
	return c, nil
}

// newProxy sends a request that creates a new object.
// args must include a placeholder for the new_id.
func (c *connWayland) newProxy(proxy uintptr, opcode uint32, iface uintptr, version uint32, args ...uintptr) uintptr {
	return dl.Call(c.lib.proxyMarshalCtor, proxy, uintptr(opcode), c.marshalArgs(args), iface, uintptr(version))
}

// request sends a request that creates no object.
func (c *connWayland) request(proxy uintptr, opcode uint32, args ...uintptr) {
	dl.Call(c.lib.proxyMarshal, proxy, uintptr(opcode), c.marshalArgs(args))
}

// marshalArgs copies args into the wl_argument array of c
// and returns its address, or 0 if args is empty.
// The array is heap memory that stays put while
// libwayland reads it; it is overwritten by the next
// request.
func (c *connWayland) marshalArgs(args []uintptr) uintptr {
	if len(args) == 0 {
		return 0
	}
	c.args = append(c.args[:0], args...)
	return uintptr(unsafe.Pointer(&c.args[0]))
}

// destroyProxy sends the destructor request (if any) and
// frees proxy.
func (c *connWayland) destroyProxy(proxy uintptr, opcode int) {
	if proxy == 0 {
		return
	}
	if opcode >= 0 {
		c.request(proxy, uint32(opcode))
	}
	dl.Call(c.lib.proxyDestroy, proxy)
}

func (c *connWayland) version(proxy uintptr) uint32 {
	return uint32(dl.Call(c.lib.proxyGetVersion, proxy))
}

func (c *connWayland) display() uintptr { return c.dpy }

func (c *connWayland) close() {
	for _, w := range c.wins {
		w.destroy()
	}
	c.destroyProxy(c.wmBase, wmBaseDestroyXDG)
	c.destroyProxy(c.compositor, -1)
	c.destroyProxy(c.registry, -1)
	c.wmBase, c.compositor, c.registry = 0, 0, 0
	if c.dpy != 0 {
		dl.Call(c.lib.displayFlush, c.dpy)
		dl.Call(c.lib.displayDisconnect, c.dpy)
		c.dpy = 0
	}
	if curWayland == c {
		curWayland = nil
	}
}

// dispatch reads whatever the compositor has sent without
// waiting for more, then runs the listeners.
func (c *connWayland) dispatch() {
	if c.lost {
		return
	}
	lib := c.lib
	for dl.Call(lib.displayPrepareRead, c.dpy) != 0 {
		if int32(dl.Call(lib.displayDispatchPending, c.dpy)) < 0 {
			c.connectionLost()
			return
		}
	}
	// EAGAIN here only means that the socket buffer is
	// full; the rest is flushed on the next call.
	dl.Call(lib.displayFlush, c.dpy)

	fds := []unix.PollFd{{Fd: c.fd, Events: unix.POLLIN}}
	n, err := unix.Poll(fds, 0)
	if err != nil || n == 0 || fds[0].Revents == 0 {
		dl.Call(lib.displayCancelRead, c.dpy)
	} else if int32(dl.Call(lib.displayReadEvents, c.dpy)) < 0 {
		c.connectionLost()
		return
	}
	if int32(dl.Call(lib.displayDispatchPending, c.dpy)) < 0 {
		c.connectionLost()
	}
}

// connectionLost asks every window to close. The display
// stays usable only for Close.
func (c *connWayland) connectionLost() {
	c.lost = true
	code := int32(dl.Call(c.lib.displayGetError, c.dpy))
	debug.Printf("wsi: wayland: connection lost (error %d)", code)
	for _, w := range c.wins {
		w.w.notifyClose()
	}
}

// windowWayland implements nativeWindow.
type windowWayland struct {
	c  *connWayland
	w  *Window
	id uintptr

	surface    uintptr
	xdgSurface uintptr
	toplevel   uintptr

	// Latest xdg_toplevel.configure, applied on
	// xdg_surface.configure.
	cfgWidth   int
	cfgHeight  int
	activated  bool
	configured bool
}

// newWindow creates a wl_surface and gives it the
// xdg_toplevel role.
func (c *connWayland) newWindow(w *Window) (nativeWindow, error) {
	if c.lost {
		return nil, errors.New("wayland connection lost")
	}
	sfc := c.newProxy(c.compositor, compositorCreateSfcWayland, c.lib.surfaceInterface, c.version(c.compositor), 0)
	if sfc == 0 {
		return nil, errors.New("wl_compositor.create_surface failed")
	}
	idx, ok := c.ids.Take()
	if !ok {
		c.destroyProxy(sfc, surfaceDestroyWayland)
		return nil, errors.New("wayland window ids exhausted")
	}
	nw := &windowWayland{
		c:       c,
		w:       w,
		id:      uintptr(idx) + 1,
		surface: sfc,
	}
	c.wins[nw.id] = nw
	if err := nw.addRole(); err != nil {
		nw.destroy()
		return nil, err
	}
	return nw, nil
}

// addRole creates the xdg_surface and xdg_toplevel of w,
// commits and waits for the first configure.
func (w *windowWayland) addRole() error {
	c := w.c
	w.xdgSurface = c.newProxy(c.wmBase, wmBaseGetXDGSurfaceXDG,
		uintptr(unsafe.Pointer(surfaceInterfaceXDG)), c.version(c.wmBase), 0, w.surface)
	if w.xdgSurface == 0 {
		return errors.New("xdg_wm_base.get_xdg_surface failed")
	}
	dl.Call(c.lib.proxyAddListener, w.xdgSurface, uintptr(unsafe.Pointer(&surfaceListenerXDG[0])), w.id)

	w.toplevel = c.newProxy(w.xdgSurface, surfaceGetToplevelXDG,
		uintptr(unsafe.Pointer(toplevelInterfaceXDG)), c.version(w.xdgSurface), 0)
	if w.toplevel == 0 {
		w.dropRole()
		return errors.New("xdg_surface.get_toplevel failed")
	}
	dl.Call(c.lib.proxyAddListener, w.toplevel, uintptr(unsafe.Pointer(&toplevelListenerXDG[0])), w.id)

	w.setString(toplevelSetTitleXDG, w.w.title)
	if c.d.appName != "" {
		w.setString(toplevelSetAppIDXDG, c.d.appName)
	}
	c.request(w.surface, surfaceCommitWayland)

	w.configured = false
	if int32(dl.Call(c.lib.displayRoundtrip, c.dpy)) < 0 {
		c.connectionLost()
		return errors.New("wl_display.roundtrip failed")
	}
	if !w.configured {
		return errors.New("xdg_surface not configured")
	}
	return nil
}

// dropRole destroys the role objects of w.
func (w *windowWayland) dropRole() {
	w.c.destroyProxy(w.toplevel, toplevelDestroyXDG)
	w.c.destroyProxy(w.xdgSurface, surfaceDestroyXDG)
	w.toplevel, w.xdgSurface = 0, 0
}

func (w *windowWayland) setString(opcode uint32, s string) {
	p := dl.CString(s)
	w.c.request(w.toplevel, opcode, uintptr(unsafe.Pointer(p)))
	runtime.KeepAlive(p)
}

func (w *windowWayland) handle() uintptr { return w.surface }

func (w *windowWayland) show() error {
	if w.toplevel != 0 {
		return nil
	}
	return w.addRole()
}

// hide unmaps the surface by dropping its role and
// attaching a null buffer.
func (w *windowWayland) hide() error {
	if w.toplevel == 0 {
		return nil
	}
	w.dropRole()
	w.c.request(w.surface, surfaceAttachWayland, 0, 0, 0)
	w.c.request(w.surface, surfaceCommitWayland)
	dl.Call(w.c.lib.displayFlush, w.c.dpy)
	return nil
}

// resize takes effect immediately: a Wayland client
// decides the size of its own buffers.
func (w *windowWayland) resize(width, height int) error {
	w.w.notifyResize(width, height)
	return nil
}

func (w *windowWayland) setTitle(title string) error {
	if w.toplevel != 0 {
		w.setString(toplevelSetTitleXDG, title)
	}
	return nil
}

func (w *windowWayland) destroy() {
	if w.surface == 0 {
		return
	}
	w.dropRole()
	w.c.destroyProxy(w.surface, surfaceDestroyWayland)
	w.surface = 0
	delete(w.c.wins, w.id)
	w.c.ids.Unset(int(w.id) - 1)
	dl.Call(w.c.lib.displayFlush, w.c.dpy)
}

// Listener callbacks.
// Every argument arrives as a uintptr; 32-bit values are
// in the low bits.

func registryGlobalWayland(data, registry, name, iface, version uintptr) {
	c := curWayland
	if c == nil {
		return
	}
	switch dl.GoString(iface) {
	case "wl_compositor":
		vers := min(uint32(version), compositorMaxVersionWayland)
		c.compositor = c.newProxy(registry, registryBindWayland, c.lib.compositorInterface, vers,
			name, iface, uintptr(vers), 0)
		c.compositorName = uint32(name)
		debug.Printf("wsi: wayland: bound wl_compositor v%d", vers)
	case "xdg_wm_base":
		c.wmBase = c.newProxy(registry, registryBindWayland, uintptr(unsafe.Pointer(wmBaseInterfaceXDG)), 1,
			name, iface, 1, 0)
		if c.wmBase != 0 {
			dl.Call(c.lib.proxyAddListener, c.wmBase, uintptr(unsafe.Pointer(&wmBaseListenerXDG[0])), 0)
		}
		c.wmBaseName = uint32(name)
		debug.Printf("wsi: wayland: bound xdg_wm_base v1")
	}
}

func registryGlobalRemoveWayland(data, registry, name uintptr) {
	c := curWayland
	if c == nil {
		return
	}
	switch uint32(name) {
	case c.compositorName:
		debug.Printf("wsi: wayland: wl_compositor removed")
	case c.wmBaseName:
		debug.Printf("wsi: wayland: xdg_wm_base removed")
	}
}

func wmBasePingXDG(data, wmBase, serial uintptr) {
	if c := curWayland; c != nil {
		c.request(wmBase, wmBasePongXDG, uintptr(uint32(serial)))
	}
}

func surfaceConfigureXDG(data, xdgSurface, serial uintptr) {
	c := curWayland
	if c == nil {
		return
	}
	c.request(xdgSurface, surfaceAckConfigureXDG, uintptr(uint32(serial)))
	w := c.wins[data]
	if w == nil {
		return
	}
	w.configured = true
	// Zero means that the client picks the size.
	if w.cfgWidth > 0 && w.cfgHeight > 0 {
		w.w.notifyResize(w.cfgWidth, w.cfgHeight)
	}
	w.w.notifyFocus(w.activated)
}

func toplevelConfigureXDG(data, toplevel, width, height, states uintptr) {
	c := curWayland
	if c == nil {
		return
	}
	w := c.wins[data]
	if w == nil {
		return
	}
	w.cfgWidth = int(int32(uint32(width)))
	w.cfgHeight = int(int32(uint32(height)))
	w.activated = false
	if states == 0 {
		return
	}
	arr := (*wlArray)(unsafe.Pointer(states))
	if arr.data == 0 {
		return
	}
	for _, s := range unsafe.Slice((*uint32)(unsafe.Pointer(arr.data)), arr.size/4) {
		if s == toplevelActivatedXDG {
			w.activated = true
		}
	}
}

func toplevelCloseXDG(data, toplevel uintptr) {
	if c := curWayland; c != nil {
		if w := c.wins[data]; w != nil {
			w.w.notifyClose()
		}
	}
}
