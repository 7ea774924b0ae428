// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package vk

import (
	"testing"
	"unsafe"

	"github.com/gviegas/ngl/internal/dl"
	"github.com/gviegas/ngl/wsi"
)

// fakeVK is a Vulkan implementation that runs in Go.
// Functions have fake addresses that fakeVK.call
// dispatches on; structures are read from memory as
// the real implementation would.
type fakeVK struct {
	t *testing.T

	addrs map[string]uintptr
	fns   map[uintptr]func(args []uintptr) uintptr

	// Functions that the implementation does not provide.
	missing map[string]bool
	// Zero means no vkEnumerateInstanceVersion.
	version uint32
	exts    []string

	// Calls to vkGetInstanceProcAddr/vkGetDeviceProcAddr,
	// by handle.
	gipaCalls map[uintptr]int
	gdpaCalls map[uintptr]int

	createResult  Result
	surfaceResult Result
	// Added to every VkSurfaceKHR.
	surfaceBase uint64

	nextHandle uintptr
	instances  map[uintptr]fakeInstance
	surfaces   map[uint64]fakeSurface
}

type fakeInstance struct {
	appName    string
	engineName string
	apiVersion uint32
	exts       []string
	layers     []string
	destroyed  bool
}

type fakeSurface struct {
	inst      uintptr
	stype     uint32
	display   uintptr
	window    uintptr
	destroyed bool
}

const (
	fakeGIPA    = 0x10
	fakeDevice  = 0xde0
	fakePhysDev = 0xd00
)

func newFakeVK(t *testing.T) *fakeVK {
	f := &fakeVK{
		t:         t,
		addrs:     make(map[string]uintptr),
		fns:       make(map[uintptr]func([]uintptr) uintptr),
		missing:   make(map[string]bool),
		version:   API13,
		exts:      []string{ExtSurface, ExtXCBSurface, ExtWaylandSurface, ExtWin32Surface, "VK_EXT_debug_utils"},
		gipaCalls: make(map[uintptr]int),
		gdpaCalls: make(map[uintptr]int),
		instances: make(map[uintptr]fakeInstance),
		surfaces:  make(map[uint64]fakeSurface),
	}
	f.fns[fakeGIPA] = f.getInstanceProcAddr
	impl := map[string]func([]uintptr) uintptr{
		"vkGetDeviceProcAddr":                       f.getDeviceProcAddr,
		"vkEnumerateInstanceVersion":                f.enumerateInstanceVersion,
		"vkEnumerateInstanceExtensionProperties":    f.enumerateInstanceExtensionProperties,
		"vkCreateInstance":                          f.createInstance,
		"vkDestroyInstance":                         f.destroyInstance,
		"vkCreateXcbSurfaceKHR":                     f.createSurface,
		"vkCreateWaylandSurfaceKHR":                 f.createSurface,
		"vkCreateWin32SurfaceKHR":                   f.createSurface,
		"vkDestroySurfaceKHR":                       f.destroySurface,
		"vkGetPhysicalDeviceSurfaceSupportKHR":      f.surfaceSupport,
		"vkGetPhysicalDeviceSurfaceCapabilitiesKHR": f.surfaceCapabilities,
		"vkGetPhysicalDeviceSurfaceFormatsKHR":      f.surfaceFormats,
		"vkGetPhysicalDeviceSurfacePresentModesKHR": f.surfacePresentModes,
	}
	addr := uintptr(0x1000)
	for _, names := range [...][]string{globalProcs[:], instanceProcs[:], deviceProcs[:]} {
		for _, name := range names {
			if _, ok := f.addrs[name]; ok {
				continue
			}
			f.addrs[name] = addr
			if fn, ok := impl[name]; ok {
				f.fns[addr] = fn
			} else {
				f.fns[addr] = func([]uintptr) uintptr { return 0 }
			}
			addr += 0x10
		}
	}
	return f
}

// loader returns a Loader that calls into f.
func (f *fakeVK) loader() *Loader {
	f.t.Helper()
	l, err := newLoader(fakeGIPA, f.call)
	if err != nil {
		f.t.Fatalf("newLoader: unexpected error: %v", err)
	}
	return l
}

func (f *fakeVK) call(fn uintptr, args ...uintptr) uintptr {
	impl, ok := f.fns[fn]
	if !ok {
		f.t.Errorf("fakeVK: call to unknown address %#x", fn)
		return 0
	}
	return impl(args)
}

func isGlobal(name string) bool {
	for _, s := range globalProcs {
		if s == name {
			return true
		}
	}
	return false
}

func (f *fakeVK) getInstanceProcAddr(args []uintptr) uintptr {
	inst, name := args[0], dl.GoString(args[1])
	f.gipaCalls[inst]++
	if f.missing[name] || (name == "vkEnumerateInstanceVersion" && f.version == 0) {
		return 0
	}
	if inst == 0 {
		if !isGlobal(name) {
			return 0
		}
	} else if i, ok := f.instances[inst]; !ok || i.destroyed {
		f.t.Errorf("fakeVK: vkGetInstanceProcAddr: invalid instance %#x", inst)
		return 0
	}
	return f.addrs[name]
}

func (f *fakeVK) getDeviceProcAddr(args []uintptr) uintptr {
	dev, name := args[0], dl.GoString(args[1])
	f.gdpaCalls[dev]++
	if f.missing[name] {
		return 0
	}
	for _, s := range deviceProcs {
		if s == name {
			return f.addrs[name]
		}
	}
	return 0
}

func (f *fakeVK) enumerateInstanceVersion(args []uintptr) uintptr {
	*(*uint32)(unsafe.Pointer(args[0])) = f.version
	return ret(Success)
}

func (f *fakeVK) enumerateInstanceExtensionProperties(args []uintptr) uintptr {
	if args[0] != 0 {
		return ret(ErrorLayerNotPresent)
	}
	n := (*uint32)(unsafe.Pointer(args[1]))
	if args[2] == 0 {
		*n = uint32(len(f.exts))
		return ret(Success)
	}
	props := unsafe.Slice((*extensionProperties)(unsafe.Pointer(args[2])), *n)
	r := Success
	if int(*n) < len(f.exts) {
		r = Incomplete
	} else {
		*n = uint32(len(f.exts))
	}
	for i := range props[:*n] {
		props[i] = extensionProperties{specVersion: 1}
		copy(props[i].extensionName[:255], f.exts[i])
	}
	return ret(r)
}

func goStrings(pp *uintptr, n uint32) []string {
	if n == 0 {
		return nil
	}
	var s []string
	for _, p := range unsafe.Slice(pp, n) {
		s = append(s, dl.GoString(p))
	}
	return s
}

func (f *fakeVK) createInstance(args []uintptr) uintptr {
	if f.createResult != Success {
		return ret(f.createResult)
	}
	ci := (*instanceCreateInfo)(unsafe.Pointer(args[0]))
	if ci.sType != structTypeInstanceCreateInfo {
		f.t.Errorf("fakeVK: vkCreateInstance: sType %d", ci.sType)
	}
	if args[1] != 0 {
		f.t.Error("fakeVK: vkCreateInstance: unexpected allocator")
	}
	var i fakeInstance
	if app := ci.pApplicationInfo; app != nil {
		if app.sType != structTypeApplicationInfo {
			f.t.Errorf("fakeVK: VkApplicationInfo: sType %d", app.sType)
		}
		i.appName = dl.GoString(uintptr(unsafe.Pointer(app.pApplicationName)))
		i.engineName = dl.GoString(uintptr(unsafe.Pointer(app.pEngineName)))
		i.apiVersion = app.apiVersion
	}
	i.exts = goStrings(ci.ppEnabledExtensionNames, ci.enabledExtensionCount)
	i.layers = goStrings(ci.ppEnabledLayerNames, ci.enabledLayerCount)
	f.nextHandle += 0x100
	f.instances[f.nextHandle] = i
	*(*uintptr)(unsafe.Pointer(args[2])) = f.nextHandle
	return ret(Success)
}

func (f *fakeVK) destroyInstance(args []uintptr) uintptr {
	i, ok := f.instances[args[0]]
	if !ok || i.destroyed {
		f.t.Errorf("fakeVK: vkDestroyInstance: invalid instance %#x", args[0])
		return 0
	}
	for h, s := range f.surfaces {
		if s.inst == args[0] && !s.destroyed {
			f.t.Errorf("fakeVK: vkDestroyInstance: surface %#x not destroyed", h)
		}
	}
	i.destroyed = true
	f.instances[args[0]] = i
	return 0
}

func (f *fakeVK) createSurface(args []uintptr) uintptr {
	if f.surfaceResult != Success {
		return ret(f.surfaceResult)
	}
	s := fakeSurface{inst: args[0]}
	s.stype = *(*uint32)(unsafe.Pointer(args[1]))
	switch s.stype {
	case structTypeXCBSurfaceCreateInfo:
		info := (*xcbSurfaceCreateInfo)(unsafe.Pointer(args[1]))
		s.display, s.window = info.connection, uintptr(info.window)
	case structTypeWaylandSurfaceCreateInfo:
		info := (*waylandSurfaceCreateInfo)(unsafe.Pointer(args[1]))
		s.display, s.window = info.display, info.surface
	case structTypeWin32SurfaceCreateInfo:
		info := (*win32SurfaceCreateInfo)(unsafe.Pointer(args[1]))
		s.display, s.window = info.hinstance, info.hwnd
	default:
		f.t.Errorf("fakeVK: vkCreate*SurfaceKHR: sType %d", s.stype)
	}
	h := f.surfaceBase + uint64(len(f.surfaces)+1)
	f.surfaces[h] = s
	*(*uint64)(unsafe.Pointer(args[3])) = h
	return ret(Success)
}

func (f *fakeVK) destroySurface(args []uintptr) uintptr {
	s, ok := f.surfaces[uint64(args[1])]
	if !ok || s.destroyed || s.inst != args[0] {
		f.t.Errorf("fakeVK: vkDestroySurfaceKHR: invalid surface %#x", args[1])
		return 0
	}
	s.destroyed = true
	f.surfaces[uint64(args[1])] = s
	return 0
}

// Queue family 0 of fakePhysDev can present.
func (f *fakeVK) surfaceSupport(args []uintptr) uintptr {
	if s, ok := f.surfaces[uint64(args[2])]; !ok || s.destroyed {
		f.t.Errorf("fakeVK: vkGetPhysicalDeviceSurfaceSupportKHR: invalid surface %#x", args[2])
		return ret(ErrorSurfaceLost)
	}
	var supp uint32
	if args[0] == fakePhysDev && args[1] == 0 {
		supp = 1
	}
	*(*uint32)(unsafe.Pointer(args[3])) = supp
	return ret(Success)
}

func (f *fakeVK) surfaceCapabilities(args []uintptr) uintptr {
	if args[0] != fakePhysDev {
		return ret(ErrorSurfaceLost)
	}
	*(*SurfaceCapabilities)(unsafe.Pointer(args[2])) = SurfaceCapabilities{
		MinImageCount:       2,
		MaxImageCount:       8,
		CurrentExtent:       Extent2D{800, 600},
		MinImageExtent:      Extent2D{1, 1},
		MaxImageExtent:      Extent2D{16384, 16384},
		MaxImageArrayLayers: 1,
	}
	return ret(Success)
}

var fakeFormats = []SurfaceFormat{{44, 0}, {50, 0}}

func (f *fakeVK) surfaceFormats(args []uintptr) uintptr {
	n := (*uint32)(unsafe.Pointer(args[2]))
	if args[3] == 0 {
		*n = uint32(len(fakeFormats))
		return ret(Success)
	}
	copy(unsafe.Slice((*SurfaceFormat)(unsafe.Pointer(args[3])), *n), fakeFormats)
	return ret(Success)
}

var fakePresentModes = []PresentMode{PresentModeFIFO, PresentModeMailbox}

func (f *fakeVK) surfacePresentModes(args []uintptr) uintptr {
	n := (*uint32)(unsafe.Pointer(args[2]))
	if args[3] == 0 {
		*n = uint32(len(fakePresentModes))
		return ret(Success)
	}
	copy(unsafe.Slice((*PresentMode)(unsafe.Pointer(args[3])), *n), fakePresentModes)
	return ret(Success)
}

// ret converts r to the value returned by a C function.
func ret(r Result) uintptr { return uintptr(uint32(r)) }

// fakeWindow implements NativeWindow.
type fakeWindow struct {
	n   wsi.Native
	err error
}

func (w *fakeWindow) Native() (wsi.Native, error) { return w.n, w.err }
