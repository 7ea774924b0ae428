// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package vk

import (
	"runtime"
	"unsafe"

	"github.com/gviegas/ngl/wsi"
)

// NativeWindow is a window that a surface can be created
// for. *wsi.Window implements it.
type NativeWindow interface {
	Native() (wsi.Native, error)
}

// Surface is a VkSurfaceKHR.
// Calls go through internal/dl, which only runs on 64-bit
// targets, so the handle fits in one argument word.
type Surface struct {
	inst      *Instance
	win       NativeWindow
	native    wsi.Native
	h         uint64
	destroyed bool
}

// CreateSurface creates a surface for win.
// inst must have been created with RequiredExtensions for
// the window's backend, and there can be only one live
// surface per instance and window. A surface whose window
// was destroyed is destroyed when another window shows up
// with the same native handles.
func CreateSurface(inst *Instance, win NativeWindow) (*Surface, error) {
	if inst == nil || inst.destroyed {
		return nil, &SurfaceError{Err: ErrInstanceDestroyed}
	}
	n, err := win.Native()
	if err != nil {
		return nil, &SurfaceError{Backend: n.Backend, Err: ErrNativeHandleInvalid, Cause: err}
	}
	if n.Display == 0 || n.Window == 0 {
		return nil, &SurfaceError{Backend: n.Backend, Err: ErrNativeHandleInvalid}
	}
	sc, ok := surfaceCreators[n.Backend]
	if !ok {
		return nil, &SurfaceError{Backend: n.Backend, Err: ErrUnsupportedCombination}
	}
	if miss := MissingExtensions(RequiredExtensions(n.Backend), inst.exts); len(miss) > 0 {
		return nil, &SurfaceError{Backend: n.Backend, Err: ErrUnsupportedCombination, Cause: &extensionError{miss}}
	}
	if old, ok := inst.surfaces[n]; ok {
		if _, err := old.win.Native(); err == nil {
			return nil, &SurfaceError{Backend: n.Backend, Err: ErrSurfaceExists}
		}
		// The old window is gone and the window system
		// reused its handles.
		old.Destroy()
	}
	fn, ok := inst.procs.Lookup(sc.proc)
	if !ok {
		cause := &LoadError{Symbol: sc.proc, Err: ErrSymbolMissing}
		return nil, &SurfaceError{Backend: n.Backend, Err: ErrUnsupportedCombination, Cause: cause}
	}

	info := sc.info(n)
	var h uint64
	r := Result(int32(inst.l.invoke(fn, inst.h, uintptr(info), 0, uintptr(unsafe.Pointer(&h)))))
	runtime.KeepAlive(info)
	if err := checkResult(r); err != nil {
		return nil, &SurfaceError{Backend: n.Backend, Err: err}
	}
	s := &Surface{
		inst:   inst,
		win:    win,
		native: n,
		h:      h,
	}
	inst.surfaces[n] = s
	return s, nil
}

// Handle returns the VkSurfaceKHR.
// It fails if the surface, its instance or its window
// is gone.
func (s *Surface) Handle() (uint64, error) {
	switch {
	case s.inst.destroyed:
		return 0, &SurfaceError{Backend: s.native.Backend, Err: ErrInstanceDestroyed}
	case s.destroyed:
		return 0, &SurfaceError{Backend: s.native.Backend, Err: ErrSurfaceDestroyed}
	}
	if _, err := s.win.Native(); err != nil {
		return 0, &SurfaceError{Backend: s.native.Backend, Err: ErrNativeHandleInvalid, Cause: err}
	}
	return s.h, nil
}

// Backend returns the backend of the surface's window.
func (s *Surface) Backend() wsi.Backend { return s.native.Backend }

// Instance returns the instance s belongs to.
func (s *Surface) Instance() *Instance { return s.inst }

// Destroy destroys the surface.
// The window can then be given a new surface.
// Swapchains created for s must be destroyed first.
func (s *Surface) Destroy() {
	if s.destroyed {
		return
	}
	if !s.inst.destroyed {
		if fn, ok := s.inst.procs.Lookup("vkDestroySurfaceKHR"); ok {
			s.inst.l.invoke(fn, s.inst.h, uintptr(s.h), 0)
		}
	}
	delete(s.inst.surfaces, s.native)
	s.destroyed = true
}

// proc returns the named instance function if s can
// still be used.
func (s *Surface) proc(name string) (uintptr, error) {
	if _, err := s.Handle(); err != nil {
		return 0, err
	}
	fn, ok := s.inst.procs.Lookup(name)
	if !ok {
		return 0, &LoadError{Symbol: name, Err: ErrSymbolMissing}
	}
	return fn, nil
}

// Supported reports whether the given queue family of the
// physical device can present to s.
func (s *Surface) Supported(physDev uintptr, queueFamily uint32) (bool, error) {
	fn, err := s.proc("vkGetPhysicalDeviceSurfaceSupportKHR")
	if err != nil {
		return false, err
	}
	var supp uint32
	r := Result(int32(s.inst.l.invoke(fn, physDev, uintptr(queueFamily), uintptr(s.h), uintptr(unsafe.Pointer(&supp)))))
	if err := checkResult(r); err != nil {
		return false, err
	}
	return supp != 0, nil
}

// Extent2D mirrors VkExtent2D.
type Extent2D struct {
	Width  uint32
	Height uint32
}

// SurfaceCapabilities mirrors VkSurfaceCapabilitiesKHR.
type SurfaceCapabilities struct {
	MinImageCount           uint32
	MaxImageCount           uint32
	CurrentExtent           Extent2D
	MinImageExtent          Extent2D
	MaxImageExtent          Extent2D
	MaxImageArrayLayers     uint32
	SupportedTransforms     uint32
	CurrentTransform        uint32
	SupportedCompositeAlpha uint32
	SupportedUsageFlags     uint32
}

// Capabilities returns the capabilities of s for the
// given physical device.
func (s *Surface) Capabilities(physDev uintptr) (SurfaceCapabilities, error) {
	var caps SurfaceCapabilities
	fn, err := s.proc("vkGetPhysicalDeviceSurfaceCapabilitiesKHR")
	if err != nil {
		return caps, err
	}
	r := Result(int32(s.inst.l.invoke(fn, physDev, uintptr(s.h), uintptr(unsafe.Pointer(&caps)))))
	return caps, checkResult(r)
}

// SurfaceFormat mirrors VkSurfaceFormatKHR.
type SurfaceFormat struct {
	Format     int32
	ColorSpace int32
}

// Formats returns the formats of s for the given
// physical device.
func (s *Surface) Formats(physDev uintptr) ([]SurfaceFormat, error) {
	fn, err := s.proc("vkGetPhysicalDeviceSurfaceFormatsKHR")
	if err != nil {
		return nil, err
	}
	for {
		var n uint32
		r := Result(int32(s.inst.l.invoke(fn, physDev, uintptr(s.h), uintptr(unsafe.Pointer(&n)), 0)))
		if err := checkResult(r); err != nil || n == 0 {
			return nil, err
		}
		fmts := make([]SurfaceFormat, n)
		r = Result(int32(s.inst.l.invoke(fn, physDev, uintptr(s.h), uintptr(unsafe.Pointer(&n)), uintptr(unsafe.Pointer(&fmts[0])))))
		if err := checkResult(r); err != nil {
			return nil, err
		}
		if r != Incomplete {
			return fmts[:n], nil
		}
	}
}

// PresentMode is a VkPresentModeKHR.
type PresentMode int32

// Present modes.
const (
	PresentModeImmediate   PresentMode = 0
	PresentModeMailbox     PresentMode = 1
	PresentModeFIFO        PresentMode = 2
	PresentModeFIFORelaxed PresentMode = 3
)

// PresentModes returns the present modes of s for the
// given physical device.
func (s *Surface) PresentModes(physDev uintptr) ([]PresentMode, error) {
	fn, err := s.proc("vkGetPhysicalDeviceSurfacePresentModesKHR")
	if err != nil {
		return nil, err
	}
	for {
		var n uint32
		r := Result(int32(s.inst.l.invoke(fn, physDev, uintptr(s.h), uintptr(unsafe.Pointer(&n)), 0)))
		if err := checkResult(r); err != nil || n == 0 {
			return nil, err
		}
		modes := make([]PresentMode, n)
		r = Result(int32(s.inst.l.invoke(fn, physDev, uintptr(s.h), uintptr(unsafe.Pointer(&n)), uintptr(unsafe.Pointer(&modes[0])))))
		if err := checkResult(r); err != nil {
			return nil, err
		}
		if r != Incomplete {
			return modes[:n], nil
		}
	}
}
