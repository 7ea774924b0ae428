// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package vk

import (
	"unsafe"

	"github.com/gviegas/ngl/internal/dl"
	"github.com/gviegas/ngl/wsi"
)

// Instance extensions.
const (
	ExtSurface        = "VK_KHR_surface"
	ExtAndroidSurface = "VK_KHR_android_surface"
	ExtWaylandSurface = "VK_KHR_wayland_surface"
	ExtWin32Surface   = "VK_KHR_win32_surface"
	ExtXCBSurface     = "VK_KHR_xcb_surface"
)

// Device extensions.
const (
	ExtSwapchain = "VK_KHR_swapchain"
)

// RequiredExtensions returns the instance extensions that
// must be enabled to create surfaces for windows of the
// given backend. VK_KHR_surface comes first.
// It returns nil for None.
func RequiredExtensions(b wsi.Backend) []string {
	var ext string
	switch b {
	case wsi.Wayland:
		ext = ExtWaylandSurface
	case wsi.XCB:
		ext = ExtXCBSurface
	case wsi.Win32:
		ext = ExtWin32Surface
	case wsi.AndroidStub:
		ext = ExtAndroidSurface
	default:
		return nil
	}
	return []string{ExtSurface, ext}
}

// MissingExtensions returns the names in want that are
// not in have, in order and without repetition.
func MissingExtensions(want, have []string) []string {
	in := make(map[string]bool, len(have))
	for _, s := range have {
		in[s] = true
	}
	var miss []string
	for _, s := range want {
		if !in[s] {
			miss = append(miss, s)
			in[s] = true
		}
	}
	return miss
}

// extensionProperties mirrors VkExtensionProperties.
type extensionProperties struct {
	extensionName [256]byte
	specVersion   uint32
}

// InstanceExtensions returns the names of all instance
// extensions advertised by the Vulkan implementation.
func (l *Loader) InstanceExtensions() (exts []string, err error) {
	fn, _ := l.global.Lookup("vkEnumerateInstanceExtensionProperties")
	for {
		var n uint32
		r := Result(int32(l.invoke(fn, 0, uintptr(unsafe.Pointer(&n)), 0)))
		if err = checkResult(r); err != nil || n == 0 {
			return nil, err
		}
		props := make([]extensionProperties, n)
		r = Result(int32(l.invoke(fn, 0, uintptr(unsafe.Pointer(&n)), uintptr(unsafe.Pointer(&props[0])))))
		if err = checkResult(r); err != nil {
			return nil, err
		}
		if r == Incomplete {
			// Changed between calls.
			continue
		}
		exts = make([]string, n)
		for i := range exts {
			exts[i] = dl.GoStringN(props[i].extensionName[:])
		}
		return exts, nil
	}
}
