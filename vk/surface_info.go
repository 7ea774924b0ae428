// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package vk

import (
	"unsafe"

	"github.com/gviegas/ngl/wsi"
)

// waylandSurfaceCreateInfo mirrors VkWaylandSurfaceCreateInfoKHR.
type waylandSurfaceCreateInfo struct {
	sType   uint32
	pNext   unsafe.Pointer
	flags   uint32
	display uintptr
	surface uintptr
}

// xcbSurfaceCreateInfo mirrors VkXcbSurfaceCreateInfoKHR.
type xcbSurfaceCreateInfo struct {
	sType      uint32
	pNext      unsafe.Pointer
	flags      uint32
	connection uintptr
	window     uint32
}

// win32SurfaceCreateInfo mirrors VkWin32SurfaceCreateInfoKHR.
type win32SurfaceCreateInfo struct {
	sType     uint32
	pNext     unsafe.Pointer
	flags     uint32
	hinstance uintptr
	hwnd      uintptr
}

// surfaceCreator knows how to create a surface for one
// backend.
type surfaceCreator struct {
	// vkCreate*SurfaceKHR.
	proc string
	// info returns the create info for n.
	info func(n wsi.Native) unsafe.Pointer
}

// Backends that surfaces can be created for.
// Android windows are not created by wsi, so there is
// nothing to present to.
var surfaceCreators = map[wsi.Backend]surfaceCreator{
	wsi.Wayland: {
		proc: "vkCreateWaylandSurfaceKHR",
		info: func(n wsi.Native) unsafe.Pointer {
			return unsafe.Pointer(&waylandSurfaceCreateInfo{
				sType:   structTypeWaylandSurfaceCreateInfo,
				display: n.Display,
				surface: n.Window,
			})
		},
	},
	wsi.XCB: {
		proc: "vkCreateXcbSurfaceKHR",
		info: func(n wsi.Native) unsafe.Pointer {
			return unsafe.Pointer(&xcbSurfaceCreateInfo{
				sType:      structTypeXCBSurfaceCreateInfo,
				connection: n.Display,
				window:     uint32(n.Window),
			})
		},
	},
	wsi.Win32: {
		proc: "vkCreateWin32SurfaceKHR",
		info: func(n wsi.Native) unsafe.Pointer {
			return unsafe.Pointer(&win32SurfaceCreateInfo{
				sType:     structTypeWin32SurfaceCreateInfo,
				hinstance: n.Display,
				hwnd:      n.Window,
			})
		},
	},
}
