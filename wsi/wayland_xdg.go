// Copyright 2022 Gustavo C. Viegas. All rights reserved.

//go:build linux && !android && (amd64 || arm64) && !nowayland

package wsi

import (
	"github.com/gviegas/ngl/internal/dl"
)

// libwayland-client exports the core protocol interfaces,
// but xdg-shell comes from wayland-protocols as generated
// C code. These are the same tables, at version 1.

// wlMessage mirrors struct wl_message.
type wlMessage struct {
	name      *byte
	signature *byte
	types     *uintptr
}

// wlInterface mirrors struct wl_interface.
type wlInterface struct {
	name        *byte
	version     int32
	methodCount int32
	methods     *wlMessage
	eventCount  int32
	events      *wlMessage
}

// wlArray mirrors struct wl_array.
type wlArray struct {
	size  uintptr
	alloc uintptr
	data  uintptr
}

// None of the messages below carries a new_id in an event,
// so libwayland never needs the types of their arguments.
var nullTypesWayland [4]uintptr

type msgDesc struct{ name, signature string }

func newInterfaceWayland(name string, reqs, evts []msgDesc) *wlInterface {
	msgs := func(ds []msgDesc) *wlMessage {
		if len(ds) == 0 {
			return nil
		}
		ms := make([]wlMessage, len(ds))
		for i, d := range ds {
			ms[i] = wlMessage{
				name:      dl.CString(d.name),
				signature: dl.CString(d.signature),
				types:     &nullTypesWayland[0],
			}
		}
		return &ms[0]
	}
	return &wlInterface{
		name:        dl.CString(name),
		version:     1,
		methodCount: int32(len(reqs)),
		methods:     msgs(reqs),
		eventCount:  int32(len(evts)),
		events:      msgs(evts),
	}
}

// xdg_wm_base.
const (
	wmBaseDestroyXDG       = 0
	wmBaseGetXDGSurfaceXDG = 2
	wmBasePongXDG          = 3
)

// xdg_surface.
const (
	surfaceDestroyXDG      = 0
	surfaceGetToplevelXDG  = 1
	surfaceAckConfigureXDG = 4
)

// xdg_toplevel.
const (
	toplevelDestroyXDG  = 0
	toplevelSetTitleXDG = 2
	toplevelSetAppIDXDG = 3

	// xdg_toplevel.state.activated
	toplevelActivatedXDG = 4
)

// wl_surface and friends.
const (
	displayGetRegistryWayland   = 1
	registryBindWayland         = 0
	compositorCreateSfcWayland  = 0
	surfaceDestroyWayland       = 0
	surfaceAttachWayland        = 1
	surfaceCommitWayland        = 6
	compositorMaxVersionWayland = 4
)

// The interfaces are referenced by libwayland for as long
// as their proxies exist, so they live in package variables.
var (
	wmBaseInterfaceXDG = newInterfaceWayland("xdg_wm_base",
		[]msgDesc{
			{"destroy", ""},
			{"create_positioner", "n"},
			{"get_xdg_surface", "no"},
			{"pong", "u"},
		},
		[]msgDesc{
			{"ping", "u"},
		})

	surfaceInterfaceXDG = newInterfaceWayland("xdg_surface",
		[]msgDesc{
			{"destroy", ""},
			{"get_toplevel", "n"},
			{"get_popup", "n?oo"},
			{"set_window_geometry", "iiii"},
			{"ack_configure", "u"},
		},
		[]msgDesc{
			{"configure", "u"},
		})

	toplevelInterfaceXDG = newInterfaceWayland("xdg_toplevel",
		[]msgDesc{
			{"destroy", ""},
			{"set_parent", "?o"},
			{"set_title", "s"},
			{"set_app_id", "s"},
			{"show_window_menu", "ouii"},
			{"move", "ou"},
			{"resize", "ouu"},
			{"set_max_size", "ii"},
			{"set_min_size", "ii"},
			{"set_maximized", ""},
			{"unset_maximized", ""},
			{"set_fullscreen", "?o"},
			{"unset_fullscreen", ""},
			{"set_minimized", ""},
		},
		[]msgDesc{
			{"configure", "iia"},
			{"close", ""},
		})
)
