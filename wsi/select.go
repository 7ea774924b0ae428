// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package wsi

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/gviegas/ngl/internal/config"
	"github.com/gviegas/ngl/internal/debug"
)

// connector opens the native connection of a backend.
// Backend files register one from init; which files are
// compiled is decided by build constraints.
type connector func(d *Display) (conn, error)

var connectors = map[Backend]connector{}

func register(b Backend, c connector) {
	connectors[b] = c
}

// Compiled returns the backends built into the program,
// in Backend order. AndroidStub may be listed even though
// it cannot be selected.
func Compiled() []Backend {
	bs := make([]Backend, 0, len(connectors))
	for b := range connectors {
		bs = append(bs, b)
	}
	sort.Slice(bs, func(i, j int) bool { return bs[i] < bs[j] })
	return bs
}

// SelectBackend returns the backend that OpenDisplay will
// use. The choice is deterministic:
//
//  1. An explicit choice (NGL_BACKEND or the backend config
//     key) wins if that backend is compiled in; otherwise
//     selection fails.
//  2. Wayland is preferred when compiled in and a session
//     is signalled by WAYLAND_DISPLAY, WAYLAND_SOCKET or
//     a socket at $XDG_RUNTIME_DIR/wayland-0.
//  3. Otherwise XCB, then Win32, then Wayland, whichever
//     is compiled in first.
//
// AndroidStub is never selected. An error wrapping
// ErrNoBackend is fatal: no implemented backend exists for
// this build or configuration.
func SelectBackend() (Backend, error) {
	cfg, err := config.Load()
	if err != nil {
		return None, err
	}
	b, why, err := selectBackend(cfg.Backend, Compiled(), osEnviron())
	if err != nil {
		debug.Printf("wsi: %v", err)
		return None, err
	}
	debug.Printf("wsi: selected %v (%s)", b, why)
	return b, nil
}

// environ abstracts the process environment for selection.
type environ struct {
	lookup func(string) (string, bool)
	exists func(string) bool
}

func osEnviron() environ {
	return environ{
		lookup: os.LookupEnv,
		exists: func(p string) bool {
			_, err := os.Stat(p)
			return err == nil
		},
	}
}

func selectBackend(choice string, have []Backend, env environ) (Backend, string, error) {
	compiled := func(b Backend) bool {
		for _, x := range have {
			if x == b {
				return true
			}
		}
		return false
	}

	want, err := ParseBackend(choice)
	if err != nil {
		return None, "", err
	}
	switch want {
	case None:
	case AndroidStub:
		return None, "", &selectError{reason: "android backend is not implemented"}
	default:
		if !compiled(want) {
			return None, "", &selectError{reason: want.String() + " backend not compiled in"}
		}
		return want, "explicit choice", nil
	}

	if compiled(Wayland) && waylandSession(env) {
		return Wayland, "wayland session detected", nil
	}
	for _, b := range [...]Backend{XCB, Win32, Wayland} {
		if compiled(b) {
			return b, "first compiled backend", nil
		}
	}
	if compiled(AndroidStub) {
		return None, "", &selectError{reason: "android backend is not implemented"}
	}
	return None, "", &selectError{reason: "no backend compiled for this platform"}
}

func waylandSession(env environ) bool {
	if s, ok := env.lookup("WAYLAND_DISPLAY"); ok && s != "" {
		return true
	}
	if _, ok := env.lookup("WAYLAND_SOCKET"); ok {
		return true
	}
	if dir, ok := env.lookup("XDG_RUNTIME_DIR"); ok && dir != "" {
		return env.exists(filepath.Join(dir, "wayland-0"))
	}
	return false
}
