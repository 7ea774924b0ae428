// Copyright 2023 Gustavo C. Viegas. All rights reserved.

//go:build windows && (amd64 || arm64)

package dl

import (
	"github.com/ebitengine/purego"
	"golang.org/x/sys/windows"
)

func dlopen(name string) (uintptr, error) {
	h, err := windows.LoadLibrary(name)
	return uintptr(h), err
}

func dlsym(h uintptr, name string) (uintptr, error) {
	return windows.GetProcAddress(windows.Handle(h), name)
}

func dlclose(h uintptr) {
	windows.FreeLibrary(windows.Handle(h))
}

// Call calls the C function at fn and returns its
// integer result.
// Pointers converted to uintptr in the argument list stay
// valid until Call returns.
//
//go:uintptrescapes
func Call(fn uintptr, args ...uintptr) uintptr {
	r, _, _ := purego.SyscallN(fn, args...)
	return r
}

// NewCallback returns a C function pointer that calls
// the Go function fn. Every argument of fn must be a
// uintptr.
func NewCallback(fn any) uintptr {
	return windows.NewCallback(fn)
}
