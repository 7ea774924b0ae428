// Copyright 2023 Gustavo C. Viegas. All rights reserved.

//go:build (darwin || freebsd || linux) && (amd64 || arm64)

package dl

import (
	"github.com/ebitengine/purego"
)

func dlopen(name string) (uintptr, error) {
	return purego.Dlopen(name, purego.RTLD_LAZY|purego.RTLD_GLOBAL)
}

func dlsym(h uintptr, name string) (uintptr, error) {
	return purego.Dlsym(h, name)
}

func dlclose(h uintptr) {
	purego.Dlclose(h)
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
// uintptr. There is a small, fixed number of callbacks
// per process, so callers create them once.
func NewCallback(fn any) uintptr {
	return purego.NewCallback(fn)
}
