// Copyright 2023 Gustavo C. Viegas. All rights reserved.

//go:build !((darwin || freebsd || linux || windows) && (amd64 || arm64))

package dl

func dlopen(string) (uintptr, error)         { return 0, ErrUnsupported }
func dlsym(uintptr, string) (uintptr, error) { return 0, ErrUnsupported }
func dlclose(uintptr)                        {}

// Call panics: no library can be opened on this platform,
// so there is nothing to call.
func Call(fn uintptr, args ...uintptr) uintptr {
	panic("dl: Call: " + ErrUnsupported.Error())
}

// NewCallback panics on this platform.
func NewCallback(fn any) uintptr {
	panic("dl: NewCallback: " + ErrUnsupported.Error())
}
