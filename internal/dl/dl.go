// Copyright 2023 Gustavo C. Viegas. All rights reserved.

// Package dl loads shared libraries at run time and calls
// the C functions they export.
// It is the only place that knows how a platform opens
// libraries; everything else deals with plain addresses.
package dl

import (
	"errors"
	"strings"
	"unsafe"
)

// ErrNotFound means that none of the given library names
// could be opened.
var ErrNotFound = errors.New("dl: library not found")

// ErrNoSymbol means that a library does not export the
// requested symbol.
var ErrNoSymbol = errors.New("dl: symbol not found")

// ErrUnsupported means that run-time loading is not
// available on this platform.
var ErrUnsupported = errors.New("dl: not supported on this platform")

// Lib is an open shared library.
type Lib struct {
	name string
	h    uintptr
}

// Name returns the name that was used to open l.
func (l *Lib) Name() string { return l.name }

// Open opens the first library in names that can be
// loaded. Empty names are skipped.
// The returned error wraps ErrNotFound and lists the
// reasons each name failed.
func Open(names ...string) (*Lib, error) {
	var reasons []string
	for _, n := range names {
		if n == "" {
			continue
		}
		h, err := dlopen(n)
		if err == nil {
			return &Lib{name: n, h: h}, nil
		}
		reasons = append(reasons, err.Error())
	}
	if len(reasons) == 0 {
		return nil, ErrNotFound
	}
	return nil, &openError{reasons}
}

type openError struct{ reasons []string }

func (e *openError) Error() string {
	return ErrNotFound.Error() + " (" + strings.Join(e.reasons, "; ") + ")"
}

func (e *openError) Unwrap() error { return ErrNotFound }

// Sym returns the address of the named symbol.
func (l *Lib) Sym(name string) (uintptr, error) {
	if l == nil || l.h == 0 {
		return 0, ErrNoSymbol
	}
	p, err := dlsym(l.h, name)
	if err != nil || p == 0 {
		return 0, ErrNoSymbol
	}
	return p, nil
}

// Close closes the library.
// Every address obtained from l becomes invalid.
func (l *Lib) Close() {
	if l != nil && l.h != 0 {
		dlclose(l.h)
		*l = Lib{}
	}
}

// CString returns a NUL-terminated copy of s.
// The memory belongs to the Go heap, so callers must keep
// the pointer reachable (runtime.KeepAlive) until the C
// call that uses it returns.
func CString(s string) *byte {
	b := make([]byte, len(s)+1)
	copy(b, s)
	return &b[0]
}

// CStrings returns NUL-terminated copies of ss and an
// array of pointers to them, suitable for const char**
// parameters. It returns nil if ss is empty.
func CStrings(ss []string) (ptrs []uintptr, keep [][]byte) {
	if len(ss) == 0 {
		return nil, nil
	}
	ptrs = make([]uintptr, len(ss))
	keep = make([][]byte, len(ss))
	for i, s := range ss {
		b := make([]byte, len(s)+1)
		copy(b, s)
		keep[i] = b
		ptrs[i] = uintptr(unsafe.Pointer(&b[0]))
	}
	return
}

// GoString copies the NUL-terminated string at p.
func GoString(p uintptr) string {
	if p == 0 {
		return ""
	}
	n := 0
	for *(*byte)(unsafe.Add(unsafe.Pointer(p), n)) != 0 {
		n++
	}
	return string(unsafe.Slice((*byte)(unsafe.Pointer(p)), n))
}

// GoStringN copies at most n bytes of the NUL-terminated
// string in b.
func GoStringN(b []byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}
