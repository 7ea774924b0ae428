// Copyright 2023 Gustavo C. Viegas. All rights reserved.

package dl

import (
	"errors"
	"runtime"
	"testing"
	"unsafe"
)

func TestCString(t *testing.T) {
	for _, s := range []string{"", "vkGetInstanceProcAddr", "wl_compositor"} {
		p := CString(s)
		have := GoString(uintptr(unsafe.Pointer(p)))
		runtime.KeepAlive(p)
		if have != s {
			t.Errorf("GoString(CString(%q))\nhave %q\nwant %q", s, have, s)
		}
	}
	if s := GoString(0); s != "" {
		t.Errorf("GoString(0)\nhave %q\nwant \"\"", s)
	}
}

func TestCStrings(t *testing.T) {
	if ptrs, keep := CStrings(nil); ptrs != nil || keep != nil {
		t.Fatalf("CStrings(nil)\nhave %v, %v\nwant nil, nil", ptrs, keep)
	}
	in := []string{"VK_KHR_surface", "VK_KHR_xcb_surface"}
	ptrs, keep := CStrings(in)
	for i := range in {
		if s := GoString(ptrs[i]); s != in[i] {
			t.Errorf("GoString(ptrs[%d])\nhave %q\nwant %q", i, s, in[i])
		}
	}
	runtime.KeepAlive(keep)
}

func TestGoStringN(t *testing.T) {
	var b [8]byte
	copy(b[:], "abc")
	if s := GoStringN(b[:]); s != "abc" {
		t.Errorf("GoStringN\nhave %q\nwant \"abc\"", s)
	}
	if s := GoStringN([]byte("full")); s != "full" {
		t.Errorf("GoStringN\nhave %q\nwant \"full\"", s)
	}
}

func TestOpenMissing(t *testing.T) {
	if _, err := Open(); !errors.Is(err, ErrNotFound) {
		t.Errorf("Open()\nhave %v\nwant %v", err, ErrNotFound)
	}
	if _, err := Open("", "libngl-does-not-exist.so.9"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Open(missing)\nhave %v\nwant %v", err, ErrNotFound)
	}
	var l *Lib
	if _, err := l.Sym("x"); !errors.Is(err, ErrNoSymbol) {
		t.Errorf("(*Lib)(nil).Sym\nhave %v\nwant %v", err, ErrNoSymbol)
	}
	l.Close()
}

// Vulkan non-dispatchable handles are 64-bit and are
// passed as single words, so narrower targets must not
// load anything.
func TestWordSize(t *testing.T) {
	_, err := dlopen("libngl-does-not-exist.so.9")
	if unsafe.Sizeof(uintptr(0)) < 8 && !errors.Is(err, ErrUnsupported) {
		t.Fatalf("dlopen on a %d-bit target\nhave %v\nwant %v", unsafe.Sizeof(uintptr(0))*8, err, ErrUnsupported)
	}
}
