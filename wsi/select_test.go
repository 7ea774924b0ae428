// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package wsi

import (
	"errors"
	"sort"
	"testing"
)

func fakeEnviron(vars map[string]string, files ...string) environ {
	return environ{
		lookup: func(k string) (string, bool) {
			v, ok := vars[k]
			return v, ok
		},
		exists: func(p string) bool {
			for _, f := range files {
				if f == p {
					return true
				}
			}
			return false
		},
	}
}

func TestSelectBackend(t *testing.T) {
	linux := []Backend{Wayland, XCB}
	wl := map[string]string{"WAYLAND_DISPLAY": "wayland-1", "DISPLAY": ":0"}
	x11 := map[string]string{"DISPLAY": ":0"}

	cases := [...]struct {
		choice string
		have   []Backend
		env    environ
		want   Backend
	}{
		{"", linux, fakeEnviron(wl), Wayland},
		{"auto", linux, fakeEnviron(wl), Wayland},
		{"", linux, fakeEnviron(x11), XCB},
		{"", linux, fakeEnviron(nil), XCB},
		{"", linux, fakeEnviron(map[string]string{"WAYLAND_DISPLAY": ""}), XCB},
		{"", linux, fakeEnviron(map[string]string{"WAYLAND_SOCKET": "3"}), Wayland},
		{"", linux, fakeEnviron(map[string]string{"XDG_RUNTIME_DIR": "/run/user/1000"}, "/run/user/1000/wayland-0"), Wayland},
		{"", linux, fakeEnviron(map[string]string{"XDG_RUNTIME_DIR": "/run/user/1000"}), XCB},
		{"x11", linux, fakeEnviron(wl), XCB},
		{"XCB", linux, fakeEnviron(wl), XCB},
		{"wayland", linux, fakeEnviron(nil), Wayland},
		{"", []Backend{XCB}, fakeEnviron(wl), XCB},
		{"", []Backend{Wayland}, fakeEnviron(nil), Wayland},
		{"", []Backend{Win32}, fakeEnviron(nil), Win32},
		{"windows", []Backend{Win32}, fakeEnviron(nil), Win32},
	}
	for _, c := range cases {
		b, why, err := selectBackend(c.choice, c.have, c.env)
		if err != nil {
			t.Fatalf("selectBackend(%q, %v): unexpected error: %v", c.choice, c.have, err)
		}
		if b != c.want {
			t.Fatalf("selectBackend(%q, %v):\nhave %v\nwant %v", c.choice, c.have, b, c.want)
		}
		if why == "" {
			t.Fatalf("selectBackend(%q, %v): empty reason", c.choice, c.have)
		}
	}
}

func TestSelectBackendFail(t *testing.T) {
	cases := [...]struct {
		choice string
		have   []Backend
	}{
		{"", nil},
		{"", []Backend{AndroidStub}},
		{"android", []Backend{AndroidStub}},
		{"wayland", []Backend{XCB}},
		{"win32", []Backend{Wayland, XCB}},
		{"metal", []Backend{Wayland, XCB}},
	}
	for _, c := range cases {
		b, _, err := selectBackend(c.choice, c.have, fakeEnviron(nil))
		if b != None || !errors.Is(err, ErrNoBackend) {
			t.Fatalf("selectBackend(%q, %v):\nhave %v, %v\nwant none, %v", c.choice, c.have, b, err, ErrNoBackend)
		}
	}
}

func TestParseBackend(t *testing.T) {
	cases := [...]struct {
		s    string
		want Backend
	}{
		{"", None},
		{"auto", None},
		{" Wayland ", Wayland},
		{"xcb", XCB},
		{"X11", XCB},
		{"win32", Win32},
		{"windows", Win32},
		{"android", AndroidStub},
	}
	for _, c := range cases {
		if b, err := ParseBackend(c.s); b != c.want || err != nil {
			t.Fatalf("ParseBackend(%q):\nhave %v, %v\nwant %v, nil", c.s, b, err, c.want)
		}
	}
	if _, err := ParseBackend("cocoa"); !errors.Is(err, ErrNoBackend) {
		t.Fatalf("ParseBackend(\"cocoa\"):\nhave %v\nwant %v", err, ErrNoBackend)
	}
}

func TestBackendString(t *testing.T) {
	for b := None; b <= AndroidStub; b++ {
		s := b.String()
		if s == "unknown" {
			t.Fatalf("Backend(%d).String: unknown", b)
		}
		if b == None {
			continue
		}
		if x, err := ParseBackend(s); x != b || err != nil {
			t.Fatalf("ParseBackend(%q):\nhave %v, %v\nwant %v, nil", s, x, err, b)
		}
	}
	if s := Backend(-1).String(); s != "unknown" {
		t.Fatalf("Backend(-1).String:\nhave %q\nwant \"unknown\"", s)
	}
}

func TestCompiled(t *testing.T) {
	bs := Compiled()
	if !sort.SliceIsSorted(bs, func(i, j int) bool { return bs[i] < bs[j] }) {
		t.Fatalf("Compiled: not sorted: %v", bs)
	}
	for _, b := range bs {
		if b == None {
			t.Fatal("Compiled: None must not be registered")
		}
		if connectors[b] == nil {
			t.Fatalf("Compiled: %v has no connector", b)
		}
	}
}
