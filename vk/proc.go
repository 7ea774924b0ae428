// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package vk

import (
	"errors"
	"runtime"
	"sort"
	"strings"
	"sync"
	"unsafe"

	"github.com/gviegas/ngl/internal/config"
	"github.com/gviegas/ngl/internal/debug"
	"github.com/gviegas/ngl/internal/dl"
)

// Stage identifies how a function is resolved.
type Stage int

// Stages.
const (
	// vkGetInstanceProcAddr with a null instance.
	StageGlobal Stage = iota
	// vkGetInstanceProcAddr with a VkInstance.
	StageInstance
	// vkGetDeviceProcAddr with a VkDevice.
	StageDevice
)

func (s Stage) String() string {
	switch s {
	case StageGlobal:
		return "global"
	case StageInstance:
		return "instance"
	case StageDevice:
		return "device"
	}
	return "unknown"
}

// Functions resolved at each stage.
// Functions that the implementation does not provide are
// absent from the table.
var (
	globalProcs = [...]string{
		"vkCreateInstance",
		"vkEnumerateInstanceExtensionProperties",
		"vkEnumerateInstanceLayerProperties",
		"vkEnumerateInstanceVersion",
	}

	// Every loader exports these.
	requiredGlobalProcs = [...]string{
		"vkCreateInstance",
		"vkEnumerateInstanceExtensionProperties",
	}

	instanceProcs = [...]string{
		"vkDestroyInstance",
		"vkEnumeratePhysicalDevices",
		"vkGetPhysicalDeviceProperties",
		"vkGetPhysicalDeviceQueueFamilyProperties",
		"vkEnumerateDeviceExtensionProperties",
		"vkCreateDevice",
		"vkGetDeviceProcAddr",
		"vkDestroySurfaceKHR",
		"vkGetPhysicalDeviceSurfaceSupportKHR",
		"vkGetPhysicalDeviceSurfaceCapabilitiesKHR",
		"vkGetPhysicalDeviceSurfaceFormatsKHR",
		"vkGetPhysicalDeviceSurfacePresentModesKHR",
		"vkCreateWaylandSurfaceKHR",
		"vkCreateXcbSurfaceKHR",
		"vkCreateWin32SurfaceKHR",
	}

	deviceProcs = [...]string{
		"vkDestroyDevice",
		"vkGetDeviceQueue",
		"vkDeviceWaitIdle",
		"vkQueueSubmit",
		"vkCreateSwapchainKHR",
		"vkDestroySwapchainKHR",
		"vkGetSwapchainImagesKHR",
		"vkAcquireNextImageKHR",
		"vkQueuePresentKHR",
	}
)

// Procs is a table of resolved function addresses.
// It is immutable once returned by a Loader.
type Procs struct {
	stage  Stage
	handle uintptr
	// Instance that a device table was resolved through.
	parent uintptr
	fns    map[string]uintptr
}

// Lookup returns the address of the named function.
func (p *Procs) Lookup(name string) (uintptr, bool) {
	fn, ok := p.fns[name]
	return fn, ok
}

// Stage returns the stage of the table.
func (p *Procs) Stage() Stage { return p.stage }

// Handle returns the VkInstance or VkDevice that p was
// resolved for (0 for StageGlobal).
func (p *Procs) Handle() uintptr { return p.handle }

// Len returns the number of functions in p.
func (p *Procs) Len() int { return len(p.fns) }

// Names returns the names of the functions in p, sorted.
func (p *Procs) Names() []string {
	s := make([]string, 0, len(p.fns))
	for n := range p.fns {
		s = append(s, n)
	}
	sort.Strings(s)
	return s
}

// Loader resolves Vulkan functions.
// There is one per process (see Load).
type Loader struct {
	lib  *dl.Lib
	gipa uintptr
	call func(fn uintptr, args ...uintptr) uintptr

	global *Procs

	mu   sync.Mutex
	inst map[uintptr]*Procs
	dev  map[uintptr]*Procs
}

var (
	loadMu sync.Mutex
	loaded *Loader
)

// Load opens the Vulkan library and resolves the global
// functions. The library stays loaded for the life of the
// process: once Load succeeds, later calls return the same
// Loader. Failures are not remembered.
func Load() (*Loader, error) {
	loadMu.Lock()
	defer loadMu.Unlock()
	if loaded != nil {
		return loaded, nil
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	names := libraryNames(cfg.VulkanLibrary)
	debug.Printf("vk: trying %s", strings.Join(names, ", "))
	lib, err := dl.Open(names...)
	if err != nil {
		return nil, &LoadError{Library: strings.Join(names, ", "), Err: ErrLibraryNotFound, Cause: err}
	}
	gipa, err := lib.Sym("vkGetInstanceProcAddr")
	if err != nil {
		lib.Close()
		return nil, &LoadError{Library: lib.Name(), Symbol: "vkGetInstanceProcAddr", Err: ErrSymbolMissing, Cause: err}
	}
	l, err := newLoader(gipa, dl.Call)
	if err != nil {
		if e, ok := err.(*LoadError); ok {
			e.Library = lib.Name()
		}
		lib.Close()
		return nil, err
	}
	l.lib = lib
	debug.Printf("vk: loaded %s", lib.Name())
	loaded = l
	return l, nil
}

// newLoader creates a Loader that calls C functions
// through call and resolves the global stage.
func newLoader(gipa uintptr, call func(fn uintptr, args ...uintptr) uintptr) (*Loader, error) {
	l := &Loader{
		gipa: gipa,
		call: call,
		inst: make(map[uintptr]*Procs),
		dev:  make(map[uintptr]*Procs),
	}
	l.global = l.resolve(StageGlobal, 0, gipa, globalProcs[:])
	l.global.fns["vkGetInstanceProcAddr"] = gipa
	for _, name := range requiredGlobalProcs {
		if _, ok := l.global.fns[name]; !ok {
			return nil, &LoadError{Symbol: name, Err: ErrSymbolMissing}
		}
	}
	return l, nil
}

// invoke calls the C function at fn.
//
//go:uintptrescapes
func (l *Loader) invoke(fn uintptr, args ...uintptr) uintptr {
	return l.call(fn, args...)
}

// resolve builds a table of names using getProcAddr.
func (l *Loader) resolve(stage Stage, handle, getProcAddr uintptr, names []string) *Procs {
	p := &Procs{
		stage:  stage,
		handle: handle,
		fns:    make(map[string]uintptr, len(names)),
	}
	for _, name := range names {
		s := dl.CString(name)
		fn := l.invoke(getProcAddr, handle, uintptr(unsafe.Pointer(s)))
		runtime.KeepAlive(s)
		if fn != 0 {
			p.fns[name] = fn
		}
	}
	return p
}

// Global returns the global functions.
func (l *Loader) Global() *Procs { return l.global }

// ResolveInstance returns the instance functions of inst.
// They are resolved on the first call for a given handle.
func (l *Loader) ResolveInstance(inst uintptr) (*Procs, error) {
	if inst == 0 {
		return nil, errors.New("vk: null VkInstance")
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.resolveInstance(inst), nil
}

func (l *Loader) resolveInstance(inst uintptr) *Procs {
	if p, ok := l.inst[inst]; ok {
		return p
	}
	p := l.resolve(StageInstance, inst, l.gipa, instanceProcs[:])
	l.inst[inst] = p
	return p
}

// ResolveDevice returns the device functions of dev,
// which must have been created from inst.
// They are resolved on the first call for a given handle.
func (l *Loader) ResolveDevice(inst, dev uintptr) (*Procs, error) {
	if inst == 0 || dev == 0 {
		return nil, errors.New("vk: null VkInstance or VkDevice")
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if p, ok := l.dev[dev]; ok {
		return p, nil
	}
	gdpa, ok := l.resolveInstance(inst).Lookup("vkGetDeviceProcAddr")
	if !ok {
		return nil, &LoadError{Symbol: "vkGetDeviceProcAddr", Err: ErrSymbolMissing}
	}
	p := l.resolve(StageDevice, dev, gdpa, deviceProcs[:])
	p.parent = inst
	l.dev[dev] = p
	return p, nil
}

// ForgetDevice drops the table of dev.
// Call it when dev is destroyed, since handles can be
// reused afterwards.
func (l *Loader) ForgetDevice(dev uintptr) {
	l.mu.Lock()
	delete(l.dev, dev)
	l.mu.Unlock()
}

// forgetInstance drops the table of inst and of every
// device resolved through it.
func (l *Loader) forgetInstance(inst uintptr) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.inst, inst)
	for h, p := range l.dev {
		if p.parent == inst {
			delete(l.dev, h)
		}
	}
}

// APIVersion returns the instance-level version supported
// by the implementation.
func (l *Loader) APIVersion() uint32 {
	fn, ok := l.global.Lookup("vkEnumerateInstanceVersion")
	if !ok {
		return API10
	}
	var v uint32
	if checkResult(Result(int32(l.invoke(fn, uintptr(unsafe.Pointer(&v)))))) != nil {
		return API10
	}
	return v
}
