// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package vk

import (
	"errors"
	"runtime"
	"strings"
	"unsafe"

	"github.com/gviegas/ngl/internal/config"
	"github.com/gviegas/ngl/internal/dl"
	"github.com/gviegas/ngl/wsi"
)

// InstanceInfo describes an instance to create.
type InstanceInfo struct {
	// Application name. Defaults to the configured
	// app name.
	AppName string
	// Requested API version. Zero means the newest
	// version this package knows, or 1.0 if that is
	// all the implementation supports.
	APIVersion uint32
	// Instance extensions to enable.
	// Use RequiredExtensions to present to windows.
	Extensions []string
	// Layers to enable.
	Layers []string
}

// Instance is a VkInstance.
type Instance struct {
	l         *Loader
	h         uintptr
	vers      uint32
	exts      []string
	procs     *Procs
	destroyed bool

	// Live surfaces, by window.
	surfaces map[wsi.Native]*Surface
}

// applicationInfo mirrors VkApplicationInfo.
type applicationInfo struct {
	sType              uint32
	pNext              unsafe.Pointer
	pApplicationName   *byte
	applicationVersion uint32
	pEngineName        *byte
	engineVersion      uint32
	apiVersion         uint32
}

// instanceCreateInfo mirrors VkInstanceCreateInfo.
type instanceCreateInfo struct {
	sType                   uint32
	pNext                   unsafe.Pointer
	flags                   uint32
	pApplicationInfo        *applicationInfo
	enabledLayerCount       uint32
	ppEnabledLayerNames     *uintptr
	enabledExtensionCount   uint32
	ppEnabledExtensionNames *uintptr
}

// CreateInstance creates a new instance.
// Every extension in info must be advertised by the
// implementation, otherwise it fails with an error that
// wraps ErrorExtensionNotPresent.
func (l *Loader) CreateInstance(info InstanceInfo) (*Instance, error) {
	have, err := l.InstanceExtensions()
	if err != nil {
		return nil, err
	}
	if miss := MissingExtensions(info.Extensions, have); len(miss) > 0 {
		return nil, &extensionError{miss}
	}

	vers := l.APIVersion()
	if isVariant(vers) {
		// Do not support variants.
		return nil, errors.New("vk: Vulkan API variants are not supported")
	}
	switch {
	case vers == API10:
		// Anything else is rejected by 1.0 implementations.
	case info.APIVersion != 0:
		vers = info.APIVersion
	default:
		vers = preferredAPIVersion
	}
	appName := info.AppName
	if appName == "" {
		if cfg, err := config.Load(); err == nil {
			appName = cfg.AppName
		}
	}

	app := &applicationInfo{
		sType:            structTypeApplicationInfo,
		pApplicationName: dl.CString(appName),
		pEngineName:      dl.CString("ngl"),
		apiVersion:       vers,
	}
	extPtrs, extKeep := dl.CStrings(info.Extensions)
	layerPtrs, layerKeep := dl.CStrings(info.Layers)
	ci := &instanceCreateInfo{
		sType:                 structTypeInstanceCreateInfo,
		pApplicationInfo:      app,
		enabledLayerCount:     uint32(len(layerPtrs)),
		enabledExtensionCount: uint32(len(extPtrs)),
	}
	if len(layerPtrs) > 0 {
		ci.ppEnabledLayerNames = &layerPtrs[0]
	}
	if len(extPtrs) > 0 {
		ci.ppEnabledExtensionNames = &extPtrs[0]
	}

	fn, _ := l.global.Lookup("vkCreateInstance")
	var h uintptr
	r := Result(int32(l.invoke(fn, uintptr(unsafe.Pointer(ci)), 0, uintptr(unsafe.Pointer(&h)))))
	runtime.KeepAlive(extKeep)
	runtime.KeepAlive(layerKeep)
	runtime.KeepAlive(ci)
	if err := checkResult(r); err != nil {
		return nil, err
	}
	return l.newInstance(h, vers, info.Extensions), nil
}

// WrapInstance adopts an instance created elsewhere with
// the given extensions enabled. The Instance takes
// ownership: Destroy destroys h.
func (l *Loader) WrapInstance(h uintptr, exts []string) (*Instance, error) {
	if h == 0 {
		return nil, errors.New("vk: null VkInstance")
	}
	return l.newInstance(h, 0, exts), nil
}

func (l *Loader) newInstance(h uintptr, vers uint32, exts []string) *Instance {
	procs, _ := l.ResolveInstance(h)
	return &Instance{
		l:        l,
		h:        h,
		vers:     vers,
		exts:     append([]string(nil), exts...),
		procs:    procs,
		surfaces: make(map[wsi.Native]*Surface),
	}
}

// Handle returns the VkInstance, or 0 if inst was
// destroyed.
func (inst *Instance) Handle() uintptr {
	if inst.destroyed {
		return 0
	}
	return inst.h
}

// APIVersion returns the version the instance was created
// with (0 if wrapped).
func (inst *Instance) APIVersion() uint32 { return inst.vers }

// Extensions returns the enabled instance extensions.
func (inst *Instance) Extensions() []string {
	return append([]string(nil), inst.exts...)
}

// HasExtensions reports whether every name in exts is
// enabled.
func (inst *Instance) HasExtensions(exts ...string) bool {
	return len(MissingExtensions(exts, inst.exts)) == 0
}

// Procs returns the instance functions.
func (inst *Instance) Procs() *Procs { return inst.procs }

// Loader returns the Loader inst was created from.
func (inst *Instance) Loader() *Loader { return inst.l }

// Destroyed reports whether Destroy was called.
func (inst *Instance) Destroyed() bool { return inst.destroyed }

// Destroy destroys every surface of inst, then inst.
// Devices created from inst must be destroyed first.
func (inst *Instance) Destroy() {
	if inst.destroyed {
		return
	}
	for _, s := range inst.surfaces {
		s.Destroy()
	}
	if fn, ok := inst.procs.Lookup("vkDestroyInstance"); ok {
		inst.l.invoke(fn, inst.h, 0)
	}
	inst.l.forgetInstance(inst.h)
	inst.destroyed = true
}

type extensionError struct {
	missing []string
}

func (e *extensionError) Error() string {
	return ErrorExtensionNotPresent.Error() + ": " + strings.Join(e.missing, ", ")
}

func (e *extensionError) Unwrap() error { return ErrorExtensionNotPresent }
