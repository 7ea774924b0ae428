// Copyright 2022 Gustavo C. Viegas. All rights reserved.

// Package vk loads the Vulkan library at run time and
// creates presentation surfaces for wsi windows.
//
// It does not wrap the Vulkan API. Instances and surfaces
// are created here because they depend on the window system;
// everything else (devices, swapchains) is left to the
// caller, which can resolve the functions it needs through
// a Loader.
package vk

import (
	"errors"
	"strconv"

	"github.com/gviegas/ngl/wsi"
)

// Result is a VkResult.
// Negative values are errors; Result implements error so
// that they can be returned as such.
type Result int32

// Results.
const (
	Success                    Result = 0
	NotReady                   Result = 1
	Timeout                    Result = 2
	EventSet                   Result = 3
	EventReset                 Result = 4
	Incomplete                 Result = 5
	ErrorOutOfHostMemory       Result = -1
	ErrorOutOfDeviceMemory     Result = -2
	ErrorInitializationFailed  Result = -3
	ErrorDeviceLost            Result = -4
	ErrorMemoryMapFailed       Result = -5
	ErrorLayerNotPresent       Result = -6
	ErrorExtensionNotPresent   Result = -7
	ErrorFeatureNotPresent     Result = -8
	ErrorIncompatibleDriver    Result = -9
	ErrorTooManyObjects        Result = -10
	ErrorFormatNotSupported    Result = -11
	ErrorFragmentedPool        Result = -12
	ErrorUnknown               Result = -13
	ErrorOutOfPoolMemory       Result = -1000069000
	ErrorInvalidExternalHandle Result = -1000072003
	ErrorFragmentation         Result = -1000161000
	ErrorSurfaceLost           Result = -1000000000
	ErrorNativeWindowInUse     Result = -1000000001
	Suboptimal                 Result = 1000001003
	ErrorOutOfDate             Result = -1000001004
	ErrorIncompatibleDisplay   Result = -1000003001
)

var resultText = map[Result]string{
	Success:                    "success",
	NotReady:                   "not ready",
	Timeout:                    "timeout",
	EventSet:                   "event set",
	EventReset:                 "event reset",
	Incomplete:                 "incomplete",
	ErrorOutOfHostMemory:       "out of host memory",
	ErrorOutOfDeviceMemory:     "out of device memory",
	ErrorInitializationFailed:  "initialization failed",
	ErrorDeviceLost:            "device lost",
	ErrorMemoryMapFailed:       "memory map failed",
	ErrorLayerNotPresent:       "layer not present",
	ErrorExtensionNotPresent:   "extension not present",
	ErrorFeatureNotPresent:     "feature not present",
	ErrorIncompatibleDriver:    "incompatible driver",
	ErrorTooManyObjects:        "too many objects",
	ErrorFormatNotSupported:    "format not supported",
	ErrorFragmentedPool:        "fragmented pool",
	ErrorUnknown:               "unknown error",
	ErrorOutOfPoolMemory:       "out of pool memory",
	ErrorInvalidExternalHandle: "invalid external handle",
	ErrorFragmentation:         "fragmentation",
	ErrorSurfaceLost:           "surface lost",
	ErrorNativeWindowInUse:     "native window in use",
	Suboptimal:                 "suboptimal",
	ErrorOutOfDate:             "out of date",
	ErrorIncompatibleDisplay:   "incompatible display",
}

func (r Result) Error() string {
	if s, ok := resultText[r]; ok {
		return "vk: " + s
	}
	return "vk: result " + strconv.Itoa(int(r))
}

// checkResult returns r as an error if it is negative.
func checkResult(r Result) error {
	if r >= 0 {
		// Not an error: VK_ERROR_* values are all negative.
		return nil
	}
	return r
}

// MakeVersion packs a Vulkan version number.
func MakeVersion(major, minor, patch uint32) uint32 {
	return major<<22 | minor<<12 | patch
}

// VersionMajor returns the major number of v.
func VersionMajor(v uint32) uint32 { return v >> 22 & 0x7f }

// VersionMinor returns the minor number of v.
func VersionMinor(v uint32) uint32 { return v >> 12 & 0x3ff }

// isVariant reports whether v is not a Vulkan API version.
func isVariant(v uint32) bool { return v>>29 != 0 }

// API versions.
const (
	API10 uint32 = 1 << 22
	API11 uint32 = 1<<22 | 1<<12
	API12 uint32 = 1<<22 | 2<<12
	API13 uint32 = 1<<22 | 3<<12
)

const preferredAPIVersion = API13

// Structure types.
const (
	structTypeApplicationInfo          = 0
	structTypeInstanceCreateInfo       = 1
	structTypeXCBSurfaceCreateInfo     = 1000005000
	structTypeWaylandSurfaceCreateInfo = 1000006000
	structTypeWin32SurfaceCreateInfo   = 1000009000
)

// Load errors.
var (
	ErrLibraryNotFound = errors.New("vk: Vulkan library not found")
	ErrSymbolMissing   = errors.New("vk: Vulkan symbol missing")
)

// Surface errors.
var (
	ErrUnsupportedCombination = errors.New("vk: instance cannot present to this window system")
	ErrNativeHandleInvalid    = errors.New("vk: invalid native window handle")
	ErrInstanceDestroyed      = errors.New("vk: instance destroyed")
	ErrSurfaceExists          = errors.New("vk: surface already exists for this window")
	ErrSurfaceDestroyed       = errors.New("vk: surface destroyed")
)

// LoadError is returned when the Vulkan library cannot
// be used.
type LoadError struct {
	// Library names tried, or the library that was opened.
	Library string
	// Symbol that is missing, if any.
	Symbol string
	// ErrLibraryNotFound or ErrSymbolMissing.
	Err   error
	Cause error
}

func (e *LoadError) Error() string {
	s := e.Err.Error()
	if e.Symbol != "" {
		s += " " + e.Symbol
	}
	s += " (" + e.Library + ")"
	if e.Cause != nil {
		s += ": " + e.Cause.Error()
	}
	return s
}

func (e *LoadError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Err}
	}
	return []error{e.Err, e.Cause}
}

// SurfaceError is returned when a surface cannot be
// created or used. Err is one of the surface errors or a
// Result.
type SurfaceError struct {
	Backend wsi.Backend
	Err     error
	Cause   error
}

func (e *SurfaceError) Error() string {
	s := e.Err.Error() + " (" + e.Backend.String() + ")"
	if e.Cause != nil {
		s += ": " + e.Cause.Error()
	}
	return s
}

func (e *SurfaceError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Err}
	}
	return []error{e.Err, e.Cause}
}
