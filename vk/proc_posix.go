// Copyright 2022 Gustavo C. Viegas. All rights reserved.

//go:build !windows

package vk

import (
	"runtime"
)

// libraryNames returns the names to try when loading the
// Vulkan library, override first.
func libraryNames(override string) []string {
	var names []string
	if override != "" {
		names = append(names, override)
	}
	switch runtime.GOOS {
	case "android":
		return append(names, "libvulkan.so")
	default:
		return append(names, "libvulkan.so.1", "libvulkan.so")
	}
}
