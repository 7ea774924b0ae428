// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package vk

// libraryNames returns the names to try when loading the
// Vulkan library, override first.
func libraryNames(override string) []string {
	if override != "" {
		return []string{override, "vulkan-1.dll"}
	}
	return []string{"vulkan-1.dll"}
}
