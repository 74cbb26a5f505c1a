// Package softvk is the runtime core of a software implementation of a
// Vulkan-style graphics and compute API.
//
// # Overview
//
// softvk owns the lifetime of every API object, records command buffers into
// replayable command lists, runs queued work on per-queue workers, and
// resolves entry points by name under the extension model.
//
// Entry points keep the Vulkan argument order. Go slices replace
// (count, pointer) pairs inside create-info structs:
//
//	var inst softvk.Instance
//	r := softvk.CreateInstance(&softvk.InstanceCreateInfo{
//		EnabledExtensionNames: []string{"VK_KHR_surface", "VK_EXT_headless_surface"},
//	}, nil, &inst)
//	if r != softvk.Success {
//		return r
//	}
//	defer softvk.DestroyInstance(inst, nil)
//
// # Enumeration
//
// Functions that return lists take a count pointer and an output slice.
// A nil slice stores the total in *count; otherwise at most *count elements
// are copied and Incomplete reports a truncated list.
//
// # Errors
//
// Fallible entry points return a Result, which implements error. Contract
// violations such as null or stale handles, non-nil allocation callbacks,
// or loader-implemented entry points panic instead.
//
// # Extensions
//
// Supported extensions:
//   - VK_KHR_surface (instance)
//   - VK_EXT_headless_surface (instance)
//   - VK_KHR_swapchain (device, needs VK_KHR_surface)
//
// Headless surfaces present into memory; see HeadlessSurface.
//
// # Logging
//
// softvk is silent by default. SetLogger installs an slog.Logger for the
// runtime and its queue, pipeline and presentation layers.
//
// # Configuration
//
// Configure applies options to instances created afterwards. LoadConfig
// reads the same options from a TOML file, and the file named by the
// SOFTVK_CONFIG environment variable is applied before the first instance
// is created.
package softvk

// Version information
const (
	// Version is the current version of the runtime
	Version = "0.1.0"

	// VersionMajor is the major version
	VersionMajor = 0

	// VersionMinor is the minor version
	VersionMinor = 1

	// VersionPatch is the patch version
	VersionPatch = 0
)
