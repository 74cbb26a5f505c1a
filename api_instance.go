package softvk

import (
	"github.com/gogpu/gputypes"

	"github.com/gogpu/softvk/device"
	"github.com/gogpu/softvk/extension"
)

// HeaderVersion is the API version softvk implements.
var HeaderVersion = device.APIVersion

func extensionProperties(scope extension.Scope) []ExtensionProperties {
	var out []ExtensionProperties
	for _, p := range extension.ForScope(scope) {
		out = append(out, ExtensionProperties{ExtensionName: p.Name, SpecVersion: p.SpecVersion})
	}
	return out
}

// EnumerateInstanceVersion reports the supported API version.
func EnumerateInstanceVersion(version *uint32) Result {
	*version = HeaderVersion
	return Success
}

// EnumerateInstanceExtensionProperties lists the instance extensions.
// softvk has no layers, so a non-empty layerName is ErrorLayerNotPresent.
func EnumerateInstanceExtensionProperties(layerName string, count *uint32, out []ExtensionProperties) Result {
	if layerName != "" {
		return ErrorLayerNotPresent
	}
	return enumerate(count, out, extensionProperties(extension.ScopeInstance))
}

// CreateInstance creates an instance with the requested extensions. The
// instance exposes one physical device built from the current
// configuration.
func CreateInstance(info *InstanceCreateInfo, allocator *AllocationCallbacks, out *Instance) Result {
	noAllocator(allocator)
	return guard(func() error {
		if len(info.EnabledLayerNames) > 0 {
			return ErrorLayerNotPresent
		}
		exts, err := extension.Negotiate(info.EnabledExtensionNames, extension.ScopeInstance, 0)
		if err != nil {
			return err
		}
		appName, apiVersion := "", HeaderVersion
		if ai := info.ApplicationInfo; ai != nil {
			appName = ai.ApplicationName
			if ai.APIVersion != 0 {
				apiVersion = ai.APIVersion
			}
		}
		if apiVersion>>22 != HeaderVersion>>22 {
			return ErrorIncompatibleDriver
		}

		cfg := currentConfig()
		inst := device.NewInstance(appName, apiVersion, exts, device.NewCapabilities(cfg.device))
		obj := &instanceObject{inner: inst, cfg: cfg}
		h := register[Instance](instances, obj)
		for _, p := range inst.PhysicalDevices() {
			obj.physical = append(obj.physical, register[PhysicalDevice](physicalDevices, &physicalObject{inner: p, instance: h}))
		}
		slogger().Info("softvk: instance created", "app", appName, "extensions", exts.String())
		*out = h
		return nil
	})
}

// DestroyInstance destroys an instance and its physical device handles.
// Destroying the null handle is a no-op.
func DestroyInstance(instance Instance, allocator *AllocationCallbacks) {
	noAllocator(allocator)
	obj, ok := unregister(instances, instance)
	if !ok {
		return
	}
	for _, p := range obj.physical {
		unregister(physicalDevices, p)
	}
	slogger().Info("softvk: instance destroyed", "app", obj.inner.AppName())
}

// EnumeratePhysicalDevices lists the instance's physical devices.
func EnumeratePhysicalDevices(instance Instance, count *uint32, out []PhysicalDevice) Result {
	return enumerate(count, out, lookup(instances, instance).physical)
}

func capabilities(p PhysicalDevice) device.Capabilities {
	return lookup(physicalDevices, p).inner.Capabilities()
}

// GetPhysicalDeviceFeatures reports the optional features.
func GetPhysicalDeviceFeatures(p PhysicalDevice, features *PhysicalDeviceFeatures) {
	*features = capabilities(p).Features()
}

// GetPhysicalDeviceProperties reports the device identity and limits.
func GetPhysicalDeviceProperties(p PhysicalDevice, props *PhysicalDeviceProperties) {
	*props = capabilities(p).Properties()
}

// GetPhysicalDeviceQueueFamilyProperties lists the queue families.
func GetPhysicalDeviceQueueFamilyProperties(p PhysicalDevice, count *uint32, out []QueueFamilyProperties) {
	enumerate(count, out, capabilities(p).QueueFamilies())
}

// GetPhysicalDeviceMemoryProperties reports memory types and heaps.
func GetPhysicalDeviceMemoryProperties(p PhysicalDevice, props *PhysicalDeviceMemoryProperties) {
	*props = capabilities(p).MemoryProperties()
}

// GetPhysicalDeviceFormatProperties reports the features of a format.
func GetPhysicalDeviceFormatProperties(p PhysicalDevice, format gputypes.TextureFormat, props *FormatProperties) {
	*props = capabilities(p).FormatProperties(format)
}

// EnumerateDeviceExtensionProperties lists the device extensions.
func EnumerateDeviceExtensionProperties(p PhysicalDevice, layerName string, count *uint32, out []ExtensionProperties) Result {
	lookup(physicalDevices, p)
	if layerName != "" {
		return ErrorLayerNotPresent
	}
	return enumerate(count, out, extensionProperties(extension.ScopeDevice))
}
