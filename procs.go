package softvk

import (
	"sync"

	"github.com/gogpu/softvk/dispatch"
	"github.com/gogpu/softvk/extension"
)

func library(name string, proc any) dispatch.Entry {
	return dispatch.Entry{Name: name, Visibility: dispatch.Library, Requires: extension.None, Proc: proc}
}

func core(name string, proc any) dispatch.Entry {
	return dispatch.Entry{Name: name, Visibility: dispatch.Instance, Requires: extension.None, Proc: proc}
}

func gated(name string, ext extension.Extension, proc any) dispatch.Entry {
	return dispatch.Entry{Name: name, Visibility: dispatch.Instance, Requires: ext, Proc: proc}
}

func inLoader(name string, v dispatch.Visibility) dispatch.Entry {
	return dispatch.Entry{Name: name, Visibility: v, Requires: extension.None, InLoader: true}
}

// procTable lists every entry point. Device-level entry points are
// Instance-visible so they can be fetched before a device exists.
func procTable() []dispatch.Entry {
	return []dispatch.Entry{
		library("vkGetInstanceProcAddr", GetInstanceProcAddr),
		library("vkCreateInstance", CreateInstance),
		library("vkEnumerateInstanceExtensionProperties", EnumerateInstanceExtensionProperties),
		library("vkEnumerateInstanceVersion", EnumerateInstanceVersion),
		inLoader("vkEnumerateInstanceLayerProperties", dispatch.Library),

		core("vkDestroyInstance", DestroyInstance),
		core("vkEnumeratePhysicalDevices", EnumeratePhysicalDevices),
		core("vkGetPhysicalDeviceFeatures", GetPhysicalDeviceFeatures),
		core("vkGetPhysicalDeviceProperties", GetPhysicalDeviceProperties),
		core("vkGetPhysicalDeviceQueueFamilyProperties", GetPhysicalDeviceQueueFamilyProperties),
		core("vkGetPhysicalDeviceMemoryProperties", GetPhysicalDeviceMemoryProperties),
		core("vkGetPhysicalDeviceFormatProperties", GetPhysicalDeviceFormatProperties),
		core("vkGetDeviceProcAddr", GetDeviceProcAddr),
		core("vkCreateDevice", CreateDevice),
		core("vkDestroyDevice", DestroyDevice),
		core("vkEnumerateDeviceExtensionProperties", EnumerateDeviceExtensionProperties),
		inLoader("vkEnumerateDeviceLayerProperties", dispatch.Instance),
		core("vkGetDeviceQueue", GetDeviceQueue),
		core("vkQueueSubmit", QueueSubmit),
		core("vkQueueWaitIdle", QueueWaitIdle),
		core("vkDeviceWaitIdle", DeviceWaitIdle),

		core("vkAllocateMemory", AllocateMemory),
		core("vkFreeMemory", FreeMemory),
		core("vkMapMemory", MapMemory),
		core("vkUnmapMemory", UnmapMemory),
		core("vkFlushMappedMemoryRanges", FlushMappedMemoryRanges),
		core("vkInvalidateMappedMemoryRanges", InvalidateMappedMemoryRanges),
		core("vkGetDeviceMemoryCommitment", GetDeviceMemoryCommitment),
		core("vkBindBufferMemory", BindBufferMemory),
		core("vkBindImageMemory", BindImageMemory),
		core("vkGetBufferMemoryRequirements", GetBufferMemoryRequirements),
		core("vkGetImageMemoryRequirements", GetImageMemoryRequirements),
		core("vkCreateBuffer", CreateBuffer),
		core("vkDestroyBuffer", DestroyBuffer),
		core("vkCreateImage", CreateImage),
		core("vkDestroyImage", DestroyImage),
		core("vkGetImageSubresourceLayout", GetImageSubresourceLayout),
		core("vkCreateImageView", CreateImageView),
		core("vkDestroyImageView", DestroyImageView),

		core("vkCreateFence", CreateFence),
		core("vkDestroyFence", DestroyFence),
		core("vkResetFences", ResetFences),
		core("vkGetFenceStatus", GetFenceStatus),
		core("vkWaitForFences", WaitForFences),
		core("vkCreateSemaphore", CreateSemaphore),
		core("vkDestroySemaphore", DestroySemaphore),

		core("vkCreateShaderModule", CreateShaderModule),
		core("vkDestroyShaderModule", DestroyShaderModule),
		core("vkCreatePipelineCache", CreatePipelineCache),
		core("vkDestroyPipelineCache", DestroyPipelineCache),
		core("vkGetPipelineCacheData", GetPipelineCacheData),
		core("vkMergePipelineCaches", MergePipelineCaches),
		core("vkCreateGraphicsPipelines", CreateGraphicsPipelines),
		core("vkCreateComputePipelines", CreateComputePipelines),
		core("vkDestroyPipeline", DestroyPipeline),
		core("vkCreatePipelineLayout", CreatePipelineLayout),
		core("vkDestroyPipelineLayout", DestroyPipelineLayout),

		core("vkCreateCommandPool", CreateCommandPool),
		core("vkDestroyCommandPool", DestroyCommandPool),
		core("vkResetCommandPool", ResetCommandPool),
		core("vkAllocateCommandBuffers", AllocateCommandBuffers),
		core("vkFreeCommandBuffers", FreeCommandBuffers),
		core("vkBeginCommandBuffer", BeginCommandBuffer),
		core("vkEndCommandBuffer", EndCommandBuffer),
		core("vkResetCommandBuffer", ResetCommandBuffer),
		core("vkCmdCopyBuffer", CmdCopyBuffer),
		core("vkCmdFillBuffer", CmdFillBuffer),
		core("vkCmdUpdateBuffer", CmdUpdateBuffer),
		core("vkCmdClearColorImage", CmdClearColorImage),
		core("vkCmdCopyBufferToImage", CmdCopyBufferToImage),
		core("vkCmdCopyImageToBuffer", CmdCopyImageToBuffer),
		core("vkCmdPipelineBarrier", CmdPipelineBarrier),
		core("vkCmdBindPipeline", CmdBindPipeline),
		core("vkCmdDraw", CmdDraw),
		core("vkCmdDrawIndexed", CmdDrawIndexed),
		core("vkCmdDispatch", CmdDispatch),
		core("vkCmdCopyImage", CmdCopyImage),

		gated("vkDestroySurfaceKHR", extension.KHRSurface, DestroySurfaceKHR),
		gated("vkGetPhysicalDeviceSurfaceSupportKHR", extension.KHRSurface, GetPhysicalDeviceSurfaceSupportKHR),
		gated("vkGetPhysicalDeviceSurfaceCapabilitiesKHR", extension.KHRSurface, GetPhysicalDeviceSurfaceCapabilitiesKHR),
		gated("vkGetPhysicalDeviceSurfaceFormatsKHR", extension.KHRSurface, GetPhysicalDeviceSurfaceFormatsKHR),
		gated("vkGetPhysicalDeviceSurfacePresentModesKHR", extension.KHRSurface, GetPhysicalDeviceSurfacePresentModesKHR),
		gated("vkCreateHeadlessSurfaceEXT", extension.EXTHeadlessSurface, CreateHeadlessSurfaceEXT),
		gated("vkCreateSwapchainKHR", extension.KHRSwapchain, CreateSwapchainKHR),
		gated("vkDestroySwapchainKHR", extension.KHRSwapchain, DestroySwapchainKHR),
		gated("vkGetSwapchainImagesKHR", extension.KHRSwapchain, GetSwapchainImagesKHR),
		gated("vkAcquireNextImageKHR", extension.KHRSwapchain, AcquireNextImageKHR),
		gated("vkQueuePresentKHR", extension.KHRSwapchain, QueuePresentKHR),
	}
}

var (
	loaderOnce sync.Once
	resolver   *dispatch.Resolver
)

// loader returns the process-wide resolver, building it on first use.
// The table refers back to GetInstanceProcAddr, so it cannot be a package
// variable initializer.
func loader() *dispatch.Resolver {
	loaderOnce.Do(func() {
		r, err := dispatch.New(procTable())
		if err != nil {
			panic(err)
		}
		resolver = r
	})
	return resolver
}

// GetInstanceProcAddr returns the entry point called name, or nil. With a
// null instance only library entry points are visible; otherwise every
// core entry point and the extension entry points enabled on the instance
// or belonging to a device extension.
func GetInstanceProcAddr(instance Instance, name string) any {
	if instance == 0 {
		return loader().Resolve(name, dispatch.ScopeLibrary, 0)
	}
	return loader().Resolve(name, dispatch.ScopeInstance, instanceCaps(instance))
}

// GetDeviceProcAddr returns the entry point called name as seen from a
// device: extension entry points need the extension enabled on the device.
func GetDeviceProcAddr(dev Device, name string) any {
	return loader().Resolve(name, dispatch.ScopeDevice, lookupDevice(dev).inner.Extensions())
}

// ICDGetInstanceProcAddr is the loader-facing lookup. It behaves like
// GetInstanceProcAddr.
func ICDGetInstanceProcAddr(instance Instance, name string) any {
	return GetInstanceProcAddr(instance, name)
}

// ProcNames lists the entry points visible from scope with caps, for
// diagnostics.
func ProcNames(scope dispatch.Scope, caps extension.Set) []string {
	return loader().Names(scope, caps)
}
