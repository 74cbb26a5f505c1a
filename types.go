package softvk

import (
	"github.com/gogpu/gputypes"

	"github.com/gogpu/softvk/command"
	"github.com/gogpu/softvk/device"
	"github.com/gogpu/softvk/resource"
	"github.com/gogpu/softvk/wsi"
)

// Dispatchable and non-dispatchable handles. The zero value of each is
// the null handle.
type (
	Instance       uint64
	PhysicalDevice uint64
	Device         uint64
	Queue          uint64
	CommandBuffer  uint64
	DeviceMemory   uint64
	Buffer         uint64
	Image          uint64
	ImageView      uint64
	Fence          uint64
	Semaphore      uint64
	CommandPool    uint64
	ShaderModule   uint64
	PipelineLayout uint64
	PipelineCache  uint64
	Pipeline       uint64
	SurfaceKHR     uint64
	SwapchainKHR   uint64
)

// AllocationCallbacks stands in for the API's host allocator callbacks.
// softvk does not support custom allocators; passing a non-nil value to
// any entry point panics.
type AllocationCallbacks struct{}

// WholeSize selects the rest of a buffer or memory object.
const WholeSize = resource.WholeSize

// Physical device description types.
type (
	PhysicalDeviceProperties       = device.Properties
	PhysicalDeviceFeatures         = device.Features
	PhysicalDeviceMemoryProperties = device.MemoryProperties
	QueueFamilyProperties          = device.QueueFamily
	FormatProperties               = device.FormatProperties
)

// MakeAPIVersion packs a version number.
func MakeAPIVersion(major, minor, patch uint32) uint32 {
	return device.Version(major, minor, patch)
}

// ApplicationInfo describes the application creating an instance.
type ApplicationInfo struct {
	ApplicationName    string
	ApplicationVersion uint32
	EngineName         string
	EngineVersion      uint32
	APIVersion         uint32
}

// InstanceCreateInfo is the argument of CreateInstance.
type InstanceCreateInfo struct {
	ApplicationInfo       *ApplicationInfo
	EnabledLayerNames     []string
	EnabledExtensionNames []string
}

// ExtensionProperties describes one supported extension.
type ExtensionProperties struct {
	ExtensionName string
	SpecVersion   uint32
}

// DeviceQueueCreateInfo requests queues from one family.
type DeviceQueueCreateInfo struct {
	QueueFamilyIndex uint32
	QueuePriorities  []float32
}

// DeviceCreateInfo is the argument of CreateDevice.
type DeviceCreateInfo struct {
	QueueCreateInfos      []DeviceQueueCreateInfo
	EnabledLayerNames     []string
	EnabledExtensionNames []string
	EnabledFeatures       *PhysicalDeviceFeatures
}

// MemoryAllocateInfo is the argument of AllocateMemory.
type MemoryAllocateInfo struct {
	AllocationSize  uint64
	MemoryTypeIndex uint32
}

// MemoryRequirements reports the size and alignment a resource needs.
type MemoryRequirements = resource.Requirements

// MappedMemoryRange names a range of mapped memory.
type MappedMemoryRange struct {
	Memory DeviceMemory
	Offset uint64
	Size   uint64
}

// BufferCreateInfo is the argument of CreateBuffer.
type BufferCreateInfo struct {
	Size  uint64
	Usage gputypes.BufferUsage
}

// ImageCreateInfo is the argument of CreateImage.
type ImageCreateInfo struct {
	ImageType   gputypes.TextureDimension
	Format      gputypes.TextureFormat
	Extent      gputypes.Extent3D
	MipLevels   uint32
	ArrayLayers uint32
	Samples     uint32
	Tiling      resource.Tiling
	Usage       gputypes.TextureUsage
}

// ImageSubresource selects one mip level of one array layer.
type ImageSubresource struct {
	MipLevel   uint32
	ArrayLayer uint32
}

// SubresourceLayout is the memory layout of an image subresource.
type SubresourceLayout = resource.SubresourceLayout

// ImageSubresourceRange selects mip levels and array layers of an image.
// A zero count selects the rest.
type ImageSubresourceRange struct {
	BaseMipLevel   uint32
	LevelCount     uint32
	BaseArrayLayer uint32
	LayerCount     uint32
}

// ImageViewCreateInfo is the argument of CreateImageView.
type ImageViewCreateInfo struct {
	Image            Image
	ViewType         gputypes.TextureViewDimension
	Format           gputypes.TextureFormat
	SubresourceRange ImageSubresourceRange
}

// FenceCreateFlags are flags of FenceCreateInfo.
type FenceCreateFlags uint32

// FenceCreateSignaled creates the fence in the signaled state.
const FenceCreateSignaled FenceCreateFlags = 0x1

// FenceCreateInfo is the argument of CreateFence.
type FenceCreateInfo struct {
	Flags FenceCreateFlags
}

// SemaphoreCreateInfo is the argument of CreateSemaphore.
type SemaphoreCreateInfo struct{}

// PipelineStageFlags name pipeline stages for waits and barriers.
type PipelineStageFlags uint32

// Pipeline stages used by softvk.
const (
	PipelineStageTopOfPipe    PipelineStageFlags = 0x00000001
	PipelineStageTransfer     PipelineStageFlags = 0x00001000
	PipelineStageBottomOfPipe PipelineStageFlags = 0x00002000
	PipelineStageAllCommands  PipelineStageFlags = 0x00010000
)

// SubmitInfo is one batch of QueueSubmit.
type SubmitInfo struct {
	WaitSemaphores   []Semaphore
	WaitDstStageMask []PipelineStageFlags
	CommandBuffers   []CommandBuffer
	SignalSemaphores []Semaphore
}

// CommandPoolCreateInfo is the argument of CreateCommandPool.
type CommandPoolCreateInfo struct {
	Flags            uint32
	QueueFamilyIndex uint32
}

// CommandBufferLevel is the level of allocated command buffers.
type CommandBufferLevel = command.Level

// Command buffer levels.
const (
	CommandBufferLevelPrimary   = command.LevelPrimary
	CommandBufferLevelSecondary = command.LevelSecondary
)

// CommandBufferAllocateInfo is the argument of AllocateCommandBuffers.
type CommandBufferAllocateInfo struct {
	CommandPool        CommandPool
	Level              CommandBufferLevel
	CommandBufferCount uint32
}

// CommandBufferBeginInfo is the argument of BeginCommandBuffer.
type CommandBufferBeginInfo struct {
	Flags uint32
}

// Recording types shared with the command package.
type (
	BufferCopy      = command.BufferCopy
	BufferImageCopy = resource.Region
	ClearColorValue = resource.ClearColor
)

// ImageLayout is accepted for signature compatibility. Linear storage has a
// single layout, so the value is ignored.
type ImageLayout uint32

// Image layouts.
const (
	ImageLayoutUndefined          ImageLayout = 0
	ImageLayoutGeneral            ImageLayout = 1
	ImageLayoutTransferSrcOptimal ImageLayout = 6
	ImageLayoutTransferDstOptimal ImageLayout = 7
	ImageLayoutPresentSrcKHR      ImageLayout = 1000001002
)

// PipelineBindPoint selects graphics or compute binding.
type PipelineBindPoint uint32

// Pipeline bind points.
const (
	PipelineBindPointGraphics PipelineBindPoint = 0
	PipelineBindPointCompute  PipelineBindPoint = 1
)

// ShaderModuleCreateInfo is the argument of CreateShaderModule.
// Code is SPIR-V.
type ShaderModuleCreateInfo struct {
	Code []byte
}

// PushConstantRange is one range of push constants.
type PushConstantRange struct {
	StageFlags gputypes.ShaderStage
	Offset     uint32
	Size       uint32
}

// PipelineLayoutCreateInfo is the argument of CreatePipelineLayout.
type PipelineLayoutCreateInfo struct {
	PushConstantRanges []PushConstantRange
}

// PipelineCacheCreateInfo is the argument of CreatePipelineCache.
type PipelineCacheCreateInfo struct {
	InitialData []byte
}

// PipelineShaderStageCreateInfo names one shader stage of a pipeline.
type PipelineShaderStageCreateInfo struct {
	Stage  gputypes.ShaderStage
	Module ShaderModule
	Name   string
}

// ComputePipelineCreateInfo is one element of CreateComputePipelines.
type ComputePipelineCreateInfo struct {
	Stage  PipelineShaderStageCreateInfo
	Layout PipelineLayout
}

// GraphicsPipelineCreateInfo is one element of CreateGraphicsPipelines.
type GraphicsPipelineCreateInfo struct {
	Stages       []PipelineShaderStageCreateInfo
	Layout       PipelineLayout
	Topology     gputypes.PrimitiveTopology
	FrontFace    gputypes.FrontFace
	CullMode     gputypes.CullMode
	ColorFormats []gputypes.TextureFormat
	DepthFormat  gputypes.TextureFormat
	SampleCount  uint32
}

// Presentation types shared with the wsi package.
type (
	SurfaceCapabilitiesKHR = wsi.Capabilities
	SurfaceFormatKHR       = wsi.SurfaceFormat
	PresentModeKHR         = wsi.PresentMode
	Extent2D               = wsi.Extent
)

// HeadlessSurfaceCreateInfoEXT is the argument of CreateHeadlessSurfaceEXT.
// A zero size leaves the surface extent to the swapchain.
type HeadlessSurfaceCreateInfoEXT struct {
	Width  uint32
	Height uint32
}

// SwapchainCreateInfoKHR is the argument of CreateSwapchainKHR.
type SwapchainCreateInfoKHR struct {
	Surface          SurfaceKHR
	MinImageCount    uint32
	ImageFormat      gputypes.TextureFormat
	ImageColorSpace  wsi.ColorSpace
	ImageExtent      Extent2D
	ImageArrayLayers uint32
	ImageUsage       gputypes.TextureUsage
	PresentMode      PresentModeKHR
	Clipped          bool
	OldSwapchain     SwapchainKHR
}

// PresentInfoKHR is the argument of QueuePresentKHR. When Results is
// non-nil it receives the result of each swapchain.
type PresentInfoKHR struct {
	WaitSemaphores []Semaphore
	Swapchains     []SwapchainKHR
	ImageIndices   []uint32
	Results        []Result
}
