// Package wsi connects swapchains to window-system platforms.
//
// Platforms implement WSI and register themselves with Register, the way
// database/sql drivers do. A Surface reports which platform created it, and
// the runtime routes surface queries and swapchain creation to that
// platform. Present aggregates the per-swapchain results of one present
// call by severity.
package wsi

import (
	"errors"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/softvk/queue"
	"github.com/gogpu/softvk/resource"
	"github.com/gogpu/softvk/syncobj"
)

// Presentation errors.
var (
	// ErrUnknownPlatform is returned for surfaces of unregistered platforms.
	ErrUnknownPlatform = errors.New("wsi: unknown platform")

	// ErrSurfaceLost is returned by surface queries on a lost surface.
	ErrSurfaceLost = errors.New("wsi: surface lost")

	// ErrUnsupported is returned for swapchain parameters the surface does
	// not support.
	ErrUnsupported = errors.New("wsi: unsupported swapchain parameters")
)

// Platform identifies a window-system platform.
type Platform uint8

const (
	PlatformHeadless Platform = iota
)

func (p Platform) String() string {
	if p == PlatformHeadless {
		return "headless"
	}
	return "unknown"
}

// Surface is a presentable surface.
type Surface interface {
	Platform() Platform
}

// Extent is a two-dimensional size in pixels.
type Extent struct {
	Width  uint32
	Height uint32
}

// UndefinedExtent in both dimensions of Capabilities.CurrentExtent means
// the surface size is set by the swapchain.
const UndefinedExtent = 0xFFFFFFFF

// ColorSpace is the color space of presented images.
type ColorSpace uint32

const ColorSpaceSRGBNonlinear ColorSpace = 0

// PresentMode selects how presented images are queued.
type PresentMode uint32

const (
	PresentModeImmediate PresentMode = iota
	PresentModeMailbox
	PresentModeFIFO
	PresentModeFIFORelaxed
)

// SurfaceFormat is a supported format and color space pair.
type SurfaceFormat struct {
	Format     gputypes.TextureFormat
	ColorSpace ColorSpace
}

// Capabilities describes what swapchains a surface supports.
type Capabilities struct {
	MinImageCount  uint32
	MaxImageCount  uint32 // 0 means no limit
	CurrentExtent  Extent
	MinImageExtent Extent
	MaxImageExtent Extent
	MaxArrayLayers uint32
	SupportedUsage gputypes.TextureUsage
}

// Device is the device a swapchain is created on. It provides memory for
// the images and the loss latch that ends pending acquires.
type Device interface {
	AllocateMemory(size uint64, typeIndex uint32) (*resource.Memory, error)
	Loss() *syncobj.Loss
}

// SwapchainDesc describes a swapchain.
type SwapchainDesc struct {
	Surface       Surface
	MinImageCount uint32
	Format        gputypes.TextureFormat
	ColorSpace    ColorSpace
	Extent        Extent
	ArrayLayers   uint32
	Usage         gputypes.TextureUsage
	PresentMode   PresentMode
	Clipped       bool
	OldSwapchain  Swapchain
}

// Swapchain is a ring of presentable images.
type Swapchain interface {
	// Images returns the swapchain images in index order.
	Images() []*resource.Image
	// AcquireNextImage waits up to timeout nanoseconds for an image and
	// signals sem and fence, either of which may be nil. It returns
	// syncobj.ErrTimeout or syncobj.ErrNotReady when no image is available.
	AcquireNextImage(timeout uint64, sem *syncobj.Semaphore, fence *syncobj.Fence) (uint32, Status, error)
	// QueuePresent schedules image index for presentation after the work
	// already submitted to q.
	QueuePresent(index uint32, q *queue.Queue) Status
	// Destroy releases the images.
	Destroy()
}

// WSI is implemented by platforms.
type WSI interface {
	SurfaceSupport(s Surface, queueFamily uint32) (bool, error)
	SurfaceCapabilities(s Surface) (Capabilities, error)
	SurfaceFormats(s Surface) ([]SurfaceFormat, error)
	PresentModes(s Surface) ([]PresentMode, error)
	CreateSwapchain(dev Device, desc *SwapchainDesc) (Swapchain, error)
}
