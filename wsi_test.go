package softvk

import (
	"testing"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/softvk/syncobj"
	"github.com/gogpu/softvk/wsi"
)

type presentEnv struct {
	inst    Instance
	phys    PhysicalDevice
	dev     Device
	queue   Queue
	surface SurfaceKHR
}

func newPresentEnv(t *testing.T, width, height uint32) *presentEnv {
	t.Helper()
	e := &presentEnv{inst: newInstance(t, wsiInstanceExtensions...)}
	e.phys = firstPhysicalDevice(t, e.inst)
	e.dev, e.queue = newDevice(t, e.inst, "VK_KHR_swapchain")
	mustSucceed(t, "CreateHeadlessSurfaceEXT()", CreateHeadlessSurfaceEXT(e.inst,
		&HeadlessSurfaceCreateInfoEXT{Width: width, Height: height}, nil, &e.surface))
	t.Cleanup(func() { DestroySurfaceKHR(e.inst, e.surface, nil) })
	return e
}

func (e *presentEnv) swapchain(t *testing.T, old SwapchainKHR) SwapchainKHR {
	t.Helper()
	var sc SwapchainKHR
	mustSucceed(t, "CreateSwapchainKHR()", CreateSwapchainKHR(e.dev, &SwapchainCreateInfoKHR{
		Surface:          e.surface,
		MinImageCount:    2,
		ImageFormat:      gputypes.TextureFormatBGRA8Unorm,
		ImageColorSpace:  wsi.ColorSpaceSRGBNonlinear,
		ImageExtent:      Extent2D{Width: 4, Height: 4},
		ImageArrayLayers: 1,
		ImageUsage:       gputypes.TextureUsageCopyDst,
		PresentMode:      wsi.PresentModeFIFO,
		Clipped:          true,
		OldSwapchain:     old,
	}, nil, &sc))
	t.Cleanup(func() { DestroySwapchainKHR(e.dev, sc, nil) })
	return sc
}

func TestSurfaceQueriesThroughAPI(t *testing.T) {
	e := newPresentEnv(t, 4, 4)

	var supported bool
	mustSucceed(t, "GetPhysicalDeviceSurfaceSupportKHR()", GetPhysicalDeviceSurfaceSupportKHR(e.phys, 0, e.surface, &supported))
	if !supported {
		t.Error("queue family 0 cannot present")
	}

	var caps SurfaceCapabilitiesKHR
	mustSucceed(t, "GetPhysicalDeviceSurfaceCapabilitiesKHR()", GetPhysicalDeviceSurfaceCapabilitiesKHR(e.phys, e.surface, &caps))
	if caps.CurrentExtent != (Extent2D{Width: 4, Height: 4}) {
		t.Errorf("CurrentExtent = %v, want 4x4", caps.CurrentExtent)
	}

	var n uint32
	mustSucceed(t, "GetPhysicalDeviceSurfaceFormatsKHR(query)", GetPhysicalDeviceSurfaceFormatsKHR(e.phys, e.surface, &n, nil))
	formats := make([]SurfaceFormatKHR, n)
	mustSucceed(t, "GetPhysicalDeviceSurfaceFormatsKHR()", GetPhysicalDeviceSurfaceFormatsKHR(e.phys, e.surface, &n, formats))
	found := false
	for _, f := range formats {
		found = found || f.Format == gputypes.TextureFormatBGRA8Unorm
	}
	if !found {
		t.Errorf("surface formats %v lack BGRA8Unorm", formats)
	}

	mustSucceed(t, "GetPhysicalDeviceSurfacePresentModesKHR(query)", GetPhysicalDeviceSurfacePresentModesKHR(e.phys, e.surface, &n, nil))
	if n == 0 {
		t.Error("no present modes")
	}

	HeadlessSurface(e.surface).Lose()
	if got := GetPhysicalDeviceSurfacePresentModesKHR(e.phys, e.surface, &n, nil); got != ErrorSurfaceLostKHR {
		t.Errorf("GetPhysicalDeviceSurfacePresentModesKHR(lost) = %v, want VK_ERROR_SURFACE_LOST_KHR", got)
	}
}

func TestUndefinedSurfaceExtent(t *testing.T) {
	e := newPresentEnv(t, 0, 0)
	var caps SurfaceCapabilitiesKHR
	mustSucceed(t, "GetPhysicalDeviceSurfaceCapabilitiesKHR()", GetPhysicalDeviceSurfaceCapabilitiesKHR(e.phys, e.surface, &caps))
	if want := (Extent2D{Width: wsi.UndefinedExtent, Height: wsi.UndefinedExtent}); caps.CurrentExtent != want {
		t.Errorf("CurrentExtent = %v, want %v", caps.CurrentExtent, want)
	}
}

func TestPresentFlow(t *testing.T) {
	e := newPresentEnv(t, 4, 4)
	sc := e.swapchain(t, 0)

	var n uint32
	mustSucceed(t, "GetSwapchainImagesKHR(query)", GetSwapchainImagesKHR(e.dev, sc, &n, nil))
	imgs := make([]Image, n)
	mustSucceed(t, "GetSwapchainImagesKHR()", GetSwapchainImagesKHR(e.dev, sc, &n, imgs))
	if n < 2 {
		t.Fatalf("swapchain has %d images, want at least 2", n)
	}

	var acquired, rendered Semaphore
	mustSucceed(t, "CreateSemaphore()", CreateSemaphore(e.dev, &SemaphoreCreateInfo{}, nil, &acquired))
	mustSucceed(t, "CreateSemaphore()", CreateSemaphore(e.dev, &SemaphoreCreateInfo{}, nil, &rendered))
	t.Cleanup(func() {
		DestroySemaphore(e.dev, acquired, nil)
		DestroySemaphore(e.dev, rendered, nil)
	})

	var index uint32
	mustSucceed(t, "AcquireNextImageKHR()", AcquireNextImageKHR(e.dev, sc, syncobj.Infinite, acquired, 0, &index))

	cb := newCommandBuffer(t, e.dev)
	BeginCommandBuffer(cb, &CommandBufferBeginInfo{})
	CmdClearColorImage(cb, imgs[index], ImageLayoutTransferDstOptimal, &ClearColorValue{Float32: [4]float32{0, 0, 1, 1}}, nil)
	mustSucceed(t, "EndCommandBuffer()", EndCommandBuffer(cb))
	mustSucceed(t, "QueueSubmit()", QueueSubmit(e.queue, []SubmitInfo{{
		WaitSemaphores:   []Semaphore{acquired},
		WaitDstStageMask: []PipelineStageFlags{PipelineStageTransfer},
		CommandBuffers:   []CommandBuffer{cb},
		SignalSemaphores: []Semaphore{rendered},
	}}, 0))

	results := make([]Result, 1)
	mustSucceed(t, "QueuePresentKHR()", QueuePresentKHR(e.queue, &PresentInfoKHR{
		WaitSemaphores: []Semaphore{rendered},
		Swapchains:     []SwapchainKHR{sc},
		ImageIndices:   []uint32{index},
		Results:        results,
	}))
	mustSucceed(t, "QueueWaitIdle()", QueueWaitIdle(e.queue))
	if results[0] != Success {
		t.Errorf("per-swapchain result = %v, want VK_SUCCESS", results[0])
	}

	frame := HeadlessSurface(e.surface).LastFrame()
	if frame == nil {
		t.Fatal("no frame presented")
	}
	if c := frame.RGBAAt(1, 1); c.R != 0 || c.G != 0 || c.B != 255 || c.A != 255 {
		t.Errorf("pixel = %v, want opaque blue", c)
	}
}

func TestSwapchainStatusResults(t *testing.T) {
	e := newPresentEnv(t, 4, 4)
	old := e.swapchain(t, 0)
	current := e.swapchain(t, old)

	var index uint32 = 77
	if got := AcquireNextImageKHR(e.dev, old, 0, 0, 0, &index); got != ErrorOutOfDateKHR {
		t.Errorf("AcquireNextImageKHR(retired) = %v, want VK_ERROR_OUT_OF_DATE_KHR", got)
	}
	if index != 77 {
		t.Errorf("AcquireNextImageKHR(retired) wrote index %d", index)
	}

	HeadlessSurface(e.surface).Resize(8, 8)
	if got := AcquireNextImageKHR(e.dev, current, syncobj.Infinite, 0, 0, &index); got != SuboptimalKHR {
		t.Errorf("AcquireNextImageKHR(resized) = %v, want VK_SUBOPTIMAL_KHR", got)
	}
	if index == 77 {
		t.Error("suboptimal acquire did not write the index")
	}
	if got := QueuePresentKHR(e.queue, &PresentInfoKHR{
		Swapchains:   []SwapchainKHR{current},
		ImageIndices: []uint32{index},
	}); got != SuboptimalKHR {
		t.Errorf("QueuePresentKHR(resized) = %v, want VK_SUBOPTIMAL_KHR", got)
	}
	mustSucceed(t, "QueueWaitIdle()", QueueWaitIdle(e.queue))
}

func TestSwapchainImagesLeaveWithSwapchain(t *testing.T) {
	e := newPresentEnv(t, 4, 4)
	before := liveHandles()

	var sc SwapchainKHR
	mustSucceed(t, "CreateSwapchainKHR()", CreateSwapchainKHR(e.dev, &SwapchainCreateInfoKHR{
		Surface:       e.surface,
		MinImageCount: 2,
		ImageFormat:   gputypes.TextureFormatBGRA8Unorm,
		ImageExtent:   Extent2D{Width: 4, Height: 4},
		PresentMode:   wsi.PresentModeFIFO,
	}, nil, &sc))
	DestroySwapchainKHR(e.dev, sc, nil)

	if got := liveHandles(); got != before {
		t.Errorf("live handles = %d, want %d", got, before)
	}
}
