package softvk

import (
	"github.com/gogpu/softvk/syncobj"
	"github.com/gogpu/softvk/wsi"
	"github.com/gogpu/softvk/wsi/headless"
)

// CreateHeadlessSurfaceEXT creates a surface that presents into memory.
func CreateHeadlessSurfaceEXT(instance Instance, info *HeadlessSurfaceCreateInfoEXT, allocator *AllocationCallbacks, out *SurfaceKHR) Result {
	noAllocator(allocator)
	iobj := lookup(instances, instance)
	return guard(func() error {
		s := headless.NewSurface(info.Width, info.Height)
		if n := iobj.cfg.minImageCount; n > 0 {
			s.SetMinImageCount(n)
		}
		platform, err := wsi.For(s)
		if err != nil {
			return err
		}
		*out = register[SurfaceKHR](surfaces, &surfaceObject{surface: s, platform: platform})
		return nil
	})
}

// DestroySurfaceKHR destroys a surface. Swapchains created on it must be
// destroyed first.
func DestroySurfaceKHR(instance Instance, surface SurfaceKHR, allocator *AllocationCallbacks) {
	noAllocator(allocator)
	lookup(instances, instance)
	unregister(surfaces, surface)
}

// HeadlessSurface returns the headless surface behind a handle, or nil if
// the surface belongs to another platform.
func HeadlessSurface(surface SurfaceKHR) *headless.Surface {
	s, _ := lookup(surfaces, surface).surface.(*headless.Surface)
	return s
}

// GetPhysicalDeviceSurfaceSupportKHR reports whether a queue family can
// present to surface.
func GetPhysicalDeviceSurfaceSupportKHR(p PhysicalDevice, family uint32, surface SurfaceKHR, supported *bool) Result {
	lookup(physicalDevices, p)
	s := lookup(surfaces, surface)
	return guard(func() error {
		ok, err := s.platform.SurfaceSupport(s.surface, family)
		if err != nil {
			return err
		}
		*supported = ok
		return nil
	})
}

// GetPhysicalDeviceSurfaceCapabilitiesKHR reports the swapchain limits of
// surface.
func GetPhysicalDeviceSurfaceCapabilitiesKHR(p PhysicalDevice, surface SurfaceKHR, caps *SurfaceCapabilitiesKHR) Result {
	lookup(physicalDevices, p)
	s := lookup(surfaces, surface)
	return guard(func() error {
		c, err := s.platform.SurfaceCapabilities(s.surface)
		if err != nil {
			return err
		}
		*caps = c
		return nil
	})
}

// GetPhysicalDeviceSurfaceFormatsKHR lists the formats surface can present.
func GetPhysicalDeviceSurfaceFormatsKHR(p PhysicalDevice, surface SurfaceKHR, count *uint32, out []SurfaceFormatKHR) Result {
	lookup(physicalDevices, p)
	s := lookup(surfaces, surface)
	var r Result
	if g := guard(func() error {
		formats, err := s.platform.SurfaceFormats(s.surface)
		if err != nil {
			return err
		}
		r = enumerate(count, out, formats)
		return nil
	}); g != Success {
		return g
	}
	return r
}

// GetPhysicalDeviceSurfacePresentModesKHR lists the present modes of
// surface.
func GetPhysicalDeviceSurfacePresentModesKHR(p PhysicalDevice, surface SurfaceKHR, count *uint32, out []PresentModeKHR) Result {
	lookup(physicalDevices, p)
	s := lookup(surfaces, surface)
	var r Result
	if g := guard(func() error {
		modes, err := s.platform.PresentModes(s.surface)
		if err != nil {
			return err
		}
		r = enumerate(count, out, modes)
		return nil
	}); g != Success {
		return g
	}
	return r
}

// CreateSwapchainKHR creates a swapchain and retires OldSwapchain.
// The old swapchain still has to be destroyed by the caller.
func CreateSwapchainKHR(dev Device, info *SwapchainCreateInfoKHR, allocator *AllocationCallbacks, out *SwapchainKHR) Result {
	noAllocator(allocator)
	d := lookupDevice(dev)
	s := lookup(surfaces, info.Surface)
	var old wsi.Swapchain
	if info.OldSwapchain != 0 {
		old = lookup(swapchains, info.OldSwapchain).inner
	}
	return guard(func() error {
		sc, err := s.platform.CreateSwapchain(d.inner, &wsi.SwapchainDesc{
			Surface:       s.surface,
			MinImageCount: info.MinImageCount,
			Format:        info.ImageFormat,
			ColorSpace:    info.ImageColorSpace,
			Extent:        info.ImageExtent,
			ArrayLayers:   info.ImageArrayLayers,
			Usage:         info.ImageUsage,
			PresentMode:   info.PresentMode,
			Clipped:       info.Clipped,
			OldSwapchain:  old,
		})
		if err != nil {
			return err
		}
		obj := &swapchainObject{inner: sc, surface: info.Surface}
		for _, img := range sc.Images() {
			obj.images = append(obj.images, register[Image](images, img))
		}
		*out = register[SwapchainKHR](swapchains, obj)
		return nil
	})
}

// DestroySwapchainKHR destroys a swapchain and its images.
func DestroySwapchainKHR(dev Device, swapchain SwapchainKHR, allocator *AllocationCallbacks) {
	noAllocator(allocator)
	lookupDevice(dev)
	obj, ok := unregister(swapchains, swapchain)
	if !ok {
		return
	}
	for _, img := range obj.images {
		unregister(images, img)
	}
	obj.inner.Destroy()
}

// GetSwapchainImagesKHR lists the images of a swapchain.
func GetSwapchainImagesKHR(dev Device, swapchain SwapchainKHR, count *uint32, out []Image) Result {
	lookupDevice(dev)
	return enumerate(count, out, lookup(swapchains, swapchain).images)
}

func optionalSemaphore(h Semaphore) *syncobj.Semaphore {
	if h == 0 {
		return nil
	}
	return lookup(semaphores, h)
}

func optionalFence(h Fence) *syncobj.Fence {
	if h == 0 {
		return nil
	}
	return lookup(fences, h)
}

// AcquireNextImageKHR waits up to timeout nanoseconds for a presentable
// image and signals semaphore and fence when it is acquired. A zero
// timeout returns NotReady instead of waiting.
func AcquireNextImageKHR(dev Device, swapchain SwapchainKHR, timeout uint64, semaphore Semaphore, fence Fence, index *uint32) Result {
	d := lookupDevice(dev)
	sc := lookup(swapchains, swapchain)
	sem, f := optionalSemaphore(semaphore), optionalFence(fence)
	if d.inner.Loss().Lost() {
		return ErrorDeviceLost
	}
	var status wsi.Status
	r := guard(func() error {
		i, st, err := sc.inner.AcquireNextImage(timeout, sem, f)
		if err != nil {
			return err
		}
		status = st
		if st < wsi.OutOfDate {
			*index = i
		}
		return nil
	})
	if r != Success {
		return r
	}
	return statusResult(status)
}

// QueuePresentKHR waits on info.WaitSemaphores and presents one image per
// swapchain. The result is the most severe per-swapchain result; each one
// is also stored in info.Results when it is non-nil.
func QueuePresentKHR(q Queue, info *PresentInfoKHR) Result {
	qobj := lookup(queues, q)
	if len(info.ImageIndices) != len(info.Swapchains) {
		panic("softvk: QueuePresentKHR needs one image index per swapchain")
	}
	waits := lookupAll(semaphores, info.WaitSemaphores)
	targets := make([]wsi.Target, len(info.Swapchains))
	for i, h := range info.Swapchains {
		targets[i] = wsi.Target{Swapchain: lookup(swapchains, h).inner, Index: info.ImageIndices[i]}
	}

	worst, statuses := wsi.Present(qobj.inner, waits, targets)
	if info.Results != nil {
		for i, st := range statuses {
			if i < len(info.Results) {
				info.Results[i] = statusResult(st)
			}
		}
	}
	return statusResult(worst)
}
