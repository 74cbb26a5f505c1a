package softvk

import (
	"sync"

	"github.com/gogpu/softvk/command"
	"github.com/gogpu/softvk/device"
	"github.com/gogpu/softvk/extension"
	"github.com/gogpu/softvk/handle"
	"github.com/gogpu/softvk/pipeline"
	"github.com/gogpu/softvk/queue"
	"github.com/gogpu/softvk/resource"
	"github.com/gogpu/softvk/syncobj"
	"github.com/gogpu/softvk/wsi"
)

type instanceObject struct {
	inner    *device.Instance
	cfg      config
	physical []PhysicalDevice
}

type physicalObject struct {
	inner    *device.Physical
	instance Instance
}

type deviceObject struct {
	inner    *device.Device
	physical PhysicalDevice
	cfg      config
	queues   map[[2]uint32]Queue

	mu       sync.Mutex
	compiler pipeline.Compiler
}

// pipelines returns the device's compiler, creating it on first use.
func (d *deviceObject) pipelines() (pipeline.Compiler, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.compiler == nil {
		c, err := d.cfg.compiler()
		if err != nil {
			return nil, err
		}
		d.compiler = c
	}
	return d.compiler, nil
}

func (d *deviceObject) closeCompiler() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.compiler != nil {
		d.compiler.Close()
		d.compiler = nil
	}
}

type queueObject struct {
	inner  *queue.Queue
	device Device
}

type surfaceObject struct {
	surface  wsi.Surface
	platform wsi.WSI
}

type swapchainObject struct {
	inner   wsi.Swapchain
	surface SurfaceKHR
	images  []Image
}

// Handle tables, one per object type.
var (
	instances       = handle.NewTable[instanceObject]()
	physicalDevices = handle.NewTable[physicalObject]()
	devices         = handle.NewTable[deviceObject]()
	queues          = handle.NewTable[queueObject]()
	memories        = handle.NewTable[resource.Memory]()
	buffers         = handle.NewTable[resource.Buffer]()
	images          = handle.NewTable[resource.Image]()
	imageViews      = handle.NewTable[resource.ImageView]()
	fences          = handle.NewTable[syncobj.Fence]()
	semaphores      = handle.NewTable[syncobj.Semaphore]()
	commandPools    = handle.NewTable[command.Pool]()
	commandBuffers  = handle.NewTable[command.Buffer]()
	shaderModules   = handle.NewTable[pipeline.ShaderModule]()
	pipelineLayouts = handle.NewTable[pipeline.Layout]()
	pipelineCaches  = handle.NewTable[pipeline.Cache]()
	pipelines       = handle.NewTable[pipeline.Pipeline]()
	surfaces        = handle.NewTable[surfaceObject]()
	swapchains      = handle.NewTable[swapchainObject]()
)

// register moves obj into t and returns its typed handle.
func register[H ~uint64, T any](t *handle.Table[T], obj *T) H {
	return H(t.Insert(obj))
}

// lookup returns the object for h. A null or stale handle panics.
func lookup[H ~uint64, T any](t *handle.Table[T], h H) *T {
	return t.MustGet(handle.Handle(h))
}

// unregister moves the object for h out of t. Null yields (nil, false).
func unregister[H ~uint64, T any](t *handle.Table[T], h H) (*T, bool) {
	return t.Remove(handle.Handle(h))
}

// noAllocator asserts that no host allocator callbacks were passed.
func noAllocator(a *AllocationCallbacks) {
	if a != nil {
		panic("softvk: custom allocation callbacks are not supported")
	}
}

func lookupDevice(h Device) *deviceObject { return lookup(devices, h) }

func instanceCaps(h Instance) extension.Set {
	return lookup(instances, h).inner.Extensions()
}

// liveHandles counts the live objects of every type.
func liveHandles() int {
	return instances.Len() + physicalDevices.Len() + devices.Len() + queues.Len() +
		memories.Len() + buffers.Len() + images.Len() + imageViews.Len() +
		fences.Len() + semaphores.Len() + commandPools.Len() + commandBuffers.Len() +
		shaderModules.Len() + pipelineLayouts.Len() + pipelineCaches.Len() +
		pipelines.Len() + surfaces.Len() + swapchains.Len()
}

// lookupAll resolves a slice of handles.
func lookupAll[H ~uint64, T any](t *handle.Table[T], hs []H) []*T {
	if len(hs) == 0 {
		return nil
	}
	out := make([]*T, len(hs))
	for i, h := range hs {
		out[i] = lookup(t, h)
	}
	return out
}
