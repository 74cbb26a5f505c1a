package softvk

import (
	"testing"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/softvk/pipeline"
	"github.com/gogpu/softvk/resource"
)

const rgba8 = gputypes.TextureFormatRGBA8Unorm

func extent(w, h uint32) gputypes.Extent3D {
	return gputypes.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1}
}

var wsiInstanceExtensions = []string{"VK_KHR_surface", "VK_EXT_headless_surface"}

func mustSucceed(t *testing.T, what string, r Result) {
	t.Helper()
	if r != Success {
		t.Fatalf("%s = %v, want VK_SUCCESS", what, r)
	}
}

func newInstance(t *testing.T, exts ...string) Instance {
	t.Helper()
	var inst Instance
	mustSucceed(t, "CreateInstance()", CreateInstance(&InstanceCreateInfo{
		ApplicationInfo:       &ApplicationInfo{ApplicationName: t.Name()},
		EnabledExtensionNames: exts,
	}, nil, &inst))
	t.Cleanup(func() { DestroyInstance(inst, nil) })
	return inst
}

func firstPhysicalDevice(t *testing.T, inst Instance) PhysicalDevice {
	t.Helper()
	count := uint32(1)
	out := make([]PhysicalDevice, 1)
	mustSucceed(t, "EnumeratePhysicalDevices()", EnumeratePhysicalDevices(inst, &count, out))
	return out[0]
}

// newDevice creates a device with one queue and returns it with the queue.
func newDevice(t *testing.T, inst Instance, exts ...string) (Device, Queue) {
	t.Helper()
	var dev Device
	mustSucceed(t, "CreateDevice()", CreateDevice(firstPhysicalDevice(t, inst), &DeviceCreateInfo{
		QueueCreateInfos:      []DeviceQueueCreateInfo{{QueueFamilyIndex: 0, QueuePriorities: []float32{1}}},
		EnabledExtensionNames: exts,
	}, nil, &dev))
	t.Cleanup(func() { DestroyDevice(dev, nil) })
	var q Queue
	GetDeviceQueue(dev, 0, 0, &q)
	return dev, q
}

// newBoundBuffer creates a buffer with its own memory allocation.
func newBoundBuffer(t *testing.T, dev Device, size uint64) Buffer {
	t.Helper()
	var buf Buffer
	mustSucceed(t, "CreateBuffer()", CreateBuffer(dev, &BufferCreateInfo{Size: size}, nil, &buf))
	var req MemoryRequirements
	GetBufferMemoryRequirements(dev, buf, &req)
	var mem DeviceMemory
	mustSucceed(t, "AllocateMemory()", AllocateMemory(dev, &MemoryAllocateInfo{AllocationSize: req.Size}, nil, &mem))
	mustSucceed(t, "BindBufferMemory()", BindBufferMemory(dev, buf, mem, 0))
	FreeMemory(dev, mem, nil)
	t.Cleanup(func() { DestroyBuffer(dev, buf, nil) })
	return buf
}

func bufferBytes(t *testing.T, buf Buffer) []byte {
	t.Helper()
	b, err := lookup(buffers, buf).Bytes()
	if err != nil {
		t.Fatal(err)
	}
	return b
}

func newCommandBuffer(t *testing.T, dev Device) CommandBuffer {
	t.Helper()
	var pool CommandPool
	mustSucceed(t, "CreateCommandPool()", CreateCommandPool(dev, &CommandPoolCreateInfo{}, nil, &pool))
	t.Cleanup(func() { DestroyCommandPool(dev, pool, nil) })
	out := make([]CommandBuffer, 1)
	mustSucceed(t, "AllocateCommandBuffers()", AllocateCommandBuffers(dev, &CommandBufferAllocateInfo{
		CommandPool:        pool,
		Level:              CommandBufferLevelPrimary,
		CommandBufferCount: 1,
	}, out))
	return out[0]
}

func TestCreateDestroyPairs(t *testing.T) {
	inst := newInstance(t)
	dev, _ := newDevice(t, inst)

	tests := []struct {
		name string
		// run creates one object and destroys it again.
		run func(t *testing.T)
	}{
		{"Buffer", func(t *testing.T) {
			var h Buffer
			mustSucceed(t, "CreateBuffer()", CreateBuffer(dev, &BufferCreateInfo{Size: 64}, nil, &h))
			DestroyBuffer(dev, h, nil)
		}},
		{"Image", func(t *testing.T) {
			var h Image
			mustSucceed(t, "CreateImage()", CreateImage(dev, &ImageCreateInfo{
				Format: rgba8, Extent: extent(4, 4),
			}, nil, &h))
			DestroyImage(dev, h, nil)
		}},
		{"ImageView", func(t *testing.T) {
			var img Image
			mustSucceed(t, "CreateImage()", CreateImage(dev, &ImageCreateInfo{
				Format: rgba8, Extent: extent(4, 4),
			}, nil, &img))
			var h ImageView
			mustSucceed(t, "CreateImageView()", CreateImageView(dev, &ImageViewCreateInfo{Image: img}, nil, &h))
			DestroyImageView(dev, h, nil)
			DestroyImage(dev, img, nil)
		}},
		{"DeviceMemory", func(t *testing.T) {
			var h DeviceMemory
			mustSucceed(t, "AllocateMemory()", AllocateMemory(dev, &MemoryAllocateInfo{AllocationSize: 64}, nil, &h))
			FreeMemory(dev, h, nil)
		}},
		{"Fence", func(t *testing.T) {
			var h Fence
			mustSucceed(t, "CreateFence()", CreateFence(dev, &FenceCreateInfo{}, nil, &h))
			DestroyFence(dev, h, nil)
		}},
		{"Semaphore", func(t *testing.T) {
			var h Semaphore
			mustSucceed(t, "CreateSemaphore()", CreateSemaphore(dev, &SemaphoreCreateInfo{}, nil, &h))
			DestroySemaphore(dev, h, nil)
		}},
		{"CommandPool", func(t *testing.T) {
			var h CommandPool
			mustSucceed(t, "CreateCommandPool()", CreateCommandPool(dev, &CommandPoolCreateInfo{}, nil, &h))
			cbs := make([]CommandBuffer, 3)
			mustSucceed(t, "AllocateCommandBuffers()", AllocateCommandBuffers(dev, &CommandBufferAllocateInfo{
				CommandPool: h, CommandBufferCount: 3,
			}, cbs))
			FreeCommandBuffers(dev, h, cbs[:1])
			DestroyCommandPool(dev, h, nil)
		}},
		{"PipelineCache", func(t *testing.T) {
			var h PipelineCache
			mustSucceed(t, "CreatePipelineCache()", CreatePipelineCache(dev, &PipelineCacheCreateInfo{}, nil, &h))
			DestroyPipelineCache(dev, h, nil)
		}},
		{"Device", func(t *testing.T) {
			d, _ := newDevice(t, inst)
			DestroyDevice(d, nil)
		}},
		{"Instance", func(t *testing.T) {
			var h Instance
			mustSucceed(t, "CreateInstance()", CreateInstance(&InstanceCreateInfo{}, nil, &h))
			DestroyInstance(h, nil)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := liveHandles()
			tt.run(t)
			if got := liveHandles(); got != before {
				t.Errorf("live handles = %d after create+destroy, want %d", got, before)
			}
		})
	}
}

func TestDestroyNullIsNoop(t *testing.T) {
	inst := newInstance(t)
	dev, _ := newDevice(t, inst)
	before := liveHandles()

	DestroyBuffer(dev, 0, nil)
	DestroyImage(dev, 0, nil)
	FreeMemory(dev, 0, nil)
	DestroyFence(dev, 0, nil)
	DestroySemaphore(dev, 0, nil)
	DestroyCommandPool(dev, 0, nil)
	DestroyPipeline(dev, 0, nil)
	DestroySwapchainKHR(dev, 0, nil)
	DestroyDevice(0, nil)
	DestroyInstance(0, nil)

	if got := liveHandles(); got != before {
		t.Errorf("live handles = %d, want %d", got, before)
	}
}

func TestMemoryReleasedOnce(t *testing.T) {
	inst := newInstance(t)
	dev, _ := newDevice(t, inst)

	var mem DeviceMemory
	mustSucceed(t, "AllocateMemory()", AllocateMemory(dev, &MemoryAllocateInfo{AllocationSize: 256}, nil, &mem))
	released := 0
	lookup(memories, mem).OnRelease(func() { released++ })

	// Two buffers alias the same allocation.
	var a, b Buffer
	mustSucceed(t, "CreateBuffer()", CreateBuffer(dev, &BufferCreateInfo{Size: 128}, nil, &a))
	mustSucceed(t, "CreateBuffer()", CreateBuffer(dev, &BufferCreateInfo{Size: 128}, nil, &b))
	mustSucceed(t, "BindBufferMemory(a)", BindBufferMemory(dev, a, mem, 0))
	mustSucceed(t, "BindBufferMemory(b)", BindBufferMemory(dev, b, mem, 0))

	FreeMemory(dev, mem, nil)
	DestroyBuffer(dev, a, nil)
	if released != 0 {
		t.Fatalf("memory released while buffer b is bound")
	}
	DestroyBuffer(dev, b, nil)
	if released != 1 {
		t.Errorf("release hook ran %d times, want 1", released)
	}
	if used := lookupDevice(dev).inner.Heap(0).Used(); used != 0 {
		t.Errorf("heap Used() = %d after release, want 0", used)
	}
}

// countingCompiler is a pipeline compiler that counts live objects.
type countingCompiler struct {
	modules, layouts, pipelines int
	closed                      int
}

func (c *countingCompiler) CreateShaderModule(code []byte) (*pipeline.ShaderModule, error) {
	if _, err := pipeline.Words(code); err != nil {
		return nil, err
	}
	c.modules++
	return &pipeline.ShaderModule{}, nil
}

func (c *countingCompiler) DestroyShaderModule(*pipeline.ShaderModule) { c.modules-- }

func (c *countingCompiler) CreatePipelineLayout(size uint32) (*pipeline.Layout, error) {
	c.layouts++
	return &pipeline.Layout{PushConstantSize: size}, nil
}

func (c *countingCompiler) DestroyPipelineLayout(*pipeline.Layout) { c.layouts-- }

func (c *countingCompiler) CreateComputePipeline(*pipeline.Cache, *pipeline.ComputeDesc) (*pipeline.Pipeline, error) {
	c.pipelines++
	return &pipeline.Pipeline{}, nil
}

func (c *countingCompiler) CreateGraphicsPipeline(_ *pipeline.Cache, desc *pipeline.GraphicsDesc) (*pipeline.Pipeline, error) {
	if len(desc.Stages) == 0 {
		return nil, pipeline.ErrMissingStage
	}
	c.pipelines++
	return &pipeline.Pipeline{}, nil
}

func (c *countingCompiler) DestroyPipeline(*pipeline.Pipeline) { c.pipelines-- }

func (c *countingCompiler) Close() { c.closed++ }

func spirvHeader() []byte {
	return []byte{0x03, 0x02, 0x23, 0x07, 0, 0, 1, 0, 0, 0, 0, 0, 1, 0, 0, 0, 0, 0, 0, 0}
}

func TestPipelineObjectsReleasedOnce(t *testing.T) {
	stub := &countingCompiler{}
	Configure(WithCompiler(func() (pipeline.Compiler, error) { return stub, nil }))
	t.Cleanup(ResetConfig)

	inst := newInstance(t)
	var dev Device
	mustSucceed(t, "CreateDevice()", CreateDevice(firstPhysicalDevice(t, inst), &DeviceCreateInfo{
		QueueCreateInfos: []DeviceQueueCreateInfo{{QueuePriorities: []float32{1}}},
	}, nil, &dev))

	var module ShaderModule
	mustSucceed(t, "CreateShaderModule()", CreateShaderModule(dev, &ShaderModuleCreateInfo{Code: spirvHeader()}, nil, &module))
	var layout PipelineLayout
	mustSucceed(t, "CreatePipelineLayout()", CreatePipelineLayout(dev, &PipelineLayoutCreateInfo{
		PushConstantRanges: []PushConstantRange{{Offset: 16, Size: 16}},
	}, nil, &layout))
	if got := lookup(pipelineLayouts, layout).PushConstantSize; got != 32 {
		t.Errorf("PushConstantSize = %d, want 32", got)
	}

	out := make([]Pipeline, 2)
	infos := []ComputePipelineCreateInfo{
		{Stage: PipelineShaderStageCreateInfo{Module: module, Name: "main"}, Layout: layout},
		{Stage: PipelineShaderStageCreateInfo{Module: module, Name: "other"}, Layout: layout},
	}
	mustSucceed(t, "CreateComputePipelines()", CreateComputePipelines(dev, 0, infos, nil, out))

	// A failing element destroys the pipelines built before it.
	failing := []GraphicsPipelineCreateInfo{
		{Stages: []PipelineShaderStageCreateInfo{{Module: module}}},
		{},
	}
	bad := make([]Pipeline, 2)
	if r := CreateGraphicsPipelines(dev, 0, failing, nil, bad); r == Success {
		t.Error("CreateGraphicsPipelines() with a bad element succeeded")
	}
	if bad[0] != 0 || stub.pipelines != 2 {
		t.Errorf("failed create left output %v and %d live pipelines, want none and 2", bad, stub.pipelines)
	}

	for _, p := range out {
		DestroyPipeline(dev, p, nil)
	}
	DestroyPipelineLayout(dev, layout, nil)
	DestroyShaderModule(dev, module, nil)
	DestroyDevice(dev, nil)

	if stub.modules != 0 || stub.layouts != 0 || stub.pipelines != 0 {
		t.Errorf("live stub objects: %d modules, %d layouts, %d pipelines, want 0", stub.modules, stub.layouts, stub.pipelines)
	}
	if stub.closed != 1 {
		t.Errorf("compiler closed %d times, want 1", stub.closed)
	}
}

func TestAllocatorCallbacksPanic(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("CreateInstance() with allocator did not panic")
		}
	}()
	var inst Instance
	CreateInstance(&InstanceCreateInfo{}, &AllocationCallbacks{}, &inst)
}

func TestHostAllocationFailure(t *testing.T) {
	inst := newInstance(t)
	dev, _ := newDevice(t, inst)
	buf := Buffer(12345)
	if r := CreateBuffer(dev, &BufferCreateInfo{Size: resource.MaxHostAllocation + 1}, nil, &buf); r != ErrorOutOfHostMemory {
		t.Errorf("CreateBuffer(huge) = %v, want VK_ERROR_OUT_OF_HOST_MEMORY", r)
	}
	if buf != 12345 {
		t.Error("CreateBuffer() wrote its output on failure")
	}
}

func TestDeviceMemoryBudget(t *testing.T) {
	Configure(WithHeapSize(1024))
	t.Cleanup(ResetConfig)
	inst := newInstance(t)
	dev, _ := newDevice(t, inst)

	var a, b DeviceMemory
	mustSucceed(t, "AllocateMemory(768)", AllocateMemory(dev, &MemoryAllocateInfo{AllocationSize: 768}, nil, &a))
	if r := AllocateMemory(dev, &MemoryAllocateInfo{AllocationSize: 512}, nil, &b); r != ErrorOutOfDeviceMemory {
		t.Errorf("AllocateMemory(512) = %v, want VK_ERROR_OUT_OF_DEVICE_MEMORY", r)
	}
	FreeMemory(dev, a, nil)
	mustSucceed(t, "AllocateMemory(512) after free", AllocateMemory(dev, &MemoryAllocateInfo{AllocationSize: 512}, nil, &b))
	FreeMemory(dev, b, nil)
}
