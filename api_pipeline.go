package softvk

import (
	"github.com/gogpu/softvk/pipeline"
)

// CreateShaderModule validates SPIR-V and hands it to the device's
// pipeline compiler.
func CreateShaderModule(dev Device, info *ShaderModuleCreateInfo, allocator *AllocationCallbacks, out *ShaderModule) Result {
	noAllocator(allocator)
	d := lookupDevice(dev)
	return guard(func() error {
		c, err := d.pipelines()
		if err != nil {
			return err
		}
		m, err := c.CreateShaderModule(info.Code)
		if err != nil {
			return err
		}
		*out = register[ShaderModule](shaderModules, m)
		return nil
	})
}

// DestroyShaderModule destroys a shader module.
func DestroyShaderModule(dev Device, module ShaderModule, allocator *AllocationCallbacks) {
	noAllocator(allocator)
	d := lookupDevice(dev)
	if m, ok := unregister(shaderModules, module); ok {
		if c, err := d.pipelines(); err == nil {
			c.DestroyShaderModule(m)
		}
	}
}

// CreatePipelineLayout creates a pipeline layout sized for its push
// constant ranges.
func CreatePipelineLayout(dev Device, info *PipelineLayoutCreateInfo, allocator *AllocationCallbacks, out *PipelineLayout) Result {
	noAllocator(allocator)
	d := lookupDevice(dev)
	return guard(func() error {
		var size uint32
		for _, r := range info.PushConstantRanges {
			size = max(size, r.Offset+r.Size)
		}
		c, err := d.pipelines()
		if err != nil {
			return err
		}
		l, err := c.CreatePipelineLayout(size)
		if err != nil {
			return err
		}
		*out = register[PipelineLayout](pipelineLayouts, l)
		return nil
	})
}

// DestroyPipelineLayout destroys a pipeline layout.
func DestroyPipelineLayout(dev Device, layout PipelineLayout, allocator *AllocationCallbacks) {
	noAllocator(allocator)
	d := lookupDevice(dev)
	if l, ok := unregister(pipelineLayouts, layout); ok {
		if c, err := d.pipelines(); err == nil {
			c.DestroyPipelineLayout(l)
		}
	}
}

func cacheIdentity(d *deviceObject) pipeline.Identity {
	props := d.inner.Physical().Capabilities().Properties()
	return pipeline.Identity{VendorID: props.VendorID, DeviceID: props.DeviceID, UUID: props.PipelineCacheUUID}
}

// CreatePipelineCache creates a pipeline cache seeded with InitialData.
// Data from another device is ignored.
func CreatePipelineCache(dev Device, info *PipelineCacheCreateInfo, allocator *AllocationCallbacks, out *PipelineCache) Result {
	noAllocator(allocator)
	d := lookupDevice(dev)
	return guard(func() error {
		*out = register[PipelineCache](pipelineCaches, pipeline.NewCache(cacheIdentity(d), info.InitialData))
		return nil
	})
}

// DestroyPipelineCache destroys a pipeline cache.
func DestroyPipelineCache(dev Device, cache PipelineCache, allocator *AllocationCallbacks) {
	noAllocator(allocator)
	lookupDevice(dev)
	unregister(pipelineCaches, cache)
}

// GetPipelineCacheData serializes a cache using the enumeration protocol
// over bytes. Only the header and whole entries are written: a buffer
// smaller than the header receives nothing and *size becomes 0.
func GetPipelineCacheData(dev Device, cache PipelineCache, size *uint64, data []byte) Result {
	lookupDevice(dev)
	all := lookup(pipelineCaches, cache).Data()
	if data == nil {
		return enumerate(size, data, all)
	}
	n := min(*size, uint64(len(data)), uint64(len(all)))
	if n < pipeline.CacheHeaderSize {
		n = 0
	} else {
		n -= (n - pipeline.CacheHeaderSize) % pipeline.CacheEntrySize
	}
	copy(data, all[:n])
	*size = n
	if n < uint64(len(all)) {
		return Incomplete
	}
	return Success
}

// MergePipelineCaches adds the contents of srcs to dst.
func MergePipelineCaches(dev Device, dst PipelineCache, srcs []PipelineCache) Result {
	lookupDevice(dev)
	lookup(pipelineCaches, dst).Merge(lookupAll(pipelineCaches, srcs)...)
	return Success
}

func optionalCache(h PipelineCache) *pipeline.Cache {
	if h == 0 {
		return nil
	}
	return lookup(pipelineCaches, h)
}

func optionalLayout(h PipelineLayout) *pipeline.Layout {
	if h == 0 {
		return nil
	}
	return lookup(pipelineLayouts, h)
}

func shaderStage(s PipelineShaderStageCreateInfo) pipeline.Stage {
	return pipeline.Stage{Stage: s.Stage, Module: lookup(shaderModules, s.Module), EntryPoint: s.Name}
}

// createPipelines builds len(infos) pipelines into out. On failure every
// pipeline built so far is destroyed and out is left unchanged.
func createPipelines(d *deviceObject, n int, out []Pipeline, build func(c pipeline.Compiler, i int) (*pipeline.Pipeline, error)) Result {
	if len(out) < n {
		panic("softvk: pipeline output shorter than create infos")
	}
	return guard(func() error {
		c, err := d.pipelines()
		if err != nil {
			return err
		}
		built := make([]*pipeline.Pipeline, 0, n)
		for i := range n {
			p, err := build(c, i)
			if err != nil {
				for _, b := range built {
					c.DestroyPipeline(b)
				}
				return err
			}
			built = append(built, p)
		}
		for i, p := range built {
			out[i] = register[Pipeline](pipelines, p)
		}
		return nil
	})
}

// CreateComputePipelines creates compute pipelines. cache may be null.
func CreateComputePipelines(dev Device, cache PipelineCache, infos []ComputePipelineCreateInfo, allocator *AllocationCallbacks, out []Pipeline) Result {
	noAllocator(allocator)
	d := lookupDevice(dev)
	pc := optionalCache(cache)
	return createPipelines(d, len(infos), out, func(c pipeline.Compiler, i int) (*pipeline.Pipeline, error) {
		info := &infos[i]
		return c.CreateComputePipeline(pc, &pipeline.ComputeDesc{
			Stage:  shaderStage(info.Stage),
			Layout: optionalLayout(info.Layout),
		})
	})
}

// CreateGraphicsPipelines creates graphics pipelines. cache may be null.
func CreateGraphicsPipelines(dev Device, cache PipelineCache, infos []GraphicsPipelineCreateInfo, allocator *AllocationCallbacks, out []Pipeline) Result {
	noAllocator(allocator)
	d := lookupDevice(dev)
	pc := optionalCache(cache)
	return createPipelines(d, len(infos), out, func(c pipeline.Compiler, i int) (*pipeline.Pipeline, error) {
		info := &infos[i]
		stages := make([]pipeline.Stage, len(info.Stages))
		for j, s := range info.Stages {
			stages[j] = shaderStage(s)
		}
		return c.CreateGraphicsPipeline(pc, &pipeline.GraphicsDesc{
			Stages:       stages,
			Layout:       optionalLayout(info.Layout),
			Topology:     info.Topology,
			FrontFace:    info.FrontFace,
			CullMode:     info.CullMode,
			ColorFormats: info.ColorFormats,
			DepthFormat:  info.DepthFormat,
			SampleCount:  info.SampleCount,
		})
	})
}

// DestroyPipeline destroys a pipeline.
func DestroyPipeline(dev Device, p Pipeline, allocator *AllocationCallbacks) {
	noAllocator(allocator)
	d := lookupDevice(dev)
	if obj, ok := unregister(pipelines, p); ok {
		if c, err := d.pipelines(); err == nil {
			c.DestroyPipeline(obj)
		}
	}
}
