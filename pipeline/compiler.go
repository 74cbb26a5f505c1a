package pipeline

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"
)

// Compiler creates shader modules and pipelines for a device.
type Compiler interface {
	CreateShaderModule(code []byte) (*ShaderModule, error)
	DestroyShaderModule(m *ShaderModule)
	CreatePipelineLayout(pushConstantSize uint32) (*Layout, error)
	DestroyPipelineLayout(l *Layout)
	CreateComputePipeline(cache *Cache, desc *ComputeDesc) (*Pipeline, error)
	CreateGraphicsPipeline(cache *Cache, desc *GraphicsDesc) (*Pipeline, error)
	DestroyPipeline(p *Pipeline)
	Close()
}

// HALCompiler is a Compiler backed by a wgpu HAL device.
type HALCompiler struct {
	device hal.Device
	close  func()

	mu     sync.Mutex
	closed bool
}

// NewHALCompiler opens a device on the HAL noop backend.
func NewHALCompiler() (*HALCompiler, error) {
	api := noop.API{}
	instance, err := api.CreateInstance(nil)
	if err != nil {
		return nil, fmt.Errorf("pipeline: create HAL instance: %w", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return nil, errors.New("pipeline: no HAL adapter")
	}
	open, err := adapters[0].Adapter.Open(0, gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return nil, fmt.Errorf("pipeline: open HAL device: %w", err)
	}
	c := NewHALCompilerWithDevice(open.Device)
	c.close = func() {
		open.Device.Destroy()
		instance.Destroy()
	}
	slogger().Debug("pipeline: HAL compiler ready", "adapter", adapters[0].Info.Name)
	return c, nil
}

// NewHALCompilerWithDevice wraps an open HAL device. Close does not destroy
// the device.
func NewHALCompilerWithDevice(device hal.Device) *HALCompiler {
	return &HALCompiler{device: device, close: func() {}}
}

// CreateShaderModule validates SPIR-V bytes and creates a HAL module.
func (c *HALCompiler) CreateShaderModule(code []byte) (*ShaderModule, error) {
	words, err := Words(code)
	if err != nil {
		return nil, err
	}
	raw, err := c.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  "softvk_shader",
		Source: hal.ShaderSource{SPIRV: words},
	})
	if err != nil {
		return nil, fmt.Errorf("pipeline: create shader module: %w", err)
	}
	return &ShaderModule{code: words, codeHash: hashBytes(code), raw: raw}, nil
}

// DestroyShaderModule releases the HAL module. Nil is ignored.
func (c *HALCompiler) DestroyShaderModule(m *ShaderModule) {
	if m != nil && m.raw != nil {
		c.device.DestroyShaderModule(m.raw)
		m.raw = nil
	}
}

// CreatePipelineLayout creates a layout with no descriptor sets.
func (c *HALCompiler) CreatePipelineLayout(pushConstantSize uint32) (*Layout, error) {
	raw, err := c.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label: "softvk_layout",
	})
	if err != nil {
		return nil, fmt.Errorf("pipeline: create pipeline layout: %w", err)
	}
	return &Layout{PushConstantSize: pushConstantSize, raw: raw}, nil
}

// DestroyPipelineLayout releases the HAL layout. Nil is ignored.
func (c *HALCompiler) DestroyPipelineLayout(l *Layout) {
	if l != nil && l.raw != nil {
		c.device.DestroyPipelineLayout(l.raw)
		l.raw = nil
	}
}

// CreateComputePipeline builds a compute pipeline on the HAL device.
func (c *HALCompiler) CreateComputePipeline(cache *Cache, desc *ComputeDesc) (*Pipeline, error) {
	if desc.Stage.Module == nil || desc.Stage.Module.raw == nil {
		return nil, ErrNilShader
	}
	entry := desc.Stage.EntryPoint
	if entry == "" {
		entry = "main"
	}
	var layout hal.PipelineLayout
	if desc.Layout != nil {
		layout = desc.Layout.raw
	}
	raw, err := c.device.CreateComputePipeline(&hal.ComputePipelineDescriptor{
		Label:  desc.Label,
		Layout: layout,
		Compute: hal.ComputeState{
			Module:     desc.Stage.Module.raw,
			EntryPoint: entry,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("pipeline: create compute pipeline: %w", err)
	}
	key := HashComputeDesc(desc)
	c.observe(cache, key, KindCompute)
	return &Pipeline{kind: KindCompute, key: key, compute: raw}, nil
}

// CreateGraphicsPipeline validates and records a graphics pipeline
// description.
func (c *HALCompiler) CreateGraphicsPipeline(cache *Cache, desc *GraphicsDesc) (*Pipeline, error) {
	hasVertex := false
	for _, s := range desc.Stages {
		if s.Module == nil {
			return nil, ErrNilShader
		}
		if s.Stage&gputypes.ShaderStageVertex != 0 {
			hasVertex = true
		}
	}
	if !hasVertex {
		return nil, ErrMissingStage
	}
	d := *desc
	d.Stages = append([]Stage(nil), desc.Stages...)
	d.ColorFormats = append([]gputypes.TextureFormat(nil), desc.ColorFormats...)
	d.SampleCount = max(d.SampleCount, 1)

	key := HashGraphicsDesc(&d)
	c.observe(cache, key, KindGraphics)
	return &Pipeline{kind: KindGraphics, key: key, graphics: &d}, nil
}

func (c *HALCompiler) observe(cache *Cache, key uint64, kind Kind) {
	if cache == nil {
		return
	}
	hit := cache.Observe(key)
	slogger().Debug("pipeline: created", "kind", kind, "key", key, "cache_hit", hit)
}

// DestroyPipeline releases the pipeline. Nil is ignored.
func (c *HALCompiler) DestroyPipeline(p *Pipeline) {
	if p != nil && p.compute != nil {
		c.device.DestroyComputePipeline(p.compute)
		p.compute = nil
	}
}

// Close releases the HAL device if the compiler opened it.
func (c *HALCompiler) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.close()
}
