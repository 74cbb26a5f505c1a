package pipeline

import (
	"hash/fnv"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// Stage is one shader stage of a pipeline.
type Stage struct {
	Stage      gputypes.ShaderStage
	Module     *ShaderModule
	EntryPoint string
}

// Layout is a pipeline layout.
type Layout struct {
	PushConstantSize uint32
	raw              hal.PipelineLayout
}

// ComputeDesc describes a compute pipeline.
type ComputeDesc struct {
	Label  string
	Stage  Stage
	Layout *Layout
}

// GraphicsDesc describes a graphics pipeline.
type GraphicsDesc struct {
	Label        string
	Stages       []Stage
	Layout       *Layout
	Topology     gputypes.PrimitiveTopology
	FrontFace    gputypes.FrontFace
	CullMode     gputypes.CullMode
	ColorFormats []gputypes.TextureFormat
	DepthFormat  gputypes.TextureFormat
	SampleCount  uint32
}

// Kind tells compute and graphics pipelines apart.
type Kind uint8

const (
	KindCompute Kind = iota
	KindGraphics
)

func (k Kind) String() string {
	if k == KindGraphics {
		return "graphics"
	}
	return "compute"
}

// Pipeline is a created pipeline.
type Pipeline struct {
	kind     Kind
	key      uint64
	compute  hal.ComputePipeline
	graphics *GraphicsDesc
}

// Kind returns the pipeline kind.
func (p *Pipeline) Kind() Kind { return p.kind }

// Key returns the cache key the pipeline was created under.
func (p *Pipeline) Key() uint64 { return p.key }

// Graphics returns the description of a graphics pipeline, or nil.
func (p *Pipeline) Graphics() *GraphicsDesc { return p.graphics }

// HashComputeDesc computes the FNV-1a cache key of a compute pipeline.
func HashComputeDesc(desc *ComputeDesc) uint64 {
	h := fnv.New64a()
	hashWriteUint32(h, uint32(KindCompute))
	hashWriteUint32(h, uint32(desc.Stage.Stage))
	if desc.Stage.Module != nil {
		hashWriteUint64(h, desc.Stage.Module.codeHash)
	} else {
		hashWriteUint64(h, 0)
	}
	hashWriteString(h, desc.Stage.EntryPoint)
	if desc.Layout != nil {
		hashWriteUint32(h, desc.Layout.PushConstantSize)
	}
	return h.Sum64()
}

// HashGraphicsDesc computes the FNV-1a cache key of a graphics pipeline.
func HashGraphicsDesc(desc *GraphicsDesc) uint64 {
	h := fnv.New64a()
	hashWriteUint32(h, uint32(KindGraphics))
	hashWriteUint32(h, uint32(len(desc.Stages)))
	for _, s := range desc.Stages {
		hashWriteUint32(h, uint32(s.Stage))
		if s.Module != nil {
			hashWriteUint64(h, s.Module.codeHash)
		} else {
			hashWriteUint64(h, 0)
		}
		hashWriteString(h, s.EntryPoint)
	}
	if desc.Layout != nil {
		hashWriteUint32(h, desc.Layout.PushConstantSize)
	}
	hashWriteUint32(h, uint32(desc.Topology))
	hashWriteUint32(h, uint32(desc.FrontFace))
	hashWriteUint32(h, uint32(desc.CullMode))
	hashWriteUint32(h, uint32(len(desc.ColorFormats)))
	for _, f := range desc.ColorFormats {
		hashWriteUint32(h, uint32(f))
	}
	hashWriteUint32(h, uint32(desc.DepthFormat))
	hashWriteUint32(h, desc.SampleCount)
	return h.Sum64()
}
