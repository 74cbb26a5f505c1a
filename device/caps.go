// Package device models instances, physical devices and logical devices.
//
// A physical device is described entirely by a Capabilities table. The
// default table describes one CPU device with a single queue family and a
// single host-visible, coherent memory heap. A logical Device owns its
// queues, the heap budget allocations are charged against, and the sticky
// loss latch that its queues, fences and semaphores report through.
package device

import (
	"github.com/gogpu/gputypes"

	"github.com/gogpu/softvk/resource"
)

// Type is the physical device type.
type Type uint32

const (
	TypeOther Type = iota
	TypeIntegratedGPU
	TypeDiscreteGPU
	TypeVirtualGPU
	TypeCPU
)

func (t Type) String() string {
	switch t {
	case TypeIntegratedGPU:
		return "integrated"
	case TypeDiscreteGPU:
		return "discrete"
	case TypeVirtualGPU:
		return "virtual"
	case TypeCPU:
		return "cpu"
	}
	return "other"
}

// QueueFlags describe the work a queue family accepts.
type QueueFlags uint32

const (
	QueueGraphics QueueFlags = 1 << iota
	QueueCompute
	QueueTransfer
)

// MemoryFlags describe a memory type.
type MemoryFlags uint32

const (
	MemoryDeviceLocal MemoryFlags = 1 << iota
	MemoryHostVisible
	MemoryHostCoherent
	MemoryHostCached
)

// HeapFlags describe a memory heap.
type HeapFlags uint32

const HeapDeviceLocal HeapFlags = 1

// FormatFeatures describe what a format supports under one tiling.
type FormatFeatures uint32

const (
	FormatSampledImage       FormatFeatures = 0x0001
	FormatStorageImage       FormatFeatures = 0x0002
	FormatColorAttachment    FormatFeatures = 0x0080
	FormatBlitSrc            FormatFeatures = 0x0400
	FormatBlitDst            FormatFeatures = 0x0800
	FormatTransferSrc        FormatFeatures = 0x4000
	FormatTransferDst        FormatFeatures = 0x8000
	formatFeaturesHostFormat                = FormatSampledImage | FormatStorageImage |
		FormatColorAttachment | FormatBlitSrc | FormatBlitDst |
		FormatTransferSrc | FormatTransferDst
)

// QueueFamily describes one queue family.
type QueueFamily struct {
	Flags                       QueueFlags
	Count                       uint32
	TimestampValidBits          uint32
	MinImageTransferGranularity gputypes.Extent3D
}

// MemoryType is one entry of the memory type table.
type MemoryType struct {
	Flags MemoryFlags
	Heap  uint32
}

// MemoryHeap is one entry of the memory heap table.
type MemoryHeap struct {
	Size  uint64
	Flags HeapFlags
}

// MemoryProperties lists memory types and the heaps they draw from.
type MemoryProperties struct {
	Types []MemoryType
	Heaps []MemoryHeap
}

// Properties identifies a physical device.
type Properties struct {
	APIVersion        uint32
	DriverVersion     uint32
	VendorID          uint32
	DeviceID          uint32
	Type              Type
	Name              string
	PipelineCacheUUID [16]byte
	Limits            gputypes.Limits
}

// Features lists optional device features.
type Features struct {
	RobustBufferAccess  bool
	FullDrawIndexUint32 bool
	IndependentBlend    bool
	SamplerAnisotropy   bool
	ShaderFloat64       bool
	ShaderInt64         bool
	ShaderInt16         bool
}

// FormatProperties lists format features per tiling.
type FormatProperties struct {
	Linear  FormatFeatures
	Optimal FormatFeatures
	Buffer  FormatFeatures
}

// Capabilities is the static description of a physical device.
type Capabilities interface {
	Properties() Properties
	Features() Features
	QueueFamilies() []QueueFamily
	MemoryProperties() MemoryProperties
	FormatProperties(gputypes.TextureFormat) FormatProperties
}

// Config parameterizes the default capability table.
type Config struct {
	Name       string
	HeapSize   uint64
	QueueCount uint32
}

// DefaultConfig returns the configuration of the default device.
func DefaultConfig() Config {
	return Config{Name: "softvk CPU device", HeapSize: 1 << 30, QueueCount: 1}
}

// Version packs an API version number.
func Version(major, minor, patch uint32) uint32 {
	return major<<22 | minor<<12 | patch
}

// APIVersion is the API version the runtime reports.
var APIVersion = Version(1, 0, 61)

type staticCaps struct {
	props    Properties
	families []QueueFamily
	memory   MemoryProperties
}

// NewCapabilities builds the default capability table from cfg. Zero fields
// take their DefaultConfig values.
func NewCapabilities(cfg Config) Capabilities {
	def := DefaultConfig()
	if cfg.Name == "" {
		cfg.Name = def.Name
	}
	if cfg.HeapSize == 0 {
		cfg.HeapSize = def.HeapSize
	}
	if cfg.QueueCount == 0 {
		cfg.QueueCount = def.QueueCount
	}
	limits := gputypes.DefaultLimits()
	limits.MaxBufferSize = min(limits.MaxBufferSize, cfg.HeapSize)

	return &staticCaps{
		props: Properties{
			APIVersion:        APIVersion,
			DriverVersion:     Version(0, 1, 0),
			VendorID:          0x12345678,
			DeviceID:          0x1,
			Type:              TypeCPU,
			Name:              cfg.Name,
			PipelineCacheUUID: [16]byte{'s', 'o', 'f', 't', 'v', 'k', 0, 1},
			Limits:            limits,
		},
		families: []QueueFamily{{
			Flags:                       QueueGraphics | QueueCompute | QueueTransfer,
			Count:                       cfg.QueueCount,
			TimestampValidBits:          64,
			MinImageTransferGranularity: gputypes.Extent3D{Width: 1, Height: 1, DepthOrArrayLayers: 1},
		}},
		memory: MemoryProperties{
			Types: []MemoryType{{
				Flags: MemoryDeviceLocal | MemoryHostVisible | MemoryHostCoherent | MemoryHostCached,
				Heap:  0,
			}},
			Heaps: []MemoryHeap{{Size: cfg.HeapSize, Flags: HeapDeviceLocal}},
		},
	}
}

func (c *staticCaps) Properties() Properties { return c.props }

func (c *staticCaps) Features() Features { return Features{} }

func (c *staticCaps) QueueFamilies() []QueueFamily {
	return append([]QueueFamily(nil), c.families...)
}

func (c *staticCaps) MemoryProperties() MemoryProperties {
	return MemoryProperties{
		Types: append([]MemoryType(nil), c.memory.Types...),
		Heaps: append([]MemoryHeap(nil), c.memory.Heaps...),
	}
}

func (c *staticCaps) FormatProperties(format gputypes.TextureFormat) FormatProperties {
	if resource.TexelSize(format) == 0 {
		return FormatProperties{}
	}
	return FormatProperties{
		Linear:  formatFeaturesHostFormat,
		Optimal: formatFeaturesHostFormat,
	}
}
