// Package pipeline compiles shader modules and pipelines for a device.
//
// The runtime consumes pipeline compilation through the Compiler interface.
// The default HALCompiler validates SPIR-V and builds compute pipelines on a
// wgpu HAL device; graphics pipelines are kept as validated descriptions
// since rasterization happens elsewhere. WGSL sources can be compiled to
// SPIR-V with CompileWGSL.
package pipeline

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash"
	"hash/fnv"

	"github.com/gogpu/naga"
	"github.com/gogpu/wgpu/hal"
)

// SPIRVMagic is the first word of every SPIR-V module.
const SPIRVMagic = 0x07230203

// Pipeline errors.
var (
	// ErrInvalidSPIRV is returned for code that is not a SPIR-V module.
	ErrInvalidSPIRV = errors.New("pipeline: invalid SPIR-V")

	// ErrNilShader is returned when a pipeline stage has no shader module.
	ErrNilShader = errors.New("pipeline: shader module is nil")

	// ErrMissingStage is returned when a graphics pipeline has no vertex stage.
	ErrMissingStage = errors.New("pipeline: missing vertex stage")
)

// ShaderModule is a validated SPIR-V module.
type ShaderModule struct {
	code     []uint32
	codeHash uint64
	raw      hal.ShaderModule
}

// Code returns the SPIR-V words.
func (m *ShaderModule) Code() []uint32 { return m.code }

// CodeHash returns the FNV-1a hash of the module bytes.
func (m *ShaderModule) CodeHash() uint64 { return m.codeHash }

// Raw returns the HAL module, or nil when the module was not created on a
// HAL device.
func (m *ShaderModule) Raw() hal.ShaderModule { return m.raw }

// Words converts little-endian SPIR-V bytes into words.
func Words(code []byte) ([]uint32, error) {
	if len(code) < 20 || len(code)%4 != 0 {
		return nil, fmt.Errorf("%w: %d bytes", ErrInvalidSPIRV, len(code))
	}
	words := make([]uint32, len(code)/4)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(code[i*4:])
	}
	if words[0] != SPIRVMagic {
		return nil, fmt.Errorf("%w: magic %#08x", ErrInvalidSPIRV, words[0])
	}
	return words, nil
}

// CompileWGSL compiles WGSL source to SPIR-V bytes.
func CompileWGSL(source string) ([]byte, error) {
	code, err := naga.Compile(source)
	if err != nil {
		return nil, fmt.Errorf("pipeline: compile WGSL: %w", err)
	}
	return code, nil
}

func hashBytes(data []byte) uint64 {
	h := fnv.New64a()
	_, _ = h.Write(data)
	return h.Sum64()
}

func hashWriteUint32(h hash.Hash64, v uint32) {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	_, _ = h.Write(buf[:])
}

func hashWriteUint64(h hash.Hash64, v uint64) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	_, _ = h.Write(buf[:])
}

func hashWriteString(h hash.Hash64, s string) {
	hashWriteUint32(h, uint32(len(s)))
	_, _ = h.Write([]byte(s))
}
