package resource

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gogpu/gputypes"
)

// ErrAlreadyBound is returned when binding memory to an object twice.
var ErrAlreadyBound = errors.New("resource: memory already bound")

// BufferAlignment is the required alignment of buffer memory bindings.
const BufferAlignment = 16

// Requirements describes the memory an object needs.
type Requirements struct {
	Size           uint64
	Alignment      uint64
	MemoryTypeBits uint32
}

// BufferDesc describes a buffer.
type BufferDesc struct {
	Size  uint64
	Usage gputypes.BufferUsage
}

// Buffer is a linear range of device memory.
type Buffer struct {
	desc BufferDesc

	mu      sync.Mutex
	binding Binding
}

// NewBuffer creates an unbound buffer.
func NewBuffer(desc BufferDesc) (*Buffer, error) {
	if desc.Size == 0 {
		return nil, fmt.Errorf("%w: zero-sized buffer", ErrOutOfRange)
	}
	checkHostSize(desc.Size, "buffer")
	return &Buffer{desc: desc}, nil
}

// Desc returns the creation parameters.
func (b *Buffer) Desc() BufferDesc { return b.desc }

// Size returns the buffer size in bytes.
func (b *Buffer) Size() uint64 { return b.desc.Size }

// Requirements returns the memory requirements of the buffer.
func (b *Buffer) Requirements() Requirements {
	return Requirements{
		Size:           alignUp(b.desc.Size, BufferAlignment),
		Alignment:      BufferAlignment,
		MemoryTypeBits: 1,
	}
}

// Bind attaches the buffer to mem at offset.
func (b *Buffer) Bind(mem *Memory, offset uint64) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.binding.Bound() {
		return ErrAlreadyBound
	}
	if offset%BufferAlignment != 0 {
		return fmt.Errorf("%w: offset %d not aligned to %d", ErrOutOfRange, offset, BufferAlignment)
	}
	binding, err := Bind(mem, offset, b.desc.Size)
	if err != nil {
		return err
	}
	b.binding = binding
	return nil
}

// Memory returns the bound allocation, or nil.
func (b *Buffer) Memory() *Memory {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.binding.Memory()
}

// Bytes returns the memory backing the buffer.
func (b *Buffer) Bytes() ([]byte, error) {
	b.mu.Lock()
	binding := b.binding
	b.mu.Unlock()
	return binding.Bytes()
}

// Range returns size bytes of the buffer at offset. WholeSize selects the
// rest of the buffer.
func (b *Buffer) Range(offset, size uint64) ([]byte, error) {
	data, err := b.Bytes()
	if err != nil {
		return nil, err
	}
	return subrange(data, offset, size)
}

// Release drops the buffer's memory reference.
func (b *Buffer) Release() {
	b.mu.Lock()
	b.binding.Release()
	b.mu.Unlock()
}

func alignUp(v, a uint64) uint64 {
	return (v + a - 1) &^ (a - 1)
}
