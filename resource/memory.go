// Package resource implements device memory and the buffers and images
// bound into it.
//
// Device memory is plain host memory shared by reference counting. Binding a
// buffer or image retains the allocation, and the backing bytes are dropped
// when the last reference is released. Several objects may alias the same
// allocation at different offsets.
package resource

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
)

// WholeSize requests the remainder of an allocation from an offset.
const WholeSize = math.MaxUint64

// Resource errors.
var (
	// ErrOutOfDeviceMemory is returned when an allocation exceeds the heap budget.
	ErrOutOfDeviceMemory = errors.New("resource: out of device memory")

	// ErrReleased is returned when accessing memory whose storage was released.
	ErrReleased = errors.New("resource: memory released")

	// ErrUnbound is returned when accessing a buffer or image with no memory bound.
	ErrUnbound = errors.New("resource: no memory bound")

	// ErrOutOfRange is returned for offsets or sizes outside an allocation.
	ErrOutOfRange = errors.New("resource: range out of bounds")

	// ErrAlreadyMapped is returned when mapping memory that is already mapped.
	ErrAlreadyMapped = errors.New("resource: memory already mapped")
)

// Heap tracks the bytes allocated from one memory heap.
//
// Heap is safe for concurrent use.
type Heap struct {
	size uint64
	used atomic.Uint64
}

// NewHeap creates a heap with the given capacity in bytes.
func NewHeap(size uint64) *Heap {
	return &Heap{size: size}
}

// Size returns the heap capacity.
func (h *Heap) Size() uint64 { return h.size }

// Used returns the number of bytes currently allocated.
func (h *Heap) Used() uint64 { return h.used.Load() }

func (h *Heap) reserve(n uint64) bool {
	for {
		used := h.used.Load()
		if n > h.size-used {
			return false
		}
		if h.used.CompareAndSwap(used, used+n) {
			return true
		}
	}
}

func (h *Heap) release(n uint64) {
	h.used.Add(^(n - 1))
}

// Memory is one device memory allocation.
type Memory struct {
	heap      *Heap
	typeIndex uint32
	size      uint64

	refs atomic.Int32

	mu     sync.Mutex
	data   []byte
	mapped bool

	onRelease func()
}

// Allocate reserves size bytes from heap and returns a memory object holding
// one reference.
func Allocate(heap *Heap, size uint64, typeIndex uint32) (*Memory, error) {
	if size == 0 {
		return nil, fmt.Errorf("%w: zero-sized allocation", ErrOutOfRange)
	}
	checkHostSize(size, "device memory")
	if !heap.reserve(size) {
		return nil, fmt.Errorf("%w: %d bytes requested, %d of %d in use",
			ErrOutOfDeviceMemory, size, heap.Used(), heap.Size())
	}
	m := &Memory{
		heap:      heap,
		typeIndex: typeIndex,
		size:      size,
		data:      makeBytes(size, "device memory"),
	}
	m.refs.Store(1)
	return m, nil
}

// OnRelease registers fn to run once when the storage is dropped.
func (m *Memory) OnRelease(fn func()) {
	m.mu.Lock()
	m.onRelease = fn
	m.mu.Unlock()
}

// Size returns the allocation size in bytes.
func (m *Memory) Size() uint64 { return m.size }

// TypeIndex returns the memory type the allocation was made from.
func (m *Memory) TypeIndex() uint32 { return m.typeIndex }

// Refs returns the current reference count.
func (m *Memory) Refs() int { return int(m.refs.Load()) }

// Retain adds a reference.
func (m *Memory) Retain() *Memory {
	if m.refs.Add(1) <= 1 {
		panic("resource: Retain of released memory")
	}
	return m
}

// Release drops a reference. The storage is returned to the heap when the
// count reaches zero.
func (m *Memory) Release() {
	switch n := m.refs.Add(-1); {
	case n > 0:
		return
	case n < 0:
		panic("resource: Release of released memory")
	}
	m.mu.Lock()
	m.data = nil
	m.mapped = false
	fn := m.onRelease
	m.mu.Unlock()
	m.heap.release(m.size)
	if fn != nil {
		fn()
	}
}

// Released reports whether the storage has been dropped.
func (m *Memory) Released() bool {
	return m.refs.Load() <= 0
}

// Slice returns size bytes starting at offset. WholeSize selects the rest of
// the allocation.
func (m *Memory) Slice(offset, size uint64) ([]byte, error) {
	m.mu.Lock()
	data := m.data
	m.mu.Unlock()
	if data == nil {
		return nil, ErrReleased
	}
	return subrange(data, offset, size)
}

// Map marks the allocation mapped and returns the requested range.
func (m *Memory) Map(offset, size uint64) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data == nil {
		return nil, ErrReleased
	}
	if m.mapped {
		return nil, ErrAlreadyMapped
	}
	b, err := subrange(m.data, offset, size)
	if err != nil {
		return nil, err
	}
	m.mapped = true
	return b, nil
}

// Unmap clears the mapped state.
func (m *Memory) Unmap() {
	m.mu.Lock()
	m.mapped = false
	m.mu.Unlock()
}

// Mapped reports whether the allocation is mapped.
func (m *Memory) Mapped() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mapped
}

func subrange(data []byte, offset, size uint64) ([]byte, error) {
	n := uint64(len(data))
	if offset > n {
		return nil, fmt.Errorf("%w: offset %d beyond %d bytes", ErrOutOfRange, offset, n)
	}
	if size == WholeSize {
		size = n - offset
	}
	if size > n-offset {
		return nil, fmt.Errorf("%w: [%d, +%d) beyond %d bytes", ErrOutOfRange, offset, size, n)
	}
	return data[offset : offset+size : offset+size], nil
}

// Binding is a range of an allocation a buffer or image is bound to.
// The zero value is unbound.
type Binding struct {
	mem    *Memory
	offset uint64
	size   uint64
}

// Bind retains mem and returns a binding covering size bytes at offset.
func Bind(mem *Memory, offset, size uint64) (Binding, error) {
	if offset > mem.Size() || size > mem.Size()-offset {
		return Binding{}, fmt.Errorf("%w: binding [%d, +%d) in %d-byte allocation",
			ErrOutOfRange, offset, size, mem.Size())
	}
	return Binding{mem: mem.Retain(), offset: offset, size: size}, nil
}

// Bound reports whether the binding refers to memory.
func (b Binding) Bound() bool { return b.mem != nil }

// Memory returns the bound allocation, or nil.
func (b Binding) Memory() *Memory { return b.mem }

// Offset returns the offset of the binding within its allocation.
func (b Binding) Offset() uint64 { return b.offset }

// Bytes returns the bound range.
func (b Binding) Bytes() ([]byte, error) {
	if b.mem == nil {
		return nil, ErrUnbound
	}
	return b.mem.Slice(b.offset, b.size)
}

// Release drops the binding's reference.
func (b *Binding) Release() {
	if b.mem != nil {
		b.mem.Release()
		b.mem = nil
	}
}
