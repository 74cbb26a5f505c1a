// Package handle converts between owned runtime objects and the opaque
// integer handles exposed to API callers.
//
// A Table owns every object inserted into it. Insert transfers ownership to
// the table and returns a Handle; Remove transfers ownership back and
// invalidates the Handle. Each slot carries a generation counter that is
// bumped on removal, so a stale handle is detected instead of aliasing the
// object that later reuses the slot.
//
// Tables are split into shards. Insert and Remove lock a single shard and
// Get takes a shard read lock, so creating and destroying distinct objects
// never contends on one global lock.
package handle

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
)

// Handle is an opaque identifier for an object owned by a Table.
// The zero value is the null handle.
type Handle uint64

// Null is the null handle. Removing it is always a no-op.
const Null Handle = 0

const (
	shardBits  = 4
	shardCount = 1 << shardBits
	indexBits  = 32 - shardBits
	indexMask  = 1<<indexBits - 1
	maxIndex   = indexMask
)

// ErrExhausted is the panic value raised when a shard runs out of slots.
var ErrExhausted = errors.New("handle: table exhausted")

// IsNull reports whether h is the null handle.
func (h Handle) IsNull() bool { return h == Null }

func (h Handle) split() (shard, index, gen uint32) {
	low := uint32(h)
	return low >> indexBits, low & indexMask, uint32(h >> 32)
}

func makeHandle(shard, index, gen uint32) Handle {
	return Handle(uint64(gen)<<32 | uint64(shard<<indexBits|index))
}

// String returns a debug representation of the handle.
func (h Handle) String() string {
	if h == Null {
		return "handle(null)"
	}
	shard, index, gen := h.split()
	return fmt.Sprintf("handle(%d:%d@%d)", shard, index, gen)
}

type slot[T any] struct {
	gen uint32
	obj *T
}

type shard[T any] struct {
	mu    sync.RWMutex
	slots []slot[T]
	free  []uint32
}

// Table owns objects of type T and hands out handles for them.
//
// Table is safe for concurrent use.
type Table[T any] struct {
	shards [shardCount]shard[T]
	next   atomic.Uint32
	live   atomic.Int64
}

// NewTable creates an empty table.
func NewTable[T any]() *Table[T] {
	return &Table[T]{}
}

// Insert takes ownership of obj and returns its handle.
// Inserting nil is a contract violation and panics.
func (t *Table[T]) Insert(obj *T) Handle {
	if obj == nil {
		panic("handle: Insert of nil object")
	}
	si := t.next.Add(1) % shardCount
	s := &t.shards[si]

	s.mu.Lock()
	var index uint32
	if n := len(s.free); n > 0 {
		index = s.free[n-1]
		s.free = s.free[:n-1]
	} else {
		if len(s.slots) > maxIndex {
			s.mu.Unlock()
			panic(ErrExhausted)
		}
		// #nosec G115 -- bounded by maxIndex above
		index = uint32(len(s.slots))
		s.slots = append(s.slots, slot[T]{gen: 1})
	}
	sl := &s.slots[index]
	sl.obj = obj
	h := makeHandle(si, index, sl.gen)
	s.mu.Unlock()

	t.live.Add(1)
	return h
}

// Get returns the object for h without transferring ownership.
// The result is only valid until h is removed.
func (t *Table[T]) Get(h Handle) (*T, bool) {
	if h == Null {
		return nil, false
	}
	si, index, gen := h.split()
	s := &t.shards[si]
	s.mu.RLock()
	defer s.mu.RUnlock()
	if int(index) >= len(s.slots) {
		return nil, false
	}
	sl := s.slots[index]
	if sl.gen != gen || sl.obj == nil {
		return nil, false
	}
	return sl.obj, true
}

// MustGet is like Get but panics if h is null or stale.
func (t *Table[T]) MustGet(h Handle) *T {
	obj, ok := t.Get(h)
	if !ok {
		panic(fmt.Sprintf("handle: use of invalid %v", h))
	}
	return obj
}

// Remove transfers ownership of the object for h back to the caller and
// invalidates h. Removing Null returns (nil, false); removing a stale handle
// also returns (nil, false) and leaves the table unchanged.
func (t *Table[T]) Remove(h Handle) (*T, bool) {
	if h == Null {
		return nil, false
	}
	si, index, gen := h.split()
	s := &t.shards[si]
	s.mu.Lock()
	if int(index) >= len(s.slots) {
		s.mu.Unlock()
		return nil, false
	}
	sl := &s.slots[index]
	if sl.gen != gen || sl.obj == nil {
		s.mu.Unlock()
		return nil, false
	}
	obj := sl.obj
	sl.obj = nil
	sl.gen++
	if sl.gen == 0 {
		sl.gen = 1
	}
	s.free = append(s.free, index)
	s.mu.Unlock()

	t.live.Add(-1)
	return obj, true
}

// Len returns the number of live objects in the table.
func (t *Table[T]) Len() int {
	return int(t.live.Load())
}

// Range calls fn for every live object until fn returns false.
// fn must not call back into the table.
func (t *Table[T]) Range(fn func(Handle, *T) bool) {
	for si := range t.shards {
		s := &t.shards[si]
		s.mu.RLock()
		for index, sl := range s.slots {
			if sl.obj == nil {
				continue
			}
			// #nosec G115 -- si < shardCount, index <= maxIndex
			if !fn(makeHandle(uint32(si), uint32(index), sl.gen), sl.obj) {
				s.mu.RUnlock()
				return
			}
		}
		s.mu.RUnlock()
	}
}
