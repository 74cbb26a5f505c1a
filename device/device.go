package device

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gogpu/softvk/extension"
	"github.com/gogpu/softvk/queue"
	"github.com/gogpu/softvk/resource"
	"github.com/gogpu/softvk/syncobj"
)

// Device creation errors.
var (
	// ErrInvalidQueue is returned for queue requests the physical device
	// cannot satisfy.
	ErrInvalidQueue = errors.New("device: invalid queue request")

	// ErrInvalidMemoryType is returned for memory type indices outside the
	// memory type table.
	ErrInvalidMemoryType = errors.New("device: invalid memory type")
)

// QueueRequest asks for Count queues of one family.
type QueueRequest struct {
	Family uint32
	Count  uint32
}

// Device is a logical device.
type Device struct {
	physical *Physical
	exts     extension.Set
	loss     *syncobj.Loss
	notifier *syncobj.Notifier
	heaps    []*resource.Heap
	types    []MemoryType
	queues   [][]*queue.Queue // by family, then index

	closeOnce sync.Once
}

// New creates a logical device with the requested queues.
func New(p *Physical, exts extension.Set, requests []QueueRequest) (*Device, error) {
	families := p.caps.QueueFamilies()
	mem := p.caps.MemoryProperties()
	d := &Device{
		physical: p,
		exts:     exts,
		loss:     syncobj.NewLoss(),
		notifier: syncobj.NewNotifier(),
		types:    mem.Types,
		queues:   make([][]*queue.Queue, len(families)),
	}
	for _, h := range mem.Heaps {
		d.heaps = append(d.heaps, resource.NewHeap(h.Size))
	}

	seen := make(map[uint32]bool, len(requests))
	for _, r := range requests {
		if r.Family >= uint32(len(families)) || seen[r.Family] ||
			r.Count == 0 || r.Count > families[r.Family].Count {
			d.closeQueues()
			return nil, fmt.Errorf("%w: family %d count %d", ErrInvalidQueue, r.Family, r.Count)
		}
		seen[r.Family] = true
		for i := range r.Count {
			d.queues[r.Family] = append(d.queues[r.Family], queue.New(r.Family, i, d.loss))
		}
	}
	return d, nil
}

// Physical returns the physical device.
func (d *Device) Physical() *Physical { return d.physical }

// Extensions returns the enabled device extensions.
func (d *Device) Extensions() extension.Set { return d.exts }

// Loss returns the device loss latch.
func (d *Device) Loss() *syncobj.Loss { return d.loss }

// Lose marks the device lost.
func (d *Device) Lose(cause error) { d.loss.Signal(cause) }

// Queue returns the queue at family and index.
func (d *Device) Queue(family, index uint32) (*queue.Queue, bool) {
	if family >= uint32(len(d.queues)) || index >= uint32(len(d.queues[family])) {
		return nil, false
	}
	return d.queues[family][index], true
}

// Queues returns every queue of the device.
func (d *Device) Queues() []*queue.Queue {
	var out []*queue.Queue
	for _, f := range d.queues {
		out = append(out, f...)
	}
	return out
}

// Heap returns the budget of heap i.
func (d *Device) Heap(i uint32) *resource.Heap { return d.heaps[i] }

// AllocateMemory allocates size bytes of memory type typeIndex.
func (d *Device) AllocateMemory(size uint64, typeIndex uint32) (*resource.Memory, error) {
	if typeIndex >= uint32(len(d.types)) {
		return nil, fmt.Errorf("%w: %d", ErrInvalidMemoryType, typeIndex)
	}
	return resource.Allocate(d.heaps[d.types[typeIndex].Heap], size, typeIndex)
}

// NewFence creates a fence reporting through the device.
func (d *Device) NewFence(signaled bool) *syncobj.Fence {
	return syncobj.NewFence(signaled, d.notifier, d.loss)
}

// NewSemaphore creates a binary semaphore.
func (d *Device) NewSemaphore() *syncobj.Semaphore {
	return syncobj.NewSemaphore()
}

// WaitIdle waits for every queue of the device to drain.
func (d *Device) WaitIdle() error {
	for _, q := range d.Queues() {
		if err := q.WaitIdle(); err != nil {
			return err
		}
	}
	return d.loss.Err()
}

// Destroy stops the queue workers after they drain.
func (d *Device) Destroy() {
	d.closeOnce.Do(d.closeQueues)
}

func (d *Device) closeQueues() {
	for _, q := range d.Queues() {
		q.Close()
	}
}
