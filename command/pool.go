package command

import "sync"

// Pool owns the command buffers allocated from it.
type Pool struct {
	family uint32

	mu      sync.Mutex
	buffers map[*Buffer]struct{}
}

// NewPool creates a pool for the given queue family.
func NewPool(family uint32) *Pool {
	return &Pool{family: family, buffers: make(map[*Buffer]struct{})}
}

// Family returns the queue family index.
func (p *Pool) Family() uint32 { return p.family }

// Allocate creates n command buffers in the initial state.
func (p *Pool) Allocate(level Level, n int) []*Buffer {
	out := make([]*Buffer, n)
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := range out {
		b := &Buffer{pool: p, level: level}
		p.buffers[b] = struct{}{}
		out[i] = b
	}
	return out
}

// Free removes the named buffers from the pool. Nil entries are skipped.
// Free panics if a buffer belongs to another pool.
func (p *Pool) Free(buffers ...*Buffer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, b := range buffers {
		if b == nil {
			continue
		}
		if b.pool != p {
			panic("command: Free of a buffer from another pool")
		}
		delete(p.buffers, b)
		b.Reset()
	}
}

// Reset returns every buffer of the pool to the initial state.
func (p *Pool) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for b := range p.buffers {
		b.Reset()
	}
}

// Destroy frees every buffer and returns them so their handles can be
// retired.
func (p *Pool) Destroy() []*Buffer {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]*Buffer, 0, len(p.buffers))
	for b := range p.buffers {
		b.Reset()
		out = append(out, b)
	}
	clear(p.buffers)
	return out
}

// Len returns the number of live buffers.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.buffers)
}
