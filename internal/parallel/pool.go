// Package parallel runs CPU-side pixel work, such as converting presented
// images, across a fixed set of goroutines.
package parallel

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// Pool is a fixed set of worker goroutines. Each worker has its own queue
// and steals from the others when its queue is empty.
//
// Pool is safe for concurrent use.
type Pool struct {
	queues []chan func()
	done   chan struct{}
	wg     sync.WaitGroup

	running atomic.Bool
}

// NewPool starts a pool of n workers. n <= 0 uses GOMAXPROCS.
func NewPool(n int) *Pool {
	if n <= 0 {
		n = runtime.GOMAXPROCS(0)
	}
	p := &Pool{
		queues: make([]chan func(), n),
		done:   make(chan struct{}),
	}
	for i := range p.queues {
		p.queues[i] = make(chan func(), max(4*n, 8))
	}
	p.running.Store(true)
	p.wg.Add(n)
	for i := range n {
		go p.worker(i)
	}
	return p
}

var (
	sharedOnce sync.Once
	shared     *Pool
)

// Shared returns a process-wide pool sized to GOMAXPROCS. It is never
// closed.
func Shared() *Pool {
	sharedOnce.Do(func() { shared = NewPool(0) })
	return shared
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()
	own := p.queues[id]
	for {
		select {
		case <-p.done:
			drain(own)
			return
		case fn := <-own:
			fn()
			continue
		default:
		}
		if fn := p.steal(id); fn != nil {
			fn()
			continue
		}
		select {
		case <-p.done:
			drain(own)
			return
		case fn := <-own:
			fn()
		}
	}
}

func drain(q chan func()) {
	for {
		select {
		case fn := <-q:
			fn()
		default:
			return
		}
	}
}

func (p *Pool) steal(id int) func() {
	for i, q := range p.queues {
		if i == id {
			continue
		}
		select {
		case fn := <-q:
			return fn
		default:
		}
	}
	return nil
}

// Run executes every function in work and returns when all have finished.
// On a closed pool the work runs on the calling goroutine.
func (p *Pool) Run(work []func()) {
	if len(work) == 0 {
		return
	}
	if !p.running.Load() || len(work) == 1 {
		for _, fn := range work {
			fn()
		}
		return
	}

	var wg sync.WaitGroup
	wg.Add(len(work))
	for i, fn := range work {
		task := func() {
			defer wg.Done()
			fn()
		}
		select {
		case p.queues[i%len(p.queues)] <- task:
		case <-p.done:
			task()
		}
	}
	wg.Wait()
}

// Bands splits [0, n) into at most one contiguous band per worker, each at
// least minBand long, and runs fn on every band.
func (p *Pool) Bands(n, minBand int, fn func(lo, hi int)) {
	if n <= 0 {
		return
	}
	bands := min(len(p.queues), max(n/max(minBand, 1), 1))
	size := (n + bands - 1) / bands
	work := make([]func(), 0, bands)
	for lo := 0; lo < n; lo += size {
		hi := min(lo+size, n)
		work = append(work, func() { fn(lo, hi) })
	}
	p.Run(work)
}

// Close stops the workers after the queued work has run. Close is safe to
// call more than once.
func (p *Pool) Close() {
	if !p.running.CompareAndSwap(true, false) {
		return
	}
	close(p.done)
	p.wg.Wait()
}

// Workers returns the number of workers.
func (p *Pool) Workers() int { return len(p.queues) }
