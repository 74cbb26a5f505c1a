// Package syncobj provides the synchronization objects a device exposes:
// fences observed by the host, binary semaphores ordering queue work, and
// the sticky device-loss latch both report through.
package syncobj

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"time"
)

// Synchronization errors.
var (
	// ErrDeviceLost is reported by every wait and status query once the
	// owning device has been lost.
	ErrDeviceLost = errors.New("syncobj: device lost")

	// ErrNotReady is returned by Fence.Status for an unsignaled fence.
	ErrNotReady = errors.New("syncobj: not ready")

	// ErrTimeout is returned when a wait expires.
	ErrTimeout = errors.New("syncobj: timeout")
)

// Infinite is the timeout that never expires.
const Infinite = math.MaxUint64

// Loss is a device-wide latch that, once signaled, stays signaled.
//
// The zero value is not usable; create one with NewLoss.
type Loss struct {
	once  sync.Once
	done  chan struct{}
	cause error
}

// NewLoss creates an unsignaled latch.
func NewLoss() *Loss {
	return &Loss{done: make(chan struct{})}
}

// Signal marks the device lost. Only the first call records its cause; it
// reports whether this call did so.
func (l *Loss) Signal(cause error) bool {
	first := false
	l.once.Do(func() {
		l.cause = cause
		close(l.done)
		first = true
	})
	return first
}

// Done returns a channel closed when the device is lost.
func (l *Loss) Done() <-chan struct{} { return l.done }

// Lost reports whether the device has been lost.
func (l *Loss) Lost() bool {
	select {
	case <-l.done:
		return true
	default:
		return false
	}
}

// Err returns nil, or ErrDeviceLost wrapped with the first cause.
func (l *Loss) Err() error {
	if !l.Lost() {
		return nil
	}
	if l.cause == nil {
		return ErrDeviceLost
	}
	return fmt.Errorf("%w: %w", ErrDeviceLost, l.cause)
}

// Notifier wakes every goroutine waiting for a state change.
type Notifier struct {
	mu sync.Mutex
	ch chan struct{}
}

// NewNotifier creates a notifier.
func NewNotifier() *Notifier {
	return &Notifier{ch: make(chan struct{})}
}

// Wait returns a channel closed by the next Broadcast. Callers must obtain
// the channel before checking the condition they wait for.
func (n *Notifier) Wait() <-chan struct{} {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.ch
}

// Broadcast wakes all current waiters.
func (n *Notifier) Broadcast() {
	n.mu.Lock()
	close(n.ch)
	n.ch = make(chan struct{})
	n.mu.Unlock()
}

// timer converts a nanosecond timeout into a channel. Infinite yields nil,
// which blocks forever in a select.
func timer(timeout uint64) (<-chan time.Time, func()) {
	if timeout == Infinite || timeout > math.MaxInt64 {
		return nil, func() {}
	}
	t := time.NewTimer(time.Duration(timeout))
	return t.C, func() { t.Stop() }
}
