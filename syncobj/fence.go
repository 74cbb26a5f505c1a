package syncobj

import (
	"sync/atomic"
	"time"
)

// Fence is a host-observable signal attached to queue submissions.
type Fence struct {
	signaled atomic.Bool
	notifier *Notifier
	loss     *Loss
}

// NewFence creates a fence that reports through the device's notifier and
// loss latch.
func NewFence(signaled bool, n *Notifier, loss *Loss) *Fence {
	f := &Fence{notifier: n, loss: loss}
	f.signaled.Store(signaled)
	return f
}

// Signal marks the fence signaled and wakes waiters.
func (f *Fence) Signal() {
	f.signaled.Store(true)
	f.notifier.Broadcast()
}

// Reset marks the fence unsignaled. The fence must not be pending.
func (f *Fence) Reset() { f.signaled.Store(false) }

// Signaled reports the raw signal state.
func (f *Fence) Signaled() bool { return f.signaled.Load() }

// Status polls the fence: nil when signaled, ErrNotReady when not, or the
// device-lost error.
func (f *Fence) Status() error {
	if err := f.loss.Err(); err != nil {
		return err
	}
	if f.signaled.Load() {
		return nil
	}
	return ErrNotReady
}

// WaitMultiple blocks until all fences (waitAll) or any fence is signaled.
// A zero timeout polls; Infinite never expires. On expiry it returns
// ErrTimeout and changes nothing. All fences must belong to one device.
func WaitMultiple(fences []*Fence, waitAll bool, timeout uint64) error {
	if len(fences) == 0 {
		return nil
	}
	n, loss := fences[0].notifier, fences[0].loss
	for _, f := range fences[1:] {
		if f.notifier != n {
			panic("syncobj: WaitMultiple across devices")
		}
	}

	ready := func() bool {
		for _, f := range fences {
			s := f.signaled.Load()
			if s && !waitAll {
				return true
			}
			if !s && waitAll {
				return false
			}
		}
		return waitAll
	}

	var (
		expired <-chan time.Time
		started bool
	)
	for {
		wake := n.Wait()
		if err := loss.Err(); err != nil {
			return err
		}
		if ready() {
			return nil
		}
		if timeout == 0 {
			return ErrTimeout
		}
		if !started {
			started = true
			c, stop := timer(timeout)
			defer stop()
			expired = c
		}
		select {
		case <-wake:
		case <-loss.Done():
		case <-expired:
			if ready() {
				return nil
			}
			return ErrTimeout
		}
	}
}
