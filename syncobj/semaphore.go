package syncobj

// Semaphore is a binary semaphore. A signal is consumed by exactly one wait.
type Semaphore struct {
	ch chan struct{}
}

// NewSemaphore creates an unsignaled semaphore.
func NewSemaphore() *Semaphore {
	return &Semaphore{ch: make(chan struct{}, 1)}
}

// Signal sets the semaphore. Signaling a signaled semaphore has no effect.
func (s *Semaphore) Signal() {
	select {
	case s.ch <- struct{}{}:
	default:
	}
}

// Wait blocks until the semaphore is signaled and consumes the signal, or
// until the device is lost.
func (s *Semaphore) Wait(loss *Loss) error {
	select {
	case <-s.ch:
		return nil
	default:
	}
	select {
	case <-s.ch:
		return nil
	case <-loss.Done():
		return loss.Err()
	}
}

// Signaled reports whether a signal is pending.
func (s *Semaphore) Signaled() bool { return len(s.ch) == 1 }
