package syncobj

import (
	"errors"
	"testing"
	"time"
)

func newFences(n int) ([]*Fence, *Loss) {
	notifier, loss := NewNotifier(), NewLoss()
	fences := make([]*Fence, n)
	for i := range fences {
		fences[i] = NewFence(false, notifier, loss)
	}
	return fences, loss
}

func TestLossSticky(t *testing.T) {
	l := NewLoss()
	if l.Lost() || l.Err() != nil {
		t.Fatal("new latch reports loss")
	}
	cause := errors.New("boom")
	if !l.Signal(cause) {
		t.Error("first Signal() = false")
	}
	if l.Signal(errors.New("other")) {
		t.Error("second Signal() = true")
	}
	err := l.Err()
	if !errors.Is(err, ErrDeviceLost) || !errors.Is(err, cause) {
		t.Errorf("Err() = %v, want ErrDeviceLost wrapping first cause", err)
	}
	select {
	case <-l.Done():
	default:
		t.Error("Done() not closed")
	}
}

func TestFenceStatus(t *testing.T) {
	fences, loss := newFences(1)
	f := fences[0]
	if err := f.Status(); !errors.Is(err, ErrNotReady) {
		t.Errorf("Status() = %v, want ErrNotReady", err)
	}
	f.Signal()
	if err := f.Status(); err != nil {
		t.Errorf("Status() after Signal = %v, want nil", err)
	}
	f.Reset()
	if f.Signaled() {
		t.Error("Signaled() after Reset = true")
	}
	loss.Signal(nil)
	if err := f.Status(); !errors.Is(err, ErrDeviceLost) {
		t.Errorf("Status() after loss = %v, want ErrDeviceLost", err)
	}
}

func TestWaitMultiplePollTimesOut(t *testing.T) {
	fences, _ := newFences(2)
	if err := WaitMultiple(fences, true, 0); !errors.Is(err, ErrTimeout) {
		t.Fatalf("WaitMultiple(all, 0) = %v, want ErrTimeout", err)
	}
	for i, f := range fences {
		if f.Signaled() {
			t.Errorf("fence %d mutated by timed-out wait", i)
		}
	}
}

func TestWaitMultipleAnyAll(t *testing.T) {
	fences, _ := newFences(2)
	fences[1].Signal()

	tests := []struct {
		name    string
		waitAll bool
		want    error
	}{
		{"any", false, nil},
		{"all", true, ErrTimeout},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := WaitMultiple(fences, tt.waitAll, uint64(time.Millisecond)); !errors.Is(err, tt.want) {
				t.Errorf("WaitMultiple() = %v, want %v", err, tt.want)
			}
		})
	}
	if err := WaitMultiple(nil, true, 0); err != nil {
		t.Errorf("WaitMultiple(nil) = %v, want nil", err)
	}
}

func TestWaitMultipleWakes(t *testing.T) {
	fences, _ := newFences(2)
	go func() {
		time.Sleep(5 * time.Millisecond)
		fences[0].Signal()
		fences[1].Signal()
	}()
	if err := WaitMultiple(fences, true, Infinite); err != nil {
		t.Errorf("WaitMultiple() = %v, want nil", err)
	}
}

func TestWaitMultipleDeviceLost(t *testing.T) {
	fences, loss := newFences(1)
	go func() {
		time.Sleep(5 * time.Millisecond)
		loss.Signal(nil)
	}()
	if err := WaitMultiple(fences, true, Infinite); !errors.Is(err, ErrDeviceLost) {
		t.Errorf("WaitMultiple() = %v, want ErrDeviceLost", err)
	}
}

func TestSemaphoreBinary(t *testing.T) {
	loss := NewLoss()
	s := NewSemaphore()
	s.Signal()
	s.Signal()
	if !s.Signaled() {
		t.Fatal("Signaled() = false after Signal")
	}
	if err := s.Wait(loss); err != nil {
		t.Fatalf("Wait() = %v", err)
	}
	if s.Signaled() {
		t.Error("signal not consumed by Wait")
	}

	done := make(chan error, 1)
	go func() { done <- s.Wait(loss) }()
	select {
	case err := <-done:
		t.Fatalf("Wait() returned %v without a signal", err)
	case <-time.After(5 * time.Millisecond):
	}
	loss.Signal(nil)
	if err := <-done; !errors.Is(err, ErrDeviceLost) {
		t.Errorf("Wait() = %v, want ErrDeviceLost", err)
	}
}
