package wsi

import (
	"errors"
	"testing"

	"github.com/gogpu/softvk/queue"
	"github.com/gogpu/softvk/resource"
	"github.com/gogpu/softvk/syncobj"
)

type stubSwapchain struct {
	status    Status
	presented []uint32
}

func (s *stubSwapchain) Images() []*resource.Image { return nil }

func (s *stubSwapchain) AcquireNextImage(uint64, *syncobj.Semaphore, *syncobj.Fence) (uint32, Status, error) {
	return 0, s.status, nil
}

func (s *stubSwapchain) QueuePresent(index uint32, _ *queue.Queue) Status {
	s.presented = append(s.presented, index)
	return s.status
}

func (s *stubSwapchain) Destroy() {}

func TestAggregate(t *testing.T) {
	tests := []struct {
		in   []Status
		want Status
	}{
		{nil, Success},
		{[]Status{Success, Success}, Success},
		{[]Status{Suboptimal, Success}, Suboptimal},
		{[]Status{Suboptimal, OutOfDate}, OutOfDate},
		{[]Status{SurfaceLost, OutOfDate, Suboptimal}, SurfaceLost},
		{[]Status{Success, DeviceLost, SurfaceLost}, DeviceLost},
	}
	for _, tt := range tests {
		if got := Aggregate(tt.in...); got != tt.want {
			t.Errorf("Aggregate(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestPresentReportsEachSwapchain(t *testing.T) {
	q := queue.New(0, 0, syncobj.NewLoss())
	defer q.Close()

	a := &stubSwapchain{status: Success}
	b := &stubSwapchain{status: OutOfDate}
	c := &stubSwapchain{status: Suboptimal}
	sem := syncobj.NewSemaphore()
	sem.Signal()

	worst, each := Present(q, []*syncobj.Semaphore{sem}, []Target{{a, 1}, {b, 0}, {c, 2}})
	if worst != OutOfDate {
		t.Errorf("Present() = %v, want out-of-date", worst)
	}
	want := []Status{Success, OutOfDate, Suboptimal}
	for i := range want {
		if each[i] != want[i] {
			t.Errorf("status[%d] = %v, want %v", i, each[i], want[i])
		}
	}
	if len(a.presented) != 1 || a.presented[0] != 1 {
		t.Errorf("swapchain a presented %v, want [1]", a.presented)
	}
	if err := q.WaitIdle(); err != nil {
		t.Fatal(err)
	}
	if sem.Signaled() {
		t.Error("present did not consume the wait semaphore")
	}
}

func TestPresentOnLostDevice(t *testing.T) {
	loss := syncobj.NewLoss()
	q := queue.New(0, 0, loss)
	defer q.Close()
	loss.Signal(errors.New("fault"))

	worst, each := Present(q, []*syncobj.Semaphore{syncobj.NewSemaphore()}, []Target{{&stubSwapchain{}, 0}})
	if worst != DeviceLost || each[0] != DeviceLost {
		t.Errorf("Present() = %v %v, want device-lost", worst, each)
	}
}

type stubSurface struct{ p Platform }

func (s stubSurface) Platform() Platform { return s.p }

type stubWSI struct{ WSI }

func TestRegistry(t *testing.T) {
	const p = Platform(200)
	if _, err := For(stubSurface{p}); !errors.Is(err, ErrUnknownPlatform) {
		t.Fatalf("For() error = %v, want ErrUnknownPlatform", err)
	}

	w := stubWSI{}
	Register(p, w)
	defer Unregister(p)

	got, err := For(stubSurface{p})
	if err != nil || got != w {
		t.Errorf("For() = %v, %v", got, err)
	}
	found := false
	for _, q := range Platforms() {
		found = found || q == p
	}
	if !found {
		t.Errorf("Platforms() = %v, missing %d", Platforms(), p)
	}

	defer func() {
		if recover() == nil {
			t.Error("duplicate Register did not panic")
		}
	}()
	Register(p, w)
}
