package headless

import (
	"errors"
	"testing"
	"time"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/softvk/command"
	"github.com/gogpu/softvk/device"
	"github.com/gogpu/softvk/queue"
	"github.com/gogpu/softvk/resource"
	"github.com/gogpu/softvk/syncobj"
	"github.com/gogpu/softvk/wsi"
)

func newDevice(t *testing.T) *device.Device {
	t.Helper()
	inst := device.NewInstance("headless", device.APIVersion, 0, device.NewCapabilities(device.DefaultConfig()))
	d, err := device.New(inst.PhysicalDevices()[0], 0, []device.QueueRequest{{Family: 0, Count: 1}})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(d.Destroy)
	return d
}

func mustCreateSwapchain(t *testing.T, d *device.Device, s *Surface, old wsi.Swapchain) *Swapchain {
	t.Helper()
	w, err := wsi.For(s)
	if err != nil {
		t.Fatalf("wsi.For() error = %v", err)
	}
	sc, err := w.CreateSwapchain(d, &wsi.SwapchainDesc{
		Surface:       s,
		MinImageCount: 2,
		Format:        gputypes.TextureFormatBGRA8Unorm,
		Extent:        wsi.Extent{Width: 4, Height: 4},
		Usage:         gputypes.TextureUsageCopyDst,
		PresentMode:   wsi.PresentModeFIFO,
		OldSwapchain:  old,
	})
	if err != nil {
		t.Fatalf("CreateSwapchain() error = %v", err)
	}
	t.Cleanup(sc.Destroy)
	return sc.(*Swapchain)
}

func TestSurfaceQueries(t *testing.T) {
	w := New()
	s := NewSurface(640, 480)
	s.SetMinImageCount(3)

	caps, err := w.SurfaceCapabilities(s)
	if err != nil {
		t.Fatal(err)
	}
	if caps.CurrentExtent != (wsi.Extent{Width: 640, Height: 480}) || caps.MinImageCount != 3 {
		t.Errorf("SurfaceCapabilities() = %+v", caps)
	}
	if ok, err := w.SurfaceSupport(s, 0); !ok || err != nil {
		t.Errorf("SurfaceSupport() = %v, %v", ok, err)
	}
	if f, _ := w.SurfaceFormats(s); len(f) == 0 {
		t.Error("SurfaceFormats() is empty")
	}

	s.Lose()
	if _, err := w.PresentModes(s); !errors.Is(err, wsi.ErrSurfaceLost) {
		t.Errorf("PresentModes() on lost surface error = %v, want ErrSurfaceLost", err)
	}
}

func TestCreateSwapchainRejects(t *testing.T) {
	d := newDevice(t)
	s := NewSurface(4, 4)
	tests := []struct {
		name string
		desc wsi.SwapchainDesc
	}{
		{"format", wsi.SwapchainDesc{Format: gputypes.TextureFormatR8Unorm, Extent: wsi.Extent{Width: 1, Height: 1}}},
		{"extent", wsi.SwapchainDesc{Format: gputypes.TextureFormatBGRA8Unorm}},
		{"count", wsi.SwapchainDesc{Format: gputypes.TextureFormatBGRA8Unorm, MinImageCount: 99,
			Extent: wsi.Extent{Width: 1, Height: 1}}},
		{"layers", wsi.SwapchainDesc{Format: gputypes.TextureFormatBGRA8Unorm, ArrayLayers: 2,
			Extent: wsi.Extent{Width: 1, Height: 1}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.desc.Surface = s
			tt.desc.PresentMode = wsi.PresentModeFIFO
			if _, err := New().CreateSwapchain(d, &tt.desc); !errors.Is(err, wsi.ErrUnsupported) {
				t.Errorf("CreateSwapchain() error = %v, want ErrUnsupported", err)
			}
		})
	}
}

func TestAcquireRoundRobin(t *testing.T) {
	d := newDevice(t)
	sc := mustCreateSwapchain(t, d, NewSurface(4, 4), nil)
	if n := len(sc.Images()); n != 2 {
		t.Fatalf("len(Images()) = %d, want 2", n)
	}

	fence := d.NewFence(false)
	sem := d.NewSemaphore()
	i0, st, err := sc.AcquireNextImage(syncobj.Infinite, sem, fence)
	if err != nil || st != wsi.Success || i0 != 0 {
		t.Fatalf("AcquireNextImage() = %d, %v, %v", i0, st, err)
	}
	if !fence.Signaled() || !sem.Signaled() {
		t.Error("acquire did not signal fence and semaphore")
	}
	if i1, _, _ := sc.AcquireNextImage(0, nil, nil); i1 != 1 {
		t.Errorf("second image = %d, want 1", i1)
	}
	if _, _, err := sc.AcquireNextImage(0, nil, nil); !errors.Is(err, syncobj.ErrNotReady) {
		t.Errorf("AcquireNextImage(0) error = %v, want ErrNotReady", err)
	}
	if _, _, err := sc.AcquireNextImage(uint64(time.Millisecond), nil, nil); !errors.Is(err, syncobj.ErrTimeout) {
		t.Errorf("AcquireNextImage(1ms) error = %v, want ErrTimeout", err)
	}
}

func TestPresentDeliversFrame(t *testing.T) {
	d := newDevice(t)
	s := NewSurface(4, 4)
	var frames []Frame
	s.SetSink(func(f Frame) { frames = append(frames, f) })
	sc := mustCreateSwapchain(t, d, s, nil)
	q, _ := d.Queue(0, 0)

	idx, _, err := sc.AcquireNextImage(syncobj.Infinite, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	cb := command.NewPool(0).Allocate(command.LevelPrimary, 1)[0]
	cb.Begin()
	cb.Record(command.ClearColorImage(sc.Images()[idx], resource.ClearColor{Float32: [4]float32{1, 0, 0, 1}}))
	if err := cb.End(); err != nil {
		t.Fatal(err)
	}
	if err := q.Submit(queueSubmit(cb)); err != nil {
		t.Fatal(err)
	}

	worst, _ := wsi.Present(q, nil, []wsi.Target{{Swapchain: sc, Index: idx}})
	if worst != wsi.Success {
		t.Fatalf("Present() = %v, want success", worst)
	}
	if err := q.WaitIdle(); err != nil {
		t.Fatal(err)
	}
	if len(frames) != 1 {
		t.Fatalf("sink got %d frames, want 1", len(frames))
	}
	// BGRA storage converts back to red in RGBA.
	if c := frames[0].Image.RGBAAt(2, 2); c.R != 255 || c.G != 0 || c.B != 0 || c.A != 255 {
		t.Errorf("pixel = %v, want opaque red", c)
	}

	// A resized surface gets a scaled, suboptimal present.
	s.Resize(8, 2)
	idx, st, _ := sc.AcquireNextImage(syncobj.Infinite, nil, nil)
	if st != wsi.Suboptimal {
		t.Errorf("acquire after resize = %v, want suboptimal", st)
	}
	if st := sc.QueuePresent(idx, q); st != wsi.Suboptimal {
		t.Errorf("QueuePresent() = %v, want suboptimal", st)
	}
	if err := q.WaitIdle(); err != nil {
		t.Fatal(err)
	}
	if b := s.LastFrame().Bounds(); b.Dx() != 8 || b.Dy() != 2 {
		t.Errorf("frame bounds = %v, want 8x2", b)
	}
}

func TestRetiredAndLost(t *testing.T) {
	d := newDevice(t)
	s := NewSurface(4, 4)
	old := mustCreateSwapchain(t, d, s, nil)
	_ = mustCreateSwapchain(t, d, s, old)

	if _, st, _ := old.AcquireNextImage(0, nil, nil); st != wsi.OutOfDate {
		t.Errorf("acquire on retired swapchain = %v, want out-of-date", st)
	}

	current := mustCreateSwapchain(t, d, s, nil)
	idx, _, _ := current.AcquireNextImage(0, nil, nil)
	s.Lose()
	q, _ := d.Queue(0, 0)
	if st := current.QueuePresent(idx, q); st != wsi.SurfaceLost {
		t.Errorf("present on lost surface = %v, want surface-lost", st)
	}
}

func TestAcquireReportsDeviceLoss(t *testing.T) {
	d := newDevice(t)
	sc := mustCreateSwapchain(t, d, NewSurface(4, 4), nil)
	q, _ := d.Queue(0, 0)

	var held []uint32
	for range sc.Images() {
		idx, _, err := sc.AcquireNextImage(0, nil, nil)
		if err != nil {
			t.Fatalf("AcquireNextImage() error = %v", err)
		}
		held = append(held, idx)
	}

	// The presents queue up behind a failing job and are discarded with it.
	gate := make(chan struct{})
	if err := q.Submit(queue.Callback(func() error {
		<-gate
		return errors.New("boom")
	})); err != nil {
		t.Fatal(err)
	}
	for _, idx := range held {
		if st := sc.QueuePresent(idx, q); st != wsi.Success {
			t.Fatalf("QueuePresent(%d) = %v, want success", idx, st)
		}
	}

	type acquired struct {
		st  wsi.Status
		err error
	}
	done := make(chan acquired, 1)
	go func() {
		_, st, err := sc.AcquireNextImage(syncobj.Infinite, nil, nil)
		done <- acquired{st, err}
	}()
	close(gate)

	select {
	case got := <-done:
		if got.err != nil || got.st != wsi.DeviceLost {
			t.Errorf("AcquireNextImage() = %v, %v, want device-lost", got.st, got.err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("AcquireNextImage(Infinite) still blocked after device loss")
	}

	if _, st, _ := sc.AcquireNextImage(0, nil, nil); st != wsi.DeviceLost {
		t.Errorf("AcquireNextImage(0) after loss = %v, want device-lost", st)
	}
}
