package headless

import (
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/gogpu/gputypes"
	xdraw "golang.org/x/image/draw"

	"github.com/gogpu/softvk/internal/parallel"
	"github.com/gogpu/softvk/queue"
	"github.com/gogpu/softvk/resource"
	"github.com/gogpu/softvk/syncobj"
	"github.com/gogpu/softvk/wsi"
)

// Swapchain is a headless swapchain. Images are handed out round-robin and
// become available again once their present has run on the queue.
type Swapchain struct {
	surface *Surface
	loss    *syncobj.Loss
	gone    chan struct{}
	format  gputypes.TextureFormat
	extent  wsi.Extent
	images  []*resource.Image

	mu        sync.Mutex
	cond      *sync.Cond
	available []bool
	next      int
	retired   bool
	destroyed bool
}

func newSwapchain(s *Surface, loss *syncobj.Loss, format gputypes.TextureFormat, extent wsi.Extent, count uint32) *Swapchain {
	sc := &Swapchain{
		surface: s,
		loss:    loss,
		gone:    make(chan struct{}),
		format:  format,
		extent:  extent,
		images:  make([]*resource.Image, 0, count),
	}
	sc.cond = sync.NewCond(&sc.mu)
	return sc
}

// Images implements wsi.Swapchain.
func (sc *Swapchain) Images() []*resource.Image {
	return append([]*resource.Image(nil), sc.images...)
}

// Extent returns the size of the swapchain images.
func (sc *Swapchain) Extent() wsi.Extent { return sc.extent }

// watchLoss wakes pending acquires when the device is lost. Presents queued
// behind a failed job are discarded and never release their images.
func (sc *Swapchain) watchLoss() {
	select {
	case <-sc.loss.Done():
		sc.mu.Lock()
		sc.cond.Broadcast()
		sc.mu.Unlock()
	case <-sc.gone:
	}
}

func (sc *Swapchain) retire() {
	sc.mu.Lock()
	sc.retired = true
	sc.cond.Broadcast()
	sc.mu.Unlock()
}

// status reports the state of the swapchain relative to its surface.
// sc.mu must be held.
func (sc *Swapchain) status() wsi.Status {
	switch {
	case sc.surface.Lost():
		return wsi.SurfaceLost
	case sc.retired:
		return wsi.OutOfDate
	}
	if e := sc.surface.Extent(); e != (wsi.Extent{}) && e != sc.extent {
		return wsi.Suboptimal
	}
	return wsi.Success
}

// AcquireNextImage implements wsi.Swapchain.
func (sc *Swapchain) AcquireNextImage(timeout uint64, sem *syncobj.Semaphore, fence *syncobj.Fence) (uint32, wsi.Status, error) {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	var deadline time.Time
	if timeout != syncobj.Infinite {
		deadline = time.Now().Add(time.Duration(min(timeout, 1<<62)))
	}
	for {
		if sc.loss.Lost() {
			return 0, wsi.DeviceLost, nil
		}
		if st := sc.status(); st >= wsi.OutOfDate {
			return 0, st, nil
		}
		if i, ok := sc.take(); ok {
			if sem != nil {
				sem.Signal()
			}
			if fence != nil {
				fence.Signal()
			}
			return uint32(i), sc.status(), nil
		}
		if timeout == 0 {
			return 0, wsi.Success, syncobj.ErrNotReady
		}
		if deadline.IsZero() {
			sc.cond.Wait()
			continue
		}
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return 0, wsi.Success, syncobj.ErrTimeout
		}
		t := time.AfterFunc(remaining, func() {
			sc.mu.Lock()
			sc.cond.Broadcast()
			sc.mu.Unlock()
		})
		sc.cond.Wait()
		t.Stop()
	}
}

func (sc *Swapchain) take() (int, bool) {
	n := len(sc.available)
	for k := range n {
		i := (sc.next + k) % n
		if sc.available[i] {
			sc.available[i] = false
			sc.next = (i + 1) % n
			return i, true
		}
	}
	return 0, false
}

// QueuePresent implements wsi.Swapchain.
func (sc *Swapchain) QueuePresent(index uint32, q *queue.Queue) wsi.Status {
	sc.mu.Lock()
	if int(index) >= len(sc.images) || sc.available[index] {
		sc.mu.Unlock()
		panic(fmt.Sprintf("headless: present of image %d that was not acquired", index))
	}
	st := sc.status()
	sc.mu.Unlock()
	if st >= wsi.SurfaceLost {
		sc.release(index)
		return st
	}
	if q.Loss().Lost() {
		sc.release(index)
		return wsi.DeviceLost
	}

	err := q.Submit(queue.Callback(func() error {
		defer sc.release(index)
		sc.mu.Lock()
		destroyed := sc.destroyed
		sc.mu.Unlock()
		if destroyed {
			return nil
		}
		frame, err := sc.frame(index)
		if err != nil {
			return err
		}
		sc.surface.deliver(index, frame)
		return nil
	}))
	if err != nil {
		wsi.Logger().Warn("headless: present submit failed", "err", err)
		sc.release(index)
		return wsi.DeviceLost
	}
	return st
}

func (sc *Swapchain) release(index uint32) {
	sc.mu.Lock()
	if int(index) < len(sc.available) {
		sc.available[index] = true
	}
	sc.cond.Broadcast()
	sc.mu.Unlock()
}

// minRowsPerBand keeps small frames on one goroutine.
const minRowsPerBand = 64

// frame converts image index to RGBA at the current surface size.
func (sc *Swapchain) frame(index uint32) (*image.RGBA, error) {
	img := sc.images[index]
	data, err := img.Bytes()
	if err != nil {
		return nil, err
	}
	layout, err := img.Layout(0, 0)
	if err != nil {
		return nil, err
	}
	w, h := int(sc.extent.Width), int(sc.extent.Height)
	src := image.NewRGBA(image.Rect(0, 0, w, h))
	swap := sc.format == gputypes.TextureFormatBGRA8Unorm || sc.format == gputypes.TextureFormatBGRA8UnormSrgb
	parallel.Shared().Bands(h, minRowsPerBand, func(lo, hi int) {
		for y := lo; y < hi; y++ {
			row := data[layout.Offset+uint64(y)*layout.RowPitch:][:w*4]
			out := src.Pix[y*src.Stride:][:w*4]
			copy(out, row)
			if swap {
				for x := 0; x < len(out); x += 4 {
					out[x], out[x+2] = out[x+2], out[x]
				}
			}
		}
	})

	target := sc.surface.Extent()
	if target == sc.extent || target.Width == 0 || target.Height == 0 {
		return src, nil
	}
	dst := image.NewRGBA(image.Rect(0, 0, int(target.Width), int(target.Height)))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), xdraw.Src, nil)
	return dst, nil
}

// Destroy implements wsi.Swapchain.
func (sc *Swapchain) Destroy() {
	sc.mu.Lock()
	if sc.destroyed {
		sc.mu.Unlock()
		return
	}
	sc.destroyed = true
	sc.retired = true
	close(sc.gone)
	sc.cond.Broadcast()
	sc.mu.Unlock()
	for _, img := range sc.images {
		img.Release()
	}
}
