// Package headless is a presentation platform without a window system.
//
// Presented images are converted to *image.RGBA frames and handed to the
// surface's sink. Importing the package registers the platform:
//
//	import _ "github.com/gogpu/softvk/wsi/headless"
package headless

import (
	"image"
	"sync"

	"github.com/gogpu/softvk/wsi"
)

func init() {
	wsi.Register(wsi.PlatformHeadless, New())
}

// Frame is one presented image.
type Frame struct {
	Seq   uint64
	Index uint32
	Image *image.RGBA
}

// Surface is an off-screen presentation target.
type Surface struct {
	mu       sync.Mutex
	extent   wsi.Extent
	minCount uint32
	lost     bool
	seq      uint64
	last     *image.RGBA
	sink     func(Frame)
}

// NewSurface creates a surface of the given size. A 0x0 surface takes the
// size of whatever swapchain presents to it.
func NewSurface(width, height uint32) *Surface {
	return &Surface{extent: wsi.Extent{Width: width, Height: height}, minCount: 2}
}

// Platform implements wsi.Surface.
func (s *Surface) Platform() wsi.Platform { return wsi.PlatformHeadless }

// Extent returns the current size.
func (s *Surface) Extent() wsi.Extent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.extent
}

// Resize changes the surface size. Swapchains of the old size keep
// presenting, scaled, with a suboptimal status.
func (s *Surface) Resize(width, height uint32) {
	s.mu.Lock()
	s.extent = wsi.Extent{Width: width, Height: height}
	s.mu.Unlock()
}

// SetMinImageCount sets the minimum swapchain image count the surface
// reports.
func (s *Surface) SetMinImageCount(n uint32) {
	s.mu.Lock()
	s.minCount = max(n, 1)
	s.mu.Unlock()
}

// Lose marks the surface lost.
func (s *Surface) Lose() {
	s.mu.Lock()
	s.lost = true
	s.mu.Unlock()
}

// Lost reports whether the surface was lost.
func (s *Surface) Lost() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lost
}

// SetSink sets the function receiving presented frames. It runs on the
// presenting queue's worker.
func (s *Surface) SetSink(fn func(Frame)) {
	s.mu.Lock()
	s.sink = fn
	s.mu.Unlock()
}

// LastFrame returns the most recently presented frame, or nil.
func (s *Surface) LastFrame() *image.RGBA {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// Presented returns the number of frames presented.
func (s *Surface) Presented() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seq
}

func (s *Surface) deliver(index uint32, img *image.RGBA) {
	s.mu.Lock()
	s.seq++
	s.last = img
	f := Frame{Seq: s.seq, Index: index, Image: img}
	sink := s.sink
	s.mu.Unlock()
	if sink != nil {
		sink(f)
	}
}
