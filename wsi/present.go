package wsi

import (
	"github.com/gogpu/softvk/queue"
	"github.com/gogpu/softvk/syncobj"
)

// Status is the outcome of presenting to one swapchain. Larger values are
// more severe.
type Status uint8

const (
	Success Status = iota
	Suboptimal
	OutOfDate
	SurfaceLost
	DeviceLost
)

func (s Status) String() string {
	switch s {
	case Success:
		return "success"
	case Suboptimal:
		return "suboptimal"
	case OutOfDate:
		return "out-of-date"
	case SurfaceLost:
		return "surface-lost"
	case DeviceLost:
		return "device-lost"
	}
	return "unknown"
}

// Aggregate returns the most severe status, or Success for none.
func Aggregate(statuses ...Status) Status {
	worst := Success
	for _, s := range statuses {
		worst = max(worst, s)
	}
	return worst
}

// Target is one image to present.
type Target struct {
	Swapchain Swapchain
	Index     uint32
}

// Present enqueues a wait on the semaphores and presents every target on q.
// It returns the aggregate status and the status of each target.
func Present(q *queue.Queue, waits []*syncobj.Semaphore, targets []Target) (Status, []Status) {
	statuses := make([]Status, len(targets))
	if len(waits) > 0 {
		if err := q.Submit(queue.WaitSemaphores(waits)); err != nil {
			for i := range statuses {
				statuses[i] = DeviceLost
			}
			slogger().Warn("wsi: present wait failed", "err", err)
			return Aggregate(statuses...), statuses
		}
	}
	for i, t := range targets {
		statuses[i] = t.Swapchain.QueuePresent(t.Index, q)
	}
	worst := Aggregate(statuses...)
	if worst > Suboptimal {
		slogger().Warn("wsi: present", "status", worst, "swapchains", len(targets))
	}
	return worst, statuses
}
