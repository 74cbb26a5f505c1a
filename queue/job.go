package queue

import (
	"github.com/gogpu/softvk/command"
	"github.com/gogpu/softvk/syncobj"
)

// Kind identifies what a Job does.
type Kind uint8

const (
	// KindSubmit waits on semaphores, replays command buffers, then signals
	// semaphores.
	KindSubmit Kind = iota
	// KindWait only waits on semaphores.
	KindWait
	// KindSignalFence signals a fence.
	KindSignalFence
	// KindCallback runs a function on the queue worker.
	KindCallback
)

func (k Kind) String() string {
	switch k {
	case KindSubmit:
		return "submit"
	case KindWait:
		return "wait"
	case KindSignalFence:
		return "signal-fence"
	case KindCallback:
		return "callback"
	}
	return "unknown"
}

// Job is one unit of queue work. Jobs are not modified after submission.
type Job struct {
	Kind           Kind
	Wait           []*syncobj.Semaphore
	CommandBuffers []*command.Buffer
	Signal         []*syncobj.Semaphore
	Fence          *syncobj.Fence
	Callback       func() error
}

// Submit builds a submit job.
func Submit(wait []*syncobj.Semaphore, buffers []*command.Buffer, signal []*syncobj.Semaphore) Job {
	return Job{
		Kind:           KindSubmit,
		Wait:           append([]*syncobj.Semaphore(nil), wait...),
		CommandBuffers: append([]*command.Buffer(nil), buffers...),
		Signal:         append([]*syncobj.Semaphore(nil), signal...),
	}
}

// WaitSemaphores builds a job that consumes the given semaphores.
func WaitSemaphores(sems []*syncobj.Semaphore) Job {
	return Job{Kind: KindWait, Wait: append([]*syncobj.Semaphore(nil), sems...)}
}

// SignalFence builds a job that signals f.
func SignalFence(f *syncobj.Fence) Job {
	return Job{Kind: KindSignalFence, Fence: f}
}

// Callback builds a job that runs fn. A non-nil error loses the device.
func Callback(fn func() error) Job {
	return Job{Kind: KindCallback, Callback: fn}
}
