// Package queue executes submitted work in order on a per-queue worker.
//
// Each Queue owns a FIFO list of jobs and one goroutine that drains it.
// Jobs from one Submit call are enqueued contiguously. A job that fails or
// panics signals the device-wide loss latch; the worker then discards the
// remaining jobs and every later operation reports device lost.
package queue

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gogpu/softvk/command"
	"github.com/gogpu/softvk/syncobj"
)

// ErrClosed is returned when submitting to a closed queue.
var ErrClosed = errors.New("queue: closed")

// Queue is a device queue.
type Queue struct {
	family uint32
	index  uint32
	loss   *syncobj.Loss
	state  command.RunningState

	mu      sync.Mutex
	cond    *sync.Cond
	jobs    []Job
	running bool
	closed  bool
	done    chan struct{}
}

// New creates a queue and starts its worker.
func New(family, index uint32, loss *syncobj.Loss) *Queue {
	q := &Queue{
		family: family,
		index:  index,
		loss:   loss,
		done:   make(chan struct{}),
	}
	q.cond = sync.NewCond(&q.mu)
	go q.worker()
	return q
}

// Family returns the queue family index.
func (q *Queue) Family() uint32 { return q.family }

// Index returns the index within the family.
func (q *Queue) Index() uint32 { return q.index }

// Loss returns the device loss latch the queue reports through.
func (q *Queue) Loss() *syncobj.Loss { return q.loss }

// State returns the running state commands execute against.
func (q *Queue) State() *command.RunningState { return &q.state }

// Submit enqueues jobs after all previously submitted work.
func (q *Queue) Submit(jobs ...Job) error {
	if err := q.loss.Err(); err != nil {
		return err
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return ErrClosed
	}
	q.jobs = append(q.jobs, jobs...)
	q.cond.Broadcast()
	return nil
}

// Pending returns the number of jobs not yet finished.
func (q *Queue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := len(q.jobs)
	if q.running {
		n++
	}
	return n
}

// WaitIdle blocks until every submitted job has run or the device is lost.
func (q *Queue) WaitIdle() error {
	q.mu.Lock()
	for (len(q.jobs) > 0 || q.running) && !q.loss.Lost() {
		q.cond.Wait()
	}
	q.mu.Unlock()
	return q.loss.Err()
}

// Close stops the worker after it drains the remaining jobs.
func (q *Queue) Close() {
	q.mu.Lock()
	q.closed = true
	q.cond.Broadcast()
	q.mu.Unlock()
	<-q.done
}

func (q *Queue) worker() {
	defer close(q.done)
	for {
		q.mu.Lock()
		for len(q.jobs) == 0 && !q.closed {
			q.cond.Wait()
		}
		if len(q.jobs) == 0 {
			q.mu.Unlock()
			return
		}
		if q.loss.Lost() {
			slogger().Debug("queue: discarding jobs after device loss",
				"family", q.family, "queue", q.index, "count", len(q.jobs))
			q.jobs = nil
			q.cond.Broadcast()
			q.mu.Unlock()
			continue
		}
		job := q.jobs[0]
		q.jobs[0] = Job{}
		q.jobs = q.jobs[1:]
		q.running = true
		q.mu.Unlock()

		err := q.run(job)

		q.mu.Lock()
		q.running = false
		if err != nil {
			if q.loss.Signal(err) {
				slogger().Warn("queue: device lost",
					"family", q.family, "queue", q.index, "job", job.Kind, "err", err)
			}
			q.jobs = nil
		} else {
			slogger().Debug("queue: job done",
				"family", q.family, "queue", q.index, "job", job.Kind, "buffers", len(job.CommandBuffers))
		}
		q.cond.Broadcast()
		q.mu.Unlock()
	}
}

func (q *Queue) run(job Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("queue: %v job panicked: %v", job.Kind, r)
		}
	}()

	switch job.Kind {
	case KindSubmit, KindWait:
		for _, s := range job.Wait {
			if err := s.Wait(q.loss); err != nil {
				return err
			}
		}
		for i, cb := range job.CommandBuffers {
			if err := cb.Run(&q.state); err != nil {
				return fmt.Errorf("queue: command buffer %d: %w", i, err)
			}
		}
		for _, s := range job.Signal {
			s.Signal()
		}
	case KindSignalFence:
		job.Fence.Signal()
	case KindCallback:
		return job.Callback()
	default:
		return fmt.Errorf("queue: unknown job kind %d", job.Kind)
	}
	return nil
}
