// Package hostloop serializes externally-triggered work onto the host
// application's single legal execution context.
//
// The host's scripting surface is only valid on its own thread, so no
// connection goroutine may call handler code directly. Instead, all threads
// submit tasks to one queue and exactly one goroutine drains it:
//
//	conn goroutine ──Submit/Call──┐
//	udp goroutine  ──Submit───────┼──→ task queue ──→ Run (single goroutine)
//	                              ┘
//
// Hand-off is blocking (channel send), never polled. Before shutdown
// begins, a task accepted by Submit always eventually runs; during the
// shutdown window itself Submit fails with ErrStopped, and the final drain
// runs whatever was already queued. Call's bounded wait can give up on the
// result, but it never retracts the task.
package hostloop

import (
	"context"
	"errors"
	"time"
)

// ErrCallTimeout is returned by Call when the bounded wait elapses before
// the task produces a result. The task itself still runs.
var ErrCallTimeout = errors.New("hostloop: call timed out awaiting result")

// ErrStopped is returned when submitting to a loop whose Run has exited.
var ErrStopped = errors.New("hostloop: loop stopped")

// DefaultQueueSize bounds how many tasks may be queued before Submit blocks.
const DefaultQueueSize = 64

// Loop is the host-thread work queue. Create with New, start exactly one
// Run goroutine (or drain from the host's own scheduling callback via Tick),
// then Submit/Call from any goroutine.
type Loop struct {
	tasks   chan func()
	stopped chan struct{}
}

// New creates a loop with the given queue capacity (DefaultQueueSize if 0).
func New(queueSize int) *Loop {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	return &Loop{
		tasks:   make(chan func(), queueSize),
		stopped: make(chan struct{}),
	}
}

// Run drains the queue until ctx is cancelled. It must be called from
// exactly one goroutine, and that goroutine is the host thread. On shutdown
// the stopped gate closes first, so new Submits fail with ErrStopped, and
// then already-queued tasks are drained before returning.
func (l *Loop) Run(ctx context.Context) {
	for {
		select {
		case task := <-l.tasks:
			task()
		case <-ctx.Done():
			close(l.stopped)
			for {
				select {
				case task := <-l.tasks:
					task()
				default:
					return
				}
			}
		}
	}
}

// Tick runs all currently queued tasks and returns how many ran. It is the
// alternative to Run for hosts that expose a scheduling callback: call Tick
// from that callback instead of starting a Run goroutine. Never blocks.
func (l *Loop) Tick() int {
	n := 0
	for {
		select {
		case task := <-l.tasks:
			task()
			n++
		default:
			return n
		}
	}
}

// Submit queues a task for the host thread and returns without waiting for
// it to run. Blocks while the queue is full. Returns ErrStopped once the
// loop has begun shutting down.
func (l *Loop) Submit(task func()) error {
	select {
	case <-l.stopped:
		return ErrStopped
	default:
	}
	select {
	case l.tasks <- task:
		return nil
	case <-l.stopped:
		return ErrStopped
	}
}

// Call queues fn for the host thread and waits up to timeout for its result.
// Timing out returns ErrCallTimeout but does not cancel fn: it has already
// been handed to the host thread and will still run.
func (l *Loop) Call(timeout time.Duration, fn func() any) (any, error) {
	result := make(chan any, 1) // buffered so a timed-out call never blocks the host thread
	if err := l.Submit(func() { result <- fn() }); err != nil {
		return nil, err
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case v := <-result:
		return v, nil
	case <-timer.C:
		return nil, ErrCallTimeout
	}
}
