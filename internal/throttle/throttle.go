package throttle

import (
	"context"
	"sync"
	"time"
)

// Throttle serializes opaque tasks through a single lane, enforcing a
// minimum spacing between consecutive task starts.
//
// The queue is unbounded and Enqueue never blocks the caller; backpressure
// is not the Throttle's job. Execution order is strict FIFO.
type Throttle struct {
	// interval is the minimum spacing between task start times.
	// Zero disables spacing (tasks still serialize).
	interval time.Duration

	// mu protects queue and closed.
	mu     sync.Mutex
	queue  []func()
	closed bool

	// wake signals the runner that the queue may be non-empty.
	// Buffered so a signal is never lost and enqueuers never block.
	wake chan struct{}

	// done is closed by Close to stop the runner.
	done chan struct{}

	// stopped is closed by the runner when it exits.
	stopped chan struct{}
}

// New creates a Throttle with the given minimum interval between task
// starts and starts its runner goroutine. Callers must Close the Throttle
// when done with it.
func New(interval time.Duration) *Throttle {
	t := &Throttle{
		interval: interval,
		wake:     make(chan struct{}, 1),
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}

	go t.run()
	return t
}

// Enqueue appends a task to the lane and returns immediately.
// Tasks enqueued after Close are dropped.
func (t *Throttle) Enqueue(task func()) {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	t.queue = append(t.queue, task)
	t.mu.Unlock()

	// Non-blocking signal; one pending signal is enough because the
	// runner drains the queue completely before waiting again.
	select {
	case t.wake <- struct{}{}:
	default:
	}
}

// Do enqueues the task and blocks until it has run or the context is
// cancelled. A cancelled waiter does not remove the task from the lane;
// the task still runs in its queued slot so FIFO spacing stays intact.
func (t *Throttle) Do(ctx context.Context, task func()) error {
	ran := make(chan struct{})
	t.Enqueue(func() {
		defer close(ran)
		task()
	})

	select {
	case <-ran:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops the runner goroutine and drops any queued tasks.
// Waiters blocked in Do on dropped tasks are released only through their
// context, so Close should follow cancellation of in-flight work.
func (t *Throttle) Close() {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	t.closed = true
	t.mu.Unlock()

	close(t.done)
	<-t.stopped
}

// Len reports the number of queued tasks. Intended for logging.
func (t *Throttle) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.queue)
}

// run is the single lane: dequeue one task, wait out the remaining
// interval since the previous start, run it, repeat.
func (t *Throttle) run() {
	defer close(t.stopped)

	var lastStart time.Time

	for {
		task := t.dequeue()
		if task == nil {
			// Queue empty; wait for work or shutdown.
			select {
			case <-t.wake:
				continue
			case <-t.done:
				return
			}
		}

		if !lastStart.IsZero() {
			if wait := t.interval - time.Since(lastStart); wait > 0 {
				// Interruptible wait so Close never blocks on spacing.
				timer := time.NewTimer(wait)
				select {
				case <-timer.C:
				case <-t.done:
					timer.Stop()
					return
				}
			}
		}

		lastStart = time.Now()
		task()

		// Shutdown check between tasks; the current task always runs
		// to completion.
		select {
		case <-t.done:
			return
		default:
		}
	}
}

// dequeue pops the head of the queue, or returns nil if empty.
func (t *Throttle) dequeue() func() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.queue) == 0 {
		return nil
	}
	task := t.queue[0]
	t.queue = t.queue[1:]
	return task
}
