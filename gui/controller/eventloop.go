package controller

import (
	"log/slog"
	"sync"
)

// EventLoop runs closures on the single thread that owns the UI state.
// Do only enqueues; it never waits for fn to run.
type EventLoop interface {
	Do(fn func())
}

// EventLoopFunc adapts a function such as fyne.Do to EventLoop
type EventLoopFunc func(fn func())

func (f EventLoopFunc) Do(fn func()) { f(fn) }

// QueueLoop is an EventLoop for headless use. Closures are queued without
// limit and run in order by the goroutine that calls Run.
type QueueLoop struct {
	mu      sync.Mutex
	queue   []func()
	wake    chan struct{}
	done    chan struct{}
	stopped bool
	logger  *slog.Logger
}

// NewQueueLoop creates an idle loop; call Run to start draining it.
func NewQueueLoop(logger *slog.Logger) *QueueLoop {
	return &QueueLoop{
		wake:   make(chan struct{}, 1),
		done:   make(chan struct{}),
		logger: logger,
	}
}

// Do appends fn to the queue
func (q *QueueLoop) Do(fn func()) {
	q.mu.Lock()
	q.queue = append(q.queue, fn)
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// Run executes queued closures until Stop is called, then drains what is left.
func (q *QueueLoop) Run() {
	for {
		q.RunPending()
		select {
		case <-q.wake:
		case <-q.done:
			q.RunPending()
			return
		}
	}
}

// RunPending executes every closure queued so far and returns how many ran.
func (q *QueueLoop) RunPending() int {
	ran := 0
	for {
		q.mu.Lock()
		batch := q.queue
		q.queue = nil
		q.mu.Unlock()

		if len(batch) == 0 {
			return ran
		}
		for _, fn := range batch {
			q.run(fn)
			ran++
		}
	}
}

func (q *QueueLoop) run(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			q.logger.Error("event loop closure panicked", "panic", r)
		}
	}()
	fn()
}

// Stop makes Run return after draining the queue
func (q *QueueLoop) Stop() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.stopped {
		q.stopped = true
		close(q.done)
	}
}
