package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/jask/carton/internal/events"
)

// Observer is told about task progress. Calls happen on the worker goroutine,
// before the task is visible to Poll.
type Observer interface {
	TaskStarted(t *Task)
	TaskFinished(t *Task)
}

type nopObserver struct{}

func (nopObserver) TaskStarted(*Task)  {}
func (nopObserver) TaskFinished(*Task) {}

type Option func(*Queue)

func WithLogger(l *slog.Logger) Option {
	return func(q *Queue) {
		if l != nil {
			q.logger = l
		}
	}
}

func WithObserver(o Observer) Option {
	return func(q *Queue) {
		if o != nil {
			q.observer = o
		}
	}
}

// Queue owns one worker goroutine that executes requests strictly in
// submission order, one at a time.
type Queue struct {
	handler  Handler
	logger   *slog.Logger
	observer Observer

	mu      sync.Mutex
	pending []*Task
	closed  bool
	wake    chan struct{}

	done results

	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewQueue starts the worker. Call Close to stop it.
func NewQueue(h Handler, opts ...Option) *Queue {
	ctx, cancel := context.WithCancel(context.Background())
	q := &Queue{
		handler:  h,
		logger:   slog.Default(),
		observer: nopObserver{},
		wake:     make(chan struct{}, 1),
		ctx:      ctx,
		cancel:   cancel,
	}
	for _, opt := range opts {
		opt(q)
	}
	q.wg.Add(1)
	go q.run()
	return q
}

// Submit enqueues req and returns immediately.
func (q *Queue) Submit(req Request) {
	if req == nil {
		return
	}
	t := newTask(req)
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		q.logger.Warn("task submitted after close", "kind", req.Kind())
		return
	}
	q.pending = append(q.pending, t)
	q.mu.Unlock()
	q.logger.Debug("task submitted", "id", t.ID, "kind", req.Kind())
	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// Pending is the number of requests not yet picked up by the worker.
func (q *Queue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Close stops the worker and waits for it. Requests not yet started are
// dropped; the one in flight sees its context cancelled.
func (q *Queue) Close() {
	q.closeOnce.Do(func() {
		q.mu.Lock()
		dropped := len(q.pending)
		q.closed = true
		q.pending = nil
		q.mu.Unlock()
		q.cancel()
		q.wg.Wait()
		if dropped > 0 {
			q.logger.Info("task queue closed", "dropped", dropped)
		}
	})
}

func (q *Queue) run() {
	defer q.wg.Done()
	for {
		t, ok := q.next()
		if !ok {
			return
		}
		q.execute(t)
	}
}

func (q *Queue) next() (*Task, bool) {
	for {
		q.mu.Lock()
		if q.closed {
			q.mu.Unlock()
			return nil, false
		}
		if len(q.pending) > 0 {
			t := q.pending[0]
			q.pending[0] = nil
			q.pending = q.pending[1:]
			q.mu.Unlock()
			return t, true
		}
		q.mu.Unlock()

		select {
		case <-q.wake:
		case <-q.ctx.Done():
			return nil, false
		}
	}
}

func (q *Queue) execute(t *Task) {
	t.StartedAt = time.Now()
	q.observer.TaskStarted(t)

	ev := q.handle(t.Request)

	t.FinishedAt = time.Now()
	if err := t.respond(ev); err != nil {
		q.logger.Error("task response", "id", t.ID, "err", err)
	}
	q.observer.TaskFinished(t)
	q.done.push(t)
	q.logger.Debug("task finished", "id", t.ID, "kind", t.Request.Kind(),
		"event", t.Response().Kind(), "latency", t.Latency())
}

// handle runs the handler and turns a panic into an Error event so the
// worker keeps serving later requests.
func (q *Queue) handle(req Request) (ev events.UserEvent) {
	defer func() {
		if r := recover(); r != nil {
			q.logger.Error("task panicked", "kind", req.Kind(), "panic", r, "stack", string(debug.Stack()))
			ev = events.Error{Message: fmt.Sprintf("%s failed: %v", req.Kind(), r)}
		}
	}()
	return q.handler.Handle(q.ctx, req)
}
