package tasks

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/jask/carton/internal/events"
)

var ErrResponded = errors.New("task response already set")

// Task pairs a request with its eventual response. Only the worker writes a
// task; once pushed to the completed list it is read-only.
type Task struct {
	ID          uuid.UUID
	Request     Request
	SubmittedAt time.Time
	StartedAt   time.Time
	FinishedAt  time.Time

	response events.UserEvent
}

func newTask(req Request) *Task {
	return &Task{ID: uuid.New(), Request: req, SubmittedAt: time.Now()}
}

// Response is nil until the worker has finished the task.
func (t *Task) Response() events.UserEvent { return t.response }

// Latency is the time spent executing the request.
func (t *Task) Latency() time.Duration {
	if t.StartedAt.IsZero() || t.FinishedAt.IsZero() {
		return 0
	}
	return t.FinishedAt.Sub(t.StartedAt)
}

func (t *Task) respond(ev events.UserEvent) error {
	if t.response != nil {
		return ErrResponded
	}
	if ev == nil {
		ev = events.Empty{}
	}
	t.response = ev
	return nil
}
