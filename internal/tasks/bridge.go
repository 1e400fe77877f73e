package tasks

import "github.com/jask/carton/internal/events"

// Poll returns the events of every task finished since the last successful
// poll, in completion order, or nil. It never blocks: if the worker holds the
// lock the results are left for the next tick.
func (q *Queue) Poll() []events.UserEvent {
	finished := q.done.tryDrain()
	if len(finished) == 0 {
		return nil
	}
	batch := make([]events.UserEvent, 0, len(finished))
	for _, t := range finished {
		if ev := t.Response(); ev != nil {
			batch = append(batch, ev)
		}
	}
	if len(batch) == 0 {
		return nil
	}
	return batch
}
