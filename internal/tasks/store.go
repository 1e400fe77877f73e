package tasks

import "sync"

// results is the completed list shared by the worker and the bridge.
type results struct {
	mu   sync.Mutex
	done []*Task
}

// push appends a finished task. Tasks without a response are rejected.
func (r *results) push(t *Task) bool {
	if t == nil || t.Response() == nil {
		return false
	}
	r.mu.Lock()
	r.done = append(r.done, t)
	r.mu.Unlock()
	return true
}

// tryDrain takes the whole list if the lock is free. It never waits.
func (r *results) tryDrain() []*Task {
	if !r.mu.TryLock() {
		return nil
	}
	defer r.mu.Unlock()
	if len(r.done) == 0 {
		return nil
	}
	out := r.done
	r.done = nil
	return out
}
