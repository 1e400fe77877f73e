package tui

import (
	"container/heap"

	tea "github.com/charmbracelet/bubbletea"
)

type deferred struct {
	due uint64
	seq uint64
	msg tea.Msg
}

type deferHeap []deferred

func (h deferHeap) Len() int { return len(h) }
func (h deferHeap) Less(i, j int) bool {
	if h[i].due != h[j].due {
		return h[i].due < h[j].due
	}
	return h[i].seq < h[j].seq
}
func (h deferHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *deferHeap) Push(x any) { *h = append(*h, x.(deferred)) }
func (h *deferHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	old[n-1] = deferred{}
	*h = old[:n-1]
	return x
}

// Scheduler holds messages to re-dispatch after a number of UI ticks.
// Messages due on the same tick come out in scheduling order.
type Scheduler struct {
	now uint64
	seq uint64
	h   deferHeap
}

// Schedule queues msg to fire after ticks more calls to Advance (at least one).
func (s *Scheduler) Schedule(ticks int, msg tea.Msg) {
	if msg == nil {
		return
	}
	if ticks < 1 {
		ticks = 1
	}
	s.seq++
	heap.Push(&s.h, deferred{due: s.now + uint64(ticks), seq: s.seq, msg: msg})
}

// Advance moves the clock one tick and returns the messages now due.
func (s *Scheduler) Advance() []tea.Msg {
	s.now++
	var out []tea.Msg
	for s.h.Len() > 0 && s.h[0].due <= s.now {
		out = append(out, heap.Pop(&s.h).(deferred).msg)
	}
	return out
}

// Now is the current tick.
func (s *Scheduler) Now() uint64 { return s.now }

func (s *Scheduler) pending() int { return s.h.Len() }
