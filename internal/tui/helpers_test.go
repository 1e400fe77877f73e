package tui

import (
	"log/slog"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	"github.com/jask/carton/internal/events"
	"github.com/jask/carton/internal/provider"
	"github.com/jask/carton/internal/tasks"
	"github.com/jask/carton/internal/tui/widget"
)

type fakeQueue struct {
	submitted []tasks.Request
	pending   []events.UserEvent
}

func (q *fakeQueue) Submit(r tasks.Request) { q.submitted = append(q.submitted, r) }

func (q *fakeQueue) Poll() []events.UserEvent {
	b := q.pending
	q.pending = nil
	return b
}

func (q *fakeQueue) push(evs ...events.UserEvent) { q.pending = append(q.pending, evs...) }

func (q *fakeQueue) kinds() []tasks.Kind {
	out := make([]tasks.Kind, 0, len(q.submitted))
	for _, r := range q.submitted {
		out = append(out, r.Kind())
	}
	return out
}

type harness struct {
	reg   *widget.Registry
	ctl   *Controller
	red   *Reducer
	queue *fakeQueue
}

func newHarness(t *testing.T, opts ReducerOptions) *harness {
	t.Helper()
	logger := slog.New(slog.DiscardHandler)
	opts.Logger = logger
	reg := widget.NewRegistry()
	ctl := NewController(reg, "hetzner", logger)
	q := &fakeQueue{}
	red := NewReducer(ctl, q, opts)
	require.True(t, ctl.Enter(StatusScreen))
	return &harness{reg: reg, ctl: ctl, red: red, queue: q}
}

func (h *harness) focused(t *testing.T) widget.ID {
	t.Helper()
	id, ok := h.reg.Focus()
	require.True(t, ok, "nothing focused")
	return id
}

func (h *harness) label() string {
	v, _ := h.reg.Query(IDLabel, widget.Text)
	s, _ := v.(string)
	return s
}

// route sends ev through the registry and the reducer like App does.
func (h *harness) route(ev widget.Event) {
	for _, msg := range h.reg.Dispatch(ev) {
		h.red.Dispatch(msg)
	}
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func testServer(id int64, name string) provider.Server {
	return provider.Server{
		ID:         id,
		Name:       name,
		Status:     "running",
		Created:    time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		PublicIPv4: "10.0.0." + name[len(name)-1:],
		Datacenter: "fsn1-dc14",
		Image:      "fedora-41",
		ServerType: "cx22",
		DiskSize:   40,
		Provider:   "hetzner",
	}
}

func handles(servers ...provider.Server) []events.ServerHandle {
	out := make([]events.ServerHandle, 0, len(servers))
	for _, s := range servers {
		out = append(out, events.NewServerHandle(s))
	}
	return out
}
