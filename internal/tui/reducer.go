package tui

import (
	"fmt"
	"log/slog"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jask/carton/internal/tasks"
	"github.com/jask/carton/internal/tui/widget"
)

// maxChain bounds follow-up messages handled for one external event.
const maxChain = 64

const idleHint = "Ready"

// Submitter accepts provider work without blocking.
type Submitter interface {
	Submit(req tasks.Request)
}

// restoreLabelMsg puts the idle hint back unless a newer notice replaced the
// one that scheduled it.
type restoreLabelMsg struct{ gen uint64 }

// ReducerOptions configures a Reducer.
type ReducerOptions struct {
	// NoticeTicks is how long a notice stays before the idle hint returns;
	// zero keeps notices until replaced.
	NoticeTicks int
	ServerTypes []string
	Draft       Draft
	Logger      *slog.Logger
}

// Reducer is the central dispatcher. It owns the create draft and the label
// text and pushes both into widgets.
type Reducer struct {
	ctl         *Controller
	queue       Submitter
	sched       Scheduler
	draft       Draft
	quit        bool
	labelGen    uint64
	noticeTicks int
	serverTypes []string
	logger      *slog.Logger
}

func NewReducer(ctl *Controller, queue Submitter, opts ReducerOptions) *Reducer {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Reducer{
		ctl:         ctl,
		queue:       queue,
		draft:       opts.Draft,
		noticeTicks: opts.NoticeTicks,
		serverTypes: opts.ServerTypes,
		logger:      logger,
	}
}

func (r *Reducer) Quitting() bool { return r.quit }
func (r *Reducer) Draft() Draft { return r.draft }
func (r *Reducer) Turn() uint64 { return r.sched.Now() }

// Dispatch handles msg and every follow-up it produces.
func (r *Reducer) Dispatch(msg tea.Msg) {
	r.chain(msg, r.Update)
}

func (r *Reducer) chain(msg tea.Msg, step func(tea.Msg) tea.Msg) {
	for hops := 0; msg != nil; hops++ {
		if hops == maxChain {
			r.logger.Error("message chain cut", "hops", hops, "last", fmt.Sprintf("%T", msg))
			return
		}
		msg = step(msg)
	}
}

// Advance moves the scheduler one tick and dispatches what is due.
func (r *Reducer) Advance() {
	for _, msg := range r.sched.Advance() {
		r.Dispatch(msg)
	}
}

// Update applies one message and returns the follow-up, if any.
func (r *Reducer) Update(msg tea.Msg) tea.Msg {
	switch msg := msg.(type) {
	case AppCloseMsg:
		r.quit = true
		return nil
	case LaunchMsg:
		return UpdateProviderStatusMsg{}
	case FocusMsg:
		if err := r.ctl.Focus(msg.ID); err != nil {
			r.logger.Warn("focus", "id", msg.ID, "err", err)
			return nil
		}
		return r.notice(fmt.Sprintf("Focus changed to: %s", msg.ID), false)
	case ChangeFocusMsg:
		r.ctl.ChangeFocus(msg.Backward)
		return nil
	case InputMsg:
		r.setDraft(msg.ID, msg.Value)
		return r.notice(fmt.Sprintf("Input from %s: %q", msg.ID, msg.Value), false)
	case UpdateStateMsg:
		if r.ctl.Select(msg.State.Server) && r.ctl.Screen() == CreateScreen {
			r.pushDraft()
		}
		return nil
	case UpdateProviderStatusMsg:
		r.queue.Submit(tasks.ProviderStatus{})
		return r.notice("Provider status update issued", false)
	case FetchServersMsg:
		r.queue.Submit(tasks.FetchServers{})
		return nil
	case ConnectedMsg:
		return r.ctl.Connected()
	case DisconnectedMsg:
		r.ctl.Disconnected()
		return nil
	case CreateServerMsg:
		return r.createServer()
	case DeferMsg:
		r.sched.Schedule(msg.Ticks, msg.Then)
		return nil
	case SetLabelMsg:
		return r.notice(msg.Text, msg.Err)
	case restoreLabelMsg:
		if msg.gen == r.labelGen {
			r.setLabel(idleHint, false)
		}
		return nil
	default:
		r.logger.Debug("unhandled message", "type", fmt.Sprintf("%T", msg))
		return nil
	}
}

// createServer reports validation problems but submits the draft regardless.
func (r *Reducer) createServer() tea.Msg {
	d := r.draft
	req := tasks.CreateServer{Name: d.Name, Type: d.Type, Image: d.Image}
	problems := validateDraft(d, r.serverTypes)
	r.queue.Submit(req)
	if len(problems) > 0 {
		r.logger.Warn("create submitted with invalid fields", "problems", problems)
		return r.notice(strings.Join(problems, "; "), true)
	}
	return r.notice(fmt.Sprintf("Creating server %q (%s, %s)", d.Name, d.Type, d.Image), false)
}

func (r *Reducer) setDraft(id widget.ID, v string) {
	switch id {
	case IDNameInput:
		r.draft.Name = v
	case IDTypeInput:
		r.draft.Type = v
	case IDImageInput:
		r.draft.Image = v
	}
}

func (r *Reducer) pushDraft() {
	for id, v := range map[widget.ID]string{
		IDNameInput:  r.draft.Name,
		IDTypeInput:  r.draft.Type,
		IDImageInput: r.draft.Image,
	} {
		if err := r.ctl.reg.Attr(id, widget.Text, v); err != nil {
			r.logger.Warn("push draft", "id", id, "err", err)
		}
	}
}

// notice shows text and returns the deferred restore of the idle hint.
func (r *Reducer) notice(text string, isErr bool) tea.Msg {
	r.labelGen++
	r.setLabel(text, isErr)
	if r.noticeTicks <= 0 {
		return nil
	}
	return DeferMsg{Ticks: r.noticeTicks, Then: restoreLabelMsg{gen: r.labelGen}}
}

func (r *Reducer) setLabel(text string, isErr bool) {
	if err := r.ctl.reg.Attr(IDLabel, widget.Text, labelText{Text: text, Err: isErr}); err != nil {
		r.logger.Debug("label", "err", err)
	}
}
