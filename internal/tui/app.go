package tui

import (
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	zone "github.com/lrstanley/bubblezone"

	"github.com/jask/carton/internal/events"
	"github.com/jask/carton/internal/tasks"
	"github.com/jask/carton/internal/tui/widget"
)

// Queue is the task queue as seen by the UI loop.
type Queue interface {
	Submit(req tasks.Request)
	Poll() []events.UserEvent
}

// Options configures App.
type Options struct {
	Provider     string
	TickInterval time.Duration
	NoticeTicks  int
	ServerTypes  []string
	Draft        Draft
	Logger       *slog.Logger
}

// App is the bubbletea model. Every tick it drains the task queue, ticks the
// widgets and advances deferred messages.
type App struct {
	reg    *widget.Registry
	ctl    *Controller
	red    *Reducer
	queue  Queue
	zones  *zone.Manager
	tick   time.Duration
	width  int
	height int
	logger *slog.Logger
}

type tickMsg time.Time

func New(queue Queue, opts Options) *App {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if opts.TickInterval <= 0 {
		opts.TickInterval = 100 * time.Millisecond
	}
	reg := widget.NewRegistry()
	ctl := NewController(reg, opts.Provider, logger)
	red := NewReducer(ctl, queue, ReducerOptions{
		NoticeTicks: opts.NoticeTicks,
		ServerTypes: opts.ServerTypes,
		Draft:       opts.Draft,
		Logger:      logger,
	})
	ctl.Enter(StatusScreen)
	return &App{
		reg:    reg,
		ctl:    ctl,
		red:    red,
		queue:  queue,
		zones:  zone.New(),
		tick:   opts.TickInterval,
		width:  100,
		height: 30,
		logger: logger,
	}
}

// Close releases the mouse zone manager.
func (a *App) Close() {
	a.zones.Close()
}

func (a *App) Init() tea.Cmd {
	return a.tickCmd()
}

func (a *App) tickCmd() tea.Cmd {
	return tea.Tick(a.tick, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width, a.height = msg.Width, msg.Height
	case tea.KeyMsg:
		a.route(widget.KeyEvent{KeyMsg: msg})
	case tea.MouseMsg:
		a.handleMouse(msg)
	case tickMsg:
		a.step()
		cmd = a.tickCmd()
	default:
		// reducer messages sent from outside (tests, tea.Program.Send)
		a.red.Dispatch(msg)
	}
	if a.red.Quitting() {
		return a, tea.Quit
	}
	return a, cmd
}

// step is one UI tick.
func (a *App) step() {
	if batch := a.queue.Poll(); len(batch) > 0 {
		a.logger.Debug("events drained", "count", len(batch), "turn", a.red.Turn())
		a.route(widget.UserEvent{Batch: batch})
	}
	a.route(widget.TickEvent{Turn: a.red.Turn()})
	a.red.Advance()
}

func (a *App) route(ev widget.Event) {
	for _, msg := range a.reg.Dispatch(ev) {
		a.red.Dispatch(msg)
		if a.red.Quitting() {
			return
		}
	}
}

func (a *App) handleMouse(msg tea.MouseMsg) {
	if msg.Action != tea.MouseActionPress || msg.Button != tea.MouseButtonLeft {
		return
	}
	for _, id := range a.ctl.Screen().Ring() {
		if z := a.zones.Get(string(id)); z != nil && z.InBounds(msg) {
			a.red.Dispatch(FocusMsg{ID: id})
			return
		}
	}
}

func (a *App) View() string {
	if a.red.Quitting() {
		return ""
	}
	w, h := max(40, a.width), max(16, a.height)
	headerH := 5
	bodyH := max(6, h-headerH-2)

	top := a.pane(IDHeader, w, headerH)
	leftW := w * 3 / 5
	rightW := w - leftW
	list := a.pane(IDServerList, leftW, bodyH)

	var right string
	if a.ctl.Screen() == CreateScreen {
		fieldH := 3
		right = lipgloss.JoinVertical(lipgloss.Left,
			a.pane(IDNameInput, rightW, fieldH),
			a.pane(IDTypeInput, rightW, fieldH),
			a.pane(IDImageInput, rightW, fieldH),
		)
	} else {
		right = a.pane(IDPreview, rightW, bodyH)
	}
	body := lipgloss.JoinHorizontal(lipgloss.Top, list, right)

	view := lipgloss.JoinVertical(lipgloss.Left,
		top,
		body,
		a.reg.View(IDLabel, w, 1),
		a.footer(w),
	)
	return a.zones.Scan(view)
}

func (a *App) pane(id widget.ID, width, height int) string {
	return a.zones.Mark(string(id), a.reg.View(id, width, height))
}

func (a *App) footer(width int) string {
	bindings := []key.Binding{globalKeys.Next, globalKeys.Prev, globalKeys.Quit}
	if a.ctl.Screen() == CreateScreen {
		bindings = append([]key.Binding{submitKey}, bindings...)
	} else {
		bindings = append([]key.Binding{refreshKey}, bindings...)
	}
	parts := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		parts = append(parts, keyStyle.Render(h.Key)+" "+mutedStyle.Render(h.Desc))
	}
	line := strings.Join(parts, "  ")
	return footerStyle.Width(width).MaxWidth(width).Render(line)
}
