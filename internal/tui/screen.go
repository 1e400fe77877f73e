package tui

import (
	"log/slog"
	"slices"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jask/carton/internal/events"
	"github.com/jask/carton/internal/tui/widget"
)

// Screen is a mutually exclusive set of mounted widgets.
type Screen int

const (
	StatusScreen Screen = iota
	CreateScreen
)

func (s Screen) String() string {
	switch s {
	case StatusScreen:
		return "status"
	case CreateScreen:
		return "create"
	default:
		return "unknown"
	}
}

// Widgets lists every id mounted on s, in mount order.
func (s Screen) Widgets() []widget.ID {
	if s == CreateScreen {
		return []widget.ID{IDHeader, IDServerList, IDNameInput, IDTypeInput, IDImageInput, IDLabel, IDGlobal}
	}
	return []widget.ID{IDHeader, IDServerList, IDPreview, IDLabel, IDGlobal}
}

// Ring is the Tab order of s. The label and the global key handler are
// mounted but never focused.
func (s Screen) Ring() []widget.ID {
	if s == CreateScreen {
		return []widget.ID{IDHeader, IDServerList, IDNameInput, IDTypeInput, IDImageInput}
	}
	return []widget.ID{IDHeader, IDServerList, IDPreview}
}

func (s Screen) initialFocus() widget.ID {
	if s == CreateScreen {
		return IDNameInput
	}
	return IDHeader
}

// Controller mounts screens into a registry and moves focus. It holds no
// widget state of its own.
type Controller struct {
	reg      *widget.Registry
	provider string
	screen   Screen
	entered  bool
	logger   *slog.Logger
}

func NewController(reg *widget.Registry, provider string, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{reg: reg, provider: provider, logger: logger}
}

func (c *Controller) Screen() Screen { return c.screen }

// Enter switches to s: everything is unmounted, the screen's set is mounted,
// the initial widget is focused and the header is armed to launch. Entering
// the current screen is a no-op and returns false.
func (c *Controller) Enter(s Screen) bool {
	if c.entered && c.screen == s {
		return false
	}
	from := c.screen
	c.reg.UmountAll()
	for _, id := range s.Widgets() {
		w, subs := c.build(id)
		if err := c.reg.Mount(id, w, subs...); err != nil {
			c.logger.Error("mount widget", "id", id, "err", err)
		}
	}
	c.screen, c.entered = s, true
	if err := c.reg.Active(s.initialFocus()); err != nil {
		c.logger.Error("initial focus", "screen", s, "err", err)
	}
	if err := c.reg.Attr(IDHeader, widget.Launch, true); err != nil {
		c.logger.Error("arm header", "err", err)
	}
	c.logger.Debug("screen entered", "from", from, "to", s)
	return true
}

// Select applies a server selection: the create row opens the create
// screen, any other row opens (or stays on) the status screen and previews
// it. It reports whether the screen changed.
func (c *Controller) Select(h events.ServerHandle) bool {
	if h.IsCreate() {
		return c.Enter(CreateScreen)
	}
	changed := c.Enter(StatusScreen)
	c.Preview(h)
	return changed
}

// Preview replaces the preview pane. It does nothing off the status screen.
func (c *Controller) Preview(h events.ServerHandle) {
	if c.screen != StatusScreen || !c.reg.Mounted(IDPreview) {
		return
	}
	if err := c.reg.Remount(IDPreview, newPreview(h)); err != nil {
		c.logger.Error("remount preview", "err", err)
	}
}

// Connected swaps in the live server table and asks for the server list.
// An already connected table is kept so its cursor survives refreshes.
func (c *Controller) Connected() tea.Msg {
	if !c.listConnected() {
		if err := c.reg.Remount(IDServerList, newServerTable(), widget.OnUser(events.KindServerList)); err != nil {
			c.logger.Error("remount server list", "err", err)
		}
	}
	return FetchServersMsg{}
}

// Disconnected swaps in the placeholder list.
func (c *Controller) Disconnected() {
	if c.reg.Mounted(IDServerList) && !c.listConnected() {
		return
	}
	if err := c.reg.Remount(IDServerList, &serverPlaceholder{}); err != nil {
		c.logger.Error("remount server list", "err", err)
	}
}

func (c *Controller) listConnected() bool {
	v, _ := c.reg.Query(IDServerList, widget.Connected)
	ok, _ := v.(bool)
	return ok
}

// Focus gives focus to id.
func (c *Controller) Focus(id widget.ID) error {
	return c.reg.Active(id)
}

// ChangeFocus moves to the next (or previous) id in the ring. A focused id
// outside the ring, or no focus at all, lands on the ring's first entry.
func (c *Controller) ChangeFocus(backward bool) widget.ID {
	ring := c.screen.Ring()
	next := ring[0]
	if cur, ok := c.reg.Focus(); ok {
		if idx := slices.Index(ring, cur); idx >= 0 {
			if backward {
				next = ring[(idx-1+len(ring))%len(ring)]
			} else {
				next = ring[(idx+1)%len(ring)]
			}
		}
	}
	if err := c.reg.Active(next); err != nil {
		c.logger.Error("change focus", "to", next, "err", err)
	}
	return next
}

func (c *Controller) build(id widget.ID) (widget.Widget, []widget.Sub) {
	switch id {
	case IDHeader:
		return newHeader(c.provider), []widget.Sub{
			widget.OnTick(),
			widget.OnUser(events.KindProviderStatus),
			widget.OnUser(events.KindRefresh),
		}
	case IDServerList:
		return &serverPlaceholder{}, nil
	case IDPreview:
		return newPreview(events.CreateHandle()), nil
	case IDNameInput:
		return newTextInput(id, "Name", "my-server"), nil
	case IDTypeInput:
		return newTextInput(id, "Type", "cx22"), nil
	case IDImageInput:
		return newTextInput(id, "Image", "fedora-41"), nil
	case IDLabel:
		return &label{text: idleHint}, []widget.Sub{widget.OnUser(events.KindError)}
	case IDGlobal:
		return globalHandler{}, []widget.Sub{widget.OnKeys(globalKeys.Quit, globalKeys.Next, globalKeys.Prev)}
	default:
		return nil, nil
	}
}
