package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"

	"github.com/jask/carton/internal/events"
	"github.com/jask/carton/internal/tui/widget"
)

var refreshKey = key.NewBinding(key.WithKeys("r", "enter"), key.WithHelp("r", "refresh"))

// header shows the provider status. It owns the launch flag and turns status
// events into Connected/Disconnected.
type header struct {
	provider string
	status   events.ProviderStatus
	known    bool
	launch   bool
	focused  bool
}

func newHeader(provider string) *header {
	return &header{provider: provider}
}

func (h *header) Update(ev widget.Event) tea.Msg {
	switch ev := ev.(type) {
	case widget.TickEvent:
		if h.launch {
			h.launch = false
			return LaunchMsg{}
		}
	case widget.UserEvent:
		var (
			refresh bool
			status  *events.ProviderStatus
		)
		for _, e := range ev.Batch {
			switch e := e.(type) {
			case events.ProviderStatus:
				status = &e
			case events.Refresh:
				refresh = true
			}
		}
		if status != nil {
			h.status, h.known = *status, true
		}
		switch {
		case refresh:
			return UpdateProviderStatusMsg{}
		case status != nil && status.Connected():
			return ConnectedMsg{}
		case status != nil:
			return DisconnectedMsg{}
		}
	case widget.KeyEvent:
		if key.Matches(ev.KeyMsg, refreshKey) {
			return UpdateProviderStatusMsg{}
		}
	}
	return nil
}

func (h *header) View(width, height int) string {
	name := h.provider
	if h.known && h.status.Name != "" {
		name = h.status.Name
	}
	status := warnStyle.Render("Pending")
	counts := mutedStyle.Render("waiting for first status")
	if h.known {
		if h.status.Connected() {
			status = okStyle.Render(h.status.Status)
		} else {
			status = errStyle.Render(h.status.Status)
		}
		counts = textStyle.Render(fmt.Sprintf("Servers: %d  Primary IPs: %d  Firewalls: %d  Load balancers: %d",
			h.status.Servers, h.status.PrimaryIPs, h.status.Firewalls, h.status.LoadBalancers))
	}
	inner := max(1, width-4)
	lines := []string{
		fieldStyle.Render("Provider") + textStyle.Render(name),
		fieldStyle.Render("Status") + status,
		counts,
	}
	for i, l := range lines {
		lines[i] = ansi.Truncate(l, inner, "…")
	}
	return box("Carton", h.focused, width, height, strings.Join(lines, "\n"))
}

func (h *header) Attr(a widget.Attribute, v any) {
	switch a {
	case widget.Focus:
		h.focused, _ = v.(bool)
	case widget.Launch:
		h.launch, _ = v.(bool)
	}
}

func (h *header) Query(a widget.Attribute) (any, bool) {
	switch a {
	case widget.Focus:
		return h.focused, true
	case widget.Launch:
		return h.launch, true
	case widget.Text:
		return h.status.Status, h.known
	}
	return nil, false
}
