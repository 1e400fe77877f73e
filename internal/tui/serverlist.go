package tui

import (
	"slices"
	"strconv"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jask/carton/internal/events"
	"github.com/jask/carton/internal/tui/widget"
)

const createRowLabel = "+ Create a new server"

var tableNav = key.NewBinding(key.WithKeys("up", "down", "k", "j", "pgup", "pgdown", "home", "end", "g", "G"))

// serverTable is the connected server list. Its last row is the create
// affordance.
type serverTable struct {
	table   table.Model
	rows    []events.ServerHandle
	focused bool
	loaded  bool
}

func newServerTable() *serverTable {
	st := table.DefaultStyles()
	st.Header = st.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(colorBorder).
		BorderBottom(true).
		Foreground(colorAccent).
		Bold(true)
	st.Selected = st.Selected.Foreground(colorMantle).Background(colorAccent).Bold(false)

	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "No", Width: 4},
			{Title: "Name", Width: 20},
			{Title: "Status", Width: 12},
			{Title: "IP", Width: 24},
		}),
		table.WithStyles(st),
		table.WithHeight(8),
	)
	w := &serverTable{table: t}
	w.setServers(nil)
	return w
}

// setServers replaces the rows. Once the list has been shown, or while the
// operator is on it, the cursor follows the previously selected row.
func (w *serverTable) setServers(servers []events.ServerHandle) {
	prev := w.selected()
	follow := w.loaded || w.focused
	w.rows = append(append([]events.ServerHandle(nil), servers...), events.CreateHandle())
	rows := make([]table.Row, 0, len(w.rows))
	for i, h := range w.rows {
		st, ok := h.ToStatus()
		if !ok {
			rows = append(rows, table.Row{"", createRowLabel, "", ""})
			continue
		}
		rows = append(rows, table.Row{strconv.Itoa(i + 1), st.Name, st.Status, st.IP})
	}
	cursor := w.table.Cursor()
	w.table.SetRows(rows)
	if cursor >= len(rows) {
		cursor = len(rows) - 1
	}
	if follow {
		if i := slices.IndexFunc(w.rows, prev.SameRow); i >= 0 {
			cursor = i
		}
	}
	w.table.SetCursor(max(0, cursor))
	if len(servers) > 0 {
		w.loaded = true
	}
}

func (w *serverTable) selected() events.ServerHandle {
	c := w.table.Cursor()
	if c < 0 || c >= len(w.rows) {
		return events.CreateHandle()
	}
	return w.rows[c]
}

func (w *serverTable) Update(ev widget.Event) tea.Msg {
	switch ev := ev.(type) {
	case widget.UserEvent:
		prev := w.selected()
		for _, e := range ev.Batch {
			if list, ok := e.(events.ServerListStatus); ok {
				w.setServers(list.Servers)
			}
		}
		if w.focused && !prev.SameRow(w.selected()) {
			return UpdateStateMsg{State: SelectedServer(w.selected())}
		}
	case widget.KeyEvent:
		switch {
		case key.Matches(ev.KeyMsg, tableNav):
			w.table, _ = w.table.Update(ev.KeyMsg)
			return UpdateStateMsg{State: SelectedServer(w.selected())}
		case ev.String() == "enter":
			return UpdateStateMsg{State: SelectedServer(w.selected())}
		}
	}
	return nil
}

func (w *serverTable) View(width, height int) string {
	w.table.SetWidth(max(10, width-4))
	w.table.SetHeight(max(3, height-3))
	return box("Servers", w.focused, width, height, w.table.View())
}

func (w *serverTable) Attr(a widget.Attribute, v any) {
	if a == widget.Focus {
		w.focused, _ = v.(bool)
		if w.focused {
			w.table.Focus()
		} else {
			w.table.Blur()
		}
	}
}

func (w *serverTable) Query(a widget.Attribute) (any, bool) {
	switch a {
	case widget.Connected:
		return true, true
	case widget.Focus:
		return w.focused, true
	case widget.Text:
		if s, ok := w.selected().Server(); ok {
			return s.Name, true
		}
		return createRowLabel, true
	}
	return nil, false
}

// serverPlaceholder stands in for the list until the provider answers.
type serverPlaceholder struct {
	focused bool
}

func (w *serverPlaceholder) Update(widget.Event) tea.Msg { return nil }

func (w *serverPlaceholder) View(width, height int) string {
	body := mutedStyle.Render("No servers detected\n\nNot connected to the provider.\nPress r on the header to retry.")
	return box("Servers", w.focused, width, height, body)
}

func (w *serverPlaceholder) Attr(a widget.Attribute, v any) {
	if a == widget.Focus {
		w.focused, _ = v.(bool)
	}
}

func (w *serverPlaceholder) Query(a widget.Attribute) (any, bool) {
	switch a {
	case widget.Connected:
		return false, true
	case widget.Focus:
		return w.focused, true
	}
	return nil, false
}
