package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"

	"github.com/jask/carton/internal/events"
	"github.com/jask/carton/internal/tui/widget"
)

// preview shows one server's details.
type preview struct {
	data    events.ServerPreview
	ok      bool
	focused bool
}

func newPreview(h events.ServerHandle) *preview {
	p, ok := h.ToPreview()
	return &preview{data: p, ok: ok}
}

func (p *preview) Update(widget.Event) tea.Msg { return nil }

func (p *preview) View(width, height int) string {
	if !p.ok {
		return box("Preview", p.focused, width, height, mutedStyle.Render("Select a server to see its details."))
	}
	d := p.data
	rows := [][2]string{
		{"Name", d.Name},
		{"Status", d.Status},
		{"Provider", d.Provider},
		{"Created on", d.CreatedOn},
		{"Datacenter", d.Datacenter},
		{"Image", d.Image},
		{"Tags", d.Tags},
		{"Traffic", d.Traffic},
		{"Disk size", d.DiskSize},
		{"Server type", d.ServerType},
	}
	inner := max(1, width-4)
	lines := make([]string, 0, len(rows))
	for _, r := range rows {
		lines = append(lines, ansi.Truncate(fieldStyle.Render(r[0])+textStyle.Render(r[1]), inner, "…"))
	}
	return box("Preview", p.focused, width, height, strings.Join(lines, "\n"))
}

func (p *preview) Attr(a widget.Attribute, v any) {
	if a == widget.Focus {
		p.focused, _ = v.(bool)
	}
}

func (p *preview) Query(a widget.Attribute) (any, bool) {
	switch a {
	case widget.Focus:
		return p.focused, true
	case widget.Text:
		return p.data.Name, p.ok
	}
	return nil, false
}

// textInput is one field of the create form.
type textInput struct {
	id      widget.ID
	title   string
	input   textinput.Model
	focused bool
}

func newTextInput(id widget.ID, title, placeholder string) *textInput {
	in := textinput.New()
	in.Prompt = "> "
	in.Placeholder = placeholder
	in.CharLimit = 63
	in.Cursor.SetMode(cursor.CursorStatic)
	return &textInput{id: id, title: title, input: in}
}

var submitKey = key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "create"))

func (t *textInput) Update(ev widget.Event) tea.Msg {
	ke, ok := ev.(widget.KeyEvent)
	if !ok {
		return nil
	}
	if key.Matches(ke.KeyMsg, submitKey) {
		return CreateServerMsg{}
	}
	if key.Matches(ke.KeyMsg, globalKeys.Quit, globalKeys.Next, globalKeys.Prev) {
		return nil
	}
	before := t.input.Value()
	t.input, _ = t.input.Update(ke.KeyMsg)
	if v := t.input.Value(); v != before {
		return InputMsg{ID: t.id, Value: v}
	}
	return nil
}

func (t *textInput) View(width, height int) string {
	t.input.Width = max(1, width-8)
	return box(t.title, t.focused, width, height, t.input.View())
}

func (t *textInput) Attr(a widget.Attribute, v any) {
	switch a {
	case widget.Focus:
		t.focused, _ = v.(bool)
		if t.focused {
			t.input.Focus()
		} else {
			t.input.Blur()
		}
	case widget.Text:
		s, _ := v.(string)
		t.input.SetValue(s)
		t.input.CursorEnd()
	}
}

func (t *textInput) Query(a widget.Attribute) (any, bool) {
	switch a {
	case widget.Focus:
		return t.focused, true
	case widget.Text:
		return t.input.Value(), true
	}
	return nil, false
}

// label is the one-line status bar. Its text is pushed by the reducer; on
// error events it asks the reducer to show them.
type label struct {
	text string
	err  bool
}

// labelText is the Text attribute value for label.
type labelText struct {
	Text string
	Err  bool
}

func (l *label) Update(ev widget.Event) tea.Msg {
	ue, ok := ev.(widget.UserEvent)
	if !ok {
		return nil
	}
	var msgs []string
	for _, e := range ue.Batch {
		if e, ok := e.(events.Error); ok {
			msgs = append(msgs, e.Message)
		}
	}
	if len(msgs) == 0 {
		return nil
	}
	return SetLabelMsg{Text: strings.Join(msgs, "; "), Err: true}
}

func (l *label) View(width, _ int) string {
	width = max(1, width)
	line := ansi.Truncate(strings.ReplaceAll(l.text, "\n", " "), width, "…")
	if w := ansi.StringWidth(line); w < width {
		line += strings.Repeat(" ", width-w)
	}
	style := labelOkStyle
	if l.err {
		style = labelErrStyle
	}
	return style.Background(labelBarBg).Width(width).MaxWidth(width).Render(line)
}

func (l *label) Attr(a widget.Attribute, v any) {
	if a != widget.Text {
		return
	}
	switch v := v.(type) {
	case labelText:
		l.text, l.err = v.Text, v.Err
	case string:
		l.text, l.err = v, false
	}
}

func (l *label) Query(a widget.Attribute) (any, bool) {
	if a == widget.Text {
		return l.text, true
	}
	return nil, false
}

type keyMap struct {
	Quit key.Binding
	Next key.Binding
	Prev key.Binding
}

var globalKeys = keyMap{
	Quit: key.NewBinding(key.WithKeys("esc", "ctrl+c"), key.WithHelp("esc", "quit")),
	Next: key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next")),
	Prev: key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "prev")),
}

// globalHandler is an invisible widget that maps app-wide keys.
type globalHandler struct{}

func (globalHandler) Update(ev widget.Event) tea.Msg {
	ke, ok := ev.(widget.KeyEvent)
	if !ok {
		return nil
	}
	switch {
	case key.Matches(ke.KeyMsg, globalKeys.Quit):
		return AppCloseMsg{}
	case key.Matches(ke.KeyMsg, globalKeys.Next):
		return ChangeFocusMsg{}
	case key.Matches(ke.KeyMsg, globalKeys.Prev):
		return ChangeFocusMsg{Backward: true}
	}
	return nil
}

func (globalHandler) View(int, int) string { return "" }
func (globalHandler) Attr(widget.Attribute, any) {}
func (globalHandler) Query(widget.Attribute) (any, bool) { return nil, false }
