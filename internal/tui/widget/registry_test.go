package widget

import (
	"testing"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	"github.com/jask/carton/internal/events"
)

type probe struct {
	name    string
	focused bool
	text    string
	seen    []Event
}

func (p *probe) Update(ev Event) tea.Msg {
	p.seen = append(p.seen, ev)
	return p.name
}

func (p *probe) View(int, int) string { return p.name }

func (p *probe) Attr(a Attribute, v any) {
	switch a {
	case Focus:
		p.focused, _ = v.(bool)
	case Text:
		p.text, _ = v.(string)
	}
}

func (p *probe) Query(a Attribute) (any, bool) {
	if a == Text {
		return p.text, true
	}
	return nil, false
}

func TestMountAndUmount(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Mount("a", &probe{name: "a"}))
	require.ErrorIs(t, r.Mount("a", &probe{}), ErrMounted)
	require.NoError(t, r.Mount("b", &probe{name: "b"}))
	require.Equal(t, []ID{"a", "b"}, r.Mounts())

	require.NoError(t, r.Active("a"))
	require.NoError(t, r.Umount("a"))
	_, ok := r.Focus()
	require.False(t, ok)
	require.ErrorIs(t, r.Umount("a"), ErrNotMounted)

	r.UmountAll()
	require.Empty(t, r.Mounts())
	require.Empty(t, r.View("b", 10, 1))
}

func TestActiveMovesFocusAttr(t *testing.T) {
	r := NewRegistry()
	a, b := &probe{name: "a"}, &probe{name: "b"}
	require.NoError(t, r.Mount("a", a))
	require.NoError(t, r.Mount("b", b))

	require.NoError(t, r.Active("a"))
	require.True(t, a.focused)
	require.NoError(t, r.Active("b"))
	require.False(t, a.focused)
	require.True(t, b.focused)
	require.ErrorIs(t, r.Active("zzz"), ErrNotMounted)

	id, ok := r.Focus()
	require.True(t, ok)
	require.Equal(t, ID("b"), id)
}

func TestRemountKeepsFocus(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Mount("list", &probe{name: "old"}))
	require.NoError(t, r.Active("list"))

	fresh := &probe{name: "new"}
	require.NoError(t, r.Remount("list", fresh))
	require.True(t, fresh.focused)
	require.Equal(t, "new", r.View("list", 1, 1))
	id, _ := r.Focus()
	require.Equal(t, ID("list"), id)
}

func TestAttrAndQuery(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Mount("label", &probe{}))
	require.NoError(t, r.Attr("label", Text, "hello"))
	v, ok := r.Query("label", Text)
	require.True(t, ok)
	require.Equal(t, "hello", v)
	require.Error(t, r.Attr("missing", Text, "x"))
	_, ok = r.Query("missing", Text)
	require.False(t, ok)
}

func TestDispatchRouting(t *testing.T) {
	esc := key.NewBinding(key.WithKeys("esc"))
	r := NewRegistry()
	focused := &probe{name: "focused"}
	global := &probe{name: "global"}
	ticker := &probe{name: "ticker"}
	errs := &probe{name: "errs"}
	require.NoError(t, r.Mount("focused", focused, OnKeys()))
	require.NoError(t, r.Mount("global", global, OnKeys(esc)))
	require.NoError(t, r.Mount("ticker", ticker, OnTick()))
	require.NoError(t, r.Mount("errs", errs, OnUser(events.KindError)))
	require.NoError(t, r.Active("focused"))

	// focused widget is served once even though it also subscribes to keys
	msgs := r.Dispatch(KeyEvent{tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("x")}})
	require.Equal(t, []tea.Msg{"focused"}, msgs)

	msgs = r.Dispatch(KeyEvent{tea.KeyMsg{Type: tea.KeyEsc}})
	require.Equal(t, []tea.Msg{"focused", "global"}, msgs)

	msgs = r.Dispatch(TickEvent{Turn: 1})
	require.Equal(t, []tea.Msg{"ticker"}, msgs)

	msgs = r.Dispatch(UserEvent{Batch: []events.UserEvent{events.Empty{}}})
	require.Empty(t, msgs)
	msgs = r.Dispatch(UserEvent{Batch: []events.UserEvent{events.Empty{}, events.Error{Message: "x"}}})
	require.Equal(t, []tea.Msg{"errs"}, msgs)

	require.Len(t, focused.seen, 2)
	require.Len(t, global.seen, 1)
}
