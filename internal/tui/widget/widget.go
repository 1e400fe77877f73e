// Package widget is a small retained-mode registry on top of bubbletea: named
// widgets are mounted with event subscriptions, one of them holds focus, and
// events are routed to the focused widget and to subscribers.
package widget

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jask/carton/internal/events"
)

// ID names a mounted widget.
type ID string

// Attribute is a display property pushed into (or read from) a widget.
type Attribute int

const (
	// Focus is set to true/false by the registry.
	Focus Attribute = iota
	// Text is the widget's primary string (label text, input value).
	Text
	// Launch is a one-shot flag: the widget emits its launch message on the
	// next tick and clears it.
	Launch
	// Connected reports which server list variant is mounted.
	Connected
)

// Event is delivered by the registry to widgets.
type Event interface {
	isEvent()
}

// KeyEvent wraps a key press.
type KeyEvent struct {
	tea.KeyMsg
}

// TickEvent is sent once per UI tick; Turn is the monotonic tick counter.
type TickEvent struct {
	Turn uint64
}

// UserEvent carries one batch drained from the task queue.
type UserEvent struct {
	Batch []events.UserEvent
}

func (KeyEvent) isEvent()  {}
func (TickEvent) isEvent() {}
func (UserEvent) isEvent() {}

// Widget is the single capability every mountable component implements.
// Update returns a reducer message or nil.
type Widget interface {
	Update(ev Event) tea.Msg
	View(width, height int) string
	Attr(a Attribute, v any)
	Query(a Attribute) (any, bool)
}

type subKind int

const (
	subKey subKind = iota
	subTick
	subUser
)

// Sub subscribes a widget to events it should see even when not focused.
type Sub struct {
	kind     subKind
	bindings []key.Binding
	user     events.Kind
}

// OnKeys delivers matching key presses. With no bindings every key matches.
func OnKeys(bindings ...key.Binding) Sub {
	return Sub{kind: subKey, bindings: bindings}
}

// OnTick delivers every tick.
func OnTick() Sub { return Sub{kind: subTick} }

// OnUser delivers batches that contain an event of kind k.
func OnUser(k events.Kind) Sub { return Sub{kind: subUser, user: k} }

func (s Sub) matches(ev Event) bool {
	switch ev := ev.(type) {
	case KeyEvent:
		if s.kind != subKey {
			return false
		}
		if len(s.bindings) == 0 {
			return true
		}
		return key.Matches(ev.KeyMsg, s.bindings...)
	case TickEvent:
		return s.kind == subTick
	case UserEvent:
		return s.kind == subUser && events.Contains(ev.Batch, s.user)
	default:
		return false
	}
}
