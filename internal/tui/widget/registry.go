package widget

import (
	"errors"
	"fmt"
	"slices"

	tea "github.com/charmbracelet/bubbletea"
)

var (
	ErrMounted    = errors.New("widget already mounted")
	ErrNotMounted = errors.New("widget not mounted")
)

type mount struct {
	w    Widget
	subs []Sub
}

// Registry owns mounted widgets and the focus. It is not safe for concurrent
// use; it lives on the UI goroutine.
type Registry struct {
	order  []ID
	mounts map[ID]*mount
	focus  ID
}

func NewRegistry() *Registry {
	return &Registry{mounts: make(map[ID]*mount)}
}

// Mount adds w under id.
func (r *Registry) Mount(id ID, w Widget, subs ...Sub) error {
	if w == nil {
		return fmt.Errorf("mount %s: nil widget", id)
	}
	if _, ok := r.mounts[id]; ok {
		return fmt.Errorf("mount %s: %w", id, ErrMounted)
	}
	r.mounts[id] = &mount{w: w, subs: subs}
	r.order = append(r.order, id)
	return nil
}

// Remount replaces the widget under id, mounting it if absent. If id held
// focus the new widget gets it.
func (r *Registry) Remount(id ID, w Widget, subs ...Sub) error {
	if w == nil {
		return fmt.Errorf("remount %s: nil widget", id)
	}
	m, ok := r.mounts[id]
	if !ok {
		return r.Mount(id, w, subs...)
	}
	m.w, m.subs = w, subs
	if r.focus == id {
		w.Attr(Focus, true)
	}
	return nil
}

func (r *Registry) Umount(id ID) error {
	if _, ok := r.mounts[id]; !ok {
		return fmt.Errorf("umount %s: %w", id, ErrNotMounted)
	}
	delete(r.mounts, id)
	r.order = slices.DeleteFunc(r.order, func(o ID) bool { return o == id })
	if r.focus == id {
		r.focus = ""
	}
	return nil
}

func (r *Registry) UmountAll() {
	clear(r.mounts)
	r.order = r.order[:0]
	r.focus = ""
}

func (r *Registry) Mounted(id ID) bool {
	_, ok := r.mounts[id]
	return ok
}

// Mounts lists mounted ids in mount order.
func (r *Registry) Mounts() []ID {
	return slices.Clone(r.order)
}

// Active gives focus to id.
func (r *Registry) Active(id ID) error {
	m, ok := r.mounts[id]
	if !ok {
		return fmt.Errorf("active %s: %w", id, ErrNotMounted)
	}
	if r.focus == id {
		return nil
	}
	if prev, ok := r.mounts[r.focus]; ok {
		prev.w.Attr(Focus, false)
	}
	r.focus = id
	m.w.Attr(Focus, true)
	return nil
}

// Focus returns the focused id, if any.
func (r *Registry) Focus() (ID, bool) {
	if r.focus == "" {
		return "", false
	}
	return r.focus, true
}

func (r *Registry) Attr(id ID, a Attribute, v any) error {
	m, ok := r.mounts[id]
	if !ok {
		return fmt.Errorf("attr %s: %w", id, ErrNotMounted)
	}
	m.w.Attr(a, v)
	return nil
}

func (r *Registry) Query(id ID, a Attribute) (any, bool) {
	m, ok := r.mounts[id]
	if !ok {
		return nil, false
	}
	return m.w.Query(a)
}

// View renders id, or "" when it is not mounted.
func (r *Registry) View(id ID, width, height int) string {
	m, ok := r.mounts[id]
	if !ok {
		return ""
	}
	return m.w.View(width, height)
}

// Dispatch routes ev and returns the messages widgets produced, in order.
// Keys go to the focused widget first, then to subscribers; ticks and user
// batches go to subscribers only. Widgets mounted or unmounted while
// dispatching do not change the current delivery list.
func (r *Registry) Dispatch(ev Event) []tea.Msg {
	var (
		targets []Widget
		served  ID
	)
	if _, isKey := ev.(KeyEvent); isKey {
		if m, ok := r.mounts[r.focus]; ok {
			targets = append(targets, m.w)
			served = r.focus
		}
	}
	for _, id := range r.order {
		if served != "" && id == served {
			continue
		}
		m := r.mounts[id]
		for _, s := range m.subs {
			if s.matches(ev) {
				targets = append(targets, m.w)
				break
			}
		}
	}

	var out []tea.Msg
	for _, w := range targets {
		if msg := w.Update(ev); msg != nil {
			out = append(out, msg)
		}
	}
	return out
}
