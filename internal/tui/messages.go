package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jask/carton/internal/events"
	"github.com/jask/carton/internal/tui/widget"
)

const (
	IDHeader     widget.ID = "header"
	IDServerList widget.ID = "server_list"
	IDPreview    widget.ID = "preview"
	IDNameInput  widget.ID = "name_input"
	IDTypeInput  widget.ID = "type_input"
	IDImageInput widget.ID = "image_input"
	IDLabel      widget.ID = "label"
	IDGlobal     widget.ID = "global"
)

// Reducer messages. Widgets return them from Update; the reducer may answer
// with one follow-up.
type (
	AppCloseMsg struct{}
	// LaunchMsg is emitted once by a freshly mounted header.
	LaunchMsg      struct{}
	FocusMsg       struct{ ID widget.ID }
	ChangeFocusMsg struct{ Backward bool }
	InputMsg       struct {
		ID    widget.ID
		Value string
	}
	UpdateStateMsg          struct{ State State }
	UpdateProviderStatusMsg struct{}
	FetchServersMsg         struct{}
	ConnectedMsg            struct{}
	DisconnectedMsg         struct{}
	// CreateServerMsg submits the current create draft.
	CreateServerMsg struct{}
	// DeferMsg re-enters Then after Ticks UI ticks. A nil Then only idles.
	DeferMsg struct {
		Ticks int
		Then  tea.Msg
	}
	SetLabelMsg struct {
		Text string
		Err  bool
	}
)

// State is the UI selection pushed by the server list.
type State struct {
	Server events.ServerHandle
}

// SelectedServer builds the state for a highlighted row.
func SelectedServer(h events.ServerHandle) State {
	return State{Server: h}
}

// Draft is the create form, owned by the reducer.
type Draft struct {
	Name  string
	Type  string
	Image string
}
