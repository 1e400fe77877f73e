// Package tasks runs provider work on a single background worker and hands
// finished results to the UI loop through a non-blocking poll.
package tasks

// Kind tags a Request.
type Kind string

const (
	KindProviderStatus Kind = "provider_status"
	KindFetchServers   Kind = "fetch_servers"
	KindCreateServer   Kind = "create_server"
)

// Request is one unit of provider work. Requests are values and are not
// modified after Submit.
type Request interface {
	Kind() Kind
}

// ProviderStatus asks for the account summary (two remote calls).
type ProviderStatus struct{}

func (ProviderStatus) Kind() Kind { return KindProviderStatus }

// FetchServers asks for the server inventory.
type FetchServers struct{}

func (FetchServers) Kind() Kind { return KindFetchServers }

// CreateServer asks the provider to create a server with the account's SSH keys.
type CreateServer struct {
	Name  string
	Type  string
	Image string
}

func (CreateServer) Kind() Kind { return KindCreateServer }
