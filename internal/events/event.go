// Package events holds the domain events produced by the task worker and
// consumed by the UI.
package events

import "fmt"

// Kind is the variant tag of a UserEvent.
type Kind int

const (
	KindEmpty Kind = iota
	KindProviderStatus
	KindServerList
	KindError
	KindRefresh
)

func (k Kind) String() string {
	switch k {
	case KindEmpty:
		return "empty"
	case KindProviderStatus:
		return "provider_status"
	case KindServerList:
		return "server_list"
	case KindError:
		return "error"
	case KindRefresh:
		return "refresh"
	default:
		return "unknown"
	}
}

// UserEvent is the result of one task. Two events are considered equal when
// their kinds match; payloads are ignored.
type UserEvent interface {
	Kind() Kind
}

const (
	StatusConnected    = "Connected"
	StatusDisconnected = "Disconnected"
)

// ProviderStatus summarises the account behind the current token.
type ProviderStatus struct {
	Name          string
	Status        string
	Servers       int
	PrimaryIPs    int
	Firewalls     int
	LoadBalancers int
}

func (ProviderStatus) Kind() Kind { return KindProviderStatus }

// Connected reports whether the last status call succeeded.
func (p ProviderStatus) Connected() bool { return p.Status == StatusConnected }

// ServerListStatus carries the servers in provider order.
type ServerListStatus struct {
	Servers []ServerHandle
}

func (ServerListStatus) Kind() Kind { return KindServerList }

// Error is a displayable failure message.
type Error struct {
	Message string
}

func (Error) Kind() Kind { return KindError }

type Empty struct{}

func (Empty) Kind() Kind { return KindEmpty }

// Refresh asks the UI to re-query the provider, e.g. after a create.
type Refresh struct{}

func (Refresh) Kind() Kind { return KindRefresh }

// Same reports whether a and b are the same variant. Nil matches only nil.
func Same(a, b UserEvent) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Kind() == b.Kind()
}

// Contains reports whether batch holds an event of kind k.
func Contains(batch []UserEvent, k Kind) bool {
	for _, ev := range batch {
		if ev != nil && ev.Kind() == k {
			return true
		}
	}
	return false
}

// Disconnected builds the degraded status reported when a status call fails.
func Disconnected(name string, err error) ProviderStatus {
	return ProviderStatus{Name: name, Status: fmt.Sprintf("%s, Error: %v", StatusDisconnected, err)}
}
