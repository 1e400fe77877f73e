package tasks

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jask/carton/internal/events"
	"github.com/jask/carton/internal/provider"
)

// Handler turns a request into an event. Implementations report failures as
// events rather than errors.
type Handler interface {
	Handle(ctx context.Context, req Request) events.UserEvent
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, req Request) events.UserEvent

func (f HandlerFunc) Handle(ctx context.Context, req Request) events.UserEvent { return f(ctx, req) }

// CreateDefaults fills in what the create form leaves out.
type CreateDefaults struct {
	ServerType string
	Image      string
	Location   string
	EnableIPv4 bool
}

// Runner executes requests against a provider.Client.
type Runner struct {
	Client   provider.Client
	Provider string // display name reported in ProviderStatus
	Defaults CreateDefaults
	Logger   *slog.Logger
}

func (r *Runner) Handle(ctx context.Context, req Request) events.UserEvent {
	switch req := req.(type) {
	case ProviderStatus:
		return r.providerStatus(ctx)
	case FetchServers:
		return r.fetchServers(ctx)
	case CreateServer:
		return r.createServer(ctx, req)
	default:
		return events.Error{Message: fmt.Sprintf("unsupported request %T", req)}
	}
}

func (r *Runner) providerStatus(ctx context.Context) events.UserEvent {
	servers, err := r.Client.ListServers(ctx)
	if err != nil {
		r.logger().Warn("provider status: list servers", "err", err)
		return events.Disconnected(r.Provider, err)
	}
	ips, err := r.Client.ListPrimaryIPs(ctx)
	if err != nil {
		r.logger().Warn("provider status: list primary ips", "err", err)
		return events.Disconnected(r.Provider, err)
	}
	return events.ProviderStatus{
		Name:       r.Provider,
		Status:     events.StatusConnected,
		Servers:    len(servers),
		PrimaryIPs: len(ips),
	}
}

func (r *Runner) fetchServers(ctx context.Context) events.UserEvent {
	servers, err := r.Client.ListServers(ctx)
	if err != nil {
		return events.Error{Message: fmt.Sprintf("Cannot fetch servers: %v", err)}
	}
	handles := make([]events.ServerHandle, 0, len(servers))
	for _, s := range servers {
		handles = append(handles, events.NewServerHandle(s))
	}
	return events.ServerListStatus{Servers: handles}
}

func (r *Runner) createServer(ctx context.Context, req CreateServer) events.UserEvent {
	keys, err := r.Client.ListSSHKeys(ctx)
	if err != nil {
		return events.Error{Message: fmt.Sprintf("Cannot fetch ssh keys: %v", err)}
	}
	opts := provider.CreateOpts{
		Name:             req.Name,
		ServerType:       req.Type,
		Image:            req.Image,
		Location:         r.Defaults.Location,
		SSHKeys:          keys,
		EnableIPv4:       r.Defaults.EnableIPv4,
		StartAfterCreate: true,
	}
	if opts.ServerType == "" {
		opts.ServerType = r.Defaults.ServerType
	}
	if opts.Image == "" {
		opts.Image = r.Defaults.Image
	}
	s, err := r.Client.CreateServer(ctx, opts)
	if err != nil {
		return events.Error{Message: fmt.Sprintf("Cannot create server: %v", err)}
	}
	r.logger().Info("server created", "name", s.Name, "id", s.ID, "type", opts.ServerType, "image", opts.Image)
	return events.Refresh{}
}

func (r *Runner) logger() *slog.Logger {
	if r.Logger == nil {
		return slog.Default()
	}
	return r.Logger
}
