// Package provider defines the cloud API surface the dashboard drives and its
// concrete implementations (Hetzner Cloud and an in-memory mock).
package provider

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Client is the subset of a cloud provider API used by the task worker.
// Every error is treated as an opaque, displayable message.
type Client interface {
	ListServers(ctx context.Context) ([]Server, error)
	ListPrimaryIPs(ctx context.Context) ([]PrimaryIP, error)
	ListSSHKeys(ctx context.Context) ([]SSHKey, error)
	CreateServer(ctx context.Context, opts CreateOpts) (Server, error)
}

// Platform identifies which provider the operator authenticates against.
type Platform string

const (
	Google  Platform = "google"
	Amazon  Platform = "amazon"
	Hetzner Platform = "hetzner"
)

var ErrUnsupported = errors.New("provider not supported")

// ParsePlatform accepts the --auth flag value.
func ParsePlatform(s string) (Platform, error) {
	switch p := Platform(strings.ToLower(strings.TrimSpace(s))); p {
	case Google, Amazon, Hetzner:
		return p, nil
	default:
		return "", fmt.Errorf("invalid auth platform %q", s)
	}
}

// DisplayName is shown in the header.
func (p Platform) DisplayName() string {
	switch p {
	case Google:
		return "Google"
	case Amazon:
		return "Amazon"
	case Hetzner:
		return "Hetzner"
	default:
		return "Unknown"
	}
}

// New builds the client for platform. Only Hetzner has a real backend.
func New(p Platform, token string) (Client, error) {
	switch p {
	case Hetzner:
		if strings.TrimSpace(token) == "" {
			return nil, fmt.Errorf("hetzner: token required")
		}
		return NewHetzner(token), nil
	default:
		return nil, fmt.Errorf("%s: %w", p.DisplayName(), ErrUnsupported)
	}
}
