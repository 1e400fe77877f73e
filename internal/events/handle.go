package events

import (
	"fmt"
	"slices"
	"strings"

	"github.com/jask/carton/internal/provider"
)

// ServerHandle is a row in a server list: either a concrete server or the
// "create a new server" affordance.
type ServerHandle struct {
	server *provider.Server
}

func NewServerHandle(s provider.Server) ServerHandle {
	return ServerHandle{server: &s}
}

// CreateHandle returns the sentinel handle for the create row.
func CreateHandle() ServerHandle { return ServerHandle{} }

func (h ServerHandle) IsCreate() bool { return h.server == nil }

// Server returns the underlying record; ok is false for the create sentinel.
func (h ServerHandle) Server() (provider.Server, bool) {
	if h.server == nil {
		return provider.Server{}, false
	}
	return *h.server, true
}

// SameRow reports whether both handles name the same row: both the create
// sentinel, or servers with the same ID.
func (h ServerHandle) SameRow(o ServerHandle) bool {
	if h.server == nil || o.server == nil {
		return h.server == nil && o.server == nil
	}
	return h.server.ID == o.server.ID
}

// ServerStatus is the table projection of a server.
type ServerStatus struct {
	Name   string
	Status string
	IP     string
}

// ServerPreview is the detail projection of a server.
type ServerPreview struct {
	Name       string
	Status     string
	Provider   string
	CreatedOn  string
	Datacenter string
	Image      string
	Tags       string
	Traffic    string
	DiskSize   string
	ServerType string
}

// ToStatus projects the handle into a table row.
func (h ServerHandle) ToStatus() (ServerStatus, bool) {
	if h.server == nil {
		return ServerStatus{}, false
	}
	s := h.server
	ip := s.PublicIPv4
	if ip == "" {
		ip = s.PublicIPv6
	}
	if ip == "" {
		ip = "-"
	}
	return ServerStatus{Name: s.Name, Status: s.Status, IP: ip}, true
}

// ToPreview projects the handle into the detail pane.
func (h ServerHandle) ToPreview() (ServerPreview, bool) {
	if h.server == nil {
		return ServerPreview{}, false
	}
	s := h.server
	p := ServerPreview{
		Name:       s.Name,
		Status:     s.Status,
		Provider:   s.Provider,
		Datacenter: orDash(s.Datacenter),
		Image:      orDash(s.Image),
		Tags:       orDash(formatLabels(s.Labels)),
		Traffic:    fmt.Sprintf("%.2f KB in, %.2f KB out", float64(s.IngoingTraffic)/1024, float64(s.OutgoingTraffic)/1024),
		DiskSize:   fmt.Sprintf("%d GB", s.DiskSize),
		ServerType: orDash(s.ServerType),
		CreatedOn:  "-",
	}
	if !s.Created.IsZero() {
		p.CreatedOn = s.Created.Format("2006-01-02 15:04")
	}
	return p, true
}

func formatLabels(labels map[string]string) string {
	if len(labels) == 0 {
		return ""
	}
	parts := make([]string, 0, len(labels))
	for k, v := range labels {
		parts = append(parts, k+"="+v)
	}
	slices.Sort(parts)
	return strings.Join(parts, ", ")
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
