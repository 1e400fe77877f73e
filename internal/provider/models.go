package provider

import "time"

// Server is a provider-neutral view of a remote virtual server.
type Server struct {
	ID              int64
	Name            string
	Status          string
	Created         time.Time
	PublicIPv4      string
	PublicIPv6      string
	Datacenter      string
	Image           string
	ServerType      string
	DiskSize        int // GB
	Labels          map[string]string
	IngoingTraffic  uint64 // bytes
	OutgoingTraffic uint64 // bytes
	Provider        string
}

// PrimaryIP is an allocated public address.
type PrimaryIP struct {
	ID         int64
	Name       string
	IP         string
	Type       string
	AssigneeID int64
}

// SSHKey is a key registered with the provider account.
type SSHKey struct {
	ID          int64
	Name        string
	Fingerprint string
}

// CreateOpts describes a server to create.
type CreateOpts struct {
	Name             string
	ServerType       string
	Image            string
	Location         string
	SSHKeys          []SSHKey
	EnableIPv4       bool
	StartAfterCreate bool
}
