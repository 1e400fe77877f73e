package provider

import (
	"context"
	"fmt"
	"maps"

	"github.com/hetznercloud/hcloud-go/v2/hcloud"
)

const hetznerName = "Hetzner"

// HetznerClient talks to the Hetzner Cloud API.
type HetznerClient struct {
	client *hcloud.Client
}

func NewHetzner(token string, opts ...hcloud.ClientOption) *HetznerClient {
	base := []hcloud.ClientOption{
		hcloud.WithToken(token),
		hcloud.WithApplication("carton", "0.1.0"),
	}
	return &HetznerClient{client: hcloud.NewClient(append(base, opts...)...)}
}

func (h *HetznerClient) ListServers(ctx context.Context) ([]Server, error) {
	servers, err := h.client.Server.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("list servers: %w", err)
	}
	out := make([]Server, 0, len(servers))
	for _, s := range servers {
		out = append(out, fromHcloudServer(s))
	}
	return out, nil
}

func (h *HetznerClient) ListPrimaryIPs(ctx context.Context) ([]PrimaryIP, error) {
	ips, err := h.client.PrimaryIP.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("list primary ips: %w", err)
	}
	out := make([]PrimaryIP, 0, len(ips))
	for _, ip := range ips {
		p := PrimaryIP{ID: ip.ID, Name: ip.Name, Type: string(ip.Type), AssigneeID: ip.AssigneeID}
		if len(ip.IP) > 0 {
			p.IP = ip.IP.String()
		}
		out = append(out, p)
	}
	return out, nil
}

func (h *HetznerClient) ListSSHKeys(ctx context.Context) ([]SSHKey, error) {
	keys, err := h.client.SSHKey.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("list ssh keys: %w", err)
	}
	out := make([]SSHKey, 0, len(keys))
	for _, k := range keys {
		out = append(out, SSHKey{ID: k.ID, Name: k.Name, Fingerprint: k.Fingerprint})
	}
	return out, nil
}

func (h *HetznerClient) CreateServer(ctx context.Context, opts CreateOpts) (Server, error) {
	res, _, err := h.client.Server.Create(ctx, createOpts(opts))
	if err != nil {
		return Server{}, fmt.Errorf("create server: %w", err)
	}
	if res.Server == nil {
		return Server{}, fmt.Errorf("create server: empty response")
	}
	return fromHcloudServer(res.Server), nil
}

func createOpts(opts CreateOpts) hcloud.ServerCreateOpts {
	keys := make([]*hcloud.SSHKey, 0, len(opts.SSHKeys))
	for _, k := range opts.SSHKeys {
		keys = append(keys, &hcloud.SSHKey{ID: k.ID, Name: k.Name})
	}
	start := opts.StartAfterCreate
	out := hcloud.ServerCreateOpts{
		Name:             opts.Name,
		ServerType:       &hcloud.ServerType{Name: opts.ServerType},
		Image:            &hcloud.Image{Name: opts.Image},
		SSHKeys:          keys,
		StartAfterCreate: &start,
		PublicNet: &hcloud.ServerCreatePublicNet{
			EnableIPv4: opts.EnableIPv4,
			EnableIPv6: true,
		},
	}
	if opts.Location != "" {
		out.Location = &hcloud.Location{Name: opts.Location}
	}
	return out
}

func fromHcloudServer(s *hcloud.Server) Server {
	out := Server{
		ID:              s.ID,
		Name:            s.Name,
		Status:          string(s.Status),
		Created:         s.Created,
		DiskSize:        s.PrimaryDiskSize,
		Labels:          maps.Clone(s.Labels),
		IngoingTraffic:  s.IngoingTraffic,
		OutgoingTraffic: s.OutgoingTraffic,
		Provider:        hetznerName,
	}
	if ip := s.PublicNet.IPv4.IP; len(ip) > 0 {
		out.PublicIPv4 = ip.String()
	}
	if ip := s.PublicNet.IPv6.IP; len(ip) > 0 {
		out.PublicIPv6 = ip.String()
	}
	if s.ServerType != nil {
		out.ServerType = s.ServerType.Name
		if out.DiskSize == 0 {
			out.DiskSize = int(s.ServerType.Disk)
		}
	}
	if s.Datacenter != nil {
		out.Datacenter = s.Datacenter.Name
	}
	if s.Image != nil {
		out.Image = s.Image.Name
		if out.Image == "" {
			out.Image = s.Image.Description
		}
	}
	return out
}
