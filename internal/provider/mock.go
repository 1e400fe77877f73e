package provider

import (
	"context"
	"sync"
	"time"
)

// Op names a Client method, used to configure and inspect MockClient.
type Op string

const (
	OpListServers    Op = "list_servers"
	OpListPrimaryIPs Op = "list_primary_ips"
	OpListSSHKeys    Op = "list_ssh_keys"
	OpCreateServer   Op = "create_server"
)

// Call records one invocation of a MockClient method.
type Call struct {
	Op    Op
	Start time.Time
	End   time.Time
}

// MockClient is an in-memory Client used by --mock and by tests. It is safe
// for concurrent use.
type MockClient struct {
	mu         sync.Mutex
	servers    []Server
	primaryIPs []PrimaryIP
	sshKeys    []SSHKey
	errs       map[Op]error
	delay      time.Duration
	calls      []Call
	nextID     int64

	// Hook, if set, runs inside every call before the result is produced.
	// Tests use it to block or panic.
	Hook func(op Op)
}

// MockOption configures a MockClient.
type MockOption func(*MockClient)

func WithServers(servers ...Server) MockOption {
	return func(m *MockClient) { m.servers = append(m.servers, servers...) }
}

func WithPrimaryIPs(ips ...PrimaryIP) MockOption {
	return func(m *MockClient) { m.primaryIPs = append(m.primaryIPs, ips...) }
}

func WithSSHKeys(keys ...SSHKey) MockOption {
	return func(m *MockClient) { m.sshKeys = append(m.sshKeys, keys...) }
}

// WithFailure makes op return err.
func WithFailure(op Op, err error) MockOption {
	return func(m *MockClient) { m.errs[op] = err }
}

// WithDelay makes every call take at least d.
func WithDelay(d time.Duration) MockOption {
	return func(m *MockClient) { m.delay = d }
}

func NewMock(opts ...MockOption) *MockClient {
	m := &MockClient{errs: make(map[Op]error), nextID: 1000}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// NewDemoMock returns a mock populated with a small, stable inventory.
func NewDemoMock() *MockClient {
	created := time.Date(2024, 11, 2, 9, 30, 0, 0, time.UTC)
	return NewMock(
		WithServers(
			Server{ID: 1, Name: "web-1", Status: "running", Created: created, PublicIPv6: "2a01:4f8:c0c:1::1",
				Datacenter: "fsn1-dc14", Image: "fedora-41", ServerType: "cx22", DiskSize: 40,
				Labels: map[string]string{"role": "web"}, IngoingTraffic: 52 << 20, OutgoingTraffic: 17 << 20, Provider: hetznerName},
			Server{ID: 2, Name: "db-1", Status: "running", Created: created.Add(48 * time.Hour), PublicIPv4: "95.217.10.4",
				Datacenter: "fsn1-dc14", Image: "debian-12", ServerType: "cx32", DiskSize: 80,
				Labels: map[string]string{"role": "db", "tier": "prod"}, IngoingTraffic: 3 << 30, OutgoingTraffic: 1 << 30, Provider: hetznerName},
			Server{ID: 3, Name: "scratch", Status: "off", Created: created.Add(240 * time.Hour),
				Datacenter: "nbg1-dc3", Image: "ubuntu-24.04", ServerType: "cax11", DiskSize: 40, Provider: hetznerName},
		),
		WithPrimaryIPs(PrimaryIP{ID: 10, Name: "db-ip", IP: "95.217.10.4", Type: "ipv4", AssigneeID: 2}),
		WithSSHKeys(SSHKey{ID: 7, Name: "operator", Fingerprint: "b7:2f:8e:1a"}),
	)
}

// SetFailure changes the error returned by op; nil clears it.
func (m *MockClient) SetFailure(op Op, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.errs, op)
		return
	}
	m.errs[op] = err
}

// Calls returns a copy of the recorded invocations in call order.
func (m *MockClient) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Call(nil), m.calls...)
}

func (m *MockClient) ListServers(ctx context.Context) ([]Server, error) {
	end := m.begin(ctx, OpListServers)
	defer end()
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.errs[OpListServers]; err != nil {
		return nil, err
	}
	return append([]Server(nil), m.servers...), nil
}

func (m *MockClient) ListPrimaryIPs(ctx context.Context) ([]PrimaryIP, error) {
	end := m.begin(ctx, OpListPrimaryIPs)
	defer end()
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.errs[OpListPrimaryIPs]; err != nil {
		return nil, err
	}
	return append([]PrimaryIP(nil), m.primaryIPs...), nil
}

func (m *MockClient) ListSSHKeys(ctx context.Context) ([]SSHKey, error) {
	end := m.begin(ctx, OpListSSHKeys)
	defer end()
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.errs[OpListSSHKeys]; err != nil {
		return nil, err
	}
	return append([]SSHKey(nil), m.sshKeys...), nil
}

func (m *MockClient) CreateServer(ctx context.Context, opts CreateOpts) (Server, error) {
	end := m.begin(ctx, OpCreateServer)
	defer end()
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.errs[OpCreateServer]; err != nil {
		return Server{}, err
	}
	m.nextID++
	s := Server{
		ID:         m.nextID,
		Name:       opts.Name,
		Status:     "initializing",
		Created:    time.Now().UTC(),
		Datacenter: opts.Location,
		Image:      opts.Image,
		ServerType: opts.ServerType,
		Provider:   hetznerName,
	}
	m.servers = append(m.servers, s)
	return s, nil
}

// begin records the call start, runs the hook and delay, and returns a func
// that records the call end.
func (m *MockClient) begin(ctx context.Context, op Op) func() {
	start := time.Now()
	if m.Hook != nil {
		m.Hook(op)
	}
	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
		}
	}
	return func() {
		m.mu.Lock()
		m.calls = append(m.calls, Call{Op: op, Start: start, End: time.Now()})
		m.mu.Unlock()
	}
}
