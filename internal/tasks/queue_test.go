package tasks

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jask/carton/internal/events"
	"github.com/jask/carton/internal/provider"
)

type seqRequest struct{ n int }

func (seqRequest) Kind() Kind { return "seq" }

func echoHandler() HandlerFunc {
	return func(_ context.Context, req Request) events.UserEvent {
		return events.Error{Message: strconv.Itoa(req.(seqRequest).n)}
	}
}

func completed(q *Queue) int {
	q.done.mu.Lock()
	defer q.done.mu.Unlock()
	return len(q.done.done)
}

func collect(t *testing.T, q *Queue, n int) []events.UserEvent {
	t.Helper()
	var got []events.UserEvent
	require.Eventually(t, func() bool {
		got = append(got, q.Poll()...)
		return len(got) >= n
	}, 2*time.Second, 2*time.Millisecond)
	return got
}

func TestQueueDeliversInSubmissionOrder(t *testing.T) {
	q := NewQueue(echoHandler())
	defer q.Close()

	const n = 25
	for i := 0; i < n; i++ {
		q.Submit(seqRequest{n: i})
	}
	require.Eventually(t, func() bool { return completed(q) == n }, 2*time.Second, time.Millisecond)

	batch := q.Poll()
	require.Len(t, batch, n)
	for i, ev := range batch {
		require.Equal(t, strconv.Itoa(i), ev.(events.Error).Message)
	}
	require.Nil(t, q.Poll())
}

func TestQueueOrderAcrossPolls(t *testing.T) {
	q := NewQueue(echoHandler())
	defer q.Close()

	const n = 40
	for i := 0; i < n; i++ {
		q.Submit(seqRequest{n: i})
	}
	got := collect(t, q, n)
	require.Len(t, got, n)
	for i, ev := range got {
		require.Equal(t, strconv.Itoa(i), ev.(events.Error).Message)
	}
}

func TestPollNeverBlocks(t *testing.T) {
	q := NewQueue(echoHandler())
	defer q.Close()

	start := time.Now()
	require.Nil(t, q.Poll())
	require.Less(t, time.Since(start), 50*time.Millisecond)

	q.Submit(seqRequest{n: 1})
	require.Eventually(t, func() bool { return completed(q) == 1 }, time.Second, time.Millisecond)

	// worker holds the lock: poll gives up instead of waiting
	q.done.mu.Lock()
	start = time.Now()
	require.Nil(t, q.Poll())
	require.Less(t, time.Since(start), 50*time.Millisecond)
	q.done.mu.Unlock()

	require.Len(t, q.Poll(), 1)
}

func TestWorkerIsSequential(t *testing.T) {
	mock := provider.NewMock(
		provider.WithServers(provider.Server{ID: 1, Name: "a"}),
		provider.WithSSHKeys(provider.SSHKey{ID: 1, Name: "k"}),
		provider.WithDelay(3*time.Millisecond),
	)
	q := NewQueue(&Runner{Client: mock, Provider: "Hetzner"})
	defer q.Close()

	q.Submit(ProviderStatus{})
	q.Submit(FetchServers{})
	q.Submit(CreateServer{Name: "b", Type: "cx22", Image: "fedora-41"})
	q.Submit(ProviderStatus{})
	collect(t, q, 4)

	calls := mock.Calls()
	// status(2) + fetch(1) + create(2) + status(2)
	require.Len(t, calls, 7)
	for i := 1; i < len(calls); i++ {
		require.False(t, calls[i].Start.Before(calls[i-1].End),
			"call %d (%s) overlaps call %d (%s)", i, calls[i].Op, i-1, calls[i-1].Op)
	}
}

func TestProviderStatusConnected(t *testing.T) {
	mock := provider.NewMock(
		provider.WithServers(provider.Server{ID: 1}, provider.Server{ID: 2}, provider.Server{ID: 3}),
		provider.WithPrimaryIPs(provider.PrimaryIP{ID: 9}),
	)
	q := NewQueue(&Runner{Client: mock, Provider: "Hetzner"})
	defer q.Close()

	q.Submit(ProviderStatus{})
	got := collect(t, q, 1)
	st, ok := got[0].(events.ProviderStatus)
	require.True(t, ok)
	require.Equal(t, "Connected", st.Status)
	require.Equal(t, 3, st.Servers)
	require.Equal(t, 1, st.PrimaryIPs)
	require.Equal(t, "Hetzner", st.Name)
}

func TestProviderStatusFailure(t *testing.T) {
	for _, op := range []provider.Op{provider.OpListServers, provider.OpListPrimaryIPs} {
		t.Run(string(op), func(t *testing.T) {
			mock := provider.NewMock(provider.WithFailure(op, errors.New("401 unauthorized")))
			q := NewQueue(&Runner{Client: mock, Provider: "Hetzner"})
			defer q.Close()

			q.Submit(ProviderStatus{})
			got := collect(t, q, 1)
			st := got[0].(events.ProviderStatus)
			require.True(t, strings.HasPrefix(st.Status, "Disconnected, Error:"), st.Status)
			require.Contains(t, st.Status, "401 unauthorized")
		})
	}
}

func TestFetchServers(t *testing.T) {
	mock := provider.NewMock(provider.WithServers(provider.Server{ID: 1, Name: "a"}, provider.Server{ID: 2, Name: "b"}))
	q := NewQueue(&Runner{Client: mock})
	defer q.Close()

	q.Submit(FetchServers{})
	got := collect(t, q, 1)
	list := got[0].(events.ServerListStatus)
	require.Len(t, list.Servers, 2)
	s, ok := list.Servers[1].Server()
	require.True(t, ok)
	require.Equal(t, "b", s.Name)

	mock.SetFailure(provider.OpListServers, errors.New("timeout"))
	q.Submit(FetchServers{})
	got = collect(t, q, 1)
	require.Equal(t, "Cannot fetch servers: timeout", got[0].(events.Error).Message)
}

func TestCreateServer(t *testing.T) {
	mock := provider.NewMock(provider.WithSSHKeys(provider.SSHKey{ID: 7, Name: "operator"}))
	runner := &Runner{Client: mock, Defaults: CreateDefaults{Image: "fedora-41", Location: "fsn1"}}
	q := NewQueue(runner)
	defer q.Close()

	q.Submit(CreateServer{Name: "api", Type: "cx22"})
	got := collect(t, q, 1)
	require.Equal(t, events.KindRefresh, got[0].Kind())

	servers, err := mock.ListServers(context.Background())
	require.NoError(t, err)
	require.Len(t, servers, 1)
	require.Equal(t, "fedora-41", servers[0].Image)
	require.Equal(t, "fsn1", servers[0].Datacenter)
}

func TestCreateServerSSHKeyFailureKeepsWorkerAlive(t *testing.T) {
	mock := provider.NewMock(provider.WithFailure(provider.OpListSSHKeys, errors.New("forbidden")))
	q := NewQueue(&Runner{Client: mock})
	defer q.Close()

	q.Submit(CreateServer{Name: "api", Type: "cx22", Image: "fedora-41"})
	q.Submit(FetchServers{})
	got := collect(t, q, 2)
	require.Equal(t, "Cannot fetch ssh keys: forbidden", got[0].(events.Error).Message)
	require.Equal(t, events.KindServerList, got[1].Kind())

	calls := mock.Calls()
	for _, c := range calls {
		require.NotEqual(t, provider.OpCreateServer, c.Op)
	}
}

func TestCreateServerFailure(t *testing.T) {
	mock := provider.NewMock(provider.WithFailure(provider.OpCreateServer, errors.New("invalid name")))
	q := NewQueue(&Runner{Client: mock})
	defer q.Close()

	q.Submit(CreateServer{Name: "", Type: "cx22", Image: "fedora-41"})
	got := collect(t, q, 1)
	require.Equal(t, "Cannot create server: invalid name", got[0].(events.Error).Message)
}

func TestPanicBecomesErrorEvent(t *testing.T) {
	h := HandlerFunc(func(_ context.Context, req Request) events.UserEvent {
		if req.Kind() == KindCreateServer {
			panic("nil ssh key list")
		}
		return events.Empty{}
	})
	q := NewQueue(h)
	defer q.Close()

	q.Submit(CreateServer{Name: "x"})
	q.Submit(FetchServers{})
	got := collect(t, q, 2)
	require.Equal(t, events.KindError, got[0].Kind())
	require.Contains(t, got[0].(events.Error).Message, "nil ssh key list")
	require.Equal(t, events.KindEmpty, got[1].Kind())
}

func TestNilEventBecomesEmpty(t *testing.T) {
	q := NewQueue(HandlerFunc(func(context.Context, Request) events.UserEvent { return nil }))
	defer q.Close()

	q.Submit(FetchServers{})
	got := collect(t, q, 1)
	require.Equal(t, events.KindEmpty, got[0].Kind())
}

type recordingObserver struct {
	mu       sync.Mutex
	started  []Kind
	finished []*Task
}

func (o *recordingObserver) TaskStarted(t *Task) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.started = append(o.started, t.Request.Kind())
}

func (o *recordingObserver) TaskFinished(t *Task) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.finished = append(o.finished, t)
}

func TestObserverSeesResponseBeforePoll(t *testing.T) {
	obs := &recordingObserver{}
	q := NewQueue(echoHandler(), WithObserver(obs))
	defer q.Close()

	q.Submit(seqRequest{n: 1})
	collect(t, q, 1)

	obs.mu.Lock()
	defer obs.mu.Unlock()
	require.Equal(t, []Kind{"seq"}, obs.started)
	require.Len(t, obs.finished, 1)
	ft := obs.finished[0]
	require.NotNil(t, ft.Response())
	require.False(t, ft.FinishedAt.Before(ft.StartedAt))
	require.False(t, ft.StartedAt.Before(ft.SubmittedAt))
}

func TestSubmitAfterCloseIsIgnored(t *testing.T) {
	var calls int
	var mu sync.Mutex
	q := NewQueue(HandlerFunc(func(context.Context, Request) events.UserEvent {
		mu.Lock()
		calls++
		mu.Unlock()
		return events.Empty{}
	}))
	q.Close()
	q.Close()

	q.Submit(FetchServers{})
	require.Equal(t, 0, q.Pending())
	time.Sleep(10 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	require.Zero(t, calls)
	require.Nil(t, q.Poll())
}

func TestResponseIsWriteOnce(t *testing.T) {
	task := newTask(FetchServers{})
	require.Nil(t, task.Response())
	require.NoError(t, task.respond(events.Refresh{}))
	require.ErrorIs(t, task.respond(events.Empty{}), ErrResponded)
	require.Equal(t, events.KindRefresh, task.Response().Kind())
}

func TestResultsRejectUnfinishedTasks(t *testing.T) {
	var r results
	require.False(t, r.push(newTask(FetchServers{})))
	require.Nil(t, r.tryDrain())
}
