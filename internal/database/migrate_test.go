package database

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jask/carton/internal/database/repository"
)

func TestOpenSessionMigratesAndIsIdempotent(t *testing.T) {
	db, err := OpenSession(MemoryDSN("migrate-test"))
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, RunMigrations(db))

	var n int
	require.NoError(t, db.QueryRow(`SELECT count(*) FROM task_journal`).Scan(&n))
	require.Zero(t, n)
}

func TestTaskRepoRoundTrip(t *testing.T) {
	db, err := OpenSession(MemoryDSN("repo-test"))
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	repo := repository.NewTaskRepo(db)
	start := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, repo.Start(ctx, repository.TaskEntry{ID: "a", Kind: "fetch_servers", SubmittedAt: start, StartedAt: start}))
	require.NoError(t, repo.Start(ctx, repository.TaskEntry{ID: "b", Kind: "create_server", SubmittedAt: start, StartedAt: start.Add(time.Millisecond)}))
	require.NoError(t, repo.Finish(ctx, "a", start.Add(5*time.Millisecond), "server_list", ""))
	require.ErrorIs(t, repo.Finish(ctx, "missing", start, "empty", ""), sql.ErrNoRows)

	entries, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, "a", entries[0].ID)
	require.NotNil(t, entries[0].FinishedAt)
	require.Equal(t, 5*time.Millisecond, entries[0].Latency())
	require.Nil(t, entries[1].FinishedAt)

	s, err := repo.Summary(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, s.Total)
	require.Equal(t, 1, s.Finished)
	require.Zero(t, s.Failed)
}
