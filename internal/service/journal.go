package service

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/jask/carton/internal/database"
	"github.com/jask/carton/internal/database/repository"
	"github.com/jask/carton/internal/events"
	"github.com/jask/carton/internal/tasks"
)

// Journal records task progress in the session database. It implements
// tasks.Observer and is only written from the worker goroutine.
type Journal struct {
	DB     *sql.DB
	Tasks  *repository.TaskRepo
	Logger *slog.Logger
	// Keep bounds the number of finished entries; zero keeps everything.
	Keep int
}

func NewJournal(db *sql.DB, logger *slog.Logger, keep int) *Journal {
	if logger == nil {
		logger = slog.Default()
	}
	return &Journal{DB: db, Tasks: repository.NewTaskRepo(db), Logger: logger, Keep: keep}
}

func (j *Journal) TaskStarted(t *tasks.Task) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	err := j.Tasks.Start(ctx, repository.TaskEntry{
		ID:          t.ID.String(),
		Kind:        string(t.Request.Kind()),
		SubmittedAt: t.SubmittedAt.UTC(),
		StartedAt:   t.StartedAt.UTC(),
	})
	if err != nil {
		j.Logger.Warn("journal start", "id", t.ID, "err", err)
	}
}

func (j *Journal) TaskFinished(t *tasks.Task) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	outcome, message := describe(t.Response())
	if err := j.Tasks.Finish(ctx, t.ID.String(), t.FinishedAt.UTC(), outcome, message); err != nil {
		j.Logger.Warn("journal finish", "id", t.ID, "err", err)
		return
	}
	if j.Keep > 0 {
		if err := j.Prune(ctx, j.Keep); err != nil {
			j.Logger.Warn("journal prune", "err", err)
		}
	}
}

// Prune drops all but the newest keep finished entries.
func (j *Journal) Prune(ctx context.Context, keep int) error {
	if j.DB == nil {
		return fmt.Errorf("journal: db not configured")
	}
	return database.WithTx(j.DB, func(tx *sql.Tx) error {
		n, err := repository.PruneTx(ctx, tx, keep)
		if err != nil {
			return fmt.Errorf("prune task_journal: %w", err)
		}
		if n > 0 {
			j.Logger.Debug("journal pruned", "rows", n)
		}
		return nil
	})
}

func (j *Journal) Summary(ctx context.Context) (repository.TaskSummary, error) {
	return j.Tasks.Summary(ctx)
}

// LogSummary writes the session summary to the log.
func (j *Journal) LogSummary(ctx context.Context) {
	s, err := j.Summary(ctx)
	if err != nil {
		j.Logger.Warn("journal summary", "err", err)
		return
	}
	j.Logger.Info("session summary",
		"tasks", s.Total, "finished", s.Finished, "failed", s.Failed,
		"busy", s.Busy.Round(time.Millisecond), "by_kind", s.ByKind)
}

func describe(ev events.UserEvent) (outcome, message string) {
	if ev == nil {
		return events.KindEmpty.String(), ""
	}
	switch ev := ev.(type) {
	case events.Error:
		return repository.OutcomeError, ev.Message
	case events.ProviderStatus:
		if !ev.Connected() {
			return repository.OutcomeError, ev.Status
		}
		return ev.Kind().String(), ev.Status
	default:
		return ev.Kind().String(), ""
	}
}
