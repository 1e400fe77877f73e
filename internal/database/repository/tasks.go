package repository

import (
	"context"
	"database/sql"
	"time"
)

// TaskEntry is one row of the session task journal.
type TaskEntry struct {
	ID          string
	Kind        string
	SubmittedAt time.Time
	StartedAt   time.Time
	FinishedAt  *time.Time
	Outcome     *string
	Message     string
}

// Latency is zero for unfinished entries.
func (e TaskEntry) Latency() time.Duration {
	if e.FinishedAt == nil {
		return 0
	}
	return e.FinishedAt.Sub(e.StartedAt)
}

// TaskSummary aggregates the journal.
type TaskSummary struct {
	Total    int
	Finished int
	Failed   int
	ByKind   map[string]int
	Busy     time.Duration
}

// TaskRepo handles the task journal.
type TaskRepo struct {
	db *sql.DB
}

func NewTaskRepo(db *sql.DB) *TaskRepo {
	return &TaskRepo{db: db}
}

func (r *TaskRepo) Start(ctx context.Context, e TaskEntry) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO task_journal(id, kind, submitted_at, started_at)
	VALUES (?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET started_at=excluded.started_at;
	`, e.ID, e.Kind, e.SubmittedAt, e.StartedAt)
	return err
}

func (r *TaskRepo) Finish(ctx context.Context, id string, finishedAt time.Time, outcome, message string) error {
	res, err := r.db.ExecContext(ctx, `
	UPDATE task_journal SET finished_at=?, outcome=?, message=? WHERE id=?;
	`, finishedAt, outcome, message, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *TaskRepo) List(ctx context.Context) ([]TaskEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
	SELECT id, kind, submitted_at, started_at, finished_at, outcome, message
	FROM task_journal ORDER BY started_at, rowid`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []TaskEntry
	for rows.Next() {
		var (
			e        TaskEntry
			finished sql.NullTime
			outcome  sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.Kind, &e.SubmittedAt, &e.StartedAt, &finished, &outcome, &e.Message); err != nil {
			return nil, err
		}
		if finished.Valid {
			t := finished.Time
			e.FinishedAt = &t
		}
		if outcome.Valid {
			o := outcome.String
			e.Outcome = &o
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Summary counts entries; failed means the outcome was an error event.
func (r *TaskRepo) Summary(ctx context.Context) (TaskSummary, error) {
	entries, err := r.List(ctx)
	if err != nil {
		return TaskSummary{}, err
	}
	s := TaskSummary{ByKind: map[string]int{}}
	for _, e := range entries {
		s.Total++
		s.ByKind[e.Kind]++
		if e.FinishedAt == nil {
			continue
		}
		s.Finished++
		s.Busy += e.Latency()
		if e.Outcome != nil && *e.Outcome == OutcomeError {
			s.Failed++
		}
	}
	return s, nil
}

// OutcomeError marks a task that ended in an error event.
const OutcomeError = "error"

// PruneTx keeps the newest keep finished entries and deletes the rest.
func PruneTx(ctx context.Context, tx *sql.Tx, keep int) (int64, error) {
	res, err := tx.ExecContext(ctx, `
	DELETE FROM task_journal
	WHERE finished_at IS NOT NULL AND id NOT IN (
	 SELECT id FROM task_journal WHERE finished_at IS NOT NULL
	 ORDER BY started_at DESC, rowid DESC LIMIT ?
	);`, keep)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
