// Package jobs implements the Postgres-backed async job store (C9): CRUD over the jobs table plus
// the Queued → Running → {Completed, Failed} state machine.
package jobs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lib/pq"

	"github.com/TranslatorSRI/cqs/internal/storage"
)

// Status is a job's lifecycle state, persisted as one of the fixed lowercase strings below.
type Status string

// The four persisted job states (spec §4.9): a job's state sequence is always a prefix of
// Queued → Running → (Completed | Failed).
const (
	StatusQueued    Status = "queued"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// ErrInvalidTransition is returned by the state-machine helpers below for any transition other
// than the ones spec §4.9/P6 allow.
var ErrInvalidTransition = errors.New("jobs: invalid state transition")

// Job is one row of the jobs table.
type Job struct {
	ID            int64
	Status        Status
	DateSubmitted time.Time
	DateStarted   *time.Time
	DateFinished  *time.Time
	Query         []byte // the serialized inbound AsyncQuery
	Response      []byte // the serialized outbound Response, once Completed
	Callback      string
}

// Start transitions a Queued job to Running, stamping DateStarted.
func (j *Job) Start(now time.Time) error {
	if j.Status != StatusQueued {
		return fmt.Errorf("%w: %s -> running", ErrInvalidTransition, j.Status)
	}

	j.Status = StatusRunning
	j.DateStarted = &now

	return nil
}

// Complete transitions a Running job to Completed, stamping DateFinished and storing response.
func (j *Job) Complete(now time.Time, response []byte) error {
	if j.Status != StatusRunning {
		return fmt.Errorf("%w: %s -> completed", ErrInvalidTransition, j.Status)
	}

	j.Status = StatusCompleted
	j.DateFinished = &now
	j.Response = response

	return nil
}

// Fail transitions a Running job to Failed, stamping DateFinished.
func (j *Job) Fail(now time.Time) error {
	if j.Status != StatusRunning {
		return fmt.Errorf("%w: %s -> failed", ErrInvalidTransition, j.Status)
	}

	j.Status = StatusFailed
	j.DateFinished = &now

	return nil
}

// Store is the Postgres-backed job CRUD layer. Every method follows spec §7's error-handling
// taxonomy for database failure (d): errors are logged, and find_* methods degrade to an empty
// result while update/delete degrade to a best-effort no-op, so the Reaper/Worker schedulers
// always progress rather than wedge on a transient database blip.
type Store struct {
	conn *storage.Connection
}

// NewStore wraps an existing pooled connection.
func NewStore(conn *storage.Connection) *Store {
	return &Store{conn: conn}
}

// Insert adds a new Queued job and returns its id.
func (s *Store) Insert(ctx context.Context, query []byte, callback string) (int64, error) {
	const q = `
		INSERT INTO jobs (status, date_submitted, query, callback)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`

	var id int64

	err := s.conn.QueryRowContext(ctx, q, StatusQueued, time.Now().UTC(), query, callback).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("jobs: insert: %w", err)
	}

	return id, nil
}

// FindByID returns the job with the given id, or (nil, nil) if it doesn't exist or the lookup
// fails.
func (s *Store) FindByID(ctx context.Context, id int64) (*Job, error) {
	const q = `
		SELECT id, status, date_submitted, date_started, date_finished, query, response, callback
		FROM jobs WHERE id = $1
	`

	job, err := scanJob(s.conn.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil //nolint:nilnil // not-found is not an error condition for this store
		}

		slog.Error("jobs: find_by_id failed", slog.Int64("id", id), slog.String("error", err.Error()))

		return nil, nil //nolint:nilnil // degrade to not-found per spec §7(d)
	}

	return job, nil
}

// FindUndone returns every Queued job, ordered by submission time ascending — the batch the
// Worker processes on each tick.
func (s *Store) FindUndone(ctx context.Context) []Job {
	const q = `
		SELECT id, status, date_submitted, date_started, date_finished, query, response, callback
		FROM jobs WHERE status = $1 ORDER BY date_submitted ASC
	`

	return s.queryJobs(ctx, q, StatusQueued)
}

// FindAll returns every job in the table, used by the Reaper to evaluate age.
func (s *Store) FindAll(ctx context.Context) []Job {
	const q = `
		SELECT id, status, date_submitted, date_started, date_finished, query, response, callback
		FROM jobs ORDER BY date_submitted ASC
	`

	return s.queryJobs(ctx, q)
}

func (s *Store) queryJobs(ctx context.Context, query string, args ...interface{}) []Job {
	rows, err := s.conn.QueryContext(ctx, query, args...)
	if err != nil {
		slog.Error("jobs: query failed", slog.String("error", err.Error()))

		return []Job{}
	}
	defer func() { _ = rows.Close() }()

	jobs := []Job{}

	for rows.Next() {
		job, err := scanJobRows(rows)
		if err != nil {
			slog.Error("jobs: scan failed", slog.String("error", err.Error()))

			continue
		}

		jobs = append(jobs, *job)
	}

	return jobs
}

// Update persists the full state of job. Failure is logged and otherwise swallowed — a best-
// effort no-op per spec §7(d).
func (s *Store) Update(ctx context.Context, job Job) {
	const q = `
		UPDATE jobs SET status = $1, date_started = $2, date_finished = $3, response = $4
		WHERE id = $5
	`

	if _, err := s.conn.ExecContext(ctx, q, job.Status, job.DateStarted, job.DateFinished, job.Response, job.ID); err != nil {
		slog.Error("jobs: update failed", slog.Int64("id", job.ID), slog.String("error", err.Error()))
	}
}

// ResetRunningToQueued reverts every Running job back to Queued, clearing DateStarted. Run once at
// startup before the Reaper/Worker loops begin, it recovers jobs a crashed Worker left stranded
// mid-flight: without it, a Running job is invisible to FindUndone and never reprocessed, lingering
// until the Reaper eventually deletes it for age rather than completing (spec §3, P6). Returns the
// number of jobs reset, for startup logging.
func (s *Store) ResetRunningToQueued(ctx context.Context) int64 {
	const q = `UPDATE jobs SET status = $1, date_started = NULL WHERE status = $2`

	result, err := s.conn.ExecContext(ctx, q, StatusQueued, StatusRunning)
	if err != nil {
		slog.Error("jobs: reset_running_to_queued failed", slog.String("error", err.Error()))

		return 0
	}

	n, err := result.RowsAffected()
	if err != nil {
		slog.Error("jobs: reset_running_to_queued: rows_affected failed", slog.String("error", err.Error()))

		return 0
	}

	return n
}

// Delete removes the job with the given id. Failure is logged and otherwise swallowed.
func (s *Store) Delete(ctx context.Context, id int64) {
	if _, err := s.conn.ExecContext(ctx, `DELETE FROM jobs WHERE id = $1`, id); err != nil {
		slog.Error("jobs: delete failed", slog.Int64("id", id), slog.String("error", err.Error()))
	}
}

// DeleteMany removes every job whose id appears in ids, used by the Reaper to sweep a whole
// batch of stale jobs in one statement.
func (s *Store) DeleteMany(ctx context.Context, ids []int64) {
	if len(ids) == 0 {
		return
	}

	if _, err := s.conn.ExecContext(ctx, `DELETE FROM jobs WHERE id = ANY($1)`, pq.Array(ids)); err != nil {
		slog.Error("jobs: delete_many failed", slog.Int("count", len(ids)), slog.String("error", err.Error()))
	}
}

type scannable interface {
	Scan(dest ...interface{}) error
}

func scanJob(row scannable) (*Job, error) {
	return scanJobRows(row)
}

func scanJobRows(row scannable) (*Job, error) {
	var j Job

	err := row.Scan(&j.ID, &j.Status, &j.DateSubmitted, &j.DateStarted, &j.DateFinished, &j.Query, &j.Response, &j.Callback)
	if err != nil {
		return nil, err
	}

	return &j, nil
}
