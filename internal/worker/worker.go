// Package worker implements the Async Job Processor (C10): the Reaper, which sweeps stale jobs,
// and the Worker, which drains and runs queued jobs through the orchestrator and delivers their
// callbacks.
package worker

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/TranslatorSRI/cqs/internal/events"
	"github.com/TranslatorSRI/cqs/internal/jobs"
	"github.com/TranslatorSRI/cqs/internal/trapi"
	"github.com/TranslatorSRI/cqs/internal/upstream"
)

const (
	reaperFirstTick = 5 * time.Second
	reaperInterval  = 600 * time.Second
	reaperTimeout   = 30 * time.Second
	reaperMaxAge    = 3600 * time.Second

	workerFirstTick = 15 * time.Second
	workerInterval  = 30 * time.Second
	workerTimeout   = 450 * time.Second
)

// ReaperStore is the subset of *jobs.Store the Reaper needs, so tests can supply an in-memory
// fake instead of a real database.
type ReaperStore interface {
	FindAll(ctx context.Context) []jobs.Job
	DeleteMany(ctx context.Context, ids []int64)
}

// ReaperConfig overrides the Reaper's schedule. A zero field falls back to its package default,
// so callers can override just the one knob a test needs (spec §4.12's "overridable in tests
// without code changes").
type ReaperConfig struct {
	Interval time.Duration
	Timeout  time.Duration
	MaxAge   time.Duration
}

// Reaper periodically deletes jobs whose age since submission exceeds its configured MaxAge,
// keeping the jobs table from growing without bound. Ticks reaperFirstTick after Run starts,
// then on its configured Interval, until Stop is called — the same ticker/done-channel shape the
// teacher uses for its rate limiter's idle-entry cleanup.
type Reaper struct {
	store    ReaperStore
	interval time.Duration
	timeout  time.Duration
	maxAge   time.Duration
	done     chan struct{}
}

// NewReaper builds a Reaper over store. cfg is optional; omitted or zero fields use the package
// defaults. Call Run in its own goroutine.
func NewReaper(store ReaperStore, cfg ...ReaperConfig) *Reaper {
	r := &Reaper{
		store:    store,
		interval: reaperInterval,
		timeout:  reaperTimeout,
		maxAge:   reaperMaxAge,
		done:     make(chan struct{}),
	}

	if len(cfg) > 0 {
		if cfg[0].Interval > 0 {
			r.interval = cfg[0].Interval
		}

		if cfg[0].Timeout > 0 {
			r.timeout = cfg[0].Timeout
		}

		if cfg[0].MaxAge > 0 {
			r.maxAge = cfg[0].MaxAge
		}
	}

	return r
}

// Run blocks, ticking on the Reaper's schedule, until Stop is called.
func (r *Reaper) Run() {
	timer := time.NewTimer(reaperFirstTick)
	defer timer.Stop()

	for {
		select {
		case <-timer.C:
			r.Tick()
			timer.Reset(r.interval)
		case <-r.done:
			return
		}
	}
}

// Stop ends the Reaper's ticking loop.
func (r *Reaper) Stop() {
	close(r.done)
}

func (r *Reaper) Tick() {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	now := time.Now().UTC()

	var stale []int64

	for _, job := range r.store.FindAll(ctx) {
		if now.Sub(job.DateSubmitted) > r.maxAge {
			stale = append(stale, job.ID)
		}
	}

	if len(stale) == 0 {
		return
	}

	slog.Info("reaper sweeping stale jobs", slog.Int("count", len(stale)))
	r.store.DeleteMany(ctx, stale)
}

// WorkerStore is the subset of *jobs.Store the Worker needs, so tests can supply an in-memory
// fake instead of a real database.
type WorkerStore interface {
	FindUndone(ctx context.Context) []jobs.Job
	Update(ctx context.Context, job jobs.Job)
}

// Pipeline is the subset of *orchestrator.Orchestrator the Worker needs.
type Pipeline interface {
	RunWithContributionCount(ctx context.Context, query trapi.Query) (trapi.Response, int)
}

// WorkerConfig overrides the Worker's schedule. A zero field falls back to its package default,
// so callers can override just the one knob a test needs (spec §4.12's "overridable in tests
// without code changes").
type WorkerConfig struct {
	Interval time.Duration
	Timeout  time.Duration
}

// Worker periodically finds every undone (Queued) job and runs it through the query pipeline,
// one job at a time per tick, bounding outbound concurrency and memory (spec §4.10). Only one
// tick runs at a time: Run calls Tick synchronously and re-arms its timer only after Tick returns.
// The Worker doesn't atomically claim a job before processing it, so two Worker instances sharing
// one jobs table could process the same job.
type Worker struct {
	store        WorkerStore
	orchestrator Pipeline
	publisher    events.JobEventPublisher
	interval     time.Duration
	timeout      time.Duration
	done         chan struct{}
}

// NewWorker builds a Worker over store and orchestrator. publisher is optional (C14); omitting
// it leaves the Worker with a NoopPublisher, carrying zero overhead when Kafka isn't configured.
// Call Run in its own goroutine.
func NewWorker(store WorkerStore, orch Pipeline, publisher ...events.JobEventPublisher) *Worker {
	w := &Worker{
		store:        store,
		orchestrator: orch,
		publisher:    events.NoopPublisher{},
		interval:     workerInterval,
		timeout:      workerTimeout,
		done:         make(chan struct{}),
	}

	if len(publisher) > 0 && publisher[0] != nil {
		w.publisher = publisher[0]
	}

	return w
}

// Configure overrides the Worker's schedule with cfg, using the package defaults for any zero
// field. Call before Run.
func (w *Worker) Configure(cfg WorkerConfig) *Worker {
	if cfg.Interval > 0 {
		w.interval = cfg.Interval
	}

	if cfg.Timeout > 0 {
		w.timeout = cfg.Timeout
	}

	return w
}

// Run blocks, ticking on the Worker's schedule, until Stop is called.
func (w *Worker) Run() {
	timer := time.NewTimer(workerFirstTick)
	defer timer.Stop()

	for {
		select {
		case <-timer.C:
			w.Tick()
			timer.Reset(w.interval)
		case <-w.done:
			return
		}
	}
}

// Stop ends the Worker's ticking loop.
func (w *Worker) Stop() {
	close(w.done)
}

func (w *Worker) Tick() {
	ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
	defer cancel()

	for _, job := range w.store.FindUndone(ctx) {
		w.process(ctx, job)
	}
}

// process runs one job through Start -> pipeline -> Complete|Fail -> callback delivery. Every
// step is best-effort: a job that can't be deserialized, or whose pipeline contributes nothing,
// is marked Failed but still gets an (empty-success) callback delivered, matching spec §4.10.
func (w *Worker) process(ctx context.Context, job jobs.Job) {
	now := time.Now().UTC()
	if err := job.Start(now); err != nil {
		slog.Error("worker: cannot start job", slog.Int64("id", job.ID), slog.String("error", err.Error()))

		return
	}

	w.store.Update(ctx, job)
	w.publisher.Publish(ctx, events.JobEvent{JobID: job.ID, Status: job.Status, Timestamp: now})

	var query trapi.AsyncQuery

	if err := json.Unmarshal(job.Query, &query); err != nil {
		slog.Error("worker: malformed job query", slog.Int64("id", job.ID), slog.String("error", err.Error()))
		w.finish(ctx, job, trapi.Response{Message: trapi.EmptyMessage(), Status: trapi.StatusSuccess}, false)

		return
	}

	response, contributions := w.orchestrator.RunWithContributionCount(ctx, query.Query)

	w.finish(ctx, job, response, contributions > 0)
}

func (w *Worker) finish(ctx context.Context, job jobs.Job, response trapi.Response, succeeded bool) {
	body, err := json.Marshal(response)
	if err != nil {
		slog.Error("worker: marshal response", slog.Int64("id", job.ID), slog.String("error", err.Error()))
		body = nil
	}

	now := time.Now().UTC()

	if succeeded {
		if err := job.Complete(now, body); err != nil {
			slog.Error("worker: cannot complete job", slog.Int64("id", job.ID), slog.String("error", err.Error()))
		}
	} else if err := job.Fail(now); err != nil {
		slog.Error("worker: cannot fail job", slog.Int64("id", job.ID), slog.String("error", err.Error()))
	}

	w.store.Update(ctx, job)
	w.publisher.Publish(ctx, events.JobEvent{JobID: job.ID, Status: job.Status, Timestamp: now})

	if err := upstream.PostCallback(ctx, job.Callback, response); err != nil {
		slog.Warn("worker: callback delivery failed", slog.Int64("id", job.ID), slog.String("error", err.Error()))
	}
}
