package worker_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TranslatorSRI/cqs/internal/jobs"
	"github.com/TranslatorSRI/cqs/internal/trapi"
	"github.com/TranslatorSRI/cqs/internal/worker"
)

type fakeJobStore struct {
	mu      sync.Mutex
	undone  []jobs.Job
	all     []jobs.Job
	updated []jobs.Job
	deleted []int64
}

func (f *fakeJobStore) FindUndone(_ context.Context) []jobs.Job {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]jobs.Job(nil), f.undone...)
}

func (f *fakeJobStore) FindAll(_ context.Context) []jobs.Job {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]jobs.Job(nil), f.all...)
}

func (f *fakeJobStore) Update(_ context.Context, job jobs.Job) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.updated = append(f.updated, job)
}

func (f *fakeJobStore) DeleteMany(_ context.Context, ids []int64) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.deleted = append(f.deleted, ids...)
}

type fakePipeline struct {
	response      trapi.Response
	contributions int
}

func (f fakePipeline) RunWithContributionCount(_ context.Context, _ trapi.Query) (trapi.Response, int) {
	return f.response, f.contributions
}

func TestReaper_DeletesOnlyStaleJobs(t *testing.T) {
	store := &fakeJobStore{
		all: []jobs.Job{
			{ID: 1, DateSubmitted: time.Now().UTC().Add(-2 * time.Hour)},
			{ID: 2, DateSubmitted: time.Now().UTC()},
		},
	}

	r := worker.NewReaper(store)
	r.Tick()

	assert.Equal(t, []int64{1}, store.deleted)
}

func TestWorker_CompletesJobAndDeliversCallback(t *testing.T) {
	var delivered trapi.Response

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&delivered))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	query, err := json.Marshal(trapi.AsyncQuery{Callback: srv.URL})
	require.NoError(t, err)

	store := &fakeJobStore{
		undone: []jobs.Job{
			{ID: 7, Status: jobs.StatusQueued, Query: query, Callback: srv.URL},
		},
	}

	pipeline := fakePipeline{
		response:      trapi.Response{Message: trapi.EmptyMessage(), Status: trapi.StatusSuccess},
		contributions: 1,
	}

	w := worker.NewWorker(store, pipeline)
	w.Tick()

	require.Len(t, store.updated, 2)
	assert.Equal(t, jobs.StatusRunning, store.updated[0].Status)
	assert.Equal(t, jobs.StatusCompleted, store.updated[1].Status)
	assert.Equal(t, trapi.StatusSuccess, delivered.Status)
}

func TestWorker_FailsJobWithZeroContributionsButStillDeliversCallback(t *testing.T) {
	delivered := false

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		delivered = true
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	query, err := json.Marshal(trapi.AsyncQuery{Callback: srv.URL})
	require.NoError(t, err)

	store := &fakeJobStore{
		undone: []jobs.Job{
			{ID: 9, Status: jobs.StatusQueued, Query: query, Callback: srv.URL},
		},
	}

	pipeline := fakePipeline{
		response:      trapi.Response{Message: trapi.EmptyMessage(), Status: trapi.StatusSuccess},
		contributions: 0,
	}

	w := worker.NewWorker(store, pipeline)
	w.Tick()

	require.Len(t, store.updated, 2)
	assert.Equal(t, jobs.StatusFailed, store.updated[1].Status)
	assert.True(t, delivered)
}
