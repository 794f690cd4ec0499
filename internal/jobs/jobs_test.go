package jobs_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TranslatorSRI/cqs/internal/jobs"
)

func TestJob_StateMachine(t *testing.T) {
	now := time.Now().UTC()

	t.Run("queued starts to running", func(t *testing.T) {
		job := jobs.Job{Status: jobs.StatusQueued}
		require.NoError(t, job.Start(now))
		assert.Equal(t, jobs.StatusRunning, job.Status)
		require.NotNil(t, job.DateStarted)
	})

	t.Run("running completes with a response", func(t *testing.T) {
		job := jobs.Job{Status: jobs.StatusRunning}
		require.NoError(t, job.Complete(now, []byte(`{"status":"Success"}`)))
		assert.Equal(t, jobs.StatusCompleted, job.Status)
		assert.Equal(t, []byte(`{"status":"Success"}`), job.Response)
	})

	t.Run("running can fail but queued cannot", func(t *testing.T) {
		queued := jobs.Job{Status: jobs.StatusQueued}
		assert.ErrorIs(t, queued.Fail(now), jobs.ErrInvalidTransition)
		assert.Equal(t, jobs.StatusQueued, queued.Status)

		running := jobs.Job{Status: jobs.StatusRunning}
		require.NoError(t, running.Fail(now))
		assert.Equal(t, jobs.StatusFailed, running.Status)
	})

	t.Run("terminal states reject further transitions", func(t *testing.T) {
		completed := jobs.Job{Status: jobs.StatusCompleted}
		assert.ErrorIs(t, completed.Start(now), jobs.ErrInvalidTransition)
		assert.ErrorIs(t, completed.Fail(now), jobs.ErrInvalidTransition)

		failed := jobs.Job{Status: jobs.StatusFailed}
		assert.ErrorIs(t, failed.Complete(now, nil), jobs.ErrInvalidTransition)
	})

	t.Run("cannot complete a job that never started", func(t *testing.T) {
		job := jobs.Job{Status: jobs.StatusQueued}
		assert.ErrorIs(t, job.Complete(now, nil), jobs.ErrInvalidTransition)
	})
}
