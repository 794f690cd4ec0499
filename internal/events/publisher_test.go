package events_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/TranslatorSRI/cqs/internal/events"
	"github.com/TranslatorSRI/cqs/internal/jobs"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNoopPublisher_DoesNothing(t *testing.T) {
	var publisher events.JobEventPublisher = events.NoopPublisher{}

	assert.NotPanics(t, func() {
		publisher.Publish(context.Background(), events.JobEvent{
			JobID:     1,
			Status:    jobs.StatusRunning,
			Timestamp: time.Now(),
		})
	})
}

func TestKafkaPublisher_PublishToUnreachableBrokerDoesNotBlockOrPanic(t *testing.T) {
	publisher := events.NewKafkaPublisher([]string{"127.0.0.1:1"}, "job-events", testLogger())

	done := make(chan struct{})

	go func() {
		defer close(done)

		publisher.Publish(context.Background(), events.JobEvent{
			JobID:     42,
			Status:    jobs.StatusFailed,
			Timestamp: time.Now(),
		})
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Publish did not return within the bounded publish timeout")
	}
}
