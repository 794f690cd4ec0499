// Package events implements the Job Event Publisher (C14): an optional, best-effort Kafka
// publisher that emits job lifecycle transitions for external observability consumers.
package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/TranslatorSRI/cqs/internal/jobs"
)

const publishTimeout = 2 * time.Second

// JobEvent is one job lifecycle transition.
type JobEvent struct {
	JobID     int64       `json:"job_id"` //nolint:tagliatelle
	Status    jobs.Status `json:"status"`
	Timestamp time.Time   `json:"timestamp"`
}

// JobEventPublisher publishes job lifecycle events. Callers treat a publish failure as
// non-fatal: the job pipeline never blocks on or reverts because of it.
type JobEventPublisher interface {
	Publish(ctx context.Context, event JobEvent)
}

// NoopPublisher discards every event. It's the default when KAFKA_BROKERS is unset, so the
// Worker carries zero publisher overhead when the feature isn't configured.
type NoopPublisher struct{}

// Publish does nothing.
func (NoopPublisher) Publish(context.Context, JobEvent) {}

// KafkaPublisher writes job events to a Kafka topic, one message per event, best-effort.
type KafkaPublisher struct {
	writer *kafka.Writer
	logger *slog.Logger
}

// NewKafkaPublisher builds a publisher writing to topic across brokers. Close should be called
// on server shutdown to flush and release the underlying connections.
func NewKafkaPublisher(brokers []string, topic string, logger *slog.Logger) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.LeastBytes{},
			RequiredAcks: kafka.RequireOne,
			Async:        true,
		},
		logger: logger,
	}
}

// Publish writes event to the configured topic, bounded by publishTimeout. The writer is
// asynchronous, so WriteMessages returns without waiting for the broker and delivery failures are
// not reported here; an error WriteMessages does return is logged and swallowed — job event
// delivery is ambient observability, never load-bearing, the same
// posture the teacher takes with its own best-effort audit logging.
func (p *KafkaPublisher) Publish(ctx context.Context, event JobEvent) {
	body, err := json.Marshal(event)
	if err != nil {
		p.logger.Warn("events: failed to marshal job event", slog.Int64("job_id", event.JobID), slog.String("error", err.Error()))

		return
	}

	publishCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	msg := kafka.Message{
		Key:   []byte(jobIDKey(event.JobID)),
		Value: body,
	}

	if err := p.writer.WriteMessages(publishCtx, msg); err != nil {
		p.logger.Warn("events: failed to publish job event",
			slog.Int64("job_id", event.JobID),
			slog.String("status", string(event.Status)),
			slog.String("error", err.Error()),
		)
	}
}

// Close flushes and closes the underlying Kafka writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

func jobIDKey(id int64) string {
	return strconv.FormatInt(id, 10)
}
