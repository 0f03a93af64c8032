package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/segmentio/kafka-go"

	"github.com/DeafMist/club-pulse/internal/logger"
)

// MessageWriter is the subset of *kafka.Writer the publisher needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher writes BatchEvents to a single topic, keyed by batch.
type Publisher struct {
	w   MessageWriter
	log *slog.Logger
}

// NewPublisher creates a synchronous Kafka publisher for topic.
func NewPublisher(brokers []string, topic string, log *slog.Logger) *Publisher {
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		MaxAttempts:  3,
	}
	return NewPublisherWithWriter(w, log)
}

// NewPublisherWithWriter wraps an existing writer.
func NewPublisherWithWriter(w MessageWriter, log *slog.Logger) *Publisher {
	if log == nil {
		log = logger.Discard()
	}
	return &Publisher{w: w, log: log.With("component", "events")}
}

// PublishBatch sends ev. Events for one batch key land on one partition, so
// consumers see them in order.
func (p *Publisher) PublishBatch(ctx context.Context, ev BatchEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal batch event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(ev.Key),
		Value: data,
		Headers: []kafka.Header{
			{Key: "kind", Value: []byte(ev.Kind)},
			{Key: "run_id", Value: []byte(ev.RunID)},
		},
	}
	if err := p.w.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish batch event: %w", err)
	}

	p.log.Debug("published batch event",
		slog.String("key", string(ev.Key)),
		slog.String("kind", string(ev.Kind)),
		slog.String("run_id", ev.RunID),
	)
	return nil
}

// Close flushes and closes the writer.
func (p *Publisher) Close() error {
	return p.w.Close()
}
