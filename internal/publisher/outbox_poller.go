// Package publisher drains the transactional outbox into Kafka. Events are
// written to the order_events table in the same transaction as the orders
// they describe, so anything the poller reads is already durable.
package publisher

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/Itskartike/globaleats/internal/repository"
	"github.com/segmentio/kafka-go"
)

// MessageWriter is the slice of *kafka.Writer the poller needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

type OutboxPoller struct {
	tick      time.Duration
	batchSize int
	repo      repository.OutboxRepository
	writer    MessageWriter
}

func NewOutboxPoller(repo repository.OutboxRepository, brokers ...string) *OutboxPoller {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  "order-events",
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
	}
	return &OutboxPoller{
		tick:      time.Second,
		batchSize: 100,
		repo:      repo,
		writer:    w,
	}
}

// Close releases the Kafka writer's connections.
func (p *OutboxPoller) Close() error {
	if c, ok := p.writer.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func (p *OutboxPoller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.tick)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			p.processUnpublishedEvents(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (p *OutboxPoller) processUnpublishedEvents(ctx context.Context) {
	events, err := p.repo.GetUnprocessedEvents(ctx, p.batchSize)
	if err != nil {
		slog.Error("failed to fetch outbox events", "error", err)
		return
	}

	for _, event := range events {
		if err := p.publish(ctx, event); err != nil {
			slog.Error("failed to publish outbox event", "event_id", event.ID, "error", err)
			continue
		}

		if err := p.repo.MarkEventAsProcessed(ctx, event.ID); err != nil {
			// The event will be re-published next tick; consumers must
			// de-duplicate on order_id + event_type.
			slog.Error("failed to mark outbox event processed", "event_id", event.ID, "error", err)
			continue
		}
	}
}

func (p *OutboxPoller) publish(ctx context.Context, event *repository.OutboxEvent) error {
	msg := kafka.Message{
		Key:   []byte(event.AggregateID), // checkout batch id, keeps a batch's events ordered
		Value: event.Payload,             // already JSON from the database
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.EventType)},
		},
	}
	return p.writer.WriteMessages(ctx, msg)
}
