package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/example/ec-checkout/internal/infrastructure/store"
	"github.com/segmentio/kafka-go"
)

// EventHandler processes one decoded event
type EventHandler func(ctx context.Context, event store.Event) error

type Consumer struct {
	reader *kafka.Reader
	name   string
}

// NewConsumer joins groupID on topic. name prefixes log lines.
func NewConsumer(brokers []string, topic, groupID, name string) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 10e3, // 10KB
		MaxBytes: 10e6, // 10MB
	})
	return &Consumer{reader: reader, name: name}
}

// Consume reads until ctx is done. Offsets are committed after the handler
// runs, so a crash replays the in-flight event. Undecodable messages and
// handler failures are logged and skipped.
func (c *Consumer) Consume(ctx context.Context, handler EventHandler) error {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Printf("[%s] Error reading message: %v", c.name, err)
			continue
		}

		event, err := decodeEvent(msg.Value)
		if err != nil {
			log.Printf("[%s] Skipping message at offset %d: %v", c.name, msg.Offset, err)
		} else if err := handler(ctx, event); err != nil {
			log.Printf("[%s] Error handling %s for %s: %v", c.name, event.EventType, event.AggregateID, err)
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil && ctx.Err() == nil {
			log.Printf("[%s] Error committing offset %d: %v", c.name, msg.Offset, err)
		}
	}
}

func decodeEvent(value []byte) (store.Event, error) {
	var event store.Event
	if err := json.Unmarshal(value, &event); err != nil {
		return store.Event{}, fmt.Errorf("decode event: %w", err)
	}
	if event.AggregateID == "" || event.EventType == "" {
		return store.Event{}, fmt.Errorf("decode event: missing aggregate id or event type")
	}
	return event, nil
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}
