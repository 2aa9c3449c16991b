package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/example/ec-checkout/internal/infrastructure/store"
	"github.com/segmentio/kafka-go"
)

const headerEventType = "event_type"

var _ store.Publisher = (*Producer)(nil)

// Producer publishes stored events keyed by aggregate id, so every event of
// one cart or order lands on the same partition in version order.
type Producer struct {
	writer *kafka.Writer
}

func NewProducer(brokers []string, topic string) *Producer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		BatchTimeout: 10 * time.Millisecond,
	}
	return &Producer{writer: writer}
}

func (p *Producer) Publish(ctx context.Context, key string, event any) error {
	msg, err := newMessage(key, event)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, msg)
}

func newMessage(key string, event any) (kafka.Message, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return kafka.Message{}, err
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: data,
		Time:  time.Now(),
	}
	if e, ok := event.(store.Event); ok {
		msg.Headers = []kafka.Header{{Key: headerEventType, Value: []byte(e.EventType)}}
	}
	return msg, nil
}

func (p *Producer) Close() error {
	return p.writer.Close()
}
