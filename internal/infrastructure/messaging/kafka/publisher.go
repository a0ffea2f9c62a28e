// internal/infrastructure/messaging/kafka/publisher.go
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/your-org/storefront-api/internal/config"
	"github.com/your-org/storefront-api/internal/domain/order"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher writes order events to a Kafka topic, keyed by order id so
// events of one order stay in one partition.
type Publisher struct {
	writer messageWriter
}

// NewPublisher creates a publisher for cfg.Events
func NewPublisher(cfg config.EventsConfig) *Publisher {
	return &Publisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Topic:        cfg.Topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
			WriteTimeout: cfg.WriteTimeout,
			BatchTimeout: 10 * time.Millisecond,
		},
	}
}

// Publish implements order.EventPublisher
func (p *Publisher) Publish(ctx context.Context, event order.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal %s event: %w", event.Type, err)
	}

	msg := kafka.Message{
		Key:   []byte(event.OrderID.String()),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte(event.Type)},
		},
	}
	otel.GetTextMapPropagator().Inject(ctx, headerCarrier{headers: &msg.Headers})

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to write %s event: %w", event.Type, err)
	}
	return nil
}

// Close flushes and closes the underlying writer
func (p *Publisher) Close() error {
	return p.writer.Close()
}

// headerCarrier adapts Kafka headers to a propagation.TextMapCarrier
type headerCarrier struct {
	headers *[]kafka.Header
}

var _ propagation.TextMapCarrier = headerCarrier{}

func (c headerCarrier) Get(key string) string {
	for _, h := range *c.headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func (c headerCarrier) Set(key, value string) {
	for i, h := range *c.headers {
		if h.Key == key {
			(*c.headers)[i].Value = []byte(value)
			return
		}
	}
	*c.headers = append(*c.headers, kafka.Header{Key: key, Value: []byte(value)})
}

func (c headerCarrier) Keys() []string {
	keys := make([]string, 0, len(*c.headers))
	for _, h := range *c.headers {
		keys = append(keys, h.Key)
	}
	return keys
}
