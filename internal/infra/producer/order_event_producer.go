package producer

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"time"

	"github.com/RoyceAzure/lab/storefront/internal/event"
	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"
)

var (
	ErrProducerClosed = errors.New("producer closed")
)

// OrderEventProducer 把OrderCompleted事件發到kafka
// 同一張訂單的事件用orderID當key，落在同一個partition保持順序
type OrderEventProducer struct {
	writer *kafka.Writer
	closed atomic.Bool
}

func NewOrderEventProducer(brokers []string, topic string) *OrderEventProducer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		BatchTimeout: 100 * time.Millisecond,
		MaxAttempts:  3,
		Compression:  kafka.Snappy,
		ErrorLogger: kafka.LoggerFunc(func(msg string, args ...interface{}) {
			log.Error().Msgf("kafka producer: "+msg, args...)
		}),
	}

	return &OrderEventProducer{writer: writer}
}

func (p *OrderEventProducer) Publish(ctx context.Context, evt event.Event) error {
	if p.closed.Load() {
		return ErrProducerClosed
	}

	payload, err := json.Marshal(evt)
	if err != nil {
		return err
	}

	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(evt.GetAggregateID()),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(evt.Type())},
		},
	})
}

func (p *OrderEventProducer) Close() error {
	if !p.closed.CompareAndSwap(false, true) {
		return nil
	}
	return p.writer.Close()
}

var _ event.Publisher = (*OrderEventProducer)(nil)
