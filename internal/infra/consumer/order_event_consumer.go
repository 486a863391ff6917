package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/RoyceAzure/lab/storefront/internal/event"
	event_handler "github.com/RoyceAzure/lab/storefront/internal/handler/event"
	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"
)

var (
	ErrConsumerClosed     = errors.New("consumer closed")
	ErrUnknownEventFormat = errors.New("unknown event format")
)

type IBaseConsumer interface {
	Start(ctx context.Context) error
	Stop()
}

// OrderEventConsumer 消費OrderCompleted事件，交給通知handler處理
// handler失敗只記log並照樣commit offset: 通知是at-least-once、fire-and-forget，
// 不重要到需要卡住整個partition
type OrderEventConsumer struct {
	reader    *kafka.Reader
	handler   event_handler.Handler
	closeOnce sync.Once
	closeChan chan struct{}
}

func NewOrderEventConsumer(brokers []string, topic, groupID string, handler event_handler.Handler) *OrderEventConsumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 10e3,
		MaxBytes: 10e6,
		MaxWait:  time.Second,
		Dialer: &kafka.Dialer{
			Timeout:   10 * time.Second,
			DualStack: true,
			KeepAlive: 30 * time.Second,
		},
		ErrorLogger: kafka.LoggerFunc(func(msg string, args ...interface{}) {
			log.Error().Msgf("kafka consumer: "+msg, args...)
		}),
	})

	return &OrderEventConsumer{
		reader:    reader,
		handler:   handler,
		closeChan: make(chan struct{}),
	}
}

func (c *OrderEventConsumer) checkIsClosed() bool {
	select {
	case <-c.closeChan:
		return true
	default:
		return false
	}
}

func (c *OrderEventConsumer) Start(ctx context.Context) error {
	if c.checkIsClosed() {
		return ErrConsumerClosed
	}

	go func() {
		for {
			select {
			case <-c.closeChan:
				return
			case <-ctx.Done():
				return
			default:
			}

			msg, err := c.reader.FetchMessage(ctx)
			if err != nil {
				if errors.Is(err, context.Canceled) {
					return
				}
				log.Error().Err(err).Msg("fetch message failed")
				continue
			}

			evt, err := transformData(msg)
			if err != nil {
				log.Error().Err(err).Str("topic", msg.Topic).Msg("transform message failed")
			} else if err := c.handler.HandleEvent(ctx, evt); err != nil {
				log.Error().Err(err).Str("event_id", evt.GetID()).Msg("handle event failed")
			}

			if err := c.reader.CommitMessages(ctx, msg); err != nil {
				log.Error().Err(err).Msg("commit message failed")
			}
		}
	}()

	return nil
}

// 依header的event_type還原事件
func transformData(msg kafka.Message) (event.Event, error) {
	var eventType string
	for _, h := range msg.Headers {
		if h.Key == "event_type" {
			eventType = string(h.Value)
		}
	}

	switch event.EventType(eventType) {
	case event.OrderCompletedEventName:
		var evt event.OrderCompletedEvent
		if err := json.Unmarshal(msg.Value, &evt); err != nil {
			return nil, err
		}
		return &evt, nil
	default:
		return nil, ErrUnknownEventFormat
	}
}

func (c *OrderEventConsumer) Stop() {
	c.closeOnce.Do(func() {
		close(c.closeChan)
	})

	if err := c.reader.Close(); err != nil {
		log.Error().Err(err).Msg("close kafka reader failed")
	}
}

var _ IBaseConsumer = (*OrderEventConsumer)(nil)
