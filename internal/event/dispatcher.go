package event

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog/log"
)

// Publisher 結帳完成事件的發布端
// kafka producer與in-process dispatcher都實作這個介面
type Publisher interface {
	Publish(ctx context.Context, evt Event) error
}

type HandlerFunc func(ctx context.Context, evt Event) error

var (
	ErrDispatcherClosed = errors.New("dispatcher closed")
)

// Dispatcher in-process發布訂閱
// 發布端只寫一則訊息進channel，訂閱者在背景goroutine各自消費
// 單機執行與測試時取代kafka
type Dispatcher struct {
	mu        sync.RWMutex
	handlers  map[EventType][]HandlerFunc
	eventChan chan Event
	closeChan chan struct{}
	closeOnce sync.Once
}

func NewDispatcher(buffer int) *Dispatcher {
	return &Dispatcher{
		handlers:  make(map[EventType][]HandlerFunc),
		eventChan: make(chan Event, buffer),
		closeChan: make(chan struct{}),
	}
}

// Subscribe 註冊處理器，需在Start前完成
func (d *Dispatcher) Subscribe(t EventType, h HandlerFunc) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[t] = append(d.handlers[t], h)
}

func (d *Dispatcher) checkIsClosed() bool {
	select {
	case <-d.closeChan:
		return true
	default:
		return false
	}
}

func (d *Dispatcher) Publish(ctx context.Context, evt Event) error {
	if d.checkIsClosed() {
		return ErrDispatcherClosed
	}

	select {
	case d.eventChan <- evt:
		return nil
	case <-d.closeChan:
		return ErrDispatcherClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Dispatcher) Start(ctx context.Context) error {
	if d.checkIsClosed() {
		return ErrDispatcherClosed
	}

	go func() {
		for {
			select {
			case <-d.closeChan:
				return
			case <-ctx.Done():
				return
			case evt := <-d.eventChan:
				d.dispatch(ctx, evt)
			}
		}
	}()

	return nil
}

func (d *Dispatcher) dispatch(ctx context.Context, evt Event) {
	d.mu.RLock()
	handlers := d.handlers[evt.Type()]
	d.mu.RUnlock()

	for _, h := range handlers {
		// 處理器失敗只記log，不影響其他訂閱者
		if err := h(ctx, evt); err != nil {
			log.Error().Err(err).
				Str("event_id", evt.GetID()).
				Str("event_type", string(evt.Type())).
				Msg("event handler failed")
		}
	}
}

func (d *Dispatcher) Stop() {
	d.closeOnce.Do(func() {
		close(d.closeChan)
	})
}

var _ Publisher = (*Dispatcher)(nil)
