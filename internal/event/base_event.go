package event

import "time"

type EventType string

const (
	OrderCompletedEventName EventType = "OrderCompleted"
)

type Event interface {
	Type() EventType
	GetID() string
	GetAggregateID() string
}

type BaseEvent struct {
	EventID     string    `json:"event_id"`
	AggregateID string    `json:"aggregate_id"`
	CreatedAt   time.Time `json:"created_at"`
	EventType   EventType `json:"event_type"`
}

func (e *BaseEvent) GetID() string {
	return e.EventID
}

func (e *BaseEvent) GetAggregateID() string {
	return e.AggregateID
}
