package event

import (
	"strconv"
	"time"

	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
	"github.com/google/uuid"
)

// OrderCompletedEvent 結帳成功後發出，Order帶完整明細與商品
// 下游通知消費者失敗不會回捲結帳
type OrderCompletedEvent struct {
	BaseEvent
	Order *model.Order `json:"order"`
}

func (e *OrderCompletedEvent) Type() EventType {
	return OrderCompletedEventName
}

func NewOrderCompletedEvent(order *model.Order) *OrderCompletedEvent {
	return &OrderCompletedEvent{
		BaseEvent: BaseEvent{
			EventID:     uuid.NewString(),
			AggregateID: strconv.FormatUint(uint64(order.OrderID), 10),
			CreatedAt:   time.Now().UTC(),
			EventType:   OrderCompletedEventName,
		},
		Order: order,
	}
}
