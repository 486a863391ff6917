package handler

import (
	"context"
	"errors"
	"time"

	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
	"github.com/RoyceAzure/lab/storefront/internal/event"
	"github.com/RoyceAzure/lab/storefront/internal/infra/repository/db"
	"github.com/RoyceAzure/lab/storefront/internal/service"
	"github.com/rs/zerolog/log"
)

var (
	errUnknownEventFormat = errors.New("unknown event format")
)

type Handler interface {
	HandleEvent(ctx context.Context, evt event.Event) error
}

// OrderEventHandler 處理OrderCompleted事件的通知fan-out:
// 顧客確認信、管理員新訂單信、低庫存警示
// 全部fire-and-forget，任何一封失敗只記log，買家完全無感
type OrderEventHandler struct {
	mailService     service.IMailService
	checkoutService *service.CheckoutService
	stockService    *service.StockService
	orderRepo       db.IOrderRepository
	userRepo        db.IUserRepository
	adminEmail      string
	// 錯開兩封信的寄出時間，避免觸發郵件服務的流量限制
	newOrderDelay     time.Duration
	confirmationDelay time.Duration
}

func NewOrderEventHandler(
	mailService service.IMailService,
	checkoutService *service.CheckoutService,
	stockService *service.StockService,
	orderRepo db.IOrderRepository,
	userRepo db.IUserRepository,
	adminEmail string,
	newOrderDelay time.Duration,
	confirmationDelay time.Duration,
) *OrderEventHandler {
	return &OrderEventHandler{
		mailService:       mailService,
		checkoutService:   checkoutService,
		stockService:      stockService,
		orderRepo:         orderRepo,
		userRepo:          userRepo,
		adminEmail:        adminEmail,
		newOrderDelay:     newOrderDelay,
		confirmationDelay: confirmationDelay,
	}
}

func (h *OrderEventHandler) HandleEvent(ctx context.Context, evt event.Event) error {
	e, ok := evt.(*event.OrderCompletedEvent)
	if !ok {
		return errUnknownEventFormat
	}
	return h.handleOrderCompleted(ctx, e)
}

func (h *OrderEventHandler) handleOrderCompleted(ctx context.Context, e *event.OrderCompletedEvent) error {
	// 事件帶的order可能經過反序列化，重新讀一次完整關聯
	order, err := h.orderRepo.GetOrderByID(ctx, e.Order.OrderID)
	if err != nil {
		return err
	}
	user, err := h.userRepo.GetUserByID(ctx, order.UserID)
	if err != nil {
		return err
	}

	go h.sendAfter(h.newOrderDelay, "new order notification", func() error {
		return h.mailService.SendNewOrderNotification(context.Background(), h.adminEmail, order, user)
	})

	go h.sendAfter(h.confirmationDelay, "order confirmation", func() error {
		return h.mailService.SendOrderConfirmation(context.Background(), user.UserEmail, order, user)
	})

	go h.checkLowStock(order)

	return nil
}

func (h *OrderEventHandler) sendAfter(delay time.Duration, name string, send func() error) {
	time.Sleep(delay)
	if err := send(); err != nil {
		log.Error().Err(err).Str("mail", name).Msg("send notification mail failed")
	}
}

// 重新讀扣減後的商品現況，低於門檻才寄警示
func (h *OrderEventHandler) checkLowStock(order *model.Order) {
	ctx := context.Background()
	products, err := h.checkoutService.GetLowStockProducts(ctx, order)
	if err != nil {
		log.Error().Err(err).Uint("order_id", order.OrderID).Msg("check low stock failed")
		return
	}
	if len(products) == 0 {
		return
	}
	if err := h.mailService.SendLowStockNotification(ctx, h.adminEmail, products, h.stockService.LowStockThreshold()); err != nil {
		log.Error().Err(err).Msg("send low stock notification failed")
	}
}
