package db

import (
	"context"
	"errors"
	"time"

	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
	"gorm.io/gorm"
)

var (
	// ErrOrderNotFound 訂單不存在
	ErrOrderNotFound = errors.New("order not found")
)

type OrderRepo struct {
	db *DbDao
}

func NewOrderRepo(db *DbDao) *OrderRepo {
	return &OrderRepo{db: db}
}

// WithTx 回傳綁定在既有交易上的repo
func (s *OrderRepo) WithTx(tx *gorm.DB) *OrderRepo {
	return &OrderRepo{db: NewDbDao(tx)}
}

// Create - 創建訂單，OrderItems 一併寫入
func (s *OrderRepo) CreateOrder(ctx context.Context, order *model.Order) error {
	return s.db.WithContext(ctx).Create(order).Error
}

// Read - 根據ID查詢訂單，帶出明細與商品
func (s *OrderRepo) GetOrderByID(ctx context.Context, orderID uint) (*model.Order, error) {
	var order model.Order
	err := s.db.WithContext(ctx).
		Preload("OrderItems").
		Preload("OrderItems.Product").
		First(&order, "order_id = ?", orderID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return &order, nil
}

// Read - 根據用戶ID查詢訂單
func (s *OrderRepo) GetOrdersByUserID(ctx context.Context, userID uint) ([]model.Order, error) {
	var orders []model.Order
	err := s.db.WithContext(ctx).
		Preload("OrderItems").
		Where("user_id = ?", userID).
		Order("order_id DESC").
		Find(&orders).Error
	return orders, err
}

// Read - 日期區間內completed訂單數，日報表用
func (s *OrderRepo) GetCompletedOrderCount(ctx context.Context, start, end time.Time) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&model.Order{}).
		Where("order_date >= ? AND order_date < ?", start, end).
		Where("status = ?", model.OrderStatusCompleted).
		Count(&count).Error
	return count, err
}

var _ IOrderRepository = (*OrderRepo)(nil)
