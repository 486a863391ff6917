package service

import (
	"context"
	"errors"
	"time"

	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
	"github.com/RoyceAzure/lab/storefront/internal/event"
	"github.com/RoyceAzure/lab/storefront/internal/infra/repository/db"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	// ErrCartEmpty 購物車為空，無法結帳
	ErrCartEmpty = errors.New("Cart is empty.")
)

// CheckoutService 把購物車轉成訂單
// 整個結帳流程在單一資料庫交易內執行，任何一步失敗全部回捲:
// 不會留下訂單、不會動到庫存、購物車保持原狀
type CheckoutService struct {
	dao          *db.DbDao
	cartService  *CartService
	stockService *StockService
	cartRepo     *db.CartRepo
	orderRepo    *db.OrderRepo
	productRepo  db.IProductRepository
	publisher    event.Publisher
}

func NewCheckoutService(
	dao *db.DbDao,
	cartService *CartService,
	stockService *StockService,
	cartRepo *db.CartRepo,
	orderRepo *db.OrderRepo,
	productRepo db.IProductRepository,
	publisher event.Publisher,
) *CheckoutService {
	return &CheckoutService{
		dao:          dao,
		cartService:  cartService,
		stockService: stockService,
		cartRepo:     cartRepo,
		orderRepo:    orderRepo,
		productRepo:  productRepo,
		publisher:    publisher,
	}
}

// Process 結帳
// 流程: 交易內重讀商品 -> 全部驗證完才開始異動 -> 建立訂單與明細(單價凍結)
// -> 逐項原子扣庫存 -> 清空購物車 -> commit -> 發布OrderCompleted
// 加入購物車時驗過的庫存不可信，期間可能有別的結帳把庫存消耗掉，必須重驗
func (s *CheckoutService) Process(ctx context.Context, user *model.User) (*model.Order, error) {
	cartItems, err := s.cartService.GetCart(ctx, user)
	if err != nil {
		return nil, err
	}
	if len(cartItems) == 0 {
		return nil, ErrCartEmpty
	}

	var orderID uint
	err = s.dao.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 先逐項重讀商品並驗證，全部通過才開始寫入
		products := make(map[uint]*model.Product, len(cartItems))
		for _, item := range cartItems {
			var product model.Product
			if err := tx.First(&product, "product_id = ?", item.ProductID).Error; err != nil {
				return err
			}
			if err := s.stockService.ValidateAvailability(&product, item.Quantity); err != nil {
				return err
			}
			products[item.ProductID] = &product
		}

		total := decimal.NewFromInt(0)
		for _, item := range cartItems {
			product := products[item.ProductID]
			total = total.Add(product.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
		}

		order := model.Order{
			UserID:    user.UserID,
			Amount:    total,
			Status:    model.OrderStatusCompleted,
			OrderDate: time.Now().UTC(),
		}
		if err := tx.Create(&order).Error; err != nil {
			return err
		}

		for _, item := range cartItems {
			product := products[item.ProductID]
			orderItem := model.OrderItem{
				OrderID:   order.OrderID,
				ProductID: product.ProductID,
				Quantity:  item.Quantity,
				// 單價取驗證當下讀到的值，之後不再重讀
				Price: product.Price,
			}
			if err := tx.Create(&orderItem).Error; err != nil {
				return err
			}
			if err := s.stockService.ReduceStock(ctx, tx, product, item.Quantity); err != nil {
				return err
			}
		}

		if err := s.cartRepo.WithTx(tx).ClearCart(ctx, user.UserID); err != nil {
			return err
		}

		orderID = order.OrderID
		return nil
	})
	if err != nil {
		return nil, err
	}

	order, err := s.orderRepo.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	s.publishOrderCompleted(ctx, order)

	return order, nil
}

// 發布結帳完成事件，best-effort
// 通知端失敗只記log，結帳本身已經commit，不受下游影響
func (s *CheckoutService) publishOrderCompleted(ctx context.Context, order *model.Order) {
	if s.publisher == nil {
		return
	}
	evt := event.NewOrderCompletedEvent(order)
	if err := s.publisher.Publish(ctx, evt); err != nil {
		log.Warn().Err(err).Uint("order_id", order.OrderID).Msg("publish order completed event failed")
	}
}

// GetLowStockProducts 回傳訂單內扣完庫存後低於門檻的商品
// 重新讀商品現況，不能拿訂單明細上凍結的快照來判斷
func (s *CheckoutService) GetLowStockProducts(ctx context.Context, order *model.Order) ([]model.Product, error) {
	var lowStock []model.Product
	for _, item := range order.OrderItems {
		product, err := s.productRepo.GetProductByID(ctx, item.ProductID)
		if err != nil {
			return nil, err
		}
		if s.stockService.IsLowStock(product) {
			lowStock = append(lowStock, *product)
		}
	}
	return lowStock, nil
}
