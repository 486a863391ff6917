package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
	"gorm.io/gorm"
)

var (
	// ErrInsufficientStock 庫存不足
	// 錯誤訊息固定帶商品名稱與目前可用數量
	ErrInsufficientStock = errors.New("Insufficient stock")
)

// DefaultLowStockThreshold 未設定門檻時的預設值
const DefaultLowStockThreshold = 5

// StockService 商品庫存的檢查與扣減
// Product.Stock 唯一的寫入路徑是 ReduceStock，其他元件不得直接改庫存
type StockService struct {
	lowStockThreshold int
}

func NewStockService(lowStockThreshold int) *StockService {
	if lowStockThreshold < 0 {
		lowStockThreshold = DefaultLowStockThreshold
	}
	return &StockService{lowStockThreshold: lowStockThreshold}
}

// 檢查庫存是否足夠，無副作用
func (s *StockService) HasAvailableStock(product *model.Product, quantity int) bool {
	return int(product.Stock) >= quantity
}

// 驗證庫存，不足時回傳帶商品名稱與可用數量的錯誤
func (s *StockService) ValidateAvailability(product *model.Product, quantity int) error {
	if !s.HasAvailableStock(product, quantity) {
		return fmt.Errorf("%w for %s. Available: %d", ErrInsufficientStock, product.Name, product.Stock)
	}
	return nil
}

// ReduceStock 原子性扣減庫存，必須在呼叫端的交易內執行
// 扣減是單一UPDATE語句，WHERE帶 stock >= quantity 防護
// 同商品的並發扣減由資料庫的row lock序列化，檢查後被搶走庫存的交易
// 會因為RowsAffected為0整筆回捲，不會出現負庫存
func (s *StockService) ReduceStock(ctx context.Context, tx *gorm.DB, product *model.Product, quantity int) error {
	res := tx.WithContext(ctx).Model(&model.Product{}).
		Where("product_id = ? AND stock >= ?", product.ProductID, quantity).
		Update("stock", gorm.Expr("stock - ?", quantity))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w for %s. Available: %d", ErrInsufficientStock, product.Name, product.Stock)
	}
	return nil
}

// 是否低於補貨門檻
func (s *StockService) IsLowStock(product *model.Product) bool {
	return int(product.Stock) <= s.lowStockThreshold
}

func (s *StockService) LowStockThreshold() int {
	return s.lowStockThreshold
}
