package db

import (
	"context"
	"errors"

	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
	"gorm.io/gorm"
)

var (
	// ErrCartItemNotFound 購物車明細不存在
	ErrCartItemNotFound = errors.New("cart item not found")
)

// 購物車資料列只有擁有者會寫入，不需要跨用戶鎖
type CartRepo struct {
	db *DbDao
}

func NewCartRepo(db *DbDao) *CartRepo {
	return &CartRepo{db: db}
}

// WithTx 回傳綁定在既有交易上的repo，結帳清空購物車時使用
func (s *CartRepo) WithTx(tx *gorm.DB) *CartRepo {
	return &CartRepo{db: NewDbDao(tx)}
}

// 取得用戶購物車全部明細，商品一併帶出
// 依主鍵排序，讓重複讀取的順序穩定
func (s *CartRepo) GetCartItems(ctx context.Context, userID uint) ([]model.CartItem, error) {
	var items []model.CartItem
	err := s.db.WithContext(ctx).
		Preload("Product").
		Where("user_id = ?", userID).
		Order("cart_item_id").
		Find(&items).Error
	return items, err
}

func (s *CartRepo) GetCartItemByID(ctx context.Context, cartItemID uint) (*model.CartItem, error) {
	var item model.CartItem
	err := s.db.WithContext(ctx).
		Preload("Product").
		First(&item, "cart_item_id = ?", cartItemID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCartItemNotFound
		}
		return nil, err
	}
	return &item, nil
}

// 查詢用戶購物車內某商品的明細，不存在回傳 (nil, nil)
func (s *CartRepo) GetCartItemByUserAndProduct(ctx context.Context, userID, productID uint) (*model.CartItem, error) {
	var item model.CartItem
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND product_id = ?", userID, productID).
		First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

func (s *CartRepo) CreateCartItem(ctx context.Context, item *model.CartItem) error {
	return s.db.WithContext(ctx).Create(item).Error
}

func (s *CartRepo) UpdateCartItemQuantity(ctx context.Context, cartItemID uint, quantity int) error {
	return s.db.WithContext(ctx).Model(&model.CartItem{}).
		Where("cart_item_id = ?", cartItemID).
		Update("quantity", quantity).Error
}

func (s *CartRepo) DeleteCartItem(ctx context.Context, cartItemID uint) error {
	return s.db.WithContext(ctx).Delete(&model.CartItem{}, "cart_item_id = ?", cartItemID).Error
}

// 清空用戶購物車
func (s *CartRepo) ClearCart(ctx context.Context, userID uint) error {
	return s.db.WithContext(ctx).Delete(&model.CartItem{}, "user_id = ?", userID).Error
}

var _ ICartRepository = (*CartRepo)(nil)
