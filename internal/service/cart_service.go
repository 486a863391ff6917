package service

import (
	"context"
	"errors"

	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
	"github.com/RoyceAzure/lab/storefront/internal/infra/repository/db"
	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidQuantity 數量小於1
	ErrInvalidQuantity = errors.New("Quantity must be at least 1.")
	// ErrCartItemNotOwned 操作別人的購物車明細
	ErrCartItemNotOwned = errors.New("Cart item does not belong to this user.")
)

// CartService 用戶購物車操作
// 購物車內的商品不保留庫存，庫存只在結帳時扣
type CartService struct {
	cartRepo     db.ICartRepository
	productRepo  db.IProductRepository
	stockService *StockService
}

func NewCartService(cartRepo db.ICartRepository, productRepo db.IProductRepository, stockService *StockService) *CartService {
	return &CartService{cartRepo: cartRepo, productRepo: productRepo, stockService: stockService}
}

// 取得用戶購物車，商品一併帶出
func (s *CartService) GetCart(ctx context.Context, user *model.User) ([]model.CartItem, error) {
	return s.cartRepo.GetCartItems(ctx, user.UserID)
}

// 計算購物車總金額，單價讀商品目前的價格
// 訂單金額在結帳時凍結，購物車金額永遠跟著現價走，這個不對稱是刻意的
func (s *CartService) GetCartTotal(ctx context.Context, user *model.User) (decimal.Decimal, error) {
	items, err := s.cartRepo.GetCartItems(ctx, user.UserID)
	if err != nil {
		return decimal.Decimal{}, err
	}

	total := decimal.NewFromInt(0)
	for _, item := range items {
		total = total.Add(item.Product.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return total, nil
}

// 加入商品到購物車
// 已存在的(user, product)明細只累加數量，不會新增資料列
// 庫存驗證用累加後的總量，不是這次加入的增量
func (s *CartService) Add(ctx context.Context, user *model.User, product *model.Product, quantity int) (*model.CartItem, error) {
	if err := validateQuantity(quantity); err != nil {
		return nil, err
	}

	existing, err := s.cartRepo.GetCartItemByUserAndProduct(ctx, user.UserID, product.ProductID)
	if err != nil {
		return nil, err
	}

	newQuantity := quantity
	if existing != nil {
		newQuantity += existing.Quantity
	}

	if err := s.stockService.ValidateAvailability(product, newQuantity); err != nil {
		return nil, err
	}

	if existing != nil {
		if err := s.cartRepo.UpdateCartItemQuantity(ctx, existing.CartItemID, newQuantity); err != nil {
			return nil, err
		}
		return s.cartRepo.GetCartItemByID(ctx, existing.CartItemID)
	}

	item := &model.CartItem{
		UserID:    user.UserID,
		ProductID: product.ProductID,
		Quantity:  quantity,
	}
	if err := s.cartRepo.CreateCartItem(ctx, item); err != nil {
		return nil, err
	}
	return s.cartRepo.GetCartItemByID(ctx, item.CartItemID)
}

// 更新購物車明細數量
// 加入購物車之後庫存可能已經變動，必須重新讀取商品現況再驗證
func (s *CartService) Update(ctx context.Context, user *model.User, cartItem *model.CartItem, quantity int) (*model.CartItem, error) {
	if err := s.authorizeCartItem(user, cartItem); err != nil {
		return nil, err
	}
	if err := validateQuantity(quantity); err != nil {
		return nil, err
	}

	product, err := s.productRepo.GetProductByID(ctx, cartItem.ProductID)
	if err != nil {
		return nil, err
	}
	if err := s.stockService.ValidateAvailability(product, quantity); err != nil {
		return nil, err
	}

	if err := s.cartRepo.UpdateCartItemQuantity(ctx, cartItem.CartItemID, quantity); err != nil {
		return nil, err
	}
	return s.cartRepo.GetCartItemByID(ctx, cartItem.CartItemID)
}

// 移除單一明細，不影響其他明細與商品庫存
func (s *CartService) Remove(ctx context.Context, user *model.User, cartItem *model.CartItem) error {
	if err := s.authorizeCartItem(user, cartItem); err != nil {
		return err
	}
	return s.cartRepo.DeleteCartItem(ctx, cartItem.CartItemID)
}

// 清空用戶購物車
func (s *CartService) Clear(ctx context.Context, user *model.User) error {
	return s.cartRepo.ClearCart(ctx, user.UserID)
}

func validateQuantity(quantity int) error {
	if quantity < 1 {
		return ErrInvalidQuantity
	}
	return nil
}

func (s *CartService) authorizeCartItem(user *model.User, cartItem *model.CartItem) error {
	if cartItem.UserID != user.UserID {
		return ErrCartItemNotOwned
	}
	return nil
}
