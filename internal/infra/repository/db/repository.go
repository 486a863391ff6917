package db

import (
	"context"
	"time"

	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
)

// IProductRepository Product 相關操作介面
type IProductRepository interface {
	CreateProduct(ctx context.Context, product *model.Product) error
	GetProductByID(ctx context.Context, productID uint) (*model.Product, error)
	GetProductByCode(ctx context.Context, code string) (*model.Product, error)
	GetAllProducts(ctx context.Context) ([]model.Product, error)
	GetProductsInStock(ctx context.Context) ([]model.Product, error)
	GetProductsPaginated(ctx context.Context, page, pageSize int) ([]model.Product, int64, error)
	GetProductStock(ctx context.Context, productID uint) (int, error)
	UpdateProduct(ctx context.Context, product *model.Product) error
}

// ICartRepository CartItem 相關操作介面
type ICartRepository interface {
	GetCartItems(ctx context.Context, userID uint) ([]model.CartItem, error)
	GetCartItemByID(ctx context.Context, cartItemID uint) (*model.CartItem, error)
	GetCartItemByUserAndProduct(ctx context.Context, userID, productID uint) (*model.CartItem, error)
	CreateCartItem(ctx context.Context, item *model.CartItem) error
	UpdateCartItemQuantity(ctx context.Context, cartItemID uint, quantity int) error
	DeleteCartItem(ctx context.Context, cartItemID uint) error
	ClearCart(ctx context.Context, userID uint) error
}

// IOrderRepository Order 相關操作介面
type IOrderRepository interface {
	CreateOrder(ctx context.Context, order *model.Order) error
	GetOrderByID(ctx context.Context, orderID uint) (*model.Order, error)
	GetOrdersByUserID(ctx context.Context, userID uint) ([]model.Order, error)
	GetCompletedOrderCount(ctx context.Context, start, end time.Time) (int64, error)
}

// IUserRepository User 相關操作介面
type IUserRepository interface {
	CreateUser(ctx context.Context, user *model.User) (*model.User, error)
	GetUserByID(ctx context.Context, userID uint) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
}
