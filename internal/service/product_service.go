package service

import (
	"context"

	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
	"github.com/RoyceAzure/lab/storefront/internal/infra/repository/db"
)

// ProductService 商品瀏覽
// 注入cache-aside decorator後，庫存顯示會先走redis
type ProductService struct {
	productRepo db.IProductRepository
}

func NewProductService(productRepo db.IProductRepository) *ProductService {
	return &ProductService{productRepo: productRepo}
}

func (s *ProductService) GetProduct(ctx context.Context, productID uint) (*model.Product, error) {
	return s.productRepo.GetProductByID(ctx, productID)
}

func (s *ProductService) GetProductsInStock(ctx context.Context) ([]model.Product, error) {
	return s.productRepo.GetProductsInStock(ctx)
}

func (s *ProductService) GetProductsPaginated(ctx context.Context, page, pageSize int) ([]model.Product, int64, error) {
	return s.productRepo.GetProductsPaginated(ctx, page, pageSize)
}

// 瀏覽頁顯示用的庫存數，可能略為過期，結帳時會重驗
func (s *ProductService) GetProductStock(ctx context.Context, productID uint) (int, error) {
	return s.productRepo.GetProductStock(ctx, productID)
}
