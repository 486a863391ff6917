package redis_decorator

import (
	"context"
	"errors"
	"time"

	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
	"github.com/RoyceAzure/lab/storefront/internal/infra/repository/db"
	"github.com/RoyceAzure/lab/storefront/internal/infra/repository/redis_repo"
	"github.com/rs/zerolog/log"
)

/*
cache-aside 商品庫存快取，只給瀏覽路徑用
結帳路徑在交易內直接讀寫products資料列，不經過這層
*/
type CacheAsideProductRepo struct {
	db.IProductRepository
	redis redis_repo.IProductRedisRepository
}

func NewCacheAsideProductRepo(dbRepo db.IProductRepository, redis redis_repo.IProductRedisRepository) db.IProductRepository {
	return &CacheAsideProductRepo{IProductRepository: dbRepo, redis: redis}
}

func (p *CacheAsideProductRepo) GetProductStock(ctx context.Context, productID uint) (int, error) {
	stock, err := p.redis.GetProductStock(ctx, productID)
	if err == nil {
		return stock, nil
	}
	if !errors.Is(err, redis_repo.ErrCacheMiss) {
		log.Warn().Err(err).Uint("product_id", productID).Msg("read product stock cache failed, fallback to db")
	}

	stock, err = p.IProductRepository.GetProductStock(ctx, productID)
	if err != nil {
		return 0, err
	}

	if err := p.redis.SetProductStock(ctx, productID, stock); err != nil {
		log.Warn().Err(err).Uint("product_id", productID).Msg("backfill product stock cache failed")
	}
	return stock, nil
}

func (p *CacheAsideProductRepo) UpdateProduct(ctx context.Context, product *model.Product) error {
	err := p.IProductRepository.UpdateProduct(ctx, product)
	if err != nil {
		return err
	}

	if err := p.redis.DeleteProductStock(ctx, product.ProductID); err != nil {
		// 失效失敗稍後補打一次，TTL會兜底
		go func() {
			time.Sleep(500 * time.Millisecond)
			if err := p.redis.DeleteProductStock(context.Background(), product.ProductID); err != nil {
				log.Warn().Err(err).Uint("product_id", product.ProductID).Msg("invalidate product stock cache failed")
			}
		}()
	}
	return nil
}
