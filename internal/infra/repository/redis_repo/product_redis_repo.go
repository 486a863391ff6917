package redis_repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// IProductRedisRepository 定義 Redis 商品庫存快取的介面
type IProductRedisRepository interface {
	// GetProductStock 取得快取中的商品庫存數量
	GetProductStock(ctx context.Context, productID uint) (int, error)

	// SetProductStock 寫入商品庫存數量，帶TTL
	SetProductStock(ctx context.Context, productID uint, stock int) error

	// DeleteProductStock 刪除商品庫存快取
	DeleteProductStock(ctx context.Context, productID uint) error
}

type ProductRepoError error

var (
	// ErrCacheMiss 快取內沒有該商品
	ErrCacheMiss ProductRepoError = errors.New("product stock cache miss")
)

/*
redis 只放瀏覽頁面用的商品庫存快取
結帳的庫存檢查與扣減一律走資料庫交易，不讀這裡
過期資料靠TTL吸收
*/
type ProductRedisRepo struct {
	productCache *redis.Client
	ttl          time.Duration
}

func NewProductRedisRepo(productCache *redis.Client, ttl time.Duration) *ProductRedisRepo {
	return &ProductRedisRepo{productCache: productCache, ttl: ttl}
}

func generateProductStockKey(productID uint) string {
	return fmt.Sprintf("product:%d:stock", productID)
}

// 取得商品庫存數量
// 錯誤:
//   - ErrCacheMiss: 快取內沒有該商品
//   - err: 其他錯誤
func (s *ProductRedisRepo) GetProductStock(ctx context.Context, productID uint) (int, error) {
	redisKey := generateProductStockKey(productID)
	stock, err := s.productCache.Get(ctx, redisKey).Int()
	if err == redis.Nil {
		return 0, ErrCacheMiss
	}
	if err != nil {
		return 0, err
	}
	return stock, nil
}

func (s *ProductRedisRepo) SetProductStock(ctx context.Context, productID uint, stock int) error {
	redisKey := generateProductStockKey(productID)
	return s.productCache.Set(ctx, redisKey, stock, s.ttl).Err()
}

func (s *ProductRedisRepo) DeleteProductStock(ctx context.Context, productID uint) error {
	redisKey := generateProductStockKey(productID)
	return s.productCache.Del(ctx, redisKey).Err()
}

var _ IProductRedisRepository = (*ProductRedisRepo)(nil)
