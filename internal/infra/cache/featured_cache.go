package cache

import (
	"context"
	"encoding/json"
	"time"

	"app/internal/domain/model"

	"github.com/redis/go-redis/v9"
)

const featuredKey = "featured_products"

// featured商品のキャッシュ。Redisが落ちていてもDBで動けるよう、
// 失敗はエラーで返して呼び出し側がフォールバックする。
type FeaturedProductCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewFeaturedProductCache(rdb *redis.Client, ttl time.Duration) *FeaturedProductCache {
	return &FeaturedProductCache{rdb: rdb, ttl: ttl}
}

func (c *FeaturedProductCache) Get(ctx context.Context) ([]model.Product, bool, error) {
	raw, err := c.rdb.Get(ctx, featuredKey).Result()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var products []model.Product
	if err := json.Unmarshal([]byte(raw), &products); err != nil {
		//壊れたエントリは消して取り直す
		_ = c.rdb.Del(ctx, featuredKey).Err()
		return nil, false, nil
	}
	return products, true, nil
}

func (c *FeaturedProductCache) Set(ctx context.Context, products []model.Product) error {
	raw, err := json.Marshal(products)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, featuredKey, raw, c.ttl).Err()
}

func (c *FeaturedProductCache) Invalidate(ctx context.Context) error {
	return c.rdb.Del(ctx, featuredKey).Err()
}
