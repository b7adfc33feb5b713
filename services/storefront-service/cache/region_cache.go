package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/tobaccostore/backend/services/storefront-service/models"
	"github.com/tobaccostore/backend/services/storefront-service/providers"
)

const (
	DefaultRegionTTL = 24 * time.Hour

	ProvinceCacheKey    = "rajaongkir:province"
	CityCachePrefix     = "rajaongkir:city:"
	DistrictCachePrefix = "rajaongkir:district:"
	cacheWriteTimeout   = 5 * time.Second
)

// RegionCache decorates a RateProvider with a Redis cache for the province,
// city and district lists. Concurrent misses for the same key share one
// upstream call. Cost quotes are passed through uncached.
type RegionCache struct {
	next  providers.RateProvider
	redis *redis.Client
	ttl   time.Duration
	group singleflight.Group
}

// NewRegionCache wraps next. A nil redis client disables caching but keeps
// miss collapsing.
func NewRegionCache(next providers.RateProvider, client *redis.Client, ttl time.Duration) *RegionCache {
	if ttl <= 0 {
		ttl = DefaultRegionTTL
	}
	return &RegionCache{next: next, redis: client, ttl: ttl}
}

func (c *RegionCache) Provinces(ctx context.Context) ([]models.Province, error) {
	return cached(ctx, c, ProvinceCacheKey, func(ctx context.Context) ([]models.Province, error) {
		return c.next.Provinces(ctx)
	})
}

func (c *RegionCache) Cities(ctx context.Context, provinceID int64) ([]models.City, error) {
	key := fmt.Sprintf("%s%d", CityCachePrefix, provinceID)
	return cached(ctx, c, key, func(ctx context.Context) ([]models.City, error) {
		return c.next.Cities(ctx, provinceID)
	})
}

func (c *RegionCache) Districts(ctx context.Context, cityID int64) ([]models.District, error) {
	key := fmt.Sprintf("%s%d", DistrictCachePrefix, cityID)
	return cached(ctx, c, key, func(ctx context.Context) ([]models.District, error) {
		return c.next.Districts(ctx, cityID)
	})
}

func (c *RegionCache) Cost(ctx context.Context, origin, destination int64, weight int, courier string) ([]models.ShippingQuote, error) {
	return c.next.Cost(ctx, origin, destination, weight, courier)
}

func cached[T any](ctx context.Context, c *RegionCache, key string, load func(context.Context) ([]T, error)) ([]T, error) {
	if items, ok := getList[T](ctx, c.redis, key); ok {
		return items, nil
	}

	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		items, err := load(ctx)
		if err != nil {
			return nil, err
		}
		// empty lists are not cached so a transient upstream gap is retried
		if len(items) > 0 {
			c.setAsync(key, items)
		}
		return items, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]T), nil
}

func getList[T any](ctx context.Context, client *redis.Client, key string) ([]T, bool) {
	if client == nil {
		return nil, false
	}
	data, err := client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			zap.L().Warn("Region cache read failed", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}
	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		zap.L().Warn("Failed to unmarshal cached regions", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	return items, true
}

func (c *RegionCache) setAsync(key string, value interface{}) {
	if c.redis == nil {
		return
	}
	payload, err := json.Marshal(value)
	if err != nil {
		zap.L().Warn("Failed to marshal regions for cache", zap.String("key", key), zap.Error(err))
		return
	}
	go func() {
		bgCtx, cancel := context.WithTimeout(context.Background(), cacheWriteTimeout)
		defer cancel()

		if err := c.redis.Set(bgCtx, key, payload, c.ttl).Err(); err != nil {
			zap.L().Warn("Failed to cache regions", zap.String("key", key), zap.Error(err))
		}
	}()
}
