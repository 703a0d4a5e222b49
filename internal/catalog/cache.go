package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/ariefcatur/go-storefront-checkout/internal/redisx"
	"github.com/redis/go-redis/v9"
)

var ErrCacheMiss = errors.New("cache miss")

// Cache holds the last product list fetched from the backend.
type Cache interface {
	Get(ctx context.Context) ([]Product, error)
	Set(ctx context.Context, products []Product) error
	Delete(ctx context.Context) error
}

type RedisCache struct {
	client  *redis.Client
	baseTTL time.Duration
}

func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = redisx.TTLCatalog
	}
	return &RedisCache{client: client, baseTTL: ttl}
}

func (r *RedisCache) Get(ctx context.Context) ([]Product, error) {
	data, err := r.client.Get(ctx, redisx.KeyCatalogProducts).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var products []Product
	if err := json.Unmarshal(data, &products); err != nil {
		return nil, fmt.Errorf("unmarshal products failed: %w", err)
	}
	return products, nil
}

func (r *RedisCache) Set(ctx context.Context, products []Product) error {
	b, err := json.Marshal(products)
	if err != nil {
		return fmt.Errorf("marshal products failed: %w", err)
	}
	// jitter spreads expiry across instances
	ttl := r.baseTTL + time.Duration(rand.Intn(30))*time.Second
	if err := r.client.Set(ctx, redisx.KeyCatalogProducts, b, ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (r *RedisCache) Delete(ctx context.Context) error {
	if err := r.client.Del(ctx, redisx.KeyCatalogProducts).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}
