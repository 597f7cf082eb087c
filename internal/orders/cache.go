package orders

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/Samryeshetu/amazon-full-stack/internal/domain"
	"github.com/redis/go-redis/v9"
)

type OrderCache interface {
	Get(ctx context.Context, shopperID string) ([]domain.Order, error)
	Set(ctx context.Context, shopperID string, orders []domain.Order) error
	Delete(ctx context.Context, shopperID string) error
}

var ErrCacheMiss = errors.New("cache miss")

func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{
		client:  client,
		baseTTL: 15 * time.Minute,
	}
}

// RedisCache holds the per-shopper order history list. It is a read-side
// optimization only; the live feed always reads the repository.
type RedisCache struct {
	client  *redis.Client
	baseTTL time.Duration
}

func (r RedisCache) Get(ctx context.Context, shopperID string) ([]domain.Order, error) {
	key := cacheKey(shopperID)

	data, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var orders []domain.Order
	if err2 := json.Unmarshal(data, &orders); err2 != nil {
		return nil, fmt.Errorf("unmarshal orders failed: %w", err2)
	}

	return orders, nil
}

func (r RedisCache) Set(ctx context.Context, shopperID string, orders []domain.Order) error {
	key := cacheKey(shopperID)
	data, err := json.Marshal(orders)
	if err != nil {
		return fmt.Errorf("marshal orders failed: %w", err)
	}

	jitter := time.Duration(rand.Intn(5)) * time.Minute
	ttl := r.baseTTL + jitter
	if err := r.client.Set(ctx, key, string(data), ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (r RedisCache) Delete(ctx context.Context, shopperID string) error {
	key := cacheKey(shopperID)
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}

	return nil
}

func cacheKey(shopperID string) string {
	return fmt.Sprintf("orders:%s", shopperID)
}
