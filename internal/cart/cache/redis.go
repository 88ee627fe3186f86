package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"

	"storefront/internal/cart/domain"
)

const DefaultCartTTL = 15 * time.Minute

// NewRedisCache builds a cart cache with the given base TTL. A zero
// or negative ttl falls back to DefaultCartTTL.
func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = DefaultCartTTL
	}
	return &RedisCache{
		client:  client,
		baseTTL: ttl,
	}
}

type RedisCache struct {
	client  *redis.Client
	baseTTL time.Duration
}

func (r RedisCache) Get(ctx context.Context, sessionID string) (*domain.Cart, error) {
	key := cacheKey(sessionID)

	data, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var cart domain.Cart
	if err2 := json.Unmarshal(data, &cart); err2 != nil {
		return nil, fmt.Errorf("unmarshal cart failed: %w", err2)
	}

	return &cart, nil
}

func (r RedisCache) Set(ctx context.Context, sessionID string, cart *domain.Cart) error {
	key := cacheKey(sessionID)
	jsonCart, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("marshal cart failed: %w", err)
	}

	// jitter up to a quarter of the base TTL spreads expiry so a burst of
	// sessions does not all miss at once
	ttl := r.baseTTL
	if quarter := int64(r.baseTTL / 4); quarter > 0 {
		ttl += time.Duration(rand.Int63n(quarter))
	}
	if err := r.client.Set(ctx, key, string(jsonCart), ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (r RedisCache) Delete(ctx context.Context, sessionID string) error {
	key := cacheKey(sessionID)
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}

	return nil
}

func cacheKey(sessionID string) string {
	return fmt.Sprintf("cart:%s", sessionID)
}
