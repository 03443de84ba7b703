package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/Itskartike/globaleats/domain"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisBatchCache caches checkout-batch views. Only persisted order state is
// cached — never outlet availability, which must stay fresh for resolution.
type RedisBatchCache struct {
	client  *redis.Client
	baseTTL time.Duration
}

func NewRedisBatchCache(client *redis.Client) *RedisBatchCache {
	return &RedisBatchCache{
		client:  client,
		baseTTL: 10 * time.Minute,
	}
}

func (r *RedisBatchCache) Get(ctx context.Context, batchID uuid.UUID) ([]*domain.Order, error) {
	data, err := r.client.Get(ctx, batchKey(batchID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var orders []*domain.Order
	if err := json.Unmarshal(data, &orders); err != nil {
		return nil, fmt.Errorf("unmarshal batch failed: %w", err)
	}
	return orders, nil
}

func (r *RedisBatchCache) Set(ctx context.Context, batchID uuid.UUID, orders []*domain.Order) error {
	data, err := json.Marshal(orders)
	if err != nil {
		return fmt.Errorf("marshal batch failed: %w", err)
	}

	// jitter spreads expiry so a burst of checkouts does not expire at once
	ttl := r.baseTTL + time.Duration(rand.Intn(120))*time.Second
	if err := r.client.Set(ctx, batchKey(batchID), data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (r *RedisBatchCache) Delete(ctx context.Context, batchID uuid.UUID) error {
	if err := r.client.Del(ctx, batchKey(batchID)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func batchKey(batchID uuid.UUID) string {
	return fmt.Sprintf("checkout-batch:%s", batchID)
}
