package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"payment-reconciler/internal/core/domain"

	goredis "github.com/redis/go-redis/v9"
)

// OrderCache implements ports.OrderSnapshotCache using Redis. Snapshots are
// best-effort: the durable store stays authoritative and every caller falls
// through to it on a miss.
type OrderCache struct {
	client *goredis.Client
	prefix string
}

// NewOrderCache creates a new Redis-backed order snapshot cache.
func NewOrderCache(client *goredis.Client) *OrderCache {
	return &OrderCache{
		client: client,
		prefix: "order:",
	}
}

func (c *OrderCache) key(orderID int64) string {
	return c.prefix + strconv.FormatInt(orderID, 10)
}

// Get retrieves a cached order snapshot. Returns nil, nil on a miss.
func (c *OrderCache) Get(ctx context.Context, orderID int64) (*domain.Order, error) {
	val, err := c.client.Get(ctx, c.key(orderID)).Bytes()
	if err != nil {
		if err == goredis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("redis order get: %w", err)
	}

	var order domain.Order
	if err := json.Unmarshal(val, &order); err != nil {
		return nil, fmt.Errorf("unmarshal order snapshot: %w", err)
	}
	return &order, nil
}

// Set stores an order snapshot with TTL.
func (c *OrderCache) Set(ctx context.Context, order *domain.Order, ttl time.Duration) error {
	val, err := json.Marshal(order)
	if err != nil {
		return fmt.Errorf("marshal order snapshot: %w", err)
	}
	if err := c.client.Set(ctx, c.key(order.ID), val, ttl).Err(); err != nil {
		return fmt.Errorf("redis order set: %w", err)
	}
	return nil
}
