package cache

import (
	"context"
	"encoding/json"
	"time"

	redis "github.com/redis/go-redis/v9"

	"warungpay/backend/internal/domain"
)

type RedisTransactionCache struct {
	client *redis.Client
}

func NewRedisTransactionCache(addr string, password string, db int) *RedisTransactionCache {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	return &RedisTransactionCache{client: client}
}

func (c *RedisTransactionCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisTransactionCache) Close() error {
	return c.client.Close()
}

func (c *RedisTransactionCache) Get(ctx context.Context, key string) ([]domain.LogicalTransaction, bool, error) {
	val, err := c.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var txs []domain.LogicalTransaction
	if err := json.Unmarshal([]byte(val), &txs); err != nil {
		return nil, false, err
	}
	return txs, true, nil
}

func (c *RedisTransactionCache) Set(ctx context.Context, key string, txs []domain.LogicalTransaction, ttl time.Duration) error {
	payload, err := json.Marshal(txs)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, payload, ttl).Err()
}

func (c *RedisTransactionCache) Invalidate(ctx context.Context, key string) error {
	return c.client.Del(ctx, key).Err()
}
