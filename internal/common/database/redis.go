// internal/common/database/redis.go
package database

import (
	"context"
	"fmt"
	"time"

	"admission-checker/internal/common/config"

	"github.com/redis/go-redis/v9"
)

// RedisClient is the shared verdict cache connection. Only a handful of
// requests run at once (one browser per check), so the pool stays small.
type RedisClient struct {
	client *redis.Client
}

func redisOptions(cfg config.RedisConfig) *redis.Options {
	return &redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
		PoolSize:     8,
		MinIdleConns: 1,
	}
}

// NewRedis connects and pings; the client is closed again if redis is unreachable.
func NewRedis(ctx context.Context, cfg config.RedisConfig) (*RedisClient, error) {
	c := &RedisClient{client: redis.NewClient(redisOptions(cfg))}
	if err := c.Ping(ctx); err != nil {
		_ = c.client.Close()
		return nil, err
	}
	return c, nil
}

func (c *RedisClient) Ping(ctx context.Context) error {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping %s failed: %w", c.client.Options().Addr, err)
	}
	return nil
}

func (c *RedisClient) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// GetClient exposes the go-redis client for the cache tier.
func (c *RedisClient) GetClient() *redis.Client {
	return c.client
}
