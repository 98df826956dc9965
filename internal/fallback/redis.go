// internal/fallback/redis.go
package fallback

import (
	"context"
	stderrors "errors"
	"time"

	"admission-checker/internal/common/errors"

	"github.com/redis/go-redis/v9"
)

// RedisCache shares verdicts between instances. Keys are prefix:university:degree.
type RedisCache struct {
	client redis.Cmdable
	prefix string
	ttl    time.Duration
}

func NewRedisCache(client redis.Cmdable, prefix string, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, prefix: prefix, ttl: ttl}
}

func (c *RedisCache) key(university, degree string) string {
	return c.prefix + ":" + university + ":" + degree
}

func (c *RedisCache) Get(ctx context.Context, university, degree string) (string, bool, error) {
	v, err := c.client.Get(ctx, c.key(university, degree)).Result()
	if stderrors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, errors.NewCacheUnavailableError("redis", err)
	}
	return v, true, nil
}

func (c *RedisCache) Put(ctx context.Context, university, degree, verdict string) error {
	if err := c.client.Set(ctx, c.key(university, degree), verdict, c.ttl).Err(); err != nil {
		return errors.NewCacheUnavailableError("redis", err)
	}
	return nil
}
