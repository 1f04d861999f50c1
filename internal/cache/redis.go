package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/federationserver/federationserver/internal/apierr"
	"github.com/federationserver/federationserver/internal/config"
)

// RedisCache is the Cache implementation backed by a real Redis server.
// Each record is stored as a hash so partial updates (UpdateField) don't
// require a read-modify-write round trip.
type RedisCache struct {
	client        *redis.Client
	logger        zerolog.Logger
	throwOnErrors bool
}

// NewRedis connects to Redis per cfg and returns a ready Cache.
func NewRedis(cfg config.CacheConfig, logger zerolog.Logger) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.Database,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}

	logger.Info().Str("addr", cfg.Addr()).Msg("connected to Redis cache")

	return &RedisCache{client: client, logger: logger, throwOnErrors: cfg.ThrowOnErrors}, nil
}

// Close releases the underlying client.
func (c *RedisCache) Close() error { return c.client.Close() }

func (c *RedisCache) fail(op string, err error) error {
	c.logger.Warn().Err(err).Str("op", op).Msg("cache operation failed")
	if c.throwOnErrors {
		return apierr.Wrap(apierr.Cache, "cache "+op+" failed", err)
	}
	return nil
}

func (c *RedisCache) Exists(ctx context.Context, key string) (bool, error) {
	n, err := c.client.Exists(ctx, key).Result()
	if err != nil {
		return false, c.fail("exists", err)
	}
	return n > 0, nil
}

func (c *RedisCache) Get(ctx context.Context, key string) (map[string]string, bool, error) {
	fields, err := c.client.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, false, c.fail("get", err)
	}
	if len(fields) == 0 {
		return nil, false, nil
	}
	return fields, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, fields map[string]string, ttl time.Duration) error {
	if len(fields) == 0 {
		return nil
	}
	values := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		values[k] = v
	}
	if err := c.client.HSet(ctx, key, values).Err(); err != nil {
		return c.fail("set", err)
	}
	if ttl > 0 {
		if err := c.client.Expire(ctx, key, ttl).Err(); err != nil {
			return c.fail("expire", err)
		}
	}
	return nil
}

func (c *RedisCache) UpdateField(ctx context.Context, key, field, value string) error {
	if err := c.client.HSet(ctx, key, field, value).Err(); err != nil {
		return c.fail("update_field", err)
	}
	return nil
}

func (c *RedisCache) Invalidate(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, key).Err(); err != nil {
		return c.fail("invalidate", err)
	}
	return nil
}

// CountKeys scans for keys with the given prefix using SCAN rather than
// KEYS, since Redis SCAN does not block the server on a large keyspace.
func (c *RedisCache) CountKeys(ctx context.Context, prefix string) (int64, error) {
	var count int64
	var cursor uint64
	for {
		keys, next, err := c.client.Scan(ctx, cursor, prefix+"*", 1000).Result()
		if err != nil {
			return 0, c.fail("count_keys", err)
		}
		count += int64(len(keys))
		cursor = next
		if cursor == 0 {
			break
		}
	}
	return count, nil
}

// LimitExceeded reports whether the given prefix already holds >= limit
// keys. Per spec.md §4.3, exceeding the limit causes writers to skip the
// cache write entirely rather than evict an existing entry.
func (c *RedisCache) LimitExceeded(ctx context.Context, prefix string, limit int) (bool, error) {
	if limit <= 0 {
		return false, nil
	}
	count, err := c.CountKeys(ctx, prefix)
	if err != nil {
		return false, err
	}
	return count >= int64(limit), nil
}
