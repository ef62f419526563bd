package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/productadvisor/backend/internal/domain"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "advisor:session:"

// saveScript writes the result only if the stored sequence is not newer.
// KEYS[1] session key, ARGV[1] sequence, ARGV[2] payload, ARGV[3] ttl in ms.
var saveScript = redis.NewScript(`
local current = redis.call("HGET", KEYS[1], "seq")
if current and tonumber(current) > tonumber(ARGV[1]) then
  return 0
end
redis.call("HSET", KEYS[1], "seq", ARGV[1], "data", ARGV[2])
redis.call("PEXPIRE", KEYS[1], ARGV[3])
return 1
`)

// RedisResultCache is a ResultCache shared between server instances
type RedisResultCache struct {
	client *redis.Client
	ttl    time.Duration
}

var _ domain.ResultCache = (*RedisResultCache)(nil)

// NewRedisResultCache parses url and creates a redis backed result cache
func NewRedisResultCache(url string, ttl time.Duration) (*RedisResultCache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	return NewRedisResultCacheWithClient(redis.NewClient(opts), ttl), nil
}

// NewRedisResultCacheWithClient wraps an existing client
func NewRedisResultCacheWithClient(client *redis.Client, ttl time.Duration) *RedisResultCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisResultCache{client: client, ttl: ttl}
}

// Ping checks the connection
func (c *RedisResultCache) Ping(ctx context.Context) error {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrCacheUnavailable, err)
	}
	return nil
}

// Save stores result unless the session already holds a newer sequence
func (c *RedisResultCache) Save(ctx context.Context, sessionID string, result *domain.SearchResult) (bool, error) {
	data, err := json.Marshal(result)
	if err != nil {
		return false, err
	}

	stored, err := saveScript.Run(ctx, c.client,
		[]string{keyPrefix + sessionID},
		result.Sequence, data, c.ttl.Milliseconds(),
	).Int()
	if err != nil {
		return false, fmt.Errorf("%w: %v", domain.ErrCacheUnavailable, err)
	}
	return stored == 1, nil
}

// Latest retrieves the session's most recent stored result
func (c *RedisResultCache) Latest(ctx context.Context, sessionID string) (*domain.SearchResult, error) {
	data, err := c.client.HGet(ctx, keyPrefix+sessionID, "data").Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCacheUnavailable, err)
	}

	var result domain.SearchResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Close releases the underlying connection pool
func (c *RedisResultCache) Close() error {
	return c.client.Close()
}
