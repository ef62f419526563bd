package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/productadvisor/backend/internal/domain"
)

// DefaultMaxSessions bounds the number of sessions kept in memory
const DefaultMaxSessions = 10000

// DefaultTTL is how long a session's latest result is kept
const DefaultTTL = 24 * time.Hour

// MemoryResultCache is a thread-safe in-memory ResultCache bounded by size with TTL support
type MemoryResultCache struct {
	lru   *expirable.LRU[string, []byte]
	mutex sync.Mutex
}

var _ domain.ResultCache = (*MemoryResultCache)(nil)

// NewMemoryResultCache creates a new in-memory result cache
func NewMemoryResultCache(size int, ttl time.Duration) *MemoryResultCache {
	if size <= 0 {
		size = DefaultMaxSessions
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	return &MemoryResultCache{
		lru: expirable.NewLRU[string, []byte](size, nil, ttl),
	}
}

// Save stores result unless the session already holds a newer sequence
func (c *MemoryResultCache) Save(ctx context.Context, sessionID string, result *domain.SearchResult) (bool, error) {
	// Serialize so callers can't mutate stored results, same as the redis store
	data, err := json.Marshal(result)
	if err != nil {
		return false, err
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	if current, ok := c.lru.Get(sessionID); ok {
		var stored domain.SearchResult
		if err := json.Unmarshal(current, &stored); err == nil && stored.Sequence > result.Sequence {
			return false, nil
		}
	}

	c.lru.Add(sessionID, data)
	return true, nil
}

// Latest retrieves the session's most recent stored result
func (c *MemoryResultCache) Latest(ctx context.Context, sessionID string) (*domain.SearchResult, error) {
	data, ok := c.lru.Get(sessionID)
	if !ok {
		return nil, domain.ErrCacheMiss
	}

	var result domain.SearchResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Size returns the current number of sessions in the cache
func (c *MemoryResultCache) Size() int {
	return c.lru.Len()
}

// Clear removes all sessions from the cache
func (c *MemoryResultCache) Clear() {
	c.lru.Purge()
}
