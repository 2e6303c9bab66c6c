// Package cache provides caching implementations for repository interfaces.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"finance_etl/internal/feature/stockticks/domain/entity"
	"finance_etl/internal/feature/stockticks/usecase"
)

// DefaultNamespace prefixes every tick cache key.
const DefaultNamespace = "ticks"

const defaultTTL = 5 * time.Minute

// TTLFunc returns the lifetime of an entry written now.
type TTLFunc func() time.Duration

// FixedTTL returns a TTLFunc that always yields d.
func FixedTTL(d time.Duration) TTLFunc {
	return func() time.Duration { return d }
}

// CachingTickRepository decorates a TickRepository with Redis caching.
type CachingTickRepository struct {
	inner     usecase.TickRepository
	rdb       *redis.Client
	ttl       TTLFunc
	namespace string
}

var _ usecase.TickRepository = (*CachingTickRepository)(nil)

// NewCachingTickRepository decorates a TickRepository with Redis caching.
// A nil ttl caches for 5 minutes. If namespace is empty, it uses "ticks".
func NewCachingTickRepository(rdb *redis.Client, ttl TTLFunc, inner usecase.TickRepository, namespace string) *CachingTickRepository {
	if ttl == nil {
		ttl = FixedTTL(defaultTTL)
	}
	if namespace == "" {
		namespace = DefaultNamespace
	}
	return &CachingTickRepository{
		inner:     inner,
		rdb:       rdb,
		ttl:       ttl,
		namespace: namespace,
	}
}

// Find retrieves ticks, checking cache first then falling back to the database.
func (c *CachingTickRepository) Find(ctx context.Context, symbol string, limit int) ([]entity.Tick, error) {
	if c.rdb == nil {
		return c.inner.Find(ctx, symbol, limit)
	}

	key := c.cacheKey(symbol, limit)

	if b, err := c.rdb.Get(ctx, key).Bytes(); err == nil && len(b) > 0 {
		var out []entity.Tick
		if err := json.Unmarshal(b, &out); err == nil {
			return out, nil
		}
		// 破損したエントリは削除する
		_ = c.rdb.Del(ctx, key).Err()
	}

	out, err := c.inner.Find(ctx, symbol, limit)
	if err != nil {
		return nil, err
	}

	ttl := c.ttl()
	if ttl <= 0 {
		return out, nil
	}
	if b, err := json.Marshal(out); err == nil {
		_ = c.rdb.Set(ctx, key, b, ttl).Err()
	}
	return out, nil
}

// Invalidate drops every cached query of the given symbols.
func (c *CachingTickRepository) Invalidate(ctx context.Context, symbols ...string) error {
	return InvalidateTicks(ctx, c.rdb, c.namespace, symbols...)
}

// InvalidateTicks deletes the cached tick queries of each symbol under namespace.
// A nil client is a no-op.
func InvalidateTicks(ctx context.Context, rdb *redis.Client, namespace string, symbols ...string) error {
	if rdb == nil {
		return nil
	}
	if namespace == "" {
		namespace = DefaultNamespace
	}
	seen := map[string]struct{}{}
	for _, s := range symbols {
		prefix := keyPrefix(namespace, s)
		if _, ok := seen[prefix]; ok {
			continue
		}
		seen[prefix] = struct{}{}
		if err := deleteByPattern(ctx, rdb, prefix+"*"); err != nil {
			return fmt.Errorf("invalidate %s: %w", s, err)
		}
	}
	return nil
}

func (c *CachingTickRepository) cacheKey(symbol string, limit int) string {
	return fmt.Sprintf("%s%d", keyPrefix(c.namespace, symbol), limit)
}

func keyPrefix(namespace, symbol string) string {
	return fmt.Sprintf("%s:%s:", namespace, safe(strings.ToUpper(symbol)))
}

// deleteByPattern deletes all cache keys matching a given pattern using SCAN.
func deleteByPattern(ctx context.Context, rdb *redis.Client, pattern string) error {
	var cursor uint64
	for {
		keys, cur, err := rdb.Scan(ctx, cursor, pattern, 200).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := rdb.Del(ctx, keys...).Err(); err != nil {
				return err
			}
		}
		cursor = cur
		if cursor == 0 {
			break
		}
	}
	return nil
}

// safe escapes characters that are problematic for Redis keys.
func safe(s string) string {
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, ":", "_")
	return s
}
