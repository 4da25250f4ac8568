package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const pageKeyPrefix = "page:"

// PageCache stores rendered public pages in Redis. A PageCache built with a
// nil client is disabled: Get always misses and writes are dropped. Redis
// errors are logged and never returned.
type PageCache struct {
	client *redis.Client
	logger *zap.Logger
}

// NewPageCache creates a page cache backed by client, which may be nil.
func NewPageCache(client *redis.Client, logger *zap.Logger) *PageCache {
	return &PageCache{client: client, logger: logger}
}

// Enabled reports whether pages are actually cached.
func (pc *PageCache) Enabled() bool {
	return pc != nil && pc.client != nil
}

// Get returns the cached body for key.
func (pc *PageCache) Get(ctx context.Context, key string) ([]byte, bool) {
	if !pc.Enabled() {
		return nil, false
	}

	val, err := pc.client.Get(ctx, pageKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		pc.logger.Warn("Page cache get failed", zap.String("key", key), zap.Error(err))
		return nil, false
	}

	pc.logger.Debug("Page cache hit", zap.String("key", key))
	return val, true
}

// Set stores body under key for ttl.
func (pc *PageCache) Set(ctx context.Context, key string, body []byte, ttl time.Duration) {
	if !pc.Enabled() {
		return
	}

	if err := pc.client.Set(ctx, pageKeyPrefix+key, body, ttl).Err(); err != nil {
		pc.logger.Warn("Page cache set failed", zap.String("key", key), zap.Error(err))
	}
}

// InvalidateAll removes every cached page.
func (pc *PageCache) InvalidateAll(ctx context.Context) {
	if !pc.Enabled() {
		return
	}

	var (
		cursor  uint64
		deleted int
	)
	for {
		keys, next, err := pc.client.Scan(ctx, cursor, pageKeyPrefix+"*", 100).Result()
		if err != nil {
			pc.logger.Warn("Page cache scan failed", zap.Error(err))
			return
		}
		if len(keys) > 0 {
			if err := pc.client.Del(ctx, keys...).Err(); err != nil {
				pc.logger.Warn("Page cache delete failed", zap.Error(err))
			}
			deleted += len(keys)
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}

	pc.logger.Info("Page cache cleared", zap.Int("deleted", deleted))
}
