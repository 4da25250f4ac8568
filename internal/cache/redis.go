// Package cache holds the Redis client setup and the rendered page cache.
package cache

import (
	"context"
	"fmt"
	"time"

	"skybound/internal/config"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ConnectRedis creates a Redis client and verifies the connection with a ping.
func ConnectRedis(ctx context.Context, cfg config.RedisConfig, logger *zap.Logger) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	logger.Info("Redis connected", zap.String("addr", cfg.Addr()), zap.Int("db", cfg.DB))
	return client, nil
}
