package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/dimitrije/orbit-api/internal/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// New returns a Redis-backed cache when cfg.URL is set and reachable, and an
// in-memory cache otherwise.
func New(ctx context.Context, cfg config.RedisConfig, log *zap.Logger) DashboardCache {
	if cfg.URL == "" {
		log.Info("REDIS_URL not set, using in-memory dashboard cache")
		return NewMemoryDashboardCache(cfg.DashboardCacheTTL)
	}

	c, err := NewRedis(ctx, cfg, log)
	if err != nil {
		log.Warn("redis unavailable, falling back to in-memory dashboard cache", zap.Error(err))
		return NewMemoryDashboardCache(cfg.DashboardCacheTTL)
	}
	return c
}

func NewRedis(ctx context.Context, cfg config.RedisConfig, log *zap.Logger) (*RedisDashboardCache, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return NewRedisDashboardCache(client, cfg.DashboardCacheTTL, log), nil
}
