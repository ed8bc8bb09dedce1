package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/dimitrije/orbit-api/internal/models"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type RedisDashboardCache struct {
	client *redis.Client
	ttl    time.Duration
	log    *zap.Logger
}

func NewRedisDashboardCache(client *redis.Client, ttl time.Duration, log *zap.Logger) *RedisDashboardCache {
	return &RedisDashboardCache{client: client, ttl: ttl, log: log}
}

func (c *RedisDashboardCache) Get(ctx context.Context, orgID uuid.UUID) (*models.DashboardStats, bool) {
	data, err := c.client.Get(ctx, dashboardKey(orgID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		c.log.Warn("dashboard cache read failed", zap.String("organization_id", orgID.String()), zap.Error(err))
		return nil, false
	}

	var stats models.DashboardStats
	if err := json.Unmarshal(data, &stats); err != nil {
		c.log.Warn("dashboard cache entry corrupt", zap.String("organization_id", orgID.String()), zap.Error(err))
		return nil, false
	}
	return &stats, true
}

func (c *RedisDashboardCache) Set(ctx context.Context, orgID uuid.UUID, stats *models.DashboardStats) {
	data, err := json.Marshal(stats)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, dashboardKey(orgID), data, c.ttl).Err(); err != nil {
		c.log.Warn("dashboard cache write failed", zap.String("organization_id", orgID.String()), zap.Error(err))
	}
}

func (c *RedisDashboardCache) Invalidate(ctx context.Context, orgID uuid.UUID) {
	if err := c.client.Del(ctx, dashboardKey(orgID)).Err(); err != nil {
		c.log.Warn("dashboard cache invalidation failed", zap.String("organization_id", orgID.String()), zap.Error(err))
	}
}

func (c *RedisDashboardCache) Close() error {
	return c.client.Close()
}
