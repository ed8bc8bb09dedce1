package cache

import (
	"context"
	"sync"
	"time"

	"github.com/dimitrije/orbit-api/internal/models"
	"github.com/google/uuid"
)

type memoryEntry struct {
	stats     models.DashboardStats
	expiresAt time.Time
}

// MemoryDashboardCache is a process-local cache for single-instance deployments and tests.
type MemoryDashboardCache struct {
	mu      sync.RWMutex
	entries map[uuid.UUID]memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

func NewMemoryDashboardCache(ttl time.Duration) *MemoryDashboardCache {
	return &MemoryDashboardCache{
		entries: make(map[uuid.UUID]memoryEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (c *MemoryDashboardCache) Get(_ context.Context, orgID uuid.UUID) (*models.DashboardStats, bool) {
	c.mu.RLock()
	e, ok := c.entries[orgID]
	c.mu.RUnlock()

	if !ok || !c.now().Before(e.expiresAt) {
		return nil, false
	}
	stats := e.stats
	return &stats, true
}

func (c *MemoryDashboardCache) Set(_ context.Context, orgID uuid.UUID, stats *models.DashboardStats) {
	c.mu.Lock()
	defer c.mu.Unlock()

	// drop expired entries while holding the lock anyway
	now := c.now()
	for id, e := range c.entries {
		if !now.Before(e.expiresAt) {
			delete(c.entries, id)
		}
	}
	c.entries[orgID] = memoryEntry{stats: *stats, expiresAt: now.Add(c.ttl)}
}

func (c *MemoryDashboardCache) Invalidate(_ context.Context, orgID uuid.UUID) {
	c.mu.Lock()
	delete(c.entries, orgID)
	c.mu.Unlock()
}
