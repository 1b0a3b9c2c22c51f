package livemap

import (
	"context"
	"sync"

	"github.com/example/carpool/internal/models"
)

// Cache is the best-effort last-known-position cache. A Lookup miss is
// reported through ok, not through error; the store of record is the
// ride table, not this cache.
type Cache interface {
	Publish(ctx context.Context, rpt models.PositionReport) error
	Lookup(ctx context.Context, rideID string) (models.PositionReport, bool, error)
}

// MemoryCache is the cache used in tests and in deployments without
// Redis.
type MemoryCache struct {
	mu        sync.RWMutex
	positions map[string]models.PositionReport
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{positions: make(map[string]models.PositionReport)}
}

func (m *MemoryCache) Publish(ctx context.Context, rpt models.PositionReport) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.positions[rpt.RideID] = rpt
	return nil
}

func (m *MemoryCache) Lookup(ctx context.Context, rideID string) (models.PositionReport, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rpt, ok := m.positions[rideID]
	return rpt, ok, nil
}
