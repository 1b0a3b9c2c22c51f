package storage

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/example/carpool/internal/models"
)

// ErrNotFound is returned when a ride id has no record in the store.
var ErrNotFound = errors.New("ride not found")

// RideStore defines persistence operations for ride offers.
type RideStore interface {
	// Insert persists a new ride and assigns its ID and CreatedAt.
	Insert(ctx context.Context, r models.Ride) (models.Ride, error)
	// List returns every ride, newest first.
	List(ctx context.Context) ([]models.Ride, error)
	// UpdatePosition overwrites the live position of one ride. Both
	// fields are applied in a single update.
	UpdatePosition(ctx context.Context, id string, lat, lng float64) (models.Ride, error)
	// Delete removes a ride. Deleting an absent id is a no-op.
	Delete(ctx context.Context, id string) error
}

type memoryRide struct {
	ride models.Ride
	seq  uint64
}

// MemoryStore is the in-process fallback used when no database is
// configured, and the store of choice in tests.
type MemoryStore struct {
	mu    sync.RWMutex
	rides map[string]memoryRide
	seq   uint64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{rides: make(map[string]memoryRide)}
}

func (m *MemoryStore) Insert(ctx context.Context, r models.Ride) (models.Ride, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r.ID = newID()
	r.CreatedAt = time.Now().UTC()
	m.seq++
	m.rides[r.ID] = memoryRide{ride: r, seq: m.seq}
	return r, nil
}

func (m *MemoryStore) List(ctx context.Context) ([]models.Ride, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]memoryRide, 0, len(m.rides))
	for _, mr := range m.rides {
		out = append(out, mr)
	}
	// seq breaks ties when CreatedAt resolution collapses two inserts
	sort.Slice(out, func(i, j int) bool {
		if !out[i].ride.CreatedAt.Equal(out[j].ride.CreatedAt) {
			return out[i].ride.CreatedAt.After(out[j].ride.CreatedAt)
		}
		return out[i].seq > out[j].seq
	})
	rides := make([]models.Ride, len(out))
	for i, mr := range out {
		rides[i] = mr.ride
	}
	return rides, nil
}

func (m *MemoryStore) UpdatePosition(ctx context.Context, id string, lat, lng float64) (models.Ride, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	mr, ok := m.rides[id]
	if !ok {
		return models.Ride{}, ErrNotFound
	}
	mr.ride.CurrentLat = lat
	mr.ride.CurrentLng = lng
	m.rides[id] = mr
	return mr.ride, nil
}

func (m *MemoryStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rides, id)
	return nil
}

func newID() string {
	b := make([]byte, 8)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
