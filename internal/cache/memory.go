package cache

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-process Store used in tests and local
// development without a Redis instance. Entries expire lazily on read.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry

	driverLocationTTL time.Duration
	nearbyTTL         time.Duration
	surgeTTL          time.Duration
	idempotencyTTL    time.Duration
}

type memoryEntry struct {
	value     any
	expiresAt time.Time
}

// NewMemoryStore creates a MemoryStore with the default TTLs.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries:           make(map[string]memoryEntry),
		driverLocationTTL: 60 * time.Second,
		nearbyTTL:         30 * time.Second,
		surgeTTL:          5 * time.Minute,
		idempotencyTTL:    24 * time.Hour,
	}
}

func (s *MemoryStore) getEntry(key string) (any, bool) {
	s.mu.RLock()
	entry, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok || time.Now().After(entry.expiresAt) {
		return nil, false
	}
	return entry.value, true
}

func (s *MemoryStore) setEntry(key string, value any, ttl time.Duration) {
	s.mu.Lock()
	s.entries[key] = memoryEntry{value: value, expiresAt: time.Now().Add(ttl)}
	s.mu.Unlock()
}

// GetDriverLocation retrieves a driver's cached position.
func (s *MemoryStore) GetDriverLocation(_ context.Context, driverID string) (*DriverLocation, bool) {
	value, ok := s.getEntry(driverLocationPrefix + driverID)
	if !ok {
		return nil, false
	}
	loc := value.(DriverLocation)
	return &loc, true
}

// SetDriverLocation caches a driver's position.
func (s *MemoryStore) SetDriverLocation(_ context.Context, driverID string, loc DriverLocation) {
	s.setEntry(driverLocationPrefix+driverID, loc, s.driverLocationTTL)
}

// InvalidateDriverLocation removes a driver's cached position.
func (s *MemoryStore) InvalidateDriverLocation(_ context.Context, driverID string) {
	s.mu.Lock()
	delete(s.entries, driverLocationPrefix+driverID)
	s.mu.Unlock()
}

// GetNearbyDrivers retrieves a cached matching result.
func (s *MemoryStore) GetNearbyDrivers(_ context.Context, class string, lat, lng, radiusKm float64) ([]NearbyDriver, bool) {
	value, ok := s.getEntry(nearbyKey(class, lat, lng, radiusKm))
	if !ok {
		return nil, false
	}
	return value.([]NearbyDriver), true
}

// SetNearbyDrivers caches a matching result.
func (s *MemoryStore) SetNearbyDrivers(_ context.Context, class string, lat, lng, radiusKm float64, drivers []NearbyDriver) {
	s.setEntry(nearbyKey(class, lat, lng, radiusKm), drivers, s.nearbyTTL)
}

// GetSurgeMultiplier retrieves a cached surge multiplier.
func (s *MemoryStore) GetSurgeMultiplier(_ context.Context, class string, lat, lng float64) (float64, bool) {
	value, ok := s.getEntry(surgeKey(class, lat, lng))
	if !ok {
		return 0, false
	}
	return value.(float64), true
}

// SetSurgeMultiplier caches a surge multiplier.
func (s *MemoryStore) SetSurgeMultiplier(_ context.Context, class string, lat, lng, multiplier float64) {
	s.setEntry(surgeKey(class, lat, lng), multiplier, s.surgeTTL)
}

// GetResponse retrieves a stored idempotent response.
func (s *MemoryStore) GetResponse(_ context.Context, key string) (*StoredResponse, bool) {
	value, ok := s.getEntry(idempotencyPrefix + key)
	if !ok {
		return nil, false
	}
	resp := value.(StoredResponse)
	return &resp, true
}

// SetResponse stores an idempotent response.
func (s *MemoryStore) SetResponse(_ context.Context, key string, resp StoredResponse) {
	s.setEntry(idempotencyPrefix+key, resp, s.idempotencyTTL)
}

// Ensure MemoryStore implements Store.
var _ Store = (*MemoryStore)(nil)
