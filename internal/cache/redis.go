package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"swiftride/internal/config"
)

// RedisStore implements Store on top of Redis.
type RedisStore struct {
	client *redis.Client
	logger *zap.Logger

	driverLocationTTL time.Duration
	nearbyTTL         time.Duration
	surgeTTL          time.Duration
	idempotencyTTL    time.Duration
	opTimeout         time.Duration
}

// NewRedisStore creates a Redis-backed cache store.
func NewRedisStore(client *redis.Client, cfg *config.Config, logger *zap.Logger) *RedisStore {
	return &RedisStore{
		client:            client,
		logger:            logger,
		driverLocationTTL: cfg.Cache.DriverLocationTTL,
		nearbyTTL:         cfg.Matching.CacheTTL,
		surgeTTL:          cfg.Surge.CacheTTL,
		idempotencyTTL:    cfg.Cache.IdempotencyTTL,
		opTimeout:         cfg.Cache.OpTimeout,
	}
}

// get reads and unmarshals a key into dest. It reports a miss on
// redis.Nil, on any backend error, and when the time budget runs out.
func (s *RedisStore) get(ctx context.Context, key string, dest any) bool {
	ctx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.Debug("cache read failed", zap.String("key", key), zap.Error(err))
		}
		return false
	}
	if err := json.Unmarshal(data, dest); err != nil {
		s.logger.Warn("cache entry corrupt", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

func (s *RedisStore) set(ctx context.Context, key string, value any, ttl time.Duration) {
	data, err := json.Marshal(value)
	if err != nil {
		s.logger.Warn("cache marshal failed", zap.String("key", key), zap.Error(err))
		return
	}

	ctx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	if err := s.client.Set(ctx, key, data, ttl).Err(); err != nil {
		s.logger.Debug("cache write failed", zap.String("key", key), zap.Error(err))
	}
}

// GetDriverLocation retrieves a driver's cached position.
func (s *RedisStore) GetDriverLocation(ctx context.Context, driverID string) (*DriverLocation, bool) {
	var loc DriverLocation
	if !s.get(ctx, driverLocationPrefix+driverID, &loc) {
		return nil, false
	}
	return &loc, true
}

// SetDriverLocation caches a driver's position.
func (s *RedisStore) SetDriverLocation(ctx context.Context, driverID string, loc DriverLocation) {
	s.set(ctx, driverLocationPrefix+driverID, loc, s.driverLocationTTL)
}

// InvalidateDriverLocation removes a driver's cached position.
func (s *RedisStore) InvalidateDriverLocation(ctx context.Context, driverID string) {
	ctx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	if err := s.client.Del(ctx, driverLocationPrefix+driverID).Err(); err != nil {
		s.logger.Debug("cache invalidation failed",
			zap.String("driver_id", driverID), zap.Error(err))
	}
}

// GetNearbyDrivers retrieves a cached matching result.
func (s *RedisStore) GetNearbyDrivers(ctx context.Context, class string, lat, lng, radiusKm float64) ([]NearbyDriver, bool) {
	var drivers []NearbyDriver
	if !s.get(ctx, nearbyKey(class, lat, lng, radiusKm), &drivers) {
		return nil, false
	}
	return drivers, true
}

// SetNearbyDrivers caches a matching result.
func (s *RedisStore) SetNearbyDrivers(ctx context.Context, class string, lat, lng, radiusKm float64, drivers []NearbyDriver) {
	s.set(ctx, nearbyKey(class, lat, lng, radiusKm), drivers, s.nearbyTTL)
}

// GetSurgeMultiplier retrieves a cached surge multiplier.
func (s *RedisStore) GetSurgeMultiplier(ctx context.Context, class string, lat, lng float64) (float64, bool) {
	ctx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	data, err := s.client.Get(ctx, surgeKey(class, lat, lng)).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.Debug("cache read failed", zap.String("key", surgeKey(class, lat, lng)), zap.Error(err))
		}
		return 0, false
	}

	multiplier, err := strconv.ParseFloat(data, 64)
	if err != nil {
		return 0, false
	}
	return multiplier, true
}

// SetSurgeMultiplier caches a surge multiplier.
func (s *RedisStore) SetSurgeMultiplier(ctx context.Context, class string, lat, lng, multiplier float64) {
	ctx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	key := surgeKey(class, lat, lng)
	value := strconv.FormatFloat(multiplier, 'f', -1, 64)
	if err := s.client.Set(ctx, key, value, s.surgeTTL).Err(); err != nil {
		s.logger.Debug("cache write failed", zap.String("key", key), zap.Error(err))
	}
}

// GetResponse retrieves a stored idempotent response.
func (s *RedisStore) GetResponse(ctx context.Context, key string) (*StoredResponse, bool) {
	var resp StoredResponse
	if !s.get(ctx, idempotencyPrefix+key, &resp) {
		return nil, false
	}
	return &resp, true
}

// SetResponse stores an idempotent response.
func (s *RedisStore) SetResponse(ctx context.Context, key string, resp StoredResponse) {
	s.set(ctx, idempotencyPrefix+key, resp, s.idempotencyTTL)
}

// Ensure RedisStore implements Store.
var _ Store = (*RedisStore)(nil)
