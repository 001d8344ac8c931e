package cache

import (
	"context"
	"strconv"
	"time"
)

// DriverLocation is a cached driver position.
type DriverLocation struct {
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NearbyDriver is one entry of a cached matching result.
type NearbyDriver struct {
	DriverID       string  `json:"driver_id"`
	Latitude       float64 `json:"latitude"`
	Longitude      float64 `json:"longitude"`
	DistanceMeters float64 `json:"distance_meters"`
}

// StoredResponse is a recorded HTTP response for idempotent replay.
type StoredResponse struct {
	StatusCode  int    `json:"status_code"`
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
}

// Store is the read-through cache used by the matching, surge and
// idempotency paths.
//
// The cache is strictly an accelerator: lookups report a miss when the
// backend errors or the per-operation time budget is exceeded, and
// writes are best-effort. Callers must always be able to recompute the
// value from the source of truth.
type Store interface {
	GetDriverLocation(ctx context.Context, driverID string) (*DriverLocation, bool)
	SetDriverLocation(ctx context.Context, driverID string, loc DriverLocation)
	InvalidateDriverLocation(ctx context.Context, driverID string)

	GetNearbyDrivers(ctx context.Context, class string, lat, lng, radiusKm float64) ([]NearbyDriver, bool)
	SetNearbyDrivers(ctx context.Context, class string, lat, lng, radiusKm float64, drivers []NearbyDriver)

	GetSurgeMultiplier(ctx context.Context, class string, lat, lng float64) (float64, bool)
	SetSurgeMultiplier(ctx context.Context, class string, lat, lng, multiplier float64)

	GetResponse(ctx context.Context, key string) (*StoredResponse, bool)
	SetResponse(ctx context.Context, key string, resp StoredResponse)
}

// Key prefixes
const (
	driverLocationPrefix = "loc:driver:"
	nearbyPrefix         = "nearby:"
	surgePrefix          = "surge:"
	idempotencyPrefix    = "idem:"
)

// coord quantizes a coordinate to 4 decimal places (~11m) so nearby
// requests from the same area share cache entries.
func coord(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}

func nearbyKey(class string, lat, lng, radiusKm float64) string {
	return nearbyPrefix + class + ":" + coord(lat) + ":" + coord(lng) + ":" + strconv.FormatFloat(radiusKm, 'f', 1, 64)
}

func surgeKey(class string, lat, lng float64) string {
	return surgePrefix + class + ":" + coord(lat) + ":" + coord(lng)
}
