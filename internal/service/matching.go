package service

import (
	"context"
	"sort"

	"swiftride/internal/cache"
	"swiftride/internal/config"
	"swiftride/internal/domain"
	"swiftride/internal/geo"
	"swiftride/internal/repository"
)

// MatchingService finds candidate drivers for a pickup point.
//
// Results are a best-effort snapshot: between matching and acceptance
// any candidate can go offline or take another ride. The conditional
// assignment in AcceptRide is what makes acceptance safe, not matching.
type MatchingService struct {
	driverRepo repository.DriverRepository
	store      cache.Store
	cfg        config.MatchingConfig
}

// NewMatchingService creates a new MatchingService.
func NewMatchingService(driverRepo repository.DriverRepository, store cache.Store, cfg config.MatchingConfig) *MatchingService {
	return &MatchingService{
		driverRepo: driverRepo,
		store:      store,
		cfg:        cfg,
	}
}

// FindNearbyDrivers returns up to MaxResults ACTIVE drivers of the
// class within radiusKm of the point, closest first. A radiusKm of 0
// uses the configured default radius.
func (s *MatchingService) FindNearbyDrivers(ctx context.Context, class domain.VehicleClass, lat, lng, radiusKm float64) ([]cache.NearbyDriver, error) {
	if !ValidLatitude(lat) || !ValidLongitude(lng) {
		return nil, ErrInvalidLocation
	}
	if !domain.ValidVehicleClass(class) {
		return nil, ErrInvalidVehicleClass
	}
	if radiusKm <= 0 {
		radiusKm = s.cfg.RadiusKm
	}

	if cached, ok := s.store.GetNearbyDrivers(ctx, string(class), lat, lng, radiusKm); ok {
		return cached, nil
	}

	radiusMeters := radiusKm * 1000
	box := geo.NewBoundingBox(lat, lng, radiusMeters)

	candidates, err := s.driverRepo.FindActiveInBox(ctx, class, box, s.cfg.CandidateCap)
	if err != nil {
		return nil, err
	}

	// The box over-approximates the circle; refine by exact distance.
	nearby := make([]cache.NearbyDriver, 0, len(candidates))
	for _, driver := range candidates {
		distance := geo.DistanceMeters(lat, lng, driver.Latitude, driver.Longitude)
		if distance > radiusMeters {
			continue
		}
		nearby = append(nearby, cache.NearbyDriver{
			DriverID:       driver.ID,
			Latitude:       driver.Latitude,
			Longitude:      driver.Longitude,
			DistanceMeters: distance,
		})
	}

	sort.Slice(nearby, func(i, j int) bool {
		return nearby[i].DistanceMeters < nearby[j].DistanceMeters
	})
	if len(nearby) > s.cfg.MaxResults {
		nearby = nearby[:s.cfg.MaxResults]
	}

	s.store.SetNearbyDrivers(ctx, string(class), lat, lng, radiusKm, nearby)
	return nearby, nil
}

// ValidLatitude reports whether lat is a usable latitude.
func ValidLatitude(lat float64) bool {
	return lat >= -90 && lat <= 90
}

// ValidLongitude reports whether lng is a usable longitude.
func ValidLongitude(lng float64) bool {
	return lng >= -180 && lng <= 180
}
