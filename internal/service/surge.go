package service

import (
	"context"
	"math"
	"time"

	"go.uber.org/zap"

	"swiftride/internal/cache"
	"swiftride/internal/config"
	"swiftride/internal/domain"
	"swiftride/internal/geo"
	"swiftride/internal/repository"
)

// degreesPerKm approximates one kilometre in degrees of latitude. The
// surge window applies the same delta to longitude: the window is a
// coarse demand sample, not an exact circle.
const degreesPerKm = 0.009

// surgeNoSupplyRatio stands in for demand/supply when there is demand
// but zero supply.
const surgeNoSupplyRatio = 10.0

// SurgeService computes demand-based fare multipliers.
//
// The multiplier is always in [1.0, 3.0] with one decimal, and any
// failure along the way degrades to 1.0: pricing must never block or
// fail a ride request.
type SurgeService struct {
	rideRepo   repository.RideRepository
	driverRepo repository.DriverRepository
	store      cache.Store
	cfg        config.SurgeConfig
	logger     *zap.Logger
}

// NewSurgeService creates a new SurgeService.
func NewSurgeService(
	rideRepo repository.RideRepository,
	driverRepo repository.DriverRepository,
	store cache.Store,
	cfg config.SurgeConfig,
	logger *zap.Logger,
) *SurgeService {
	return &SurgeService{
		rideRepo:   rideRepo,
		driverRepo: driverRepo,
		store:      store,
		cfg:        cfg,
		logger:     logger,
	}
}

// Multiplier returns the surge multiplier at the given pickup point for
// the vehicle class.
func (s *SurgeService) Multiplier(ctx context.Context, class domain.VehicleClass, lat, lng float64) float64 {
	if cached, ok := s.store.GetSurgeMultiplier(ctx, string(class), lat, lng); ok {
		return cached
	}

	delta := s.cfg.RadiusKm * degreesPerKm
	box := geo.BoundingBox{
		MinLat: lat - delta,
		MaxLat: lat + delta,
		MinLng: lng - delta,
		MaxLng: lng + delta,
	}

	demand, err := s.rideRepo.CountActiveInBox(ctx, class, box, time.Now().Add(-s.cfg.DemandLookback))
	if err != nil {
		s.logger.Warn("surge demand count failed", zap.Error(err))
		return 1.0
	}

	supply, err := s.driverRepo.CountActiveInBox(ctx, class, box)
	if err != nil {
		s.logger.Warn("surge supply count failed", zap.Error(err))
		return 1.0
	}

	multiplier := multiplierFromCounts(demand, supply)
	s.store.SetSurgeMultiplier(ctx, string(class), lat, lng, multiplier)
	return multiplier
}

// multiplierFromCounts maps a demand/supply ratio onto the surge curve.
func multiplierFromCounts(demand, supply int) float64 {
	ratio := 1.0
	switch {
	case supply == 0 && demand > 0:
		ratio = surgeNoSupplyRatio
	case supply > 0:
		ratio = float64(demand) / float64(supply)
	}

	var multiplier float64
	switch {
	case ratio < 0.5:
		multiplier = 1.0
	case ratio < 1.0:
		multiplier = 1.0 + (ratio - 0.5)
	case ratio < 2.0:
		multiplier = 1.5 + (ratio-1.0)*0.5
	default:
		multiplier = math.Min(2.0+(ratio-2.0)*0.2, 3.0)
	}

	// One decimal keeps the multiplier presentable on receipts.
	return math.Round(multiplier*10) / 10
}
