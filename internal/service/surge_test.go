package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"swiftride/internal/cache"
	"swiftride/internal/config"
	"swiftride/internal/domain"
)

func newSurgeFixture() (*SurgeService, *MockRideRepository, *MockDriverRepository, cache.Store) {
	rides := NewMockRideRepository()
	drivers := NewMockDriverRepository()
	store := cache.NewMemoryStore()
	svc := NewSurgeService(rides, drivers, store, config.Load().Surge, zap.NewNop())
	return svc, rides, drivers, store
}

func addPendingRides(rides *MockRideRepository, class domain.VehicleClass, lat, lng float64, n int) {
	for i := 0; i < n; i++ {
		rides.AddRide(&domain.Ride{
			ID:           uuid.New().String(),
			RiderID:      "rider-" + uuid.New().String(),
			PickupLat:    lat,
			PickupLng:    lng,
			VehicleClass: class,
			Status:       domain.RideStatusPending,
			CreatedAt:    time.Now(),
		})
	}
}

func addActiveDrivers(drivers *MockDriverRepository, class domain.VehicleClass, lat, lng float64, n int) {
	for i := 0; i < n; i++ {
		drivers.AddDriver(&domain.Driver{
			ID:           uuid.New().String(),
			VehicleClass: class,
			Status:       domain.DriverStatusActive,
			Latitude:     lat,
			Longitude:    lng,
		})
	}
}

func TestMultiplierFromCounts(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		demand   int
		supply   int
		expected float64
	}{
		{"no demand no supply", 0, 0, 1.0},
		{"no demand some supply", 0, 8, 1.0},
		{"quiet area", 2, 10, 1.0},            // ratio 0.2 < 0.5
		{"ratio exactly half", 5, 10, 1.0},    // 1.0 + (0.5-0.5)
		{"moderate demand", 8, 10, 1.3},       // 1.0 + 0.3
		{"balanced", 10, 10, 1.5},             // 1.5 + 0
		{"busy", 15, 10, 1.8},                 // 1.5 + 0.25 = 1.75 -> 1.8
		{"ratio two", 20, 10, 2.0},            // 2.0 + 0
		{"heavy demand", 50, 10, 2.6},         // 2.0 + 3*0.2
		{"extreme demand capped", 500, 10, 3.0},
		{"demand with zero supply", 3, 0, 3.0}, // ratio 10 -> capped
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, multiplierFromCounts(tt.demand, tt.supply))
		})
	}
}

func TestMultiplierStaysInBounds(t *testing.T) {
	t.Parallel()

	for demand := 0; demand <= 100; demand += 7 {
		for supply := 0; supply <= 100; supply += 7 {
			m := multiplierFromCounts(demand, supply)
			assert.GreaterOrEqual(t, m, 1.0, "demand=%d supply=%d", demand, supply)
			assert.LessOrEqual(t, m, 3.0, "demand=%d supply=%d", demand, supply)
		}
	}
}

func TestMultiplierComputesFromCounts(t *testing.T) {
	t.Parallel()
	svc, rides, drivers, _ := newSurgeFixture()

	// 10 pending rides against 10 active drivers in the same window.
	addPendingRides(rides, domain.VehicleClassCar, 12.9716, 77.5946, 10)
	addActiveDrivers(drivers, domain.VehicleClassCar, 12.9716, 77.5946, 10)

	m := svc.Multiplier(context.Background(), domain.VehicleClassCar, 12.9716, 77.5946)
	assert.Equal(t, 1.5, m)
}

func TestMultiplierUsesCachedValue(t *testing.T) {
	t.Parallel()
	svc, rides, _, store := newSurgeFixture()

	store.SetSurgeMultiplier(context.Background(), string(domain.VehicleClassCar), 12.9716, 77.5946, 2.4)

	// A repository failure must not matter on a cache hit.
	rides.CountError = errors.New("db down")

	m := svc.Multiplier(context.Background(), domain.VehicleClassCar, 12.9716, 77.5946)
	assert.Equal(t, 2.4, m)
}

func TestMultiplierDefaultsToOneOnFailure(t *testing.T) {
	t.Parallel()
	svc, rides, drivers, _ := newSurgeFixture()

	addPendingRides(rides, domain.VehicleClassCar, 12.9716, 77.5946, 30)
	rides.CountError = errors.New("db down")

	m := svc.Multiplier(context.Background(), domain.VehicleClassCar, 12.9716, 77.5946)
	assert.Equal(t, 1.0, m)

	rides.CountError = nil
	drivers.CountError = errors.New("db down")

	m = svc.Multiplier(context.Background(), domain.VehicleClassCar, 12.9716, 77.5946)
	assert.Equal(t, 1.0, m)
}

func TestMultiplierScopedToVehicleClass(t *testing.T) {
	t.Parallel()
	svc, rides, drivers, _ := newSurgeFixture()

	// Cars are slammed, autos are quiet at the same spot.
	addPendingRides(rides, domain.VehicleClassCar, 12.9716, 77.5946, 20)
	addActiveDrivers(drivers, domain.VehicleClassCar, 12.9716, 77.5946, 5)
	addActiveDrivers(drivers, domain.VehicleClassAuto, 12.9716, 77.5946, 5)

	carSurge := svc.Multiplier(context.Background(), domain.VehicleClassCar, 12.9716, 77.5946)
	autoSurge := svc.Multiplier(context.Background(), domain.VehicleClassAuto, 12.9716, 77.5946)

	assert.Greater(t, carSurge, 1.0)
	assert.Equal(t, 1.0, autoSurge)
}

func TestMultiplierIgnoresDemandOutsideWindow(t *testing.T) {
	t.Parallel()
	svc, rides, drivers, _ := newSurgeFixture()

	// Demand 50km away must not move the multiplier here.
	addPendingRides(rides, domain.VehicleClassCar, 13.4, 78.0, 30)
	addActiveDrivers(drivers, domain.VehicleClassCar, 12.9716, 77.5946, 2)

	m := svc.Multiplier(context.Background(), domain.VehicleClassCar, 12.9716, 77.5946)
	assert.Equal(t, 1.0, m)
}
