package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"swiftride/internal/cache"
	"swiftride/internal/config"
	"swiftride/internal/domain"
	"swiftride/internal/maps"
	"swiftride/internal/notify"
)

type rideFixture struct {
	rides    *MockRideRepository
	matcher  *fakeMatcher
	router   *fakeRouter
	notifier *recordingNotifier
	svc      *RideService
}

func newRideFixture() *rideFixture {
	f := &rideFixture{
		rides:    NewMockRideRepository(),
		matcher:  &fakeMatcher{},
		router:   &fakeRouter{route: maps.Route{DistanceMeters: 7500, DurationSeconds: 1080}},
		notifier: &recordingNotifier{},
	}
	fares := NewFareCalculator(config.Load().Pricing)
	f.svc = NewRideService(f.rides, f.matcher, fares, f.router, f.notifier, zap.NewNop())
	return f
}

func validCreateRequest() CreateRideRequest {
	return CreateRideRequest{
		RiderID:       "rider-1",
		PickupAddress: "100 Main St",
		PickupLat:     40.7128,
		PickupLng:     -74.0060,
		DestAddress:   "200 Broadway",
		DestLat:       40.7589,
		DestLng:       -73.9851,
		VehicleClass:  domain.VehicleClassCar,
	}
}

func TestCreateRidePersistsPendingWithEstimate(t *testing.T) {
	t.Parallel()
	f := newRideFixture()

	ride, err := f.svc.CreateRide(context.Background(), validCreateRequest())
	require.NoError(t, err)

	assert.Equal(t, domain.RideStatusPending, ride.Status)
	assert.Equal(t, "rider-1", ride.RiderID)
	assert.Equal(t, domain.DefaultTier, ride.Tier)
	assert.Equal(t, domain.PaymentMethodCash, ride.PaymentMethod)
	// round(50 + 15*7.5 + 3*18) over the fixed 7.5km/18min route.
	assert.Equal(t, int64(217), ride.EstimatedFare)
	assert.NotNil(t, f.rides.GetRide(ride.ID))
}

func TestCreateRideReplaysByIdempotencyKey(t *testing.T) {
	t.Parallel()
	f := newRideFixture()

	req := validCreateRequest()
	req.IdempotencyKey = "retry-key-1"

	first, err := f.svc.CreateRide(context.Background(), req)
	require.NoError(t, err)

	second, err := f.svc.CreateRide(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, int32(1), f.rides.CreateCallCount)
}

func TestCreateRideNotifiesMatchedDrivers(t *testing.T) {
	t.Parallel()
	f := newRideFixture()
	f.matcher.drivers = []cache.NearbyDriver{
		{DriverID: "driver-1", DistanceMeters: 400},
		{DriverID: "driver-2", DistanceMeters: 900},
	}

	ride, err := f.svc.CreateRide(context.Background(), validCreateRequest())
	require.NoError(t, err)

	offers := f.notifier.eventsNamed(notify.EventNewRide)
	require.Len(t, offers, 2)
	assert.Equal(t, "driver-1", offers[0].Recipient)
	assert.Equal(t, "driver-2", offers[1].Recipient)
	payload := offers[0].Payload.(map[string]any)
	assert.Equal(t, ride.ID, payload["ride_id"])
}

func TestCreateRideSucceedsWhenMatchingFails(t *testing.T) {
	t.Parallel()
	f := newRideFixture()
	f.matcher.err = errors.New("db down")

	ride, err := f.svc.CreateRide(context.Background(), validCreateRequest())
	require.NoError(t, err)
	assert.Equal(t, domain.RideStatusPending, ride.Status)
	assert.Empty(t, f.notifier.eventsNamed(notify.EventNewRide))
}

func TestCreateRideValidation(t *testing.T) {
	t.Parallel()
	f := newRideFixture()

	tests := []struct {
		name     string
		mutate   func(*CreateRideRequest)
		expected error
	}{
		{"missing rider", func(r *CreateRideRequest) { r.RiderID = "" }, ErrInvalidRiderID},
		{"bad pickup lat", func(r *CreateRideRequest) { r.PickupLat = 95 }, ErrInvalidPickupLocation},
		{"bad pickup lng", func(r *CreateRideRequest) { r.PickupLng = -200 }, ErrInvalidPickupLocation},
		{"bad destination", func(r *CreateRideRequest) { r.DestLat = -91 }, ErrInvalidDestinationLocation},
		{"unknown class", func(r *CreateRideRequest) { r.VehicleClass = "SCOOTER" }, ErrInvalidVehicleClass},
		{"unknown payment method", func(r *CreateRideRequest) { r.PaymentMethod = "GOLD" }, ErrInvalidPaymentMethod},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validCreateRequest()
			tt.mutate(&req)
			_, err := f.svc.CreateRide(context.Background(), req)
			assert.ErrorIs(t, err, tt.expected)
		})
	}
}

func TestCreateRideNoRoute(t *testing.T) {
	t.Parallel()
	f := newRideFixture()
	f.router.err = maps.ErrNoRoute

	_, err := f.svc.CreateRide(context.Background(), validCreateRequest())
	assert.ErrorIs(t, err, ErrNoRouteFound)
}

func TestCreateRideRoutingOutage(t *testing.T) {
	t.Parallel()
	f := newRideFixture()
	f.router.err = errors.New("connection refused")

	_, err := f.svc.CreateRide(context.Background(), validCreateRequest())
	require.Error(t, err)
	assert.Equal(t, KindUpstreamUnavailable, KindOf(err))
}

func TestGetRideStatusOwnership(t *testing.T) {
	t.Parallel()
	f := newRideFixture()
	f.rides.AddRide(&domain.Ride{
		ID:               "ride-1",
		RiderID:          "rider-1",
		AssignedDriverID: "driver-1",
		Status:           domain.RideStatusOngoing,
	})

	ride, err := f.svc.GetRideStatus(context.Background(), "rider-1", "ride-1")
	require.NoError(t, err)
	assert.Equal(t, "ride-1", ride.ID)

	_, err = f.svc.GetRideStatus(context.Background(), "driver-1", "ride-1")
	assert.NoError(t, err)

	_, err = f.svc.GetRideStatus(context.Background(), "rider-2", "ride-1")
	assert.ErrorIs(t, err, ErrNotRideOwner)

	_, err = f.svc.GetRideStatus(context.Background(), "rider-1", "no-such-ride")
	assert.ErrorIs(t, err, ErrRideNotFound)
}

func TestCancelRide(t *testing.T) {
	t.Parallel()
	f := newRideFixture()
	f.rides.AddRide(&domain.Ride{
		ID:        "ride-1",
		RiderID:   "rider-1",
		Status:    domain.RideStatusPending,
		CreatedAt: time.Now(),
	})

	ride, err := f.svc.CancelRide(context.Background(), "rider-1", "ride-1", "changed plans")
	require.NoError(t, err)
	assert.Equal(t, domain.RideStatusCancelled, ride.Status)
	assert.Equal(t, "changed plans", ride.CancelReason)
	assert.False(t, ride.CancelledAt.IsZero())
}

func TestCancelRideWithdrawsOfferFromNearbyDrivers(t *testing.T) {
	t.Parallel()
	f := newRideFixture()
	f.matcher.drivers = []cache.NearbyDriver{
		{DriverID: "driver-1", DistanceMeters: 400},
		{DriverID: "driver-2", DistanceMeters: 900},
	}
	f.rides.AddRide(&domain.Ride{
		ID:        "ride-1",
		RiderID:   "rider-1",
		Status:    domain.RideStatusPending,
		CreatedAt: time.Now(),
	})

	_, err := f.svc.CancelRide(context.Background(), "rider-1", "ride-1", "changed plans")
	require.NoError(t, err)

	withdrawals := f.notifier.eventsNamed(notify.EventRideCancelled)
	require.Len(t, withdrawals, 2)
	assert.Equal(t, "driver-1", withdrawals[0].Recipient)
	assert.Equal(t, "driver-2", withdrawals[1].Recipient)
	payload := withdrawals[0].Payload.(map[string]any)
	assert.Equal(t, "ride-1", payload["ride_id"])
}

func TestCancelRideSucceedsWhenMatchingFails(t *testing.T) {
	t.Parallel()
	f := newRideFixture()
	f.matcher.err = errors.New("db down")
	f.rides.AddRide(&domain.Ride{
		ID:      "ride-1",
		RiderID: "rider-1",
		Status:  domain.RideStatusPending,
	})

	ride, err := f.svc.CancelRide(context.Background(), "rider-1", "ride-1", "")
	require.NoError(t, err)
	assert.Equal(t, domain.RideStatusCancelled, ride.Status)
	assert.Empty(t, f.notifier.eventsNamed(notify.EventRideCancelled))
}

func TestCancelRideGuards(t *testing.T) {
	t.Parallel()
	f := newRideFixture()
	f.rides.AddRide(&domain.Ride{
		ID:      "ride-ongoing",
		RiderID: "rider-1",
		Status:  domain.RideStatusOngoing,
	})

	// Only the rider can cancel.
	_, err := f.svc.CancelRide(context.Background(), "rider-2", "ride-ongoing", "")
	assert.ErrorIs(t, err, ErrNotRideOwner)

	// An accepted ride can no longer be cancelled.
	_, err = f.svc.CancelRide(context.Background(), "rider-1", "ride-ongoing", "")
	assert.ErrorIs(t, err, ErrRideNotPending)

	_, err = f.svc.CancelRide(context.Background(), "rider-1", "no-such-ride", "")
	assert.ErrorIs(t, err, ErrRideNotFound)
}
