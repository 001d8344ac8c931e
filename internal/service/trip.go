package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"swiftride/internal/cache"
	"swiftride/internal/domain"
	"swiftride/internal/maps"
	"swiftride/internal/notify"
	"swiftride/internal/repository"
)

// TripService handles the trip lifecycle from acceptance to completion.
type TripService struct {
	txRunner repository.TxRunner
	rideRepo repository.RideRepository
	tripRepo repository.TripRepository
	surge    *SurgeService
	fares    *FareCalculator
	router   maps.Router
	store    cache.Store
	notifier Notifier
	logger   *zap.Logger

	now func() time.Time
}

// NewTripService creates a new TripService.
func NewTripService(
	txRunner repository.TxRunner,
	rideRepo repository.RideRepository,
	tripRepo repository.TripRepository,
	surge *SurgeService,
	fares *FareCalculator,
	router maps.Router,
	store cache.Store,
	notifier Notifier,
	logger *zap.Logger,
) *TripService {
	return &TripService{
		txRunner: txRunner,
		rideRepo: rideRepo,
		tripRepo: tripRepo,
		surge:    surge,
		fares:    fares,
		router:   router,
		store:    store,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}
}

// AcceptRide assigns the ride to the driver and starts the trip.
//
// Any number of drivers may try to accept the same ride; the
// conditional PENDING check inside the transaction guarantees exactly
// one of them wins. Everyone else gets a conflict and moves on.
func (s *TripService) AcceptRide(ctx context.Context, driverID, rideID string) (*domain.Trip, error) {
	if driverID == "" {
		return nil, ErrInvalidDriverID
	}
	if rideID == "" {
		return nil, ErrInvalidRideID
	}

	ride, err := s.rideRepo.GetByID(ctx, rideID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrRideNotFound
		}
		return nil, err
	}
	if ride.Status != domain.RideStatusPending {
		return nil, ErrRideNotPending
	}

	// Snapshot the multiplier before the transaction; it is frozen on
	// the trip from here on, whatever demand does during the ride.
	surgeMultiplier := s.surge.Multiplier(ctx, ride.VehicleClass, ride.PickupLat, ride.PickupLng)

	trip := &domain.Trip{
		ID:              uuid.New().String(),
		RideID:          rideID,
		DriverID:        driverID,
		Status:          domain.TripStatusActive,
		SurgeMultiplier: surgeMultiplier,
		StartedAt:       s.now(),
	}

	// The driver is read inside the transaction so a driver who just won
	// another ride cannot pass the ACTIVE check and end up on two trips.
	var driver *domain.Driver
	err = s.txRunner.RunInTx(ctx, func(tx repository.Tx) error {
		driver, err = tx.Drivers.GetByID(ctx, driverID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrDriverNotFound
			}
			return err
		}
		if driver.Status != domain.DriverStatusActive {
			return ErrDriverNotActive
		}

		assigned, err := tx.Rides.AssignIfPending(ctx, rideID, driverID)
		if err != nil {
			return err
		}
		if !assigned {
			return ErrRideNotPending
		}
		if err := tx.Trips.Create(ctx, trip); err != nil {
			return err
		}
		return tx.Drivers.UpdateStatus(ctx, driverID, domain.DriverStatusOnTrip)
	})
	if err != nil {
		return nil, err
	}

	s.store.InvalidateDriverLocation(ctx, driverID)

	s.notifier.Dispatch(notify.Event{
		Recipient: ride.RiderID,
		Name:      notify.EventRideStarted,
		Payload: map[string]any{
			"ride_id":          rideID,
			"trip_id":          trip.ID,
			"driver_id":        driverID,
			"driver_name":      driver.Name,
			"surge_multiplier": surgeMultiplier,
		},
	})

	return trip, nil
}

// PauseTrip pauses the billing clock of an active trip.
func (s *TripService) PauseTrip(ctx context.Context, driverID, tripID string) (*domain.Trip, error) {
	trip, err := s.getDriverTrip(ctx, driverID, tripID)
	if err != nil {
		return nil, err
	}
	if trip.Status != domain.TripStatusActive {
		return nil, ErrTripNotActive
	}

	trip.Status = domain.TripStatusPaused
	trip.PausedAt = s.now()

	if err := s.tripRepo.Update(ctx, trip); err != nil {
		return nil, err
	}

	s.notifyRider(ctx, trip, notify.EventTripPaused, nil)
	return trip, nil
}

// ResumeTrip resumes a paused trip. The trip's start time is shifted
// forward by the paused span, so billable time is always a single
// now−startedAt subtraction and no interval list is kept.
func (s *TripService) ResumeTrip(ctx context.Context, driverID, tripID string) (*domain.Trip, error) {
	trip, err := s.getDriverTrip(ctx, driverID, tripID)
	if err != nil {
		return nil, err
	}
	if trip.Status != domain.TripStatusPaused {
		return nil, ErrTripNotPaused
	}

	pausedFor := s.now().Sub(trip.PausedAt)
	trip.StartedAt = trip.StartedAt.Add(pausedFor)
	trip.PausedAt = time.Time{}
	trip.Status = domain.TripStatusActive

	if err := s.tripRepo.Update(ctx, trip); err != nil {
		return nil, err
	}

	s.notifyRider(ctx, trip, notify.EventTripResumed, nil)
	return trip, nil
}

// EndTrip completes the trip and settles the final fare. Distance comes
// from the routing provider over the ride's pickup and destination;
// billable time excludes paused spans; the surge multiplier is the one
// frozen at acceptance.
func (s *TripService) EndTrip(ctx context.Context, driverID, tripID string) (*domain.Trip, error) {
	trip, err := s.getDriverTrip(ctx, driverID, tripID)
	if err != nil {
		return nil, err
	}
	if trip.Status == domain.TripStatusCompleted {
		return nil, ErrTripAlreadyEnded
	}

	ride, err := s.rideRepo.GetByID(ctx, trip.RideID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	billableEnd := now
	if trip.Status == domain.TripStatusPaused {
		// Ending while paused bills up to the pause, not up to now.
		billableEnd = trip.PausedAt
	}
	durationSeconds := int64(billableEnd.Sub(trip.StartedAt) / time.Second)
	if durationSeconds < 0 {
		durationSeconds = 0
	}

	route, err := s.router.Route(ctx, ride.PickupLat, ride.PickupLng, ride.DestLat, ride.DestLng)
	if err != nil {
		if errors.Is(err, maps.ErrNoRoute) {
			return nil, ErrNoRouteFound
		}
		return nil, Wrap(KindUpstreamUnavailable, "route lookup failed", err)
	}

	breakdown, err := s.fares.Final(ride.VehicleClass, route.DistanceMeters, durationSeconds, trip.SurgeMultiplier)
	if err != nil {
		return nil, err
	}

	trip.Status = domain.TripStatusCompleted
	trip.PausedAt = time.Time{}
	trip.EndedAt = now
	trip.BaseFare = breakdown.Base
	trip.DistanceFare = breakdown.Distance
	trip.TimeFare = breakdown.Time
	trip.FinalFare = breakdown.Total
	trip.TotalDistanceMeters = route.DistanceMeters
	trip.TotalDurationSeconds = durationSeconds

	err = s.txRunner.RunInTx(ctx, func(tx repository.Tx) error {
		if err := tx.Trips.Update(ctx, trip); err != nil {
			return err
		}
		if err := tx.Rides.UpdateStatus(ctx, trip.RideID, domain.RideStatusCompleted); err != nil {
			return err
		}
		return tx.Drivers.UpdateStatus(ctx, driverID, domain.DriverStatusActive)
	})
	if err != nil {
		return nil, err
	}

	s.notifyRider(ctx, trip, notify.EventTripEnded, map[string]any{
		"final_fare":             trip.FinalFare,
		"surge_multiplier":       trip.SurgeMultiplier,
		"total_distance_meters":  trip.TotalDistanceMeters,
		"total_duration_seconds": trip.TotalDurationSeconds,
	})

	return trip, nil
}

// GetTrip returns the trip if the actor is its driver or the rider of
// its ride.
func (s *TripService) GetTrip(ctx context.Context, actorID, tripID string) (*domain.Trip, error) {
	if tripID == "" {
		return nil, ErrInvalidTripID
	}

	trip, err := s.tripRepo.GetByID(ctx, tripID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTripNotFound
		}
		return nil, err
	}
	if trip.DriverID == actorID {
		return trip, nil
	}

	ride, err := s.rideRepo.GetByID(ctx, trip.RideID)
	if err != nil {
		return nil, err
	}
	if ride.RiderID != actorID {
		return nil, ErrNotTripDriver
	}
	return trip, nil
}

func (s *TripService) getDriverTrip(ctx context.Context, driverID, tripID string) (*domain.Trip, error) {
	if driverID == "" {
		return nil, ErrInvalidDriverID
	}
	if tripID == "" {
		return nil, ErrInvalidTripID
	}

	trip, err := s.tripRepo.GetByID(ctx, tripID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTripNotFound
		}
		return nil, err
	}
	if trip.DriverID != driverID {
		return nil, ErrNotTripDriver
	}
	return trip, nil
}

func (s *TripService) notifyRider(ctx context.Context, trip *domain.Trip, event string, extra map[string]any) {
	ride, err := s.rideRepo.GetByID(ctx, trip.RideID)
	if err != nil {
		s.logger.Warn("rider lookup for notification failed",
			zap.String("trip_id", trip.ID), zap.Error(err))
		return
	}

	payload := map[string]any{
		"trip_id": trip.ID,
		"ride_id": trip.RideID,
	}
	for k, v := range extra {
		payload[k] = v
	}

	s.notifier.Dispatch(notify.Event{
		Recipient: ride.RiderID,
		Name:      event,
		Payload:   payload,
	})
}
