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

// Notifier fans out lifecycle events to connected parties. Delivery is
// best-effort and never blocks the caller.
type Notifier interface {
	Dispatch(event notify.Event)
}

// Matcher finds candidate drivers for a pickup point. It is the
// contract MatchingService fulfills; tests substitute fakes.
type Matcher interface {
	FindNearbyDrivers(ctx context.Context, class domain.VehicleClass, lat, lng, radiusKm float64) ([]cache.NearbyDriver, error)
}

// Ensure MatchingService implements Matcher.
var _ Matcher = (*MatchingService)(nil)

// RideService handles ride requests from submission to acceptance.
type RideService struct {
	rideRepo repository.RideRepository
	matcher  Matcher
	fares    *FareCalculator
	router   maps.Router
	notifier Notifier
	logger   *zap.Logger
}

// NewRideService creates a new RideService.
func NewRideService(
	rideRepo repository.RideRepository,
	matcher Matcher,
	fares *FareCalculator,
	router maps.Router,
	notifier Notifier,
	logger *zap.Logger,
) *RideService {
	return &RideService{
		rideRepo: rideRepo,
		matcher:  matcher,
		fares:    fares,
		router:   router,
		notifier: notifier,
		logger:   logger,
	}
}

// CreateRideRequest contains the parameters for creating a ride.
type CreateRideRequest struct {
	RiderID        string
	PickupAddress  string
	PickupLat      float64
	PickupLng      float64
	DestAddress    string
	DestLat        float64
	DestLng        float64
	VehicleClass   domain.VehicleClass
	Tier           string
	PaymentMethod  domain.PaymentMethod
	IdempotencyKey string
}

// CreateRide validates the request, estimates the fare over the actual
// driving route and persists the ride as PENDING. When the request
// carries an idempotency key already tied to a ride, that ride is
// returned instead of creating a second one.
func (s *RideService) CreateRide(ctx context.Context, req CreateRideRequest) (*domain.Ride, error) {
	if err := s.validateCreateRequest(&req); err != nil {
		return nil, err
	}

	if req.IdempotencyKey != "" {
		existing, err := s.rideRepo.GetByIdempotencyKey(ctx, req.IdempotencyKey)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return existing, nil
		}
	}

	route, err := s.router.Route(ctx, req.PickupLat, req.PickupLng, req.DestLat, req.DestLng)
	if err != nil {
		if errors.Is(err, maps.ErrNoRoute) {
			return nil, ErrNoRouteFound
		}
		return nil, Wrap(KindUpstreamUnavailable, "route estimate failed", err)
	}

	estimate, err := s.fares.Estimate(req.VehicleClass, route.DistanceMeters, route.DurationSeconds)
	if err != nil {
		return nil, err
	}

	ride := &domain.Ride{
		ID:             uuid.New().String(),
		RiderID:        req.RiderID,
		PickupAddress:  req.PickupAddress,
		PickupLat:      req.PickupLat,
		PickupLng:      req.PickupLng,
		DestAddress:    req.DestAddress,
		DestLat:        req.DestLat,
		DestLng:        req.DestLng,
		VehicleClass:   req.VehicleClass,
		Tier:           req.Tier,
		PaymentMethod:  req.PaymentMethod,
		EstimatedFare:  estimate,
		Status:         domain.RideStatusPending,
		IdempotencyKey: req.IdempotencyKey,
		CreatedAt:      time.Now(),
	}

	if err := s.rideRepo.Create(ctx, ride); err != nil {
		// Two requests with the same key raced past the lookup above;
		// the loser returns the winner's ride.
		if errors.Is(err, repository.ErrDuplicateKey) && req.IdempotencyKey != "" {
			existing, lookupErr := s.rideRepo.GetByIdempotencyKey(ctx, req.IdempotencyKey)
			if lookupErr == nil && existing != nil {
				return existing, nil
			}
		}
		return nil, err
	}

	s.offerToNearbyDrivers(ctx, ride)

	return ride, nil
}

// offerToNearbyDrivers notifies matched drivers about a new ride.
// Matching failures only cost the push; riders can still be matched
// when a driver polls or the request is retried.
func (s *RideService) offerToNearbyDrivers(ctx context.Context, ride *domain.Ride) {
	drivers, err := s.matcher.FindNearbyDrivers(ctx, ride.VehicleClass, ride.PickupLat, ride.PickupLng, 0)
	if err != nil {
		s.logger.Warn("matching after ride creation failed",
			zap.String("ride_id", ride.ID), zap.Error(err))
		return
	}

	for _, driver := range drivers {
		s.notifier.Dispatch(notify.Event{
			Recipient: driver.DriverID,
			Name:      notify.EventNewRide,
			Payload: map[string]any{
				"ride_id":         ride.ID,
				"pickup_lat":      ride.PickupLat,
				"pickup_lng":      ride.PickupLng,
				"pickup_address":  ride.PickupAddress,
				"vehicle_class":   ride.VehicleClass,
				"estimated_fare":  ride.EstimatedFare,
				"distance_meters": driver.DistanceMeters,
			},
		})
	}
}

// GetRideStatus returns the ride if the actor is its rider or its
// assigned driver.
func (s *RideService) GetRideStatus(ctx context.Context, actorID, rideID string) (*domain.Ride, error) {
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

	if ride.RiderID != actorID && (ride.AssignedDriverID == "" || ride.AssignedDriverID != actorID) {
		return nil, ErrNotRideOwner
	}
	return ride, nil
}

// CancelRide cancels a ride that no driver has accepted yet. Once a
// driver accepts, the ride is ONGOING and can only complete.
func (s *RideService) CancelRide(ctx context.Context, riderID, rideID, reason string) (*domain.Ride, error) {
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
	if ride.RiderID != riderID {
		return nil, ErrNotRideOwner
	}

	cancelled, err := s.rideRepo.Cancel(ctx, rideID, reason, time.Now())
	if err != nil {
		return nil, err
	}
	if !cancelled {
		return nil, ErrRideNotPending
	}

	s.withdrawOffer(ctx, ride)

	return s.rideRepo.GetByID(ctx, rideID)
}

// withdrawOffer tells drivers near the pickup that the ride is gone, so
// a stale offer is not sitting on their screens waiting to be accepted.
func (s *RideService) withdrawOffer(ctx context.Context, ride *domain.Ride) {
	drivers, err := s.matcher.FindNearbyDrivers(ctx, ride.VehicleClass, ride.PickupLat, ride.PickupLng, 0)
	if err != nil {
		s.logger.Warn("matching after ride cancellation failed",
			zap.String("ride_id", ride.ID), zap.Error(err))
		return
	}

	for _, driver := range drivers {
		s.notifier.Dispatch(notify.Event{
			Recipient: driver.DriverID,
			Name:      notify.EventRideCancelled,
			Payload:   map[string]any{"ride_id": ride.ID},
		})
	}
}

func (s *RideService) validateCreateRequest(req *CreateRideRequest) error {
	if req.RiderID == "" {
		return ErrInvalidRiderID
	}
	if !ValidLatitude(req.PickupLat) || !ValidLongitude(req.PickupLng) {
		return ErrInvalidPickupLocation
	}
	if !ValidLatitude(req.DestLat) || !ValidLongitude(req.DestLng) {
		return ErrInvalidDestinationLocation
	}
	if !domain.ValidVehicleClass(req.VehicleClass) {
		return ErrInvalidVehicleClass
	}
	if req.Tier == "" {
		req.Tier = domain.DefaultTier
	}

	method, err := ValidatePaymentMethod(string(req.PaymentMethod))
	if err != nil {
		return err
	}
	req.PaymentMethod = method
	return nil
}

// ValidatePaymentMethod validates a payment method string, defaulting
// an empty one to CASH.
func ValidatePaymentMethod(method string) (domain.PaymentMethod, error) {
	switch domain.PaymentMethod(method) {
	case domain.PaymentMethodCash, domain.PaymentMethodCard,
		domain.PaymentMethodWallet, domain.PaymentMethodUPI:
		return domain.PaymentMethod(method), nil
	case "":
		return domain.PaymentMethodCash, nil
	default:
		return "", ErrInvalidPaymentMethod
	}
}
