package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"swiftride/internal/cache"
	"swiftride/internal/domain"
	"swiftride/internal/notify"
	"swiftride/internal/repository"
)

// dbWriteTimeout bounds the detached durable location write.
const dbWriteTimeout = 5 * time.Second

// DriverService handles driver registration, presence and location.
type DriverService struct {
	driverRepo repository.DriverRepository
	tripRepo   repository.TripRepository
	rideRepo   repository.RideRepository
	store      cache.Store
	notifier   Notifier
	logger     *zap.Logger
}

// NewDriverService creates a new DriverService.
func NewDriverService(
	driverRepo repository.DriverRepository,
	tripRepo repository.TripRepository,
	rideRepo repository.RideRepository,
	store cache.Store,
	notifier Notifier,
	logger *zap.Logger,
) *DriverService {
	return &DriverService{
		driverRepo: driverRepo,
		tripRepo:   tripRepo,
		rideRepo:   rideRepo,
		store:      store,
		notifier:   notifier,
		logger:     logger,
	}
}

// RegisterDriverRequest contains the parameters for registering a driver.
type RegisterDriverRequest struct {
	Name         string
	Phone        string
	VehicleClass domain.VehicleClass
}

// RegisterDriver creates a new driver, initially OFFLINE.
func (s *DriverService) RegisterDriver(ctx context.Context, req RegisterDriverRequest) (*domain.Driver, error) {
	if req.Name == "" || req.Phone == "" {
		return nil, E(KindValidation, "driver name and phone are required")
	}
	if !domain.ValidVehicleClass(req.VehicleClass) {
		return nil, ErrInvalidVehicleClass
	}

	driver := &domain.Driver{
		ID:           uuid.New().String(),
		Name:         req.Name,
		Phone:        req.Phone,
		VehicleClass: req.VehicleClass,
		Status:       domain.DriverStatusOffline,
		UpdatedAt:    time.Now(),
	}

	if err := s.driverRepo.Create(ctx, driver); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, E(KindConflict, "phone number already registered")
		}
		return nil, err
	}
	return driver, nil
}

// GetDriver retrieves a driver by ID.
func (s *DriverService) GetDriver(ctx context.Context, driverID string) (*domain.Driver, error) {
	if driverID == "" {
		return nil, ErrInvalidDriverID
	}
	driver, err := s.driverRepo.GetByID(ctx, driverID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrDriverNotFound
		}
		return nil, err
	}
	return driver, nil
}

// UpdateLocation records a driver's position. The cache write is
// synchronous because matching reads from it; the durable write happens
// in the background and its failure only costs staleness in bounding-box
// queries, so it is logged and swallowed.
func (s *DriverService) UpdateLocation(ctx context.Context, driverID string, lat, lng float64) error {
	if driverID == "" {
		return ErrInvalidDriverID
	}
	if !ValidLatitude(lat) || !ValidLongitude(lng) {
		return ErrInvalidLocation
	}

	driver, err := s.driverRepo.GetByID(ctx, driverID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrDriverNotFound
		}
		return err
	}

	now := time.Now()
	s.store.SetDriverLocation(ctx, driverID, cache.DriverLocation{
		Latitude:  lat,
		Longitude: lng,
		UpdatedAt: now,
	})

	// A location ping from an OFFLINE driver brings them online.
	if driver.Status == domain.DriverStatusOffline {
		if err := s.driverRepo.UpdateStatus(ctx, driverID, domain.DriverStatusActive); err != nil {
			return err
		}
	}

	go func() {
		dbCtx, cancel := context.WithTimeout(context.Background(), dbWriteTimeout)
		defer cancel()
		if err := s.driverRepo.UpdateLocation(dbCtx, driverID, lat, lng); err != nil {
			s.logger.Warn("durable location write failed",
				zap.String("driver_id", driverID), zap.Error(err))
		}
	}()

	if driver.Status == domain.DriverStatusOnTrip {
		s.forwardLocationToRider(ctx, driverID, lat, lng)
	}

	return nil
}

func (s *DriverService) forwardLocationToRider(ctx context.Context, driverID string, lat, lng float64) {
	trip, err := s.tripRepo.GetActiveByDriverID(ctx, driverID)
	if err != nil || trip == nil {
		return
	}
	ride, err := s.rideRepo.GetByID(ctx, trip.RideID)
	if err != nil {
		return
	}

	s.notifier.Dispatch(notify.Event{
		Recipient: ride.RiderID,
		Name:      notify.EventDriverLocationUpdate,
		Payload: map[string]any{
			"trip_id":   trip.ID,
			"driver_id": driverID,
			"latitude":  lat,
			"longitude": lng,
		},
	})
}

// SetDriverOffline takes a driver out of the matching pool. A driver on
// an active trip must end it first.
func (s *DriverService) SetDriverOffline(ctx context.Context, driverID string) error {
	if driverID == "" {
		return ErrInvalidDriverID
	}

	driver, err := s.driverRepo.GetByID(ctx, driverID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrDriverNotFound
		}
		return err
	}
	if driver.Status == domain.DriverStatusOnTrip {
		return E(KindConflict, "driver has a trip in progress")
	}

	if err := s.driverRepo.UpdateStatus(ctx, driverID, domain.DriverStatusOffline); err != nil {
		return err
	}
	s.store.InvalidateDriverLocation(ctx, driverID)
	return nil
}
