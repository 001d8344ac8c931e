package repository

import (
	"context"

	"swiftride/internal/domain"
	"swiftride/internal/geo"
)

// DriverRepository defines the persistence operations for drivers.
type DriverRepository interface {
	// Create adds a new driver.
	Create(ctx context.Context, driver *domain.Driver) error

	// GetByID retrieves a driver by ID.
	GetByID(ctx context.Context, id string) (*domain.Driver, error)

	// GetByPhone retrieves a driver by phone number.
	GetByPhone(ctx context.Context, phone string) (*domain.Driver, error)

	// UpdateStatus updates the status of a driver.
	UpdateStatus(ctx context.Context, id string, status domain.DriverStatus) error

	// UpdateLocation updates the stored coordinates of a driver.
	UpdateLocation(ctx context.Context, id string, lat, lng float64) error

	// FindActiveInBox returns up to limit ACTIVE drivers of the given
	// vehicle class whose stored coordinates fall inside the box. The
	// box is a pre-filter only; callers refine with exact distance.
	FindActiveInBox(ctx context.Context, class domain.VehicleClass, box geo.BoundingBox, limit int) ([]*domain.Driver, error)

	// CountActiveInBox counts ACTIVE drivers of the given vehicle class
	// inside the box. Feeds the surge supply signal.
	CountActiveInBox(ctx context.Context, class domain.VehicleClass, box geo.BoundingBox) (int, error)
}
