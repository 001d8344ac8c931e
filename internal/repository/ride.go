package repository

import (
	"context"
	"time"

	"swiftride/internal/domain"
	"swiftride/internal/geo"
)

// RideRepository defines the persistence operations for rides.
type RideRepository interface {
	// Create persists a new ride.
	Create(ctx context.Context, ride *domain.Ride) error

	// GetByID retrieves a ride by ID.
	GetByID(ctx context.Context, id string) (*domain.Ride, error)

	// GetByIdempotencyKey retrieves the ride created under the given
	// idempotency key. Returns nil, nil when no such ride exists.
	GetByIdempotencyKey(ctx context.Context, key string) (*domain.Ride, error)

	// AssignIfPending atomically transitions a ride from PENDING to
	// ONGOING and binds the driver, but only if the ride is still
	// PENDING. Returns false when the conditional update changed no row
	// (ride missing or already past PENDING). This single-row
	// compare-and-swap is the serialization point for ride acceptance.
	AssignIfPending(ctx context.Context, rideID, driverID string) (bool, error)

	// UpdateStatus sets the status of a ride.
	UpdateStatus(ctx context.Context, id string, status domain.RideStatus) error

	// Cancel marks a ride CANCELLED with audit fields, only if it is
	// still PENDING. Returns false when no row changed.
	Cancel(ctx context.Context, id, reason string, at time.Time) (bool, error)

	// CountActiveInBox counts rides of the given vehicle class in
	// PENDING or ONGOING state, created after since, whose pickup point
	// falls inside the box. Feeds the surge demand signal.
	CountActiveInBox(ctx context.Context, class domain.VehicleClass, box geo.BoundingBox, since time.Time) (int, error)
}
