package repository

import (
	"context"

	"swiftride/internal/domain"
)

// TripRepository defines the persistence operations for trips.
type TripRepository interface {
	// Create persists a new trip.
	Create(ctx context.Context, trip *domain.Trip) error

	// GetByID retrieves a trip by ID.
	GetByID(ctx context.Context, id string) (*domain.Trip, error)

	// Update updates an existing trip.
	Update(ctx context.Context, trip *domain.Trip) error

	// GetActiveByDriverID retrieves the driver's non-completed trip.
	// Returns nil, nil if the driver has no active or paused trip.
	GetActiveByDriverID(ctx context.Context, driverID string) (*domain.Trip, error)
}
