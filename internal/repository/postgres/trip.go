package postgres

import (
	"context"
	"database/sql"
	"errors"

	"swiftride/internal/domain"
	"swiftride/internal/repository"
)

// TripRepository is a PostgreSQL implementation of repository.TripRepository.
type TripRepository struct {
	q Querier
}

// NewTripRepository creates a new PostgreSQL trip repository.
func NewTripRepository(db *sql.DB) *TripRepository {
	return &TripRepository{q: db}
}

// NewTripRepositoryWithTx creates a trip repository using a transaction.
func NewTripRepositoryWithTx(tx *sql.Tx) *TripRepository {
	return &TripRepository{q: tx}
}

const tripColumns = `id, ride_id, driver_id, status, surge_multiplier, started_at, paused_at,
		base_fare, distance_fare, time_fare, final_fare, total_distance_meters, total_duration_seconds, ended_at`

// Create persists a new trip.
func (r *TripRepository) Create(ctx context.Context, trip *domain.Trip) error {
	query := `
		INSERT INTO trips (` + tripColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err := r.q.ExecContext(ctx, query,
		trip.ID,
		trip.RideID,
		trip.DriverID,
		trip.Status,
		trip.SurgeMultiplier,
		trip.StartedAt,
		nullTime(trip.PausedAt),
		trip.BaseFare,
		trip.DistanceFare,
		trip.TimeFare,
		trip.FinalFare,
		trip.TotalDistanceMeters,
		trip.TotalDurationSeconds,
		nullTime(trip.EndedAt),
	)
	if isUniqueViolation(err) {
		return repository.ErrDuplicateKey
	}
	return err
}

// GetByID retrieves a trip by ID.
func (r *TripRepository) GetByID(ctx context.Context, id string) (*domain.Trip, error) {
	query := `SELECT ` + tripColumns + ` FROM trips WHERE id = $1`
	return r.scanTrip(r.q.QueryRowContext(ctx, query, id))
}

// Update updates an existing trip.
func (r *TripRepository) Update(ctx context.Context, trip *domain.Trip) error {
	query := `
		UPDATE trips
		SET status = $1, surge_multiplier = $2, started_at = $3, paused_at = $4,
		    base_fare = $5, distance_fare = $6, time_fare = $7, final_fare = $8,
		    total_distance_meters = $9, total_duration_seconds = $10, ended_at = $11
		WHERE id = $12
	`

	result, err := r.q.ExecContext(ctx, query,
		trip.Status,
		trip.SurgeMultiplier,
		trip.StartedAt,
		nullTime(trip.PausedAt),
		trip.BaseFare,
		trip.DistanceFare,
		trip.TimeFare,
		trip.FinalFare,
		trip.TotalDistanceMeters,
		trip.TotalDurationSeconds,
		nullTime(trip.EndedAt),
		trip.ID,
	)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// GetActiveByDriverID retrieves the driver's non-completed trip.
func (r *TripRepository) GetActiveByDriverID(ctx context.Context, driverID string) (*domain.Trip, error) {
	query := `
		SELECT ` + tripColumns + ` FROM trips
		WHERE driver_id = $1 AND status != $2
		LIMIT 1
	`

	trip, err := r.scanTrip(r.q.QueryRowContext(ctx, query, driverID, domain.TripStatusCompleted))
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	return trip, err
}

func (r *TripRepository) scanTrip(row *sql.Row) (*domain.Trip, error) {
	var trip domain.Trip
	var pausedAt, endedAt sql.NullTime

	err := row.Scan(
		&trip.ID,
		&trip.RideID,
		&trip.DriverID,
		&trip.Status,
		&trip.SurgeMultiplier,
		&trip.StartedAt,
		&pausedAt,
		&trip.BaseFare,
		&trip.DistanceFare,
		&trip.TimeFare,
		&trip.FinalFare,
		&trip.TotalDistanceMeters,
		&trip.TotalDurationSeconds,
		&endedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	if pausedAt.Valid {
		trip.PausedAt = pausedAt.Time
	}
	if endedAt.Valid {
		trip.EndedAt = endedAt.Time
	}

	return &trip, nil
}

// Ensure TripRepository implements repository.TripRepository.
var _ repository.TripRepository = (*TripRepository)(nil)
