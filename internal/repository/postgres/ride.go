package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"

	"swiftride/internal/domain"
	"swiftride/internal/geo"
	"swiftride/internal/repository"
)

// RideRepository is a PostgreSQL implementation of repository.RideRepository.
type RideRepository struct {
	q Querier
}

// NewRideRepository creates a new PostgreSQL ride repository.
func NewRideRepository(db *sql.DB) *RideRepository {
	return &RideRepository{q: db}
}

// NewRideRepositoryWithTx creates a ride repository using a transaction.
func NewRideRepositoryWithTx(tx *sql.Tx) *RideRepository {
	return &RideRepository{q: tx}
}

const rideColumns = `id, rider_id, pickup_address, pickup_lat, pickup_lng, dest_address, dest_lat, dest_lng,
		vehicle_class, tier, payment_method, estimated_fare, status, assigned_driver_id, idempotency_key,
		cancelled_at, cancel_reason, created_at`

// Create persists a new ride.
func (r *RideRepository) Create(ctx context.Context, ride *domain.Ride) error {
	query := `
		INSERT INTO rides (` + rideColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	`

	_, err := r.q.ExecContext(ctx, query,
		ride.ID,
		ride.RiderID,
		ride.PickupAddress,
		ride.PickupLat,
		ride.PickupLng,
		ride.DestAddress,
		ride.DestLat,
		ride.DestLng,
		ride.VehicleClass,
		ride.Tier,
		ride.PaymentMethod,
		ride.EstimatedFare,
		ride.Status,
		nullString(ride.AssignedDriverID),
		nullString(ride.IdempotencyKey),
		nullTime(ride.CancelledAt),
		nullString(ride.CancelReason),
		ride.CreatedAt,
	)
	if isUniqueViolation(err) {
		return repository.ErrDuplicateKey
	}
	return err
}

// GetByID retrieves a ride by ID.
func (r *RideRepository) GetByID(ctx context.Context, id string) (*domain.Ride, error) {
	query := `SELECT ` + rideColumns + ` FROM rides WHERE id = $1`
	return r.scanRide(r.q.QueryRowContext(ctx, query, id))
}

// GetByIdempotencyKey retrieves the ride created under the given key.
func (r *RideRepository) GetByIdempotencyKey(ctx context.Context, key string) (*domain.Ride, error) {
	query := `SELECT ` + rideColumns + ` FROM rides WHERE idempotency_key = $1`
	ride, err := r.scanRide(r.q.QueryRowContext(ctx, query, key))
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	return ride, err
}

// AssignIfPending performs the conditional PENDING -> ONGOING transition.
// The WHERE clause on status is the compare-and-swap: under concurrent
// accepts exactly one update reports an affected row.
func (r *RideRepository) AssignIfPending(ctx context.Context, rideID, driverID string) (bool, error) {
	query := `
		UPDATE rides
		SET status = $1, assigned_driver_id = $2
		WHERE id = $3 AND status = $4
	`

	result, err := r.q.ExecContext(ctx, query,
		domain.RideStatusOngoing, driverID, rideID, domain.RideStatusPending)
	if err != nil {
		return false, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

// UpdateStatus sets the status of a ride.
func (r *RideRepository) UpdateStatus(ctx context.Context, id string, status domain.RideStatus) error {
	result, err := r.q.ExecContext(ctx,
		`UPDATE rides SET status = $1 WHERE id = $2`, status, id)
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

// Cancel marks a still-PENDING ride as cancelled.
func (r *RideRepository) Cancel(ctx context.Context, id, reason string, at time.Time) (bool, error) {
	query := `
		UPDATE rides
		SET status = $1, cancelled_at = $2, cancel_reason = $3
		WHERE id = $4 AND status = $5
	`

	result, err := r.q.ExecContext(ctx, query,
		domain.RideStatusCancelled, at, nullString(reason), id, domain.RideStatusPending)
	if err != nil {
		return false, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

// CountActiveInBox counts recent PENDING/ONGOING rides of a vehicle class
// whose pickup falls inside the box.
func (r *RideRepository) CountActiveInBox(ctx context.Context, class domain.VehicleClass, box geo.BoundingBox, since time.Time) (int, error) {
	query := `
		SELECT COUNT(*) FROM rides
		WHERE status = ANY($1)
		  AND vehicle_class = $2
		  AND pickup_lat BETWEEN $3 AND $4
		  AND pickup_lng BETWEEN $5 AND $6
		  AND created_at >= $7
	`

	statuses := pq.Array([]string{string(domain.RideStatusPending), string(domain.RideStatusOngoing)})

	var count int
	err := r.q.QueryRowContext(ctx, query,
		statuses, class, box.MinLat, box.MaxLat, box.MinLng, box.MaxLng, since,
	).Scan(&count)
	return count, err
}

func (r *RideRepository) scanRide(row *sql.Row) (*domain.Ride, error) {
	var ride domain.Ride
	var assignedDriverID, idempotencyKey, cancelReason sql.NullString
	var cancelledAt sql.NullTime

	err := row.Scan(
		&ride.ID,
		&ride.RiderID,
		&ride.PickupAddress,
		&ride.PickupLat,
		&ride.PickupLng,
		&ride.DestAddress,
		&ride.DestLat,
		&ride.DestLng,
		&ride.VehicleClass,
		&ride.Tier,
		&ride.PaymentMethod,
		&ride.EstimatedFare,
		&ride.Status,
		&assignedDriverID,
		&idempotencyKey,
		&cancelledAt,
		&cancelReason,
		&ride.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	ride.AssignedDriverID = assignedDriverID.String
	ride.IdempotencyKey = idempotencyKey.String
	ride.CancelReason = cancelReason.String
	if cancelledAt.Valid {
		ride.CancelledAt = cancelledAt.Time
	}

	return &ride, nil
}

// Ensure RideRepository implements repository.RideRepository.
var _ repository.RideRepository = (*RideRepository)(nil)
