package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"swiftride/internal/domain"
	"swiftride/internal/geo"
	"swiftride/internal/repository"
)

// DriverRepository is a PostgreSQL implementation of repository.DriverRepository.
type DriverRepository struct {
	q Querier
}

// NewDriverRepository creates a new PostgreSQL driver repository.
func NewDriverRepository(db *sql.DB) *DriverRepository {
	return &DriverRepository{q: db}
}

// NewDriverRepositoryWithTx creates a driver repository using a transaction.
func NewDriverRepositoryWithTx(tx *sql.Tx) *DriverRepository {
	return &DriverRepository{q: tx}
}

const driverColumns = `id, name, phone, vehicle_class, status, latitude, longitude, updated_at`

// Create adds a new driver.
func (r *DriverRepository) Create(ctx context.Context, driver *domain.Driver) error {
	query := `
		INSERT INTO drivers (` + driverColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.q.ExecContext(ctx, query,
		driver.ID,
		driver.Name,
		driver.Phone,
		driver.VehicleClass,
		driver.Status,
		driver.Latitude,
		driver.Longitude,
		driver.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return repository.ErrDuplicateKey
	}
	return err
}

// GetByID retrieves a driver by ID.
func (r *DriverRepository) GetByID(ctx context.Context, id string) (*domain.Driver, error) {
	query := `SELECT ` + driverColumns + ` FROM drivers WHERE id = $1`
	return r.scanDriver(r.q.QueryRowContext(ctx, query, id))
}

// GetByPhone retrieves a driver by phone number.
func (r *DriverRepository) GetByPhone(ctx context.Context, phone string) (*domain.Driver, error) {
	query := `SELECT ` + driverColumns + ` FROM drivers WHERE phone = $1`
	return r.scanDriver(r.q.QueryRowContext(ctx, query, phone))
}

// UpdateStatus updates the status of a driver.
func (r *DriverRepository) UpdateStatus(ctx context.Context, id string, status domain.DriverStatus) error {
	result, err := r.q.ExecContext(ctx,
		`UPDATE drivers SET status = $1, updated_at = $2 WHERE id = $3`,
		status, time.Now(), id)
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

// UpdateLocation updates the stored coordinates of a driver.
func (r *DriverRepository) UpdateLocation(ctx context.Context, id string, lat, lng float64) error {
	result, err := r.q.ExecContext(ctx,
		`UPDATE drivers SET latitude = $1, longitude = $2, updated_at = $3 WHERE id = $4`,
		lat, lng, time.Now(), id)
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

// FindActiveInBox returns ACTIVE drivers of the class inside the box,
// capped at limit. The box over-approximates; callers refine by exact
// distance.
func (r *DriverRepository) FindActiveInBox(ctx context.Context, class domain.VehicleClass, box geo.BoundingBox, limit int) ([]*domain.Driver, error) {
	query := `
		SELECT ` + driverColumns + ` FROM drivers
		WHERE status = $1
		  AND vehicle_class = $2
		  AND latitude BETWEEN $3 AND $4
		  AND longitude BETWEEN $5 AND $6
		LIMIT $7
	`

	rows, err := r.q.QueryContext(ctx, query,
		domain.DriverStatusActive, class, box.MinLat, box.MaxLat, box.MinLng, box.MaxLng, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var drivers []*domain.Driver
	for rows.Next() {
		var d domain.Driver
		if err := rows.Scan(
			&d.ID, &d.Name, &d.Phone, &d.VehicleClass, &d.Status,
			&d.Latitude, &d.Longitude, &d.UpdatedAt,
		); err != nil {
			return nil, err
		}
		drivers = append(drivers, &d)
	}
	return drivers, rows.Err()
}

// CountActiveInBox counts ACTIVE drivers of the class inside the box.
func (r *DriverRepository) CountActiveInBox(ctx context.Context, class domain.VehicleClass, box geo.BoundingBox) (int, error) {
	query := `
		SELECT COUNT(*) FROM drivers
		WHERE status = $1
		  AND vehicle_class = $2
		  AND latitude BETWEEN $3 AND $4
		  AND longitude BETWEEN $5 AND $6
	`

	var count int
	err := r.q.QueryRowContext(ctx, query,
		domain.DriverStatusActive, class, box.MinLat, box.MaxLat, box.MinLng, box.MaxLng,
	).Scan(&count)
	return count, err
}

func (r *DriverRepository) scanDriver(row *sql.Row) (*domain.Driver, error) {
	var d domain.Driver
	err := row.Scan(
		&d.ID, &d.Name, &d.Phone, &d.VehicleClass, &d.Status,
		&d.Latitude, &d.Longitude, &d.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &d, nil
}

// Ensure DriverRepository implements repository.DriverRepository.
var _ repository.DriverRepository = (*DriverRepository)(nil)
