package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"swiftride/internal/domain"
	"swiftride/internal/repository"
)

// PaymentRepository is a PostgreSQL implementation of repository.PaymentRepository.
//
// Two uniqueness constraints back the invariants here: a unique index on
// idempotency_key, and a partial unique index on trip_id where status is
// PROCESSING or COMPLETED (at most one live payment per trip).
type PaymentRepository struct {
	q Querier
}

// NewPaymentRepository creates a new PostgreSQL payment repository.
func NewPaymentRepository(db *sql.DB) *PaymentRepository {
	return &PaymentRepository{q: db}
}

const paymentColumns = `id, trip_id, amount, currency, method, status, psp_reference, receipt_url, idempotency_key, created_at`

// Create persists a new payment.
func (r *PaymentRepository) Create(ctx context.Context, payment *domain.Payment) error {
	query := `
		INSERT INTO payments (` + paymentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.q.ExecContext(ctx, query,
		payment.ID,
		payment.TripID,
		payment.Amount,
		payment.Currency,
		payment.Method,
		payment.Status,
		nullString(payment.PSPReference),
		nullString(payment.ReceiptURL),
		nullString(payment.IdempotencyKey),
		payment.CreatedAt,
	)
	if isUniqueViolation(err) {
		return repository.ErrDuplicateKey
	}
	return err
}

// GetByID retrieves a payment by ID.
func (r *PaymentRepository) GetByID(ctx context.Context, id string) (*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1`
	return r.scanPayment(r.q.QueryRowContext(ctx, query, id))
}

// GetByIdempotencyKey retrieves a payment by its idempotency key.
func (r *PaymentRepository) GetByIdempotencyKey(ctx context.Context, key string) (*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE idempotency_key = $1`
	payment, err := r.scanPayment(r.q.QueryRowContext(ctx, query, key))
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	return payment, err
}

// GetLiveByTripID retrieves the PROCESSING or COMPLETED payment for a trip.
func (r *PaymentRepository) GetLiveByTripID(ctx context.Context, tripID string) (*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE trip_id = $1 AND status = ANY($2) LIMIT 1`

	statuses := pq.Array([]string{string(domain.PaymentStatusProcessing), string(domain.PaymentStatusCompleted)})

	payment, err := r.scanPayment(r.q.QueryRowContext(ctx, query, tripID, statuses))
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	return payment, err
}

// UpdateStatus updates the status of a payment.
func (r *PaymentRepository) UpdateStatus(ctx context.Context, id string, status domain.PaymentStatus) error {
	result, err := r.q.ExecContext(ctx,
		`UPDATE payments SET status = $1 WHERE id = $2`, status, id)
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

func (r *PaymentRepository) scanPayment(row *sql.Row) (*domain.Payment, error) {
	var p domain.Payment
	var pspReference, receiptURL, idempotencyKey sql.NullString

	err := row.Scan(
		&p.ID,
		&p.TripID,
		&p.Amount,
		&p.Currency,
		&p.Method,
		&p.Status,
		&pspReference,
		&receiptURL,
		&idempotencyKey,
		&p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	p.PSPReference = pspReference.String
	p.ReceiptURL = receiptURL.String
	p.IdempotencyKey = idempotencyKey.String

	return &p, nil
}

// Ensure PaymentRepository implements repository.PaymentRepository.
var _ repository.PaymentRepository = (*PaymentRepository)(nil)
