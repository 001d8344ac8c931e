package domain

import "time"

// PaymentStatus represents the current status of a payment.
type PaymentStatus string

const (
	PaymentStatusProcessing PaymentStatus = "PROCESSING"
	PaymentStatusCompleted  PaymentStatus = "COMPLETED"
	PaymentStatusFailed     PaymentStatus = "FAILED"
)

// Payment represents a charge for a completed trip. At most one payment
// in PROCESSING or COMPLETED state may exist per trip.
type Payment struct {
	ID             string
	TripID         string
	Amount         int64 // whole currency units
	Currency       string
	Method         PaymentMethod
	Status         PaymentStatus
	PSPReference   string
	ReceiptURL     string
	IdempotencyKey string
	CreatedAt      time.Time
}
