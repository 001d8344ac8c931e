package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"swiftride/internal/domain"
	"swiftride/internal/notify"
	"swiftride/internal/repository"
)

// PSP charges a payment method and returns the processor's reference
// and a hosted receipt URL.
type PSP interface {
	Charge(ctx context.Context, amount int64, currency string, method domain.PaymentMethod) (reference, receiptURL string, err error)
}

// StubPSP simulates a payment processor. Charges always succeed; the
// reference and receipt URL are fabricated locally.
type StubPSP struct{}

// Charge implements PSP.
func (StubPSP) Charge(_ context.Context, _ int64, _ string, _ domain.PaymentMethod) (string, string, error) {
	ref := "psp_" + uuid.New().String()
	return ref, fmt.Sprintf("https://receipts.swiftride.example/%s", ref), nil
}

// DefaultCurrency is used until per-region pricing exists.
const DefaultCurrency = "INR"

// PaymentService settles completed trips.
type PaymentService struct {
	paymentRepo repository.PaymentRepository
	tripRepo    repository.TripRepository
	rideRepo    repository.RideRepository
	psp         PSP
	notifier    Notifier
	logger      *zap.Logger
}

// NewPaymentService creates a new PaymentService.
func NewPaymentService(
	paymentRepo repository.PaymentRepository,
	tripRepo repository.TripRepository,
	rideRepo repository.RideRepository,
	psp PSP,
	notifier Notifier,
	logger *zap.Logger,
) *PaymentService {
	return &PaymentService{
		paymentRepo: paymentRepo,
		tripRepo:    tripRepo,
		rideRepo:    rideRepo,
		psp:         psp,
		notifier:    notifier,
		logger:      logger,
	}
}

// ProcessPaymentRequest contains the parameters for settling a trip.
type ProcessPaymentRequest struct {
	RiderID        string
	TripID         string
	Method         domain.PaymentMethod
	IdempotencyKey string
}

// ProcessPayment charges the rider for a completed trip. A request
// replayed with the same idempotency key returns the original payment;
// a trip can never carry two live payments.
func (s *PaymentService) ProcessPayment(ctx context.Context, req ProcessPaymentRequest) (*domain.Payment, error) {
	if req.TripID == "" {
		return nil, ErrInvalidTripID
	}
	if req.RiderID == "" {
		return nil, ErrInvalidRiderID
	}
	method, err := ValidatePaymentMethod(string(req.Method))
	if err != nil {
		return nil, err
	}

	if req.IdempotencyKey != "" {
		existing, err := s.paymentRepo.GetByIdempotencyKey(ctx, req.IdempotencyKey)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return existing, nil
		}
	}

	trip, err := s.tripRepo.GetByID(ctx, req.TripID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTripNotFound
		}
		return nil, err
	}
	if trip.Status != domain.TripStatusCompleted {
		return nil, ErrTripNotCompleted
	}

	ride, err := s.rideRepo.GetByID(ctx, trip.RideID)
	if err != nil {
		return nil, err
	}
	if ride.RiderID != req.RiderID {
		return nil, ErrNotRideOwner
	}

	live, err := s.paymentRepo.GetLiveByTripID(ctx, req.TripID)
	if err != nil {
		return nil, err
	}
	if live != nil {
		return nil, ErrPaymentExists
	}

	reference, receiptURL, err := s.psp.Charge(ctx, trip.FinalFare, DefaultCurrency, method)
	if err != nil {
		return nil, Wrap(KindUpstreamUnavailable, "payment processor charge failed", err)
	}

	payment := &domain.Payment{
		ID:             uuid.New().String(),
		TripID:         req.TripID,
		Amount:         trip.FinalFare,
		Currency:       DefaultCurrency,
		Method:         method,
		Status:         domain.PaymentStatusCompleted,
		PSPReference:   reference,
		ReceiptURL:     receiptURL,
		IdempotencyKey: req.IdempotencyKey,
		CreatedAt:      time.Now(),
	}

	if err := s.paymentRepo.Create(ctx, payment); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			// Either a concurrent replay of the same key or a second
			// payment racing for the trip's single live slot.
			if req.IdempotencyKey != "" {
				existing, lookupErr := s.paymentRepo.GetByIdempotencyKey(ctx, req.IdempotencyKey)
				if lookupErr == nil && existing != nil {
					return existing, nil
				}
			}
			return nil, ErrPaymentExists
		}
		return nil, err
	}

	s.notifier.Dispatch(notify.Event{
		Recipient: req.RiderID,
		Name:      notify.EventPaymentCompleted,
		Payload: map[string]any{
			"payment_id":  payment.ID,
			"trip_id":     payment.TripID,
			"amount":      payment.Amount,
			"currency":    payment.Currency,
			"receipt_url": payment.ReceiptURL,
		},
	})

	return payment, nil
}

// GetPayment retrieves a payment by ID.
func (s *PaymentService) GetPayment(ctx context.Context, id string) (*domain.Payment, error) {
	if id == "" {
		return nil, E(KindValidation, "invalid payment id")
	}
	payment, err := s.paymentRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, E(KindNotFound, "payment not found")
		}
		return nil, err
	}
	return payment, nil
}
