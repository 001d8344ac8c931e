package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"swiftride/internal/domain"
	"swiftride/internal/middleware"
	"swiftride/internal/service"
)

// PaymentHandler handles HTTP requests for payments.
type PaymentHandler struct {
	paymentService *service.PaymentService
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(paymentService *service.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService}
}

// ProcessPaymentRequest is the HTTP request body for settling a trip.
type ProcessPaymentRequest struct {
	TripID string `json:"trip_id"`
	Method string `json:"method"` // CASH, CARD, WALLET, UPI
}

// PaymentResponse is the HTTP representation of a payment.
type PaymentResponse struct {
	ID           string `json:"id"`
	TripID       string `json:"trip_id"`
	Amount       int64  `json:"amount"`
	Currency     string `json:"currency"`
	Method       string `json:"method"`
	Status       string `json:"status"`
	PSPReference string `json:"psp_reference,omitempty"`
	ReceiptURL   string `json:"receipt_url,omitempty"`
	CreatedAt    string `json:"created_at"`
}

func toPaymentResponse(payment *domain.Payment) PaymentResponse {
	return PaymentResponse{
		ID:           payment.ID,
		TripID:       payment.TripID,
		Amount:       payment.Amount,
		Currency:     payment.Currency,
		Method:       string(payment.Method),
		Status:       string(payment.Status),
		PSPReference: payment.PSPReference,
		ReceiptURL:   payment.ReceiptURL,
		CreatedAt:    payment.CreatedAt.Format(time.RFC3339),
	}
}

// ProcessPayment handles POST /v1/payments
func (h *PaymentHandler) ProcessPayment(c *gin.Context) {
	rider := riderID(c)
	if rider == "" {
		return
	}

	var req ProcessPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	payment, err := h.paymentService.ProcessPayment(c.Request.Context(), service.ProcessPaymentRequest{
		RiderID:        rider,
		TripID:         req.TripID,
		Method:         domain.PaymentMethod(req.Method),
		IdempotencyKey: c.GetString(middleware.IdempotencyKeyContextKey),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, toPaymentResponse(payment))
}

// GetPayment handles GET /v1/payments/:id
func (h *PaymentHandler) GetPayment(c *gin.Context) {
	payment, err := h.paymentService.GetPayment(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toPaymentResponse(payment))
}
