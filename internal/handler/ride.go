package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"swiftride/internal/domain"
	"swiftride/internal/middleware"
	"swiftride/internal/service"
)

// RideHandler handles HTTP requests for rides.
type RideHandler struct {
	rideService *service.RideService
}

// NewRideHandler creates a new RideHandler.
func NewRideHandler(rideService *service.RideService) *RideHandler {
	return &RideHandler{rideService: rideService}
}

// CreateRideRequest is the HTTP request body for creating a ride.
type CreateRideRequest struct {
	PickupAddress string  `json:"pickup_address"`
	PickupLat     float64 `json:"pickup_lat"`
	PickupLng     float64 `json:"pickup_lng"`
	DestAddress   string  `json:"dest_address"`
	DestLat       float64 `json:"dest_lat"`
	DestLng       float64 `json:"dest_lng"`
	VehicleClass  string  `json:"vehicle_class"`             // CAR, AUTO, MOTORCYCLE
	Tier          string  `json:"tier,omitempty"`            // defaults to standard
	PaymentMethod string  `json:"payment_method,omitempty"`  // CASH, CARD, WALLET, UPI
}

// CancelRideRequest is the HTTP request body for cancelling a ride.
type CancelRideRequest struct {
	Reason string `json:"reason,omitempty"`
}

// RideResponse is the HTTP representation of a ride.
type RideResponse struct {
	ID               string  `json:"id"`
	RiderID          string  `json:"rider_id"`
	PickupAddress    string  `json:"pickup_address,omitempty"`
	PickupLat        float64 `json:"pickup_lat"`
	PickupLng        float64 `json:"pickup_lng"`
	DestAddress      string  `json:"dest_address,omitempty"`
	DestLat          float64 `json:"dest_lat"`
	DestLng          float64 `json:"dest_lng"`
	VehicleClass     string  `json:"vehicle_class"`
	Tier             string  `json:"tier"`
	PaymentMethod    string  `json:"payment_method"`
	EstimatedFare    int64   `json:"estimated_fare"`
	Status           string  `json:"status"`
	AssignedDriverID string  `json:"assigned_driver_id,omitempty"`
	CreatedAt        string  `json:"created_at"`
	CancelledAt      string  `json:"cancelled_at,omitempty"`
	CancelReason     string  `json:"cancel_reason,omitempty"`
}

func toRideResponse(ride *domain.Ride) RideResponse {
	resp := RideResponse{
		ID:               ride.ID,
		RiderID:          ride.RiderID,
		PickupAddress:    ride.PickupAddress,
		PickupLat:        ride.PickupLat,
		PickupLng:        ride.PickupLng,
		DestAddress:      ride.DestAddress,
		DestLat:          ride.DestLat,
		DestLng:          ride.DestLng,
		VehicleClass:     string(ride.VehicleClass),
		Tier:             ride.Tier,
		PaymentMethod:    string(ride.PaymentMethod),
		EstimatedFare:    ride.EstimatedFare,
		Status:           string(ride.Status),
		AssignedDriverID: ride.AssignedDriverID,
		CreatedAt:        ride.CreatedAt.Format(time.RFC3339),
	}
	if !ride.CancelledAt.IsZero() {
		resp.CancelledAt = ride.CancelledAt.Format(time.RFC3339)
		resp.CancelReason = ride.CancelReason
	}
	return resp
}

// CreateRide handles POST /v1/rides
func (h *RideHandler) CreateRide(c *gin.Context) {
	rider := riderID(c)
	if rider == "" {
		return
	}

	var req CreateRideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	ride, err := h.rideService.CreateRide(c.Request.Context(), service.CreateRideRequest{
		RiderID:        rider,
		PickupAddress:  req.PickupAddress,
		PickupLat:      req.PickupLat,
		PickupLng:      req.PickupLng,
		DestAddress:    req.DestAddress,
		DestLat:        req.DestLat,
		DestLng:        req.DestLng,
		VehicleClass:   domain.VehicleClass(req.VehicleClass),
		Tier:           req.Tier,
		PaymentMethod:  domain.PaymentMethod(req.PaymentMethod),
		IdempotencyKey: c.GetString(middleware.IdempotencyKeyContextKey),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, toRideResponse(ride))
}

// GetRide handles GET /v1/rides/:id
func (h *RideHandler) GetRide(c *gin.Context) {
	actor := actorID(c)
	if actor == "" {
		return
	}

	ride, err := h.rideService.GetRideStatus(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toRideResponse(ride))
}

// CancelRide handles POST /v1/rides/:id/cancel
func (h *RideHandler) CancelRide(c *gin.Context) {
	rider := riderID(c)
	if rider == "" {
		return
	}

	var req CancelRideRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	ride, err := h.rideService.CancelRide(c.Request.Context(), rider, c.Param("id"), req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toRideResponse(ride))
}
