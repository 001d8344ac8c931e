package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"swiftride/internal/domain"
	"swiftride/internal/service"
)

// TripHandler handles HTTP requests for trips.
type TripHandler struct {
	tripService *service.TripService
}

// NewTripHandler creates a new TripHandler.
func NewTripHandler(tripService *service.TripService) *TripHandler {
	return &TripHandler{tripService: tripService}
}

// TripResponse is the HTTP representation of a trip.
type TripResponse struct {
	ID                   string  `json:"id"`
	RideID               string  `json:"ride_id"`
	DriverID             string  `json:"driver_id"`
	Status               string  `json:"status"`
	SurgeMultiplier      float64 `json:"surge_multiplier"`
	StartedAt            string  `json:"started_at"`
	PausedAt             string  `json:"paused_at,omitempty"`
	BaseFare             float64 `json:"base_fare,omitempty"`
	DistanceFare         float64 `json:"distance_fare,omitempty"`
	TimeFare             float64 `json:"time_fare,omitempty"`
	FinalFare            int64   `json:"final_fare,omitempty"`
	TotalDistanceMeters  float64 `json:"total_distance_meters,omitempty"`
	TotalDurationSeconds int64   `json:"total_duration_seconds,omitempty"`
	EndedAt              string  `json:"ended_at,omitempty"`
}

func toTripResponse(trip *domain.Trip) TripResponse {
	resp := TripResponse{
		ID:                   trip.ID,
		RideID:               trip.RideID,
		DriverID:             trip.DriverID,
		Status:               string(trip.Status),
		SurgeMultiplier:      trip.SurgeMultiplier,
		StartedAt:            trip.StartedAt.Format(time.RFC3339),
		BaseFare:             trip.BaseFare,
		DistanceFare:         trip.DistanceFare,
		TimeFare:             trip.TimeFare,
		FinalFare:            trip.FinalFare,
		TotalDistanceMeters:  trip.TotalDistanceMeters,
		TotalDurationSeconds: trip.TotalDurationSeconds,
	}
	if !trip.PausedAt.IsZero() {
		resp.PausedAt = trip.PausedAt.Format(time.RFC3339)
	}
	if !trip.EndedAt.IsZero() {
		resp.EndedAt = trip.EndedAt.Format(time.RFC3339)
	}
	return resp
}

// AcceptRide handles POST /v1/rides/:id/accept
func (h *TripHandler) AcceptRide(c *gin.Context) {
	driver := driverID(c)
	if driver == "" {
		return
	}

	trip, err := h.tripService.AcceptRide(c.Request.Context(), driver, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, toTripResponse(trip))
}

// GetTrip handles GET /v1/trips/:id
func (h *TripHandler) GetTrip(c *gin.Context) {
	actor := actorID(c)
	if actor == "" {
		return
	}

	trip, err := h.tripService.GetTrip(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toTripResponse(trip))
}

// PauseTrip handles POST /v1/trips/:id/pause
func (h *TripHandler) PauseTrip(c *gin.Context) {
	driver := driverID(c)
	if driver == "" {
		return
	}

	trip, err := h.tripService.PauseTrip(c.Request.Context(), driver, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toTripResponse(trip))
}

// ResumeTrip handles POST /v1/trips/:id/resume
func (h *TripHandler) ResumeTrip(c *gin.Context) {
	driver := driverID(c)
	if driver == "" {
		return
	}

	trip, err := h.tripService.ResumeTrip(c.Request.Context(), driver, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toTripResponse(trip))
}

// EndTrip handles POST /v1/trips/:id/end
func (h *TripHandler) EndTrip(c *gin.Context) {
	driver := driverID(c)
	if driver == "" {
		return
	}

	trip, err := h.tripService.EndTrip(c.Request.Context(), driver, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toTripResponse(trip))
}
