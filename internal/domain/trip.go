package domain

import "time"

// TripStatus represents the current status of a trip.
type TripStatus string

const (
	TripStatusActive    TripStatus = "ACTIVE"
	TripStatusPaused    TripStatus = "PAUSED"
	TripStatusCompleted TripStatus = "COMPLETED"
)

// Trip represents the execution of an accepted ride, bound to exactly one
// ride and one driver. The surge multiplier is captured once at creation
// and never changes afterwards. Pausing does not accumulate an interval
// list: resuming shifts StartedAt forward by the paused span, so billable
// time is always EndedAt - StartedAt (minus any still-open pause).
type Trip struct {
	ID              string
	RideID          string
	DriverID        string
	Status          TripStatus
	SurgeMultiplier float64
	StartedAt       time.Time
	PausedAt        time.Time // zero unless status is PAUSED

	// Set at completion.
	BaseFare             float64
	DistanceFare         float64
	TimeFare             float64
	FinalFare            int64 // whole currency units
	TotalDistanceMeters  float64
	TotalDurationSeconds int64
	EndedAt              time.Time
}
