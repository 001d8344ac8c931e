package domain

import "time"

// DriverStatus represents the current status of a driver.
type DriverStatus string

const (
	DriverStatusOffline DriverStatus = "OFFLINE"
	DriverStatusActive  DriverStatus = "ACTIVE"
	DriverStatusOnTrip  DriverStatus = "ON_TRIP"
)

// Driver represents a driver in the system. Location is written at high
// frequency (1-2 Hz) by the driver client; the durable row is updated
// best-effort while the cache carries the fresh value. A driver has at
// most one non-completed trip at a time (ON_TRIP).
type Driver struct {
	ID           string
	Name         string
	Phone        string
	VehicleClass VehicleClass
	Status       DriverStatus
	Latitude     float64
	Longitude    float64
	UpdatedAt    time.Time
}
