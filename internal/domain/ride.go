package domain

import "time"

// RideStatus represents the current status of a ride.
type RideStatus string

const (
	RideStatusPending   RideStatus = "PENDING"
	RideStatusOngoing   RideStatus = "ONGOING"
	RideStatusCompleted RideStatus = "COMPLETED"
	RideStatusCancelled RideStatus = "CANCELLED"
)

// VehicleClass represents the class of vehicle requested for a ride.
type VehicleClass string

const (
	VehicleClassCar        VehicleClass = "CAR"
	VehicleClassAuto       VehicleClass = "AUTO"
	VehicleClassMotorcycle VehicleClass = "MOTORCYCLE"
)

// ValidVehicleClass reports whether c is a known vehicle class.
func ValidVehicleClass(c VehicleClass) bool {
	switch c {
	case VehicleClassCar, VehicleClassAuto, VehicleClassMotorcycle:
		return true
	}
	return false
}

// PaymentMethod represents the payment method selected for a ride.
type PaymentMethod string

const (
	PaymentMethodCash   PaymentMethod = "CASH"
	PaymentMethodCard   PaymentMethod = "CARD"
	PaymentMethodWallet PaymentMethod = "WALLET"
	PaymentMethodUPI    PaymentMethod = "UPI"
)

// DefaultTier is assigned when a ride request does not specify a tier.
const DefaultTier = "standard"

// Ride represents a ride request, from submission until a driver accepts
// it and a Trip takes over. Status is mutated only by the lifecycle
// service; a COMPLETED or CANCELLED ride is immutable except for audit
// fields.
type Ride struct {
	ID               string
	RiderID          string
	PickupAddress    string
	PickupLat        float64
	PickupLng        float64
	DestAddress      string
	DestLat          float64
	DestLng          float64
	VehicleClass     VehicleClass
	Tier             string
	PaymentMethod    PaymentMethod
	EstimatedFare    int64 // whole currency units
	Status           RideStatus
	AssignedDriverID string
	IdempotencyKey   string // unique when set; maps to exactly one ride
	CreatedAt        time.Time
	CancelledAt      time.Time
	CancelReason     string
}
