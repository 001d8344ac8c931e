package service

import (
	"errors"
	"fmt"
)

// Kind classifies a service error so the transport layer can map it to
// a status code without inspecting messages.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindUnauthorized
	KindConflict
	KindUpstreamUnavailable
)

// Error is the error type returned by the service layer.
type Error struct {
	kind Kind
	msg  string
	err  error
}

func (e *Error) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %v", e.msg, e.err)
	}
	return e.msg
}

func (e *Error) Unwrap() error { return e.err }

// Kind returns the error's classification.
func (e *Error) Kind() Kind { return e.kind }

// E creates a service error of the given kind.
func E(kind Kind, msg string) *Error {
	return &Error{kind: kind, msg: msg}
}

// Wrap creates a service error of the given kind wrapping a cause.
func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{kind: kind, msg: msg, err: err}
}

// KindOf returns the classification of err, or KindInternal for
// anything that is not a service error.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.kind
	}
	return KindInternal
}

var (
	// ErrInvalidRiderID is returned when the rider ID is empty.
	ErrInvalidRiderID = E(KindValidation, "invalid rider id")

	// ErrInvalidDriverID is returned when the driver ID is empty.
	ErrInvalidDriverID = E(KindValidation, "invalid driver id")

	// ErrInvalidRideID is returned when the ride ID is empty.
	ErrInvalidRideID = E(KindValidation, "invalid ride id")

	// ErrInvalidTripID is returned when the trip ID is empty.
	ErrInvalidTripID = E(KindValidation, "invalid trip id")

	// ErrInvalidPickupLocation is returned when pickup coordinates are invalid.
	ErrInvalidPickupLocation = E(KindValidation, "invalid pickup location")

	// ErrInvalidDestinationLocation is returned when destination coordinates are invalid.
	ErrInvalidDestinationLocation = E(KindValidation, "invalid destination location")

	// ErrInvalidLocation is returned when location coordinates are invalid.
	ErrInvalidLocation = E(KindValidation, "invalid location")

	// ErrInvalidVehicleClass is returned when the vehicle class is unknown.
	ErrInvalidVehicleClass = E(KindValidation, "invalid vehicle class")

	// ErrInvalidPaymentMethod is returned when the payment method is unknown.
	ErrInvalidPaymentMethod = E(KindValidation, "invalid payment method")

	// ErrRideNotFound is returned when no ride exists with the given ID.
	ErrRideNotFound = E(KindNotFound, "ride not found")

	// ErrDriverNotFound is returned when no driver exists with the given ID.
	ErrDriverNotFound = E(KindNotFound, "driver not found")

	// ErrTripNotFound is returned when no trip exists with the given ID.
	ErrTripNotFound = E(KindNotFound, "trip not found")

	// ErrUserNotFound is returned when no user exists with the given ID.
	ErrUserNotFound = E(KindNotFound, "user not found")

	// ErrNotRideOwner is returned when an actor reads or mutates a ride
	// belonging to someone else.
	ErrNotRideOwner = E(KindUnauthorized, "ride belongs to a different rider")

	// ErrNotTripDriver is returned when a driver operates on a trip
	// assigned to a different driver.
	ErrNotTripDriver = E(KindUnauthorized, "trip belongs to a different driver")

	// ErrRideNotPending is returned when an accept or cancel loses the
	// race: the ride has already left PENDING.
	ErrRideNotPending = E(KindConflict, "ride is no longer pending")

	// ErrDriverNotActive is returned when a driver who is OFFLINE or
	// already on a trip tries to accept a ride.
	ErrDriverNotActive = E(KindConflict, "driver is not active")

	// ErrTripNotActive is returned when pausing a trip that is not ACTIVE.
	ErrTripNotActive = E(KindConflict, "trip is not active")

	// ErrTripNotPaused is returned when resuming a trip that is not PAUSED.
	ErrTripNotPaused = E(KindConflict, "trip is not paused")

	// ErrTripAlreadyEnded is returned when operating on a COMPLETED trip.
	ErrTripAlreadyEnded = E(KindConflict, "trip already ended")

	// ErrTripNotCompleted is returned when paying for a trip that has not ended.
	ErrTripNotCompleted = E(KindConflict, "trip is not completed")

	// ErrPaymentExists is returned when the trip already has a live payment.
	ErrPaymentExists = E(KindConflict, "trip already has a payment")

	// ErrRouteUnavailable is returned when the routing provider cannot
	// be reached after retries.
	ErrRouteUnavailable = E(KindUpstreamUnavailable, "routing provider unavailable")

	// ErrNoRouteFound is returned when no drivable route exists between
	// pickup and destination.
	ErrNoRouteFound = E(KindValidation, "no route between pickup and destination")
)
