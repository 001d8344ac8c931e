package notify

// Event names on the wire.
const (
	EventNewRide              = "new-ride"
	EventRideStarted          = "ride-started"
	EventRideCancelled        = "ride-cancelled"
	EventTripPaused           = "trip-paused"
	EventTripResumed          = "trip-resumed"
	EventTripEnded            = "trip-ended"
	EventDriverLocationUpdate = "driver-location-update"
	EventPaymentCompleted     = "payment-completed"
)
