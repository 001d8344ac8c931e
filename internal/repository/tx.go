package repository

import "context"

// Tx bundles the repositories scoped to one store transaction. Every
// multi-entity transition (accept, end, cancel) runs through one Tx so a
// failure partway never leaves a partial Ride/Trip/Driver mutation
// visible.
type Tx struct {
	Rides   RideRepository
	Trips   TripRepository
	Drivers DriverRepository
}

// TxRunner executes fn inside a store transaction, committing when fn
// returns nil and rolling back otherwise.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(tx Tx) error) error
}
