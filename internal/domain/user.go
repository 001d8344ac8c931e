package domain

import "time"

// User represents a rider account. Rides are owned by the requesting
// user; ownership is checked on reads and on payment.
type User struct {
	ID        string
	Name      string
	Phone     string
	CreatedAt time.Time
}
