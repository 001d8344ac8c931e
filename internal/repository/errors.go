package repository

import "errors"

var (
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("entity not found")

	// ErrDuplicateKey is returned when an insert violates a uniqueness
	// constraint (idempotency keys, one live payment per trip).
	ErrDuplicateKey = errors.New("duplicate key")
)
