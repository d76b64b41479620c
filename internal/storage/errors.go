package storage

import "errors"

// Storage errors shared by every implementation. Upsert-style stores only
// return ErrNotFound; ErrDuplicateKey belongs to the append-only stores
// (referral edges, audit records).
var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateKey is returned when attempting to insert a record
	// with a key that already exists in an append-only store.
	ErrDuplicateKey = errors.New("duplicate key: append-only store does not allow updates")

	// ErrInvalidInput is returned when input validation fails.
	ErrInvalidInput = errors.New("invalid input")
)
