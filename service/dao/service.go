// Package dao defines the generic persistence contract used by the journal
// stores. Implementations keep records in memory or on an afs backed
// filesystem.
package dao

import (
	"context"
)

// Service exposes data access operations for a stored record type.
type Service[K comparable, T any] interface {
	// Save persists a record
	Save(ctx context.Context, t *T) error

	// Load retrieves a record by ID
	Load(ctx context.Context, id K) (*T, error)

	// Delete removes a record by ID
	Delete(ctx context.Context, id K) error

	// List retrieves records matching the supplied parameters
	List(ctx context.Context, parameters ...*Parameter) ([]*T, error)
}
