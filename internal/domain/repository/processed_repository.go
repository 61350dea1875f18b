package repository

import (
	"context"
)

// ProcessedSetRepository is the durable set of message identifiers that
// have already produced a calendar update. An identifier is added only
// after its event has been written to the calendar store.
type ProcessedSetRepository interface {
	// Load reads the persisted set from stable storage. A missing
	// blob yields an empty set, not an error.
	Load(ctx context.Context) error

	// Contains reports whether the identifier has been processed.
	Contains(id string) bool

	// Add records the identifier and persists the set immediately.
	Add(ctx context.Context, id string) error
}
