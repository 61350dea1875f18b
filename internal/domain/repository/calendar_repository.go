package repository

import (
	"context"

	"railcal-service/internal/domain/entity"
)

// CalendarRepository is the persisted, append-only collection of
// synthesized events, serialized as a single iCalendar file.
type CalendarRepository interface {
	// Merge loads the current store (if present), appends the new
	// events, and rewrites the file atomically. No deduplication is
	// performed here; idempotence is the watcher's concern.
	Merge(ctx context.Context, events []entity.CalendarEvent) error

	// Exists reports whether the calendar artifact is present on
	// disk. The watcher uses this to trigger reprocessing when the
	// store has been deleted out from under the processed set.
	Exists() bool
}

// CalendarSinkRepository pushes one synthesized event to a remote
// calendar. Failures are logged by the caller and never block the
// local calendar write, which always happens first.
type CalendarSinkRepository interface {
	AddEvent(ctx context.Context, event entity.CalendarEvent) error
}
