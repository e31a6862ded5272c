package moment

import (
	"context"
	"time"
)

type Repo interface {
	// Latest returns the most recently started moment, or ErrNotFound.
	Latest(ctx context.Context) (*Moment, error)
	// Create opens a new moment starting at startAt with a nil end.
	Create(ctx context.Context, startAt time.Time) (*Moment, error)
	// Close sets the end instant, but only if the moment is still open.
	// Returns ErrConflict when a concurrent writer closed it first.
	Close(ctx context.Context, id int64, endAt time.Time) error
	// MarkReminderSent flips reminder_sent false->true. Returns
	// ErrConflict when the flag was already set (another sender won).
	MarkReminderSent(ctx context.Context, id int64) error
}
