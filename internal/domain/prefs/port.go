package prefs

import (
	"context"

	"github.com/crewnow/crewnow/internal/domain/notify"
)

type Repo interface {
	// GetByUser returns the user's preferences, or the all-off defaults
	// when the user never saved any.
	GetByUser(ctx context.Context, userID int64) (*Prefs, error)
	Upsert(ctx context.Context, p *Prefs) error

	// ListByUserIDs returns subscribers for the given users; users
	// without a preference row are omitted.
	ListByUserIDs(ctx context.Context, ids []int64) ([]*Subscriber, error)
	// ListFlagSubscribers returns everyone with the boolean flag for the
	// event set on at least one channel. Valid for MomentStarted,
	// NewPost and CheckInReminder events only.
	ListFlagSubscribers(ctx context.Context, kind notify.Kind) ([]*Subscriber, error)
	// ListGlobalCommentSubscribers returns everyone whose comment scope
	// is the global tier on at least one channel.
	ListGlobalCommentSubscribers(ctx context.Context) ([]*Subscriber, error)
	// ListGlobalReactionSubscribers is the reaction counterpart.
	ListGlobalReactionSubscribers(ctx context.Context) ([]*Subscriber, error)
}
