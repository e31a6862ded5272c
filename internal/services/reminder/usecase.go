// Package reminder sends the one mid-window check-in nudge per moment.
package reminder

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/crewnow/crewnow/internal/domain/moment"
	"github.com/crewnow/crewnow/internal/domain/notify"
)

type MomentRepo interface {
	Latest(ctx context.Context) (*moment.Moment, error)
	MarkReminderSent(ctx context.Context, id int64) error
}

type PosterSource interface {
	PosterNamesSince(ctx context.Context, since time.Time) ([]string, error)
}

type Fanout interface {
	Dispatch(ctx context.Context, ev notify.Event) (int, error)
}

type Usecase struct {
	Moments MomentRepo
	Posts   PosterSource
	Fanout  Fanout
	Clock   notify.Clock
	Log     *zap.Logger

	// Delay is how long after the window opens the reminder fires.
	Delay time.Duration

	// NotFound and Conflict are the store's sentinels.
	NotFound error
	Conflict error
}

// MaybeSend fires the check-in reminder once per moment. It is a no-op
// while the delay has not elapsed, once the reminder went out, and after
// the window closed. The reminder_sent flag is flipped with a
// compare-and-set before dispatching, so two overlapping invocations
// cannot both send.
func (u *Usecase) MaybeSend(ctx context.Context) error {
	m, err := u.Moments.Latest(ctx)
	if err != nil {
		if errors.Is(err, u.NotFound) {
			return nil
		}
		return fmt.Errorf("latest moment: %w", err)
	}
	if m.ReminderSent {
		return nil
	}
	if m.EndAt != nil && !m.EndAt.IsZero() {
		return nil
	}
	now := u.Clock.Now()
	if now.Sub(m.StartAt) < u.Delay {
		return nil
	}

	names, err := u.Posts.PosterNamesSince(ctx, m.StartAt)
	if err != nil {
		return fmt.Errorf("poster names: %w", err)
	}

	if err := u.Moments.MarkReminderSent(ctx, m.ID); err != nil {
		if errors.Is(err, u.Conflict) {
			// Another invocation won the flag; nothing to do.
			u.Log.Debug("reminder already claimed", zap.Int64("moment_id", m.ID))
			return nil
		}
		return fmt.Errorf("mark reminder sent: %w", err)
	}

	sent, err := u.Fanout.Dispatch(ctx, notify.Event{
		Kind:        notify.CheckInReminder,
		StartAt:     m.StartAt,
		PosterNames: names,
	})
	if err != nil {
		// The flag is already set: the reminder is spent for this
		// moment even though delivery failed.
		u.Log.Warn("check-in fan-out failed", zap.Int64("moment_id", m.ID), zap.Error(err))
		return nil
	}
	u.Log.Info("check-in reminder sent",
		zap.Int64("moment_id", m.ID),
		zap.Int("recipients", sent),
		zap.Int("posters", len(names)),
	)
	return nil
}
