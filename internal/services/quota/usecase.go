// Package quota computes how many posts a user may still make in the
// current window. Posting inside the short "fast window" right after the
// moment opens earns the higher daily cap; missing it caps the user at
// the lower limit for the rest of that window. The asymmetry is the
// incentive, not an accident.
package quota

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/crewnow/crewnow/internal/domain/moment"
	"github.com/crewnow/crewnow/internal/domain/notify"
)

type Config struct {
	FastWindow   time.Duration
	InWindow     int // cap when the user posted inside the fast window
	OutsideLimit int // cap otherwise
}

type MomentSource interface {
	Latest(ctx context.Context) (*moment.Moment, error)
}

type PostCounts interface {
	CountByUserSince(ctx context.Context, userID int64, since time.Time) (int, error)
	ExistsByUserInRange(ctx context.Context, userID int64, from, to time.Time) (bool, error)
}

type Usecase struct {
	Moments MomentSource
	Posts   PostCounts
	Clock   notify.Clock
	Cfg     Config

	NotFound error
}

// PostsRemaining returns how many more posts the user may create. No
// moment at all means no posting.
func (u *Usecase) PostsRemaining(ctx context.Context, userID int64) (int, error) {
	m, err := u.Moments.Latest(ctx)
	if err != nil {
		if errors.Is(err, u.NotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("latest moment: %w", err)
	}
	return u.remaining(ctx, userID, m.StartAt)
}

func (u *Usecase) remaining(ctx context.Context, userID int64, start time.Time) (int, error) {
	count, err := u.Posts.CountByUserSince(ctx, userID, start)
	if err != nil {
		return 0, fmt.Errorf("count posts: %w", err)
	}
	inWindow, err := u.Posts.ExistsByUserInRange(ctx, userID, start, start.Add(u.Cfg.FastWindow))
	if err != nil {
		return 0, fmt.Errorf("fast-window lookup: %w", err)
	}

	limit := u.Cfg.OutsideLimit
	if inWindow {
		limit = u.Cfg.InWindow
	}
	if remaining := limit - count; remaining > 0 {
		return remaining, nil
	}
	return 0, nil
}

// Status is the read-only bundle the UI polls. Purely derived state.
type Status struct {
	MomentStart     *time.Time `json:"moment_start"`
	ElapsedSeconds  int64      `json:"elapsed_seconds"`
	TimeLeftSeconds int64      `json:"time_left_in_window_seconds"`
	PostedInWindow  bool       `json:"has_posted_in_window"`
	PostsSince      int        `json:"posts_since_moment"`
	PostedSince     bool       `json:"has_posted_since_moment"`
	Remaining       int        `json:"posts_remaining"`

	FastWindowSeconds int `json:"fast_window_seconds"`
	InWindowLimit     int `json:"in_window_limit"`
	OutsideLimit      int `json:"outside_window_limit"`
}

func (u *Usecase) Status(ctx context.Context, userID int64) (*Status, error) {
	st := &Status{
		FastWindowSeconds: int(u.Cfg.FastWindow / time.Second),
		InWindowLimit:     u.Cfg.InWindow,
		OutsideLimit:      u.Cfg.OutsideLimit,
	}

	m, err := u.Moments.Latest(ctx)
	if err != nil {
		if errors.Is(err, u.NotFound) {
			return st, nil
		}
		return nil, fmt.Errorf("latest moment: %w", err)
	}

	start := m.StartAt
	st.MomentStart = &start

	elapsed := int64(u.Clock.Now().Sub(start) / time.Second)
	if elapsed < 0 {
		elapsed = 0
	}
	st.ElapsedSeconds = elapsed
	if left := int64(st.FastWindowSeconds) - elapsed; left > 0 {
		st.TimeLeftSeconds = left
	}

	st.PostsSince, err = u.Posts.CountByUserSince(ctx, userID, start)
	if err != nil {
		return nil, fmt.Errorf("count posts: %w", err)
	}
	st.PostedSince = st.PostsSince > 0

	st.PostedInWindow, err = u.Posts.ExistsByUserInRange(ctx, userID, start, start.Add(u.Cfg.FastWindow))
	if err != nil {
		return nil, fmt.Errorf("fast-window lookup: %w", err)
	}

	limit := u.Cfg.OutsideLimit
	if st.PostedInWindow {
		limit = u.Cfg.InWindow
	}
	if remaining := limit - st.PostsSince; remaining > 0 {
		st.Remaining = remaining
	}
	return st, nil
}
