// Package settings reads and writes per-user notification preferences.
package settings

import (
	"context"
	"fmt"

	"github.com/crewnow/crewnow/internal/domain/prefs"
)

type Usecase struct {
	Prefs prefs.Repo
}

// Get returns the user's preferences, falling back to the all-off
// defaults when nothing was ever saved.
func (u *Usecase) Get(ctx context.Context, userID int64) (*prefs.Prefs, error) {
	p, err := u.Prefs.GetByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load prefs: %w", err)
	}
	return p, nil
}

// Update clamps out-of-range scope values to the nearest valid tier and
// upserts. Clients that send garbage get sane settings, not an error.
func (u *Usecase) Update(ctx context.Context, p *prefs.Prefs) (*prefs.Prefs, error) {
	clampChannel(&p.Email)
	clampChannel(&p.Push)

	if err := u.Prefs.Upsert(ctx, p); err != nil {
		return nil, fmt.Errorf("save prefs: %w", err)
	}
	return p, nil
}

func clampChannel(c *prefs.ChannelPrefs) {
	if !c.CommentScope.Valid() {
		if c.CommentScope < prefs.CommentsOff {
			c.CommentScope = prefs.CommentsOff
		} else {
			c.CommentScope = prefs.CommentsAll
		}
	}
	if !c.ReactionScope.Valid() {
		if c.ReactionScope < prefs.ReactionsOff {
			c.ReactionScope = prefs.ReactionsOff
		} else {
			c.ReactionScope = prefs.ReactionsAll
		}
	}
}
