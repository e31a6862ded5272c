package post

import (
	"context"
	"time"
)

type Repo interface {
	Create(ctx context.Context, p *Post) error
	GetByID(ctx context.Context, id int64) (*Post, error)
	// CountByUserSince counts the user's posts with created_at >= since.
	CountByUserSince(ctx context.Context, userID int64, since time.Time) (int, error)
	// ExistsByUserInRange reports whether the user posted at least once
	// with from <= created_at <= to.
	ExistsByUserInRange(ctx context.Context, userID int64, from, to time.Time) (bool, error)
	// PosterNamesSince returns the distinct display names of everyone who
	// posted since the instant, ordered by their first post.
	PosterNamesSince(ctx context.Context, since time.Time) ([]string, error)
}
