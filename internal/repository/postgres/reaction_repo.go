package postgres

import (
	"context"
	"fmt"

	"github.com/crewnow/crewnow/internal/domain/reaction"
)

var _ reaction.Repo = (*ReactionRepo)(nil)

type ReactionRepo struct {
	db *DB
}

func NewReactionRepo(db *DB) *ReactionRepo { return &ReactionRepo{db: db} }

const qReactionInsert = `
INSERT INTO reactions (post_id, user_id, emoji)
VALUES ($1, $2, $3)
RETURNING id, post_id, user_id, emoji, created_at;`

func (r *ReactionRepo) Create(ctx context.Context, rc *reaction.Reaction) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	row := r.db.Pool.QueryRow(ctx, qReactionInsert, rc.PostID, rc.UserID, rc.Emoji)
	if err := row.Scan(&rc.ID, &rc.PostID, &rc.UserID, &rc.Emoji, &rc.CreatedAt); err != nil {
		return mapPgError(fmt.Errorf("reaction insert: %w", err))
	}
	return nil
}
