package postgres

import (
	"context"
	"fmt"

	"github.com/crewnow/crewnow/internal/domain/comment"
)

var _ comment.Repo = (*CommentRepo)(nil)

type CommentRepo struct {
	db *DB
}

func NewCommentRepo(db *DB) *CommentRepo { return &CommentRepo{db: db} }

const (
	qCommentInsert = `
INSERT INTO comments (post_id, author_id, content)
VALUES ($1, $2, $3)
RETURNING id, post_id, author_id, content, created_at;`

	qCommenterIDs = `
SELECT DISTINCT author_id
FROM comments
WHERE post_id = $1;`
)

func (r *CommentRepo) Create(ctx context.Context, c *comment.Comment) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	row := r.db.Pool.QueryRow(ctx, qCommentInsert, c.PostID, c.AuthorID, c.Content)
	if err := row.Scan(&c.ID, &c.PostID, &c.AuthorID, &c.Content, &c.CreatedAt); err != nil {
		return mapPgError(fmt.Errorf("comment insert: %w", err))
	}
	return nil
}

func (r *CommentRepo) CommenterIDs(ctx context.Context, postID int64) ([]int64, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	rows, err := r.db.Pool.Query(ctx, qCommenterIDs, postID)
	if err != nil {
		return nil, fmt.Errorf("query commenters: %w", err)
	}
	defer rows.Close()

	var out []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan commenter: %w", err)
		}
		out = append(out, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}
