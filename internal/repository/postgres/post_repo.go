package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/crewnow/crewnow/internal/domain/post"
)

var _ post.Repo = (*PostRepo)(nil)

type PostRepo struct {
	db *DB
}

func NewPostRepo(db *DB) *PostRepo { return &PostRepo{db: db} }

const (
	qPostInsert = `
INSERT INTO posts (author_id, image_url, caption)
VALUES ($1, $2, $3)
RETURNING id, author_id, image_url, caption, created_at;`

	qPostByID = `
SELECT id, author_id, image_url, caption, created_at
FROM posts
WHERE id = $1;`

	qPostCountSince = `
SELECT COUNT(*)
FROM posts
WHERE author_id = $1 AND created_at >= $2;`

	qPostExistsInRange = `
SELECT EXISTS (
  SELECT 1 FROM posts
  WHERE author_id = $1 AND created_at >= $2 AND created_at <= $3
);`

	// Distinct posters ordered by their first post since the instant.
	qPosterNamesSince = `
SELECT u.name
FROM (
  SELECT author_id, MIN(created_at) AS first_post
  FROM posts
  WHERE created_at >= $1
  GROUP BY author_id
) p
JOIN users u ON u.id = p.author_id
ORDER BY p.first_post;`
)

func scanPost(row pgx.Row, p *post.Post) error {
	if err := row.Scan(&p.ID, &p.AuthorID, &p.ImageURL, &p.Caption, &p.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("scan post: %w", err)
	}
	return nil
}

func (r *PostRepo) Create(ctx context.Context, p *post.Post) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	row := r.db.Pool.QueryRow(ctx, qPostInsert, p.AuthorID, p.ImageURL, p.Caption)
	if err := scanPost(row, p); err != nil {
		return mapPgError(err)
	}
	return nil
}

func (r *PostRepo) GetByID(ctx context.Context, id int64) (*post.Post, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	var p post.Post
	if err := scanPost(r.db.Pool.QueryRow(ctx, qPostByID, id), &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PostRepo) CountByUserSince(ctx context.Context, userID int64, since time.Time) (int, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	var n int
	if err := r.db.Pool.QueryRow(ctx, qPostCountSince, userID, since).Scan(&n); err != nil {
		return 0, fmt.Errorf("count posts: %w", err)
	}
	return n, nil
}

func (r *PostRepo) ExistsByUserInRange(ctx context.Context, userID int64, from, to time.Time) (bool, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	var ok bool
	if err := r.db.Pool.QueryRow(ctx, qPostExistsInRange, userID, from, to).Scan(&ok); err != nil {
		return false, fmt.Errorf("posts exist in range: %w", err)
	}
	return ok, nil
}

func (r *PostRepo) PosterNamesSince(ctx context.Context, since time.Time) ([]string, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	rows, err := r.db.Pool.Query(ctx, qPosterNamesSince, since)
	if err != nil {
		return nil, fmt.Errorf("query poster names: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan poster name: %w", err)
		}
		out = append(out, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}
