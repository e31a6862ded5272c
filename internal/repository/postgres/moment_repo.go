package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/crewnow/crewnow/internal/domain/moment"
)

var _ moment.Repo = (*MomentRepo)(nil)

type MomentRepo struct {
	db *DB
}

func NewMomentRepo(db *DB) *MomentRepo { return &MomentRepo{db: db} }

const (
	qMomentLatest = `
SELECT id, start_at, end_at, reminder_sent, created_at
FROM moments
ORDER BY start_at DESC
LIMIT 1;`

	// The uq_moments_open partial index makes this insert the losing
	// half of a concurrent open: the second writer gets a unique
	// violation, surfaced as ErrConflict.
	qMomentInsert = `
INSERT INTO moments (start_at, end_at, reminder_sent)
VALUES ($1, NULL, FALSE)
RETURNING id, start_at, end_at, reminder_sent, created_at;`

	// The end_at IS NULL predicate is the guard against two overlapping
	// ticks both closing and reopening the window.
	qMomentClose = `
UPDATE moments
SET end_at = $2
WHERE id = $1 AND end_at IS NULL;`

	qMomentMarkReminder = `
UPDATE moments
SET reminder_sent = TRUE
WHERE id = $1 AND reminder_sent = FALSE;`
)

func scanMoment(row pgx.Row, m *moment.Moment) error {
	if err := row.Scan(&m.ID, &m.StartAt, &m.EndAt, &m.ReminderSent, &m.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("scan moment: %w", err)
	}
	return nil
}

func (r *MomentRepo) Latest(ctx context.Context) (*moment.Moment, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	var m moment.Moment
	if err := scanMoment(r.db.Pool.QueryRow(ctx, qMomentLatest), &m); err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *MomentRepo) Create(ctx context.Context, startAt time.Time) (*moment.Moment, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	var m moment.Moment
	err := r.db.Pool.QueryRow(ctx, qMomentInsert, startAt).Scan(
		&m.ID, &m.StartAt, &m.EndAt, &m.ReminderSent, &m.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("moment insert: %w", mapPgError(err))
	}
	return &m, nil
}

func (r *MomentRepo) Close(ctx context.Context, id int64, endAt time.Time) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	cmd, err := r.db.Pool.Exec(ctx, qMomentClose, id, endAt)
	if err != nil {
		return fmt.Errorf("moment close: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrConflict
	}
	return nil
}

func (r *MomentRepo) MarkReminderSent(ctx context.Context, id int64) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	cmd, err := r.db.Pool.Exec(ctx, qMomentMarkReminder, id)
	if err != nil {
		return fmt.Errorf("moment mark reminder: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrConflict
	}
	return nil
}
