package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/crewnow/crewnow/internal/domain/notify"
)

var _ notify.Repo = (*NotificationRepo)(nil)

type NotificationRepo struct{ db *DB }

func NewNotificationRepo(db *DB) *NotificationRepo { return &NotificationRepo{db: db} }

const qNotifInsert = `
INSERT INTO notifications (user_id, event, channel, sent_at, payload)
VALUES ($1, $2, $3, COALESCE($4, NOW()), $5)
RETURNING id, sent_at;`

func (r *NotificationRepo) Create(ctx context.Context, n *notify.Notification) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	if err := r.db.Pool.QueryRow(ctx, qNotifInsert,
		n.UserID,
		string(n.Event),
		string(n.Channel),
		nullTime(n.SentAt),
		n.Payload,
	).Scan(&n.ID, &n.SentAt); err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

func nullTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
