package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/crewnow/crewnow/internal/domain/notify"
	"github.com/crewnow/crewnow/internal/domain/prefs"
)

var _ prefs.Repo = (*PrefsRepo)(nil)

type PrefsRepo struct {
	db *DB
}

func NewPrefsRepo(db *DB) *PrefsRepo { return &PrefsRepo{db: db} }

// Every list query returns the same joined shape: preference row plus the
// user's display name and channel addresses.
const subscriberColumns = `
  u.id, u.name, COALESCE(u.email, ''), COALESCE(u.push_topic, ''),
  p.email_notify_moment_start, p.email_notify_new_post, p.email_notify_check_in,
  p.email_comment_scope, p.email_reaction_scope,
  p.push_notify_moment_start, p.push_notify_new_post, p.push_notify_check_in,
  p.push_comment_scope, p.push_reaction_scope,
  p.created_at, p.updated_at`

const (
	qPrefsByUser = `
SELECT user_id,
       email_notify_moment_start, email_notify_new_post, email_notify_check_in,
       email_comment_scope, email_reaction_scope,
       push_notify_moment_start, push_notify_new_post, push_notify_check_in,
       push_comment_scope, push_reaction_scope,
       created_at, updated_at
FROM notification_prefs
WHERE user_id = $1;`

	qPrefsUpsert = `
INSERT INTO notification_prefs (
  user_id,
  email_notify_moment_start, email_notify_new_post, email_notify_check_in,
  email_comment_scope, email_reaction_scope,
  push_notify_moment_start, push_notify_new_post, push_notify_check_in,
  push_comment_scope, push_reaction_scope
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
ON CONFLICT (user_id) DO UPDATE SET
  email_notify_moment_start = EXCLUDED.email_notify_moment_start,
  email_notify_new_post     = EXCLUDED.email_notify_new_post,
  email_notify_check_in     = EXCLUDED.email_notify_check_in,
  email_comment_scope       = EXCLUDED.email_comment_scope,
  email_reaction_scope      = EXCLUDED.email_reaction_scope,
  push_notify_moment_start  = EXCLUDED.push_notify_moment_start,
  push_notify_new_post      = EXCLUDED.push_notify_new_post,
  push_notify_check_in      = EXCLUDED.push_notify_check_in,
  push_comment_scope        = EXCLUDED.push_comment_scope,
  push_reaction_scope       = EXCLUDED.push_reaction_scope,
  updated_at                = NOW()
RETURNING created_at, updated_at;`

	qSubscribersByIDs = `
SELECT ` + subscriberColumns + `
FROM notification_prefs p
JOIN users u ON u.id = p.user_id
WHERE u.id = ANY($1);`

	qGlobalCommentSubscribers = `
SELECT ` + subscriberColumns + `
FROM notification_prefs p
JOIN users u ON u.id = p.user_id
WHERE p.email_comment_scope = 3 OR p.push_comment_scope = 3;`

	qGlobalReactionSubscribers = `
SELECT ` + subscriberColumns + `
FROM notification_prefs p
JOIN users u ON u.id = p.user_id
WHERE p.email_reaction_scope = 2 OR p.push_reaction_scope = 2;`
)

func (r *PrefsRepo) GetByUser(ctx context.Context, userID int64) (*prefs.Prefs, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	var p prefs.Prefs
	err := r.db.Pool.QueryRow(ctx, qPrefsByUser, userID).Scan(
		&p.UserID,
		&p.Email.NotifyMomentStart, &p.Email.NotifyNewPost, &p.Email.NotifyCheckIn,
		&p.Email.CommentScope, &p.Email.ReactionScope,
		&p.Push.NotifyMomentStart, &p.Push.NotifyNewPost, &p.Push.NotifyCheckIn,
		&p.Push.CommentScope, &p.Push.ReactionScope,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// No saved settings means everything off.
			return &prefs.Prefs{UserID: userID}, nil
		}
		return nil, fmt.Errorf("scan prefs: %w", err)
	}
	return &p, nil
}

func (r *PrefsRepo) Upsert(ctx context.Context, p *prefs.Prefs) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	err := r.db.Pool.QueryRow(ctx, qPrefsUpsert,
		p.UserID,
		p.Email.NotifyMomentStart, p.Email.NotifyNewPost, p.Email.NotifyCheckIn,
		p.Email.CommentScope, p.Email.ReactionScope,
		p.Push.NotifyMomentStart, p.Push.NotifyNewPost, p.Push.NotifyCheckIn,
		p.Push.CommentScope, p.Push.ReactionScope,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return mapPgError(fmt.Errorf("prefs upsert: %w", err))
	}
	return nil
}

func (r *PrefsRepo) ListByUserIDs(ctx context.Context, ids []int64) ([]*prefs.Subscriber, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return r.querySubscribers(ctx, qSubscribersByIDs, ids)
}

// flagSubscriberQueries is a closed set; the event kind never reaches the
// SQL as a raw string.
var flagSubscriberQueries = map[notify.Kind]string{
	notify.MomentStarted: `
SELECT ` + subscriberColumns + `
FROM notification_prefs p
JOIN users u ON u.id = p.user_id
WHERE p.email_notify_moment_start OR p.push_notify_moment_start;`,
	notify.NewPost: `
SELECT ` + subscriberColumns + `
FROM notification_prefs p
JOIN users u ON u.id = p.user_id
WHERE p.email_notify_new_post OR p.push_notify_new_post;`,
	notify.CheckInReminder: `
SELECT ` + subscriberColumns + `
FROM notification_prefs p
JOIN users u ON u.id = p.user_id
WHERE p.email_notify_check_in OR p.push_notify_check_in;`,
}

func (r *PrefsRepo) ListFlagSubscribers(ctx context.Context, kind notify.Kind) ([]*prefs.Subscriber, error) {
	q, ok := flagSubscriberQueries[kind]
	if !ok {
		return nil, fmt.Errorf("no flag column for event %q", kind)
	}
	return r.querySubscribers(ctx, q)
}

func (r *PrefsRepo) ListGlobalCommentSubscribers(ctx context.Context) ([]*prefs.Subscriber, error) {
	return r.querySubscribers(ctx, qGlobalCommentSubscribers)
}

func (r *PrefsRepo) ListGlobalReactionSubscribers(ctx context.Context) ([]*prefs.Subscriber, error) {
	return r.querySubscribers(ctx, qGlobalReactionSubscribers)
}

func (r *PrefsRepo) querySubscribers(ctx context.Context, q string, args ...any) ([]*prefs.Subscriber, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	rows, err := r.db.Pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query subscribers: %w", err)
	}
	defer rows.Close()

	var out []*prefs.Subscriber
	for rows.Next() {
		var s prefs.Subscriber
		if err := rows.Scan(
			&s.UserID, &s.Name, &s.EmailAddr, &s.PushTopic,
			&s.Email.NotifyMomentStart, &s.Email.NotifyNewPost, &s.Email.NotifyCheckIn,
			&s.Email.CommentScope, &s.Email.ReactionScope,
			&s.Push.NotifyMomentStart, &s.Push.NotifyNewPost, &s.Push.NotifyCheckIn,
			&s.Push.CommentScope, &s.Push.ReactionScope,
			&s.CreatedAt, &s.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan subscriber: %w", err)
		}
		out = append(out, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}
