package notify

import (
	"context"
	"time"
)

type EmailSender interface {
	Send(ctx context.Context, to, subject, html, text string) error
}

type PushSender interface {
	Send(ctx context.Context, topic, title, message string, tags []string, click string) error
}

type Clock interface {
	Now() time.Time
}

// SystemClock is the wall-clock Clock used outside tests.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// Broadcast is the optional side channel told about new windows,
// best-effort and decoupled from the tick's own success.
type Broadcast interface {
	MomentStarted(ctx context.Context, momentID int64, startAt time.Time) error
}

// Repo stores delivery audit rows.
type Repo interface {
	Create(ctx context.Context, n *Notification) error
}
