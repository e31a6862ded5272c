package notify

import "time"

// Kind enumerates the five notification event types.
type Kind string

const (
	MomentStarted   Kind = "moment_started"
	NewPost         Kind = "new_post"
	CommentCreated  Kind = "comment_created"
	ReactionCreated Kind = "reaction_created"
	CheckInReminder Kind = "check_in_reminder"
)

// ScopeBased reports whether recipients for the kind are resolved via
// scope tiers rather than a plain boolean flag.
func (k Kind) ScopeBased() bool {
	return k == CommentCreated || k == ReactionCreated
}

// Event is the payload handed to the fan-out. Which fields are set
// depends on the kind: StartAt for MomentStarted, PostID/PostAuthorID/
// actor fields for the post-related kinds, PosterNames for the check-in
// reminder.
type Event struct {
	Kind         Kind
	StartAt      time.Time
	PostID       int64
	PostAuthorID int64
	ActorID      int64
	ActorName    string
	PosterNames  []string
}

// Channel names a delivery channel, used in logs and audit rows.
type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelPush  Channel = "push"
)

// Notification is an audit row recorded after a successful delivery.
type Notification struct {
	ID      int64     `json:"id"`
	UserID  int64     `json:"user_id"`
	Event   Kind      `json:"event"`
	Channel Channel   `json:"channel"`
	SentAt  time.Time `json:"sent_at"`
	Payload string    `json:"payload"`
}
