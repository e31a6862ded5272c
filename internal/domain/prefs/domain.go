// Package prefs models per-user notification preferences: one block of
// settings per delivery channel.
package prefs

import "time"

// CommentScope controls how broadly a user hears about new comments. The
// tiers are monotone: a higher tier delivers everything the lower tiers
// would. The raw integers are persisted as-is, so the ordering must not
// change.
type CommentScope int

const (
	CommentsOff           CommentScope = 0 // never
	CommentsOnOwnPosts    CommentScope = 1 // only on posts the user authored
	CommentsParticipating CommentScope = 2 // also on posts the user commented on
	CommentsAll           CommentScope = 3 // every comment anywhere
)

// Allows reports whether a comment event reaches a recipient with this
// scope, given the recipient's relation to the post.
func (s CommentScope) Allows(isAuthor, isParticipant bool) bool {
	switch s {
	case CommentsAll:
		return true
	case CommentsParticipating:
		return isAuthor || isParticipant
	case CommentsOnOwnPosts:
		return isAuthor
	default:
		return false
	}
}

func (s CommentScope) Valid() bool { return s >= CommentsOff && s <= CommentsAll }

// ReactionScope is the reaction counterpart; it has no "participating"
// tier, so global is 2.
type ReactionScope int

const (
	ReactionsOff        ReactionScope = 0
	ReactionsOnOwnPosts ReactionScope = 1
	ReactionsAll        ReactionScope = 2
)

func (s ReactionScope) Allows(isAuthor bool) bool {
	switch s {
	case ReactionsAll:
		return true
	case ReactionsOnOwnPosts:
		return isAuthor
	default:
		return false
	}
}

func (s ReactionScope) Valid() bool { return s >= ReactionsOff && s <= ReactionsAll }

// ChannelPrefs is one channel's worth of settings. The zero value means
// "everything off", which is also the default for users who never saved
// settings.
type ChannelPrefs struct {
	NotifyMomentStart bool          `json:"notify_moment_start"`
	NotifyNewPost     bool          `json:"notify_new_post"`
	NotifyCheckIn     bool          `json:"notify_check_in"`
	CommentScope      CommentScope  `json:"comment_scope"`
	ReactionScope     ReactionScope `json:"reaction_scope"`
}

type Prefs struct {
	UserID    int64        `json:"user_id"`
	Email     ChannelPrefs `json:"email"`
	Push      ChannelPrefs `json:"push"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// Subscriber is a preference row joined with the user's display name and
// channel addresses, the shape every fan-out query needs.
type Subscriber struct {
	Prefs
	Name      string `json:"name"`
	EmailAddr string `json:"email_addr"`
	PushTopic string `json:"push_topic"`
}
