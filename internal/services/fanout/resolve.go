package fanout

import (
	"context"
	"fmt"
	"slices"

	"github.com/crewnow/crewnow/internal/domain/notify"
	"github.com/crewnow/crewnow/internal/domain/prefs"
)

// resolve builds the per-channel delivery list for an event. Comment and
// reaction events go through scope resolution; the other three use the
// per-channel boolean flags.
func (f *Fanout) resolve(ctx context.Context, ev notify.Event) ([]delivery, error) {
	if ev.Kind.ScopeBased() {
		return f.resolveScoped(ctx, ev)
	}
	return f.resolveFlagged(ctx, ev)
}

func (f *Fanout) resolveFlagged(ctx context.Context, ev notify.Event) ([]delivery, error) {
	subs, err := f.Prefs.ListFlagSubscribers(ctx, ev.Kind)
	if err != nil {
		return nil, fmt.Errorf("list subscribers: %w", err)
	}

	var out []delivery
	for _, s := range subs {
		// New-post never notifies its own author; the window-open and
		// check-in events have no actor to exclude.
		if ev.Kind == notify.NewPost && s.UserID == ev.ActorID {
			continue
		}
		if f.Email != nil && s.EmailAddr != "" && flagFor(s.Email, ev.Kind) {
			out = append(out, delivery{sub: s, channel: notify.ChannelEmail})
		}
		if f.Push != nil && s.PushTopic != "" && flagFor(s.Push, ev.Kind) {
			out = append(out, delivery{sub: s, channel: notify.ChannelPush})
		}
	}
	return out, nil
}

func flagFor(cp prefs.ChannelPrefs, kind notify.Kind) bool {
	switch kind {
	case notify.MomentStarted:
		return cp.NotifyMomentStart
	case notify.NewPost:
		return cp.NotifyNewPost
	case notify.CheckInReminder:
		return cp.NotifyCheckIn
	default:
		return false
	}
}

// candidate tags a subscriber with their relation to the post, which is
// what the scope tiers are evaluated against.
type candidate struct {
	sub           *prefs.Subscriber
	isAuthor      bool
	isParticipant bool
}

func (f *Fanout) resolveScoped(ctx context.Context, ev notify.Event) ([]delivery, error) {
	candidates := make(map[int64]*candidate)
	merge := func(subs []*prefs.Subscriber, author, participant bool) {
		for _, s := range subs {
			c, ok := candidates[s.UserID]
			if !ok {
				c = &candidate{sub: s}
				candidates[s.UserID] = c
			}
			c.isAuthor = c.isAuthor || author
			c.isParticipant = c.isParticipant || participant
		}
	}

	authorSubs, err := f.Prefs.ListByUserIDs(ctx, []int64{ev.PostAuthorID})
	if err != nil {
		return nil, fmt.Errorf("author prefs: %w", err)
	}
	merge(authorSubs, true, false)

	if ev.Kind == notify.CommentCreated {
		ids, err := f.Comments.CommenterIDs(ctx, ev.PostID)
		if err != nil {
			return nil, fmt.Errorf("commenters: %w", err)
		}
		commenterSubs, err := f.Prefs.ListByUserIDs(ctx, ids)
		if err != nil {
			return nil, fmt.Errorf("commenter prefs: %w", err)
		}
		merge(commenterSubs, false, true)
	}

	var globals []*prefs.Subscriber
	if ev.Kind == notify.CommentCreated {
		globals, err = f.Prefs.ListGlobalCommentSubscribers(ctx)
	} else {
		globals, err = f.Prefs.ListGlobalReactionSubscribers(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("global subscribers: %w", err)
	}
	merge(globals, false, false)

	// Never notify the acting user, whatever their own scope says.
	delete(candidates, ev.ActorID)

	ids := make([]int64, 0, len(candidates))
	for id := range candidates {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	var out []delivery
	for _, id := range ids {
		c := candidates[id]
		if f.Email != nil && c.sub.EmailAddr != "" && scopeAllows(ev.Kind, c.sub.Email, c) {
			out = append(out, delivery{sub: c.sub, channel: notify.ChannelEmail})
		}
		if f.Push != nil && c.sub.PushTopic != "" && scopeAllows(ev.Kind, c.sub.Push, c) {
			out = append(out, delivery{sub: c.sub, channel: notify.ChannelPush})
		}
	}
	return out, nil
}

func scopeAllows(kind notify.Kind, cp prefs.ChannelPrefs, c *candidate) bool {
	if kind == notify.CommentCreated {
		return cp.CommentScope.Allows(c.isAuthor, c.isParticipant)
	}
	return cp.ReactionScope.Allows(c.isAuthor)
}
