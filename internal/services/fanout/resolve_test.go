package fanout

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/crewnow/crewnow/internal/domain/notify"
	"github.com/crewnow/crewnow/internal/domain/prefs"
)

type fakeDirectory struct {
	subs map[int64]*prefs.Subscriber
}

func (d *fakeDirectory) ListByUserIDs(_ context.Context, ids []int64) ([]*prefs.Subscriber, error) {
	var out []*prefs.Subscriber
	for _, id := range ids {
		if s, ok := d.subs[id]; ok {
			out = append(out, s)
		}
	}
	return out, nil
}

func (d *fakeDirectory) ListFlagSubscribers(_ context.Context, kind notify.Kind) ([]*prefs.Subscriber, error) {
	var out []*prefs.Subscriber
	for _, s := range d.subs {
		if flagFor(s.Email, kind) || flagFor(s.Push, kind) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (d *fakeDirectory) ListGlobalCommentSubscribers(context.Context) ([]*prefs.Subscriber, error) {
	var out []*prefs.Subscriber
	for _, s := range d.subs {
		if s.Email.CommentScope == prefs.CommentsAll || s.Push.CommentScope == prefs.CommentsAll {
			out = append(out, s)
		}
	}
	return out, nil
}

func (d *fakeDirectory) ListGlobalReactionSubscribers(context.Context) ([]*prefs.Subscriber, error) {
	var out []*prefs.Subscriber
	for _, s := range d.subs {
		if s.Email.ReactionScope == prefs.ReactionsAll || s.Push.ReactionScope == prefs.ReactionsAll {
			out = append(out, s)
		}
	}
	return out, nil
}

type fakeCommenters struct{ ids []int64 }

func (f *fakeCommenters) CommenterIDs(context.Context, int64) ([]int64, error) {
	return f.ids, nil
}

type nopEmail struct{}

func (nopEmail) Send(context.Context, string, string, string, string) error { return nil }

type nopPush struct{}

func (nopPush) Send(context.Context, string, string, string, []string, string) error { return nil }

func sub(id int64, name string, email prefs.ChannelPrefs, push prefs.ChannelPrefs) *prefs.Subscriber {
	return &prefs.Subscriber{
		Prefs:     prefs.Prefs{UserID: id, Email: email, Push: push},
		Name:      name,
		EmailAddr: name + "@example.com",
		PushTopic: "crew-" + name,
	}
}

func emails(ds []delivery) []int64 {
	var out []int64
	for _, d := range ds {
		if d.channel == notify.ChannelEmail {
			out = append(out, d.sub.UserID)
		}
	}
	return out
}

func TestResolveScoped_CommentTiers(t *testing.T) {
	// Post by u1; u2 already commented; u3 listens to everything; u4
	// only to own posts; u5 to posts they participate in; u6 is off.
	dir := &fakeDirectory{subs: map[int64]*prefs.Subscriber{
		1: sub(1, "anna", prefs.ChannelPrefs{CommentScope: prefs.CommentsOnOwnPosts}, prefs.ChannelPrefs{}),
		2: sub(2, "ben", prefs.ChannelPrefs{CommentScope: prefs.CommentsParticipating}, prefs.ChannelPrefs{}),
		3: sub(3, "cara", prefs.ChannelPrefs{CommentScope: prefs.CommentsAll}, prefs.ChannelPrefs{}),
		4: sub(4, "dan", prefs.ChannelPrefs{CommentScope: prefs.CommentsOnOwnPosts}, prefs.ChannelPrefs{}),
		5: sub(5, "eva", prefs.ChannelPrefs{CommentScope: prefs.CommentsParticipating}, prefs.ChannelPrefs{}),
		6: sub(6, "finn", prefs.ChannelPrefs{}, prefs.ChannelPrefs{}),
	}}
	f := &Fanout{
		Prefs:    dir,
		Comments: &fakeCommenters{ids: []int64{2}},
		Email:    nopEmail{},
	}

	// u5 comments on u1's post.
	ds, err := f.resolve(context.Background(), notify.Event{
		Kind:         notify.CommentCreated,
		PostID:       10,
		PostAuthorID: 1,
		ActorID:      5,
	})
	require.NoError(t, err)

	// u1 hears as author, u2 as participant, u3 globally. u4 is not the
	// author, u5 acted, u6 is off.
	require.Equal(t, []int64{1, 2, 3}, emails(ds))
}

func TestResolveScoped_ActorNeverNotified(t *testing.T) {
	dir := &fakeDirectory{subs: map[int64]*prefs.Subscriber{
		1: sub(1, "anna", prefs.ChannelPrefs{CommentScope: prefs.CommentsAll}, prefs.ChannelPrefs{}),
	}}
	f := &Fanout{Prefs: dir, Comments: &fakeCommenters{}, Email: nopEmail{}}

	// anna comments on her own post; even with the global scope she
	// must not hear about it.
	ds, err := f.resolve(context.Background(), notify.Event{
		Kind:         notify.CommentCreated,
		PostID:       10,
		PostAuthorID: 1,
		ActorID:      1,
	})
	require.NoError(t, err)
	require.Empty(t, ds)
}

func TestResolveScoped_ReactionOwnPost(t *testing.T) {
	dir := &fakeDirectory{subs: map[int64]*prefs.Subscriber{
		1: sub(1, "anna", prefs.ChannelPrefs{ReactionScope: prefs.ReactionsOnOwnPosts}, prefs.ChannelPrefs{}),
		2: sub(2, "ben", prefs.ChannelPrefs{ReactionScope: prefs.ReactionsOnOwnPosts}, prefs.ChannelPrefs{}),
	}}
	f := &Fanout{Prefs: dir, Email: nopEmail{}}

	ds, err := f.resolve(context.Background(), notify.Event{
		Kind:         notify.ReactionCreated,
		PostID:       10,
		PostAuthorID: 1,
		ActorID:      2,
	})
	require.NoError(t, err)
	require.Equal(t, []int64{1}, emails(ds))
}

func TestResolveFlagged_PerChannel(t *testing.T) {
	dir := &fakeDirectory{subs: map[int64]*prefs.Subscriber{
		1: sub(1, "anna", prefs.ChannelPrefs{NotifyMomentStart: true}, prefs.ChannelPrefs{NotifyMomentStart: true}),
		2: sub(2, "ben", prefs.ChannelPrefs{}, prefs.ChannelPrefs{NotifyMomentStart: true}),
	}}
	f := &Fanout{Prefs: dir, Email: nopEmail{}, Push: nopPush{}}

	ds, err := f.resolve(context.Background(), notify.Event{Kind: notify.MomentStarted})
	require.NoError(t, err)

	var email, push int
	for _, d := range ds {
		switch d.channel {
		case notify.ChannelEmail:
			email++
		case notify.ChannelPush:
			push++
		}
	}
	require.Equal(t, 1, email)
	require.Equal(t, 2, push)
}

func TestResolveFlagged_NewPostExcludesAuthor(t *testing.T) {
	dir := &fakeDirectory{subs: map[int64]*prefs.Subscriber{
		1: sub(1, "anna", prefs.ChannelPrefs{NotifyNewPost: true}, prefs.ChannelPrefs{}),
		2: sub(2, "ben", prefs.ChannelPrefs{NotifyNewPost: true}, prefs.ChannelPrefs{}),
	}}
	f := &Fanout{Prefs: dir, Email: nopEmail{}}

	ds, err := f.resolve(context.Background(), notify.Event{
		Kind:    notify.NewPost,
		ActorID: 1,
	})
	require.NoError(t, err)
	require.Equal(t, []int64{2}, emails(ds))
}

func TestResolveFlagged_DisabledChannelSkipped(t *testing.T) {
	dir := &fakeDirectory{subs: map[int64]*prefs.Subscriber{
		1: sub(1, "anna", prefs.ChannelPrefs{NotifyCheckIn: true}, prefs.ChannelPrefs{NotifyCheckIn: true}),
	}}
	// No push sender configured.
	f := &Fanout{Prefs: dir, Email: nopEmail{}}

	ds, err := f.resolve(context.Background(), notify.Event{Kind: notify.CheckInReminder})
	require.NoError(t, err)
	require.Len(t, ds, 1)
	require.Equal(t, notify.ChannelEmail, ds[0].channel)
}
