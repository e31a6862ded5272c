package settings

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/crewnow/crewnow/internal/domain/notify"
	"github.com/crewnow/crewnow/internal/domain/prefs"
)

type fakeRepo struct {
	got   *prefs.Prefs
	saved *prefs.Prefs
}

func (f *fakeRepo) GetByUser(context.Context, int64) (*prefs.Prefs, error) { return f.got, nil }

func (f *fakeRepo) Upsert(_ context.Context, p *prefs.Prefs) error {
	f.saved = p
	return nil
}

func (f *fakeRepo) ListByUserIDs(context.Context, []int64) ([]*prefs.Subscriber, error) {
	return nil, nil
}

func (f *fakeRepo) ListFlagSubscribers(context.Context, notify.Kind) ([]*prefs.Subscriber, error) {
	return nil, nil
}

func (f *fakeRepo) ListGlobalCommentSubscribers(context.Context) ([]*prefs.Subscriber, error) {
	return nil, nil
}

func (f *fakeRepo) ListGlobalReactionSubscribers(context.Context) ([]*prefs.Subscriber, error) {
	return nil, nil
}

func TestUpdate_ClampsScopes(t *testing.T) {
	repo := &fakeRepo{}
	uc := &Usecase{Prefs: repo}

	in := &prefs.Prefs{
		UserID: 7,
		Email:  prefs.ChannelPrefs{CommentScope: 99, ReactionScope: -3},
		Push:   prefs.ChannelPrefs{CommentScope: -1, ReactionScope: 42},
	}
	out, err := uc.Update(context.Background(), in)
	require.NoError(t, err)

	require.Equal(t, prefs.CommentsAll, out.Email.CommentScope)
	require.Equal(t, prefs.ReactionsOff, out.Email.ReactionScope)
	require.Equal(t, prefs.CommentsOff, out.Push.CommentScope)
	require.Equal(t, prefs.ReactionsAll, out.Push.ReactionScope)
	require.Same(t, out, repo.saved)
}

func TestUpdate_ValidScopesUntouched(t *testing.T) {
	repo := &fakeRepo{}
	uc := &Usecase{Prefs: repo}

	in := &prefs.Prefs{
		UserID: 7,
		Email:  prefs.ChannelPrefs{CommentScope: prefs.CommentsParticipating, ReactionScope: prefs.ReactionsOnOwnPosts},
	}
	out, err := uc.Update(context.Background(), in)
	require.NoError(t, err)
	require.Equal(t, prefs.CommentsParticipating, out.Email.CommentScope)
	require.Equal(t, prefs.ReactionsOnOwnPosts, out.Email.ReactionScope)
}

func TestGet_Defaults(t *testing.T) {
	repo := &fakeRepo{got: &prefs.Prefs{UserID: 3}}
	uc := &Usecase{Prefs: repo}

	p, err := uc.Get(context.Background(), 3)
	require.NoError(t, err)
	require.EqualValues(t, 3, p.UserID)
	require.False(t, p.Email.NotifyMomentStart)
	require.Equal(t, prefs.CommentsOff, p.Email.CommentScope)
}
