package feed

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/crewnow/crewnow/internal/domain/comment"
	"github.com/crewnow/crewnow/internal/domain/notify"
	"github.com/crewnow/crewnow/internal/domain/post"
	"github.com/crewnow/crewnow/internal/domain/reaction"
	"github.com/crewnow/crewnow/internal/domain/user"
)

var errNoRow = errors.New("no row")

type fakeQuota struct{ remaining int }

func (f fakeQuota) PostsRemaining(context.Context, int64) (int, error) { return f.remaining, nil }

type fakeDispatcher struct{ events []notify.Event }

func (f *fakeDispatcher) Dispatch(_ context.Context, ev notify.Event) (int, error) {
	f.events = append(f.events, ev)
	return 1, nil
}

type fakePosts struct {
	created *post.Post
	byID    map[int64]*post.Post
}

func (f *fakePosts) Create(_ context.Context, p *post.Post) error {
	p.ID = 101
	f.created = p
	return nil
}

func (f *fakePosts) GetByID(_ context.Context, id int64) (*post.Post, error) {
	if p, ok := f.byID[id]; ok {
		return p, nil
	}
	return nil, errNoRow
}

func (f *fakePosts) CountByUserSince(context.Context, int64, time.Time) (int, error) {
	return 0, nil
}

func (f *fakePosts) ExistsByUserInRange(context.Context, int64, time.Time, time.Time) (bool, error) {
	return false, nil
}

func (f *fakePosts) PosterNamesSince(context.Context, time.Time) ([]string, error) {
	return nil, nil
}

type fakeComments struct{ created *comment.Comment }

func (f *fakeComments) Create(_ context.Context, c *comment.Comment) error {
	f.created = c
	return nil
}

func (f *fakeComments) CommenterIDs(context.Context, int64) ([]int64, error) { return nil, nil }

type fakeReactions struct{ created *reaction.Reaction }

func (f *fakeReactions) Create(_ context.Context, r *reaction.Reaction) error {
	f.created = r
	return nil
}

type fakeUsers struct{ names map[int64]string }

func (f *fakeUsers) GetByID(_ context.Context, id int64) (*user.User, error) {
	name, ok := f.names[id]
	if !ok {
		return nil, errors.New("not found")
	}
	return &user.User{ID: id, Name: name}, nil
}

func newUsecase(posts *fakePosts, quota fakeQuota, disp *fakeDispatcher) *Usecase {
	return &Usecase{
		Posts:     posts,
		Comments:  &fakeComments{},
		Reactions: &fakeReactions{},
		Users:     &fakeUsers{names: map[int64]string{1: "Anna", 2: "Ben"}},
		Quota:     quota,
		Fanout:    disp,
		Log:       zap.NewNop(),
		NotFound:  errNoRow,
	}
}

func TestCreatePost_DispatchesNewPost(t *testing.T) {
	posts := &fakePosts{}
	disp := &fakeDispatcher{}
	uc := newUsecase(posts, fakeQuota{remaining: 3}, disp)

	p := &post.Post{AuthorID: 1, ImageURL: "https://img/x.jpg"}
	require.NoError(t, uc.CreatePost(context.Background(), p))
	require.NotNil(t, posts.created)

	require.Len(t, disp.events, 1)
	ev := disp.events[0]
	require.Equal(t, notify.NewPost, ev.Kind)
	require.EqualValues(t, 101, ev.PostID)
	require.EqualValues(t, 1, ev.ActorID)
	require.Equal(t, "Anna", ev.ActorName)
}

func TestCreatePost_QuotaExhausted(t *testing.T) {
	posts := &fakePosts{}
	disp := &fakeDispatcher{}
	uc := newUsecase(posts, fakeQuota{remaining: 0}, disp)

	err := uc.CreatePost(context.Background(), &post.Post{AuthorID: 1})
	require.ErrorIs(t, err, ErrQuotaExhausted)
	require.Nil(t, posts.created)
	require.Empty(t, disp.events)
}

func TestCreateComment_UsesParentAuthor(t *testing.T) {
	posts := &fakePosts{byID: map[int64]*post.Post{
		55: {ID: 55, AuthorID: 2},
	}}
	disp := &fakeDispatcher{}
	uc := newUsecase(posts, fakeQuota{}, disp)

	c := &comment.Comment{PostID: 55, AuthorID: 1, Content: "schön!"}
	require.NoError(t, uc.CreateComment(context.Background(), c))

	require.Len(t, disp.events, 1)
	ev := disp.events[0]
	require.Equal(t, notify.CommentCreated, ev.Kind)
	require.EqualValues(t, 55, ev.PostID)
	require.EqualValues(t, 2, ev.PostAuthorID)
	require.EqualValues(t, 1, ev.ActorID)
}

func TestCreateReaction_MissingPost(t *testing.T) {
	posts := &fakePosts{byID: map[int64]*post.Post{}}
	disp := &fakeDispatcher{}
	uc := newUsecase(posts, fakeQuota{}, disp)

	err := uc.CreateReaction(context.Background(), &reaction.Reaction{PostID: 9, UserID: 1, Emoji: "❤️"})
	require.ErrorIs(t, err, ErrPostNotFound)
	require.Empty(t, disp.events)
}

func TestCreateComment_MissingPost(t *testing.T) {
	posts := &fakePosts{byID: map[int64]*post.Post{}}
	disp := &fakeDispatcher{}
	uc := newUsecase(posts, fakeQuota{}, disp)

	c := &comment.Comment{PostID: 9, AuthorID: 1, Content: "hi"}
	require.ErrorIs(t, uc.CreateComment(context.Background(), c), ErrPostNotFound)
	require.Empty(t, disp.events)
}

func TestActorName_FallsBack(t *testing.T) {
	posts := &fakePosts{byID: map[int64]*post.Post{7: {ID: 7, AuthorID: 2}}}
	disp := &fakeDispatcher{}
	uc := newUsecase(posts, fakeQuota{}, disp)

	r := &reaction.Reaction{PostID: 7, UserID: 42, Emoji: "🔥"}
	require.NoError(t, uc.CreateReaction(context.Background(), r))
	require.Equal(t, "Jemand", disp.events[0].ActorName)
}
