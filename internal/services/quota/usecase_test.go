package quota

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/crewnow/crewnow/internal/domain/moment"
)

var errNoMoment = errors.New("not found")

type stubMoments struct {
	m   *moment.Moment
	err error
}

func (s *stubMoments) Latest(context.Context) (*moment.Moment, error) { return s.m, s.err }

type stubPosts struct {
	count    int
	inWindow bool
}

func (s *stubPosts) CountByUserSince(context.Context, int64, time.Time) (int, error) {
	return s.count, nil
}

func (s *stubPosts) ExistsByUserInRange(context.Context, int64, time.Time, time.Time) (bool, error) {
	return s.inWindow, nil
}

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

func newUsecase(m *stubMoments, p *stubPosts, now time.Time) *Usecase {
	return &Usecase{
		Moments:  m,
		Posts:    p,
		Clock:    fixedClock{t: now},
		Cfg:      Config{FastWindow: 600 * time.Second, InWindow: 5, OutsideLimit: 2},
		NotFound: errNoMoment,
	}
}

func TestPostsRemaining_NoMoment(t *testing.T) {
	uc := newUsecase(&stubMoments{err: errNoMoment}, &stubPosts{}, time.Now())

	got, err := uc.PostsRemaining(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, 0, got)
}

func TestPostsRemaining_FastWindowEarnsHigherCap(t *testing.T) {
	start := time.Date(2025, 1, 5, 12, 0, 0, 0, time.UTC)
	m := &stubMoments{m: &moment.Moment{ID: 1, StartAt: start}}

	// posted at T+30s, four posts so far: one left out of five
	uc := newUsecase(m, &stubPosts{count: 4, inWindow: true}, start.Add(15*time.Minute))
	got, err := uc.PostsRemaining(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, 1, got)
}

func TestPostsRemaining_LateFirstPostCapsAtTwo(t *testing.T) {
	start := time.Date(2025, 1, 5, 12, 0, 0, 0, time.UTC)
	m := &stubMoments{m: &moment.Moment{ID: 1, StartAt: start}}

	// first post at T+650s, outside the fast window
	uc := newUsecase(m, &stubPosts{count: 1, inWindow: false}, start.Add(11*time.Minute))
	got, err := uc.PostsRemaining(context.Background(), 2)
	require.NoError(t, err)
	require.Equal(t, 1, got)
}

func TestPostsRemaining_NeverNegative(t *testing.T) {
	start := time.Date(2025, 1, 5, 12, 0, 0, 0, time.UTC)
	m := &stubMoments{m: &moment.Moment{ID: 1, StartAt: start}}

	uc := newUsecase(m, &stubPosts{count: 3, inWindow: false}, start.Add(time.Hour))
	got, err := uc.PostsRemaining(context.Background(), 3)
	require.NoError(t, err)
	require.Equal(t, 0, got)
}

func TestStatus(t *testing.T) {
	start := time.Date(2025, 1, 5, 12, 0, 0, 0, time.UTC)
	m := &stubMoments{m: &moment.Moment{ID: 1, StartAt: start}}

	uc := newUsecase(m, &stubPosts{count: 2, inWindow: true}, start.Add(4*time.Minute))
	st, err := uc.Status(context.Background(), 1)
	require.NoError(t, err)

	require.NotNil(t, st.MomentStart)
	require.Equal(t, start, *st.MomentStart)
	require.EqualValues(t, 240, st.ElapsedSeconds)
	require.EqualValues(t, 360, st.TimeLeftSeconds)
	require.True(t, st.PostedInWindow)
	require.True(t, st.PostedSince)
	require.Equal(t, 2, st.PostsSince)
	require.Equal(t, 3, st.Remaining)
}

func TestStatus_NoMoment(t *testing.T) {
	uc := newUsecase(&stubMoments{err: errNoMoment}, &stubPosts{}, time.Now())

	st, err := uc.Status(context.Background(), 1)
	require.NoError(t, err)
	require.Nil(t, st.MomentStart)
	require.Zero(t, st.Remaining)
	require.Equal(t, 600, st.FastWindowSeconds)
}
