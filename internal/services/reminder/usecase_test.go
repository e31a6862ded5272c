package reminder

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/crewnow/crewnow/internal/domain/moment"
	"github.com/crewnow/crewnow/internal/domain/notify"
)

var (
	errNoMoment = errors.New("not found")
	errConflict = errors.New("conflict")
)

type fakeMoments struct {
	latest      *moment.Moment
	markErr     error
	markedCalls int
}

func (f *fakeMoments) Latest(context.Context) (*moment.Moment, error) {
	if f.latest == nil {
		return nil, errNoMoment
	}
	return f.latest, nil
}

func (f *fakeMoments) MarkReminderSent(context.Context, int64) error {
	f.markedCalls++
	if f.markErr != nil {
		return f.markErr
	}
	f.latest.ReminderSent = true
	return nil
}

type fakePosters struct{ names []string }

func (f *fakePosters) PosterNamesSince(context.Context, time.Time) ([]string, error) {
	return f.names, nil
}

type fakeFanout struct {
	events []notify.Event
	err    error
}

func (f *fakeFanout) Dispatch(_ context.Context, ev notify.Event) (int, error) {
	f.events = append(f.events, ev)
	return 2, f.err
}

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

func newUsecase(moments *fakeMoments, posters *fakePosters, fan *fakeFanout, now time.Time) *Usecase {
	return &Usecase{
		Moments:  moments,
		Posts:    posters,
		Fanout:   fan,
		Clock:    fixedClock{t: now},
		Log:      zap.NewNop(),
		Delay:    2 * time.Hour,
		NotFound: errNoMoment,
		Conflict: errConflict,
	}
}

func TestMaybeSend_FiresAfterDelay(t *testing.T) {
	start := time.Date(2025, 3, 3, 12, 0, 0, 0, time.UTC)
	moments := &fakeMoments{latest: &moment.Moment{ID: 1, StartAt: start}}
	fan := &fakeFanout{}
	uc := newUsecase(moments, &fakePosters{names: []string{"Anna", "Ben"}}, fan, start.Add(2*time.Hour))

	require.NoError(t, uc.MaybeSend(context.Background()))
	require.True(t, moments.latest.ReminderSent)
	require.Len(t, fan.events, 1)
	require.Equal(t, notify.CheckInReminder, fan.events[0].Kind)
	require.Equal(t, []string{"Anna", "Ben"}, fan.events[0].PosterNames)
}

func TestMaybeSend_BeforeDelayIsNoop(t *testing.T) {
	start := time.Date(2025, 3, 3, 12, 0, 0, 0, time.UTC)
	moments := &fakeMoments{latest: &moment.Moment{ID: 1, StartAt: start}}
	fan := &fakeFanout{}
	uc := newUsecase(moments, &fakePosters{}, fan, start.Add(119*time.Minute))

	require.NoError(t, uc.MaybeSend(context.Background()))
	require.Zero(t, moments.markedCalls)
	require.Empty(t, fan.events)
}

func TestMaybeSend_OncePerMoment(t *testing.T) {
	start := time.Date(2025, 3, 3, 12, 0, 0, 0, time.UTC)
	moments := &fakeMoments{latest: &moment.Moment{ID: 1, StartAt: start}}
	fan := &fakeFanout{}
	uc := newUsecase(moments, &fakePosters{}, fan, start.Add(3*time.Hour))

	require.NoError(t, uc.MaybeSend(context.Background()))
	require.NoError(t, uc.MaybeSend(context.Background()))
	require.Len(t, fan.events, 1)
	require.Equal(t, 1, moments.markedCalls)
}

func TestMaybeSend_ClosedWindowIsNoop(t *testing.T) {
	start := time.Date(2025, 3, 3, 12, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)
	moments := &fakeMoments{latest: &moment.Moment{ID: 1, StartAt: start, EndAt: &end}}
	fan := &fakeFanout{}
	uc := newUsecase(moments, &fakePosters{}, fan, start.Add(3*time.Hour))

	require.NoError(t, uc.MaybeSend(context.Background()))
	require.Empty(t, fan.events)
}

func TestMaybeSend_NoMomentIsNoop(t *testing.T) {
	fan := &fakeFanout{}
	uc := newUsecase(&fakeMoments{}, &fakePosters{}, fan, time.Now())

	require.NoError(t, uc.MaybeSend(context.Background()))
	require.Empty(t, fan.events)
}

func TestMaybeSend_ConflictMeansOtherWon(t *testing.T) {
	start := time.Date(2025, 3, 3, 12, 0, 0, 0, time.UTC)
	moments := &fakeMoments{
		latest:  &moment.Moment{ID: 1, StartAt: start},
		markErr: errConflict,
	}
	fan := &fakeFanout{}
	uc := newUsecase(moments, &fakePosters{}, fan, start.Add(3*time.Hour))

	require.NoError(t, uc.MaybeSend(context.Background()))
	require.Empty(t, fan.events)
}

func TestMaybeSend_DispatchFailureStillSpendsFlag(t *testing.T) {
	start := time.Date(2025, 3, 3, 12, 0, 0, 0, time.UTC)
	moments := &fakeMoments{latest: &moment.Moment{ID: 1, StartAt: start}}
	fan := &fakeFanout{err: errors.New("smtp down")}
	uc := newUsecase(moments, &fakePosters{}, fan, start.Add(3*time.Hour))

	require.NoError(t, uc.MaybeSend(context.Background()))
	require.True(t, moments.latest.ReminderSent)
}
