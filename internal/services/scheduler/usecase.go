// Package scheduler owns the daily window lifecycle: deciding when a new
// moment opens and flipping the records over.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/crewnow/crewnow/internal/civiltime"
	"github.com/crewnow/crewnow/internal/domain/moment"
	"github.com/crewnow/crewnow/internal/domain/notify"
)

type MomentRepo interface {
	Latest(ctx context.Context) (*moment.Moment, error)
	Create(ctx context.Context, startAt time.Time) (*moment.Moment, error)
	Close(ctx context.Context, id int64, endAt time.Time) error
}

type Fanout interface {
	Dispatch(ctx context.Context, ev notify.Event) (int, error)
}

type Usecase struct {
	Moments   MomentRepo
	Fanout    Fanout
	Broadcast notify.Broadcast // optional
	Window    civiltime.DayWindow
	Clock     notify.Clock
	Log       *zap.Logger

	// NotFound is the store's sentinel for "no moment exists yet".
	NotFound error
}

// Tick runs one pass of the window state machine. Unless forced it aborts
// silently when the wall clock is outside today's posting window, when a
// moment already started today, or when today's trigger instant has not
// been reached yet. Forced ticks skip the guards but still close the
// open window before opening the next one.
//
// Guard aborts return nil; only store faults are errors. Unforced ticks
// are idempotent per civil day, so callers may retry on error.
func (u *Usecase) Tick(ctx context.Context, forced bool) error {
	now := u.Clock.Now()

	tr := otel.Tracer("scheduler.uc")
	ctx, span := tr.Start(ctx, "scheduler.tick",
		trace.WithAttributes(attribute.Bool("forced", forced)),
	)
	defer span.End()

	last, err := u.Moments.Latest(ctx)
	if err != nil && !errors.Is(err, u.NotFound) {
		span.RecordError(err)
		return fmt.Errorf("latest moment: %w", err)
	}

	if !forced {
		if !u.Window.Contains(now) {
			u.Log.Debug("tick: outside posting hours", zap.Time("now", now))
			return nil
		}
		if last != nil && u.Window.Zone.SameDay(last.StartAt, now) {
			u.Log.Debug("tick: moment already started today", zap.Int64("moment_id", last.ID))
			return nil
		}
		if trigger := u.Window.TriggerAt(now); now.Before(trigger) {
			u.Log.Debug("tick: trigger not reached", zap.Time("trigger", trigger))
			return nil
		}
	}

	if last != nil && last.Open() {
		if err := u.Moments.Close(ctx, last.ID, now); err != nil {
			// Someone else closed it: a concurrent tick is racing us.
			span.RecordError(err)
			return fmt.Errorf("close moment %d: %w", last.ID, err)
		}
		u.Log.Info("moment closed", zap.Int64("moment_id", last.ID), zap.Time("end_at", now))
	}

	// The store enforces at most one open moment; a conflict here means
	// a concurrent tick created one after our Latest read. Failing the
	// tick is safe, the next run re-reads and hits the same-day guard.
	m, err := u.Moments.Create(ctx, now)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("create moment: %w", err)
	}
	u.Log.Info("moment opened", zap.Int64("moment_id", m.ID), zap.Time("start_at", m.StartAt))

	if sent, err := u.Fanout.Dispatch(ctx, notify.Event{
		Kind:    notify.MomentStarted,
		StartAt: m.StartAt,
	}); err != nil {
		u.Log.Warn("moment-started fan-out failed", zap.Error(err))
	} else {
		u.Log.Info("moment-started notifications sent", zap.Int("sent", sent))
	}

	u.broadcast(m)

	return nil
}

// broadcast tells the side channel about the new window without tying
// its fate to the tick. Runs detached with its own deadline.
func (u *Usecase) broadcast(m *moment.Moment) {
	if u.Broadcast == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if err := u.Broadcast.MomentStarted(ctx, m.ID, m.StartAt); err != nil {
			u.Log.Warn("moment broadcast failed", zap.Int64("moment_id", m.ID), zap.Error(err))
		}
	}()
}

// TriggerPreview returns the trigger instant and day bounds for the civil
// day of t, without touching any state. The instant is normalized to
// local noon first so callers can pass bare dates.
func (u *Usecase) TriggerPreview(t time.Time) (trigger, dayStart, dayEnd time.Time) {
	y, m, d, _, _, _ := u.Window.Zone.Parts(t)
	noon := u.Window.Zone.At(y, m, d, 12, 0, 0)
	dayStart, dayEnd = u.Window.Bounds(noon)
	return civiltime.HashTime(noon, u.Window.Zone, dayStart, dayEnd), dayStart, dayEnd
}
