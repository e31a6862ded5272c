// Package fanout resolves who gets told about an event and delivers the
// rendered messages over the email and push channels.
package fanout

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/crewnow/crewnow/internal/domain/notify"
	"github.com/crewnow/crewnow/internal/domain/prefs"
	"github.com/crewnow/crewnow/internal/obs"
)

// Directory is the slice of the preference store the fan-out needs.
type Directory interface {
	ListByUserIDs(ctx context.Context, ids []int64) ([]*prefs.Subscriber, error)
	ListFlagSubscribers(ctx context.Context, kind notify.Kind) ([]*prefs.Subscriber, error)
	ListGlobalCommentSubscribers(ctx context.Context) ([]*prefs.Subscriber, error)
	ListGlobalReactionSubscribers(ctx context.Context) ([]*prefs.Subscriber, error)
}

type CommenterSource interface {
	CommenterIDs(ctx context.Context, postID int64) ([]int64, error)
}

var (
	mEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fanout_events_total", Help: "Events dispatched through the fan-out",
	}, []string{"event"})
	mDeliveries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fanout_deliveries_total", Help: "Per-recipient delivery attempts",
	}, []string{"event", "channel", "status"})
	mDispatchDur = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name: "fanout_dispatch_duration_seconds", Help: "Wall time of one dispatch",
		Buckets: prometheus.DefBuckets,
	}, []string{"event"})
)

// Fanout dispatches one event to every eligible (recipient, channel)
// pair. A nil Email or Push sender disables that channel entirely, which
// is how missing channel configuration is handled at startup.
type Fanout struct {
	Prefs    Directory
	Comments CommenterSource
	Email    notify.EmailSender
	Push     notify.PushSender
	Audit    notify.Repo
	Render   Renderer
	Log      *zap.Logger

	// Workers bounds the delivery pool; SendTimeout caps one channel
	// call. Zero values fall back to 8 workers and 10s.
	Workers     int
	SendTimeout time.Duration
}

type delivery struct {
	sub     *prefs.Subscriber
	channel notify.Channel
}

// Dispatch resolves recipients and delivers. The returned count is the
// number of successful sends; delivery failures are logged per recipient
// and never abort the rest. Only store faults surface as an error.
func (f *Fanout) Dispatch(ctx context.Context, ev notify.Event) (int, error) {
	start := time.Now()
	tr := otel.Tracer("fanout")
	ctx, span := tr.Start(ctx, "fanout.dispatch",
		trace.WithAttributes(attribute.String("event", string(ev.Kind))),
	)
	defer span.End()
	mEvents.WithLabelValues(string(ev.Kind)).Inc()
	defer func() {
		mDispatchDur.WithLabelValues(string(ev.Kind)).Observe(time.Since(start).Seconds())
	}()

	deliveries, err := f.resolve(ctx, ev)
	if err != nil {
		span.RecordError(err)
		return 0, err
	}
	span.SetAttributes(attribute.Int("deliveries", len(deliveries)))
	if len(deliveries) == 0 {
		return 0, nil
	}

	workers := f.Workers
	if workers <= 0 {
		workers = 8
	}

	var sent atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, d := range deliveries {
		g.Go(func() error {
			if f.deliver(gctx, ev, d) {
				sent.Add(1)
			}
			return nil
		})
	}
	_ = g.Wait()

	obs.WithTrace(ctx, f.Log).Debug("fan-out complete",
		zap.String("event", string(ev.Kind)),
		zap.Int("recipients", len(deliveries)),
		zap.Int64("sent", sent.Load()),
	)
	return int(sent.Load()), nil
}

// deliver renders and sends one message, reporting success. Failures are
// logged with the recipient and swallowed.
func (f *Fanout) deliver(ctx context.Context, ev notify.Event, d delivery) bool {
	timeout := f.SendTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	sctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var (
		err     error
		payload string
	)
	switch d.channel {
	case notify.ChannelEmail:
		subject, html, text := f.Render.Email(ev, d.sub.Name)
		payload = subject
		err = f.Email.Send(sctx, d.sub.EmailAddr, subject, html, text)
	case notify.ChannelPush:
		title, message, tags, click := f.Render.Push(ev, d.sub.Name)
		payload = title
		err = f.Push.Send(sctx, d.sub.PushTopic, title, message, tags, click)
	}

	if err != nil {
		mDeliveries.WithLabelValues(string(ev.Kind), string(d.channel), "error").Inc()
		f.Log.Warn("delivery failed",
			zap.String("event", string(ev.Kind)),
			zap.String("channel", string(d.channel)),
			zap.Int64("user_id", d.sub.UserID),
			zap.Error(err),
		)
		return false
	}
	mDeliveries.WithLabelValues(string(ev.Kind), string(d.channel), "ok").Inc()

	if f.Audit != nil {
		if aerr := f.Audit.Create(ctx, &notify.Notification{
			UserID:  d.sub.UserID,
			Event:   ev.Kind,
			Channel: d.channel,
			Payload: payload,
		}); aerr != nil {
			f.Log.Debug("audit insert failed", zap.Error(aerr))
		}
	}
	return true
}
