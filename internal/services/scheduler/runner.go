package scheduler

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/crewnow/crewnow/internal/services/reminder"
)

type RunnerCfg struct {
	// Cron specs (standard five-field format).
	TickSpec     string
	ReminderSpec string
}

// Runner drives the scheduler tick and the check-in reminder on cron
// schedules. Both jobs are guard-heavy no-ops most of the time, so the
// specs can be tight (every minute) without cost.
type Runner struct {
	Log      *zap.Logger
	UC       *Usecase
	Reminder *reminder.Usecase
	Cfg      RunnerCfg

	mTicks    prometheus.Counter
	mTickErrs prometheus.Counter
	mTickDur  prometheus.Histogram
}

func NewRunner(log *zap.Logger, uc *Usecase, rem *reminder.Usecase, cfg RunnerCfg) *Runner {
	return &Runner{
		Log:      log,
		UC:       uc,
		Reminder: rem,
		Cfg:      cfg,
		mTicks: promauto.NewCounter(prometheus.CounterOpts{
			Name: "momentd_ticks_total", Help: "Scheduler ticks executed",
		}),
		mTickErrs: promauto.NewCounter(prometheus.CounterOpts{
			Name: "momentd_tick_errors_total", Help: "Scheduler ticks that failed hard",
		}),
		mTickDur: promauto.NewHistogram(prometheus.HistogramOpts{
			Name: "momentd_tick_duration_seconds", Help: "Tick duration",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

func (r *Runner) tick(ctx context.Context) {
	start := time.Now()
	r.mTicks.Inc()
	if err := r.UC.Tick(ctx, false); err != nil {
		r.mTickErrs.Inc()
		r.Log.Warn("tick error", zap.Error(err))
	}
	r.mTickDur.Observe(time.Since(start).Seconds())
}

func (r *Runner) remind(ctx context.Context) {
	if err := r.Reminder.MaybeSend(ctx); err != nil {
		r.Log.Warn("reminder error", zap.Error(err))
	}
}

// Run blocks until the context is done.
func (r *Runner) Run(ctx context.Context) error {
	c := cron.New()
	if _, err := c.AddFunc(r.Cfg.TickSpec, func() { r.tick(ctx) }); err != nil {
		return err
	}
	if _, err := c.AddFunc(r.Cfg.ReminderSpec, func() { r.remind(ctx) }); err != nil {
		return err
	}

	// Catch up immediately instead of waiting for the first cron fire.
	r.tick(ctx)
	r.remind(ctx)

	c.Start()
	<-ctx.Done()
	stopCtx := c.Stop()
	<-stopCtx.Done()
	return ctx.Err()
}
