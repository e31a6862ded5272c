package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/crewnow/crewnow/internal/civiltime"
	config "github.com/crewnow/crewnow/internal/config/momentd"
	"github.com/crewnow/crewnow/internal/domain/notify"
	"github.com/crewnow/crewnow/internal/obs"
	kafkaRepo "github.com/crewnow/crewnow/internal/repository/kafka"
	pg "github.com/crewnow/crewnow/internal/repository/postgres"
	"github.com/crewnow/crewnow/internal/services/fanout"
	"github.com/crewnow/crewnow/internal/services/reminder"
	"github.com/crewnow/crewnow/internal/services/scheduler"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		log.Fatal(err)
	}

	l, err := obs.NewLogger(cfg.Log.AsLoggerConfig())
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = l.Sync() }()
	l.Info("starting momentd",
		zap.String("timezone", cfg.Window.Timezone),
		zap.Int("start_hour", cfg.Window.StartHour),
		zap.Int("end_hour", cfg.Window.EndHour),
		zap.String("metrics_addr", cfg.Sched.MetricsAddr),
	)

	otelCloser, err := obs.SetupOTel(ctx, cfg.OTEL)
	if err != nil {
		l.Fatal("otel init", zap.Error(err))
	}
	defer func() { _ = otelCloser.Shutdown(context.Background()) }()

	zone, err := civiltime.LoadZone(cfg.Window.Timezone)
	if err != nil {
		l.Fatal("load timezone", zap.Error(err))
	}
	window := civiltime.DayWindow{
		Zone:      zone,
		StartHour: cfg.Window.StartHour,
		EndHour:   cfg.Window.EndHour,
	}
	if err := window.Validate(); err != nil {
		l.Fatal("window config", zap.Error(err))
	}

	db, err := pg.New(ctx, cfg.DB)
	if err != nil {
		l.Fatal("db connect", zap.Error(err))
	}
	defer db.Close()

	moments := pg.NewMomentRepo(db)
	posts := pg.NewPostRepo(db)
	comments := pg.NewCommentRepo(db)
	prefsRepo := pg.NewPrefsRepo(db)
	audit := pg.NewNotificationRepo(db)

	var email notify.EmailSender
	if cfg.SMTP.Enabled() {
		email = fanout.NewMailer(cfg.SMTP).WithLogger(l)
	} else {
		l.Warn("smtp not configured, email channel disabled")
	}
	var push notify.PushSender
	if cfg.Ntfy.Enabled() {
		push = fanout.NewNtfy(cfg.Ntfy, l)
	} else {
		l.Warn("ntfy not configured, push channel disabled")
	}

	fan := &fanout.Fanout{
		Prefs:       prefsRepo,
		Comments:    comments,
		Email:       email,
		Push:        push,
		Audit:       audit,
		Render:      fanout.Renderer{BaseURL: cfg.Fanout.BaseURL},
		Log:         l,
		Workers:     cfg.Fanout.Workers,
		SendTimeout: cfg.Fanout.SendTimeout,
	}

	var broadcast notify.Broadcast
	if cfg.Kafka.Enable {
		prod := kafkaRepo.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		defer func() { _ = prod.Close() }()
		broadcast = kafkaRepo.NewMomentEvents(prod, l)
	}

	clock := notify.SystemClock{}
	uc := &scheduler.Usecase{
		Moments:   moments,
		Fanout:    fan,
		Broadcast: broadcast,
		Window:    window,
		Clock:     clock,
		Log:       l,
		NotFound:  pg.ErrNotFound,
	}
	rem := &reminder.Usecase{
		Moments:  moments,
		Posts:    posts,
		Fanout:   fan,
		Clock:    clock,
		Log:      l,
		Delay:    cfg.Sched.ReminderDelay,
		NotFound: pg.ErrNotFound,
		Conflict: pg.ErrConflict,
	}
	runner := scheduler.NewRunner(l, uc, rem, scheduler.RunnerCfg{
		TickSpec:     cfg.Sched.TickSpec,
		ReminderSpec: cfg.Sched.ReminderSpec,
	})

	ms := obs.BootstrapMetricsServer(cfg.Sched.MetricsAddr, func(ctx context.Context) error {
		hctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
		defer cancel()
		return db.Pool.Ping(hctx)
	}, l)

	errCh := make(chan error, 1)
	go func() { errCh <- runner.Run(ctx) }()

	l.Info("momentd started")

	select {
	case <-ctx.Done():
	case err = <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			l.Error("runner error", zap.Error(err))
		}
	}

	shCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	_ = ms.Shutdown(shCtx)
	l.Info("bye")
}
