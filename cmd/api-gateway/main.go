package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/crewnow/crewnow/internal/civiltime"
	config "github.com/crewnow/crewnow/internal/config/api-gateway"
	"github.com/crewnow/crewnow/internal/domain/notify"
	"github.com/crewnow/crewnow/internal/obs"
	pg "github.com/crewnow/crewnow/internal/repository/postgres"
	"github.com/crewnow/crewnow/internal/services/fanout"
	"github.com/crewnow/crewnow/internal/services/feed"
	"github.com/crewnow/crewnow/internal/services/quota"
	"github.com/crewnow/crewnow/internal/services/scheduler"
	"github.com/crewnow/crewnow/internal/services/settings"
)

func main() {
	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		log.Fatal(err)
	}

	logger, err := obs.NewLogger(cfg.Log.AsLoggerConfig())
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = logger.Sync() }()
	logger.Info("starting api-gateway", zap.String("env", cfg.App.Env), zap.String("http_addr", cfg.Server.HTTPAddr))

	otelCloser, err := obs.SetupOTel(rootCtx, cfg.OTEL)
	if err != nil {
		logger.Fatal("otel init", zap.Error(err))
	}
	defer func() { _ = otelCloser.Shutdown(context.Background()) }()

	zone, err := civiltime.LoadZone(cfg.Window.Timezone)
	if err != nil {
		logger.Fatal("load timezone", zap.Error(err))
	}
	window := civiltime.DayWindow{
		Zone:      zone,
		StartHour: cfg.Window.StartHour,
		EndHour:   cfg.Window.EndHour,
	}
	if err := window.Validate(); err != nil {
		logger.Fatal("window config", zap.Error(err))
	}

	db, err := pg.New(rootCtx, cfg.DB)
	if err != nil {
		logger.Fatal("db connect", zap.Error(err))
	}
	defer db.Close()

	moments := pg.NewMomentRepo(db)
	posts := pg.NewPostRepo(db)
	comments := pg.NewCommentRepo(db)
	reactions := pg.NewReactionRepo(db)
	users := pg.NewUserRepo(db)
	prefsRepo := pg.NewPrefsRepo(db)
	audit := pg.NewNotificationRepo(db)

	var email notify.EmailSender
	if cfg.SMTP.Enabled() {
		email = fanout.NewMailer(cfg.SMTP).WithLogger(logger)
	}
	var push notify.PushSender
	if cfg.Ntfy.Enabled() {
		push = fanout.NewNtfy(cfg.Ntfy, logger)
	}
	fan := &fanout.Fanout{
		Prefs:       prefsRepo,
		Comments:    comments,
		Email:       email,
		Push:        push,
		Audit:       audit,
		Render:      fanout.Renderer{BaseURL: cfg.Fanout.BaseURL},
		Log:         logger,
		Workers:     cfg.Fanout.Workers,
		SendTimeout: cfg.Fanout.SendTimeout,
	}

	clock := notify.SystemClock{}
	quotaUC := &quota.Usecase{
		Moments: moments,
		Posts:   posts,
		Clock:   clock,
		Cfg: quota.Config{
			FastWindow:   cfg.Quota.FastWindow,
			InWindow:     cfg.Quota.InWindow,
			OutsideLimit: cfg.Quota.OutsideLimit,
		},
		NotFound: pg.ErrNotFound,
	}
	feedUC := &feed.Usecase{
		Posts:     posts,
		Comments:  comments,
		Reactions: reactions,
		Users:     users,
		Quota:     quotaUC,
		Fanout:    fan,
		Log:       logger,
		NotFound:  pg.ErrNotFound,
	}
	settingsUC := &settings.Usecase{Prefs: prefsRepo}
	schedUC := &scheduler.Usecase{
		Moments:  moments,
		Fanout:   fan,
		Window:   window,
		Clock:    clock,
		Log:      logger,
		NotFound: pg.ErrNotFound,
	}

	srv := &server{
		log:          logger,
		quota:        quotaUC,
		feed:         feedUC,
		settings:     settingsUC,
		sched:        schedUC,
		triggerToken: cfg.Trigger.Token,
	}

	handler := otelhttp.NewHandler(srv.routes(), "api-gateway")
	httpSrv := &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           handler,
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	ms := obs.BootstrapMetricsServer(cfg.Server.MetricsAddr, func(ctx context.Context) error {
		hctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
		defer cancel()
		return db.Pool.Ping(hctx)
	}, logger)

	httpErrCh := make(chan error, 1)
	go func() {
		logger.Info("http listening", zap.String("addr", cfg.Server.HTTPAddr))
		httpErrCh <- httpSrv.ListenAndServe()
	}()

	select {
	case <-rootCtx.Done():
		logger.Info("shutdown signal")
	case err = <-httpErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http serve", zap.Error(err))
		}
	}

	shCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulTimeout)
	defer cancel()
	_ = httpSrv.Shutdown(shCtx)
	_ = ms.Shutdown(shCtx)
	logger.Info("bye")
}
