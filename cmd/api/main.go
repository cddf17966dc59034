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

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hamed0406/integrationprobe/internal/config"
	"github.com/hamed0406/integrationprobe/internal/dispatch"
	"github.com/hamed0406/integrationprobe/internal/httpapi"
	apimw "github.com/hamed0406/integrationprobe/internal/httpapi/middleware"
	"github.com/hamed0406/integrationprobe/internal/logging"
	"github.com/hamed0406/integrationprobe/internal/notify"
	"github.com/hamed0406/integrationprobe/internal/probe"
	"github.com/hamed0406/integrationprobe/internal/registry"
	"github.com/hamed0406/integrationprobe/internal/repo"
	"github.com/hamed0406/integrationprobe/internal/repo/memory"
	"github.com/hamed0406/integrationprobe/internal/repo/postgres"
	"github.com/hamed0406/integrationprobe/internal/scheduler"
)

type stores interface {
	repo.HistoryStore
	repo.AlertStore
}

func main() {
	cfg := config.FromEnv()
	logger, err := logging.NewLogger(cfg.LogDir, cfg.LogLevel, cfg.LogStdout)
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("api_exit", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	file := &config.File{}
	if cfg.ProbeConfigPath != "" {
		f, err := config.LoadFile(cfg.ProbeConfigPath)
		if err != nil {
			return err
		}
		file = f
		logger.Info("probe_config_loaded",
			zap.String("path", cfg.ProbeConfigPath),
			zap.Int("overrides", len(f.Integrations)),
			zap.Int("watch_probes", len(f.Watch.Probes)),
		)
	}
	reg, err := file.Registry(registry.Default())
	if err != nil {
		return err
	}

	var store stores = memory.New()
	if cfg.DatabaseURL != "" {
		pg, err := postgres.New(ctx, cfg.DatabaseURL, logger)
		if err != nil {
			return err
		}
		defer pg.Close()
		if err := pg.EnsureSchema(ctx); err != nil {
			return err
		}
		store = pg
		logger.Info("store_postgres")
	} else {
		logger.Info("store_memory")
	}

	router := dispatch.NewRouter(logger, reg, probe.NewTCPProber(), probe.NewHTTPProber())
	router.TCPTimeout = cfg.TCPTimeout
	router.HTTPTimeout = cfg.HTTPTimeout
	router.History = store

	api := httpapi.NewServer(logger, router, reg, store)

	g, ctx := errgroup.WithContext(ctx)

	if file.Watch.Enabled() {
		rc, err := scheduler.NewRechecker(logger, router, file.Watch.Probes, file.Watch.Schedule, cfg.MaxConcurrentChecks)
		if err != nil {
			return err
		}
		api.Watch = rc
		g.Go(func() error { return rc.Run(ctx) })
	}

	notifiers := notify.Multi{notify.Log{Logger: logger}}
	if s := notify.NewSlack(cfg.SlackWebhookURL); s != nil {
		notifiers = append(notifiers, s)
	}
	alerter := scheduler.NewAlerter(logger, store, store, notifiers, scheduler.AlerterConfig{
		AlertOnRecovery: cfg.AlertOnRecovery,
		Cooldown:        cfg.AlertCooldown,
	})
	g.Go(func() error { return alerter.Run(ctx) })

	srv := &http.Server{
		Addr: cfg.Addr,
		Handler: api.Handler(httpapi.Options{
			Keys:           apimw.Keys{Public: cfg.PublicAPIKeys, Admin: cfg.AdminAPIKeys},
			AllowedOrigins: cfg.AllowedOrigins,
			PublicRPM:      cfg.PublicRPM,
			PublicBurst:    cfg.PublicBurst,
		}),
		ReadHeaderTimeout: 5 * time.Second,
	}
	g.Go(func() error {
		logger.Info("api_listen", zap.String("addr", cfg.Addr), zap.Bool("auth", len(cfg.PublicAPIKeys)+len(cfg.AdminAPIKeys) > 0))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		logger.Info("api_shutdown")
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
