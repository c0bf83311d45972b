package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/heartmarshall/coral-backend/internal/adapter/notify"
	"github.com/heartmarshall/coral-backend/internal/adapter/postgres"
	accountrepo "github.com/heartmarshall/coral-backend/internal/adapter/postgres/account"
	eventrepo "github.com/heartmarshall/coral-backend/internal/adapter/postgres/event"
	identityrepo "github.com/heartmarshall/coral-backend/internal/adapter/postgres/identity"
	"github.com/heartmarshall/coral-backend/internal/config"
	"github.com/heartmarshall/coral-backend/internal/service/feed"
	"github.com/heartmarshall/coral-backend/internal/service/identity"
	"github.com/heartmarshall/coral-backend/internal/service/monitor"
	"github.com/heartmarshall/coral-backend/internal/transport/middleware"
	"github.com/heartmarshall/coral-backend/internal/transport/rest"
	"github.com/heartmarshall/coral-backend/migrations"
)

// Run is the server entry point. It loads configuration, connects to the
// database, wires every service behind the REST router and serves until ctx
// is cancelled, then shuts everything down in reverse order.
func Run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := NewLogger(cfg.Log, "coral-server")
	logger.Info("starting application",
		buildAttr(),
		slog.String("log_level", cfg.Log.Level),
	)

	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer pool.Close()

	if cfg.Database.MigrateOnStart {
		if err := postgres.Migrate(ctx, pool, migrations.FS, logger); err != nil {
			return err
		}
	}

	// Repositories.
	identities := identityrepo.New(pool)
	accounts := accountrepo.New(pool)
	events := eventrepo.New(pool)
	tx := postgres.NewTxManager(pool)

	// Scan engine.
	scanSvc, catalog, err := NewScanService(cfg.Scan, logger)
	if err != nil {
		return err
	}

	// Notifications and live stream.
	hub := notify.NewHub(logger, middleware.OriginAllowed(cfg.CORS))
	defer hub.Close()
	dispatcher := NewNotifier(cfg.Notify, logger, hub)

	// Services.
	identitySvc := identity.NewService(logger, identities, accounts, events, tx, cfg.Retention.EventPolicy())
	monitorSvc := monitor.NewService(logger, accounts, events, tx,
		NewCheckerRegistry(cfg.Checker, logger), dispatcher,
		monitor.Config{CheckTimeout: cfg.Monitor.CheckTimeout, Workers: cfg.Monitor.Workers},
	)
	feedSvc := feed.NewService(logger, events, identities, accounts, cfg.Monitor.ErrorAlertThreshold)

	// Transport.
	limiter := middleware.NewRateLimiter(cfg.RateLimit.CleanupInterval)
	defer limiter.Stop()

	handler := rest.NewRouter(rest.Handlers{
		Health:   rest.NewHealthHandler(pool, catalog, BuildVersion()),
		Scan:     rest.NewScanHandler(scanSvc, catalog, logger),
		Identity: rest.NewIdentityHandler(identitySvc, feedSvc, logger),
		Monitor:  rest.NewMonitorHandler(monitorSvc, cfg.Webhook.Secrets(), cfg.Webhook.MaxBodyBytes, logger),
		Feed:     rest.NewFeedHandler(feedSvc, logger),
		Notify:   rest.NewNotifyHandler(dispatcher, logger),
		Stream:   hub,
	}, rest.RouterConfig{
		CORS:             cfg.CORS,
		TrustProxy:       cfg.Server.TrustProxy,
		ScanPerMinute:    cfg.RateLimit.ScanPerMinute,
		WebhookPerMinute: cfg.RateLimit.WebhookPerMinute,
	}, limiter, logger)

	srv := &http.Server{
		Addr:         listenAddr(cfg.Server),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	var wg sync.WaitGroup
	schedCtx, stopScheduler := context.WithCancel(ctx)
	defer stopScheduler()
	if cfg.Monitor.SchedulerEnabled {
		sched := monitor.NewScheduler(monitorSvc, cfg.Monitor.CheckInterval, logger)
		wg.Add(1)
		go func() {
			defer wg.Done()
			sched.Run(schedCtx)
		}()
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("http server listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-serveErr:
		if err != nil {
			stopScheduler()
			wg.Wait()
			return fmt.Errorf("http server: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown", slog.String("error", err.Error()))
	}
	stopScheduler()
	wg.Wait()
	if err := monitorSvc.Shutdown(shutdownCtx); err != nil {
		logger.Error("monitor shutdown", slog.String("error", err.Error()))
	}

	logger.Info("application stopped")
	return nil
}
