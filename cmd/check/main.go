// Command check runs one pass of the account checker over every enabled
// account and exits. It is intended for an external cron job when the
// in-process scheduler is disabled.
//
// Exit codes: 0 = success, 1 = error.
package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/heartmarshall/coral-backend/internal/adapter/postgres"
	accountrepo "github.com/heartmarshall/coral-backend/internal/adapter/postgres/account"
	eventrepo "github.com/heartmarshall/coral-backend/internal/adapter/postgres/event"
	"github.com/heartmarshall/coral-backend/internal/app"
	"github.com/heartmarshall/coral-backend/internal/config"
	"github.com/heartmarshall/coral-backend/internal/service/monitor"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger := app.NewLogger(cfg.Log, "coral-check")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		logger.Error("connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer pool.Close()

	accounts := accountrepo.New(pool)
	svc := monitor.NewService(logger, accounts, eventrepo.New(pool), postgres.NewTxManager(pool),
		app.NewCheckerRegistry(cfg.Checker, logger), app.NewNotifier(cfg.Notify, logger),
		monitor.Config{CheckTimeout: cfg.Monitor.CheckTimeout, Workers: cfg.Monitor.Workers},
	)

	res, err := svc.CheckAll(ctx)

	// Let in-flight notifications drain before exiting.
	shutdownCtx, stop := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer stop()
	if serr := svc.Shutdown(shutdownCtx); serr != nil {
		logger.Warn("notifications did not drain", slog.String("error", serr.Error()))
	}

	if err != nil {
		logger.Error("check failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("check completed",
		slog.Int("checked", res.Checked),
		slog.Int("failed", res.Failed),
		slog.Int("events", res.Events),
		slog.Duration("duration", res.Duration),
	)
}
