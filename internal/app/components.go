package app

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/heartmarshall/coral-backend/internal/adapter/checker"
	"github.com/heartmarshall/coral-backend/internal/adapter/notify"
	"github.com/heartmarshall/coral-backend/internal/adapter/probe"
	"github.com/heartmarshall/coral-backend/internal/catalog"
	"github.com/heartmarshall/coral-backend/internal/config"
	"github.com/heartmarshall/coral-backend/internal/domain"
	"github.com/heartmarshall/coral-backend/internal/service/scan"
)

// NewScanService loads the site catalog and builds the scan orchestrator on
// top of the HTTP probe executor.
func NewScanService(cfg config.ScanConfig, logger *slog.Logger) (*scan.Service, *catalog.Catalog, error) {
	cat, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		return nil, nil, err
	}
	logger.Info("site catalog loaded", slog.Int("sites", cat.Len()), slog.String("path", cfg.CatalogPath))

	exec, err := probe.New(probe.Config{UserAgent: cfg.UserAgent, CookiesFile: cfg.CookiesFile}, logger)
	if err != nil {
		return nil, nil, err
	}

	svc := scan.NewService(logger, cat, exec, scan.Limits{
		DefaultTopSites:       cfg.DefaultTopSites,
		MaxTopSites:           cfg.MaxTopSites,
		DefaultTimeout:        cfg.DefaultTimeout,
		MaxTimeout:            cfg.MaxTimeout,
		DefaultMaxConnections: cfg.DefaultMaxConnections,
		MaxConnections:        cfg.MaxConnections,
		MaxRetries:            cfg.MaxRetries,
		RetryBackoff:          cfg.RetryBackoff,
		CancelGrace:           cfg.CancelGrace,
	})
	return svc, cat, nil
}

// NewCheckerRegistry registers the bridge checker for every platform. Without
// a bridge URL the registry has no checkers and every check fails with
// ErrNoChecker; webhooks still work.
func NewCheckerRegistry(cfg config.CheckerConfig, logger *slog.Logger) *checker.Registry {
	reg := checker.NewRegistry()
	if cfg.BridgeURL == "" {
		logger.Warn("checker bridge not configured, pull checks disabled")
		return reg
	}

	bridge := checker.NewBridge(checker.BridgeConfig{
		BaseURL: cfg.BridgeURL,
		Timeout: cfg.Timeout,
		Retries: cfg.Retries,
	}, logger)
	for _, p := range domain.Platforms {
		reg.Register(p, bridge)
	}
	logger.Info("checker bridge registered", slog.String("url", cfg.BridgeURL))
	return reg
}

// NewNotifier builds the dispatcher from every configured channel plus extra
// (the live stream hub in the server).
func NewNotifier(cfg config.NotifyConfig, logger *slog.Logger, extra ...notify.Channel) *notify.Dispatcher {
	opts := notify.HTTPOptions{Client: &http.Client{Timeout: cfg.Timeout}}

	var channels []notify.Channel
	if cfg.DiscordWebhookURL != "" {
		channels = append(channels, notify.NewDiscord(cfg.DiscordWebhookURL, opts))
	}
	if cfg.NtfyTopic != "" {
		channels = append(channels, notify.NewNtfy(cfg.NtfyServer, cfg.NtfyTopic, cfg.NtfyPriority, opts))
	}
	if cfg.SMTPHost != "" {
		channels = append(channels, notify.NewEmail(notify.EmailConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.EmailFrom,
			To:       domain.SplitList(cfg.EmailTo),
		}))
	}
	channels = append(channels, extra...)

	d := notify.NewDispatcher(logger, cfg.Enabled, cfg.Timeout, channels...)
	logger.Info("notifications configured",
		slog.Bool("enabled", cfg.Enabled),
		slog.String("channels", strings.Join(d.Channels(), ",")),
	)
	return d
}

func listenAddr(cfg config.ServerConfig) string {
	return fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
}
