package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Validate performs business-rule validation on the loaded configuration.
// It must be called after loading; Load calls it automatically.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port must be in 1..65535 (got %d)", c.Server.Port))
	}

	switch strings.ToLower(c.Log.Format) {
	case "json", "text":
	default:
		errs = append(errs, fmt.Errorf("log.format must be json or text (got %q)", c.Log.Format))
	}

	if err := c.Scan.validate(); err != nil {
		errs = append(errs, fmt.Errorf("scan: %w", err))
	}
	if err := c.Monitor.validate(); err != nil {
		errs = append(errs, fmt.Errorf("monitor: %w", err))
	}

	if !c.Retention.EventPolicy().IsValid() {
		errs = append(errs, fmt.Errorf("retention.policy must be purge or orphan (got %q)", c.Retention.Policy))
	}

	if c.Checker.BridgeURL != "" {
		if _, err := url.ParseRequestURI(c.Checker.BridgeURL); err != nil {
			errs = append(errs, fmt.Errorf("checker.bridge_url: %w", err))
		}
	}

	if c.Notify.NtfyTopic != "" && c.Notify.NtfyServer == "" {
		errs = append(errs, errors.New("notify.ntfy_server is required when ntfy_topic is set"))
	}
	if c.Notify.SMTPHost != "" && (c.Notify.EmailFrom == "" || c.Notify.EmailTo == "") {
		errs = append(errs, errors.New("notify.email_from and notify.email_to are required when smtp_host is set"))
	}

	return errors.Join(errs...)
}

func (s *ScanConfig) validate() error {
	if s.MaxTopSites < 1 {
		return fmt.Errorf("max_top_sites must be >= 1 (got %d)", s.MaxTopSites)
	}
	if s.DefaultTopSites < 1 || s.DefaultTopSites > s.MaxTopSites {
		return fmt.Errorf("default_top_sites must be in 1..%d (got %d)", s.MaxTopSites, s.DefaultTopSites)
	}
	if s.MaxTimeout <= 0 {
		return fmt.Errorf("max_timeout must be > 0 (got %s)", s.MaxTimeout)
	}
	if s.DefaultTimeout <= 0 || s.DefaultTimeout > s.MaxTimeout {
		return fmt.Errorf("default_timeout must be in (0, %s] (got %s)", s.MaxTimeout, s.DefaultTimeout)
	}
	if s.MaxConnections < 1 {
		return fmt.Errorf("max_connections must be >= 1 (got %d)", s.MaxConnections)
	}
	if s.DefaultMaxConnections < 1 || s.DefaultMaxConnections > s.MaxConnections {
		return fmt.Errorf("default_max_connections must be in 1..%d (got %d)", s.MaxConnections, s.DefaultMaxConnections)
	}
	if s.MaxRetries < 0 {
		return fmt.Errorf("max_retries must be >= 0 (got %d)", s.MaxRetries)
	}
	return nil
}

func (m *MonitorConfig) validate() error {
	if m.CheckInterval < 10*time.Second {
		return fmt.Errorf("check_interval must be at least 10s (got %s)", m.CheckInterval)
	}
	if m.Workers < 1 {
		return fmt.Errorf("workers must be >= 1 (got %d)", m.Workers)
	}
	if m.ErrorAlertThreshold < 1 {
		return fmt.Errorf("error_alert_threshold must be >= 1 (got %d)", m.ErrorAlertThreshold)
	}
	return nil
}
