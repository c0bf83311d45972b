package config

import (
	"strings"
	"time"

	"github.com/heartmarshall/coral-backend/internal/domain"
)

// Config is the root application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Log       LogConfig       `yaml:"log"`
	CORS      CORSConfig      `yaml:"cors"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Scan      ScanConfig      `yaml:"scan"`
	Monitor   MonitorConfig   `yaml:"monitor"`
	Retention RetentionConfig `yaml:"retention"`
	Webhook   WebhookConfig   `yaml:"webhook"`
	Checker   CheckerConfig   `yaml:"checker"`
	Notify    NotifyConfig    `yaml:"notify"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins   string `yaml:"allowed_origins"   env:"CORS_ALLOWED_ORIGINS"   env-default:"*"`
	AllowedMethods   string `yaml:"allowed_methods"   env:"CORS_ALLOWED_METHODS"   env-default:"GET,POST,PATCH,DELETE,OPTIONS"`
	AllowedHeaders   string `yaml:"allowed_headers"   env:"CORS_ALLOWED_HEADERS"   env-default:"Content-Type,X-Request-Id"`
	AllowCredentials bool   `yaml:"allow_credentials" env:"CORS_ALLOW_CREDENTIALS" env-default:"false"`
	MaxAge           int    `yaml:"max_age"           env:"CORS_MAX_AGE"           env-default:"86400"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `yaml:"host"             env:"SERVER_HOST"             env-default:"0.0.0.0"`
	Port            int           `yaml:"port"             env:"SERVER_PORT"             env-default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout"     env:"SERVER_READ_TIMEOUT"     env-default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout"    env:"SERVER_WRITE_TIMEOUT"    env-default:"5m"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"     env:"SERVER_IDLE_TIMEOUT"     env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" env-default:"10s"`
	TrustProxy      bool          `yaml:"trust_proxy"      env:"SERVER_TRUST_PROXY"      env-default:"false"`
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	DSN             string        `yaml:"dsn"                env:"DATABASE_DSN"                env-required:"true"`
	MaxConns        int32         `yaml:"max_conns"          env:"DATABASE_MAX_CONNS"          env-default:"25"`
	MinConns        int32         `yaml:"min_conns"          env:"DATABASE_MIN_CONNS"          env-default:"2"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"  env:"DATABASE_MAX_CONN_LIFETIME"  env-default:"1h"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time" env:"DATABASE_MAX_CONN_IDLE_TIME" env-default:"30m"`
	MigrateOnStart  bool          `yaml:"migrate_on_start"   env:"DATABASE_MIGRATE_ON_START"   env-default:"true"`
	ConnectRetries  uint64        `yaml:"connect_retries"    env:"DATABASE_CONNECT_RETRIES"    env-default:"5"`
	ConnectBackoff  time.Duration `yaml:"connect_backoff"    env:"DATABASE_CONNECT_BACKOFF"    env-default:"500ms"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"json"`
}

// RateLimitConfig holds per-IP rate limits for expensive endpoints.
type RateLimitConfig struct {
	ScanPerMinute    int           `yaml:"scan_per_minute"    env:"RATE_LIMIT_SCAN"             env-default:"6"`
	WebhookPerMinute int           `yaml:"webhook_per_minute" env:"RATE_LIMIT_WEBHOOK"          env-default:"600"`
	CleanupInterval  time.Duration `yaml:"cleanup_interval"   env:"RATE_LIMIT_CLEANUP_INTERVAL" env-default:"5m"`
}

// ScanConfig holds scan engine defaults and hard caps.
type ScanConfig struct {
	CatalogPath           string        `yaml:"catalog_path"            env:"SCAN_CATALOG_PATH"`
	CookiesFile           string        `yaml:"cookies_file"            env:"SCAN_COOKIES_FILE"`
	UserAgent             string        `yaml:"user_agent"              env:"SCAN_USER_AGENT"              env-default:"Mozilla/5.0 (X11; Linux x86_64; rv:128.0) Gecko/20100101 Firefox/128.0"`
	DefaultTopSites       int           `yaml:"default_top_sites"       env:"SCAN_DEFAULT_TOP_SITES"       env-default:"500"`
	MaxTopSites           int           `yaml:"max_top_sites"           env:"SCAN_MAX_TOP_SITES"           env-default:"5000"`
	DefaultTimeout        time.Duration `yaml:"default_timeout"         env:"SCAN_DEFAULT_TIMEOUT"         env-default:"5s"`
	MaxTimeout            time.Duration `yaml:"max_timeout"             env:"SCAN_MAX_TIMEOUT"             env-default:"60s"`
	DefaultMaxConnections int           `yaml:"default_max_connections" env:"SCAN_DEFAULT_MAX_CONNECTIONS" env-default:"50"`
	MaxConnections        int           `yaml:"max_connections"         env:"SCAN_MAX_CONNECTIONS"         env-default:"200"`
	MaxRetries            int           `yaml:"max_retries"             env:"SCAN_MAX_RETRIES"             env-default:"5"`
	RetryBackoff          time.Duration `yaml:"retry_backoff"           env:"SCAN_RETRY_BACKOFF"           env-default:"250ms"`
	CancelGrace           time.Duration `yaml:"cancel_grace"            env:"SCAN_CANCEL_GRACE"            env-default:"500ms"`
}

// MonitorConfig holds account checking settings.
type MonitorConfig struct {
	SchedulerEnabled    bool          `yaml:"scheduler_enabled"     env:"MONITOR_SCHEDULER_ENABLED"     env-default:"true"`
	CheckInterval       time.Duration `yaml:"check_interval"        env:"MONITOR_CHECK_INTERVAL"        env-default:"5m"`
	CheckTimeout        time.Duration `yaml:"check_timeout"         env:"MONITOR_CHECK_TIMEOUT"         env-default:"60s"`
	Workers             int           `yaml:"workers"               env:"MONITOR_WORKERS"               env-default:"4"`
	ErrorAlertThreshold int           `yaml:"error_alert_threshold" env:"MONITOR_ERROR_ALERT_THRESHOLD" env-default:"3"`
}

// RetentionConfig decides what happens to events of deleted accounts.
type RetentionConfig struct {
	Policy string `yaml:"policy" env:"RETENTION_POLICY" env-default:"purge"`
}

// EventPolicy returns the configured policy as a domain value.
func (c RetentionConfig) EventPolicy() domain.RetentionPolicy {
	return domain.RetentionPolicy(c.Policy)
}

// WebhookConfig holds per-platform shared secrets. A platform without a secret
// does not accept webhooks.
type WebhookConfig struct {
	InstagramSecret string `yaml:"instagram_secret" env:"WEBHOOK_INSTAGRAM_SECRET"`
	PinterestSecret string `yaml:"pinterest_secret" env:"WEBHOOK_PINTEREST_SECRET"`
	SpotifySecret   string `yaml:"spotify_secret"   env:"WEBHOOK_SPOTIFY_SECRET"`
	MaxBodyBytes    int64  `yaml:"max_body_bytes"   env:"WEBHOOK_MAX_BODY_BYTES"   env-default:"1048576"`
}

// Secrets returns the configured secrets keyed by platform.
func (c WebhookConfig) Secrets() map[domain.Platform]string {
	out := make(map[domain.Platform]string, 3)
	for p, s := range map[domain.Platform]string{
		domain.PlatformInstagram: c.InstagramSecret,
		domain.PlatformPinterest: c.PinterestSecret,
		domain.PlatformSpotify:   c.SpotifySecret,
	} {
		if s = strings.TrimSpace(s); s != "" {
			out[p] = s
		}
	}
	return out
}

// CheckerConfig points at the sidecar that performs platform scraping.
type CheckerConfig struct {
	BridgeURL string        `yaml:"bridge_url" env:"CHECKER_BRIDGE_URL"`
	Timeout   time.Duration `yaml:"timeout"    env:"CHECKER_TIMEOUT"    env-default:"30s"`
	Retries   uint64        `yaml:"retries"    env:"CHECKER_RETRIES"    env-default:"2"`
}

// NotifyConfig holds notification channel settings. Each channel is active
// only when its required fields are set.
type NotifyConfig struct {
	Enabled           bool          `yaml:"enabled"             env:"NOTIFY_ENABLED"             env-default:"true"`
	Timeout           time.Duration `yaml:"timeout"             env:"NOTIFY_TIMEOUT"             env-default:"10s"`
	DiscordWebhookURL string        `yaml:"discord_webhook_url" env:"NOTIFY_DISCORD_WEBHOOK_URL"`
	NtfyServer        string        `yaml:"ntfy_server"         env:"NOTIFY_NTFY_SERVER"         env-default:"https://ntfy.sh"`
	NtfyTopic         string        `yaml:"ntfy_topic"          env:"NOTIFY_NTFY_TOPIC"`
	NtfyPriority      string        `yaml:"ntfy_priority"       env:"NOTIFY_NTFY_PRIORITY"       env-default:"default"`
	SMTPHost          string        `yaml:"smtp_host"           env:"NOTIFY_SMTP_HOST"`
	SMTPPort          int           `yaml:"smtp_port"           env:"NOTIFY_SMTP_PORT"           env-default:"587"`
	SMTPUsername      string        `yaml:"smtp_username"       env:"NOTIFY_SMTP_USERNAME"`
	SMTPPassword      string        `yaml:"smtp_password"       env:"NOTIFY_SMTP_PASSWORD"`
	EmailFrom         string        `yaml:"email_from"          env:"NOTIFY_EMAIL_FROM"`
	EmailTo           string        `yaml:"email_to"            env:"NOTIFY_EMAIL_TO"`
}
