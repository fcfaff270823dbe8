package infra

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/dosdraw/platform/internal/domain"
)

// Config holds all application configuration parsed from environment variables.
type Config struct {
	// Server
	Port int `env:"PORT" envDefault:"3000"`

	// Admin surface shared secret (x-admin-key header).
	AdminKey string `env:"ADMIN_KEY"`

	// Database
	DatabaseURL string `env:"DATABASE_URL"`
	PGHost      string `env:"PGHOST" envDefault:"localhost"`
	PGPort      int    `env:"PGPORT" envDefault:"5432"`
	PGUser      string `env:"PGUSER" envDefault:"ddj"`
	PGPassword  string `env:"PGPASSWORD" envDefault:"ddj"`
	PGDatabase  string `env:"PGDATABASE" envDefault:"ddj"`
	DBMaxConns  int32  `env:"DB_MAX_CONNS" envDefault:"20"`

	// Game secrets and economy
	SecretSeed     string `env:"SECRET_SEED"`
	SignupBonusDOS int64  `env:"SIGNUP_BONUS_DOS" envDefault:"50"`

	// Round timing
	RoundSeconds int64 `env:"ROUND_SECONDS" envDefault:"300"`
	CloseBetsAt  int64 `env:"CLOSE_BETS_AT" envDefault:"30"`
	AnchorMs     int64 `env:"ANCHOR_MS" envDefault:"1704067200000"`

	// Redemption rate limiting (per client IP, fixed window)
	RedeemMaxAttempts   int `env:"REDEEM_MAX_ATTEMPTS" envDefault:"5"`
	RedeemWindowSeconds int `env:"REDEEM_WINDOW_SECONDS" envDefault:"60"`

	// Operational
	LogLevel      string `env:"LOG_LEVEL" envDefault:"info"`
	RunMigrations bool   `env:"RUN_MIGRATIONS" envDefault:"true"`

	// Kafka / outbox
	KafkaBrokers       string        `env:"KAFKA_BROKERS" envDefault:"localhost:9092"`
	KafkaEnabled       bool          `env:"KAFKA_ENABLED" envDefault:"false"`
	OutboxPollInterval time.Duration `env:"OUTBOX_POLL_INTERVAL" envDefault:"2s"`

	// Auto-settlement (api: off by default; cmd/settler forces it on)
	AutoSettle         bool          `env:"AUTO_SETTLE" envDefault:"false"`
	SettlePollInterval time.Duration `env:"SETTLE_POLL_INTERVAL" envDefault:"5s"`

	// CORS
	CORSAllowedOrigins string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*"`

	// Dev
	AllowInsecureDefaults bool `env:"ALLOW_INSECURE_DEFAULTS" envDefault:"false"`
}

// LoadConfig parses environment variables into a Config struct.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// Validate checks for configuration that must not run in production.
// Set ALLOW_INSECURE_DEFAULTS=true to bypass (local dev only).
// SECRET_SEED may be empty at boot: settlement and redemption fail with a
// config error at call time instead of blocking the rest of the API.
func (c *Config) Validate() error {
	if c.AllowInsecureDefaults {
		return nil
	}
	if c.AdminKey == "" {
		return fmt.Errorf("ADMIN_KEY is not set; the admin surface would be unreachable")
	}
	if len(c.AdminKey) < 16 {
		return fmt.Errorf("ADMIN_KEY is too short (%d chars); minimum 16 characters required", len(c.AdminKey))
	}
	if c.SecretSeed != "" && len(c.SecretSeed) < 16 {
		return fmt.Errorf("SECRET_SEED is too short (%d bytes); minimum 16 bytes required", len(c.SecretSeed))
	}
	return nil
}

// ListenAddr returns the HTTP listen address.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// CORSOrigins splits CORS_ALLOWED_ORIGINS into a list of origins.
func (c *Config) CORSOrigins() []string {
	parts := strings.Split(c.CORSAllowedOrigins, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			origins = append(origins, p)
		}
	}
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return origins
}

// RoundParams builds the initial round timing snapshot.
func (c *Config) RoundParams() domain.RoundParams {
	return domain.RoundParams{
		RoundSeconds: c.RoundSeconds,
		CloseBetsAt:  c.CloseBetsAt,
		AnchorMs:     c.AnchorMs,
	}
}

// DSN returns the PostgreSQL connection string, preferring DATABASE_URL if
// set. SSL is disabled only for loopback hosts; anything else keeps the
// driver default (or whatever sslmode the URL carries).
func (c *Config) DSN() string {
	if c.DatabaseURL != "" {
		return localSSLDisabled(c.DatabaseURL)
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.PGUser, c.PGPassword, c.PGHost, c.PGPort, c.PGDatabase)
}

func localSSLDisabled(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil {
		return dsn
	}
	if u.Query().Has("sslmode") {
		return dsn
	}
	switch u.Hostname() {
	case "localhost", "127.0.0.1", "::1":
		q := u.Query()
		q.Set("sslmode", "disable")
		u.RawQuery = q.Encode()
		return u.String()
	}
	return dsn
}
