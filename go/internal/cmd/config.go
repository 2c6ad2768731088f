package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/mcdev12/draftroom/go/internal/dbconfig"
)

// Config is the process configuration, read from the environment.
type Config struct {
	Port           string   `env:"PORT" envDefault:"8080"`
	AllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`
	LogLevel       string   `env:"LOG_LEVEL" envDefault:"info"`

	JWTSecret string `env:"JWT_SECRET"`
	JWTIssuer string `env:"JWT_ISSUER" envDefault:"draftroom"`

	FixturePath string `env:"LEAGUE_FIXTURE" envDefault:"config/league.example.yaml"`

	TickInterval    time.Duration `env:"DRAFT_TICK_INTERVAL" envDefault:"1s"`
	IdleTimeout     time.Duration `env:"DRAFT_IDLE_TIMEOUT" envDefault:"10m"`
	AbandonTimeout  time.Duration `env:"DRAFT_ABANDON_TIMEOUT" envDefault:"24h"`
	JanitorInterval time.Duration `env:"DRAFT_JANITOR_INTERVAL" envDefault:"1m"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`

	// DatabaseEnabled switches snapshots and the outbox to Postgres.
	DatabaseEnabled bool `env:"DB_ENABLED" envDefault:"false"`
	Database        dbconfig.Config

	NATSURL            string        `env:"NATS_URL"`
	OutboxChannel      string        `env:"OUTBOX_NOTIFY_CHANNEL" envDefault:"draft_outbox_events"`
	OutboxPollInterval time.Duration `env:"OUTBOX_POLL_INTERVAL" envDefault:"5s"`
	OutboxBatchSize    int           `env:"OUTBOX_BATCH_SIZE" envDefault:"100"`
	OutboxMaxLag       int           `env:"OUTBOX_MAX_LAG" envDefault:"1000"`
}

// loadConfig parses the environment. .env has already been loaded by then.
func loadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse environment: %w", err)
	}
	if cfg.OutboxBatchSize <= 0 {
		return Config{}, fmt.Errorf("OUTBOX_BATCH_SIZE must be positive, got %d", cfg.OutboxBatchSize)
	}
	return cfg, nil
}

var errNoSecret = errors.New("JWT_SECRET is required")

func (c Config) secret() ([]byte, error) {
	if c.JWTSecret == "" {
		return nil, errNoSecret
	}
	return []byte(c.JWTSecret), nil
}
