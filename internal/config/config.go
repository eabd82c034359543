// Package config loads server settings from the environment, with an
// optional .env file for local runs.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Addr string `env:"ADDR" envDefault:":8080"`

	// AuditDBPath is the sqlite file deleted sessions export their logs to.
	// Empty disables the audit sink.
	AuditDBPath string `env:"AUDIT_DB_PATH"`

	BallotDuration time.Duration `env:"BALLOT_DURATION" envDefault:"5m"`

	Env string `env:"APP_ENV" envDefault:"dev"`
}

func Load() (Config, error) {
	// Missing .env is fine; real deployments set the environment directly.
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

func (c Config) Production() bool { return c.Env == "prod" }
