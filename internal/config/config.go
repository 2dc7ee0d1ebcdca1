// Package config loads server and CLI configuration from environment variables.
//
// Every setting has a default, so a bare `go run ./cmd/server` starts a
// working staging server with the file store and sandbox collaborators.
package config

import (
	"fmt"
	"log/slog"
	"time"

	env "github.com/caarlos0/env/v11"
)

// Store drivers.
const (
	DriverFile   = "file"
	DriverSQLite = "sqlite"
)

type HTTPConfig struct {
	Port int `env:"PORT" envDefault:"3000"`
}

type StoreConfig struct {
	Driver  string `env:"STORE_DRIVER" envDefault:"file"`
	DataDir string `env:"DATA_DIR" envDefault:".data"`
	DBPath  string `env:"DB_PATH" envDefault:"data/cheesy.db"`
}

type StripeConfig struct {
	BaseURL   string `env:"STRIPE_BASE_URL" envDefault:"https://api.stripe.com"`
	SecretKey string `env:"STRIPE_SECRET_KEY"`
	Currency  string `env:"STRIPE_CURRENCY" envDefault:"usd"`
}

// Enabled reports whether real Stripe calls can be made.
func (c StripeConfig) Enabled() bool { return c.SecretKey != "" }

type MailgunConfig struct {
	BaseURL string `env:"MAILGUN_BASE_URL" envDefault:"https://api.mailgun.net"`
	APIKey  string `env:"MAILGUN_API_KEY"`
	Domain  string `env:"MAILGUN_DOMAIN"`
	From    string `env:"MAILGUN_FROM"`
}

// Enabled reports whether real Mailgun calls can be made.
func (c MailgunConfig) Enabled() bool {
	return c.APIKey != "" && c.Domain != "" && c.From != ""
}

type Config struct {
	Env         string     `env:"APP_ENV" envDefault:"staging"`
	LogLevel    slog.Level `env:"LOG_LEVEL" envDefault:"info"`
	BcryptCost  int        `env:"BCRYPT_COST" envDefault:"12"`
	CompanyName string     `env:"COMPANY_NAME" envDefault:"Cheesy Delights, Inc."`

	// CollaboratorTimeout bounds every payment and notification call.
	CollaboratorTimeout time.Duration `env:"COLLABORATOR_TIMEOUT" envDefault:"10s"`
	// AuditInterval is how often the failed-order audit runs; 0 disables it.
	AuditInterval time.Duration `env:"AUDIT_INTERVAL" envDefault:"1h"`

	HTTP    HTTPConfig
	Store   StoreConfig
	Stripe  StripeConfig
	Mailgun MailgunConfig
}

// Load reads the process environment.
func Load() (Config, error) {
	return parse(env.Options{})
}

// LoadFrom reads the given variables instead of the process environment.
func LoadFrom(vars map[string]string) (Config, error) {
	return parse(env.Options{Environment: vars})
}

func parse(opts env.Options) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.Env {
	case "staging", "production":
	default:
		return fmt.Errorf("config: APP_ENV must be staging or production, got %q", c.Env)
	}
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("config: PORT must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	switch c.Store.Driver {
	case DriverFile, DriverSQLite:
	default:
		return fmt.Errorf("config: unknown STORE_DRIVER %q (want %s or %s)", c.Store.Driver, DriverFile, DriverSQLite)
	}
	if c.CollaboratorTimeout <= 0 {
		return fmt.Errorf("config: COLLABORATOR_TIMEOUT must be positive, got %s", c.CollaboratorTimeout)
	}
	if c.AuditInterval < 0 {
		return fmt.Errorf("config: AUDIT_INTERVAL must not be negative, got %s", c.AuditInterval)
	}
	return nil
}
