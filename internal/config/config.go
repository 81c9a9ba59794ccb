package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v9"
)

const (
	StrategyPerPartner = "per_partner"
	StrategyBulk       = "bulk"
)

type Config struct {
	Port                   string `env:"PORT" envDefault:"8080"`
	Env                    string `env:"APP_ENV" envDefault:"dev"`
	DBDriver               string `env:"DB_DRIVER" envDefault:"mysql"`
	DBUser                 string `env:"DB_USER,required"`
	DBPassword             string `env:"DB_PASSWORD,required"`
	DBHost                 string `env:"DB_HOST,required"` // e.g. tcp(host:3306) or unix(/cloudsql/instance)
	DBName                 string `env:"DB_NAME,required"`
	DBPort                 string `env:"DB_PORT"`
	InstanceConnectionName string `env:"INSTANCE_CONNECTION_NAME"`

	FirebaseProjectID       string `env:"FIREBASE_PROJECT_ID"`
	FirebaseCredentialsFile string `env:"FIREBASE_CREDENTIALS_FILE"`

	Inbox InboxConfig `envPrefix:"INBOX_"`
}

// InboxConfig tunes the conversation list engine.
type InboxConfig struct {
	// LatestStrategy is per_partner (exact, one query per partner) or bulk
	// (one windowed scan, under-fetched partners resolved per partner).
	LatestStrategy         string        `env:"LATEST_STRATEGY" envDefault:"per_partner"`
	Concurrency            int           `env:"CONCURRENCY" envDefault:"16"`
	BulkMessagesPerPartner int           `env:"BULK_MESSAGES_PER_PARTNER" envDefault:"10"`
	BulkMaxRows            int           `env:"BULK_MAX_ROWS" envDefault:"5000"`
	DirectoryCacheSize     int           `env:"DIRECTORY_CACHE_SIZE" envDefault:"1024"`
	DirectoryCacheTTL      time.Duration `env:"DIRECTORY_CACHE_TTL" envDefault:"5m"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.DBDriver {
	case "mysql", "postgres":
	default:
		return fmt.Errorf("DB_DRIVER must be mysql or postgres, got %q", c.DBDriver)
	}
	switch c.Inbox.LatestStrategy {
	case StrategyPerPartner, StrategyBulk:
	default:
		return fmt.Errorf("INBOX_LATEST_STRATEGY must be %s or %s, got %q", StrategyPerPartner, StrategyBulk, c.Inbox.LatestStrategy)
	}
	if c.Inbox.Concurrency < 1 {
		return fmt.Errorf("INBOX_CONCURRENCY must be positive, got %d", c.Inbox.Concurrency)
	}
	if c.Inbox.BulkMessagesPerPartner < 1 || c.Inbox.BulkMaxRows < 1 {
		return fmt.Errorf("INBOX_BULK_MESSAGES_PER_PARTNER and INBOX_BULK_MAX_ROWS must be positive")
	}
	return nil
}

// AuthEnabled reports whether firebase token verification and user lookup are configured.
func (c *Config) AuthEnabled() bool {
	return c.FirebaseProjectID != ""
}
