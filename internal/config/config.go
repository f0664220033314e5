// Package config loads service configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Storage backends for the ledger and catalog snapshots.
const (
	StorageFile     = "file"
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)

// LogConfig configures the zap logger. Keys are read with the LOG_ prefix.
type LogConfig struct {
	Level             string `envconfig:"LEVEL" default:"info"`
	Encoding          string `envconfig:"ENCODING" default:"json"`
	Development       bool   `envconfig:"DEVELOPMENT" default:"false"`
	DisableCaller     bool   `envconfig:"DISABLE_CALLER" default:"false"`
	DisableStacktrace bool   `envconfig:"DISABLE_STACKTRACE" default:"true"`
	Sampling          bool   `envconfig:"SAMPLING" default:"false"`
}

// StoreConfig selects the persistence backend.
type StoreConfig struct {
	Storage       string `envconfig:"STORAGE" default:"file"`
	DataDir       string `envconfig:"DATA_DIR" default:"data"`
	PostgresDSN   string `envconfig:"POSTGRES_DSN"`
	ClickhouseDSN string `envconfig:"CLICKHOUSE_DSN"`
}

// Validate checks the backend requirements.
func (c StoreConfig) Validate() error {
	switch c.Storage {
	case StorageFile:
		if c.DataDir == "" {
			return errors.New("DATA_DIR is required with STORAGE=file")
		}
	case StorageMemory:
	case StoragePostgres:
		if c.PostgresDSN == "" {
			return errors.New("POSTGRES_DSN is required with STORAGE=postgres")
		}
	default:
		return fmt.Errorf("unknown STORAGE %q", c.Storage)
	}
	return nil
}

// LoadStore reads only the storage settings, for offline tools.
func LoadStore() (StoreConfig, error) {
	_ = godotenv.Load()

	var c StoreConfig
	if err := envconfig.Process("", &c); err != nil {
		return c, fmt.Errorf("process env: %w", err)
	}
	return c, c.Validate()
}

// Config is the service configuration.
type Config struct {
	// Transport
	BotToken  string `envconfig:"BOT_TOKEN" required:"true"`
	AdminID   int64  `envconfig:"ADMIN_ID" required:"true"`
	FeedWSURL string `envconfig:"FEED_WS_URL"`

	// HTTP
	Port int `envconfig:"PORT" default:"10000"`

	// Storage
	StoreConfig

	// Channels, overridden by persisted settings once an admin sets them
	StatChannel    int64 `envconfig:"STAT_CHANNEL"`
	DisplayChannel int64 `envconfig:"DISPLAY_CHANNEL"`

	// Matching
	Tolerance int `envconfig:"TOLERANCE" default:"4"`

	// Rollover
	RolloverCron     string        `envconfig:"ROLLOVER_CRON" default:"0 59 0 * * *"`
	RolloverTZOffset time.Duration `envconfig:"ROLLOVER_TZ_OFFSET" default:"1h"`

	Log LogConfig
}

// Load reads .env when present, then the process environment.
func Load() (Config, error) {
	_ = godotenv.Load()

	var c Config
	if err := envconfig.Process("", &c); err != nil {
		return c, fmt.Errorf("process env: %w", err)
	}
	if err := c.Validate(); err != nil {
		return c, err
	}
	return c, nil
}

// Validate checks value ranges and backend requirements.
func (c Config) Validate() error {
	if c.BotToken == "" {
		return errors.New("BOT_TOKEN is required")
	}
	if c.AdminID == 0 {
		return errors.New("ADMIN_ID is required")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("PORT out of range: %d", c.Port)
	}
	if c.Tolerance < 0 {
		return fmt.Errorf("TOLERANCE must be >= 0, got %d", c.Tolerance)
	}
	return c.StoreConfig.Validate()
}

// RolloverLocation returns the fixed zone the daily rollover runs in.
func (c Config) RolloverLocation() *time.Location {
	return FixedZone(c.RolloverTZOffset)
}

// FixedZone returns a zone named after its whole-hour UTC offset.
func FixedZone(offset time.Duration) *time.Location {
	secs := int(offset / time.Second)
	return time.FixedZone(fmt.Sprintf("UTC%+d", secs/3600), secs)
}
