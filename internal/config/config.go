package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog/log"
)

// Environment represents different deployment environments
type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvTesting     Environment = "testing"
	EnvProduction  Environment = "production"
)

// Config holds editor and dev server settings.
// Environment variables are parsed from the ITINERARY_ prefix.
type Config struct {
	Environment Environment `envconfig:"ENVIRONMENT" default:"development"`
	LogLevel    string      `envconfig:"LOG_LEVEL" default:"info"`

	// Remote store
	APIURL      string        `envconfig:"API_URL" default:"http://localhost:8080"`
	User        string        `envconfig:"API_USER" default:""`
	HTTPTimeout time.Duration `envconfig:"HTTP_TIMEOUT" default:"30s"`

	LoadMaxAttempts int           `envconfig:"LOAD_MAX_ATTEMPTS" default:"3"`
	LoadBackoff     time.Duration `envconfig:"LOAD_BACKOFF" default:"200ms"`

	// Editor timing
	Debounce      time.Duration `envconfig:"DEBOUNCE" default:"1s"`
	SavedDisplay  time.Duration `envconfig:"SAVED_DISPLAY" default:"2s"`
	ErrorDisplay  time.Duration `envconfig:"ERROR_DISPLAY" default:"4s"`
	RedirectDelay time.Duration `envconfig:"REDIRECT_DELAY" default:"1500ms"`

	// Dev server
	DevAddr        string `envconfig:"DEV_ADDR" default:":8080"`
	DevDBDriver    string `envconfig:"DEV_DB_DRIVER" default:"auto"`
	DevSQLitePath  string `envconfig:"DEV_SQLITE_PATH" default:""`
	DevPostgresDSN string `envconfig:"DEV_POSTGRES_DSN" default:""`
}

// ResolveDefaults validates the timing knobs and derives DevDBDriver when set
// to "auto" or empty: postgres when a DSN is configured, sqlite otherwise.
func (c *Config) ResolveDefaults() error {
	if c.DevDBDriver == "" || c.DevDBDriver == "auto" {
		if c.DevPostgresDSN != "" {
			c.DevDBDriver = "postgres"
		} else {
			c.DevDBDriver = "sqlite"
		}
	}
	c.DevDBDriver = strings.ToLower(c.DevDBDriver)
	switch c.DevDBDriver {
	case "sqlite":
		if c.DevSQLitePath == "" {
			c.DevSQLitePath = "itineraries.db"
		}
	case "postgres":
		if c.DevPostgresDSN == "" {
			return fmt.Errorf("DEV_DB_DRIVER=postgres requires DEV_POSTGRES_DSN")
		}
	default:
		return fmt.Errorf("unsupported DEV_DB_DRIVER: %s", c.DevDBDriver)
	}

	if c.Debounce <= 0 {
		return fmt.Errorf("DEBOUNCE must be positive, got %s", c.Debounce)
	}
	if c.SavedDisplay < 0 || c.ErrorDisplay < 0 || c.RedirectDelay < 0 {
		return fmt.Errorf("display windows cannot be negative")
	}
	if c.LoadMaxAttempts < 1 {
		return fmt.Errorf("max attempts must be at least 1")
	}
	return nil
}

// New creates a new Config by parsing environment variables
// Example: ITINERARY_API_URL, ITINERARY_DEBOUNCE
func New() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("ITINERARY", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}

	if err := cfg.ResolveDefaults(); err != nil {
		return nil, err
	}

	log.Debug().
		Str("environment", string(cfg.Environment)).
		Str("api_url", cfg.APIURL).
		Bool("user_present", cfg.User != "").
		Dur("debounce", cfg.Debounce).
		Str("dev_db_driver", cfg.DevDBDriver).
		Msg("Configuration loaded")

	return &cfg, nil
}

// NewForTesting returns a config with short timings and a temp sqlite path.
func NewForTesting(sqlitePath string) *Config {
	cfg := &Config{
		Environment:     EnvTesting,
		LogLevel:        "debug",
		APIURL:          "http://localhost:0",
		User:            "test-user",
		HTTPTimeout:     5 * time.Second,
		LoadMaxAttempts: 1,
		LoadBackoff:     time.Millisecond,
		Debounce:        20 * time.Millisecond,
		SavedDisplay:    20 * time.Millisecond,
		ErrorDisplay:    20 * time.Millisecond,
		RedirectDelay:   10 * time.Millisecond,
		DevAddr:         "127.0.0.1:0",
		DevDBDriver:     "sqlite",
		DevSQLitePath:   sqlitePath,
	}
	return cfg
}
