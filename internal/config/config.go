package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Store drivers understood by the database package.
const (
	DriverSQLite  = "sqlite"
	DriverSurreal = "surreal"
)

// Session backends.
const (
	SessionFilesystem = "filesystem"
	SessionCookie     = "cookie"
)

// Provider exposes configuration to the rest of the application. Components
// depend on this interface rather than on Config so tests can stub it.
type Provider interface {
	GetAppAddr() string
	GetAppBaseURL() string
	GetSessionSecret() string
	GetSessionStore() string
	GetSessionDir() string
	GetStoreDriver() string
	GetSQLitePath() string
	GetDBURL() string
	GetDBNs() string
	GetDBDb() string
	GetDBUser() string
	GetDBPass() string
	GetPresenceOfflineDebounce() time.Duration
	GetRateLimitPerMinute() int
}

// Config holds all configuration for the application.
type Config struct {
	AppAddr    string
	AppBaseURL string

	SessionSecret string
	SessionStore  string
	SessionDir    string

	StoreDriver string
	SQLitePath  string

	DBUrl  string
	DBNs   string
	DBDb   string
	DBUser string
	DBPass string

	PresenceOfflineDebounce time.Duration
	RateLimitPerMinute      int
}

// New loads configuration from the environment, reading a .env file first
// when one is present.
func New() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file found, relying on environment variables")
	}
	return FromEnv()
}

// FromEnv builds a Config from the current environment without touching .env.
func FromEnv() (*Config, error) {
	cfg := &Config{
		AppAddr:       getenv("APP_ADDR", ":8080"),
		AppBaseURL:    getenv("APP_BASE_URL", "http://localhost:8080"),
		SessionSecret: os.Getenv("SESSION_SECRET"),
		SessionStore:  getenv("SESSION_STORE", SessionFilesystem),
		SessionDir:    getenv("SESSION_DIR", "data/sessions"),
		StoreDriver:   getenv("STORE_DRIVER", DriverSQLite),
		SQLitePath:    getenv("SQLITE_PATH", "data/studybuddy.db"),
		DBUrl:         os.Getenv("SURREAL_URL"),
		DBNs:          os.Getenv("SURREAL_NS"),
		DBDb:          os.Getenv("SURREAL_DB"),
		DBUser:        os.Getenv("SURREAL_USER"),
		DBPass:        os.Getenv("SURREAL_PASS"),
	}

	var err error
	if cfg.PresenceOfflineDebounce, err = getDuration("PRESENCE_OFFLINE_DEBOUNCE", 0); err != nil {
		return nil, err
	}
	if cfg.RateLimitPerMinute, err = getInt("RATE_LIMIT_PER_MINUTE", 10); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the selected drivers have what they need.
func (c *Config) Validate() error {
	var errs []error
	if c.SessionSecret == "" {
		errs = append(errs, errors.New("SESSION_SECRET is not set"))
	}
	switch c.SessionStore {
	case SessionFilesystem, SessionCookie:
	default:
		errs = append(errs, fmt.Errorf("unknown SESSION_STORE %q", c.SessionStore))
	}
	switch c.StoreDriver {
	case DriverSQLite:
		if c.SQLitePath == "" {
			errs = append(errs, errors.New("SQLITE_PATH is not set"))
		}
	case DriverSurreal:
		if c.DBUrl == "" || c.DBNs == "" || c.DBDb == "" {
			errs = append(errs, errors.New("SURREAL_URL, SURREAL_NS and SURREAL_DB are required for the surreal driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver))
	}
	if c.RateLimitPerMinute <= 0 {
		errs = append(errs, errors.New("RATE_LIMIT_PER_MINUTE must be positive"))
	}
	return errors.Join(errs...)
}

func (c *Config) GetAppAddr() string       { return c.AppAddr }
func (c *Config) GetAppBaseURL() string    { return c.AppBaseURL }
func (c *Config) GetSessionSecret() string { return c.SessionSecret }
func (c *Config) GetSessionStore() string  { return c.SessionStore }
func (c *Config) GetSessionDir() string    { return c.SessionDir }
func (c *Config) GetStoreDriver() string   { return c.StoreDriver }
func (c *Config) GetSQLitePath() string    { return c.SQLitePath }
func (c *Config) GetDBURL() string         { return c.DBUrl }
func (c *Config) GetDBNs() string          { return c.DBNs }
func (c *Config) GetDBDb() string          { return c.DBDb }
func (c *Config) GetDBUser() string        { return c.DBUser }
func (c *Config) GetDBPass() string        { return c.DBPass }

func (c *Config) GetPresenceOfflineDebounce() time.Duration { return c.PresenceOfflineDebounce }
func (c *Config) GetRateLimitPerMinute() int                { return c.RateLimitPerMinute }

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func getInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}
