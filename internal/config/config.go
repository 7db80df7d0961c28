package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"time"

	pkgconfig "github.com/utafrali/storefront/pkg/config"
)

// Store backends for cart and token persistence.
const (
	StoreFile   = "file"
	StoreRedis  = "redis"
	StoreMemory = "memory"
)

var sessionIDPattern = regexp.MustCompile(`^[A-Za-z0-9_.-]{1,64}$`)

// Config holds all configuration for the storefront client.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"warn"`

	// Order-management API
	APIURL            string `env:"STOREFRONT_API_URL" envDefault:"http://127.0.0.1:8000/api"`
	APITimeoutSeconds int    `env:"STOREFRONT_API_TIMEOUT_SECONDS" envDefault:"30"`
	APIMaxRetries     int    `env:"STOREFRONT_API_MAX_RETRIES" envDefault:"0"`

	// Circuit breaker settings for API calls
	CBMaxRequests  uint32  `env:"CB_MAX_REQUESTS" envDefault:"1"`
	CBInterval     int     `env:"CB_INTERVAL_SECONDS" envDefault:"60"`
	CBTimeout      int     `env:"CB_TIMEOUT_SECONDS" envDefault:"30"`
	CBFailureRatio float64 `env:"CB_FAILURE_RATIO" envDefault:"0.5"`
	CBMinRequests  uint32  `env:"CB_MIN_REQUESTS" envDefault:"5"`

	// Local state
	Store     string `env:"STOREFRONT_STORE" envDefault:"file"`
	StateDir  string `env:"STOREFRONT_STATE_DIR"`
	SessionID string `env:"STOREFRONT_SESSION_ID" envDefault:"default"`
	CartKey   string `env:"STOREFRONT_CART_KEY" envDefault:"panier"`
	TokenKey  string `env:"STOREFRONT_TOKEN_KEY" envDefault:"token"`

	// Redis
	RedisAddr string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPass string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB   int    `env:"REDIS_DB" envDefault:"0"`

	// Session namespace TTL in hours (0 = no expiry)
	SessionTTL int `env:"STOREFRONT_SESSION_TTL_HOURS" envDefault:"0"`

	// Chat polling
	ChatPollInterval int `env:"CHAT_POLL_INTERVAL_SECONDS" envDefault:"5"`

	// Calendar day of the dashboards; "Local" is the machine's zone.
	TimeZone string `env:"STOREFRONT_TIMEZONE" envDefault:"Local"`
	location *time.Location

	// OpenTelemetry
	OTELEnabled    bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTELEndpoint   string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	OTELSampleRate float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1.0"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	return LoadWithOverrides(nil)
}

// LoadWithOverrides reads configuration from environment variables, letting
// the given variables take precedence (used for command line flags).
func LoadWithOverrides(overrides map[string]string) (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.LoadWithOverrides(cfg, overrides); err != nil {
		return nil, fmt.Errorf("load storefront config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate checks configuration invariants.
func (c *Config) validate() error {
	if c.APIURL == "" {
		return fmt.Errorf("STOREFRONT_API_URL is required")
	}
	if _, err := url.ParseRequestURI(c.APIURL); err != nil {
		return fmt.Errorf("invalid STOREFRONT_API_URL %q: %w", c.APIURL, err)
	}
	if c.APITimeoutSeconds < 1 {
		return fmt.Errorf("STOREFRONT_API_TIMEOUT_SECONDS must be positive, got %d", c.APITimeoutSeconds)
	}
	if c.APIMaxRetries < 0 {
		return fmt.Errorf("STOREFRONT_API_MAX_RETRIES must not be negative, got %d", c.APIMaxRetries)
	}
	switch c.Store {
	case StoreFile:
		if c.StateDir == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return fmt.Errorf("STOREFRONT_STATE_DIR is required for the file store: %w", err)
			}
			c.StateDir = filepath.Join(home, ".storefront")
		}
	case StoreRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("REDIS_ADDR is required for the redis store")
		}
	case StoreMemory:
	default:
		return fmt.Errorf("invalid STOREFRONT_STORE %q: must be one of file, redis, memory", c.Store)
	}
	if !sessionIDPattern.MatchString(c.SessionID) {
		return fmt.Errorf("invalid STOREFRONT_SESSION_ID %q", c.SessionID)
	}
	if c.CartKey == "" || c.TokenKey == "" {
		return fmt.Errorf("STOREFRONT_CART_KEY and STOREFRONT_TOKEN_KEY are required")
	}
	if c.SessionTTL < 0 {
		return fmt.Errorf("STOREFRONT_SESSION_TTL_HOURS must not be negative, got %d", c.SessionTTL)
	}
	if c.ChatPollInterval < 1 {
		return fmt.Errorf("CHAT_POLL_INTERVAL_SECONDS must be positive, got %d", c.ChatPollInterval)
	}
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return fmt.Errorf("invalid STOREFRONT_TIMEZONE %q: %w", c.TimeZone, err)
	}
	c.location = loc
	if c.CBFailureRatio <= 0 || c.CBFailureRatio > 1.0 {
		return fmt.Errorf("CB_FAILURE_RATIO must be in (0.0, 1.0], got %f", c.CBFailureRatio)
	}
	if c.OTELSampleRate < 0 || c.OTELSampleRate > 1.0 {
		return fmt.Errorf("OTEL_SAMPLE_RATE must be between 0.0 and 1.0, got %f", c.OTELSampleRate)
	}
	return nil
}

// APITimeout returns the per-request API timeout.
func (c *Config) APITimeout() time.Duration {
	return time.Duration(c.APITimeoutSeconds) * time.Second
}

// SessionTTLDuration returns the session namespace TTL; zero means no expiry.
func (c *Config) SessionTTLDuration() time.Duration {
	return time.Duration(c.SessionTTL) * time.Hour
}

// ChatPollEvery returns the chat polling period.
func (c *Config) ChatPollEvery() time.Duration {
	return time.Duration(c.ChatPollInterval) * time.Second
}

// Location returns the zone the dashboards count days in.
func (c *Config) Location() *time.Location {
	if c.location != nil {
		return c.location
	}
	if c.TimeZone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return time.Local
	}
	return loc
}
