package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/caarlos0/env/v10"
)

// Load parses environment variables into the provided struct.
// The struct should use `env` tags to define mappings.
//
// Example:
//
//	type Config struct {
//	    APIURL   string `env:"STOREFRONT_API_URL" envDefault:"http://127.0.0.1:8000/api"`
//	    LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
//	}
func Load(cfg any) error {
	return LoadWithOverrides(cfg, nil)
}

// LoadWithOverrides parses the process environment into cfg, with the given
// key/value pairs taking precedence. Command line flags use it to override
// individual variables without touching the real environment.
func LoadWithOverrides(cfg any, overrides map[string]string) error {
	environment := env.ToMap(os.Environ())
	for k, v := range overrides {
		environment[strings.TrimSpace(k)] = v
	}

	if err := env.ParseWithOptions(cfg, env.Options{Environment: environment}); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}
