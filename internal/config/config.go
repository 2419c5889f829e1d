package config

import (
	"errors"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds runtime configuration for the API server.
type Config struct {
	Addr         string        `envconfig:"BAZARLY_ADDR" default:":8080"`
	ReadTimeout  time.Duration `envconfig:"BAZARLY_READ_TIMEOUT" default:"15s"`
	WriteTimeout time.Duration `envconfig:"BAZARLY_WRITE_TIMEOUT" default:"15s"`
	IdleTimeout  time.Duration `envconfig:"BAZARLY_IDLE_TIMEOUT" default:"60s"`

	PGDSN string `envconfig:"BAZARLY_PG_DSN"`

	AuthSecret string        `envconfig:"BAZARLY_AUTH_SECRET" required:"true"`
	TokenTTL   time.Duration `envconfig:"BAZARLY_TOKEN_TTL" default:"30m"`
	Issuer     string        `envconfig:"BAZARLY_TOKEN_ISSUER" default:"bazarly"`

	RateBurst  int `envconfig:"BAZARLY_RATE_BURST" default:"20"`
	RatePerSec int `envconfig:"BAZARLY_RATE_PER_SEC" default:"10"`

	MaxBodyBytes int64 `envconfig:"BAZARLY_MAX_BODY_BYTES" default:"1048576"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if cfg.AuthSecret == "" {
		return nil, errors.New("auth secret must be provided")
	}
	return &cfg, nil
}
