package main

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
)

// Config holds process configuration, loaded once from the environment
// at startup and treated as immutable.
type Config struct {
	Port    string `env:"SERVER_PORT" envDefault:"3000"`
	BaseURL string `env:"BASE_URL" envDefault:"http://localhost:3000"`

	// DatabaseURL selects the Postgres store. When empty the server
	// falls back to the file store under DataDir (development mode).
	DatabaseURL string `env:"DATABASE_URL"`
	DataDir     string `env:"DATA_DIR" envDefault:"./data"`

	GoogleClientID     string `env:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `env:"GOOGLE_CLIENT_SECRET"`
	GoogleCallbackURL  string `env:"GOOGLE_CALLBACK_URL"`

	JWTSecretKey string `env:"JWT_SECRET_KEY"`
}

func LoadConfig() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	if cfg.GoogleCallbackURL == "" {
		cfg.GoogleCallbackURL = strings.TrimSuffix(cfg.BaseURL, "/") + "/auth/google/callback"
	}
	return &cfg, nil
}

// SecureCookies reports whether session cookies should carry the Secure
// flag, which follows from the site being served over https.
func (c *Config) SecureCookies() bool {
	return strings.HasPrefix(c.BaseURL, "https://")
}
