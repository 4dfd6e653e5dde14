package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config contains server configuration parameters.
type Config struct {
	Port     string `env:"PORT" envDefault:"8080"`
	DBPath   string `env:"DB_PATH" envDefault:"scribble.db"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	BaseURL  string `env:"BASE_URL"`

	// TrustProxy honors CF-Connecting-IP and X-Forwarded-For when keying
	// rate limits. Only enable behind a proxy that overwrites them.
	TrustProxy bool `env:"TRUST_PROXY" envDefault:"false"`

	Session   Session   `envPrefix:"SESSION_"`
	Password  Password  `envPrefix:"PASSWORD_"`
	RateLimit RateLimit `envPrefix:"RATE_LIMIT_"`
}

// Session contains cookie session parameters.
type Session struct {
	TTL             time.Duration `env:"TTL" envDefault:"2160h"`
	CleanupInterval time.Duration `env:"CLEANUP_INTERVAL" envDefault:"1h"`
}

// Password contains KDF parameters for stored credentials.
type Password struct {
	Iterations int `env:"ITERATIONS" envDefault:"600000"`
}

// RateLimit bounds login and sign-up attempts per client IP.
type RateLimit struct {
	Limit  int           `env:"LIMIT" envDefault:"10"`
	Window time.Duration `env:"WINDOW" envDefault:"1m"`
}

// Load reads an optional dotenv file and then parses SCRIBBLE_* variables.
// Variables already set in the environment win over the file.
func Load(dotenvPath string) (*Config, error) {
	if dotenvPath != "" {
		if err := godotenv.Load(dotenvPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", dotenvPath, err)
		}
	}

	cfg := Config{}
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: "SCRIBBLE_"}); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:" + cfg.Port
	}
	if cfg.Session.TTL <= 0 {
		return nil, fmt.Errorf("session ttl must be positive, got %s", cfg.Session.TTL)
	}

	return &cfg, nil
}
