// Package config loads runtime configuration from the environment and
// an optional .env file.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds every tunable for the triage pipeline and the sandbox
// simulator. Scoring thresholds are deliberately absent: they are fixed
// business rules, not configuration.
type Config struct {
	Env string `mapstructure:"ENV"`

	// Remote service
	APIBaseURL  string        `mapstructure:"API_BASE_URL"`
	APIKey      string        `mapstructure:"API_KEY"`
	HTTPTimeout time.Duration `mapstructure:"HTTP_TIMEOUT"`

	// Collection
	PageLimit           int           `mapstructure:"PAGE_LIMIT"`
	MaxPages            int           `mapstructure:"MAX_PAGES"`
	FirstPassRetries    int           `mapstructure:"FIRST_PASS_RETRIES"`
	RecoveryRetries     int           `mapstructure:"RECOVERY_RETRIES"`
	RateLimitBaseDelay  time.Duration `mapstructure:"RATE_LIMIT_BASE_DELAY"`
	TransientRetryDelay time.Duration `mapstructure:"TRANSIENT_RETRY_DELAY"`
	DedupPolicy         string        `mapstructure:"DEDUP_POLICY"`

	// Simulator
	SimPort string `mapstructure:"SIM_PORT"`
	SimSeed int64  `mapstructure:"SIM_SEED"`
}

// Load reads configuration from .env (when present) and the process
// environment.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("ENV", "development")
	v.SetDefault("HTTP_TIMEOUT", "10s")
	v.SetDefault("PAGE_LIMIT", 5)
	v.SetDefault("MAX_PAGES", 10)
	v.SetDefault("FIRST_PASS_RETRIES", 3)
	v.SetDefault("RECOVERY_RETRIES", 5)
	v.SetDefault("RATE_LIMIT_BASE_DELAY", "2s")
	v.SetDefault("TRANSIENT_RETRY_DELAY", "1s")
	v.SetDefault("DEDUP_POLICY", "first")
	v.SetDefault("SIM_PORT", "8080")
	v.SetDefault("SIM_SEED", 1)

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("ENV")
	v.BindEnv("API_BASE_URL")
	v.BindEnv("API_KEY")
	v.BindEnv("HTTP_TIMEOUT")
	v.BindEnv("PAGE_LIMIT")
	v.BindEnv("MAX_PAGES")
	v.BindEnv("FIRST_PASS_RETRIES")
	v.BindEnv("RECOVERY_RETRIES")
	v.BindEnv("RATE_LIMIT_BASE_DELAY")
	v.BindEnv("TRANSIENT_RETRY_DELAY")
	v.BindEnv("DEDUP_POLICY")
	v.BindEnv("SIM_PORT")
	v.BindEnv("SIM_SEED")

	// Try reading .env, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.DedupPolicy != "first" && cfg.DedupPolicy != "last" {
		return nil, fmt.Errorf("DEDUP_POLICY must be \"first\" or \"last\", got %q", cfg.DedupPolicy)
	}
	if cfg.FirstPassRetries < 1 || cfg.RecoveryRetries < 1 {
		return nil, fmt.Errorf("retry budgets must be at least 1")
	}

	return cfg, nil
}

// ValidateRun checks the keys the pipeline run cannot start without.
// The simulator does not need them, so Load stays lenient.
func (c *Config) ValidateRun() error {
	if c.APIBaseURL == "" {
		return fmt.Errorf("API_BASE_URL is required")
	}
	if c.APIKey == "" {
		return fmt.Errorf("API_KEY is required")
	}
	return nil
}

// IsDev returns true in development mode.
func (c *Config) IsDev() bool {
	return c.Env == "development"
}
