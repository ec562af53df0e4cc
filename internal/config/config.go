package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	APIBaseURL         string `mapstructure:"MYHOME_API_URL"`
	SessionFile        string `mapstructure:"MYHOME_SESSION_FILE"`
	Env                string `mapstructure:"ENV"`
	LogLevel           string `mapstructure:"LOG_LEVEL"`
	SessionLifetimeHrs int    `mapstructure:"SESSION_LIFETIME_HOURS"`
	RefreshLeewayMins  int    `mapstructure:"REFRESH_LEEWAY_MINUTES"`
	ExpiryPollSecs     int    `mapstructure:"EXPIRY_POLL_SECONDS"`
	SandboxPort        string `mapstructure:"SANDBOX_PORT"`
	SandboxSigningKey  string `mapstructure:"SANDBOX_SIGNING_KEY"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("MYHOME_API_URL", "http://localhost:5000")
	v.SetDefault("MYHOME_SESSION_FILE", "")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("SESSION_LIFETIME_HOURS", 24)
	v.SetDefault("REFRESH_LEEWAY_MINUTES", 5)
	v.SetDefault("EXPIRY_POLL_SECONDS", 60)
	v.SetDefault("SANDBOX_PORT", "5000")

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("MYHOME_API_URL")
	v.BindEnv("MYHOME_SESSION_FILE")
	v.BindEnv("ENV")
	v.BindEnv("LOG_LEVEL")
	v.BindEnv("SESSION_LIFETIME_HOURS")
	v.BindEnv("REFRESH_LEEWAY_MINUTES")
	v.BindEnv("EXPIRY_POLL_SECONDS")
	v.BindEnv("SANDBOX_PORT")
	v.BindEnv("SANDBOX_SIGNING_KEY")

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// SessionLifetime is the client-side session lifetime applied at login and
// on every refresh.
func (c *Config) SessionLifetime() time.Duration {
	return time.Duration(c.SessionLifetimeHrs) * time.Hour
}

// RefreshLeeway is how long before expiry the proactive refresh fires.
func (c *Config) RefreshLeeway() time.Duration {
	return time.Duration(c.RefreshLeewayMins) * time.Minute
}

// ExpiryPollInterval is the period of the wall-clock expiry check.
func (c *Config) ExpiryPollInterval() time.Duration {
	return time.Duration(c.ExpiryPollSecs) * time.Second
}

// Validate checks that the configuration is safe to run with. The API base
// URL must parse and carry an http or https scheme; a malformed URL here is
// reported as a configuration error instead of a failed request later.
func (c *Config) Validate() error {
	u, err := url.Parse(c.APIBaseURL)
	if err != nil {
		return fmt.Errorf("MYHOME_API_URL is not a valid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("MYHOME_API_URL has unsupported protocol %q (must be http or https)", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("MYHOME_API_URL is missing a host: %q", c.APIBaseURL)
	}
	if c.SessionLifetimeHrs <= 0 {
		return fmt.Errorf("SESSION_LIFETIME_HOURS must be positive, got %d", c.SessionLifetimeHrs)
	}
	if c.RefreshLeewayMins < 0 {
		return fmt.Errorf("REFRESH_LEEWAY_MINUTES must not be negative, got %d", c.RefreshLeewayMins)
	}
	if c.ExpiryPollSecs <= 0 {
		return fmt.Errorf("EXPIRY_POLL_SECONDS must be positive, got %d", c.ExpiryPollSecs)
	}
	return nil
}
