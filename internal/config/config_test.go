package config

import (
	"testing"
	"time"
)

func validConfig() *Config {
	return &Config{
		APIBaseURL:         "http://localhost:5000",
		Env:                "development",
		LogLevel:           "info",
		SessionLifetimeHrs: 24,
		RefreshLeewayMins:  5,
		ExpiryPollSecs:     60,
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.APIBaseURL == "" {
		t.Error("expected default API base URL")
	}
	if cfg.SessionLifetimeHrs != 24 {
		t.Errorf("expected default lifetime 24h, got %d", cfg.SessionLifetimeHrs)
	}
	if cfg.ExpiryPollSecs != 60 {
		t.Errorf("expected default poll interval 60s, got %d", cfg.ExpiryPollSecs)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("MYHOME_API_URL", "https://api.example.com")
	t.Setenv("SESSION_LIFETIME_HOURS", "12")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.APIBaseURL != "https://api.example.com" {
		t.Errorf("expected env override, got %s", cfg.APIBaseURL)
	}
	if cfg.SessionLifetime() != 12*time.Hour {
		t.Errorf("expected 12h lifetime, got %v", cfg.SessionLifetime())
	}
}

func TestValidate_OK(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidate_BadScheme(t *testing.T) {
	cfg := validConfig()
	cfg.APIBaseURL = "ftp://files.example.com"
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for unsupported protocol")
	}
}

func TestValidate_MissingHost(t *testing.T) {
	cfg := validConfig()
	cfg.APIBaseURL = "http://"
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for missing host")
	}
}

func TestValidate_BadDurations(t *testing.T) {
	cfg := validConfig()
	cfg.SessionLifetimeHrs = 0
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for zero lifetime")
	}

	cfg = validConfig()
	cfg.RefreshLeewayMins = -1
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for negative leeway")
	}

	cfg = validConfig()
	cfg.ExpiryPollSecs = 0
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for zero poll interval")
	}
}

func TestDurationHelpers(t *testing.T) {
	cfg := validConfig()
	if cfg.RefreshLeeway() != 5*time.Minute {
		t.Errorf("expected 5m leeway, got %v", cfg.RefreshLeeway())
	}
	if cfg.ExpiryPollInterval() != time.Minute {
		t.Errorf("expected 60s poll, got %v", cfg.ExpiryPollInterval())
	}
}
