package config

import (
	"testing"
	"time"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.HTTPPort != "8080" {
		t.Fatalf("expected default port 8080, got %q", cfg.HTTPPort)
	}
	if cfg.DatabaseURL != "" {
		t.Fatalf("expected empty database url, got %q", cfg.DatabaseURL)
	}
	if len(cfg.CORSAllowedOrigins) != 1 || cfg.CORSAllowedOrigins[0] != "http://localhost:3000" {
		t.Fatalf("unexpected default origins %v", cfg.CORSAllowedOrigins)
	}
	if cfg.JWTAccessTTL() != 24*time.Hour {
		t.Fatalf("expected 24h access ttl, got %v", cfg.JWTAccessTTL())
	}
	if cfg.PasswordResetTTL() != 15*time.Minute {
		t.Fatalf("expected 15m reset ttl, got %v", cfg.PasswordResetTTL())
	}
	if cfg.PasswordResetMaxAttempts != 5 {
		t.Fatalf("expected 5 reset attempts, got %d", cfg.PasswordResetMaxAttempts)
	}
	if cfg.IsDevelopment() {
		t.Fatalf("expected production by default")
	}
}

func TestLoadConfig_RequiresJWTSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	if _, err := LoadConfig(); err == nil {
		t.Fatalf("expected error without JWT_SECRET")
	}
}

func TestLoadConfig_ParsesOrigins(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://a.example,http://b.example")
	t.Setenv("APP_ENV", "development")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[1] != "http://b.example" {
		t.Fatalf("unexpected origins %v", cfg.CORSAllowedOrigins)
	}
	if !cfg.IsDevelopment() {
		t.Fatalf("expected development env")
	}
}
