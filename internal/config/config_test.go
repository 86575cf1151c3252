package config

import (
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("MANTIS_DATA_DIR", "/tmp/mantis-test")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.APIBaseURL != "http://localhost:3000" {
		t.Fatalf("unexpected base URL %q", cfg.APIBaseURL)
	}
	if cfg.Server.Port != 3000 {
		t.Fatalf("expected port 3000, got %d", cfg.Server.Port)
	}
	if cfg.Server.SessionTTL != 24*time.Hour {
		t.Fatalf("expected 24h session TTL, got %s", cfg.Server.SessionTTL)
	}
	if got, want := cfg.StoragePath(), filepath.Join("/tmp/mantis-test", "client.db"); got != want {
		t.Fatalf("storage path = %q, want %q", got, want)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("MANTIS_API_BASE_URL", "https://tracker.example.com/")
	t.Setenv("PORT", "8081")
	t.Setenv("CORS_ALLOWED_ORIGINS", " https://a.example.com , ,https://b.example.com")
	t.Setenv("APP_ENV", "production")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.APIBaseURL != "https://tracker.example.com" {
		t.Fatalf("trailing slash not trimmed: %q", cfg.APIBaseURL)
	}
	if cfg.Server.Port != 8081 {
		t.Fatalf("expected port 8081, got %d", cfg.Server.Port)
	}
	if len(cfg.Server.AllowedOrigins) != 2 || cfg.Server.AllowedOrigins[1] != "https://b.example.com" {
		t.Fatalf("unexpected origins %v", cfg.Server.AllowedOrigins)
	}
	if !cfg.Server.Production {
		t.Fatal("expected production mode")
	}
}

func TestLoadRejectsBadPort(t *testing.T) {
	t.Setenv("PORT", "not-a-port")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for invalid PORT")
	}
}

func TestLoadRequestTimeout(t *testing.T) {
	t.Setenv("MANTIS_REQUEST_TIMEOUT", "5s")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.RequestTimeout != 5*time.Second {
		t.Fatalf("expected 5s, got %s", cfg.RequestTimeout)
	}

	t.Setenv("MANTIS_REQUEST_TIMEOUT", "soon")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for invalid MANTIS_REQUEST_TIMEOUT")
	}
}
