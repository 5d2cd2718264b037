package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SESSION_SECRET", strings.Repeat("k", 32))
	t.Setenv("SESSION_BACKEND", "")
	t.Setenv("API_BASE_URL", "http://backend:9000/api/")
	t.Setenv("TELEMETRY_INTERVAL", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Session.Backend != SessionCookie {
		t.Errorf("expected cookie backend, got %s", cfg.Session.Backend)
	}
	if cfg.APIBaseURL != "http://backend:9000/api" {
		t.Errorf("trailing slash not trimmed: %s", cfg.APIBaseURL)
	}
	if cfg.TelemetryInterval != 5*time.Second || cfg.APITimeout != 10*time.Second {
		t.Errorf("unexpected durations: %v %v", cfg.TelemetryInterval, cfg.APITimeout)
	}
}

func TestLoadRejectsBadSettings(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"short cookie secret", map[string]string{"SESSION_BACKEND": "cookie", "SESSION_SECRET": "short"}},
		{"unknown backend", map[string]string{"SESSION_BACKEND": "memcached"}},
		{"postgres without url", map[string]string{"SESSION_BACKEND": "postgres", "DATABASE_URL": ""}},
		{"bad interval", map[string]string{"SESSION_BACKEND": "redis", "TELEMETRY_INTERVAL": "often"}},
		{"zero interval", map[string]string{"SESSION_BACKEND": "redis", "TELEMETRY_INTERVAL": "0s"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := Load(); err == nil {
				t.Errorf("expected an error")
			}
		})
	}
}

func TestSplitList(t *testing.T) {
	got := splitList(" https://a.example , ,https://b.example")
	if len(got) != 2 || got[0] != "https://a.example" || got[1] != "https://b.example" {
		t.Errorf("unexpected list %v", got)
	}
}

func TestLoadStub(t *testing.T) {
	t.Setenv("STUB_PORT", "")
	t.Setenv("APP_JWT_SECRET", "s3cret")

	cfg := LoadStub()
	if cfg.Port != "8081" || cfg.JWTSecret != "s3cret" {
		t.Errorf("unexpected stub config %+v", cfg)
	}
}
