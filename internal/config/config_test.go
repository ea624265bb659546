package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("ENV", "")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("ORCH_URL", "")
	t.Setenv("ORCH_TIMEOUT", "")
	t.Setenv("SESSION_STORE", "")
	t.Setenv("CORS_ALLOWED_ORIGINS", "")
	cfg := Load()
	if cfg.Port != "8080" {
		t.Fatalf("expected default port, got %s", cfg.Port)
	}
	if cfg.Env != "development" {
		t.Fatalf("expected default env, got %s", cfg.Env)
	}
	if cfg.OrchURL != DefaultOrchURL {
		t.Fatalf("expected default orch url, got %s", cfg.OrchURL)
	}
	if cfg.OrchTimeout != 240*time.Second {
		t.Fatalf("expected 240s orch timeout, got %s", cfg.OrchTimeout)
	}
	if cfg.SessionStore != "memory" {
		t.Fatalf("expected memory session store, got %s", cfg.SessionStore)
	}
	if cfg.UseRedisSessions() {
		t.Fatalf("expected redis sessions disabled by default")
	}
	if cfg.CORSAllowedOrigins != nil {
		t.Fatalf("expected no CORS origins, got %v", cfg.CORSAllowedOrigins)
	}
	if cfg.S3PresignTTL != 15*time.Minute {
		t.Fatalf("expected default presign ttl, got %s", cfg.S3PresignTTL)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("ENV", "production")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "TEXT")
	t.Setenv("ORCH_URL", " http://localhost:9000/orch ")
	t.Setenv("ORCH_TIMEOUT", "60s")
	t.Setenv("SESSION_STORE", "Redis")
	t.Setenv("SESSION_TTL", "2h")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("REDIS_TLS", "true")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://a.test, ,http://b.test")
	t.Setenv("CONSOLE_JWT_SECRET", "s3cret")
	cfg := Load()
	if cfg.Port != "9090" {
		t.Fatalf("expected override port, got %s", cfg.Port)
	}
	if cfg.LogFormat != "text" {
		t.Fatalf("expected lower-cased log format, got %s", cfg.LogFormat)
	}
	if cfg.OrchURL != "http://localhost:9000/orch" {
		t.Fatalf("expected trimmed orch url, got %q", cfg.OrchURL)
	}
	if cfg.OrchTimeout != time.Minute {
		t.Fatalf("expected orch timeout override, got %s", cfg.OrchTimeout)
	}
	if !cfg.UseRedisSessions() {
		t.Fatalf("expected redis sessions enabled")
	}
	if cfg.SessionTTL != 2*time.Hour {
		t.Fatalf("expected session ttl override, got %s", cfg.SessionTTL)
	}
	if !cfg.RedisTLS {
		t.Fatalf("expected redis tls enabled")
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[1] != "http://b.test" {
		t.Fatalf("unexpected CORS origins %v", cfg.CORSAllowedOrigins)
	}
	if cfg.ConsoleJWTSecret != "s3cret" {
		t.Fatalf("expected jwt secret override, got %s", cfg.ConsoleJWTSecret)
	}
}

func TestLoadInvalidDurationFallsBack(t *testing.T) {
	t.Setenv("ORCH_TIMEOUT", "soon")
	t.Setenv("SESSION_TTL", "-5m")
	cfg := Load()
	if cfg.OrchTimeout != 240*time.Second {
		t.Fatalf("expected fallback timeout, got %s", cfg.OrchTimeout)
	}
	if cfg.SessionTTL != 24*time.Hour {
		t.Fatalf("expected fallback ttl, got %s", cfg.SessionTTL)
	}
}
