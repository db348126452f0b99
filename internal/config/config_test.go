package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv(configPathEnv, "")
	t.Setenv("API_BASE_URL", "")
	t.Setenv("PAGE_SIZE", "")
	t.Setenv("RETRY_MAX_RETRIES", "")
	t.Setenv("RETRY_BASE_DELAY", "")
	t.Setenv("HTTP_TIMEOUT", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.APIBaseURL != "http://localhost:5000" {
		t.Fatalf("expected default base url, got %q", cfg.APIBaseURL)
	}
	if cfg.PageSize != 10 {
		t.Fatalf("expected default page size 10, got %d", cfg.PageSize)
	}
	if cfg.RetryMaxRetries != 3 || cfg.RetryBaseDelay != time.Second {
		t.Fatalf("expected 3 retries with 1s base delay, got %d/%s", cfg.RetryMaxRetries, cfg.RetryBaseDelay)
	}
	if cfg.HTTPTimeout != 0 {
		t.Fatalf("expected no http timeout by default, got %s", cfg.HTTPTimeout)
	}
}

func TestLoadParsesEnvOverrides(t *testing.T) {
	t.Setenv(configPathEnv, "")
	t.Setenv("API_BASE_URL", "http://classifier:5000")
	t.Setenv("PAGE_SIZE", "25")
	t.Setenv("RETRY_MAX_RETRIES", "5")
	t.Setenv("RETRY_BASE_DELAY", "250ms")
	t.Setenv("BREAKER_ENABLED", "false")
	t.Setenv("RATE_LIMIT_RPS", "2.5")
	t.Setenv("CORS_ORIGINS", "http://a.test, http://b.test,")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.APIBaseURL != "http://classifier:5000" || cfg.PageSize != 25 {
		t.Fatalf("unexpected overrides %+v", cfg)
	}
	if cfg.RetryMaxRetries != 5 || cfg.RetryBaseDelay != 250*time.Millisecond {
		t.Fatalf("unexpected retry overrides %d/%s", cfg.RetryMaxRetries, cfg.RetryBaseDelay)
	}
	if cfg.BreakerEnabled {
		t.Fatalf("expected breaker disabled")
	}
	if cfg.RateLimitRPS != 2.5 {
		t.Fatalf("expected rate limit 2.5, got %v", cfg.RateLimitRPS)
	}
	if !reflect.DeepEqual(cfg.CORSOrigins, []string{"http://a.test", "http://b.test"}) {
		t.Fatalf("unexpected cors origins %v", cfg.CORSOrigins)
	}
}

func TestLoadIgnoresMalformedEnvValues(t *testing.T) {
	t.Setenv(configPathEnv, "")
	t.Setenv("PAGE_SIZE", "ten")
	t.Setenv("RETRY_BASE_DELAY", "soon")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.PageSize != 10 || cfg.RetryBaseDelay != time.Second {
		t.Fatalf("expected defaults for malformed values, got %d/%s", cfg.PageSize, cfg.RetryBaseDelay)
	}
}

func TestLoadReadsYAMLFileBeforeEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "docclassify.yaml")
	raw := []byte("api_base_url: http://from-file:5000\npage_size: 20\nretry_base_delay: 2s\ndashboard_port: \"9999\"\n")
	if err := os.WriteFile(path, raw, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(configPathEnv, path)
	t.Setenv("API_BASE_URL", "")
	t.Setenv("PAGE_SIZE", "30")
	t.Setenv("RETRY_BASE_DELAY", "")
	t.Setenv("DASHBOARD_PORT", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.APIBaseURL != "http://from-file:5000" {
		t.Fatalf("expected base url from file, got %q", cfg.APIBaseURL)
	}
	if cfg.PageSize != 30 {
		t.Fatalf("expected env to override file page size, got %d", cfg.PageSize)
	}
	if cfg.RetryBaseDelay != 2*time.Second || cfg.DashboardPort != "9999" {
		t.Fatalf("unexpected file values %s/%s", cfg.RetryBaseDelay, cfg.DashboardPort)
	}
	if cfg.RetryMaxRetries != 3 {
		t.Fatalf("expected default for keys missing from file, got %d", cfg.RetryMaxRetries)
	}
}

func TestLoadFailsOnUnreadableFile(t *testing.T) {
	t.Setenv(configPathEnv, filepath.Join(t.TempDir(), "missing.yaml"))
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for missing config file")
	}
}
