package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const configPathEnv = "DOCCLASSIFY_CONFIG"

type Config struct {
	APIBaseURL string `yaml:"api_base_url"`
	LogLevel   string `yaml:"log_level"`

	PageSize int `yaml:"page_size"`

	RetryMaxRetries int           `yaml:"retry_max_retries"`
	RetryBaseDelay  time.Duration `yaml:"retry_base_delay"`
	HTTPTimeout     time.Duration `yaml:"http_timeout"`

	RateLimitRPS   float64 `yaml:"rate_limit_rps"`
	RateLimitBurst int     `yaml:"rate_limit_burst"`

	BreakerEnabled          bool          `yaml:"breaker_enabled"`
	BreakerMinRequests      int           `yaml:"breaker_min_requests"`
	BreakerFailureRatio     float64       `yaml:"breaker_failure_ratio"`
	BreakerOpenTimeout      time.Duration `yaml:"breaker_open_timeout"`
	BreakerHalfOpenMaxCalls int           `yaml:"breaker_half_open_max_calls"`

	DashboardPort       string   `yaml:"dashboard_port"`
	CORSOrigins         []string `yaml:"cors_origins"`
	NotificationHistory int      `yaml:"notification_history"`
}

func Default() Config {
	return Config{
		APIBaseURL: "http://localhost:5000",
		LogLevel:   "info",

		PageSize: 10,

		RetryMaxRetries: 3,
		RetryBaseDelay:  time.Second,
		HTTPTimeout:     0,

		RateLimitRPS:   10,
		RateLimitBurst: 5,

		BreakerEnabled:          true,
		BreakerMinRequests:      10,
		BreakerFailureRatio:     0.5,
		BreakerOpenTimeout:      30 * time.Second,
		BreakerHalfOpenMaxCalls: 2,

		DashboardPort:       "8090",
		CORSOrigins:         []string{"http://localhost:3000"},
		NotificationHistory: 20,
	}
}

// Load starts from defaults, applies the YAML file named by
// DOCCLASSIFY_CONFIG if set, then environment overrides.
func Load() (Config, error) {
	cfg := Default()

	if path := strings.TrimSpace(os.Getenv(configPathEnv)); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return Config{}, err
		}
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

func (c *Config) applyFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, c); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	c.APIBaseURL = mustEnv("API_BASE_URL", c.APIBaseURL)
	c.LogLevel = mustEnv("LOG_LEVEL", c.LogLevel)

	c.PageSize = mustEnvInt("PAGE_SIZE", c.PageSize)

	c.RetryMaxRetries = mustEnvInt("RETRY_MAX_RETRIES", c.RetryMaxRetries)
	c.RetryBaseDelay = mustEnvDuration("RETRY_BASE_DELAY", c.RetryBaseDelay)
	c.HTTPTimeout = mustEnvDuration("HTTP_TIMEOUT", c.HTTPTimeout)

	c.RateLimitRPS = mustEnvFloat("RATE_LIMIT_RPS", c.RateLimitRPS)
	c.RateLimitBurst = mustEnvInt("RATE_LIMIT_BURST", c.RateLimitBurst)

	c.BreakerEnabled = mustEnvBool("BREAKER_ENABLED", c.BreakerEnabled)
	c.BreakerMinRequests = mustEnvInt("BREAKER_MIN_REQUESTS", c.BreakerMinRequests)
	c.BreakerFailureRatio = mustEnvFloat("BREAKER_FAILURE_RATIO", c.BreakerFailureRatio)
	c.BreakerOpenTimeout = mustEnvDuration("BREAKER_OPEN_TIMEOUT", c.BreakerOpenTimeout)
	c.BreakerHalfOpenMaxCalls = mustEnvInt("BREAKER_HALF_OPEN_MAX_CALLS", c.BreakerHalfOpenMaxCalls)

	c.DashboardPort = mustEnv("DASHBOARD_PORT", c.DashboardPort)
	c.CORSOrigins = mustEnvList("CORS_ORIGINS", c.CORSOrigins)
	c.NotificationHistory = mustEnvInt("NOTIFICATION_HISTORY", c.NotificationHistory)
}

func mustEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func mustEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func mustEnvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func mustEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return parsed
}

func mustEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func mustEnvList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	out := make([]string, 0)
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
