package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	AppEnv             string
	Port               string
	RedisURL           string
	CORSAllowedOrigins []string
	PublicBaseURL      string
	DefaultRegion      string

	CatalogPath     string
	CheckoutBaseURL string

	LeadsRecipients       []string
	LeadsMailAPIURL       string
	LeadsFormSubmitURL    string
	LeadsNetlifyURL       string
	LeadsTransportTimeout time.Duration
	LeadsAsync            bool
	LeadsRateLimitMax     int
	LeadsRateLimitWindow  time.Duration
	IdempotencyTTL        time.Duration

	QuoteRateLimit string

	SecurityHeadersEnable bool
	SecurityHSTSEnable    bool
	SecurityHSTSMaxAge    int
	HTTPBodyLimitBytes    int64

	CircuitMinRequests  int
	CircuitFailureRatio float64
	CircuitOpenFor      time.Duration

	WorkerConcurrency int
	ShutdownTimeout   time.Duration
}

// Load reads configuration from environment variables and optional .env files.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := &Config{
		AppEnv:             valueOrDefault(k.String("APP_ENV"), "development"),
		Port:               valueOrDefault(k.String("PORT"), "8080"),
		RedisURL:           strings.TrimSpace(k.String("REDIS_URL")),
		CORSAllowedOrigins: splitAndTrim(k.String("CORS_ALLOWED_ORIGINS")),
		PublicBaseURL:      strings.TrimRight(strings.TrimSpace(k.String("PUBLIC_BASE_URL")), "/"),
		DefaultRegion:      strings.ToUpper(valueOrDefault(k.String("DEFAULT_REGION"), "UK")),

		CatalogPath:     strings.TrimSpace(k.String("CATALOG_PATH")),
		CheckoutBaseURL: strings.TrimSpace(k.String("CHECKOUT_BASE_URL")),

		LeadsRecipients:       splitAndTrim(k.String("LEADS_RECIPIENTS")),
		LeadsMailAPIURL:       strings.TrimSpace(k.String("LEADS_MAIL_API_URL")),
		LeadsFormSubmitURL:    strings.TrimSpace(k.String("LEADS_FORMSUBMIT_URL")),
		LeadsNetlifyURL:       strings.TrimSpace(k.String("LEADS_NETLIFY_URL")),
		LeadsTransportTimeout: parseDuration(k.String("LEADS_TRANSPORT_TIMEOUT"), "10s"),
		LeadsAsync:            parseBool(k.String("LEADS_ASYNC"), false),
		LeadsRateLimitMax:     parseInt(k.String("LEADS_RATE_LIMIT_MAX"), 5),
		LeadsRateLimitWindow:  parseDuration(k.String("LEADS_RATE_LIMIT_WINDOW"), "1m"),
		IdempotencyTTL:        parseDuration(k.String("IDEMPOTENCY_TTL"), "10m"),

		QuoteRateLimit: valueOrDefault(k.String("QUOTE_RATE_LIMIT"), "120-M"),

		SecurityHeadersEnable: parseBool(k.String("SECURITY_HEADERS_ENABLE"), true),
		SecurityHSTSEnable:    parseBool(k.String("SECURITY_HSTS_ENABLE"), false),
		SecurityHSTSMaxAge:    parseInt(k.String("SECURITY_HSTS_MAX_AGE"), 31536000),
		HTTPBodyLimitBytes:    int64(parseInt(k.String("HTTP_BODY_LIMIT_BYTES"), 65536)),

		CircuitMinRequests:  parseInt(k.String("CIRCUIT_MIN_REQUESTS"), 5),
		CircuitFailureRatio: parseFloat(k.String("CIRCUIT_FAILURE_RATIO"), 0.5),
		CircuitOpenFor:      parseDuration(k.String("CIRCUIT_OPEN_FOR"), "30s"),

		WorkerConcurrency: parseInt(k.String("WORKER_CONCURRENCY"), 4),
		ShutdownTimeout:   parseDuration(k.String("SHUTDOWN_TIMEOUT"), "15s"),
	}

	switch cfg.DefaultRegion {
	case "UK", "US", "EU":
	default:
		return nil, fmt.Errorf("DEFAULT_REGION must be UK, US or EU, got %q", cfg.DefaultRegion)
	}
	if cfg.LeadsAsync && cfg.RedisURL == "" {
		return nil, errors.New("LEADS_ASYNC requires REDIS_URL")
	}
	if cfg.CircuitFailureRatio <= 0 || cfg.CircuitFailureRatio > 1 {
		return nil, fmt.Errorf("CIRCUIT_FAILURE_RATIO must be in (0, 1], got %v", cfg.CircuitFailureRatio)
	}
	if cfg.WorkerConcurrency <= 0 {
		cfg.WorkerConcurrency = 1
	}

	return cfg, nil
}

// HTTPAddr returns the address the HTTP server should bind to.
func (c *Config) HTTPAddr() string {
	port := strings.TrimSpace(c.Port)
	if port == "" {
		port = "8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}

// RedisEnabled reports whether Redis-backed features should be wired.
func (c *Config) RedisEnabled() bool {
	return c.RedisURL != ""
}

// IsProduction reports whether the app runs with production defaults.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.AppEnv, "production")
}

func splitAndTrim(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func valueOrDefault(value, fallback string) string {
	if strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return fallback
}

func parseDuration(value, fallback string) time.Duration {
	base := strings.TrimSpace(value)
	if base == "" {
		base = fallback
	}
	d, err := time.ParseDuration(base)
	if err != nil {
		d, _ = time.ParseDuration(fallback)
	}
	return d
}

func parseBool(value string, fallback bool) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func parseInt(value string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}

func parseFloat(value string, fallback float64) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return fallback
	}
	return f
}

// MustLoad behaves like Load but panics on error. Useful for tests and command entrypoints.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// LoadForTests allows tests to override environment variables without touching the real environment.
func LoadForTests(env map[string]string) (*Config, error) {
	original := make(map[string]string, len(env))
	for key := range env {
		original[key] = os.Getenv(key)
		if err := setEnvVar(key, env[key]); err != nil {
			return nil, err
		}
	}
	cfg, err := Load()
	restoreErr := restoreEnv(original)
	if err != nil {
		return nil, err
	}
	return cfg, restoreErr
}

func setEnvVar(key, value string) error {
	if value == "" {
		return os.Unsetenv(key)
	}
	return os.Setenv(key, value)
}

func restoreEnv(values map[string]string) error {
	var errs []string
	for key, value := range values {
		if err := setEnvVar(key, value); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", key, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("restore env: %s", strings.Join(errs, "; "))
	}
	return nil
}
