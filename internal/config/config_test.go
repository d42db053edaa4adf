package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func blankEnv() map[string]string {
	return map[string]string{
		"APP_ENV":                 "",
		"PORT":                    "",
		"REDIS_URL":               "",
		"DEFAULT_REGION":          "",
		"LEADS_RECIPIENTS":        "",
		"LEADS_ASYNC":             "",
		"LEADS_TRANSPORT_TIMEOUT": "",
		"QUOTE_RATE_LIMIT":        "",
		"CIRCUIT_FAILURE_RATIO":   "",
		"SECURITY_HEADERS_ENABLE": "",
		"WORKER_CONCURRENCY":      "",
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := LoadForTests(blankEnv())
	require.NoError(t, err)
	require.Equal(t, "development", cfg.AppEnv)
	require.Equal(t, ":8080", cfg.HTTPAddr())
	require.False(t, cfg.RedisEnabled())
	require.Equal(t, "UK", cfg.DefaultRegion)
	require.Equal(t, 10*time.Second, cfg.LeadsTransportTimeout)
	require.Equal(t, 5, cfg.LeadsRateLimitMax)
	require.Equal(t, time.Minute, cfg.LeadsRateLimitWindow)
	require.Equal(t, 10*time.Minute, cfg.IdempotencyTTL)
	require.Equal(t, "120-M", cfg.QuoteRateLimit)
	require.True(t, cfg.SecurityHeadersEnable)
	require.Equal(t, int64(65536), cfg.HTTPBodyLimitBytes)
	require.Equal(t, 0.5, cfg.CircuitFailureRatio)
	require.Equal(t, 4, cfg.WorkerConcurrency)
}

func TestLoadOverrides(t *testing.T) {
	env := blankEnv()
	env["PORT"] = ":9090"
	env["REDIS_URL"] = "redis://localhost:6379/0"
	env["DEFAULT_REGION"] = "us"
	env["LEADS_RECIPIENTS"] = "a@example.com, b@example.com ,"
	env["LEADS_ASYNC"] = "true"
	env["LEADS_TRANSPORT_TIMEOUT"] = "bogus"
	env["SECURITY_HEADERS_ENABLE"] = "off"

	cfg, err := LoadForTests(env)
	require.NoError(t, err)
	require.Equal(t, ":9090", cfg.HTTPAddr())
	require.True(t, cfg.RedisEnabled())
	require.Equal(t, "US", cfg.DefaultRegion)
	require.Equal(t, []string{"a@example.com", "b@example.com"}, cfg.LeadsRecipients)
	require.True(t, cfg.LeadsAsync)
	require.Equal(t, 10*time.Second, cfg.LeadsTransportTimeout)
	require.False(t, cfg.SecurityHeadersEnable)
}

func TestLoadRejectsInvalidSettings(t *testing.T) {
	env := blankEnv()
	env["DEFAULT_REGION"] = "FR"
	_, err := LoadForTests(env)
	require.Error(t, err)

	env = blankEnv()
	env["LEADS_ASYNC"] = "1"
	_, err = LoadForTests(env)
	require.ErrorContains(t, err, "REDIS_URL")

	env = blankEnv()
	env["CIRCUIT_FAILURE_RATIO"] = "1.5"
	_, err = LoadForTests(env)
	require.Error(t, err)
}
