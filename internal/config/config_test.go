package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/convoops/tagtrack/internal/config"
)

// setRequired fills every required variable so individual tests can unset
// just the ones under test.
func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("AIRTABLE_API_KEY", "key")
	t.Setenv("AIRTABLE_BASE_ID", "appBase")
	t.Setenv("TITO_API_TOKEN", "token")
	t.Setenv("TITO_ACCOUNT_SLUG", "uni")
	t.Setenv("TITO_EVENT_SLUG", "convocation-2026")
}

// TestLoad_defaults verifies that optional env vars fall back to their
// defaults when only the required variables are provided.
func TestLoad_defaults(t *testing.T) {
	setRequired(t)
	t.Setenv("PORT", "")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("CORS_ORIGINS", "")
	t.Setenv("AIRTABLE_TABLE", "")
	t.Setenv("CACHE_TTL", "")

	cfg, err := config.Load()

	require.NoError(t, err)
	require.Equal(t, "8080", cfg.Port)
	require.Equal(t, "info", cfg.LogLevel)
	require.Equal(t, []string{"http://localhost:5173"}, cfg.CORSOrigins)
	require.Equal(t, "Tags", cfg.AirtableTable)
	require.Equal(t, 2*time.Minute, cfg.CacheTTL)
}

// TestLoad_overrides verifies that all values can be overridden via env vars.
func TestLoad_overrides(t *testing.T) {
	setRequired(t)
	t.Setenv("PORT", "9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("CORS_ORIGINS", "https://scan.example.com, https://ops.example.com")
	t.Setenv("AIRTABLE_TABLE", "Certificates")
	t.Setenv("CACHE_TTL", "30s")

	cfg, err := config.Load()

	require.NoError(t, err)
	require.Equal(t, "9090", cfg.Port)
	require.Equal(t, "debug", cfg.LogLevel)
	require.Equal(t, []string{"https://scan.example.com", "https://ops.example.com"}, cfg.CORSOrigins)
	require.Equal(t, "Certificates", cfg.AirtableTable)
	require.Equal(t, 30*time.Second, cfg.CacheTTL)
}

// TestLoad_missingRequired verifies that the error names every missing
// variable at once, not just the first.
func TestLoad_missingRequired(t *testing.T) {
	t.Setenv("AIRTABLE_API_KEY", "")
	t.Setenv("AIRTABLE_BASE_ID", "")
	t.Setenv("TITO_API_TOKEN", "")
	t.Setenv("TITO_ACCOUNT_SLUG", "")
	t.Setenv("TITO_EVENT_SLUG", "")

	_, err := config.Load()

	require.Error(t, err)
	require.ErrorContains(t, err, "AIRTABLE_API_KEY")
	require.ErrorContains(t, err, "AIRTABLE_BASE_ID")
	require.ErrorContains(t, err, "TITO_API_TOKEN")
	require.ErrorContains(t, err, "TITO_ACCOUNT_SLUG")
	require.ErrorContains(t, err, "TITO_EVENT_SLUG")
}

// TestLoad_badCacheTTL verifies that a malformed duration is rejected
// rather than silently defaulted.
func TestLoad_badCacheTTL(t *testing.T) {
	setRequired(t)
	t.Setenv("CACHE_TTL", "two minutes")

	_, err := config.Load()

	require.Error(t, err)
	require.ErrorContains(t, err, "CACHE_TTL")
}
