// Package config loads and validates application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Config holds all configuration values for the API server.
// Values are populated by Load from environment variables.
type Config struct {
	// Port is the TCP port the HTTP server listens on. Defaults to "8080".
	Port string

	// LogLevel controls the minimum log level. Defaults to "info".
	// Valid values: debug, info, warn, error.
	LogLevel string

	// LogFile, when set, routes logs to a size-rotated file instead of stdout.
	LogFile string

	// CORSOrigins is the list of allowed cross-origin request origins.
	// Defaults to ["http://localhost:5173"] (the station terminal dev server).
	// Set CORS_ORIGINS to a comma-separated list to override.
	CORSOrigins []string

	// CacheTTL bounds how long a tag snapshot is served without a refetch.
	// Defaults to 2m. Set CACHE_TTL to a Go duration string to override.
	CacheTTL time.Duration

	// AirtableAPIKey is the record store bearer token. Required.
	AirtableAPIKey string
	// AirtableBaseID identifies the record store base. Required.
	AirtableBaseID string
	// AirtableTable is the tag table name. Defaults to "Tags".
	AirtableTable string

	// TitoAPIToken is the ticketing system token. Required.
	TitoAPIToken string
	// TitoAccountSlug identifies the organizing account. Required.
	TitoAccountSlug string
	// TitoEventSlug identifies the event. Required.
	TitoEventSlug string
}

// Load reads configuration from environment variables and returns a Config.
// Returns an error listing every required variable that is not set, so an
// operator fixes them all in one pass.
func Load() (Config, error) {
	cfg := Config{
		Port:          getEnv("PORT", "8080"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		LogFile:       os.Getenv("LOG_FILE"),
		CORSOrigins:   splitCSV(getEnv("CORS_ORIGINS", "http://localhost:5173")),
		AirtableTable: getEnv("AIRTABLE_TABLE", "Tags"),
	}

	cfg.CacheTTL = 2 * time.Minute
	if raw := os.Getenv("CACHE_TTL"); raw != "" {
		ttl, err := time.ParseDuration(raw)
		if err != nil {
			return Config{}, fmt.Errorf("invalid CACHE_TTL %q: %w", raw, err)
		}
		cfg.CacheTTL = ttl
	}

	var missing []string
	for _, v := range []struct {
		name   string
		target *string
	}{
		{"AIRTABLE_API_KEY", &cfg.AirtableAPIKey},
		{"AIRTABLE_BASE_ID", &cfg.AirtableBaseID},
		{"TITO_API_TOKEN", &cfg.TitoAPIToken},
		{"TITO_ACCOUNT_SLUG", &cfg.TitoAccountSlug},
		{"TITO_EVENT_SLUG", &cfg.TitoEventSlug},
	} {
		*v.target = os.Getenv(v.name)
		if *v.target == "" {
			missing = append(missing, v.name)
		}
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("required environment variables not set: %s", strings.Join(missing, ", "))
	}

	return cfg, nil
}

// getEnv returns the value of the environment variable named by key,
// or fallback if the variable is not set or is empty.
func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// splitCSV splits a comma-separated string into a trimmed slice, ignoring empty entries.
func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if t := strings.TrimSpace(part); t != "" {
			out = append(out, t)
		}
	}
	return out
}
