// Package tito is a thin HTTP client for the external ticketing system.
// The engine consumes exactly one operation: checking a ticket in at a
// named station. Check-in failures are reported as data, never as errors;
// the internal movement record is authoritative over the external sync.
package tito

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/convoops/tagtrack/internal/domain"
)

const defaultBaseURL = "https://api.tito.io/v3"

// Config holds the ticketing system credentials.
type Config struct {
	// APIToken is the bearer token. Required.
	APIToken string
	// AccountSlug identifies the organizing account. Required.
	AccountSlug string
	// EventSlug identifies the event. Required.
	EventSlug string
	// BaseURL overrides the API endpoint; used by tests.
	BaseURL string
}

// Client triggers check-in state changes for tickets.
type Client struct {
	baseURL    string
	apiToken   string
	account    string
	event      string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient validates the configuration and builds a client.
func NewClient(cfg Config, logger *slog.Logger) (*Client, error) {
	var missing []string
	if cfg.APIToken == "" {
		missing = append(missing, "api token")
	}
	if cfg.AccountSlug == "" {
		missing = append(missing, "account slug")
	}
	if cfg.EventSlug == "" {
		missing = append(missing, "event slug")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("tito.NewClient: missing configuration: %s", strings.Join(missing, ", "))
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	return &Client{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		apiToken: cfg.APIToken,
		account:  cfg.AccountSlug,
		event:    cfg.EventSlug,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		logger: logger,
	}, nil
}

// CheckinAtStation marks the ticket as checked in at the named station.
// It deliberately returns a result value rather than an error: callers
// attach the outcome to an otherwise-successful scan and move on.
func (c *Client) CheckinAtStation(ctx context.Context, ticketSlug, stationName string) domain.TitoCheckin {
	result := domain.TitoCheckin{Station: stationName}

	payload := map[string]any{
		"checkin": map[string]any{
			"ticket_slug": ticketSlug,
			"list_name":   stationName,
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		result.Error = err.Error()
		return result
	}

	url := fmt.Sprintf("%s/%s/%s/checkins", c.baseURL, c.account, c.event)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		result.Error = err.Error()
		return result
	}
	req.Header.Set("Authorization", "Token token="+c.apiToken)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.WarnContext(ctx, "tito check-in request failed",
			"ticket", ticketSlug, "station", stationName, "error", err)
		result.Error = err.Error()
		return result
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		c.logger.WarnContext(ctx, "tito check-in rejected",
			"ticket", ticketSlug, "station", stationName, "status", resp.StatusCode)
		result.Error = fmt.Sprintf("tito returned %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
		return result
	}

	result.Success = true
	return result
}
