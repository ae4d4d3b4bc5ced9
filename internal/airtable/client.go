// Package airtable is a thin HTTP client for the remote tag-record table.
// It owns the transport concerns the engine must not care about: per-call
// timeouts, the store's rate limit, and retry with exponential backoff on
// transient failures.
package airtable

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"
	"golang.org/x/time/rate"
)

// defaultBaseURL is the production Airtable API endpoint. Tests point the
// client at an httptest server instead.
const defaultBaseURL = "https://api.airtable.com/v0"

// Config holds the credentials and table coordinates for the record store.
type Config struct {
	// APIKey is the bearer token. Required.
	APIKey string
	// BaseID identifies the Airtable base. Required.
	BaseID string
	// Table is the tag table name. Defaults to "Tags".
	Table string
	// BaseURL overrides the API endpoint; used by tests.
	BaseURL string
}

// Client performs CRUD against one remote table.
// All calls block on a shared token-bucket limiter so the process as a
// whole stays under the store's documented 5 requests/second ceiling.
type Client struct {
	baseURL    string
	apiKey     string
	table      string
	baseID     string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *slog.Logger

	// Retry tuning, overridden in tests to keep them fast.
	retryBase  time.Duration
	maxRetries uint64
}

// Record is one raw row from the remote table. Fields is the store's flat
// name-to-value dictionary; the repo layer owns the mapping to domain.Tag.
type Record struct {
	ID          string         `json:"id"`
	Fields      map[string]any `json:"fields"`
	CreatedTime time.Time      `json:"createdTime"`
}

// StoreError is a non-2xx response from the record store, preserving the
// status and body for the caller's logs.
type StoreError struct {
	Status int
	Body   string
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("record store returned %d: %s", e.Status, e.Body)
}

// NewClient validates the configuration and builds a client.
// Missing credentials are a configuration error, fatal at wiring time
// rather than on the first request.
func NewClient(cfg Config, logger *slog.Logger) (*Client, error) {
	var missing []string
	if cfg.APIKey == "" {
		missing = append(missing, "api key")
	}
	if cfg.BaseID == "" {
		missing = append(missing, "base id")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("airtable.NewClient: missing configuration: %s", strings.Join(missing, ", "))
	}
	if cfg.Table == "" {
		cfg.Table = "Tags"
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		baseID:  cfg.BaseID,
		table:   cfg.Table,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		// 5 rps with a small burst matches the store's documented limit.
		limiter:    rate.NewLimiter(rate.Limit(5), 5),
		logger:     logger,
		retryBase:  250 * time.Millisecond,
		maxRetries: 3,
	}, nil
}

// listResponse is the paginated table-scan envelope. Offset is present
// while more pages remain.
type listResponse struct {
	Records []Record `json:"records"`
	Offset  string   `json:"offset,omitempty"`
}

// ListAll scans the entire table, following offset tokens until the store
// stops returning one.
func (c *Client) ListAll(ctx context.Context) ([]Record, error) {
	var all []Record
	offset := ""
	for {
		q := url.Values{}
		q.Set("pageSize", "100")
		if offset != "" {
			q.Set("offset", offset)
		}
		var page listResponse
		if err := c.do(ctx, http.MethodGet, c.tableURL()+"?"+q.Encode(), nil, &page); err != nil {
			return nil, fmt.Errorf("airtable.Client.ListAll: %w", err)
		}
		all = append(all, page.Records...)
		if page.Offset == "" {
			return all, nil
		}
		offset = page.Offset
	}
}

// FindByFormula returns the records matching an Airtable filter formula,
// e.g. {EPC} = '118AEC1001'. Single page only; callers use it for
// single/few-record lookups.
func (c *Client) FindByFormula(ctx context.Context, formula string) ([]Record, error) {
	q := url.Values{}
	q.Set("filterByFormula", formula)
	var page listResponse
	if err := c.do(ctx, http.MethodGet, c.tableURL()+"?"+q.Encode(), nil, &page); err != nil {
		return nil, fmt.Errorf("airtable.Client.FindByFormula: %w", err)
	}
	return page.Records, nil
}

// CreateRecord inserts one row and returns it with the store-assigned ID.
func (c *Client) CreateRecord(ctx context.Context, fields map[string]any) (Record, error) {
	payload := map[string]any{"fields": fields}
	var rec Record
	if err := c.do(ctx, http.MethodPost, c.tableURL(), payload, &rec); err != nil {
		return Record{}, fmt.Errorf("airtable.Client.CreateRecord: %w", err)
	}
	return rec, nil
}

// UpdateRecord applies a partial field update to an existing row.
func (c *Client) UpdateRecord(ctx context.Context, id string, fields map[string]any) (Record, error) {
	payload := map[string]any{"fields": fields}
	var rec Record
	if err := c.do(ctx, http.MethodPatch, c.tableURL()+"/"+id, payload, &rec); err != nil {
		return Record{}, fmt.Errorf("airtable.Client.UpdateRecord: %w", err)
	}
	return rec, nil
}

func (c *Client) tableURL() string {
	return c.baseURL + "/" + c.baseID + "/" + url.PathEscape(c.table)
}

// do issues one JSON request with rate limiting and bounded exponential
// backoff. Rate-limit (429) and server (5xx) responses are retried; other
// non-2xx responses surface immediately as a *StoreError.
func (c *Client) do(ctx context.Context, method, rawURL string, payload, out any) error {
	var body []byte
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = b
	}

	backoff := retry.WithMaxRetries(c.maxRetries, retry.NewExponential(c.retryBase))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}

		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			// Transport failures are transient by assumption.
			return retry.RetryableError(fmt.Errorf("record store request: %w", err))
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			storeErr := &StoreError{Status: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
			if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
				c.logger.WarnContext(ctx, "record store transient failure, retrying",
					"method", method, "status", resp.StatusCode)
				return retry.RetryableError(storeErr)
			}
			return storeErr
		}

		if out == nil {
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
		return nil
	})
}
