// Package testutil provides in-memory fakes of the two external
// collaborators (the Airtable-style record store and the Tito-style
// ticketing API) served over httptest, so client and repo tests can run
// real HTTP round-trips without network access or credentials.
package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// epcFormula matches the only filter shape the repo emits: {EPC} = 'X'.
var epcFormula = regexp.MustCompile(`^\{EPC\} = '([^']*)'$`)

// FakeStore is an in-memory stand-in for the remote record table.
// It honors the subset of the API the engine uses: paginated list,
// filterByFormula lookup, create, and partial update.
type FakeStore struct {
	mu      sync.Mutex
	srv     *httptest.Server
	order   []string
	records map[string]map[string]any

	// FailList makes list requests return 500, for exercising the
	// stale-snapshot fallback.
	FailList bool

	// Status429Count makes the next N requests return 429, for exercising
	// client retry.
	Status429Count int
}

// NewFakeStore starts a fake record store. The server is closed when the
// test finishes.
func NewFakeStore(t *testing.T) *FakeStore {
	t.Helper()
	f := &FakeStore{records: map[string]map[string]any{}}
	f.srv = httptest.NewServer(http.HandlerFunc(f.handle))
	t.Cleanup(f.srv.Close)
	return f
}

// URL returns the base URL to hand to airtable.Config.BaseURL.
func (f *FakeStore) URL() string {
	return f.srv.URL
}

// Seed inserts a record directly and returns its store-assigned ID.
func (f *FakeStore) Seed(fields map[string]any) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.insert(fields)
}

// Record returns a copy of the stored fields for id, or nil.
func (f *FakeStore) Record(id string) map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	fields, ok := f.records[id]
	if !ok {
		return nil
	}
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		out[k] = v
	}
	return out
}

// Len returns the number of stored records.
func (f *FakeStore) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.order)
}

// insert assumes f.mu is held.
func (f *FakeStore) insert(fields map[string]any) string {
	id := "rec" + gonanoid.MustGenerate("0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ", 14)
	f.records[id] = fields
	f.order = append(f.order, id)
	return id
}

type storeRecord struct {
	ID          string         `json:"id"`
	Fields      map[string]any `json:"fields"`
	CreatedTime time.Time      `json:"createdTime"`
}

func (f *FakeStore) handle(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.Status429Count > 0 {
		f.Status429Count--
		http.Error(w, `{"error":"RATE_LIMIT_REACHED"}`, http.StatusTooManyRequests)
		return
	}

	// Path is /{base}/{table} or /{base}/{table}/{id}.
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(parts) < 2 {
		http.NotFound(w, r)
		return
	}

	switch {
	case r.Method == http.MethodGet && len(parts) == 2:
		f.handleList(w, r)
	case r.Method == http.MethodPost && len(parts) == 2:
		f.handleCreate(w, r)
	case r.Method == http.MethodPatch && len(parts) == 3:
		f.handleUpdate(w, r, parts[2])
	default:
		http.NotFound(w, r)
	}
}

func (f *FakeStore) handleList(w http.ResponseWriter, r *http.Request) {
	if f.FailList {
		http.Error(w, `{"error":"INTERNAL_SERVER_ERROR"}`, http.StatusInternalServerError)
		return
	}

	ids := f.order
	if formula := r.URL.Query().Get("filterByFormula"); formula != "" {
		m := epcFormula.FindStringSubmatch(formula)
		if m == nil {
			http.Error(w, `{"error":"INVALID_FILTER_BY_FORMULA"}`, http.StatusUnprocessableEntity)
			return
		}
		ids = nil
		for _, id := range f.order {
			if f.records[id]["EPC"] == m[1] {
				ids = append(ids, id)
			}
		}
	}

	pageSize := 100
	if raw := r.URL.Query().Get("pageSize"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			pageSize = n
		}
	}
	start := 0
	if raw := r.URL.Query().Get("offset"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			start = n
		}
	}

	end := start + pageSize
	if end > len(ids) {
		end = len(ids)
	}
	resp := struct {
		Records []storeRecord `json:"records"`
		Offset  string        `json:"offset,omitempty"`
	}{Records: []storeRecord{}}
	for _, id := range ids[start:end] {
		resp.Records = append(resp.Records, storeRecord{ID: id, Fields: f.records[id], CreatedTime: time.Now().UTC()})
	}
	if end < len(ids) {
		resp.Offset = strconv.Itoa(end)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (f *FakeStore) handleCreate(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Fields map[string]any `json:"fields"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, `{"error":"INVALID_REQUEST_BODY"}`, http.StatusUnprocessableEntity)
		return
	}
	id := f.insert(body.Fields)
	writeJSON(w, http.StatusOK, storeRecord{ID: id, Fields: body.Fields, CreatedTime: time.Now().UTC()})
}

func (f *FakeStore) handleUpdate(w http.ResponseWriter, r *http.Request, id string) {
	fields, ok := f.records[id]
	if !ok {
		http.Error(w, `{"error":"NOT_FOUND"}`, http.StatusNotFound)
		return
	}
	var body struct {
		Fields map[string]any `json:"fields"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, `{"error":"INVALID_REQUEST_BODY"}`, http.StatusUnprocessableEntity)
		return
	}
	for k, v := range body.Fields {
		fields[k] = v
	}
	writeJSON(w, http.StatusOK, storeRecord{ID: id, Fields: fields, CreatedTime: time.Now().UTC()})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
