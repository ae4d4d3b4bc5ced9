package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

// CheckinCall records one check-in request received by the fake ticketing API.
type CheckinCall struct {
	TicketSlug string
	ListName   string
}

// FakeTito is an in-memory stand-in for the ticketing system's check-in
// endpoint.
type FakeTito struct {
	mu       sync.Mutex
	srv      *httptest.Server
	checkins []CheckinCall

	// Fail makes every check-in request return 422.
	Fail bool
}

// NewFakeTito starts a fake ticketing API. The server is closed when the
// test finishes.
func NewFakeTito(t *testing.T) *FakeTito {
	t.Helper()
	f := &FakeTito{}
	f.srv = httptest.NewServer(http.HandlerFunc(f.handle))
	t.Cleanup(f.srv.Close)
	return f
}

// URL returns the base URL to hand to tito.Config.BaseURL.
func (f *FakeTito) URL() string {
	return f.srv.URL
}

// Checkins returns a copy of the recorded check-in calls in arrival order.
func (f *FakeTito) Checkins() []CheckinCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]CheckinCall, len(f.checkins))
	copy(out, f.checkins)
	return out
}

func (f *FakeTito) handle(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	var body struct {
		Checkin struct {
			TicketSlug string `json:"ticket_slug"`
			ListName   string `json:"list_name"`
		} `json:"checkin"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, `{"message":"invalid body"}`, http.StatusUnprocessableEntity)
		return
	}

	if f.Fail {
		http.Error(w, `{"message":"checkin list is closed"}`, http.StatusUnprocessableEntity)
		return
	}

	f.checkins = append(f.checkins, CheckinCall{
		TicketSlug: body.Checkin.TicketSlug,
		ListName:   body.Checkin.ListName,
	})
	writeJSON(w, http.StatusCreated, map[string]string{"id": "checkin-1"})
}
