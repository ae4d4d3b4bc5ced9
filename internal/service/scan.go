// Package service implements the tag lifecycle engines: scan processing,
// box management, dispatch/handover workflows, dashboard aggregation, and
// station reconciliation.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/convoops/tagtrack/internal/domain"
	"github.com/convoops/tagtrack/internal/repo"
)

var (
	// Scan events partitioned by station and outcome.
	scansTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tag_scans_total",
			Help: "Scan events processed, partitioned by station and outcome",
		},
		[]string{"station", "outcome"},
	)

	// Ticketing check-in attempts partitioned by outcome.
	titoCheckinsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tito_checkins_total",
			Help: "Ticketing check-in attempts, partitioned by outcome",
		},
		[]string{"outcome"},
	)
)

// CheckinClient is the slice of the ticketing client the scan engine
// consumes. Defined here, in the consumer package, so tests can inject a
// fake without an HTTP server.
type CheckinClient interface {
	CheckinAtStation(ctx context.Context, ticketSlug, stationName string) domain.TitoCheckin
}

// ScanService is the state-machine core: it validates scans, derives the
// new tag status from the station, appends to the audit history, persists,
// and syncs graduate movements to the ticketing system.
type ScanService struct {
	tags   repo.TagRepo
	tito   CheckinClient
	logger *slog.Logger
}

// NewScanService constructs a ScanService backed by the provided repo and
// ticketing client.
func NewScanService(tags repo.TagRepo, tito CheckinClient, logger *slog.Logger) *ScanService {
	return &ScanService{tags: tags, tito: tito, logger: logger}
}

// ScanResult is the outcome of one processed scan. TitoCheckin is nil when
// no check-in was attempted (box tags, unmapped stations, or graduate tags
// without a ticket).
type ScanResult struct {
	Tag         domain.Tag          `json:"tag"`
	TitoCheckin *domain.TitoCheckin `json:"tito_checkin,omitempty"`
}

// ProcessScan records one scan event for the tag carrying epc.
//
// The status written is a pure function of the station, so rescanning at
// the same station is idempotent in effect but still appends a history
// entry. The record store update commits before any ticketing call; a
// failed check-in is reported on the result, never rolled back, because
// the physical movement happened regardless of the external API.
//
// Returns domain.ErrValidation for a malformed EPC, unknown station, or
// missing operator; domain.ErrNotFound when the tag was never encoded.
func (s *ScanService) ProcessScan(ctx context.Context, epc string, station domain.Station, scannedBy, action, notes string) (ScanResult, error) {
	epc = domain.NormalizeEPC(epc)
	if !domain.ValidEPC(epc) {
		return ScanResult{}, fmt.Errorf("%w: %q is not a valid EPC", domain.ErrValidation, epc)
	}
	if !station.Valid() {
		return ScanResult{}, fmt.Errorf("%w: unknown station %q", domain.ErrValidation, station)
	}
	if strings.TrimSpace(scannedBy) == "" {
		return ScanResult{}, fmt.Errorf("%w: scanned_by is required", domain.ErrValidation)
	}

	tag, err := s.tags.GetByEPC(ctx, epc)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			scansTotal.WithLabelValues(string(station), "not_found").Inc()
			return ScanResult{}, fmt.Errorf("service.ScanService.ProcessScan: tag %s not found, encode it first: %w", epc, domain.ErrNotFound)
		}
		return ScanResult{}, fmt.Errorf("service.ScanService.ProcessScan: %w", err)
	}

	if action == "" {
		action = "scan"
	}
	now := time.Now().UTC()
	newStatus := station.Status()
	entry := domain.ScanRecord{
		ID:        uuid.New(),
		Station:   station,
		Timestamp: now,
		ScannedBy: scannedBy,
		Action:    action,
		Notes:     notes,
	}

	// Status, station, last-scan fields, and the history append travel in
	// one update so the store never shows a status change without its
	// matching audit entry.
	upd := domain.TagUpdate{
		Status:          &newStatus,
		CurrentStation:  &station,
		LastScanAt:      &now,
		LastScanBy:      &scannedBy,
		LastScanStation: &station,
		ScanHistory:     append(tag.ScanHistory, entry),
	}
	updated, err := s.tags.Update(ctx, tag.ID, upd)
	if err != nil {
		scansTotal.WithLabelValues(string(station), "persist_error").Inc()
		return ScanResult{}, fmt.Errorf("service.ScanService.ProcessScan: persist scan for %s: %w", epc, err)
	}
	scansTotal.WithLabelValues(string(station), "ok").Inc()

	result := ScanResult{Tag: updated}

	// Graduate tags with a linked ticket sync to the ticketing system.
	// Box tags never do; their contained graduate EPCs sync when scanned
	// themselves.
	if updated.Type == domain.TagTypeGraduate && updated.TitoTicketSlug != "" {
		if stationName, ok := station.TitoStation(); ok {
			checkin := s.tito.CheckinAtStation(ctx, updated.TitoTicketSlug, stationName)
			if checkin.Success {
				titoCheckinsTotal.WithLabelValues("success").Inc()
			} else {
				titoCheckinsTotal.WithLabelValues("failure").Inc()
				s.logger.WarnContext(ctx, "tito check-in failed, scan committed anyway",
					"epc", epc, "station", station, "error", checkin.Error)
			}
			result.TitoCheckin = &checkin
		}
	}

	return result, nil
}

// BulkScanItem is the per-EPC outcome inside a bulk scan. Exactly one item
// is produced per input EPC, in input order.
type BulkScanItem struct {
	EPC         string              `json:"epc"`
	Success     bool                `json:"success"`
	Error       string              `json:"error,omitempty"`
	Tag         *domain.Tag         `json:"tag,omitempty"`
	TitoCheckin *domain.TitoCheckin `json:"tito_checkin,omitempty"`
}

// BulkScanSummary aggregates a bulk scan. TitoCheckins counts successful
// check-ins only.
type BulkScanSummary struct {
	Total        int `json:"total"`
	Successful   int `json:"successful"`
	Failed       int `json:"failed"`
	TitoCheckins int `json:"tito_checkins"`
}

// BulkScanResult is the full outcome of a bulk scan.
type BulkScanResult struct {
	Results []BulkScanItem  `json:"results"`
	Summary BulkScanSummary `json:"summary"`
}

// ProcessBulkScan records one scan per EPC at the same station.
//
// EPCs are processed strictly sequentially to stay under the record
// store's rate limit, and each outcome is independent: a missing tag
// fails its own slot without aborting the batch.
//
// Returns domain.ErrValidation only for batch-level problems (no EPCs,
// unknown station, missing operator); per-EPC failures live in Results.
func (s *ScanService) ProcessBulkScan(ctx context.Context, epcs []string, station domain.Station, scannedBy, action, notes string) (BulkScanResult, error) {
	if len(epcs) == 0 {
		return BulkScanResult{}, fmt.Errorf("%w: no EPCs provided", domain.ErrValidation)
	}
	if !station.Valid() {
		return BulkScanResult{}, fmt.Errorf("%w: unknown station %q", domain.ErrValidation, station)
	}
	if strings.TrimSpace(scannedBy) == "" {
		return BulkScanResult{}, fmt.Errorf("%w: scanned_by is required", domain.ErrValidation)
	}

	results := make([]BulkScanItem, 0, len(epcs))
	for _, epc := range epcs {
		item := BulkScanItem{EPC: domain.NormalizeEPC(epc)}
		res, err := s.ProcessScan(ctx, epc, station, scannedBy, action, notes)
		if err != nil {
			item.Error = err.Error()
		} else {
			item.Success = true
			tag := res.Tag
			item.Tag = &tag
			item.TitoCheckin = res.TitoCheckin
		}
		results = append(results, item)
	}

	summary := BulkScanSummary{Total: len(results)}
	for _, item := range results {
		if item.Success {
			summary.Successful++
		} else {
			summary.Failed++
		}
		if item.TitoCheckin != nil && item.TitoCheckin.Success {
			summary.TitoCheckins++
		}
	}
	return BulkScanResult{Results: results, Summary: summary}, nil
}
