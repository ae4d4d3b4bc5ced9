package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/convoops/tagtrack/internal/domain"
)

// DispatchService wraps the scan engine for the two terminal workflows:
// shipping dispatch and manual handover. Both are forced-station bulk
// scans; they exist so terminal operators cannot pick the wrong station.
type DispatchService struct {
	scans *ScanService
}

// NewDispatchService constructs a DispatchService on top of the scan engine.
func NewDispatchService(scans *ScanService) *DispatchService {
	return &DispatchService{scans: scans}
}

// DispatchResult is the coarse outcome both terminal workflows return.
// Callers needing per-tag ticketing outcomes inspect Results directly.
type DispatchResult struct {
	Successful int            `json:"successful"`
	Failed     int            `json:"failed"`
	Results    []BulkScanItem `json:"results"`
}

// ProcessDispatch scans every EPC at final-dispatch, marking the tags
// dispatched. There is no structured column for shipping metadata; the
// tracking number and method ride in the scan's notes text, appended to
// any caller-supplied notes.
func (s *DispatchService) ProcessDispatch(ctx context.Context, epcs []string, dispatchedBy, trackingNumber, dispatchMethod, notes string) (DispatchResult, error) {
	var parts []string
	if trackingNumber != "" {
		parts = append(parts, "Tracking: "+trackingNumber)
	}
	if dispatchMethod != "" {
		parts = append(parts, "Method: "+dispatchMethod)
	}
	if notes != "" {
		parts = append(parts, notes)
	}

	bulk, err := s.scans.ProcessBulkScan(ctx, epcs, domain.StationFinalDispatch, dispatchedBy, "dispatch", strings.Join(parts, "; "))
	if err != nil {
		return DispatchResult{}, fmt.Errorf("service.DispatchService.ProcessDispatch: %w", err)
	}
	return DispatchResult{
		Successful: bulk.Summary.Successful,
		Failed:     bulk.Summary.Failed,
		Results:    bulk.Results,
	}, nil
}

// ProcessHandover scans every EPC at handover, marking the tags delivered.
// The recipient's name rides in the scan's action text.
//
// Returns domain.ErrValidation when no recipient is named.
func (s *DispatchService) ProcessHandover(ctx context.Context, epcs []string, handoverBy, handoverTo, notes string) (DispatchResult, error) {
	handoverTo = strings.TrimSpace(handoverTo)
	if handoverTo == "" {
		return DispatchResult{}, fmt.Errorf("%w: handover recipient is required", domain.ErrValidation)
	}

	bulk, err := s.scans.ProcessBulkScan(ctx, epcs, domain.StationHandover, handoverBy, "Handed over to "+handoverTo, notes)
	if err != nil {
		return DispatchResult{}, fmt.Errorf("service.DispatchService.ProcessHandover: %w", err)
	}
	return DispatchResult{
		Successful: bulk.Summary.Successful,
		Failed:     bulk.Summary.Failed,
		Results:    bulk.Results,
	}, nil
}
