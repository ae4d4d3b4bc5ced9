package handler_test

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/convoops/tagtrack/internal/domain"
	"github.com/convoops/tagtrack/internal/service"
)

func TestProcessScan_OK(t *testing.T) {
	var gotEPC string
	var gotStation domain.Station
	scans := &mockScanEngine{
		processScan: func(_ context.Context, epc string, station domain.Station, scannedBy, action, notes string) (service.ScanResult, error) {
			gotEPC, gotStation = epc, station
			return service.ScanResult{
				Tag:         domain.Tag{EPC: "118AEC1001", Status: domain.StatusScanned},
				TitoCheckin: &domain.TitoCheckin{Station: "Registration", Success: true},
			}, nil
		},
	}
	h := newTestHandler(deps{scans: scans})

	rec := doJSON(t, h, http.MethodPost, "/api/scan", map[string]any{
		"epc":        "118AEC1001",
		"station":    "Registration",
		"scanned_by": "ops1",
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "118AEC1001", gotEPC)
	assert.Equal(t, domain.StationRegistration, gotStation, "the raw station name is parsed before the engine sees it")

	body := decodeBody[service.ScanResult](t, rec)
	assert.Equal(t, domain.StatusScanned, body.Tag.Status)
	require.NotNil(t, body.TitoCheckin)
	assert.True(t, body.TitoCheckin.Success)
}

func TestProcessScan_InvalidJSON(t *testing.T) {
	h := newTestHandler(deps{})

	req, rec := rawRequest(t, http.MethodPost, "/api/scan", "{not json")
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeBody[errorBody](t, rec)
	assert.Equal(t, "bad_request", body.Error.Code)
}

func TestProcessScan_MissingFields(t *testing.T) {
	h := newTestHandler(deps{})

	rec := doJSON(t, h, http.MethodPost, "/api/scan", map[string]any{"epc": "118AEC1001"})

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	body := decodeBody[errorBody](t, rec)
	assert.Equal(t, "validation_error", body.Error.Code)
}

func TestProcessScan_UnknownStation(t *testing.T) {
	h := newTestHandler(deps{})

	rec := doJSON(t, h, http.MethodPost, "/api/scan", map[string]any{
		"epc":        "118AEC1001",
		"station":    "loading-dock",
		"scanned_by": "ops1",
	})

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	body := decodeBody[errorBody](t, rec)
	assert.Contains(t, body.Error.Message, "loading-dock")
}

func TestProcessScan_NotFoundStripsWrapPrefix(t *testing.T) {
	scans := &mockScanEngine{
		processScan: func(context.Context, string, domain.Station, string, string, string) (service.ScanResult, error) {
			return service.ScanResult{}, fmt.Errorf("service.ScanService.ProcessScan: tag 118AEC9999 not found, encode it first: %w", domain.ErrNotFound)
		},
	}
	h := newTestHandler(deps{scans: scans})

	rec := doJSON(t, h, http.MethodPost, "/api/scan", map[string]any{
		"epc":        "118AEC9999",
		"station":    "packing",
		"scanned_by": "ops1",
	})

	assert.Equal(t, http.StatusNotFound, rec.Code)
	body := decodeBody[errorBody](t, rec)
	assert.Equal(t, "not_found", body.Error.Code)
	assert.Equal(t, "tag 118AEC9999 not found, encode it first: not found", body.Error.Message,
		"internal wrap prefixes must not leak")
}

func TestProcessScan_InternalErrorsAreOpaque(t *testing.T) {
	scans := &mockScanEngine{
		processScan: func(context.Context, string, domain.Station, string, string, string) (service.ScanResult, error) {
			return service.ScanResult{}, fmt.Errorf("repo.airtableTagRepo.Update: connect: connection refused")
		},
	}
	h := newTestHandler(deps{scans: scans})

	rec := doJSON(t, h, http.MethodPost, "/api/scan", map[string]any{
		"epc":        "118AEC1001",
		"station":    "packing",
		"scanned_by": "ops1",
	})

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeBody[errorBody](t, rec)
	assert.Equal(t, "internal server error", body.Error.Message)
	assert.NotContains(t, rec.Body.String(), "connection refused")
}

func TestProcessBulkScan_OK(t *testing.T) {
	var gotEPCs []string
	scans := &mockScanEngine{
		processBulkScan: func(_ context.Context, epcs []string, station domain.Station, scannedBy, action, notes string) (service.BulkScanResult, error) {
			gotEPCs = epcs
			return service.BulkScanResult{
				Results: []service.BulkScanItem{
					{EPC: "118AEC1001", Success: true},
					{EPC: "118AEC1002", Error: "tag 118AEC1002 not found, encode it first: not found"},
				},
				Summary: service.BulkScanSummary{Total: 2, Successful: 1, Failed: 1},
			}, nil
		},
	}
	h := newTestHandler(deps{scans: scans})

	rec := doJSON(t, h, http.MethodPost, "/api/scan/bulk", map[string]any{
		"epcs":       []string{"118AEC1001", "118AEC1002"},
		"station":    "packing",
		"scanned_by": "ops1",
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"118AEC1001", "118AEC1002"}, gotEPCs)

	body := decodeBody[service.BulkScanResult](t, rec)
	assert.Equal(t, 2, body.Summary.Total)
	require.Len(t, body.Results, 2)
	assert.False(t, body.Results[1].Success)
}

func TestProcessBulkScan_EmptyEPCsRejected(t *testing.T) {
	h := newTestHandler(deps{})

	rec := doJSON(t, h, http.MethodPost, "/api/scan/bulk", map[string]any{
		"epcs":       []string{},
		"station":    "packing",
		"scanned_by": "ops1",
	})

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}
