package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/convoops/tagtrack/internal/domain"
	"github.com/convoops/tagtrack/internal/repo"
)

// ReconciliationService detects attrition: for a given station it computes
// which encoded tags have never been scanned there.
type ReconciliationService struct {
	tags repo.TagRepo
}

// NewReconciliationService constructs a ReconciliationService backed by the
// provided repo.
func NewReconciliationService(tags repo.TagRepo) *ReconciliationService {
	return &ReconciliationService{tags: tags}
}

// Reconcile compares the non-void tag population against the station's
// scan records. A tag counts as scanned when any entry in its full scan
// history names the station, so a tag that passed through and moved on is
// still reconciled for the earlier station. Missing tags are listed with
// enough context for manual follow-up, ordered by EPC.
//
// Returns domain.ErrValidation for an unknown station.
func (s *ReconciliationService) Reconcile(ctx context.Context, station domain.Station) (domain.ReconciliationReport, error) {
	if !station.Valid() {
		return domain.ReconciliationReport{}, fmt.Errorf("%w: unknown station %q", domain.ErrValidation, station)
	}

	all, err := s.tags.GetAll(ctx)
	if err != nil {
		return domain.ReconciliationReport{}, fmt.Errorf("service.ReconciliationService.Reconcile: %w", err)
	}

	report := domain.ReconciliationReport{
		Station: station,
		Missing: []domain.MissingTag{},
	}
	for _, tag := range all {
		if tag.Status == domain.StatusVoid {
			continue
		}
		report.TotalEncoded++

		if scannedAt(tag, station) {
			report.ScannedAtStation++
			continue
		}
		report.Missing = append(report.Missing, domain.MissingTag{
			EPC:               tag.EPC,
			Type:              tag.Type,
			GraduateName:      tag.GraduateName,
			ConvocationNumber: tag.ConvocationNumber,
			Status:            tag.Status,
			CurrentStation:    tag.CurrentStation,
		})
	}

	sort.Slice(report.Missing, func(i, j int) bool {
		return report.Missing[i].EPC < report.Missing[j].EPC
	})
	return report, nil
}

// scannedAt reports whether any history entry of the tag names the station.
func scannedAt(tag domain.Tag, station domain.Station) bool {
	for _, entry := range tag.ScanHistory {
		if entry.Station == station {
			return true
		}
	}
	return false
}
