package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/convoops/tagtrack/internal/domain"
	"github.com/convoops/tagtrack/internal/repo"
)

// recentScanLimit caps the dashboard's live scan feed.
const recentScanLimit = 50

// DashboardService computes summary statistics over the full tag
// population. It is a pure read-side fold via the cache; no pagination,
// sized for hundreds to low thousands of tags.
type DashboardService struct {
	tags repo.TagRepo
}

// NewDashboardService constructs a DashboardService backed by the provided repo.
func NewDashboardService(tags repo.TagRepo) *DashboardService {
	return &DashboardService{tags: tags}
}

// Stats folds the whole population into counts by type, status, and
// station, the most recent scans across all tags, and a box summary.
// Every one of the 11 stations appears in ByStation, zero-filled when
// nothing was ever scanned there.
func (s *DashboardService) Stats(ctx context.Context) (domain.DashboardStats, error) {
	all, err := s.tags.GetAll(ctx)
	if err != nil {
		return domain.DashboardStats{}, fmt.Errorf("service.DashboardService.Stats: %w", err)
	}

	stats := domain.DashboardStats{
		ByType:      map[domain.TagType]int{},
		ByStatus:    map[domain.TagStatus]int{},
		ByStation:   map[domain.Station]int{},
		RecentScans: []domain.RecentScan{},
	}
	for _, station := range domain.AllStations() {
		stats.ByStation[station] = 0
	}

	var feed []domain.RecentScan
	for _, tag := range all {
		stats.TotalTags++
		stats.ByType[tag.Type]++
		stats.ByStatus[tag.Status]++
		if tag.CurrentStation.Valid() {
			stats.ByStation[tag.CurrentStation]++
		}

		for _, entry := range tag.ScanHistory {
			feed = append(feed, domain.RecentScan{
				EPC:          tag.EPC,
				TagType:      tag.Type,
				GraduateName: tag.GraduateName,
				Station:      entry.Station,
				Timestamp:    entry.Timestamp,
				ScannedBy:    entry.ScannedBy,
				Action:       entry.Action,
			})
		}

		if tag.Type == domain.TagTypeBox {
			stats.Boxes.TotalBoxes++
			stats.Boxes.ItemsInBoxes += len(tag.BoxContents)
		}
	}

	sort.Slice(feed, func(i, j int) bool {
		return feed[i].Timestamp.After(feed[j].Timestamp)
	})
	if len(feed) > recentScanLimit {
		feed = feed[:recentScanLimit]
	}
	if feed != nil {
		stats.RecentScans = feed
	}

	return stats, nil
}
