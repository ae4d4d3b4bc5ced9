package service_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/convoops/tagtrack/internal/domain"
	"github.com/convoops/tagtrack/internal/service"
)

func historyEntry(station domain.Station, at time.Time) domain.ScanRecord {
	return domain.ScanRecord{Station: station, Timestamp: at, ScannedBy: "ops1", Action: "scan"}
}

func TestStats_CountsAndZeroFilledStations(t *testing.T) {
	scanned := graduateTag("118AEC1001")
	scanned.Status = domain.StatusScanned
	scanned.CurrentStation = domain.StationRegistration

	tags := newMemRepo(
		scanned,
		graduateTag("118AEC1002"),
		boxTag("BOX-001", "118AEC1001", "118AEC1002"),
	)
	svc := service.NewDashboardService(tags)

	stats, err := svc.Stats(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalTags)
	assert.Equal(t, 2, stats.ByType[domain.TagTypeGraduate])
	assert.Equal(t, 1, stats.ByType[domain.TagTypeBox])
	assert.Equal(t, 1, stats.ByStatus[domain.StatusScanned])
	assert.Equal(t, 2, stats.ByStatus[domain.StatusEncoded])

	require.Len(t, stats.ByStation, len(domain.AllStations()), "every station appears")
	assert.Equal(t, 1, stats.ByStation[domain.StationRegistration])
	assert.Zero(t, stats.ByStation[domain.StationGownIssue], "never-visited stations are zero, not absent")

	assert.Equal(t, 1, stats.Boxes.TotalBoxes)
	assert.Equal(t, 2, stats.Boxes.ItemsInBoxes)
}

func TestStats_RecentScansSortedNewestFirst(t *testing.T) {
	base := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)

	early := graduateTag("118AEC1001")
	early.ScanHistory = []domain.ScanRecord{historyEntry(domain.StationPacking, base)}
	late := graduateTag("118AEC1002")
	late.ScanHistory = []domain.ScanRecord{historyEntry(domain.StationRegistration, base.Add(time.Hour))}

	svc := service.NewDashboardService(newMemRepo(early, late))

	stats, err := svc.Stats(context.Background())

	require.NoError(t, err)
	require.Len(t, stats.RecentScans, 2)
	assert.Equal(t, "118AEC1002", stats.RecentScans[0].EPC, "newest entry leads the feed")
	assert.Equal(t, "118AEC1001", stats.RecentScans[1].EPC)
}

func TestStats_RecentScansCapped(t *testing.T) {
	base := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)

	// One tag with far more history than the feed shows.
	tag := graduateTag("118AEC1001")
	for i := 0; i < 75; i++ {
		tag.ScanHistory = append(tag.ScanHistory, historyEntry(domain.StationPacking, base.Add(time.Duration(i)*time.Minute)))
	}
	svc := service.NewDashboardService(newMemRepo(tag))

	stats, err := svc.Stats(context.Background())

	require.NoError(t, err)
	assert.Len(t, stats.RecentScans, 50)
}

func TestStats_EmptyPopulation(t *testing.T) {
	svc := service.NewDashboardService(newMemRepo())

	stats, err := svc.Stats(context.Background())

	require.NoError(t, err)
	assert.Zero(t, stats.TotalTags)
	assert.NotNil(t, stats.RecentScans, "feed is an empty slice, never nil")
	assert.Len(t, stats.ByStation, len(domain.AllStations()))
}

func TestStats_FeedAcrossManyTags(t *testing.T) {
	base := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	tags := make([]domain.Tag, 0, 5)
	for i := 0; i < 5; i++ {
		tag := graduateTag(fmt.Sprintf("118AEC100%d", i))
		tag.ScanHistory = []domain.ScanRecord{historyEntry(domain.StationPacking, base.Add(time.Duration(i)*time.Minute))}
		tags = append(tags, tag)
	}
	svc := service.NewDashboardService(newMemRepo(tags...))

	stats, err := svc.Stats(context.Background())

	require.NoError(t, err)
	require.Len(t, stats.RecentScans, 5)
	for i := 1; i < len(stats.RecentScans); i++ {
		assert.False(t, stats.RecentScans[i].Timestamp.After(stats.RecentScans[i-1].Timestamp),
			"feed must be monotonically non-increasing")
	}
}
