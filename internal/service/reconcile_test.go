package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/convoops/tagtrack/internal/domain"
	"github.com/convoops/tagtrack/internal/service"
)

func TestReconcile_SplitsScannedAndMissing(t *testing.T) {
	at := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)

	scanned := graduateTag("118AEC1001")
	scanned.ScanHistory = []domain.ScanRecord{historyEntry(domain.StationPacking, at)}
	missing := graduateTag("118AEC1002")

	svc := service.NewReconciliationService(newMemRepo(scanned, missing))

	report, err := svc.Reconcile(context.Background(), domain.StationPacking)

	require.NoError(t, err)
	assert.Equal(t, domain.StationPacking, report.Station)
	assert.Equal(t, 2, report.TotalEncoded)
	assert.Equal(t, 1, report.ScannedAtStation)
	require.Len(t, report.Missing, 1)
	assert.Equal(t, "118AEC1002", report.Missing[0].EPC)
	assert.Equal(t, "A. Graduate", report.Missing[0].GraduateName)
}

func TestReconcile_PastStationsStayReconciled(t *testing.T) {
	// The tag moved through packing and on to registration. Reconciling
	// packing must still count it as present there.
	at := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	tag := graduateTag("118AEC1001")
	tag.CurrentStation = domain.StationRegistration
	tag.ScanHistory = []domain.ScanRecord{
		historyEntry(domain.StationPacking, at),
		historyEntry(domain.StationRegistration, at.Add(time.Hour)),
	}
	svc := service.NewReconciliationService(newMemRepo(tag))

	report, err := svc.Reconcile(context.Background(), domain.StationPacking)

	require.NoError(t, err)
	assert.Equal(t, 1, report.ScannedAtStation)
	assert.Empty(t, report.Missing)
}

func TestReconcile_VoidTagsExcluded(t *testing.T) {
	void := graduateTag("118AEC1001")
	void.Status = domain.StatusVoid
	svc := service.NewReconciliationService(newMemRepo(void, graduateTag("118AEC1002")))

	report, err := svc.Reconcile(context.Background(), domain.StationPacking)

	require.NoError(t, err)
	assert.Equal(t, 1, report.TotalEncoded, "void tags are out of the population")
	require.Len(t, report.Missing, 1)
	assert.Equal(t, "118AEC1002", report.Missing[0].EPC)
}

func TestReconcile_MissingSortedByEPC(t *testing.T) {
	svc := service.NewReconciliationService(newMemRepo(
		graduateTag("118AEC1003"),
		graduateTag("118AEC1001"),
		graduateTag("118AEC1002"),
	))

	report, err := svc.Reconcile(context.Background(), domain.StationRegistration)

	require.NoError(t, err)
	require.Len(t, report.Missing, 3)
	assert.Equal(t, "118AEC1001", report.Missing[0].EPC)
	assert.Equal(t, "118AEC1002", report.Missing[1].EPC)
	assert.Equal(t, "118AEC1003", report.Missing[2].EPC)
}

func TestReconcile_UnknownStation(t *testing.T) {
	svc := service.NewReconciliationService(newMemRepo())

	_, err := svc.Reconcile(context.Background(), domain.Station("loading-dock"))

	assert.ErrorIs(t, err, domain.ErrValidation)
}
