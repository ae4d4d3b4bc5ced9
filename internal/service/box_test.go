package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/convoops/tagtrack/internal/domain"
	"github.com/convoops/tagtrack/internal/service"
)

func newBoxService(tags *memRepo) *service.BoxService {
	return service.NewBoxService(tags, noLog())
}

func TestAddItems_MergesAsSet(t *testing.T) {
	tags := newMemRepo(boxTag("BOX-001", "118AEC1001", "118AEC1002"))
	svc := newBoxService(tags)

	updated, err := svc.AddItems(context.Background(), "box-001", []string{"118aec1002", "118AEC1003"})

	require.NoError(t, err)
	assert.Equal(t, []string{"118AEC1001", "118AEC1002", "118AEC1003"}, updated.BoxContents,
		"overlapping items merge without duplicates, sorted")
}

func TestAddItems_NotABox(t *testing.T) {
	tags := newMemRepo(graduateTag("118AEC1001"))
	svc := newBoxService(tags)

	_, err := svc.AddItems(context.Background(), "118AEC1001", []string{"118AEC1002"})

	assert.ErrorIs(t, err, domain.ErrNotABox)
}

func TestAddItems_UnknownBox(t *testing.T) {
	svc := newBoxService(newMemRepo())

	_, err := svc.AddItems(context.Background(), "BOX-404", []string{"118AEC1001"})

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAddItems_RejectsMalformedItemEPC(t *testing.T) {
	tags := newMemRepo(boxTag("BOX-001"))
	svc := newBoxService(tags)

	_, err := svc.AddItems(context.Background(), "BOX-001", []string{"118AEC1001", "garbage"})

	assert.ErrorIs(t, err, domain.ErrValidation)
	box, getErr := tags.GetByEPC(context.Background(), "BOX-001")
	require.NoError(t, getErr)
	assert.Empty(t, box.BoxContents, "a rejected batch writes nothing")
}

func TestAddItems_BlankEntriesIgnored(t *testing.T) {
	tags := newMemRepo(boxTag("BOX-001"))
	svc := newBoxService(tags)

	updated, err := svc.AddItems(context.Background(), "BOX-001", []string{"  ", "118AEC1001", ""})

	require.NoError(t, err)
	assert.Equal(t, []string{"118AEC1001"}, updated.BoxContents)
}

func TestContents_ResolvesItems(t *testing.T) {
	tags := newMemRepo(
		boxTag("BOX-001", "118AEC1001", "118AEC1002"),
		graduateTag("118AEC1001"),
		graduateTag("118AEC1002"),
	)
	svc := newBoxService(tags)

	contents, err := svc.Contents(context.Background(), "BOX-001")

	require.NoError(t, err)
	assert.Equal(t, "BOX-001", contents.Box.EPC)
	require.Len(t, contents.Items, 2)
	assert.Equal(t, "118AEC1001", contents.Items[0].EPC)
}

func TestContents_SkipsUnresolvableItems(t *testing.T) {
	// The list names a tag that was since deleted from the store.
	tags := newMemRepo(
		boxTag("BOX-001", "118AEC1001", "118AEC9999"),
		graduateTag("118AEC1001"),
	)
	svc := newBoxService(tags)

	contents, err := svc.Contents(context.Background(), "BOX-001")

	require.NoError(t, err)
	require.Len(t, contents.Items, 1)
	assert.Equal(t, "118AEC1001", contents.Items[0].EPC)
}

func TestContents_NotABox(t *testing.T) {
	svc := newBoxService(newMemRepo(graduateTag("118AEC1001")))

	_, err := svc.Contents(context.Background(), "118AEC1001")

	assert.ErrorIs(t, err, domain.ErrNotABox)
}
