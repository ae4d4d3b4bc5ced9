package handler_test

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/convoops/tagtrack/internal/domain"
)

func TestEncodeTag_Created(t *testing.T) {
	var gotInput domain.NewTag
	tags := &mockTagServicer{
		encode: func(_ context.Context, input domain.NewTag) (domain.Tag, error) {
			gotInput = input
			return domain.Tag{ID: "rec1", EPC: "118AEC1001", Type: domain.TagTypeGraduate, Status: domain.StatusEncoded}, nil
		},
	}
	h := newTestHandler(deps{tags: tags})

	rec := doJSON(t, h, http.MethodPost, "/api/tags", map[string]any{
		"epc":                "118AEC1001",
		"type":               "graduate",
		"graduate_name":      "A. Graduate",
		"convocation_number": "118AEC1001",
		"tito_ticket_slug":   "ti_abc",
		"encoded_by":         "ops1",
	})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, domain.TagTypeGraduate, gotInput.Type)
	assert.Equal(t, "ti_abc", gotInput.TitoTicketSlug)

	body := decodeBody[domain.Tag](t, rec)
	assert.Equal(t, "rec1", body.ID)
}

func TestEncodeTag_DuplicateConflict(t *testing.T) {
	tags := &mockTagServicer{
		encode: func(context.Context, domain.NewTag) (domain.Tag, error) {
			return domain.Tag{}, fmt.Errorf("service.TagService.Encode: %w", domain.ErrDuplicateEPC)
		},
	}
	h := newTestHandler(deps{tags: tags})

	rec := doJSON(t, h, http.MethodPost, "/api/tags", map[string]any{
		"epc":        "118AEC1001",
		"type":       "graduate",
		"encoded_by": "ops1",
	})

	assert.Equal(t, http.StatusConflict, rec.Code)
	body := decodeBody[errorBody](t, rec)
	assert.Equal(t, "duplicate_epc", body.Error.Code)
}

func TestEncodeTag_RejectsUnknownType(t *testing.T) {
	h := newTestHandler(deps{})

	rec := doJSON(t, h, http.MethodPost, "/api/tags", map[string]any{
		"epc":        "118AEC1001",
		"type":       "pallet",
		"encoded_by": "ops1",
	})

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestGetTag_OK(t *testing.T) {
	tags := &mockTagServicer{
		get: func(_ context.Context, epc string) (domain.Tag, error) {
			assert.Equal(t, "118AEC1001", epc)
			return domain.Tag{ID: "rec1", EPC: "118AEC1001"}, nil
		},
	}
	h := newTestHandler(deps{tags: tags})

	rec := doJSON(t, h, http.MethodGet, "/api/tags/118AEC1001", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody[domain.Tag](t, rec)
	assert.Equal(t, "rec1", body.ID)
}

func TestGetTag_NotFound(t *testing.T) {
	tags := &mockTagServicer{
		get: func(context.Context, string) (domain.Tag, error) {
			return domain.Tag{}, fmt.Errorf("service.TagService.Get: %w", domain.ErrNotFound)
		},
	}
	h := newTestHandler(deps{tags: tags})

	rec := doJSON(t, h, http.MethodGet, "/api/tags/118AEC9999", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListTags_OK(t *testing.T) {
	tags := &mockTagServicer{
		list: func(context.Context) ([]domain.Tag, error) {
			return []domain.Tag{{EPC: "118AEC1001"}, {EPC: "BOX-001"}}, nil
		},
	}
	h := newTestHandler(deps{tags: tags})

	rec := doJSON(t, h, http.MethodGet, "/api/tags", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody[[]domain.Tag](t, rec)
	require.Len(t, body, 2)
	assert.Equal(t, "118AEC1001", body[0].EPC)
}
