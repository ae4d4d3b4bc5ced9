package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/convoops/tagtrack/internal/airtable"
	"github.com/convoops/tagtrack/internal/domain"
)

// Remote table column names. The store schema is flat; the two list-valued
// fields (Scan History, Box Contents) are stored as JSON-encoded strings.
const (
	fieldEPC               = "EPC"
	fieldType              = "Type"
	fieldConvocationNumber = "Convocation Number"
	fieldGraduateName      = "Graduate Name"
	fieldTitoTicketID      = "Tito Ticket ID"
	fieldTitoTicketSlug    = "Tito Ticket Slug"
	fieldBoxID             = "Box ID"
	fieldBoxLabel          = "Box Label"
	fieldBoxContents       = "Box Contents"
	fieldStatus            = "Status"
	fieldCurrentStation    = "Current Station"
	fieldEncodedAt         = "Encoded At"
	fieldEncodedBy         = "Encoded By"
	fieldLastScanAt        = "Last Scan At"
	fieldLastScanBy        = "Last Scan By"
	fieldLastScanStation   = "Last Scan Station"
	fieldScanHistory       = "Scan History"
)

// TagRepo defines the persistence operations for tags.
type TagRepo interface {
	// GetAll returns the full tag population keyed by EPC, served from the
	// snapshot cache when fresh. On refetch failure the last good snapshot
	// is served instead of the error.
	GetAll(ctx context.Context) (map[string]domain.Tag, error)

	// GetByEPC returns one tag. It tries the fresh cache first and falls
	// through to a live filtered query on a miss, so recently created tags
	// are never reported missing due to cache staleness.
	// Returns domain.ErrNotFound if no tag carries the EPC.
	GetByEPC(ctx context.Context, epc string) (domain.Tag, error)

	// Create inserts a tag after a duplicate-EPC check.
	// Returns domain.ErrDuplicateEPC without writing if the EPC exists.
	Create(ctx context.Context, tag domain.Tag) (domain.Tag, error)

	// Update applies a partial update to the record with the given store ID
	// and returns the updated tag.
	Update(ctx context.Context, id string, upd domain.TagUpdate) (domain.Tag, error)
}

// recordStore is the slice of the airtable client the repo consumes.
// Defined here, in the consumer package, so tests can inject a fake.
type recordStore interface {
	ListAll(ctx context.Context) ([]airtable.Record, error)
	FindByFormula(ctx context.Context, formula string) ([]airtable.Record, error)
	CreateRecord(ctx context.Context, fields map[string]any) (airtable.Record, error)
	UpdateRecord(ctx context.Context, id string, fields map[string]any) (airtable.Record, error)
}

// airtableTagRepo is the record-store-backed implementation of TagRepo.
type airtableTagRepo struct {
	store  recordStore
	cache  *Cache
	logger *slog.Logger
}

// NewTagRepo constructs a TagRepo backed by the provided record store and cache.
func NewTagRepo(store recordStore, cache *Cache, logger *slog.Logger) TagRepo {
	return &airtableTagRepo{store: store, cache: cache, logger: logger}
}

func (r *airtableTagRepo) GetAll(ctx context.Context) (map[string]domain.Tag, error) {
	if tags, ok := r.cache.Fresh(); ok {
		return tags, nil
	}

	recs, err := r.store.ListAll(ctx)
	if err != nil {
		if tags, ok := r.cache.Stale(); ok {
			r.logger.WarnContext(ctx, "record store refetch failed, serving stale snapshot",
				"tags", len(tags), "error", err)
			return tags, nil
		}
		return nil, fmt.Errorf("repo.TagRepo.GetAll: %w", err)
	}

	tags := make(map[string]domain.Tag, len(recs))
	for _, rec := range recs {
		tag := parseTag(rec)
		if tag.EPC == "" {
			continue // skip rows without an EPC, they are not tags
		}
		tags[tag.EPC] = tag
	}
	r.cache.Set(tags)
	return tags, nil
}

func (r *airtableTagRepo) GetByEPC(ctx context.Context, epc string) (domain.Tag, error) {
	epc = domain.NormalizeEPC(epc)

	if tags, ok := r.cache.Fresh(); ok {
		if tag, ok := tags[epc]; ok {
			return tag, nil
		}
	}

	// Cache miss or expired cache: query the store directly, bypassing the
	// cache, so a tag encoded seconds ago resolves immediately.
	recs, err := r.store.FindByFormula(ctx, epcFormula(epc))
	if err != nil {
		return domain.Tag{}, fmt.Errorf("repo.TagRepo.GetByEPC: %w", err)
	}
	if len(recs) == 0 {
		return domain.Tag{}, fmt.Errorf("repo.TagRepo.GetByEPC: %w", domain.ErrNotFound)
	}
	return parseTag(recs[0]), nil
}

func (r *airtableTagRepo) Create(ctx context.Context, tag domain.Tag) (domain.Tag, error) {
	tag.EPC = domain.NormalizeEPC(tag.EPC)

	// Lookup-then-create duplicate check. Not atomic against the remote
	// store; the accepted race is documented in DESIGN.md.
	_, err := r.GetByEPC(ctx, tag.EPC)
	if err == nil {
		return domain.Tag{}, fmt.Errorf("repo.TagRepo.Create: epc %s: %w", tag.EPC, domain.ErrDuplicateEPC)
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return domain.Tag{}, fmt.Errorf("repo.TagRepo.Create: duplicate check: %w", err)
	}

	rec, err := r.store.CreateRecord(ctx, createFields(tag))
	if err != nil {
		return domain.Tag{}, fmt.Errorf("repo.TagRepo.Create: %w", err)
	}
	r.cache.Invalidate()
	return parseTag(rec), nil
}

func (r *airtableTagRepo) Update(ctx context.Context, id string, upd domain.TagUpdate) (domain.Tag, error) {
	rec, err := r.store.UpdateRecord(ctx, id, updateFields(upd))
	if err != nil {
		return domain.Tag{}, fmt.Errorf("repo.TagRepo.Update: %w", err)
	}
	r.cache.Invalidate()
	return parseTag(rec), nil
}

// epcFormula builds the filter formula for an exact EPC match. EPCs are
// validated upstream, but quotes are stripped anyway so a hostile value
// cannot break out of the formula string.
func epcFormula(epc string) string {
	return fmt.Sprintf("{EPC} = '%s'", strings.ReplaceAll(epc, "'", ""))
}

// parseTag maps a raw store record into a domain.Tag.
// Malformed JSON in the Scan History and Box Contents fields parses to
// empty, never to an error: a corrupt audit string must not take a tag
// offline mid-event.
func parseTag(rec airtable.Record) domain.Tag {
	f := rec.Fields
	tag := domain.Tag{
		ID:                rec.ID,
		EPC:               domain.NormalizeEPC(strField(f, fieldEPC)),
		Type:              domain.TagType(strField(f, fieldType)),
		ConvocationNumber: strField(f, fieldConvocationNumber),
		GraduateName:      strField(f, fieldGraduateName),
		TitoTicketID:      strField(f, fieldTitoTicketID),
		TitoTicketSlug:    strField(f, fieldTitoTicketSlug),
		BoxID:             strField(f, fieldBoxID),
		BoxLabel:          strField(f, fieldBoxLabel),
		Status:            domain.TagStatus(strField(f, fieldStatus)),
		CurrentStation:    domain.Station(strField(f, fieldCurrentStation)),
		EncodedBy:         strField(f, fieldEncodedBy),
		LastScanBy:        strField(f, fieldLastScanBy),
		LastScanStation:   domain.Station(strField(f, fieldLastScanStation)),
		ScanHistory:       []domain.ScanRecord{},
	}
	if tag.Status == "" {
		tag.Status = domain.StatusEncoded
	}

	tag.EncodedAt = timeField(f, fieldEncodedAt)
	if ts := timeField(f, fieldLastScanAt); !ts.IsZero() {
		tag.LastScanAt = &ts
	}

	if raw := strField(f, fieldScanHistory); raw != "" {
		var history []domain.ScanRecord
		if err := json.Unmarshal([]byte(raw), &history); err == nil {
			tag.ScanHistory = history
		}
	}
	if raw := strField(f, fieldBoxContents); raw != "" {
		var contents []string
		if err := json.Unmarshal([]byte(raw), &contents); err == nil {
			tag.BoxContents = contents
		}
	}
	return tag
}

// createFields serializes a full tag for record creation.
func createFields(tag domain.Tag) map[string]any {
	f := map[string]any{
		fieldEPC:    tag.EPC,
		fieldType:   string(tag.Type),
		fieldStatus: string(tag.Status),
	}
	setIfNotEmpty(f, fieldConvocationNumber, tag.ConvocationNumber)
	setIfNotEmpty(f, fieldGraduateName, tag.GraduateName)
	setIfNotEmpty(f, fieldTitoTicketID, tag.TitoTicketID)
	setIfNotEmpty(f, fieldTitoTicketSlug, tag.TitoTicketSlug)
	setIfNotEmpty(f, fieldBoxID, tag.BoxID)
	setIfNotEmpty(f, fieldBoxLabel, tag.BoxLabel)
	setIfNotEmpty(f, fieldCurrentStation, string(tag.CurrentStation))
	setIfNotEmpty(f, fieldEncodedBy, tag.EncodedBy)
	if !tag.EncodedAt.IsZero() {
		f[fieldEncodedAt] = tag.EncodedAt.UTC().Format(time.RFC3339)
	}
	f[fieldScanHistory] = marshalJSONString(tag.ScanHistory)
	if tag.Type == domain.TagTypeBox {
		contents := tag.BoxContents
		if contents == nil {
			contents = []string{}
		}
		f[fieldBoxContents] = marshalJSONString(contents)
	}
	return f
}

// updateFields serializes only the fields a TagUpdate actually sets.
func updateFields(upd domain.TagUpdate) map[string]any {
	f := map[string]any{}
	if upd.Status != nil {
		f[fieldStatus] = string(*upd.Status)
	}
	if upd.CurrentStation != nil {
		f[fieldCurrentStation] = string(*upd.CurrentStation)
	}
	if upd.LastScanAt != nil {
		f[fieldLastScanAt] = upd.LastScanAt.UTC().Format(time.RFC3339)
	}
	if upd.LastScanBy != nil {
		f[fieldLastScanBy] = *upd.LastScanBy
	}
	if upd.LastScanStation != nil {
		f[fieldLastScanStation] = string(*upd.LastScanStation)
	}
	if upd.ScanHistory != nil {
		f[fieldScanHistory] = marshalJSONString(upd.ScanHistory)
	}
	if upd.BoxContents != nil {
		f[fieldBoxContents] = marshalJSONString(upd.BoxContents)
	}
	return f
}

func marshalJSONString(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "[]"
	}
	return string(b)
}

func strField(fields map[string]any, key string) string {
	if v, ok := fields[key].(string); ok {
		return v
	}
	return ""
}

func timeField(fields map[string]any, key string) time.Time {
	raw := strField(fields, key)
	if raw == "" {
		return time.Time{}
	}
	ts, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}
	}
	return ts
}

func setIfNotEmpty(fields map[string]any, key, value string) {
	if value != "" {
		fields[key] = value
	}
}
