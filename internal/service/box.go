package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/convoops/tagtrack/internal/domain"
	"github.com/convoops/tagtrack/internal/repo"
)

// BoxService manages container tags: adding item EPCs to a box's content
// list and resolving the list back to full tag records.
type BoxService struct {
	tags   repo.TagRepo
	logger *slog.Logger
}

// NewBoxService constructs a BoxService backed by the provided repo.
func NewBoxService(tags repo.TagRepo, logger *slog.Logger) *BoxService {
	return &BoxService{tags: tags, logger: logger}
}

// AddItems merges itemEPCs into the box's content list with set semantics:
// EPCs are case-normalized and deduplicated, and the full resulting list is
// written back in one update rather than as a delta. That narrows, but does
// not remove, the concurrent-add race documented in DESIGN.md.
//
// Returns domain.ErrNotABox when the target EPC resolves to a non-box tag,
// domain.ErrValidation when any item EPC is malformed.
func (s *BoxService) AddItems(ctx context.Context, boxEPC string, itemEPCs []string) (domain.Tag, error) {
	boxEPC = domain.NormalizeEPC(boxEPC)
	box, err := s.tags.GetByEPC(ctx, boxEPC)
	if err != nil {
		return domain.Tag{}, fmt.Errorf("service.BoxService.AddItems: %w", err)
	}
	if box.Type != domain.TagTypeBox {
		return domain.Tag{}, fmt.Errorf("service.BoxService.AddItems: %s: %w", boxEPC, domain.ErrNotABox)
	}

	set := make(map[string]struct{}, len(box.BoxContents)+len(itemEPCs))
	for _, epc := range box.BoxContents {
		set[domain.NormalizeEPC(epc)] = struct{}{}
	}
	for _, epc := range itemEPCs {
		n := domain.NormalizeEPC(epc)
		if n == "" {
			continue
		}
		if !domain.ValidEPC(n) {
			return domain.Tag{}, fmt.Errorf("%w: %q is not a valid EPC", domain.ErrValidation, n)
		}
		set[n] = struct{}{}
	}

	merged := make([]string, 0, len(set))
	for epc := range set {
		merged = append(merged, epc)
	}
	sort.Strings(merged)

	updated, err := s.tags.Update(ctx, box.ID, domain.TagUpdate{BoxContents: merged})
	if err != nil {
		return domain.Tag{}, fmt.Errorf("service.BoxService.AddItems: persist contents for %s: %w", boxEPC, err)
	}
	return updated, nil
}

// BoxContents pairs a box tag with the resolved records of its items.
type BoxContents struct {
	Box   domain.Tag   `json:"box"`
	Items []domain.Tag `json:"items"`
}

// Contents resolves every content EPC of the box to a full tag record.
// Content EPCs that no longer resolve are skipped, not an error: the list
// describes intent, not a strict foreign key.
func (s *BoxService) Contents(ctx context.Context, boxEPC string) (BoxContents, error) {
	boxEPC = domain.NormalizeEPC(boxEPC)
	box, err := s.tags.GetByEPC(ctx, boxEPC)
	if err != nil {
		return BoxContents{}, fmt.Errorf("service.BoxService.Contents: %w", err)
	}
	if box.Type != domain.TagTypeBox {
		return BoxContents{}, fmt.Errorf("service.BoxService.Contents: %s: %w", boxEPC, domain.ErrNotABox)
	}

	items := []domain.Tag{}
	for _, epc := range box.BoxContents {
		item, err := s.tags.GetByEPC(ctx, epc)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				s.logger.DebugContext(ctx, "box content epc no longer resolves, skipping",
					"box", boxEPC, "epc", epc)
				continue
			}
			return BoxContents{}, fmt.Errorf("service.BoxService.Contents: resolve %s: %w", epc, err)
		}
		items = append(items, item)
	}
	return BoxContents{Box: box, Items: items}, nil
}
