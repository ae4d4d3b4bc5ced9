package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/convoops/tagtrack/internal/domain"
	"github.com/convoops/tagtrack/internal/repo"
)

// TagService owns tag encoding and read-side lookups.
type TagService struct {
	tags   repo.TagRepo
	logger *slog.Logger
}

// NewTagService constructs a TagService backed by the provided repo.
func NewTagService(tags repo.TagRepo, logger *slog.Logger) *TagService {
	return &TagService{tags: tags, logger: logger}
}

// Encode creates a fresh tag record: status encoded, station encoding,
// empty scan history. A graduate tag without a resolvable ticket is
// persisted anyway; it just cannot sync check-ins until relinked. That is
// a warning, not a failure, because the certificate still needs tracking.
//
// Returns domain.ErrValidation for a malformed EPC or type mismatch,
// domain.ErrDuplicateEPC when the EPC is already encoded.
func (s *TagService) Encode(ctx context.Context, input domain.NewTag) (domain.Tag, error) {
	epc := domain.NormalizeEPC(input.EPC)
	if !domain.ValidEPC(epc) {
		return domain.Tag{}, fmt.Errorf("%w: %q is not a valid EPC", domain.ErrValidation, epc)
	}

	switch input.Type {
	case domain.TagTypeGraduate:
		if domain.IsBoxEPC(epc) {
			return domain.Tag{}, fmt.Errorf("%w: graduate tags cannot use a BOX- EPC", domain.ErrValidation)
		}
	case domain.TagTypeBox:
		if !domain.IsBoxEPC(epc) {
			return domain.Tag{}, fmt.Errorf("%w: box tags must use a BOX- EPC", domain.ErrValidation)
		}
	default:
		return domain.Tag{}, fmt.Errorf("%w: type must be graduate or box", domain.ErrValidation)
	}

	if input.Type == domain.TagTypeGraduate && input.TitoTicketSlug == "" {
		s.logger.WarnContext(ctx, "graduate tag encoded without a tito ticket, check-in sync disabled",
			"epc", epc, "convocation_number", input.ConvocationNumber)
	}

	tag := domain.Tag{
		EPC:               epc,
		Type:              input.Type,
		ConvocationNumber: input.ConvocationNumber,
		GraduateName:      input.GraduateName,
		TitoTicketID:      input.TitoTicketID,
		TitoTicketSlug:    input.TitoTicketSlug,
		BoxID:             input.BoxID,
		BoxLabel:          input.BoxLabel,
		Status:            domain.StatusEncoded,
		CurrentStation:    domain.StationEncoding,
		EncodedAt:         time.Now().UTC(),
		EncodedBy:         input.EncodedBy,
		ScanHistory:       []domain.ScanRecord{},
	}

	created, err := s.tags.Create(ctx, tag)
	if err != nil {
		return domain.Tag{}, fmt.Errorf("service.TagService.Encode: %w", err)
	}
	return created, nil
}

// Get returns the tag carrying epc.
// Returns domain.ErrNotFound when no tag carries it.
func (s *TagService) Get(ctx context.Context, epc string) (domain.Tag, error) {
	epc = domain.NormalizeEPC(epc)
	if !domain.ValidEPC(epc) {
		return domain.Tag{}, fmt.Errorf("%w: %q is not a valid EPC", domain.ErrValidation, epc)
	}
	tag, err := s.tags.GetByEPC(ctx, epc)
	if err != nil {
		return domain.Tag{}, fmt.Errorf("service.TagService.Get: %w", err)
	}
	return tag, nil
}

// List returns the full tag population ordered by EPC.
// Always returns a non-nil slice so callers can safely range over it.
func (s *TagService) List(ctx context.Context) ([]domain.Tag, error) {
	all, err := s.tags.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("service.TagService.List: %w", err)
	}
	tags := make([]domain.Tag, 0, len(all))
	for _, tag := range all {
		tags = append(tags, tag)
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i].EPC < tags[j].EPC })
	return tags, nil
}
