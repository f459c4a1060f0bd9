package audit

import (
	"context"

	"github.com/odyssey-erp/odyssey-iam/internal/shared"
)

// Service exposes the audit timeline.
type Service struct {
	repo Repository
}

// NewService constructs the audit service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Timeline returns the filtered audit trail page.
func (s *Service) Timeline(ctx context.Context, filters TimelineFilters, window shared.Window) ([]Entry, int, error) {
	if !filters.From.IsZero() && !filters.To.IsZero() && !filters.From.Before(filters.To) {
		return nil, 0, shared.InvalidParameter("from", "from must be before to.")
	}
	return s.repo.Timeline(ctx, filters, window.Limit, window.Offset)
}
