package permissions

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"

	"github.com/odyssey-erp/odyssey-iam/internal/shared"
)

const auditEntity = "permission"

// Service handles permission business logic.
type Service struct {
	repo     Repository
	audit    shared.AuditPublisher
	validate *validator.Validate
}

// NewService builds Service instance. audit may be nil.
func NewService(repo Repository, audit shared.AuditPublisher) *Service {
	return &Service{repo: repo, audit: audit, validate: validator.New()}
}

// List returns one page of permissions and the total count.
func (s *Service) List(ctx context.Context, window shared.Window) ([]Permission, int, error) {
	return s.repo.List(ctx, window.Limit, window.Offset)
}

// Get returns a permission by id.
func (s *Service) Get(ctx context.Context, id int64) (Permission, error) {
	return s.repo.Get(ctx, id)
}

// Create validates and persists a new permission.
func (s *Service) Create(ctx context.Context, in CreateInput) (Permission, error) {
	if err := s.validate.Struct(in); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return Permission{}, shared.MissingField("name", "name is required.")
		}
		return Permission{}, err
	}
	permission, err := s.repo.Create(ctx, in)
	if err != nil {
		return Permission{}, err
	}
	s.publish(ctx, "created", permission.ID, map[string]any{"name": permission.Name})
	return permission, nil
}

// Update applies a partial update to an existing permission.
func (s *Service) Update(ctx context.Context, id int64, in UpdateInput) (Permission, error) {
	if in.Name != nil && *in.Name == "" {
		return Permission{}, shared.MissingField("name", "name is required.")
	}
	permission, err := s.repo.Update(ctx, id, in)
	if err != nil {
		return Permission{}, err
	}
	s.publish(ctx, "updated", permission.ID, map[string]any{"fields": in.Changed()})
	return permission, nil
}

// Delete removes a permission.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.publish(ctx, "deleted", id, nil)
	return nil
}

// ExistingIDs implements shared.IDLookup for direct user grants.
func (s *Service) ExistingIDs(ctx context.Context, ids []int64) ([]int64, error) {
	return s.repo.ExistingIDs(ctx, ids)
}

func (s *Service) publish(ctx context.Context, verb string, id int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	s.audit.Publish(ctx, shared.NewAuditEvent(auditEntity, verb, id, meta))
}
