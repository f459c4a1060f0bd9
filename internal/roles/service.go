package roles

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"

	"github.com/odyssey-erp/odyssey-iam/internal/shared"
)

const auditEntity = "role"

// Service handles role business logic.
type Service struct {
	repo     Repository
	audit    shared.AuditPublisher
	validate *validator.Validate
}

// NewService builds Service instance. audit may be nil.
func NewService(repo Repository, audit shared.AuditPublisher) *Service {
	return &Service{repo: repo, audit: audit, validate: validator.New()}
}

// List returns one page of roles and the total count.
func (s *Service) List(ctx context.Context, window shared.Window) ([]Role, int, error) {
	return s.repo.List(ctx, window.Limit, window.Offset)
}

// Get returns a role by id.
func (s *Service) Get(ctx context.Context, id int64) (Role, error) {
	return s.repo.Get(ctx, id)
}

// Create validates and persists a new role.
func (s *Service) Create(ctx context.Context, in CreateInput) (Role, error) {
	if err := s.validate.Struct(in); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return Role{}, shared.MissingField("name", "name is required.")
		}
		return Role{}, err
	}
	role, err := s.repo.Create(ctx, in)
	if err != nil {
		return Role{}, err
	}
	s.publish(ctx, "created", role.ID, map[string]any{"name": role.Name})
	return role, nil
}

// Update applies a partial update to an existing role.
func (s *Service) Update(ctx context.Context, id int64, in UpdateInput) (Role, error) {
	if in.Name != nil && *in.Name == "" {
		return Role{}, shared.MissingField("name", "name is required.")
	}
	role, err := s.repo.Update(ctx, id, in)
	if err != nil {
		return Role{}, err
	}
	s.publish(ctx, "updated", role.ID, map[string]any{"fields": in.Changed()})
	return role, nil
}

// Delete removes a role.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.publish(ctx, "deleted", id, nil)
	return nil
}

// ExistingIDs lets the service act as the lookup for user role assignments.
func (s *Service) ExistingIDs(ctx context.Context, ids []int64) ([]int64, error) {
	return s.repo.ExistingIDs(ctx, ids)
}

func (s *Service) publish(ctx context.Context, verb string, id int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	s.audit.Publish(ctx, shared.NewAuditEvent(auditEntity, verb, id, meta))
}
