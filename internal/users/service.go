package users

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/odyssey-erp/odyssey-iam/internal/shared"
)

const auditEntity = "user"

// Service handles user business logic including association management.
type Service struct {
	repo        Repository
	roles       shared.IDLookup
	permissions shared.IDLookup
	audit       shared.AuditPublisher
	validate    *validator.Validate
}

// NewService builds Service instance. roles and permissions verify
// association ids; audit may be nil.
func NewService(repo Repository, roles, permissions shared.IDLookup, audit shared.AuditPublisher) *Service {
	return &Service{
		repo:        repo,
		roles:       roles,
		permissions: permissions,
		audit:       audit,
		validate:    validator.New(),
	}
}

// List returns one page of users and the total count.
func (s *Service) List(ctx context.Context, window shared.Window) ([]User, int, error) {
	return s.repo.List(ctx, window.Limit, window.Offset)
}

// Get returns a user by id.
func (s *Service) Get(ctx context.Context, id int64) (User, error) {
	return s.repo.Get(ctx, id)
}

// Create validates the input, resolves associations, then persists the user
// and its assignments in one transaction.
func (s *Service) Create(ctx context.Context, in CreateInput) (User, error) {
	if err := s.validate.Struct(in); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return User{}, shared.MissingField(strings.ToLower(verrs[0].Field()), "username and email are required.")
		}
		return User{}, err
	}
	roles, permissions, err := s.resolve(ctx, in.Roles, in.Permissions)
	if err != nil {
		return User{}, err
	}

	isActive := true
	if in.IsActive != nil {
		isActive = *in.IsActive
	}

	var created User
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		user, err := tx.Create(ctx, User{Username: in.Username, Email: in.Email, IsActive: isActive})
		if err != nil {
			return err
		}
		created, err = s.assign(ctx, tx, user, roles, permissions)
		return err
	})
	if err != nil {
		return User{}, err
	}
	s.publish(ctx, "created", created.ID, map[string]any{
		"username":    created.Username,
		"roles":       created.Roles,
		"permissions": created.Permissions,
	})
	return created, nil
}

// Update applies a partial update. Associations are resolved before any
// write; scalars and assignments are then saved in one transaction.
func (s *Service) Update(ctx context.Context, id int64, in UpdateInput) (User, error) {
	if in.Username != nil && *in.Username == "" {
		return User{}, shared.MissingField("username", "username is required.")
	}
	if in.Email != nil && *in.Email == "" {
		return User{}, shared.MissingField("email", "email is required.")
	}
	roles, permissions, err := s.resolve(ctx, in.Roles, in.Permissions)
	if err != nil {
		return User{}, err
	}

	var updated User
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if in.Username != nil {
			current.Username = *in.Username
		}
		if in.Email != nil {
			current.Email = *in.Email
		}
		if in.IsActive != nil {
			current.IsActive = *in.IsActive
		}
		saved, err := tx.Update(ctx, current)
		if err != nil {
			return err
		}
		updated, err = s.assign(ctx, tx, saved, roles, permissions)
		return err
	})
	if err != nil {
		return User{}, err
	}
	s.publish(ctx, "updated", updated.ID, map[string]any{"fields": changedFields(in, roles, permissions)})
	return updated, nil
}

// Delete removes a user and its assignments.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.publish(ctx, "deleted", id, nil)
	return nil
}

func (s *Service) resolve(ctx context.Context, rawRoles, rawPermissions []byte) (shared.Relation, shared.Relation, error) {
	roles, err := shared.ResolveRelation(ctx, s.roles, rawRoles, "roles")
	if err != nil {
		return shared.Relation{}, shared.Relation{}, err
	}
	permissions, err := shared.ResolveRelation(ctx, s.permissions, rawPermissions, "permissions")
	if err != nil {
		return shared.Relation{}, shared.Relation{}, err
	}
	return roles, permissions, nil
}

// assign replaces the provided association sets and reloads the final ones.
func (s *Service) assign(ctx context.Context, tx TxRepository, user User, roles, permissions shared.Relation) (User, error) {
	if roles.Set {
		if err := tx.SetRoles(ctx, user.ID, roles.IDs); err != nil {
			return User{}, err
		}
	}
	if permissions.Set {
		if err := tx.SetPermissions(ctx, user.ID, permissions.IDs); err != nil {
			return User{}, err
		}
	}
	roleIDs, permissionIDs, err := tx.Associations(ctx, user.ID)
	if err != nil {
		return User{}, err
	}
	user.Roles = nonNil(roleIDs)
	user.Permissions = nonNil(permissionIDs)
	return user, nil
}

func (s *Service) publish(ctx context.Context, verb string, id int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	s.audit.Publish(ctx, shared.NewAuditEvent(auditEntity, verb, id, meta))
}

func changedFields(in UpdateInput, roles, permissions shared.Relation) []string {
	fields := make([]string, 0, 5)
	if in.Username != nil {
		fields = append(fields, "username")
	}
	if in.Email != nil {
		fields = append(fields, "email")
	}
	if in.IsActive != nil {
		fields = append(fields, "is_active")
	}
	if roles.Set {
		fields = append(fields, "roles")
	}
	if permissions.Set {
		fields = append(fields, "permissions")
	}
	return fields
}
