package memstore

import (
	"context"

	"github.com/odyssey-erp/odyssey-iam/internal/permissions"
	"github.com/odyssey-erp/odyssey-iam/internal/roles"
	"github.com/odyssey-erp/odyssey-iam/internal/shared"
)

type roleRepository struct {
	s *Store
}

func (r *roleRepository) List(_ context.Context, limit, offset int) ([]roles.Role, int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	items, total := page(r.s.roles, limit, offset)
	return items, total, nil
}

func (r *roleRepository) Get(_ context.Context, id int64) (roles.Role, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	role, ok := r.s.roles[id]
	if !ok {
		return roles.Role{}, shared.NotFound("Role")
	}
	return role, nil
}

func (r *roleRepository) Create(_ context.Context, in roles.CreateInput) (roles.Role, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.nextRole++
	now := r.s.clock()
	role := roles.Role{ID: r.s.nextRole, Name: in.Name, Description: in.Description, CreatedAt: now, UpdatedAt: now}
	r.s.roles[role.ID] = role
	return role, nil
}

func (r *roleRepository) Update(_ context.Context, id int64, in roles.UpdateInput) (roles.Role, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	role, ok := r.s.roles[id]
	if !ok {
		return roles.Role{}, shared.NotFound("Role")
	}
	if in.Name != nil {
		role.Name = *in.Name
	}
	if in.Description != nil {
		role.Description = *in.Description
	}
	role.UpdatedAt = r.s.clock()
	r.s.roles[id] = role
	return role, nil
}

// Delete removes the role and drops it from every user, like ON DELETE CASCADE.
func (r *roleRepository) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.roles[id]; !ok {
		return shared.NotFound("Role")
	}
	delete(r.s.roles, id)
	r.s.detach(id, true)
	return nil
}

func (r *roleRepository) ExistingIDs(_ context.Context, ids []int64) ([]int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return existing(r.s.roles, ids), nil
}

type permissionRepository struct {
	s *Store
}

func (r *permissionRepository) List(_ context.Context, limit, offset int) ([]permissions.Permission, int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	items, total := page(r.s.permissions, limit, offset)
	return items, total, nil
}

func (r *permissionRepository) Get(_ context.Context, id int64) (permissions.Permission, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	perm, ok := r.s.permissions[id]
	if !ok {
		return permissions.Permission{}, shared.NotFound("Permission")
	}
	return perm, nil
}

func (r *permissionRepository) Create(_ context.Context, in permissions.CreateInput) (permissions.Permission, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.nextPermission++
	now := r.s.clock()
	perm := permissions.Permission{ID: r.s.nextPermission, Name: in.Name, Description: in.Description, CreatedAt: now, UpdatedAt: now}
	r.s.permissions[perm.ID] = perm
	return perm, nil
}

func (r *permissionRepository) Update(_ context.Context, id int64, in permissions.UpdateInput) (permissions.Permission, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	perm, ok := r.s.permissions[id]
	if !ok {
		return permissions.Permission{}, shared.NotFound("Permission")
	}
	if in.Name != nil {
		perm.Name = *in.Name
	}
	if in.Description != nil {
		perm.Description = *in.Description
	}
	perm.UpdatedAt = r.s.clock()
	r.s.permissions[id] = perm
	return perm, nil
}

func (r *permissionRepository) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.permissions[id]; !ok {
		return shared.NotFound("Permission")
	}
	delete(r.s.permissions, id)
	r.s.detach(id, false)
	return nil
}

func (r *permissionRepository) ExistingIDs(_ context.Context, ids []int64) ([]int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return existing(r.s.permissions, ids), nil
}
