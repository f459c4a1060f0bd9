package memstore

import (
	"context"
	"fmt"
	"maps"
	"slices"

	"github.com/odyssey-erp/odyssey-iam/internal/shared"
	"github.com/odyssey-erp/odyssey-iam/internal/users"
)

type userRepository struct {
	s *Store
}

func (r *userRepository) List(_ context.Context, limit, offset int) ([]users.User, int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	items, total := page(r.s.users, limit, offset)
	return items, total, nil
}

func (r *userRepository) Get(_ context.Context, id int64) (users.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.s.user(id)
}

func (r *userRepository) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[id]; !ok {
		return shared.NotFound("User")
	}
	delete(r.s.users, id)
	return nil
}

// WithTx holds the write lock for the whole callback and restores the user
// table when fn fails.
func (r *userRepository) WithTx(ctx context.Context, fn func(context.Context, users.TxRepository) error) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	snapshot := maps.Clone(r.s.users)
	next := r.s.nextUser
	if err := fn(ctx, &userTx{s: r.s}); err != nil {
		r.s.users = snapshot
		r.s.nextUser = next
		return err
	}
	return nil
}

// userTx runs with Store.mu already held.
type userTx struct {
	s *Store
}

func (t *userTx) Create(_ context.Context, u users.User) (users.User, error) {
	t.s.nextUser++
	now := t.s.clock()
	u.ID = t.s.nextUser
	u.Roles = []int64{}
	u.Permissions = []int64{}
	u.CreatedAt = now
	u.UpdatedAt = now
	t.s.users[u.ID] = u
	return u, nil
}

func (t *userTx) GetForUpdate(_ context.Context, id int64) (users.User, error) {
	return t.s.user(id)
}

func (t *userTx) Update(_ context.Context, u users.User) (users.User, error) {
	current, ok := t.s.users[u.ID]
	if !ok {
		return users.User{}, shared.NotFound("User")
	}
	current.Username = u.Username
	current.Email = u.Email
	current.IsActive = u.IsActive
	current.UpdatedAt = t.s.clock()
	t.s.users[u.ID] = current
	return current, nil
}

func (t *userTx) SetRoles(_ context.Context, userID int64, roleIDs []int64) error {
	if len(existing(t.s.roles, roleIDs)) != len(roleIDs) {
		return shared.InvalidRelation("roles", "Invalid roles IDs.")
	}
	return t.set(userID, func(u *users.User) { u.Roles = shared.Dedupe(roleIDs) })
}

func (t *userTx) SetPermissions(_ context.Context, userID int64, permissionIDs []int64) error {
	if len(existing(t.s.permissions, permissionIDs)) != len(permissionIDs) {
		return shared.InvalidRelation("permissions", "Invalid permissions IDs.")
	}
	return t.set(userID, func(u *users.User) { u.Permissions = shared.Dedupe(permissionIDs) })
}

func (t *userTx) set(userID int64, apply func(*users.User)) error {
	u, ok := t.s.users[userID]
	if !ok {
		return fmt.Errorf("assign to user %d: %w", userID, shared.ErrNotFound)
	}
	apply(&u)
	t.s.users[userID] = u
	return nil
}

func (t *userTx) Associations(_ context.Context, userID int64) ([]int64, []int64, error) {
	u, err := t.s.user(userID)
	if err != nil {
		return nil, nil, err
	}
	return u.Roles, u.Permissions, nil
}

// user returns a copy of the stored user; callers hold the lock.
func (s *Store) user(id int64) (users.User, error) {
	u, ok := s.users[id]
	if !ok {
		return users.User{}, shared.NotFound("User")
	}
	u.Roles = slices.Clone(u.Roles)
	u.Permissions = slices.Clone(u.Permissions)
	return u, nil
}

// detach drops a deleted role (or permission) id from every user.
func (s *Store) detach(id int64, role bool) {
	for userID, u := range s.users {
		if role {
			u.Roles = slices.DeleteFunc(slices.Clone(u.Roles), func(v int64) bool { return v == id })
		} else {
			u.Permissions = slices.DeleteFunc(slices.Clone(u.Permissions), func(v int64) bool { return v == id })
		}
		s.users[userID] = u
	}
}
