// Package memstore provides a thread-safe in-memory implementation of the
// role, permission and user repositories. It backs STORE_DRIVER=memory and
// the HTTP tests.
package memstore

import (
	"context"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/odyssey-erp/odyssey-iam/internal/permissions"
	"github.com/odyssey-erp/odyssey-iam/internal/roles"
	"github.com/odyssey-erp/odyssey-iam/internal/users"
)

// Compile-time interface checks.
var (
	_ roles.Repository       = (*roleRepository)(nil)
	_ permissions.Repository = (*permissionRepository)(nil)
	_ users.Repository       = (*userRepository)(nil)
	_ users.TxRepository     = (*userTx)(nil)
)

// Store holds every entity behind one lock.
type Store struct {
	mu    sync.RWMutex
	clock func() time.Time

	nextRole       int64
	nextPermission int64
	nextUser       int64

	roles       map[int64]roles.Role
	permissions map[int64]permissions.Permission
	users       map[int64]users.User
}

// New creates an empty store.
func New() *Store {
	return &Store{
		clock: func() time.Time {
			return time.Now().UTC()
		},
		roles:       make(map[int64]roles.Role),
		permissions: make(map[int64]permissions.Permission),
		users:       make(map[int64]users.User),
	}
}

// Ping is a no-op for the memory store.
func (s *Store) Ping(_ context.Context) error { return nil }

// Roles returns the role repository view of the store.
func (s *Store) Roles() roles.Repository { return &roleRepository{s: s} }

// Permissions returns the permission repository view of the store.
func (s *Store) Permissions() permissions.Repository { return &permissionRepository{s: s} }

// Users returns the user repository view of the store.
func (s *Store) Users() users.Repository { return &userRepository{s: s} }

// page returns the items of m ordered by id within [offset, offset+limit).
func page[T any](m map[int64]T, limit, offset int) ([]T, int) {
	ids := slices.Sorted(maps.Keys(m))
	total := len(ids)
	if offset >= total {
		return []T{}, total
	}
	end := total
	if limit < total-offset {
		end = offset + limit
	}
	out := make([]T, 0, end-offset)
	for _, id := range ids[offset:end] {
		out = append(out, m[id])
	}
	return out, total
}

func existing[T any](m map[int64]T, ids []int64) []int64 {
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := m[id]; ok {
			out = append(out, id)
		}
	}
	return out
}
