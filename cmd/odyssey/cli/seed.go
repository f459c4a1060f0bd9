package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/odyssey-erp/odyssey-iam/internal/permissions"
	"github.com/odyssey-erp/odyssey-iam/internal/roles"
	"github.com/odyssey-erp/odyssey-iam/internal/shared"
)

const seedPageSize = 100

// Seeder creates the core role and permission catalog. Names that already
// exist are left untouched, so running it twice is harmless.
type Seeder struct {
	roles       *roles.Service
	permissions *permissions.Service
}

// NewSeeder builds a Seeder on top of the entity services.
func NewSeeder(roleService *roles.Service, permissionService *permissions.Service) *Seeder {
	return &Seeder{roles: roleService, permissions: permissionService}
}

// Run seeds the catalog and reports each created entry to out.
func (s *Seeder) Run(ctx context.Context, out io.Writer) error {
	existing, err := collectNames(ctx, func(ctx context.Context, w shared.Window) ([]string, int, error) {
		items, total, err := s.permissions.List(ctx, w)
		names := make([]string, 0, len(items))
		for _, p := range items {
			names = append(names, p.Name)
		}
		return names, total, err
	})
	if err != nil {
		return fmt.Errorf("list permissions: %w", err)
	}
	for _, entry := range shared.CorePermissions() {
		if _, ok := existing[entry.Name]; ok {
			continue
		}
		p, err := s.permissions.Create(ctx, permissions.CreateInput{Name: entry.Name, Description: entry.Description})
		if err != nil {
			return fmt.Errorf("seed permission %s: %w", entry.Name, err)
		}
		fmt.Fprintf(out, "permission %s id=%d\n", p.Name, p.ID)
	}

	existing, err = collectNames(ctx, func(ctx context.Context, w shared.Window) ([]string, int, error) {
		items, total, err := s.roles.List(ctx, w)
		names := make([]string, 0, len(items))
		for _, r := range items {
			names = append(names, r.Name)
		}
		return names, total, err
	})
	if err != nil {
		return fmt.Errorf("list roles: %w", err)
	}
	for _, entry := range shared.CoreRoles() {
		if _, ok := existing[entry.Name]; ok {
			continue
		}
		r, err := s.roles.Create(ctx, roles.CreateInput{Name: entry.Name, Description: entry.Description})
		if err != nil {
			return fmt.Errorf("seed role %s: %w", entry.Name, err)
		}
		fmt.Fprintf(out, "role %s id=%d\n", r.Name, r.ID)
	}
	return nil
}

func collectNames(ctx context.Context, page func(context.Context, shared.Window) ([]string, int, error)) (map[string]struct{}, error) {
	names := make(map[string]struct{})
	for offset := 0; ; offset += seedPageSize {
		batch, total, err := page(ctx, shared.Window{Limit: seedPageSize, Offset: offset})
		if err != nil {
			return nil, err
		}
		for _, name := range batch {
			names[name] = struct{}{}
		}
		if len(batch) == 0 || offset+len(batch) >= total {
			return names, nil
		}
	}
}
