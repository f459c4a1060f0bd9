package permissions

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"github.com/odyssey-erp/odyssey-iam/internal/shared"
)

// Repository defines data access methods for permissions.
type Repository interface {
	List(ctx context.Context, limit, offset int) ([]Permission, int, error)
	Get(ctx context.Context, id int64) (Permission, error)
	Create(ctx context.Context, in CreateInput) (Permission, error)
	Update(ctx context.Context, id int64, in UpdateInput) (Permission, error)
	Delete(ctx context.Context, id int64) error
	ExistingIDs(ctx context.Context, ids []int64) ([]int64, error)
}

// repository provides PostgreSQL backed persistence.
type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const permissionColumns = `id, name, description, created_at, updated_at`

// List returns one page of permissions ordered by id together with the total count.
func (r *repository) List(ctx context.Context, limit, offset int) ([]Permission, int, error) {
	var (
		total int
		items []Permission
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return r.pool.QueryRow(gctx, `SELECT COUNT(*) FROM permissions`).Scan(&total)
	})
	g.Go(func() error {
		rows, err := r.pool.Query(gctx, `SELECT `+permissionColumns+` FROM permissions ORDER BY id LIMIT $1 OFFSET $2`, limit, offset)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			permission, err := scanPermission(rows)
			if err != nil {
				return err
			}
			items = append(items, permission)
		}
		return rows.Err()
	})
	if err := g.Wait(); err != nil {
		return nil, 0, fmt.Errorf("list permissions: %w", err)
	}
	return items, total, nil
}

// Get fetches a permission by ID.
func (r *repository) Get(ctx context.Context, id int64) (Permission, error) {
	permission, err := scanPermission(r.pool.QueryRow(ctx, `SELECT `+permissionColumns+` FROM permissions WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Permission{}, shared.NotFound("Permission")
		}
		return Permission{}, fmt.Errorf("get permission: %w", err)
	}
	return permission, nil
}

// Create inserts a new permission.
func (r *repository) Create(ctx context.Context, in CreateInput) (Permission, error) {
	permission, err := scanPermission(r.pool.QueryRow(ctx,
		`INSERT INTO permissions (name, description) VALUES ($1, $2) RETURNING `+permissionColumns,
		in.Name, in.Description))
	if err != nil {
		return Permission{}, fmt.Errorf("create permission: %w", err)
	}
	return permission, nil
}

// Update applies the present fields of in and bumps updated_at.
func (r *repository) Update(ctx context.Context, id int64, in UpdateInput) (Permission, error) {
	permission, err := scanPermission(r.pool.QueryRow(ctx, `
		UPDATE permissions
		SET name = COALESCE($2, name),
		    description = COALESCE($3, description),
		    updated_at = NOW()
		WHERE id = $1
		RETURNING `+permissionColumns,
		id, in.Name, in.Description))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Permission{}, shared.NotFound("Permission")
		}
		return Permission{}, fmt.Errorf("update permission: %w", err)
	}
	return permission, nil
}

// Delete removes a permission by ID. User assignments cascade.
func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM permissions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete permission: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.NotFound("Permission")
	}
	return nil
}

// ExistingIDs returns the subset of ids that exist.
func (r *repository) ExistingIDs(ctx context.Context, ids []int64) ([]int64, error) {
	rows, err := r.pool.Query(ctx, `SELECT id FROM permissions WHERE id = ANY($1) ORDER BY id`, ids)
	if err != nil {
		return nil, fmt.Errorf("lookup permissions: %w", err)
	}
	found, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, fmt.Errorf("lookup permissions: %w", err)
	}
	return found, nil
}

func scanPermission(row pgx.Row) (Permission, error) {
	var permission Permission
	err := row.Scan(&permission.ID, &permission.Name, &permission.Description, &permission.CreatedAt, &permission.UpdatedAt)
	return permission, err
}
