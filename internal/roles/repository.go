package roles

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"github.com/odyssey-erp/odyssey-iam/internal/shared"
)

// Repository defines data access methods for roles.
type Repository interface {
	List(ctx context.Context, limit, offset int) ([]Role, int, error)
	Get(ctx context.Context, id int64) (Role, error)
	Create(ctx context.Context, in CreateInput) (Role, error)
	Update(ctx context.Context, id int64, in UpdateInput) (Role, error)
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

const roleColumns = `id, name, description, created_at, updated_at`

// List returns one page of roles ordered by id together with the total count.
func (r *repository) List(ctx context.Context, limit, offset int) ([]Role, int, error) {
	var (
		total int
		items []Role
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return r.pool.QueryRow(gctx, `SELECT COUNT(*) FROM roles`).Scan(&total)
	})
	g.Go(func() error {
		rows, err := r.pool.Query(gctx, `SELECT `+roleColumns+` FROM roles ORDER BY id LIMIT $1 OFFSET $2`, limit, offset)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			role, err := scanRole(rows)
			if err != nil {
				return err
			}
			items = append(items, role)
		}
		return rows.Err()
	})
	if err := g.Wait(); err != nil {
		return nil, 0, fmt.Errorf("list roles: %w", err)
	}
	return items, total, nil
}

// Get fetches a role by ID.
func (r *repository) Get(ctx context.Context, id int64) (Role, error) {
	role, err := scanRole(r.pool.QueryRow(ctx, `SELECT `+roleColumns+` FROM roles WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Role{}, shared.NotFound("Role")
		}
		return Role{}, fmt.Errorf("get role: %w", err)
	}
	return role, nil
}

// Create inserts a new role.
func (r *repository) Create(ctx context.Context, in CreateInput) (Role, error) {
	role, err := scanRole(r.pool.QueryRow(ctx,
		`INSERT INTO roles (name, description) VALUES ($1, $2) RETURNING `+roleColumns,
		in.Name, in.Description))
	if err != nil {
		return Role{}, fmt.Errorf("create role: %w", err)
	}
	return role, nil
}

// Update applies the present fields of in and bumps updated_at.
func (r *repository) Update(ctx context.Context, id int64, in UpdateInput) (Role, error) {
	role, err := scanRole(r.pool.QueryRow(ctx, `
		UPDATE roles
		SET name = COALESCE($2, name),
		    description = COALESCE($3, description),
		    updated_at = NOW()
		WHERE id = $1
		RETURNING `+roleColumns,
		id, in.Name, in.Description))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Role{}, shared.NotFound("Role")
		}
		return Role{}, fmt.Errorf("update role: %w", err)
	}
	return role, nil
}

// Delete removes a role by ID. User assignments cascade.
func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM roles WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete role: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.NotFound("Role")
	}
	return nil
}

// ExistingIDs returns the subset of ids that exist.
func (r *repository) ExistingIDs(ctx context.Context, ids []int64) ([]int64, error) {
	rows, err := r.pool.Query(ctx, `SELECT id FROM roles WHERE id = ANY($1) ORDER BY id`, ids)
	if err != nil {
		return nil, fmt.Errorf("lookup roles: %w", err)
	}
	found, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, fmt.Errorf("lookup roles: %w", err)
	}
	return found, nil
}

func scanRole(row pgx.Row) (Role, error) {
	var role Role
	err := row.Scan(&role.ID, &role.Name, &role.Description, &role.CreatedAt, &role.UpdatedAt)
	return role, err
}
