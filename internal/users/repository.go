package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"github.com/odyssey-erp/odyssey-iam/internal/platform/db"
	"github.com/odyssey-erp/odyssey-iam/internal/shared"
)

// Repository defines data access methods for users.
type Repository interface {
	List(ctx context.Context, limit, offset int) ([]User, int, error)
	Get(ctx context.Context, id int64) (User, error)
	Delete(ctx context.Context, id int64) error

	// Write operations (transactional)
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// TxRepository exposes transactional write operations.
type TxRepository interface {
	Create(ctx context.Context, u User) (User, error)
	GetForUpdate(ctx context.Context, id int64) (User, error)
	Update(ctx context.Context, u User) (User, error)
	SetRoles(ctx context.Context, userID int64, roleIDs []int64) error
	SetPermissions(ctx context.Context, userID int64, permissionIDs []int64) error
	Associations(ctx context.Context, userID int64) (roleIDs, permissionIDs []int64, err error)
}

// repository implements Repository using pgxpool.
type repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

// txRepository implements TxRepository.
type txRepository struct {
	tx pgx.Tx
}

const userColumns = `id, username, email, is_active, created_at, updated_at`

// WithTx wraps callback in a read-committed transaction. GetForUpdate row
// locks serialize concurrent writers, so the last one to commit wins.
func (r *repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, pgx.ReadCommitted, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

// List returns one page of users ordered by id with their assignments.
func (r *repository) List(ctx context.Context, limit, offset int) ([]User, int, error) {
	var (
		total int
		items []User
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return r.pool.QueryRow(gctx, `SELECT COUNT(*) FROM users`).Scan(&total)
	})
	g.Go(func() error {
		rows, err := r.pool.Query(gctx, `SELECT `+userColumns+` FROM users ORDER BY id LIMIT $1 OFFSET $2`, limit, offset)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			u, err := scanUser(rows)
			if err != nil {
				return err
			}
			items = append(items, u)
		}
		return rows.Err()
	})
	if err := g.Wait(); err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	if err := attachAssociations(ctx, r.pool, items); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// Get fetches a user by ID.
func (r *repository) Get(ctx context.Context, id int64) (User, error) {
	return getUser(ctx, r.pool, id, false)
}

// Delete removes a user and, by cascade, its assignments.
func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.NotFound("User")
	}
	return nil
}

// Create inserts the scalar fields of u.
func (t *txRepository) Create(ctx context.Context, u User) (User, error) {
	created, err := scanUser(t.tx.QueryRow(ctx,
		`INSERT INTO users (username, email, is_active) VALUES ($1, $2, $3) RETURNING `+userColumns,
		u.Username, u.Email, u.IsActive))
	if err != nil {
		return User{}, fmt.Errorf("create user: %w", err)
	}
	return created, nil
}

// GetForUpdate loads a user and locks its row for the rest of the transaction.
func (t *txRepository) GetForUpdate(ctx context.Context, id int64) (User, error) {
	return getUser(ctx, t.tx, id, true)
}

// Update persists the scalar fields of u and bumps updated_at.
func (t *txRepository) Update(ctx context.Context, u User) (User, error) {
	updated, err := scanUser(t.tx.QueryRow(ctx, `
		UPDATE users
		SET username = $2, email = $3, is_active = $4, updated_at = NOW()
		WHERE id = $1
		RETURNING `+userColumns,
		u.ID, u.Username, u.Email, u.IsActive))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, shared.NotFound("User")
		}
		return User{}, fmt.Errorf("update user: %w", err)
	}
	return updated, nil
}

// SetRoles replaces the role assignments of a user.
func (t *txRepository) SetRoles(ctx context.Context, userID int64, roleIDs []int64) error {
	return t.replace(ctx, "user_roles", "role_id", "roles", userID, roleIDs)
}

// SetPermissions replaces the direct permission grants of a user.
func (t *txRepository) SetPermissions(ctx context.Context, userID int64, permissionIDs []int64) error {
	return t.replace(ctx, "user_permissions", "permission_id", "permissions", userID, permissionIDs)
}

func (t *txRepository) replace(ctx context.Context, table, column, label string, userID int64, ids []int64) error {
	if _, err := t.tx.Exec(ctx, `DELETE FROM `+table+` WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("clear %s: %w", label, err)
	}
	if len(ids) == 0 {
		return nil
	}
	_, err := t.tx.Exec(ctx,
		`INSERT INTO `+table+` (user_id, `+column+`) SELECT $1, UNNEST($2::BIGINT[]) ON CONFLICT DO NOTHING`,
		userID, ids)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return shared.InvalidRelation(label, fmt.Sprintf("Invalid %s IDs.", label))
		}
		return fmt.Errorf("assign %s: %w", label, err)
	}
	return nil
}

// Associations returns the current role and permission ids of a user.
func (t *txRepository) Associations(ctx context.Context, userID int64) ([]int64, []int64, error) {
	users := []User{{ID: userID}}
	if err := attachAssociations(ctx, t.tx, users); err != nil {
		return nil, nil, err
	}
	return users[0].Roles, users[0].Permissions, nil
}

func getUser(ctx context.Context, q db.Querier, id int64, forUpdate bool) (User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	u, err := scanUser(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, shared.NotFound("User")
		}
		return User{}, fmt.Errorf("get user: %w", err)
	}
	items := []User{u}
	if err := attachAssociations(ctx, q, items); err != nil {
		return User{}, err
	}
	return items[0], nil
}

// attachAssociations fills Roles and Permissions for every user with one
// query per join table.
func attachAssociations(ctx context.Context, q db.Querier, items []User) error {
	if len(items) == 0 {
		return nil
	}
	ids := make([]int64, len(items))
	for i, u := range items {
		ids[i] = u.ID
	}
	roles, err := loadLinks(ctx, q, `SELECT user_id, role_id FROM user_roles WHERE user_id = ANY($1) ORDER BY user_id, role_id`, ids)
	if err != nil {
		return fmt.Errorf("load user roles: %w", err)
	}
	perms, err := loadLinks(ctx, q, `SELECT user_id, permission_id FROM user_permissions WHERE user_id = ANY($1) ORDER BY user_id, permission_id`, ids)
	if err != nil {
		return fmt.Errorf("load user permissions: %w", err)
	}
	for i := range items {
		items[i].Roles = nonNil(roles[items[i].ID])
		items[i].Permissions = nonNil(perms[items[i].ID])
	}
	return nil
}

func loadLinks(ctx context.Context, q db.Querier, query string, userIDs []int64) (map[int64][]int64, error) {
	rows, err := q.Query(ctx, query, userIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	links := make(map[int64][]int64)
	for rows.Next() {
		var userID, targetID int64
		if err := rows.Scan(&userID, &targetID); err != nil {
			return nil, err
		}
		links[userID] = append(links[userID], targetID)
	}
	return links, rows.Err()
}

func scanUser(row pgx.Row) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}
