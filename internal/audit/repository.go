package audit

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"
)

// Repository reads the persisted audit trail.
type Repository interface {
	Timeline(ctx context.Context, filters TimelineFilters, limit, offset int) ([]Entry, int, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository returns a postgres backed audit reader.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

// Timeline returns one page of audit entries, newest first, with the filtered total.
func (r *repository) Timeline(ctx context.Context, filters TimelineFilters, limit, offset int) ([]Entry, int, error) {
	where, args := buildWhere(filters)
	var (
		total   int
		entries []Entry
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return r.pool.QueryRow(gctx, `SELECT COUNT(*) FROM audit_logs`+where, args...).Scan(&total)
	})
	g.Go(func() error {
		n := len(args)
		query := `SELECT event_id::text, action, entity, entity_id, meta, occurred_at FROM audit_logs` + where +
			` ORDER BY occurred_at DESC, id DESC LIMIT $` + strconv.Itoa(n+1) + ` OFFSET $` + strconv.Itoa(n+2)
		rows, err := r.pool.Query(gctx, query, append(args, limit, offset)...)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var e Entry
			if err := rows.Scan(&e.EventID, &e.Action, &e.Entity, &e.EntityID, &e.Meta, &e.OccurredAt); err != nil {
				return err
			}
			entries = append(entries, e)
		}
		return rows.Err()
	})
	if err := g.Wait(); err != nil {
		return nil, 0, fmt.Errorf("audit timeline: %w", err)
	}
	return entries, total, nil
}

// buildWhere renders the filter predicates as a positional WHERE clause.
func buildWhere(f TimelineFilters) (string, []any) {
	var (
		clauses []string
		args    []any
	)
	add := func(expr string, v any) {
		args = append(args, v)
		clauses = append(clauses, expr+" $"+strconv.Itoa(len(args)))
	}
	if f.Entity != "" {
		add("entity =", f.Entity)
	}
	if f.EntityID != "" {
		add("entity_id =", f.EntityID)
	}
	if f.Action != "" {
		add("action =", f.Action)
	}
	if !f.From.IsZero() {
		add("occurred_at >=", f.From)
	}
	if !f.To.IsZero() {
		add("occurred_at <", f.To)
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}
