package shared

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/odyssey-erp/odyssey-iam/internal/platform/db"
)

// AuditEvent describes a committed change to an entity.
type AuditEvent struct {
	ID       string         `json:"id"`
	Action   string         `json:"action"`
	Entity   string         `json:"entity"`
	EntityID string         `json:"entity_id"`
	Meta     map[string]any `json:"meta,omitempty"`
	At       time.Time      `json:"at"`
}

// NewAuditEvent builds an event such as "role.created" for entity id.
func NewAuditEvent(entity, verb string, id int64, meta map[string]any) AuditEvent {
	return AuditEvent{
		ID:       uuid.NewString(),
		Action:   entity + "." + verb,
		Entity:   entity,
		EntityID: strconv.FormatInt(id, 10),
		Meta:     meta,
		At:       time.Now().UTC(),
	}
}

// AuditPublisher hands events off for asynchronous persistence. Publishing
// never fails the caller; implementations log their own delivery errors.
type AuditPublisher interface {
	Publish(ctx context.Context, event AuditEvent)
}

// AuditLogger writes records into audit_logs.
type AuditLogger struct {
	db db.Querier
}

// NewAuditLogger returns a new AuditLogger.
func NewAuditLogger(q db.Querier) *AuditLogger {
	return &AuditLogger{db: q}
}

// Record persists the event. Replays of the same event id are ignored.
func (l *AuditLogger) Record(ctx context.Context, event AuditEvent) error {
	if l == nil {
		return errors.New("audit logger not initialised")
	}
	if event.ID == "" || event.Action == "" || event.Entity == "" || event.EntityID == "" {
		return errors.New("audit log requires id/action/entity/entity_id")
	}
	if event.Meta == nil {
		event.Meta = map[string]any{}
	}
	metaJSON, err := json.Marshal(event.Meta)
	if err != nil {
		return err
	}
	var at any
	if !event.At.IsZero() {
		at = event.At
	}
	_, err = l.db.Exec(ctx, `INSERT INTO audit_logs (event_id, action, entity, entity_id, meta, occurred_at)
		VALUES ($1, $2, $3, $4, $5, COALESCE($6, NOW()))
		ON CONFLICT (event_id) DO NOTHING`,
		event.ID, event.Action, event.Entity, event.EntityID, metaJSON, at)
	return err
}

// Prune deletes audit records that occurred before cutoff and reports how many were removed.
func (l *AuditLogger) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	if l == nil {
		return 0, errors.New("audit logger not initialised")
	}
	tag, err := l.db.Exec(ctx, `DELETE FROM audit_logs WHERE occurred_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
