package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"

	"github.com/odyssey-erp/odyssey-iam/internal/shared"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeAuditRecord persists one audit event.
	TaskTypeAuditRecord = "audit:record"
	// TaskTypeAuditPrune removes audit events past the retention window.
	TaskTypeAuditPrune = "audit:prune"

	auditMaxRetry = 10
)

// AuditPrunePayload configures a retention sweep.
type AuditPrunePayload struct {
	RetentionDays int `json:"retention_days"`
}

// NewAuditTask wraps event in a task whose id is the event id, so a
// duplicate enqueue of the same event is rejected by the broker.
func NewAuditTask(event shared.AuditEvent) (*asynq.Task, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeAuditRecord, data,
		asynq.TaskID(event.ID),
		asynq.Queue(QueueDefault),
		asynq.MaxRetry(auditMaxRetry),
		asynq.Timeout(30*time.Second),
	), nil
}

// NewAuditPruneTask constructs the retention task used by the scheduler.
func NewAuditPruneTask(retentionDays int) (*asynq.Task, error) {
	data, err := json.Marshal(AuditPrunePayload{RetentionDays: retentionDays})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeAuditPrune, data, asynq.Queue(QueueDefault)), nil
}
