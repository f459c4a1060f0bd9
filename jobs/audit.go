package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/odyssey-erp/odyssey-iam/internal/jobs"
	"github.com/odyssey-erp/odyssey-iam/internal/shared"
)

const publishTimeout = 2 * time.Second

// AuditRecorder persists and expires audit events.
type AuditRecorder interface {
	Record(ctx context.Context, event shared.AuditEvent) error
	Prune(ctx context.Context, cutoff time.Time) (int64, error)
}

// TaskEnqueuer is the subset of the asynq client used by producers.
type TaskEnqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// AuditEnqueuer publishes audit events onto the queue. It satisfies
// shared.AuditPublisher.
type AuditEnqueuer struct {
	client  TaskEnqueuer
	logger  *slog.Logger
	metrics *jobmetrics.Metrics
}

// NewAuditEnqueuer constructs the publisher.
func NewAuditEnqueuer(client TaskEnqueuer, logger *slog.Logger, metrics *jobmetrics.Metrics) *AuditEnqueuer {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditEnqueuer{client: client, logger: logger, metrics: metrics}
}

// Publish enqueues event. Failures are logged and counted, never returned.
func (e *AuditEnqueuer) Publish(ctx context.Context, event shared.AuditEvent) {
	if e == nil || e.client == nil {
		return
	}
	logger := e.logger.With(slog.String("action", event.Action), slog.String("entity_id", event.EntityID))
	task, err := NewAuditTask(event)
	if err != nil {
		logger.Error("build audit task", slog.Any("error", err))
		e.metrics.EnqueueFailed(TaskTypeAuditRecord)
		return
	}
	// the write has committed; a client disconnect must not drop its audit entry
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if _, err := e.client.EnqueueContext(ctx, task); err != nil {
		if errors.Is(err, asynq.ErrTaskIDConflict) || errors.Is(err, asynq.ErrDuplicateTask) {
			logger.Debug("audit event already queued")
			return
		}
		logger.Warn("enqueue audit event", slog.Any("error", err))
		e.metrics.EnqueueFailed(TaskTypeAuditRecord)
	}
}

// AuditJob handles audit tasks on the worker.
type AuditJob struct {
	Recorder AuditRecorder
	Logger   *slog.Logger
	Metrics  *jobmetrics.Metrics
	clock    func() time.Time
}

// NewAuditJob initialises the audit task handlers.
func NewAuditJob(recorder AuditRecorder, logger *slog.Logger, metrics *jobmetrics.Metrics) *AuditJob {
	return &AuditJob{
		Recorder: recorder,
		Logger:   logger,
		Metrics:  metrics,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// HandleRecord writes one audit event. Undecodable payloads are not retried.
func (j *AuditJob) HandleRecord(ctx context.Context, t *asynq.Task) (err error) {
	if j == nil || j.Recorder == nil {
		return errors.New("audit record: handler not configured")
	}
	var event shared.AuditEvent
	if err := json.Unmarshal(t.Payload(), &event); err != nil {
		j.logger().Error("decode audit event", slog.Any("error", err))
		return fmt.Errorf("decode audit event: %v: %w", err, asynq.SkipRetry)
	}
	tracker := j.Metrics.Track(TaskTypeAuditRecord)
	defer func() {
		err = tracker.End(err)
	}()
	if err := j.Recorder.Record(ctx, event); err != nil {
		j.logger().Warn("record audit event",
			slog.String("event_id", event.ID),
			slog.String("action", event.Action),
			slog.Any("error", err),
		)
		return err
	}
	return nil
}

// HandlePrune deletes audit events older than the payload's retention window.
func (j *AuditJob) HandlePrune(ctx context.Context, t *asynq.Task) (err error) {
	if j == nil || j.Recorder == nil {
		return errors.New("audit prune: handler not configured")
	}
	var payload AuditPrunePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("decode prune payload: %v: %w", err, asynq.SkipRetry)
	}
	if payload.RetentionDays <= 0 {
		j.logger().Info("audit retention disabled, skipping prune")
		return nil
	}
	tracker := j.Metrics.Track(TaskTypeAuditPrune)
	defer func() {
		err = tracker.End(err)
	}()
	cutoff := j.now().AddDate(0, 0, -payload.RetentionDays)
	removed, err := j.Recorder.Prune(ctx, cutoff)
	if err != nil {
		return err
	}
	j.logger().Info("pruned audit events",
		slog.Int64("removed", removed),
		slog.Time("cutoff", cutoff),
	)
	return nil
}

func (j *AuditJob) logger() *slog.Logger {
	if j.Logger == nil {
		return slog.Default()
	}
	return j.Logger
}

func (j *AuditJob) now() time.Time {
	if j.clock == nil {
		return time.Now().UTC()
	}
	return j.clock()
}
