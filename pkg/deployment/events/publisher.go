package events

import (
	"context"
	"time"

	"email-onboarding-be/internal/pkg/logger"
	pkgEvents "email-onboarding-be/pkg/events"
	pktNats "email-onboarding-be/pkg/nats"
	"email-onboarding-be/pkg/reconcile"
)

// Publisher abstracts event publishing for deployment outcomes.
type Publisher interface {
	PublishTaxonomyReconciled(ctx context.Context, jobId string, result *reconcile.Result)
	PublishDeploymentFailed(ctx context.Context, jobId, tenantId, stage string, cause error)
}

// EventSink is the part of pkg/nats.Publisher used here.
type EventSink interface {
	Publish(ctx context.Context, event pkgEvents.Event) error
}

// NatsPublisher implements Publisher using NATS. A nil sink disables
// publishing.
type NatsPublisher struct {
	publisher EventSink
	logger    logger.ILogger
}

func NewNatsPublisher(publisher *pktNats.Publisher, logger logger.ILogger) *NatsPublisher {
	if publisher == nil {
		return &NatsPublisher{logger: logger}
	}
	return &NatsPublisher{publisher: publisher, logger: logger}
}

// NewPublisherWithSink is used by tests and by callers with their own bus.
func NewPublisherWithSink(sink EventSink, logger logger.ILogger) *NatsPublisher {
	return &NatsPublisher{publisher: sink, logger: logger}
}

// PublishTaxonomyReconciled emits TAXONOMY_RECONCILED, also for partial runs.
func (p *NatsPublisher) PublishTaxonomyReconciled(ctx context.Context, jobId string, result *reconcile.Result) {
	if p.publisher == nil || result == nil {
		return
	}

	failed := make([]map[string]interface{}, 0, len(result.Failed))
	for _, f := range result.Failed {
		failed = append(failed, map[string]interface{}{
			"path":      f.Path,
			"reason":    f.Reason,
			"retriable": f.Retriable,
		})
	}

	evt := pkgEvents.BaseEvent{
		Type: pkgEvents.TypeTaxonomyReconciled,
		Data: map[string]interface{}{
			"job_id":        jobId,
			"run_id":        result.RunID,
			"tenant_id":     result.TenantID,
			"provider":      result.Provider,
			"matched_count": len(result.Matched),
			"created_count": len(result.Created),
			"failed":        failed,
			"complete":      result.Complete(),
			"interrupted":   result.Interrupted,
			"name_to_id":    result.NameToID,
		},
		OccurredAt: result.FinishedAt,
	}

	if err := p.publisher.Publish(ctx, evt); err != nil {
		p.logger.Error(logger.ModuleEvents, "Failed to publish TAXONOMY_RECONCILED event", map[string]interface{}{
			"tenant_id": result.TenantID, "error": err.Error(),
		})
	}
}

// PublishDeploymentFailed emits DEPLOYMENT_FAILED when a deployment aborts
// before producing a document.
func (p *NatsPublisher) PublishDeploymentFailed(ctx context.Context, jobId, tenantId, stage string, cause error) {
	if p.publisher == nil {
		return
	}

	now := time.Now()
	evt := pkgEvents.BaseEvent{
		Type: pkgEvents.TypeDeploymentFailed,
		Data: map[string]interface{}{
			"job_id":    jobId,
			"tenant_id": tenantId,
			"stage":     stage,
			"error":     cause.Error(),
		},
		OccurredAt: now,
	}

	if err := p.publisher.Publish(ctx, evt); err != nil {
		p.logger.Error(logger.ModuleEvents, "Failed to publish DEPLOYMENT_FAILED event", map[string]interface{}{
			"tenant_id": tenantId, "error": err.Error(),
		})
	}
}
