package events

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"email-onboarding-be/internal/pkg/logger"
	pkgEvents "email-onboarding-be/pkg/events"
	"email-onboarding-be/pkg/reconcile"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sinkStub struct {
	mu     sync.Mutex
	events []pkgEvents.Event
	err    error
}

func (s *sinkStub) Publish(_ context.Context, e pkgEvents.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
	return s.err
}

func TestPublishTaxonomyReconciled(t *testing.T) {
	sink := &sinkStub{}
	p := NewPublisherWithSink(sink, logger.NewNopLogger())

	result := &reconcile.Result{
		RunID:      "run-1",
		TenantID:   "t1",
		Provider:   "gmail",
		Created:    []reconcile.Entry{{Path: "Urgent", Name: "Urgent", ID: "L1"}},
		Failed:     []reconcile.Failure{{Path: "Sales", Name: "Sales", Reason: "HTTP 503", Retriable: true}},
		NameToID:   map[string]string{"Urgent": "L1"},
		FinishedAt: time.Now(),
	}
	p.PublishTaxonomyReconciled(context.Background(), "job-1", result)

	require.Len(t, sink.events, 1)
	evt := sink.events[0]
	assert.Equal(t, pkgEvents.TypeTaxonomyReconciled, evt.EventType())
	assert.Equal(t, "t1", evt.Payload()["tenant_id"])
	assert.Equal(t, 1, evt.Payload()["created_count"])
	assert.Equal(t, false, evt.Payload()["complete"])
}

func TestPublishDeploymentFailedSwallowsSinkErrors(t *testing.T) {
	sink := &sinkStub{err: errors.New("nats down")}
	p := NewPublisherWithSink(sink, logger.NewNopLogger())

	p.PublishDeploymentFailed(context.Background(), "job-1", "t1", "validate", errors.New("intent targets missing"))

	require.Len(t, sink.events, 1)
	assert.Equal(t, "validate", sink.events[0].Payload()["stage"])
}

func TestNilPublisherIsNoop(t *testing.T) {
	p := NewNatsPublisher(nil, logger.NewNopLogger())
	p.PublishDeploymentFailed(context.Background(), "job-1", "t1", "merge", errors.New("x"))
	p.PublishTaxonomyReconciled(context.Background(), "job-1", &reconcile.Result{})
}

func TestMultiSinkReachesEverySink(t *testing.T) {
	first := &sinkStub{err: errors.New("nats down")}
	second := &sinkStub{}
	sink := MultiSink{first, second}

	err := sink.Publish(context.Background(), pkgEvents.BaseEvent{Type: pkgEvents.TypeDeploymentFailed})

	assert.ErrorContains(t, err, "nats down")
	assert.Len(t, first.events, 1)
	assert.Len(t, second.events, 1)
	assert.NoError(t, MultiSink{}.Publish(context.Background(), pkgEvents.BaseEvent{}))
}
