package mailer

import (
	"context"
	"errors"
	"testing"
	"time"

	"email-onboarding-be/internal/pkg/logger"
	"email-onboarding-be/pkg/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"
)

type recordingSender struct {
	sent []*gomail.Message
	err  error
}

func (r *recordingSender) DialAndSend(m ...*gomail.Message) error {
	r.sent = append(r.sent, m...)
	return r.err
}

func TestSendDeploymentFailed(t *testing.T) {
	sender := &recordingSender{}
	svc := NewEmailServiceWithSender(sender, "noreply@example.com", "Onboarding", logger.NewNopLogger())

	err := svc.SendDeploymentFailed("ops@example.com", DeploymentAlert{
		JobID: "job-1", TenantID: "acme", Stage: "validate", Reason: "<b>broken</b>", OccurredAt: time.Now(),
	})
	require.NoError(t, err)
	require.Len(t, sender.sent, 1)

	m := sender.sent[0]
	assert.Equal(t, []string{"ops@example.com"}, m.GetHeader("To"))
	assert.Equal(t, []string{"[onboarding] acme failed at validate"}, m.GetHeader("Subject"))
}

func TestSendDeploymentFailedReturnsDialError(t *testing.T) {
	sender := &recordingSender{err: errors.New("connection refused")}
	svc := NewEmailServiceWithSender(sender, "noreply@example.com", "Onboarding", logger.NewNopLogger())

	err := svc.SendDeploymentFailed("ops@example.com", DeploymentAlert{TenantID: "acme", Stage: "merge"})
	assert.EqualError(t, err, "connection refused")
}

type alertRecorder struct {
	to     string
	alerts []DeploymentAlert
}

func (a *alertRecorder) SendDeploymentFailed(to string, alert DeploymentAlert) error {
	a.to = to
	a.alerts = append(a.alerts, alert)
	return nil
}

func TestAlertSinkOnlyMailsFailures(t *testing.T) {
	rec := &alertRecorder{}
	sink := NewAlertSink(rec, "ops@example.com")
	ctx := context.Background()

	require.NoError(t, sink.Publish(ctx, events.BaseEvent{
		Type: events.TypeTaxonomyReconciled,
		Data: map[string]interface{}{"tenant_id": "acme"},
	}))
	assert.Empty(t, rec.alerts)

	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, sink.Publish(ctx, events.BaseEvent{
		Type:       events.TypeDeploymentFailed,
		Data:       map[string]interface{}{"job_id": "job-9", "tenant_id": "acme", "stage": "provider", "error": "no credentials"},
		OccurredAt: at,
	}))
	require.Len(t, rec.alerts, 1)
	assert.Equal(t, "ops@example.com", rec.to)
	assert.Equal(t, DeploymentAlert{JobID: "job-9", TenantID: "acme", Stage: "provider", Reason: "no credentials", OccurredAt: at}, rec.alerts[0])
}
