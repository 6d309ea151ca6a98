package mailer

import (
	"context"
	"fmt"

	"email-onboarding-be/pkg/events"
)

// AlertSink mails DEPLOYMENT_FAILED events to a fixed recipient and ignores
// every other event type.
type AlertSink struct {
	service IEmailService
	to      string
}

func NewAlertSink(service IEmailService, to string) *AlertSink {
	return &AlertSink{service: service, to: to}
}

func (a *AlertSink) Publish(_ context.Context, event events.Event) error {
	if event.EventType() != events.TypeDeploymentFailed {
		return nil
	}
	data := event.Payload()
	alert := DeploymentAlert{
		JobID:      fmt.Sprint(data["job_id"]),
		TenantID:   fmt.Sprint(data["tenant_id"]),
		Stage:      fmt.Sprint(data["stage"]),
		Reason:     fmt.Sprint(data["error"]),
		OccurredAt: event.Timestamp(),
	}
	return a.service.SendDeploymentFailed(a.to, alert)
}
