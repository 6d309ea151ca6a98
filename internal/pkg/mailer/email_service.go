package mailer

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"email-onboarding-be/internal/pkg/logger"

	"gopkg.in/gomail.v2"
)

// DeploymentAlert describes a deployment that aborted before producing a
// workflow document.
type DeploymentAlert struct {
	JobID      string
	TenantID   string
	Stage      string
	Reason     string
	OccurredAt time.Time
}

type IEmailService interface {
	SendDeploymentFailed(toEmail string, alert DeploymentAlert) error
}

// Sender is satisfied by *gomail.Dialer.
type Sender interface {
	DialAndSend(m ...*gomail.Message) error
}

type emailService struct {
	sender      Sender
	senderEmail string
	senderName  string
	logger      logger.ILogger
}

func NewEmailService(host string, port int, username, password, senderEmail, senderName string, log logger.ILogger) IEmailService {
	return NewEmailServiceWithSender(gomail.NewDialer(host, port, username, password), senderEmail, senderName, log)
}

func NewEmailServiceWithSender(sender Sender, senderEmail, senderName string, log logger.ILogger) IEmailService {
	return &emailService{sender: sender, senderEmail: senderEmail, senderName: senderName, logger: log}
}

var failedBody = template.Must(template.New("failed").Parse(`
	<div style="font-family: Arial, sans-serif; padding: 20px; color: #333;">
		<h2>Onboarding deployment failed</h2>
		<p>Tenant <strong>{{.TenantID}}</strong>, job <code>{{.JobID}}</code></p>
		<p>Stage: <strong>{{.Stage}}</strong></p>
		<pre style="background: #f6f6f6; padding: 10px;">{{.Reason}}</pre>
		<p>{{.OccurredAt.Format "2006-01-02 15:04:05 MST"}}</p>
	</div>
`))

func (s *emailService) SendDeploymentFailed(toEmail string, alert DeploymentAlert) error {
	var body bytes.Buffer
	if err := failedBody.Execute(&body, alert); err != nil {
		return fmt.Errorf("render alert: %w", err)
	}

	m := gomail.NewMessage()
	m.SetAddressHeader("From", s.senderEmail, s.senderName)
	m.SetHeader("To", toEmail)
	m.SetHeader("Subject", fmt.Sprintf("[onboarding] %s failed at %s", alert.TenantID, alert.Stage))
	m.SetBody("text/html", body.String())

	if err := s.sender.DialAndSend(m); err != nil {
		s.logger.Error(logger.ModuleMailer, "Failed to send deployment alert", map[string]interface{}{
			"to": toEmail, "job_id": alert.JobID, "error": err.Error(),
		})
		return err
	}

	s.logger.Info(logger.ModuleMailer, "Deployment alert sent", map[string]interface{}{"to": toEmail, "job_id": alert.JobID})
	return nil
}
