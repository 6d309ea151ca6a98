package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"email-onboarding-be/internal/dto"
	"email-onboarding-be/internal/pkg/logger"
	"email-onboarding-be/pkg/reconcile"

	"github.com/ThreeDotsLabs/watermill/message"
)

// lockRetryDelay spaces out redelivery of a job whose tenant is busy.
const lockRetryDelay = 5 * time.Second

type IConsumerService interface {
	Consume(ctx context.Context) error
}

type consumerService struct {
	subscriber        message.Subscriber
	topicName         string
	deploymentService IDeploymentService
	logger            logger.ILogger
}

func NewConsumerService(
	subscriber message.Subscriber,
	topicName string,
	deploymentService IDeploymentService,
	logger logger.ILogger,
) IConsumerService {
	return &consumerService{
		subscriber:        subscriber,
		topicName:         topicName,
		deploymentService: deploymentService,
		logger:            logger,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.subscriber.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.PublishDeploymentMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		cs.logger.Error(logger.ModuleConsumer, "Failed to unmarshal deployment job", map[string]interface{}{
			"message_id": msg.UUID, "error": err.Error(),
		})
		msg.Ack()
		return
	}

	cs.logger.Info(logger.ModuleConsumer, "Processing deployment job", map[string]interface{}{
		"job_id": payload.JobId, "tenant_id": payload.TenantId,
	})

	res, err := cs.deploymentService.Execute(ctx, payload.JobId, payload.TenantId, &payload.Request)
	if err != nil {
		if errors.Is(err, reconcile.ErrLockNotAcquired) {
			select {
			case <-time.After(lockRetryDelay):
				msg.Nack()
			case <-ctx.Done():
				msg.Nack()
			}
			return
		}
		// Failures are already logged and published by the deployment service.
		msg.Ack()
		return
	}

	cs.logger.Info(logger.ModuleConsumer, "Deployment job done", map[string]interface{}{
		"job_id": payload.JobId, "status": res.Status,
	})
	msg.Ack()
}
