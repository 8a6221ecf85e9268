package service

import (
	"context"
	"encoding/json"
	"time"

	"proposal-intake-be/internal/dto"
	"proposal-intake-be/internal/pkg/logger"

	"github.com/ThreeDotsLabs/watermill/message"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// retryConsumerService re-runs proposal generation for conversations whose
// previous attempt produced no document.
type retryConsumerService struct {
	subscriber message.Subscriber
	topicName  string
	proposals  IProposalService
	delay      time.Duration
	logger     logger.ILogger
}

func NewRetryConsumerService(
	subscriber message.Subscriber,
	topicName string,
	proposals IProposalService,
	delay time.Duration,
	logger logger.ILogger,
) IConsumerService {
	return &retryConsumerService{
		subscriber: subscriber,
		topicName:  topicName,
		proposals:  proposals,
		delay:      delay,
		logger:     logger,
	}
}

func (cs *retryConsumerService) Consume(ctx context.Context) error {
	messages, err := cs.subscriber.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			go cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

// processMessage acks up front so waiting retries do not hold up the topic;
// a failed retry schedules its own follow-up.
func (cs *retryConsumerService) processMessage(ctx context.Context, msg *message.Message) {
	msg.Ack()

	var payload dto.ProposalRetryMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		cs.logger.Error("RETRY", "Failed to unmarshal retry message", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}

	wait := cs.delay * time.Duration(payload.Attempt)
	cs.logger.Info("RETRY", "Scheduled proposal retry", map[string]interface{}{
		"conversation_id": payload.ConversationId.String(),
		"attempt":         payload.Attempt,
		"wait":            wait.String(),
	})

	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return
	case <-timer.C:
	}

	if _, err := cs.proposals.Generate(ctx, payload.ConversationId, payload.Attempt); err != nil {
		cs.logger.Warn("RETRY", "Proposal retry failed", map[string]interface{}{
			"conversation_id": payload.ConversationId.String(),
			"attempt":         payload.Attempt,
			"error":           err.Error(),
		})
		return
	}
	cs.logger.Info("RETRY", "Proposal retry succeeded", map[string]interface{}{
		"conversation_id": payload.ConversationId.String(),
		"attempt":         payload.Attempt,
	})
}
