package service

import (
	"context"
	"fmt"

	"proposal-intake-be/internal/pkg/logger"
	"proposal-intake-be/pkg/events"
	pktNats "proposal-intake-be/pkg/nats"

	"github.com/google/uuid"
)

const deliveryDurableName = "proposal_delivery"

type EventSubscriber interface {
	Subscribe(ctx context.Context, subject, durableName string, handler pktNats.EventHandler) error
}

type IDeliveryService interface {
	Start(ctx context.Context) error
}

// deliveryService emails ready proposals when PROPOSAL_READY events arrive.
type deliveryService struct {
	subscriber EventSubscriber
	proposals  IProposalService
	logger     logger.ILogger
}

func NewDeliveryService(subscriber EventSubscriber, proposals IProposalService, logger logger.ILogger) IDeliveryService {
	return &deliveryService{
		subscriber: subscriber,
		proposals:  proposals,
		logger:     logger,
	}
}

func (s *deliveryService) Start(ctx context.Context) error {
	return s.subscriber.Subscribe(ctx, pktNats.Subject(events.ProposalReady), deliveryDurableName, s.handle)
}

func (s *deliveryService) handle(ctx context.Context, event events.BaseEvent) error {
	conversationId, err := uuid.Parse(event.String("conversation_id"))
	if err != nil {
		s.logger.Warn("DELIVERY", "Event without a valid conversation id", map[string]interface{}{
			"event": event.EventType(),
		})
		return nil
	}
	ref := event.String("artifact")
	if ref == "" {
		return nil
	}

	if err := s.proposals.Deliver(ctx, conversationId, ref); err != nil {
		return fmt.Errorf("deliver proposal %s: %w", conversationId, err)
	}
	s.logger.Info("DELIVERY", "Proposal delivered", map[string]interface{}{
		"conversation_id": conversationId.String(),
	})
	return nil
}
