package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	ProposalReady  = "PROPOSAL_READY"
	ProposalFailed = "PROPOSAL_FAILED"
)

func NewProposalReadyEvent(conversationId, userId uuid.UUID, artifactRef, tier string, occurredAt time.Time) BaseEvent {
	return BaseEvent{
		Type: ProposalReady,
		Data: map[string]interface{}{
			"conversation_id": conversationId.String(),
			"user_id":         userId.String(),
			"artifact":        artifactRef,
			"tier":            tier,
			"entity_type":     "conversation",
			"entity_id":       conversationId.String(),
			"occurred_at":     occurredAt.Format(time.RFC3339),
		},
		OccurredAt: occurredAt,
	}
}

func NewProposalFailedEvent(conversationId, userId uuid.UUID, reason string, attempt int, occurredAt time.Time) BaseEvent {
	return BaseEvent{
		Type: ProposalFailed,
		Data: map[string]interface{}{
			"conversation_id": conversationId.String(),
			"user_id":         userId.String(),
			"reason":          reason,
			"attempt":         attempt,
			"entity_type":     "conversation",
			"entity_id":       conversationId.String(),
			"occurred_at":     occurredAt.Format(time.RFC3339),
		},
		OccurredAt: occurredAt,
	}
}
