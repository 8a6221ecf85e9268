package contract

import (
	"context"

	"proposal-intake-be/internal/entity"
	"proposal-intake-be/internal/repository/specification"

	"github.com/google/uuid"
)

type ConversationRepository interface {
	Create(ctx context.Context, conversation *entity.Conversation) error
	UpdateMetadata(ctx context.Context, id uuid.UUID, metadata entity.ConversationMetadata) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Conversation, error)
	FindOneForUpdate(ctx context.Context, id uuid.UUID) (*entity.Conversation, error) // Row lock, needs a transaction
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Conversation, error)
}

type ConversationMessageRepository interface {
	Create(ctx context.Context, message *entity.ConversationMessage) error
	DeleteByConversationId(ctx context.Context, conversationId uuid.UUID) error
}
