package service

import (
	"context"
	"fmt"

	"proposal-intake-be/internal/entity"
	"proposal-intake-be/internal/repository/specification"
	"proposal-intake-be/internal/repository/unitofwork"
	"proposal-intake-be/pkg/proposal/orchestrator"

	"github.com/google/uuid"
)

// conversationStore gives the orchestrator transactional access to conversations.
type conversationStore struct {
	uowFactory unitofwork.RepositoryFactory
}

var _ orchestrator.ConversationStore = (*conversationStore)(nil)

func NewConversationStore(uowFactory unitofwork.RepositoryFactory) orchestrator.ConversationStore {
	return &conversationStore{uowFactory: uowFactory}
}

func (s *conversationStore) Load(ctx context.Context, id uuid.UUID) (*entity.Conversation, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	conv, err := uow.ConversationRepository().FindOne(ctx,
		specification.ByID{ID: id},
		specification.WithMessages{},
	)
	if err != nil {
		return nil, err
	}
	if conv == nil {
		return nil, ErrConversationNotFound
	}
	return conv, nil
}

// UpdateMetadata reads the row under a lock, applies mutate, and writes it back
// in one transaction so concurrent intake writes are not lost.
func (s *conversationStore) UpdateMetadata(ctx context.Context, id uuid.UUID, mutate func(*entity.ConversationMetadata)) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		_ = uow.Rollback()
	}()

	conv, err := uow.ConversationRepository().FindOneForUpdate(ctx, id)
	if err != nil {
		return err
	}
	if conv == nil {
		return ErrConversationNotFound
	}

	mutate(&conv.Metadata)
	if err := uow.ConversationRepository().UpdateMetadata(ctx, id, conv.Metadata); err != nil {
		return err
	}
	return uow.Commit()
}
