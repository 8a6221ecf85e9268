package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"proposal-intake-be/internal/dto"
	"proposal-intake-be/internal/entity"
	"proposal-intake-be/internal/pkg/logger"
	"proposal-intake-be/internal/pkg/mailer"
	"proposal-intake-be/internal/repository/memory"
	"proposal-intake-be/pkg/events"
	"proposal-intake-be/pkg/proposal/orchestrator"

	"github.com/google/uuid"
)

// ProposalGenerator is satisfied by *orchestrator.Orchestrator.
type ProposalGenerator interface {
	Generate(ctx context.Context, id uuid.UUID) (*orchestrator.Result, error)
}

// ArtifactPather resolves an artifact reference to a local file for attachments.
type ArtifactPather interface {
	Path(ref string) (string, error)
}

type IProposalService interface {
	// Generate runs the orchestrator and records the outcome. attempt starts at 1.
	Generate(ctx context.Context, conversationId uuid.UUID, attempt int) (*orchestrator.Result, error)
	Status(conversationId uuid.UUID) (*entity.GenerationTask, bool)
	// Forget drops the tracked status of a deleted conversation.
	Forget(conversationId uuid.UUID)
	// Deliver emails a ready proposal to the conversation's user, if configured.
	Deliver(ctx context.Context, conversationId uuid.UUID, artifactRef string) error
}

type ProposalServiceOption func(*proposalService)

func WithEventPublisher(publisher events.Publisher) ProposalServiceOption {
	return func(s *proposalService) {
		s.events = publisher
	}
}

// WithEventDelivery leaves email delivery to a PROPOSAL_READY subscriber.
func WithEventDelivery() ProposalServiceOption {
	return func(s *proposalService) {
		s.deliverViaEvents = true
	}
}

func WithMailer(m mailer.IEmailService, artifacts ArtifactPather) ProposalServiceOption {
	return func(s *proposalService) {
		s.mailer = m
		s.artifacts = artifacts
	}
}

func WithRetryQueue(retries IPublisherService, maxAttempts int) ProposalServiceOption {
	return func(s *proposalService) {
		s.retries = retries
		s.maxAttempts = maxAttempts
	}
}

type proposalService struct {
	generator ProposalGenerator
	store     orchestrator.ConversationStore
	tasks     *memory.GenerationTaskRepository
	logger    logger.ILogger

	events           events.Publisher
	deliverViaEvents bool
	mailer           mailer.IEmailService
	artifacts        ArtifactPather
	retries          IPublisherService
	maxAttempts      int
	clock            func() time.Time
}

func NewProposalService(
	generator ProposalGenerator,
	store orchestrator.ConversationStore,
	tasks *memory.GenerationTaskRepository,
	logger logger.ILogger,
	opts ...ProposalServiceOption,
) IProposalService {
	s := &proposalService{
		generator: generator,
		store:     store,
		tasks:     tasks,
		logger:    logger,
		clock:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// TaskObserver mirrors orchestrator state transitions into the task tracker.
func TaskObserver(tasks *memory.GenerationTaskRepository) orchestrator.Observer {
	return func(id uuid.UUID, state orchestrator.State, err error) {
		tasks.Upsert(id, func(task *entity.GenerationTask) {
			task.State = string(state)
			if err != nil {
				task.Error = err.Error()
			}
		})
	}
}

func (s *proposalService) Generate(ctx context.Context, conversationId uuid.UUID, attempt int) (*orchestrator.Result, error) {
	if attempt < 1 {
		attempt = 1
	}
	s.tasks.MarkRunning(conversationId, string(orchestrator.StateNoArtifact))

	res, err := s.generator.Generate(ctx, conversationId)
	if err != nil {
		if errors.Is(err, orchestrator.ErrGenerationInProgress) {
			return nil, err
		}
		s.tasks.MarkFailed(conversationId, string(orchestrator.StateFailedRecoverable), err)
		s.logger.Error("PROPOSAL", "Proposal generation failed", map[string]interface{}{
			"conversation_id": conversationId.String(),
			"attempt":         attempt,
			"error":           err.Error(),
		})
		if errors.Is(err, orchestrator.ErrArtifactUnavailable) {
			s.publishFailed(ctx, conversationId, err, attempt)
			s.scheduleRetry(ctx, conversationId, attempt+1)
		}
		return nil, err
	}

	s.tasks.MarkCompleted(conversationId, string(orchestrator.StateReady))
	if res.Tier != orchestrator.TierExisting {
		s.announceReady(ctx, conversationId, res)
	}
	return res, nil
}

func (s *proposalService) Status(conversationId uuid.UUID) (*entity.GenerationTask, bool) {
	return s.tasks.Get(conversationId)
}

func (s *proposalService) Forget(conversationId uuid.UUID) {
	s.tasks.Delete(conversationId)
}

func (s *proposalService) Deliver(ctx context.Context, conversationId uuid.UUID, artifactRef string) error {
	if s.mailer == nil || s.artifacts == nil {
		return nil
	}
	conv, err := s.store.Load(ctx, conversationId)
	if err != nil {
		return err
	}
	if conv.Metadata.UserEmail == "" {
		return nil
	}
	path, err := s.artifacts.Path(artifactRef)
	if err != nil {
		return err
	}
	return s.mailer.SendProposal(conv.Metadata.UserEmail, conv.Metadata.DisplayName(), path, ProposalFileName(conv))
}

func (s *proposalService) announceReady(ctx context.Context, conversationId uuid.UUID, res *orchestrator.Result) {
	published := false
	if s.events != nil {
		userId := s.ownerOf(ctx, conversationId)
		evt := events.NewProposalReadyEvent(conversationId, userId, res.ArtifactRef, string(res.Tier), s.clock())
		if err := s.events.Publish(ctx, evt); err != nil {
			s.logger.Warn("PROPOSAL", "Failed to publish PROPOSAL_READY event", map[string]interface{}{
				"conversation_id": conversationId.String(),
				"error":           err.Error(),
			})
		} else {
			published = true
		}
	}

	if published && s.deliverViaEvents {
		return
	}
	if err := s.Deliver(ctx, conversationId, res.ArtifactRef); err != nil {
		s.logger.Warn("PROPOSAL", "Failed to email proposal", map[string]interface{}{
			"conversation_id": conversationId.String(),
			"error":           err.Error(),
		})
	}
}

func (s *proposalService) publishFailed(ctx context.Context, conversationId uuid.UUID, cause error, attempt int) {
	if s.events == nil {
		return
	}
	userId := s.ownerOf(ctx, conversationId)
	evt := events.NewProposalFailedEvent(conversationId, userId, cause.Error(), attempt, s.clock())
	if err := s.events.Publish(ctx, evt); err != nil {
		s.logger.Warn("PROPOSAL", "Failed to publish PROPOSAL_FAILED event", map[string]interface{}{
			"conversation_id": conversationId.String(),
			"error":           err.Error(),
		})
	}
}

func (s *proposalService) scheduleRetry(ctx context.Context, conversationId uuid.UUID, attempt int) {
	if s.retries == nil || attempt > s.maxAttempts {
		return
	}
	payload, err := json.Marshal(dto.ProposalRetryMessage{ConversationId: conversationId, Attempt: attempt})
	if err != nil {
		return
	}
	if err := s.retries.Publish(ctx, payload); err != nil {
		s.logger.Warn("PROPOSAL", "Failed to enqueue proposal retry", map[string]interface{}{
			"conversation_id": conversationId.String(),
			"attempt":         attempt,
			"error":           err.Error(),
		})
		return
	}
	s.tasks.MarkPending(conversationId)
}

func (s *proposalService) ownerOf(ctx context.Context, conversationId uuid.UUID) uuid.UUID {
	conv, err := s.store.Load(ctx, conversationId)
	if err != nil {
		return uuid.Nil
	}
	return conv.UserId
}

// ProposalFileName builds the download name, e.g. Proposal_Acme_Dairy_1a2b3c4d.pdf.
func ProposalFileName(conv *entity.Conversation) string {
	name := sanitizeFileComponent(conv.Metadata.DisplayName())
	if len(name) > 60 {
		name = name[:60]
	}
	if name == "" {
		name = "Client"
	}
	id := conv.Id.String()
	return fmt.Sprintf("Proposal_%s_%s.pdf", name, id[:8])
}

func sanitizeFileComponent(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			out = append(out, r)
		default:
			out = append(out, '_')
		}
	}
	return string(out)
}
