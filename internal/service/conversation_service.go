package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"proposal-intake-be/internal/constant"
	"proposal-intake-be/internal/dto"
	"proposal-intake-be/internal/entity"
	"proposal-intake-be/internal/pkg/logger"
	"proposal-intake-be/internal/repository/specification"
	"proposal-intake-be/internal/repository/unitofwork"
	"proposal-intake-be/pkg/intent"
	"proposal-intake-be/pkg/llm"
	"proposal-intake-be/pkg/proposal/orchestrator"
	"proposal-intake-be/pkg/questionnaire"

	"github.com/google/uuid"
)

// Profile-backed questions that can be answered from the start request.
const (
	questionClientName = "client_name"
	questionLocation   = "location"
)

type IConversationService interface {
	StartConversation(ctx context.Context, userId uuid.UUID, request *dto.StartConversationRequest) (*dto.ConversationResponse, error)
	SendMessage(ctx context.Context, userId uuid.UUID, request *dto.SendMessageRequest) (*dto.SendMessageResponse, error)
	ListConversations(ctx context.Context, userId uuid.UUID) ([]*dto.ConversationSummaryResponse, error)
	GetConversation(ctx context.Context, userId, conversationId uuid.UUID) (*dto.ConversationResponse, error)
	DeleteConversation(ctx context.Context, userId, conversationId uuid.UUID) error
	DownloadProposal(ctx context.Context, userId, conversationId uuid.UUID) (*ProposalDownload, error)
	DiagnoseConversation(ctx context.Context, userId, conversationId uuid.UUID) (*dto.DiagnoseResponse, error)
	GetProposalStatus(ctx context.Context, userId, conversationId uuid.UUID) (*dto.ProposalStatusResponse, error)
}

type ArtifactStore interface {
	Open(ctx context.Context, ref string) (io.ReadCloser, int64, error)
	Stat(ctx context.Context, ref string) (int64, error)
	Remove(ctx context.Context, ref string) error
}

// ProposalDownload is a ready document; the caller must close Body.
type ProposalDownload struct {
	FileName string
	Size     int64
	Body     io.ReadCloser
}

type ConversationServiceConfig struct {
	BaseURL         string
	CompanyName     string
	IntakeMaxTokens int
}

type answerOutcome int

const (
	answerAdvanced answerOutcome = iota
	answerRejected
	answerCompleted
)

type conversationService struct {
	uowFactory  unitofwork.RepositoryFactory
	store       orchestrator.ConversationStore
	definition  *questionnaire.Definition
	detector    *questionnaire.Detector
	llmProvider llm.LLMProvider
	proposals   IProposalService
	artifacts   ArtifactStore
	logger      logger.ILogger
	cfg         ConversationServiceConfig
	clock       func() time.Time
}

func NewConversationService(
	uowFactory unitofwork.RepositoryFactory,
	store orchestrator.ConversationStore,
	resolver *questionnaire.Resolver,
	llmProvider llm.LLMProvider,
	proposals IProposalService,
	artifacts ArtifactStore,
	logger logger.ILogger,
	cfg ConversationServiceConfig,
) IConversationService {
	if cfg.IntakeMaxTokens <= 0 {
		cfg.IntakeMaxTokens = 600
	}
	return &conversationService{
		uowFactory:  uowFactory,
		store:       store,
		definition:  resolver.Definition(),
		detector:    questionnaire.NewDetector(resolver, logger),
		llmProvider: llmProvider,
		proposals:   proposals,
		artifacts:   artifacts,
		logger:      logger,
		cfg:         cfg,
		clock:       time.Now,
	}
}

func (s *conversationService) StartConversation(ctx context.Context, userId uuid.UUID, request *dto.StartConversationRequest) (*dto.ConversationResponse, error) {
	now := s.clock()

	meta := entity.NewConversationMetadata()
	meta.ClientName = strings.TrimSpace(request.ClientName)
	meta.UserName = meta.ClientName
	meta.UserEmail = strings.TrimSpace(request.Email)
	meta.UserLocation = strings.TrimSpace(request.Location)
	meta.CompanyName = strings.TrimSpace(request.CompanyName)
	s.prefillFromProfile(&meta, request)

	path := s.detector.EnsurePath(&meta)
	if next, ok := questionnaire.FirstUnanswered(path, meta.CollectedData); ok {
		meta.CurrentQuestionID = next
	}

	conv := &entity.Conversation{
		Id:        uuid.New(),
		UserId:    userId,
		Metadata:  meta,
		CreatedAt: now,
	}
	welcome := &entity.ConversationMessage{
		Id:             uuid.New(),
		ConversationId: conv.Id,
		Role:           constant.MessageRoleAssistant,
		Content:        s.welcomeMessage(&meta),
		CreatedAt:      now,
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	if err := uow.ConversationRepository().Create(ctx, conv); err != nil {
		return nil, err
	}
	if err := uow.ConversationMessageRepository().Create(ctx, welcome); err != nil {
		return nil, err
	}
	if err := uow.Commit(); err != nil {
		return nil, err
	}

	s.logger.Info("CONVERSATION", "Conversation started", map[string]interface{}{
		"conversation_id": conv.Id.String(),
		"user_id":         userId.String(),
		"sector":          meta.SelectedSector,
		"subsector":       meta.SelectedSubsector,
		"first_question":  meta.CurrentQuestionID,
	})

	conv.Messages = []*entity.ConversationMessage{welcome}
	return toConversationResponse(conv), nil
}

func (s *conversationService) SendMessage(ctx context.Context, userId uuid.UUID, request *dto.SendMessageRequest) (*dto.SendMessageResponse, error) {
	conv, err := s.loadOwned(ctx, userId, request.ConversationId)
	if err != nil {
		return nil, err
	}

	text := strings.TrimSpace(request.Message)
	userMsg, err := s.saveMessage(ctx, conv.Id, constant.MessageRoleUser, text)
	if err != nil {
		return nil, err
	}
	conv.Messages = append(conv.Messages, userMsg)

	if intent.IsDocumentRequest(text) || conv.Metadata.IsComplete {
		return s.handleDocumentRequest(ctx, conv)
	}

	var outcome answerOutcome
	var answeredID string
	err = s.store.UpdateMetadata(ctx, conv.Id, func(m *entity.ConversationMetadata) {
		answeredID = m.CurrentQuestionID
		outcome = s.applyAnswer(m, text)
		conv.Metadata = *m
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug("CONVERSATION", "Answer recorded", map[string]interface{}{
		"conversation_id": conv.Id.String(),
		"question_id":     answeredID,
		"next_question":   conv.Metadata.CurrentQuestionID,
		"complete":        outcome == answerCompleted,
	})

	switch outcome {
	case answerCompleted:
		return s.replyWithProposal(ctx, conv)
	case answerRejected:
		reply := fmt.Sprintf(constant.InvalidOptionMessage, s.questionPrompt(&conv.Metadata, conv.Metadata.CurrentQuestionID))
		return s.reply(ctx, conv, reply, dto.ActionNone, "")
	default:
		return s.reply(ctx, conv, s.nextTurn(ctx, conv), dto.ActionNone, "")
	}
}

// applyAnswer records text under the current question and advances the path.
func (s *conversationService) applyAnswer(m *entity.ConversationMetadata, text string) answerOutcome {
	path := s.detector.EnsurePath(m)
	qid := m.CurrentQuestionID
	if qid == "" {
		next, ok := questionnaire.FirstUnanswered(path, m.CollectedData)
		if !ok {
			return s.complete(m, path)
		}
		qid = next
		m.CurrentQuestionID = qid
	}

	switch qid {
	case questionnaire.SectorQuestionID:
		sector, ok := s.definition.MatchSector(text)
		if !ok {
			return answerRejected
		}
		if sector != m.SelectedSector {
			m.SelectedSubsector = ""
			delete(m.CollectedData, questionnaire.SubsectorQuestionID)
		}
		m.SelectedSector = sector
		m.RecordAnswer(qid, sector)
		m.QuestionnairePath = nil
	case questionnaire.SubsectorQuestionID:
		subsector, ok := s.definition.MatchSubsector(m.SelectedSector, text)
		if !ok {
			return answerRejected
		}
		m.SelectedSubsector = subsector
		m.RecordAnswer(qid, subsector)
		m.QuestionnairePath = nil
	default:
		m.RecordAnswer(qid, text)
	}

	if s.detector.IsLast(qid, m) {
		m.IsComplete = true
		return answerCompleted
	}

	next, ok := questionnaire.NextQuestion(m.QuestionnairePath, qid, m.CollectedData)
	if !ok {
		return s.complete(m, m.QuestionnairePath)
	}
	m.CurrentQuestionID = next
	return answerAdvanced
}

// complete handles a path with nothing left to ask.
func (s *conversationService) complete(m *entity.ConversationMetadata, path []string) answerOutcome {
	if len(path) == 0 {
		return answerRejected
	}
	m.CurrentQuestionID = path[len(path)-1]
	m.IsComplete = true
	return answerCompleted
}

func (s *conversationService) handleDocumentRequest(ctx context.Context, conv *entity.Conversation) (*dto.SendMessageResponse, error) {
	if conv.Metadata.IsComplete || conv.Metadata.HasProposal {
		return s.replyWithProposal(ctx, conv)
	}
	reply := fmt.Sprintf(constant.ProposalNotReadyMessage, s.questionPrompt(&conv.Metadata, conv.Metadata.CurrentQuestionID))
	return s.reply(ctx, conv, reply, dto.ActionNone, "")
}

func (s *conversationService) replyWithProposal(ctx context.Context, conv *entity.Conversation) (*dto.SendMessageResponse, error) {
	if _, err := s.proposals.Generate(ctx, conv.Id, 1); err != nil {
		s.logger.Warn("CONVERSATION", "Proposal not available", map[string]interface{}{
			"conversation_id": conv.Id.String(),
			"error":           err.Error(),
		})
		conv.Metadata.IsComplete = true
		conv.Metadata.HasProposal = false
		return s.reply(ctx, conv, constant.ProposalRetryMessage, dto.ActionRetryLater, "")
	}

	conv.Metadata.IsComplete = true
	conv.Metadata.HasProposal = true
	url := s.downloadURL(conv.Id)
	return s.reply(ctx, conv, fmt.Sprintf(constant.ProposalReadyMessage, url), dto.ActionDownloadProposal, url)
}

func (s *conversationService) reply(ctx context.Context, conv *entity.Conversation, text, action, url string) (*dto.SendMessageResponse, error) {
	msg, err := s.saveMessage(ctx, conv.Id, constant.MessageRoleAssistant, text)
	if err != nil {
		return nil, err
	}
	return &dto.SendMessageResponse{
		ConversationId: conv.Id,
		Message:        toMessageResponse(msg),
		IsComplete:     conv.Metadata.IsComplete,
		HasProposal:    conv.Metadata.HasProposal,
		Action:         action,
		DownloadURL:    url,
	}, nil
}

// nextTurn asks the intake model to phrase the next question, falling back to the plain question text.
func (s *conversationService) nextTurn(ctx context.Context, conv *entity.Conversation) string {
	meta := &conv.Metadata
	question := s.questionPrompt(meta, meta.CurrentQuestionID)
	fallback := fmt.Sprintf(constant.FallbackQuestionTemplate, question)
	if s.llmProvider == nil {
		return fallback
	}

	history := []llm.Message{{Role: llm.RoleSystem, Content: s.intakeSystemPrompt(meta, question)}}
	history = append(history, recentTurns(conv.Messages, constant.IntakeHistoryTurns)...)

	out, err := s.llmProvider.Chat(ctx, history,
		llm.WithMaxTokens(s.cfg.IntakeMaxTokens),
		llm.WithTemperature(constant.IntakeTemperature),
	)
	if err != nil || strings.TrimSpace(out) == "" {
		details := map[string]interface{}{"conversation_id": conv.Id.String()}
		if err != nil {
			details["error"] = err.Error()
		}
		s.logger.Warn("CONVERSATION", "Intake model unavailable, asking plain question", details)
		return fallback
	}
	return strings.TrimSpace(out)
}

func (s *conversationService) intakeSystemPrompt(meta *entity.ConversationMetadata, question string) string {
	return fmt.Sprintf(constant.IntakeSystemPromptTemplate,
		s.cfg.CompanyName,
		orNotProvided(meta.ClientName),
		orNotProvided(meta.UserEmail),
		orNotProvided(meta.UserLocation),
		orNotProvided(meta.CompanyName),
		orNotProvided(meta.SelectedSector),
		orNotProvided(meta.SelectedSubsector),
		s.collectedSummary(meta),
		meta.CurrentQuestionID,
		question,
	)
}

func (s *conversationService) collectedSummary(meta *entity.ConversationMetadata) string {
	if len(meta.CollectedData) == 0 {
		return "None yet."
	}
	var sb strings.Builder
	for _, id := range meta.QuestionnairePath {
		answer, ok := meta.CollectedData[id]
		if !ok {
			continue
		}
		text, _ := s.definition.QuestionText(id)
		fmt.Fprintf(&sb, "- %s: %s\n", text, answer)
	}
	if sb.Len() == 0 {
		return "None yet."
	}
	return strings.TrimSpace(sb.String())
}

// questionPrompt renders a question, listing numbered options for selection questions.
func (s *conversationService) questionPrompt(meta *entity.ConversationMetadata, id string) string {
	text, ok := s.definition.QuestionText(id)
	if !ok {
		return id
	}

	var options []string
	switch id {
	case questionnaire.SectorQuestionID:
		options = s.definition.SectorNames()
	case questionnaire.SubsectorQuestionID:
		options = s.definition.SubsectorNames(meta.SelectedSector)
	}
	if len(options) == 0 {
		return text
	}

	var sb strings.Builder
	sb.WriteString(text)
	for i, opt := range options {
		fmt.Fprintf(&sb, "\n%d. %s", i+1, opt)
	}
	sb.WriteString("\n\nYou can reply with just the number.")
	return sb.String()
}

func (s *conversationService) prefillFromProfile(meta *entity.ConversationMetadata, request *dto.StartConversationRequest) {
	record := func(id, answer string) {
		if answer == "" {
			return
		}
		if _, ok := s.definition.QuestionText(id); ok {
			meta.RecordAnswer(id, answer)
		}
	}

	name := meta.CompanyName
	if name == "" {
		name = meta.ClientName
	}
	record(questionClientName, name)
	record(questionLocation, meta.UserLocation)

	if sector, ok := s.definition.MatchSector(request.Sector); ok {
		meta.SelectedSector = sector
		record(questionnaire.SectorQuestionID, sector)
		if subsector, ok := s.definition.MatchSubsector(sector, request.Subsector); ok {
			meta.SelectedSubsector = subsector
			record(questionnaire.SubsectorQuestionID, subsector)
		}
	}
}

func (s *conversationService) welcomeMessage(meta *entity.ConversationMetadata) string {
	greeting := ""
	if meta.ClientName != "" {
		greeting = " " + meta.ClientName
	}

	var facts []string
	if meta.SelectedSector != "" {
		sector := meta.SelectedSector
		if meta.SelectedSubsector != "" {
			sector = fmt.Sprintf("%s (%s)", sector, meta.SelectedSubsector)
		}
		facts = append(facts, "you work in the "+sector+" sector")
	}
	if meta.UserLocation != "" {
		facts = append(facts, "your facility is in "+meta.UserLocation)
	}
	profile := ""
	if len(facts) > 0 {
		profile = fmt.Sprintf(constant.ProfileSummaryTemplate, strings.Join(facts, " and "))
	}

	return fmt.Sprintf(constant.WelcomeMessageTemplate,
		greeting,
		s.cfg.CompanyName,
		profile,
		s.questionPrompt(meta, meta.CurrentQuestionID),
	)
}

func (s *conversationService) ListConversations(ctx context.Context, userId uuid.UUID) ([]*dto.ConversationSummaryResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	convs, err := uow.ConversationRepository().FindAll(ctx,
		specification.ByUserID{UserID: userId},
		specification.OrderBy{Field: "created_at", Desc: true},
	)
	if err != nil {
		return nil, err
	}

	out := make([]*dto.ConversationSummaryResponse, 0, len(convs))
	for _, c := range convs {
		out = append(out, &dto.ConversationSummaryResponse{
			Id:          c.Id,
			ClientName:  c.Metadata.DisplayName(),
			Sector:      c.Metadata.SelectedSector,
			IsComplete:  c.Metadata.IsComplete,
			HasProposal: c.Metadata.HasProposal,
			CreatedAt:   c.CreatedAt,
			UpdatedAt:   c.UpdatedAt,
		})
	}
	return out, nil
}

func (s *conversationService) GetConversation(ctx context.Context, userId, conversationId uuid.UUID) (*dto.ConversationResponse, error) {
	conv, err := s.loadOwned(ctx, userId, conversationId)
	if err != nil {
		return nil, err
	}
	return toConversationResponse(conv), nil
}

func (s *conversationService) DeleteConversation(ctx context.Context, userId, conversationId uuid.UUID) error {
	conv, err := s.loadOwned(ctx, userId, conversationId)
	if err != nil {
		return err
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	if err := uow.ConversationMessageRepository().DeleteByConversationId(ctx, conversationId); err != nil {
		return err
	}
	if err := uow.ConversationRepository().Delete(ctx, conversationId); err != nil {
		return err
	}
	if err := uow.Commit(); err != nil {
		return err
	}
	s.proposals.Forget(conversationId)

	if ref := conv.Metadata.ArtifactRef(); ref != "" {
		if err := s.artifacts.Remove(ctx, ref); err != nil {
			s.logger.Warn("CONVERSATION", "Failed to remove proposal document", map[string]interface{}{
				"conversation_id": conversationId.String(),
				"artifact":        ref,
				"error":           err.Error(),
			})
		}
	}
	return nil
}

// DownloadProposal returns the conversation's document, generating it first
// when the questionnaire is complete but no valid document exists.
func (s *conversationService) DownloadProposal(ctx context.Context, userId, conversationId uuid.UUID) (*ProposalDownload, error) {
	conv, err := s.loadOwned(ctx, userId, conversationId)
	if err != nil {
		return nil, err
	}
	if !conv.Metadata.IsComplete && !conv.Metadata.HasProposal {
		return nil, ErrQuestionnaireOpen
	}

	res, err := s.proposals.Generate(ctx, conversationId, 1)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrProposalNotReady, err)
	}

	body, size, err := s.artifacts.Open(ctx, res.ArtifactRef)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrProposalNotReady, err)
	}
	if size == 0 {
		body.Close()
		return nil, ErrProposalNotReady
	}

	s.logger.Info("CONVERSATION", "Proposal download", map[string]interface{}{
		"conversation_id": conversationId.String(),
		"artifact":        res.ArtifactRef,
		"bytes":           size,
		"tier":            string(res.Tier),
	})
	return &ProposalDownload{
		FileName: ProposalFileName(conv),
		Size:     size,
		Body:     body,
	}, nil
}

// DiagnoseConversation reports and repairs inconsistent proposal flags.
func (s *conversationService) DiagnoseConversation(ctx context.Context, userId, conversationId uuid.UUID) (*dto.DiagnoseResponse, error) {
	conv, err := s.loadOwned(ctx, userId, conversationId)
	if err != nil {
		return nil, err
	}

	meta := conv.Metadata
	original := s.snapshot(ctx, &meta)
	repairs := []string{}

	if meta.HasProposal && !original.ArtifactExists {
		if err := s.store.UpdateMetadata(ctx, conversationId, func(m *entity.ConversationMetadata) {
			m.HasProposal = false
		}); err != nil {
			return nil, err
		}
		meta.HasProposal = false
		repairs = append(repairs, "has_proposal was set but the document is missing; flag cleared")
	}

	switch {
	case meta.IsComplete && !meta.HasProposal:
		res, err := s.proposals.Generate(ctx, conversationId, 1)
		switch {
		case err != nil:
			repairs = append(repairs, "questionnaire complete without a proposal; generation failed: "+err.Error())
		case res.Tier == orchestrator.TierExisting:
			repairs = append(repairs, "document existed but has_proposal was not set; flag repaired")
		default:
			repairs = append(repairs, fmt.Sprintf("questionnaire complete without a proposal; generated %s document", res.Tier))
		}
	case !meta.HasProposal && original.ArtifactExists:
		if err := s.store.UpdateMetadata(ctx, conversationId, func(m *entity.ConversationMetadata) {
			m.HasProposal = true
			m.IsComplete = true
		}); err != nil {
			return nil, err
		}
		repairs = append(repairs, "document existed but has_proposal was not set; flag repaired")
	}

	reloaded, err := s.store.Load(ctx, conversationId)
	if err != nil {
		return nil, err
	}

	message := "No repairs needed"
	if len(repairs) > 0 {
		message = "Diagnosis complete"
	}
	return &dto.DiagnoseResponse{
		Id:               conversationId,
		Original:         original,
		MessageCount:     len(conv.Messages),
		HasCollectedData: len(conv.Metadata.CollectedData) > 0,
		Repairs:          repairs,
		Final:            s.snapshot(ctx, &reloaded.Metadata),
		Message:          message,
	}, nil
}

func (s *conversationService) GetProposalStatus(ctx context.Context, userId, conversationId uuid.UUID) (*dto.ProposalStatusResponse, error) {
	conv, err := s.loadOwned(ctx, userId, conversationId)
	if err != nil {
		return nil, err
	}

	res := &dto.ProposalStatusResponse{
		ConversationId: conversationId,
		Status:         string(entity.GenerationPending),
		IsComplete:     conv.Metadata.IsComplete,
		HasProposal:    conv.Metadata.HasProposal,
	}
	if conv.Metadata.HasProposal {
		res.Status = string(entity.GenerationCompleted)
		res.UpdatedAt = conv.Metadata.ProposalGeneratedAt
	}
	if task, ok := s.proposals.Status(conversationId); ok {
		res.Status = string(task.Status)
		res.State = task.State
		res.Error = task.Error
		res.Attempts = task.Attempts
		updated := task.UpdatedAt
		res.UpdatedAt = &updated
	}
	return res, nil
}

func (s *conversationService) snapshot(ctx context.Context, meta *entity.ConversationMetadata) dto.ProposalSnapshot {
	ref := meta.ArtifactRef()
	exists := false
	if ref != "" {
		size, err := s.artifacts.Stat(ctx, ref)
		exists = err == nil && size > 0
	}
	return dto.ProposalSnapshot{
		IsComplete:        meta.IsComplete,
		HasProposal:       meta.HasProposal,
		ArtifactPath:      ref,
		ArtifactExists:    exists,
		HasProposalText:   strings.TrimSpace(meta.ProposalTextValue()) != "",
		CurrentQuestionID: meta.CurrentQuestionID,
	}
}

func (s *conversationService) loadOwned(ctx context.Context, userId, conversationId uuid.UUID) (*entity.Conversation, error) {
	conv, err := s.store.Load(ctx, conversationId)
	if err != nil {
		return nil, err
	}
	if conv.UserId != userId {
		s.logger.Warn("CONVERSATION", "Access to another user's conversation", map[string]interface{}{
			"conversation_id": conversationId.String(),
			"user_id":         userId.String(),
		})
		return nil, ErrForbidden
	}
	return conv, nil
}

func (s *conversationService) saveMessage(ctx context.Context, conversationId uuid.UUID, role, content string) (*entity.ConversationMessage, error) {
	msg := &entity.ConversationMessage{
		Id:             uuid.New(),
		ConversationId: conversationId,
		Role:           role,
		Content:        content,
		CreatedAt:      s.clock(),
	}
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.ConversationMessageRepository().Create(ctx, msg); err != nil {
		return nil, err
	}
	return msg, nil
}

func (s *conversationService) downloadURL(conversationId uuid.UUID) string {
	return fmt.Sprintf("%s/api/chat/v1/%s/download-pdf", strings.TrimRight(s.cfg.BaseURL, "/"), conversationId)
}

func recentTurns(messages []*entity.ConversationMessage, limit int) []llm.Message {
	turns := make([]llm.Message, 0, len(messages))
	for _, m := range messages {
		if m == nil || (m.Role != constant.MessageRoleUser && m.Role != constant.MessageRoleAssistant) {
			continue
		}
		turns = append(turns, llm.Message{Role: m.Role, Content: m.Content})
	}
	if len(turns) > limit {
		turns = turns[len(turns)-limit:]
	}
	return turns
}

func orNotProvided(v string) string {
	if strings.TrimSpace(v) == "" {
		return "Not provided"
	}
	return v
}

func toMessageResponse(m *entity.ConversationMessage) *dto.MessageResponse {
	return &dto.MessageResponse{
		Id:        m.Id,
		Role:      m.Role,
		Content:   m.Content,
		CreatedAt: m.CreatedAt,
	}
}

func toConversationResponse(c *entity.Conversation) *dto.ConversationResponse {
	messages := make([]*dto.MessageResponse, 0, len(c.Messages))
	for _, m := range c.Messages {
		if m == nil || m.Role == constant.MessageRoleSystem {
			continue
		}
		messages = append(messages, toMessageResponse(m))
	}
	sort.SliceStable(messages, func(i, j int) bool {
		return messages[i].CreatedAt.Before(messages[j].CreatedAt)
	})

	return &dto.ConversationResponse{
		Id: c.Id,
		State: dto.ConversationStateResponse{
			SelectedSector:    c.Metadata.SelectedSector,
			SelectedSubsector: c.Metadata.SelectedSubsector,
			CurrentQuestionID: c.Metadata.CurrentQuestionID,
			CollectedData:     c.Metadata.CollectedData,
			QuestionnairePath: c.Metadata.QuestionnairePath,
			IsComplete:        c.Metadata.IsComplete,
			HasProposal:       c.Metadata.HasProposal,
		},
		Messages:  messages,
		CreatedAt: c.CreatedAt,
	}
}

// IsNotFound reports whether err means the conversation does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrConversationNotFound)
}
