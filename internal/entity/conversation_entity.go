package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// ConversationMetadataVersion is bumped whenever ConversationMetadata changes shape.
const ConversationMetadataVersion = 1

type Conversation struct {
	Id        uuid.UUID
	UserId    uuid.UUID
	Metadata  ConversationMetadata
	Messages  []*ConversationMessage
	CreatedAt time.Time
	UpdatedAt *time.Time
	DeletedAt *time.Time
	IsDeleted bool
}

type ConversationMessage struct {
	Id             uuid.UUID
	ConversationId uuid.UUID
	Role           string
	Content        string
	CreatedAt      time.Time
}

// ConversationMetadata is the typed, versioned replacement for the free-form
// metadata map stored on a conversation.
type ConversationMetadata struct {
	SchemaVersion int `json:"schema_version"`

	ClientName   string `json:"client_name,omitempty"`
	UserName     string `json:"user_name,omitempty"`
	UserEmail    string `json:"user_email,omitempty"`
	UserLocation string `json:"user_location,omitempty"`
	CompanyName  string `json:"company_name,omitempty"`

	SelectedSector         string            `json:"selected_sector,omitempty"`
	SelectedSubsector      string            `json:"selected_subsector,omitempty"`
	CurrentQuestionID      string            `json:"current_question_id,omitempty"`
	CollectedData          map[string]string `json:"collected_data,omitempty"`
	QuestionnairePath      []string          `json:"questionnaire_path,omitempty"`
	IsComplete             bool              `json:"is_complete"`
	HasProposal            bool              `json:"has_proposal"`
	ProposalText           *string           `json:"proposal_text,omitempty"`
	ArtifactPath           *string           `json:"artifact_path,omitempty"`
	LastGenerationError    string            `json:"last_generation_error,omitempty"`
	LastGenerationAttempt  *time.Time        `json:"last_generation_attempt,omitempty"`
	ProposalGeneratedAt    *time.Time        `json:"proposal_generated_at,omitempty"`
	ProposalEmergencyIssue bool              `json:"proposal_emergency,omitempty"`
}

func NewConversationMetadata() ConversationMetadata {
	return ConversationMetadata{
		SchemaVersion: ConversationMetadataVersion,
		CollectedData: make(map[string]string),
	}
}

func (m *ConversationMetadata) Selection() (string, string) {
	return m.SelectedSector, m.SelectedSubsector
}

func (m *ConversationMetadata) CachedPath() []string {
	return m.QuestionnairePath
}

func (m *ConversationMetadata) CachePath(path []string) {
	m.QuestionnairePath = append([]string(nil), path...)
}

// RecordAnswer stores an answer under its question id, overwriting any earlier answer.
func (m *ConversationMetadata) RecordAnswer(questionID, answer string) {
	if questionID == "" {
		return
	}
	if m.CollectedData == nil {
		m.CollectedData = make(map[string]string)
	}
	m.CollectedData[questionID] = answer
}

func (m *ConversationMetadata) ProposalTextValue() string {
	if m.ProposalText == nil {
		return ""
	}
	return *m.ProposalText
}

func (m *ConversationMetadata) ArtifactRef() string {
	if m.ArtifactPath == nil {
		return ""
	}
	return *m.ArtifactPath
}

// DisplayName picks the best available name for documents and file names.
func (m *ConversationMetadata) DisplayName() string {
	for _, v := range []string{m.ClientName, m.CompanyName, m.UserName} {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}
