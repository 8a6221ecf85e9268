package dto

import (
	"time"

	"github.com/google/uuid"
)

type StartConversationRequest struct {
	ClientName  string `json:"client_name" validate:"omitempty,max=200"`
	CompanyName string `json:"company_name" validate:"omitempty,max=200"`
	Email       string `json:"email" validate:"omitempty,email"`
	Location    string `json:"location" validate:"omitempty,max=200"`
	Sector      string `json:"sector" validate:"omitempty,max=100"`
	Subsector   string `json:"subsector" validate:"omitempty,max=100"`
}

type SendMessageRequest struct {
	ConversationId uuid.UUID `json:"conversation_id" validate:"required"`
	Message        string    `json:"message" validate:"required,max=4000"`
}

type MessageResponse struct {
	Id        uuid.UUID `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

type ConversationStateResponse struct {
	SelectedSector    string            `json:"selected_sector,omitempty"`
	SelectedSubsector string            `json:"selected_subsector,omitempty"`
	CurrentQuestionID string            `json:"current_question_id,omitempty"`
	CollectedData     map[string]string `json:"collected_data,omitempty"`
	QuestionnairePath []string          `json:"questionnaire_path,omitempty"`
	IsComplete        bool              `json:"is_complete"`
	HasProposal       bool              `json:"has_proposal"`
}

type ConversationResponse struct {
	Id        uuid.UUID                 `json:"id"`
	State     ConversationStateResponse `json:"state"`
	Messages  []*MessageResponse        `json:"messages"`
	CreatedAt time.Time                 `json:"created_at"`
}

type ConversationSummaryResponse struct {
	Id          uuid.UUID  `json:"id"`
	ClientName  string     `json:"client_name"`
	Sector      string     `json:"sector,omitempty"`
	IsComplete  bool       `json:"is_complete"`
	HasProposal bool       `json:"has_proposal"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
}

// Message actions tell the client what to render next to the reply.
const (
	ActionNone             = ""
	ActionDownloadProposal = "download_proposal"
	ActionRetryLater       = "retry_later"
)

type SendMessageResponse struct {
	ConversationId uuid.UUID        `json:"conversation_id"`
	Message        *MessageResponse `json:"message"`
	IsComplete     bool             `json:"is_complete"`
	HasProposal    bool             `json:"has_proposal"`
	Action         string           `json:"action,omitempty"`
	DownloadURL    string           `json:"download_url,omitempty"`
}

type ProposalSnapshot struct {
	IsComplete        bool   `json:"is_complete"`
	HasProposal       bool   `json:"has_proposal"`
	ArtifactPath      string `json:"artifact_path,omitempty"`
	ArtifactExists    bool   `json:"artifact_exists"`
	HasProposalText   bool   `json:"has_proposal_text"`
	CurrentQuestionID string `json:"current_question_id,omitempty"`
}

type DiagnoseResponse struct {
	Id               uuid.UUID        `json:"id"`
	Original         ProposalSnapshot `json:"original_state"`
	MessageCount     int              `json:"message_count"`
	HasCollectedData bool             `json:"has_collected_data"`
	Repairs          []string         `json:"repairs"`
	Final            ProposalSnapshot `json:"final_state"`
	Message          string           `json:"message"`
}

type ProposalStatusResponse struct {
	ConversationId uuid.UUID  `json:"conversation_id"`
	Status         string     `json:"status"`
	State          string     `json:"state,omitempty"`
	Error          string     `json:"error,omitempty"`
	Attempts       int        `json:"attempts"`
	IsComplete     bool       `json:"is_complete"`
	HasProposal    bool       `json:"has_proposal"`
	UpdatedAt      *time.Time `json:"updated_at,omitempty"`
}

type ProposalRetryMessage struct {
	ConversationId uuid.UUID `json:"conversation_id"`
	Attempt        int       `json:"attempt"`
}
