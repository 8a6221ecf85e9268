package entity

import (
	"time"

	"github.com/google/uuid"
)

type GenerationStatus string

const (
	GenerationPending   GenerationStatus = "pending"
	GenerationRunning   GenerationStatus = "running"
	GenerationCompleted GenerationStatus = "completed"
	GenerationFailed    GenerationStatus = "failed"
)

// GenerationTask tracks the latest document generation for a conversation.
type GenerationTask struct {
	ConversationId uuid.UUID
	Status         GenerationStatus
	State          string // last orchestrator state
	Error          string
	Attempts       int
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
