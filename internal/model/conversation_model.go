package model

import (
	"time"

	"proposal-intake-be/internal/entity"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Conversation struct {
	Id        uuid.UUID                                       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserId    uuid.UUID                                       `gorm:"type:uuid;not null;index"`
	Metadata  datatypes.JSONType[entity.ConversationMetadata] `gorm:"type:jsonb;not null"`
	CreatedAt time.Time                                       `gorm:"autoCreateTime"`
	UpdatedAt time.Time                                       `gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt                                  `gorm:"index"`

	Messages []*ConversationMessage `gorm:"foreignKey:ConversationId"`
}

func (Conversation) TableName() string {
	return "conversations"
}
