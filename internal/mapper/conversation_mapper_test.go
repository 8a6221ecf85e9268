package mapper

import (
	"testing"
	"time"

	"proposal-intake-be/internal/entity"
	"proposal-intake-be/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func TestConversationToModel_StampsSchemaVersion(t *testing.T) {
	m := NewConversationMapper()
	conv := &entity.Conversation{Id: uuid.New(), UserId: uuid.New()}

	got := m.ConversationToModel(conv)

	assert.Equal(t, entity.ConversationMetadataVersion, got.Metadata.Data().SchemaVersion)
	assert.False(t, got.DeletedAt.Valid)
}

func TestConversationToEntity_CarriesMetadataAndMessages(t *testing.T) {
	m := NewConversationMapper()
	id := uuid.New()
	text := "# Proposal"
	meta := entity.ConversationMetadata{
		SchemaVersion:  1,
		SelectedSector: "Food & Beverage",
		ProposalText:   &text,
	}
	row := &model.Conversation{
		Id:        id,
		Metadata:  datatypes.NewJSONType(meta),
		CreatedAt: time.Now(),
		DeletedAt: gorm.DeletedAt{Time: time.Now(), Valid: true},
		Messages: []*model.ConversationMessage{
			{Id: uuid.New(), ConversationId: id, Role: "user", Content: "hi"},
		},
	}

	got := m.ConversationToEntity(row)

	require.NotNil(t, got)
	assert.Equal(t, "Food & Beverage", got.Metadata.SelectedSector)
	assert.Equal(t, "# Proposal", got.Metadata.ProposalTextValue())
	assert.NotNil(t, got.Metadata.CollectedData)
	assert.True(t, got.IsDeleted)
	assert.Nil(t, got.UpdatedAt)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "hi", got.Messages[0].Content)
}

func TestNilInputs(t *testing.T) {
	m := NewConversationMapper()
	assert.Nil(t, m.ConversationToEntity(nil))
	assert.Nil(t, m.ConversationToModel(nil))
	assert.Nil(t, m.MessageToEntity(nil))
	assert.Nil(t, m.MessageToModel(nil))
}
