package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Message kinds and senders.
const (
	MessageTypeText  = "text"
	MessageTypeImage = "image"

	SenderUser = "user"
	SenderAI   = "ai"
)

// ChatMessage is one turn of the conversation. Metadata carries the
// structured analysis attached to assistant replies.
type ChatMessage struct {
	ID        uint64         `gorm:"primaryKey" json:"id"`
	UserID    uuid.UUID      `gorm:"type:uuid;not null;index:idx_chat_messages_user_created,priority:1" json:"user_id"`
	Content   string         `gorm:"type:text;not null" json:"content"`
	Type      string         `gorm:"type:varchar(16);not null;default:text" json:"type"`
	Sender    string         `gorm:"type:varchar(8);not null" json:"sender"`
	Metadata  datatypes.JSON `json:"metadata,omitempty" swaggertype:"object"`
	CreatedAt time.Time      `gorm:"index:idx_chat_messages_user_created,priority:2" json:"created_at"`
}
