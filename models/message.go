package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Message is either a direct message (ReceiverID set) or a group message
// (GroupID set), never both
type Message struct {
	ID         string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	SenderID   string    `gorm:"not null;index;type:varchar(36)" json:"senderId"`
	Sender     *User     `gorm:"foreignKey:SenderID" json:"sender,omitempty"`
	ReceiverID *string   `gorm:"index;type:varchar(36)" json:"receiverId,omitempty"`
	GroupID    *string   `gorm:"index" json:"groupId,omitempty"`
	Content    string    `gorm:"type:text;not null" json:"content"`
	IsRead     bool      `gorm:"not null;default:false" json:"isRead"`
	CreatedAt  time.Time `gorm:"index" json:"createdAt"`
}

// TableName specifies the table name for the Message model
func (Message) TableName() string {
	return "messages"
}

// BeforeCreate assigns a UUID when the caller did not supply one
func (m *Message) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}

// IsDirect reports whether the message targets a single receiver
func (m *Message) IsDirect() bool {
	return m.ReceiverID != nil
}
