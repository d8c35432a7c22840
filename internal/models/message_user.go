package models

import (
	"time"
)

// MessageUser tracks whether a recipient has seen a message.
// A row exists for (message, user) exactly when the user is a recipient of the message.
type MessageUser struct {
	MessageID uint      `gorm:"primaryKey;autoIncrement:false" json:"message_id"`
	UserID    uint      `gorm:"primaryKey;autoIncrement:false;index" json:"user_id"`
	Seen      bool      `gorm:"not null;default:false;index" json:"seen"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Message Message `gorm:"foreignKey:MessageID;constraint:OnDelete:CASCADE" json:"-"`
	User    User    `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

func (MessageUser) TableName() string {
	return "message_users"
}

type SeenStatusResponse struct {
	MessageID uint `json:"message_id"`
	UserID    uint `json:"user_id"`
	Seen      bool `json:"seen"`
}
