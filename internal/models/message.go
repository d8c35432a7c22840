package models

import (
	"strings"
	"time"

	"gorm.io/datatypes"
)

// DateLayout is the wire format of Message.Date.
const DateLayout = "2006-01-02"

type MessageType string

const (
	TypeEmail           MessageType = "EMAIL"
	TypePhoneCall       MessageType = "PHONE_CALL"
	TypeMeeting         MessageType = "MEETING"
	TypeLinkedInPost    MessageType = "LINKEDIN_POST"
	TypeLinkedInMessage MessageType = "LINKEDIN_MESSAGE"
	TypeNewsletter      MessageType = "NEWSLETTER"
	TypeReminder        MessageType = "REMINDER"
	TypeOther           MessageType = "OTHER"
)

var messageTypes = []MessageType{
	TypeEmail, TypePhoneCall, TypeMeeting, TypeLinkedInPost,
	TypeLinkedInMessage, TypeNewsletter, TypeReminder, TypeOther,
}

func ParseMessageType(s string) (MessageType, bool) {
	t := MessageType(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range messageTypes {
		if t == known {
			return t, true
		}
	}
	return "", false
}

type PriorityLevel string

const (
	PriorityLow      PriorityLevel = "LOW"
	PriorityMedium   PriorityLevel = "MEDIUM"
	PriorityHigh     PriorityLevel = "HIGH"
	PriorityCritical PriorityLevel = "CRITICAL"
)

func ParsePriorityLevel(s string) (PriorityLevel, bool) {
	switch p := PriorityLevel(strings.ToUpper(strings.TrimSpace(s))); p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return p, true
	}
	return "", false
}

type Message struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Type          MessageType     `gorm:"type:varchar(30);not null" json:"type"`
	Description   string          `gorm:"type:text" json:"description"`
	Date          *datatypes.Date `gorm:"index" json:"date"`
	MandatoryFlag bool            `gorm:"not null;default:false" json:"mandatory_flag"`
	ClientName    string          `json:"client_name"`
	Designation   string          `json:"designation"`
	PriorityLevel PriorityLevel   `gorm:"type:varchar(10);not null;index" json:"priority_level"`

	// Seen is the legacy message-wide flag. Per-user state lives in MessageUser.
	Seen bool `gorm:"not null;default:false;index" json:"seen"`

	CompanyID *uint    `gorm:"index" json:"company_id"`
	Company   *Company `gorm:"foreignKey:CompanyID" json:"-"`

	Recipients []MessageRecipient `gorm:"foreignKey:MessageID" json:"-"`
}

// MessageRecipient lists the users a message is addressed to.
type MessageRecipient struct {
	MessageID uint      `gorm:"primaryKey;autoIncrement:false" json:"message_id"`
	UserID    uint      `gorm:"primaryKey;autoIncrement:false;index" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}

func (MessageRecipient) TableName() string {
	return "message_recipients"
}

type MessageResponse struct {
	ID            uint          `json:"id" msgpack:"id"`
	Type          MessageType   `json:"type" msgpack:"type"`
	Description   string        `json:"description" msgpack:"description"`
	Date          *string       `json:"date" msgpack:"date"`
	MandatoryFlag bool          `json:"mandatory_flag" msgpack:"mandatory_flag"`
	ClientName    string        `json:"client_name" msgpack:"client_name"`
	Designation   string        `json:"designation" msgpack:"designation"`
	PriorityLevel PriorityLevel `json:"priority_level" msgpack:"priority_level"`
	Seen          bool          `json:"seen" msgpack:"seen"`
	CompanyID     *uint         `json:"company_id" msgpack:"company_id"`
	UserIDs       []uint        `json:"user_ids" msgpack:"user_ids"`
	CreatedAt     time.Time     `json:"created_at" msgpack:"created_at"`
}

// DateString renders Date in DateLayout, or nil when unset.
func (m *Message) DateString() *string {
	if m.Date == nil {
		return nil
	}
	s := time.Time(*m.Date).Format(DateLayout)
	return &s
}

// RecipientIDs returns recipient user ids in assignment order.
func (m *Message) RecipientIDs() []uint {
	ids := make([]uint, 0, len(m.Recipients))
	for _, r := range m.Recipients {
		ids = append(ids, r.UserID)
	}
	return ids
}

func (m *Message) ToResponse() MessageResponse {
	return MessageResponse{
		ID:            m.ID,
		Type:          m.Type,
		Description:   m.Description,
		Date:          m.DateString(),
		MandatoryFlag: m.MandatoryFlag,
		ClientName:    m.ClientName,
		Designation:   m.Designation,
		PriorityLevel: m.PriorityLevel,
		Seen:          m.Seen,
		CompanyID:     m.CompanyID,
		UserIDs:       m.RecipientIDs(),
		CreatedAt:     m.CreatedAt,
	}
}

func MessagesToResponse(messages []Message) []MessageResponse {
	out := make([]MessageResponse, 0, len(messages))
	for i := range messages {
		out = append(out, messages[i].ToResponse())
	}
	return out
}

// NewDate truncates t to its calendar day.
func NewDate(t time.Time) *datatypes.Date {
	d := datatypes.Date(time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC))
	return &d
}
