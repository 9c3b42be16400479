package domain

import (
	"time"
)

// Chat is one messaging thread, unique per (phone, session). The last-*
// columns are denormalized for the conversation list in the UI.
type Chat struct {
	ID      int64  `gorm:"primaryKey" json:"id"`
	Phone   string `gorm:"type:varchar(30);not null;uniqueIndex:ux_chat_phone_session,priority:1" json:"phone"`
	Session string `gorm:"type:varchar(120);not null;uniqueIndex:ux_chat_phone_session,priority:2" json:"session"`

	Name        string        `gorm:"type:varchar(255)" json:"name"`
	PhotoURL    string        `gorm:"type:text" json:"photo_url"`
	LastMessage string        `gorm:"type:text" json:"last_message"`
	LastAt      *time.Time    `json:"last_at"`
	LastStatus  MessageStatus `gorm:"type:varchar(20)" json:"last_status"`
	UnreadCount int           `gorm:"not null;default:0" json:"unread_count"`

	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at"`
}

// Message is one chat message. It carries a dual identity: MessageID is
// the provider's numeric id used for replying, KeyID the provider-internal
// stanza id used for quote resolution. Different event shapes carry
// different ids, so lookups must try both.
type Message struct {
	ID        int64  `gorm:"primaryKey" json:"id"`
	MessageID int64  `gorm:"not null;uniqueIndex" json:"message_id"`
	KeyID     string `gorm:"type:varchar(120);index" json:"key_id"`
	ChatID    int64  `gorm:"index;not null" json:"chat_id"`

	Text     string        `gorm:"type:text" json:"text"`
	Status   MessageStatus `gorm:"type:varchar(20);not null" json:"status"`
	FromMe   bool          `gorm:"not null;default:false" json:"from_me"`
	Reaction *string       `gorm:"type:varchar(60)" json:"reaction"`

	MediaType string `gorm:"type:varchar(30)" json:"media_type"`
	MediaURL  string `gorm:"type:text" json:"media_url"`

	// QuotedID holds the local id of the replied-to message when the
	// stanza id resolved, otherwise the foreign id verbatim.
	QuotedID string `gorm:"type:varchar(120)" json:"quoted_id"`

	SentAt    time.Time  `json:"sent_at"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at"`
}
