package models

import (
	"time"
)

type Message struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	ChatID   uint `gorm:"not null;index" json:"chat_id"`
	SenderID uint `gorm:"not null;index" json:"sender_id"`
	Sender   User `gorm:"foreignKey:SenderID" json:"sender"`

	Text     string `gorm:"type:text" json:"text"`
	ImageURL string `json:"image_url"`

	ReplyToID *uint    `gorm:"index" json:"reply_to_id,omitempty"`
	ReplyTo   *Message `gorm:"foreignKey:ReplyToID" json:"reply_to,omitempty"`

	GroupInviteID *uint  `json:"group_invite_id,omitempty"`
	GroupInvite   *Group `gorm:"foreignKey:GroupInviteID" json:"group_invite,omitempty"`

	IsAnnouncement bool `gorm:"not null;default:false" json:"is_announcement"`
	IsEdited       bool `gorm:"not null;default:false" json:"is_edited"`
	// Soft delete: text and image are cleared, the row and its
	// references stay so reply chains and history remain valid.
	IsDeleted bool `gorm:"not null;default:false" json:"is_deleted"`

	SeenBy []MessageSeen `gorm:"foreignKey:MessageID" json:"seen_by"`
}

// MessageSeen is append-only, at most one row per (message, user). The
// sender's row is written at message creation.
type MessageSeen struct {
	MessageID uint      `gorm:"primaryKey" json:"message_id"`
	UserID    uint      `gorm:"primaryKey" json:"user_id"`
	SeenAt    time.Time `gorm:"autoCreateTime" json:"seen_at"`
}

// SeenByOther reports whether anyone besides the sender has seen the
// message. Gates the edit operation.
func (m *Message) SeenByOther() bool {
	for _, s := range m.SeenBy {
		if s.UserID != m.SenderID {
			return true
		}
	}
	return false
}

type MessageResponse struct {
	ID             uint              `json:"id"`
	ChatID         uint              `json:"chat_id"`
	Sender         UserResponse      `json:"sender"`
	Text           string            `json:"text"`
	ImageURL       string            `json:"image_url"`
	ReplyTo        *ReplyPreview     `json:"reply_to,omitempty"`
	GroupInvite    *GroupPreview     `json:"group_invite,omitempty"`
	IsAnnouncement bool              `json:"is_announcement"`
	IsEdited       bool              `json:"is_edited"`
	IsDeleted      bool              `json:"is_deleted"`
	SeenBy         []MessageSeenInfo `json:"seen_by"`
	CreatedAt      time.Time         `json:"created_at"`
}

// ReplyPreview is the second level of the bounded join: the replied-to
// message with its own sender summary, and nothing deeper.
type ReplyPreview struct {
	ID        uint         `json:"id"`
	Sender    UserResponse `json:"sender"`
	Text      string       `json:"text"`
	ImageURL  string       `json:"image_url"`
	IsDeleted bool         `json:"is_deleted"`
}

type MessageSeenInfo struct {
	UserID uint      `json:"user_id"`
	SeenAt time.Time `json:"seen_at"`
}

func (m *Message) ToResponse() MessageResponse {
	resp := MessageResponse{
		ID:             m.ID,
		ChatID:         m.ChatID,
		Sender:         m.Sender.ToResponse(),
		Text:           m.Text,
		ImageURL:       m.ImageURL,
		IsAnnouncement: m.IsAnnouncement,
		IsEdited:       m.IsEdited,
		IsDeleted:      m.IsDeleted,
		CreatedAt:      m.CreatedAt,
	}
	if m.ReplyTo != nil {
		resp.ReplyTo = &ReplyPreview{
			ID:        m.ReplyTo.ID,
			Sender:    m.ReplyTo.Sender.ToResponse(),
			Text:      m.ReplyTo.Text,
			ImageURL:  m.ReplyTo.ImageURL,
			IsDeleted: m.ReplyTo.IsDeleted,
		}
	}
	if m.GroupInvite != nil {
		preview := m.GroupInvite.ToPreview()
		resp.GroupInvite = &preview
	}
	for _, s := range m.SeenBy {
		resp.SeenBy = append(resp.SeenBy, MessageSeenInfo{UserID: s.UserID, SeenAt: s.SeenAt})
	}
	return resp
}
