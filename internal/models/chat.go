package models

import (
	"fmt"
	"time"
)

type Chat struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	IsGroup bool   `gorm:"not null;default:false" json:"is_group"`
	GroupID *uint  `gorm:"uniqueIndex" json:"group_id,omitempty"`
	Group   *Group `gorm:"foreignKey:GroupID" json:"group,omitempty"`

	// PairKey is "min:max" of the two participant IDs for private chats,
	// nil for group chats. The unique index is what guarantees at most one
	// private chat per unordered pair under concurrent creation.
	PairKey *string `gorm:"uniqueIndex" json:"-"`

	LastMessageID *uint    `json:"last_message_id,omitempty"`
	LastMessage   *Message `gorm:"foreignKey:LastMessageID" json:"last_message,omitempty"`

	Participants []ChatParticipant `gorm:"foreignKey:ChatID" json:"participants"`
}

type ChatParticipant struct {
	ChatID uint `gorm:"primaryKey" json:"chat_id"`
	UserID uint `gorm:"primaryKey" json:"user_id"`

	User User `gorm:"foreignKey:UserID" json:"user"`
}

// PairKey normalizes an unordered participant pair into the unique lookup
// key for private chats.
func PairKey(a, b uint) string {
	if a > b {
		a, b = b, a
	}
	return fmt.Sprintf("%d:%d", a, b)
}

// ParticipantIDs returns the user IDs of every chat participant.
func (c *Chat) ParticipantIDs() []uint {
	ids := make([]uint, 0, len(c.Participants))
	for _, p := range c.Participants {
		ids = append(ids, p.UserID)
	}
	return ids
}

// HasParticipant reports whether userID belongs to the chat.
func (c *Chat) HasParticipant(userID uint) bool {
	for _, p := range c.Participants {
		if p.UserID == userID {
			return true
		}
	}
	return false
}

type ChatResponse struct {
	ID           uint             `json:"id"`
	IsGroup      bool             `json:"is_group"`
	Group        *GroupPreview    `json:"group,omitempty"`
	Participants []UserResponse   `json:"participants"`
	LastMessage  *MessageResponse `json:"last_message,omitempty"`
	UpdatedAt    time.Time        `json:"updated_at"`
}

func (c *Chat) ToResponse() ChatResponse {
	resp := ChatResponse{
		ID:        c.ID,
		IsGroup:   c.IsGroup,
		UpdatedAt: c.UpdatedAt,
	}
	if c.Group != nil {
		preview := c.Group.ToPreview()
		resp.Group = &preview
	}
	for i := range c.Participants {
		resp.Participants = append(resp.Participants, c.Participants[i].User.ToResponse())
	}
	if c.LastMessage != nil {
		m := c.LastMessage.ToResponse()
		resp.LastMessage = &m
	}
	return resp
}
