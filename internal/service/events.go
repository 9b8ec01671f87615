package service

import (
	"time"

	"github.com/Abdou-Mdn/LinkUp-sub001/internal/models"
)

// Event is the outbound wire envelope for everything pushed over a live
// connection.
type Event struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

const (
	EventNewMessage    = "newMessage"
	EventEditMessage   = "editMessage"
	EventDeleteMessage = "deleteMessage"
	EventSeenMessages  = "seenMessages"
	EventTypingOn      = "typingOn"
	EventTypingOff     = "typingOff"
	EventOnlineUsers   = "onlineUsers"
	EventUserOffline   = "userOffline"
)

// Broadcaster is the fan-out contract: at-most-once, best-effort delivery
// to whichever of the given users currently hold a live connection.
// Implemented by the websocket hub; mocked in tests.
type Broadcaster interface {
	BroadcastToUsers(userIDs []uint, event Event)
	Broadcast(event Event)
}

type NewMessagePayload struct {
	Chat      models.ChatResponse    `json:"chat"`
	Message   models.MessageResponse `json:"message"`
	UpdatedAt time.Time              `json:"updated_at"`
}

type EditMessagePayload struct {
	ChatID    uint   `json:"chat_id"`
	MessageID uint   `json:"message_id"`
	Text      string `json:"text"`
}

type DeleteMessagePayload struct {
	ChatID    uint `json:"chat_id"`
	MessageID uint `json:"message_id"`
}

type SeenMessagesPayload struct {
	Chat   models.ChatResponse `json:"chat"`
	UserID uint                `json:"user_id"`
	SeenAt time.Time           `json:"seen_at"`
}

type TypingPayload struct {
	ChatID uint `json:"chat_id"`
	UserID uint `json:"user_id"`
}

type OnlineUsersPayload struct {
	UserIDs []uint `json:"user_ids"`
}

type UserOfflinePayload struct {
	UserID   uint      `json:"user_id"`
	LastSeen time.Time `json:"last_seen"`
}

// participantsExcept is the standard fan-out audience: every chat
// participant except the originator.
func participantsExcept(chat *models.Chat, excludeUserID uint) []uint {
	ids := make([]uint, 0, len(chat.Participants))
	for _, p := range chat.Participants {
		if p.UserID != excludeUserID {
			ids = append(ids, p.UserID)
		}
	}
	return ids
}
