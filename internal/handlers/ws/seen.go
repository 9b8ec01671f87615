package ws

import (
	"github.com/Abdou-Mdn/LinkUp-sub001/internal/service"
)

// MessageMarkSeen marks every message in the chat as seen by the actor.
// Other participants get the seen broadcast; the actor gets the refreshed
// chat snapshot back on its own connection.
type MessageMarkSeen struct {
	ChatID uint `json:"chat_id"`
}

func (msg *MessageMarkSeen) GetType() string {
	return "markSeen"
}

func (msg *MessageMarkSeen) Process(ctx *MessageContext) error {
	chat, seenAt, err := ctx.MessageService.MarkSeen(msg.ChatID, ctx.UserID)
	if err != nil {
		return err
	}
	// Echo the same timestamp the persisted rows and the broadcast carry.
	return ctx.Conn.WriteJSON(service.Event{
		Type: service.EventSeenMessages,
		Payload: service.SeenMessagesPayload{
			Chat:   *chat,
			UserID: ctx.UserID,
			SeenAt: seenAt,
		},
	})
}
