package ws

import (
	"github.com/Abdou-Mdn/LinkUp-sub001/internal/service"
)

// MessageTypingOn signals the actor started typing in a chat. Typing
// frames are relayed to the other participants and never persisted.
type MessageTypingOn struct {
	ChatID uint `json:"chat_id"`
}

func (msg *MessageTypingOn) GetType() string {
	return service.EventTypingOn
}

func (msg *MessageTypingOn) Process(ctx *MessageContext) error {
	return ctx.MessageService.SendTyping(msg.ChatID, ctx.UserID, true)
}

// MessageTypingOff signals the actor stopped typing.
type MessageTypingOff struct {
	ChatID uint `json:"chat_id"`
}

func (msg *MessageTypingOff) GetType() string {
	return service.EventTypingOff
}

func (msg *MessageTypingOff) Process(ctx *MessageContext) error {
	return ctx.MessageService.SendTyping(msg.ChatID, ctx.UserID, false)
}
