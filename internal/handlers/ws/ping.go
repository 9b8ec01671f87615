package ws

import (
	"github.com/Abdou-Mdn/LinkUp-sub001/internal/service"
)

// MessagePing is a client keepalive. The server answers with a pong event
// on the same connection.
type MessagePing struct{}

func (msg *MessagePing) GetType() string {
	return "ping"
}

func (msg *MessagePing) Process(ctx *MessageContext) error {
	return ctx.Conn.WriteJSON(service.Event{Type: "pong"})
}

// MessagePong acknowledges a keepalive sent the other way; nothing to do.
type MessagePong struct{}

func (msg *MessagePong) GetType() string {
	return "pong"
}

func (msg *MessagePong) Process(ctx *MessageContext) error {
	return nil
}
