package ws

import (
	"encoding/json"

	"github.com/Abdou-Mdn/LinkUp-sub001/internal/service"
)

// MessageContext provides all dependencies needed for message processing
type MessageContext struct {
	UserID         uint
	Conn           Conn
	Hub            *Hub
	ChatService    *service.ChatService
	MessageService *service.MessageService
	UserService    *service.UserService
}

// Message interface for all inbound WebSocket frames
type Message interface {
	GetType() string
	Process(ctx *MessageContext) error
}

// SerializedMessage is the wire format wrapper
type SerializedMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// ErrorResponse is sent when message processing fails
type ErrorResponse struct {
	Type    string `json:"type"`
	Error   string `json:"error"`
	Code    string `json:"code"`
	Details string `json:"details,omitempty"`
}

// SendError sends an error response to the client
func SendError(conn Conn, code, message, details string) error {
	errResp := ErrorResponse{
		Type:    "error",
		Error:   message,
		Code:    code,
		Details: details,
	}
	return conn.WriteJSON(errResp)
}
