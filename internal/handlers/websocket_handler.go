package handlers

import (
	"log"
	"os"

	"github.com/Abdou-Mdn/LinkUp-sub001/internal/cache"
	"github.com/Abdou-Mdn/LinkUp-sub001/internal/handlers/ws"
	"github.com/Abdou-Mdn/LinkUp-sub001/internal/service"
	"github.com/gofiber/websocket/v2"
)

type WebSocketHandler struct {
	chatService    *service.ChatService
	messageService *service.MessageService
	userService    *service.UserService
	hub            *ws.Hub
	userCache      *cache.UserCache
}

func NewWebSocketHandler(hub *ws.Hub, chatService *service.ChatService, messageService *service.MessageService, userService *service.UserService, userCache *cache.UserCache) *WebSocketHandler {
	return &WebSocketHandler{
		chatService:    chatService,
		messageService: messageService,
		userService:    userService,
		hub:            hub,
		userCache:      userCache,
	}
}

// GetHub returns the hub instance (useful for sending messages from other handlers)
func (h *WebSocketHandler) GetHub() *ws.Hub {
	return h.hub
}

func (h *WebSocketHandler) HandleWebSocket(c *websocket.Conn) {
	userID := c.Locals("userID").(uint)
	wsDebug := os.Getenv("WS_DEBUG") == "true"

	// Register in the hub. A newer connection for the same user evicts the
	// previous one and the online snapshot is rebroadcast.
	h.hub.Register(userID, c)

	go func() {
		if err := h.userCache.SetUserOnline(userID); err != nil {
			log.Printf("Failed to set user %d online in cache: %v", userID, err)
		}
	}()

	defer func() {
		// Drop only removes this connection; a replacement registered in
		// the meantime stays.
		h.hub.Drop(userID, c)
		if h.hub.IsOnline(userID) {
			return
		}

		go func() {
			if err := h.userCache.SetUserOffline(userID); err != nil {
				log.Printf("Failed to set user %d offline in cache: %v", userID, err)
			}
			lastSeen, err := h.userService.SetUserOffline(userID)
			if err != nil {
				log.Printf("Failed to stamp last_seen for user %d: %v", userID, err)
				return
			}
			h.hub.Broadcast(service.Event{
				Type:    service.EventUserOffline,
				Payload: service.UserOfflinePayload{UserID: userID, LastSeen: lastSeen},
			})
		}()
	}()

	log.Printf("User %d connected via WebSocket", userID)

	ctx := &ws.MessageContext{
		UserID:         userID,
		Conn:           c,
		Hub:            h.hub,
		ChatService:    h.chatService,
		MessageService: h.messageService,
		UserService:    h.userService,
	}

	for {
		messageType, messageBytes, err := c.ReadMessage()
		if err != nil {
			break
		}

		if wsDebug {
			log.Printf("ws_recv user_id=%d frame_type=%d size=%d", userID, messageType, len(messageBytes))
		}

		msg, err := ws.Deserialize(messageBytes)
		if err != nil {
			log.Printf("Error deserializing message from user %d: %v", userID, err)
			ws.SendError(c, "invalid_message", "Invalid message format", err.Error())
			continue
		}

		if err := msg.Process(ctx); err != nil {
			log.Printf("Error processing message %s from user %d: %v", msg.GetType(), userID, err)
			ws.SendError(c, "processing_failed", "Failed to process message", err.Error())
		}
	}

	log.Printf("User %d disconnected from WebSocket", userID)
}
