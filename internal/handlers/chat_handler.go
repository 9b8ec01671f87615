package handlers

import (
	"github.com/Abdou-Mdn/LinkUp-sub001/internal/httpx"
	"github.com/Abdou-Mdn/LinkUp-sub001/internal/service"
	"github.com/gofiber/fiber/v2"
)

type ChatHandler struct {
	chatService *service.ChatService
}

func NewChatHandler(chatService *service.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

// ListChats returns the caller's chats ordered by recent activity.
func (h *ChatHandler) ListChats(c *fiber.Ctx) error {
	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	chats, err := h.chatService.ListChats(userID)
	if err != nil {
		return httpx.Internal(c, "fetch_chats_failed")
	}
	return c.JSON(fiber.Map{"chats": chats, "count": len(chats)})
}

// ResolvePrivateChat finds or creates the one private chat with the given
// user. Repeated calls for the same pair return the same chat.
func (h *ChatHandler) ResolvePrivateChat(c *fiber.Ctx) error {
	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	var input struct {
		UserID uint `json:"user_id"`
	}
	if err := c.BodyParser(&input); err != nil {
		return httpx.BadRequest(c, "invalid_request_body", "Invalid request body")
	}
	if input.UserID == 0 {
		return httpx.BadRequest(c, "missing_user", "user_id is required")
	}

	chat, err := h.chatService.ResolvePrivateChat(userID, input.UserID)
	if err != nil {
		return httpx.FromError(c, "resolve_chat_failed", err)
	}
	return c.JSON(chat.ToResponse())
}

func (h *ChatHandler) GetChat(c *fiber.Ctx) error {
	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}
	chatID, err := paramUint(c, "id")
	if err != nil {
		return httpx.BadRequest(c, "invalid_chat_id", "Invalid chat id")
	}

	chat, err := h.chatService.GetChatForUser(chatID, userID)
	if err != nil {
		return httpx.FromError(c, "fetch_chat_failed", err)
	}
	return c.JSON(chat.ToResponse())
}
