package handlers

import (
	"io"
	"strconv"
	"strings"

	"github.com/Abdou-Mdn/LinkUp-sub001/internal/httpx"
	"github.com/Abdou-Mdn/LinkUp-sub001/internal/service"
	"github.com/gofiber/fiber/v2"
)

type MessageHandler struct {
	messageService *service.MessageService
}

func NewMessageHandler(messageService *service.MessageService) *MessageHandler {
	return &MessageHandler{messageService: messageService}
}

func formUintPtr(c *fiber.Ctx, name string) (*uint, error) {
	raw := strings.TrimSpace(c.FormValue(name))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return nil, err
	}
	u := uint(v)
	return &u, nil
}

// SendMessage accepts JSON for text-only messages and multipart form data
// when an image is attached.
func (h *MessageHandler) SendMessage(c *fiber.Ctx) error {
	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	var input service.SendMessageInput
	if strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		input.Text = c.FormValue("text")
		if input.ChatID, err = formUintPtr(c, "chat_id"); err != nil {
			return httpx.BadRequest(c, "invalid_chat_id", "Invalid chat_id")
		}
		if input.RecipientID, err = formUintPtr(c, "recipient_id"); err != nil {
			return httpx.BadRequest(c, "invalid_recipient", "Invalid recipient_id")
		}
		if input.ReplyToID, err = formUintPtr(c, "reply_to_id"); err != nil {
			return httpx.BadRequest(c, "invalid_reply_to", "Invalid reply_to_id")
		}
		if input.GroupInviteID, err = formUintPtr(c, "group_invite_id"); err != nil {
			return httpx.BadRequest(c, "invalid_group_invite", "Invalid group_invite_id")
		}

		if fileHeader, err := c.FormFile("image"); err == nil {
			file, err := fileHeader.Open()
			if err != nil {
				return httpx.BadRequest(c, "invalid_image", "Could not read image")
			}
			data, err := io.ReadAll(file)
			_ = file.Close()
			if err != nil {
				return httpx.BadRequest(c, "invalid_image", "Could not read image")
			}
			input.Image = data
		}
	} else {
		if err := c.BodyParser(&input); err != nil {
			return httpx.BadRequest(c, "invalid_request_body", "Invalid request body")
		}
	}

	if input.ChatID == nil && input.RecipientID == nil {
		return httpx.BadRequest(c, "missing_target", "chat_id or recipient_id is required")
	}

	chat, message, err := h.messageService.SendMessage(c.Context(), userID, input)
	if err != nil {
		return httpx.FromError(c, "send_message_failed", err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"chat":    chat,
		"message": message,
	})
}

func (h *MessageHandler) EditMessage(c *fiber.Ctx) error {
	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}
	messageID, err := paramUint(c, "id")
	if err != nil {
		return httpx.BadRequest(c, "invalid_message_id", "Invalid message id")
	}

	var input struct {
		Text string `json:"text"`
	}
	if err := c.BodyParser(&input); err != nil {
		return httpx.BadRequest(c, "invalid_request_body", "Invalid request body")
	}

	message, err := h.messageService.EditMessage(userID, messageID, input.Text)
	if err != nil {
		return httpx.FromError(c, "edit_message_failed", err)
	}
	return c.JSON(message)
}

func (h *MessageHandler) DeleteMessage(c *fiber.Ctx) error {
	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}
	messageID, err := paramUint(c, "id")
	if err != nil {
		return httpx.BadRequest(c, "invalid_message_id", "Invalid message id")
	}

	if err := h.messageService.DeleteMessage(userID, messageID); err != nil {
		return httpx.FromError(c, "delete_message_failed", err)
	}
	return c.JSON(fiber.Map{"ok": true})
}

func (h *MessageHandler) MarkSeen(c *fiber.Ctx) error {
	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}
	chatID, err := paramUint(c, "id")
	if err != nil {
		return httpx.BadRequest(c, "invalid_chat_id", "Invalid chat id")
	}

	chat, seenAt, err := h.messageService.MarkSeen(chatID, userID)
	if err != nil {
		return httpx.FromError(c, "mark_seen_failed", err)
	}
	return c.JSON(fiber.Map{"chat": chat, "seen_at": seenAt})
}

func (h *MessageHandler) GetMessages(c *fiber.Ctx) error {
	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}
	chatID, err := paramUint(c, "id")
	if err != nil {
		return httpx.BadRequest(c, "invalid_chat_id", "Invalid chat id")
	}

	var cursor uint
	if cursorStr := c.Query("cursor"); cursorStr != "" {
		v, err := strconv.ParseUint(cursorStr, 10, 32)
		if err != nil {
			return httpx.BadRequest(c, "invalid_cursor", "Invalid cursor")
		}
		cursor = uint(v)
	}

	limit := 50
	if limitStr := c.Query("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 100 {
			limit = l
		}
	}

	messages, err := h.messageService.ListMessages(chatID, userID, cursor, limit)
	if err != nil {
		return httpx.FromError(c, "fetch_messages_failed", err)
	}

	result := fiber.Map{
		"messages": messages,
		"count":    len(messages),
	}
	if len(messages) > 0 {
		// Messages are chronological; the first element (oldest in this
		// page) is the cursor for loading older history.
		result["next_cursor"] = messages[0].ID
	}
	return c.JSON(result)
}
