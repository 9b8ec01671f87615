package handlers

import (
	"strconv"

	"github.com/Abdou-Mdn/LinkUp-sub001/internal/httpx"
	"github.com/Abdou-Mdn/LinkUp-sub001/internal/service"
	"github.com/gofiber/fiber/v2"
)

type UserHandler struct {
	userService *service.UserService
}

func NewUserHandler(userService *service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

func paramUint(c *fiber.Ctx, name string) (uint, error) {
	v, err := strconv.ParseUint(c.Params(name), 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(v), nil
}

func (h *UserHandler) GetCurrentUser(c *fiber.Ctx) error {
	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	user, err := h.userService.GetUser(userID)
	if err != nil {
		return httpx.FromError(c, "fetch_user_failed", err)
	}
	return c.JSON(user.ToResponse())
}

func (h *UserHandler) GetUser(c *fiber.Ctx) error {
	if _, err := httpx.LocalUint(c, "userID"); err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}
	id, err := paramUint(c, "id")
	if err != nil {
		return httpx.BadRequest(c, "invalid_user_id", "Invalid user id")
	}

	user, err := h.userService.GetUser(id)
	if err != nil {
		return httpx.FromError(c, "fetch_user_failed", err)
	}
	return c.JSON(user.ToResponse())
}

func (h *UserHandler) ListFriends(c *fiber.Ctx) error {
	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	friends, err := h.userService.ListFriends(userID)
	if err != nil {
		return httpx.Internal(c, "fetch_friends_failed")
	}
	return c.JSON(fiber.Map{"friends": friends, "count": len(friends)})
}

func (h *UserHandler) ListFriendRequests(c *fiber.Ctx) error {
	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	incoming, err := h.userService.ListIncomingRequests(userID)
	if err != nil {
		return httpx.Internal(c, "fetch_requests_failed")
	}
	outgoing, err := h.userService.ListOutgoingRequests(userID)
	if err != nil {
		return httpx.Internal(c, "fetch_requests_failed")
	}
	return c.JSON(fiber.Map{"incoming": incoming, "outgoing": outgoing})
}

func (h *UserHandler) SendFriendRequest(c *fiber.Ctx) error {
	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}
	targetID, err := paramUint(c, "id")
	if err != nil {
		return httpx.BadRequest(c, "invalid_user_id", "Invalid user id")
	}

	if err := h.userService.SendFriendRequest(userID, targetID); err != nil {
		return httpx.FromError(c, "send_request_failed", err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"ok": true})
}

func (h *UserHandler) AcceptFriendRequest(c *fiber.Ctx) error {
	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}
	fromID, err := paramUint(c, "id")
	if err != nil {
		return httpx.BadRequest(c, "invalid_user_id", "Invalid user id")
	}

	if err := h.userService.AcceptFriendRequest(userID, fromID); err != nil {
		return httpx.FromError(c, "accept_request_failed", err)
	}
	return c.JSON(fiber.Map{"ok": true})
}

func (h *UserHandler) DeclineFriendRequest(c *fiber.Ctx) error {
	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}
	fromID, err := paramUint(c, "id")
	if err != nil {
		return httpx.BadRequest(c, "invalid_user_id", "Invalid user id")
	}

	if err := h.userService.DeclineFriendRequest(userID, fromID); err != nil {
		return httpx.FromError(c, "decline_request_failed", err)
	}
	return c.JSON(fiber.Map{"ok": true})
}

func (h *UserHandler) CancelFriendRequest(c *fiber.Ctx) error {
	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}
	toID, err := paramUint(c, "id")
	if err != nil {
		return httpx.BadRequest(c, "invalid_user_id", "Invalid user id")
	}

	if err := h.userService.CancelFriendRequest(userID, toID); err != nil {
		return httpx.FromError(c, "cancel_request_failed", err)
	}
	return c.JSON(fiber.Map{"ok": true})
}

func (h *UserHandler) RemoveFriend(c *fiber.Ctx) error {
	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}
	friendID, err := paramUint(c, "id")
	if err != nil {
		return httpx.BadRequest(c, "invalid_user_id", "Invalid user id")
	}

	if err := h.userService.RemoveFriend(userID, friendID); err != nil {
		return httpx.FromError(c, "remove_friend_failed", err)
	}
	return c.JSON(fiber.Map{"ok": true})
}

func (h *UserHandler) DeleteAccount(c *fiber.Ctx) error {
	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	if err := h.userService.DeleteAccount(userID); err != nil {
		return httpx.FromError(c, "delete_account_failed", err)
	}
	return c.JSON(fiber.Map{"ok": true})
}
