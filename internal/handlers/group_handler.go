package handlers

import (
	"io"
	"strings"

	"github.com/Abdou-Mdn/LinkUp-sub001/internal/httpx"
	"github.com/Abdou-Mdn/LinkUp-sub001/internal/service"
	"github.com/gofiber/fiber/v2"
)

type GroupHandler struct {
	groupService *service.GroupService
	uploader     service.Uploader
}

func NewGroupHandler(groupService *service.GroupService, uploader service.Uploader) *GroupHandler {
	return &GroupHandler{groupService: groupService, uploader: uploader}
}

func (h *GroupHandler) CreateGroup(c *fiber.Ctx) error {
	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	var input service.CreateGroupInput
	if err := c.BodyParser(&input); err != nil {
		return httpx.BadRequest(c, "invalid_request_body", "Invalid request body")
	}

	group, err := h.groupService.CreateGroup(userID, input)
	if err != nil {
		return httpx.FromError(c, "create_group_failed", err)
	}
	return c.Status(fiber.StatusCreated).JSON(group)
}

func (h *GroupHandler) GetGroup(c *fiber.Ctx) error {
	if _, err := httpx.LocalUint(c, "userID"); err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}
	groupID, err := paramUint(c, "id")
	if err != nil {
		return httpx.BadRequest(c, "invalid_group_id", "Invalid group id")
	}

	group, err := h.groupService.GetGroup(groupID)
	if err != nil {
		return httpx.FromError(c, "fetch_group_failed", err)
	}
	return c.JSON(group.ToResponse())
}

// UpdateGroup patches profile fields. Image and banner arrive either as
// URLs in a JSON body or as multipart files, which are uploaded first.
func (h *GroupHandler) UpdateGroup(c *fiber.Ctx) error {
	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}
	groupID, err := paramUint(c, "id")
	if err != nil {
		return httpx.BadRequest(c, "invalid_group_id", "Invalid group id")
	}

	var input service.UpdateGroupInput
	if strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		if name := c.FormValue("name"); name != "" {
			input.Name = &name
		}
		if desc := c.FormValue("description"); desc != "" {
			input.Description = &desc
		}
		for _, field := range []struct {
			form string
			dst  **string
		}{
			{"image", &input.Image},
			{"banner", &input.Banner},
		} {
			fileHeader, err := c.FormFile(field.form)
			if err != nil {
				continue
			}
			if h.uploader == nil {
				return httpx.BadGateway(c, "upload_unavailable", "Image storage unavailable")
			}
			file, err := fileHeader.Open()
			if err != nil {
				return httpx.BadRequest(c, "invalid_image", "Could not read "+field.form)
			}
			data, err := io.ReadAll(file)
			_ = file.Close()
			if err != nil {
				return httpx.BadRequest(c, "invalid_image", "Could not read "+field.form)
			}
			url, err := h.uploader.UploadImage(c.Context(), data, "groups")
			if err != nil {
				return httpx.BadGateway(c, "upload_failed", "Image upload failed")
			}
			*field.dst = &url
		}
	} else {
		if err := c.BodyParser(&input); err != nil {
			return httpx.BadRequest(c, "invalid_request_body", "Invalid request body")
		}
	}

	group, err := h.groupService.UpdateGroup(userID, groupID, input)
	if err != nil {
		return httpx.FromError(c, "update_group_failed", err)
	}
	return c.JSON(group)
}

func (h *GroupHandler) DeleteGroup(c *fiber.Ctx) error {
	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}
	groupID, err := paramUint(c, "id")
	if err != nil {
		return httpx.BadRequest(c, "invalid_group_id", "Invalid group id")
	}

	if err := h.groupService.DeleteGroup(userID, groupID); err != nil {
		return httpx.FromError(c, "delete_group_failed", err)
	}
	return c.JSON(fiber.Map{"ok": true})
}

func (h *GroupHandler) AddMembers(c *fiber.Ctx) error {
	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}
	groupID, err := paramUint(c, "id")
	if err != nil {
		return httpx.BadRequest(c, "invalid_group_id", "Invalid group id")
	}

	var input struct {
		UserIDs []uint `json:"user_ids"`
	}
	if err := c.BodyParser(&input); err != nil {
		return httpx.BadRequest(c, "invalid_request_body", "Invalid request body")
	}
	if len(input.UserIDs) == 0 {
		return httpx.BadRequest(c, "missing_members", "user_ids is required")
	}

	group, err := h.groupService.AddMembers(userID, groupID, input.UserIDs)
	if err != nil {
		return httpx.FromError(c, "add_members_failed", err)
	}
	return c.JSON(group)
}

func (h *GroupHandler) RemoveMember(c *fiber.Ctx) error {
	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}
	groupID, err := paramUint(c, "id")
	if err != nil {
		return httpx.BadRequest(c, "invalid_group_id", "Invalid group id")
	}
	targetID, err := paramUint(c, "userID")
	if err != nil {
		return httpx.BadRequest(c, "invalid_user_id", "Invalid user id")
	}

	if err := h.groupService.RemoveMember(userID, groupID, targetID); err != nil {
		return httpx.FromError(c, "remove_member_failed", err)
	}
	return c.JSON(fiber.Map{"ok": true})
}

func (h *GroupHandler) Leave(c *fiber.Ctx) error {
	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}
	groupID, err := paramUint(c, "id")
	if err != nil {
		return httpx.BadRequest(c, "invalid_group_id", "Invalid group id")
	}

	if err := h.groupService.Leave(userID, groupID); err != nil {
		return httpx.FromError(c, "leave_group_failed", err)
	}
	return c.JSON(fiber.Map{"ok": true})
}

func (h *GroupHandler) PromoteAdmin(c *fiber.Ctx) error {
	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}
	groupID, err := paramUint(c, "id")
	if err != nil {
		return httpx.BadRequest(c, "invalid_group_id", "Invalid group id")
	}
	targetID, err := paramUint(c, "userID")
	if err != nil {
		return httpx.BadRequest(c, "invalid_user_id", "Invalid user id")
	}

	if err := h.groupService.PromoteAdmin(userID, groupID, targetID); err != nil {
		return httpx.FromError(c, "promote_admin_failed", err)
	}
	return c.JSON(fiber.Map{"ok": true})
}

func (h *GroupHandler) DemoteAdmin(c *fiber.Ctx) error {
	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}
	groupID, err := paramUint(c, "id")
	if err != nil {
		return httpx.BadRequest(c, "invalid_group_id", "Invalid group id")
	}
	targetID, err := paramUint(c, "userID")
	if err != nil {
		return httpx.BadRequest(c, "invalid_user_id", "Invalid user id")
	}

	if err := h.groupService.DemoteAdmin(userID, groupID, targetID); err != nil {
		return httpx.FromError(c, "demote_admin_failed", err)
	}
	return c.JSON(fiber.Map{"ok": true})
}

func (h *GroupHandler) SendJoinRequest(c *fiber.Ctx) error {
	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}
	groupID, err := paramUint(c, "id")
	if err != nil {
		return httpx.BadRequest(c, "invalid_group_id", "Invalid group id")
	}

	if err := h.groupService.SendJoinRequest(userID, groupID); err != nil {
		return httpx.FromError(c, "join_request_failed", err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"ok": true})
}

func (h *GroupHandler) CancelJoinRequest(c *fiber.Ctx) error {
	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}
	groupID, err := paramUint(c, "id")
	if err != nil {
		return httpx.BadRequest(c, "invalid_group_id", "Invalid group id")
	}

	if err := h.groupService.CancelJoinRequest(userID, groupID); err != nil {
		return httpx.FromError(c, "cancel_join_request_failed", err)
	}
	return c.JSON(fiber.Map{"ok": true})
}

func (h *GroupHandler) AcceptJoinRequest(c *fiber.Ctx) error {
	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}
	groupID, err := paramUint(c, "id")
	if err != nil {
		return httpx.BadRequest(c, "invalid_group_id", "Invalid group id")
	}
	requesterID, err := paramUint(c, "userID")
	if err != nil {
		return httpx.BadRequest(c, "invalid_user_id", "Invalid user id")
	}

	if err := h.groupService.AcceptJoinRequest(userID, groupID, requesterID); err != nil {
		return httpx.FromError(c, "accept_join_request_failed", err)
	}
	return c.JSON(fiber.Map{"ok": true})
}

func (h *GroupHandler) DeclineJoinRequest(c *fiber.Ctx) error {
	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}
	groupID, err := paramUint(c, "id")
	if err != nil {
		return httpx.BadRequest(c, "invalid_group_id", "Invalid group id")
	}
	requesterID, err := paramUint(c, "userID")
	if err != nil {
		return httpx.BadRequest(c, "invalid_user_id", "Invalid user id")
	}

	if err := h.groupService.DeclineJoinRequest(userID, groupID, requesterID); err != nil {
		return httpx.FromError(c, "decline_join_request_failed", err)
	}
	return c.JSON(fiber.Map{"ok": true})
}
