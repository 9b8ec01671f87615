package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Abdou-Mdn/LinkUp-sub001/internal/models"
	"github.com/Abdou-Mdn/LinkUp-sub001/internal/repository"
	"github.com/Abdou-Mdn/LinkUp-sub001/internal/validation"
	"gorm.io/gorm"
)

// GroupService runs the membership transactions. Every mutation is one
// database transaction that ends by synthesizing its announcement through
// the message pipeline, so a committed membership change is never visible
// without the announcement describing it. Fan-out happens after commit.
type GroupService struct {
	groupRepo repository.GroupRepositoryInterface
	chatRepo  repository.ChatRepositoryInterface
	userRepo  repository.UserRepositoryInterface
	seqRepo   repository.SequenceRepositoryInterface
	txManager repository.TxManager
	messages  *MessageService
	chatCache ChatListCache
}

func NewGroupService(
	groupRepo repository.GroupRepositoryInterface,
	chatRepo repository.ChatRepositoryInterface,
	userRepo repository.UserRepositoryInterface,
	seqRepo repository.SequenceRepositoryInterface,
	txManager repository.TxManager,
	messages *MessageService,
	chatCache ChatListCache,
) *GroupService {
	return &GroupService{
		groupRepo: groupRepo,
		chatRepo:  chatRepo,
		userRepo:  userRepo,
		seqRepo:   seqRepo,
		txManager: txManager,
		messages:  messages,
		chatCache: chatCache,
	}
}

// announcement is a committed announcement waiting for post-commit fan-out.
type announcement struct {
	chatID    uint
	messageID uint
	actorID   uint
}

func (s *GroupService) deliverAll(pending []announcement) {
	for _, a := range pending {
		s.messages.DeliverAnnouncement(a.chatID, a.messageID, a.actorID)
	}
}

func (s *GroupService) userName(id uint) (string, error) {
	user, err := s.userRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", notFoundf("user %d not found", id)
		}
		return "", err
	}
	return user.Name, nil
}

func (s *GroupService) requireAdmin(groupID, actorID uint) error {
	role, err := s.groupRepo.GetMemberRole(groupID, actorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return forbiddenf("user %d is not a member of group %d", actorID, groupID)
		}
		return err
	}
	if role != models.RoleAdmin {
		return forbiddenf("user %d is not an admin of group %d", actorID, groupID)
	}
	return nil
}

func (s *GroupService) GetGroup(groupID uint) (*models.Group, error) {
	group, err := s.groupRepo.FindByID(groupID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundf("group %d not found", groupID)
		}
		return nil, err
	}
	return group, nil
}

type CreateGroupInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	MemberIDs   []uint `json:"member_ids"`
}

// CreateGroup creates the group, its chat, and the "created the group"
// announcement in one transaction. The creator plus at least two other
// distinct members are required.
func (s *GroupService) CreateGroup(actorID uint, input CreateGroupInput) (*models.GroupResponse, error) {
	name := validation.TrimAndLimit(input.Name, 100)
	if name == "" {
		return nil, invalidf("group name is required")
	}

	members := make([]uint, 0, len(input.MemberIDs))
	seen := map[uint]bool{actorID: true}
	for _, id := range input.MemberIDs {
		if !seen[id] {
			seen[id] = true
			members = append(members, id)
		}
	}
	if len(members) < 2 {
		return nil, invalidf("a group needs the creator and at least two other members")
	}
	for _, id := range members {
		if _, err := s.userRepo.FindByID(id); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, notFoundf("user %d not found", id)
			}
			return nil, err
		}
	}

	actorName, err := s.userName(actorID)
	if err != nil {
		return nil, err
	}

	var groupID uint
	var pending []announcement
	err = s.txManager.InTransaction(func(tx *gorm.DB) error {
		groups := s.groupRepo.WithTx(tx)
		chats := s.chatRepo.WithTx(tx)
		seqs := s.seqRepo.WithTx(tx)

		gid, err := seqs.Next(models.SeqGroups)
		if err != nil {
			return err
		}
		group := &models.Group{ID: gid, Name: name, Description: strings.TrimSpace(input.Description)}
		if err := groups.Create(group); err != nil {
			return err
		}
		if err := groups.AddMember(gid, actorID, models.RoleAdmin); err != nil {
			return err
		}
		for _, id := range members {
			if err := groups.AddMember(gid, id, models.RoleMember); err != nil {
				return err
			}
		}

		cid, err := seqs.Next(models.SeqChats)
		if err != nil {
			return err
		}
		chat := &models.Chat{ID: cid, IsGroup: true, GroupID: &gid}
		if err := chats.Create(chat); err != nil {
			return err
		}
		if err := chats.AddParticipant(cid, actorID); err != nil {
			return err
		}
		for _, id := range members {
			if err := chats.AddParticipant(cid, id); err != nil {
				return err
			}
		}

		annID, err := s.messages.SendAnnouncement(tx, cid, actorID, fmt.Sprintf("%s created the group", actorName))
		if err != nil {
			return err
		}
		pending = append(pending, announcement{chatID: cid, messageID: annID, actorID: actorID})
		groupID = gid
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.deliverAll(pending)
	group, err := s.groupRepo.FindByID(groupID)
	if err != nil {
		return nil, err
	}
	resp := group.ToResponse()
	return &resp, nil
}

type UpdateGroupInput struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Image       *string `json:"image"`
	Banner      *string `json:"banner"`
}

// UpdateGroup patches profile fields, admin only.
func (s *GroupService) UpdateGroup(actorID, groupID uint, input UpdateGroupInput) (*models.GroupResponse, error) {
	if _, err := s.GetGroup(groupID); err != nil {
		return nil, err
	}
	if err := s.requireAdmin(groupID, actorID); err != nil {
		return nil, err
	}

	fields := map[string]interface{}{}
	if input.Name != nil {
		name := validation.TrimAndLimit(*input.Name, 100)
		if name == "" {
			return nil, invalidf("group name cannot be empty")
		}
		fields["name"] = name
	}
	if input.Description != nil {
		fields["description"] = strings.TrimSpace(*input.Description)
	}
	if input.Image != nil {
		fields["image"] = *input.Image
	}
	if input.Banner != nil {
		fields["banner"] = *input.Banner
	}
	if len(fields) == 0 {
		return nil, invalidf("nothing to update")
	}

	actorName, err := s.userName(actorID)
	if err != nil {
		return nil, err
	}

	var pending []announcement
	err = s.txManager.InTransaction(func(tx *gorm.DB) error {
		if err := s.groupRepo.WithTx(tx).UpdateProfile(groupID, fields); err != nil {
			return err
		}
		chat, err := s.chatRepo.WithTx(tx).FindByGroupID(groupID)
		if err != nil {
			return fmt.Errorf("group %d chat: %w", groupID, err)
		}
		annID, err := s.messages.SendAnnouncement(tx, chat.ID, actorID, fmt.Sprintf("%s updated the group info", actorName))
		if err != nil {
			return err
		}
		pending = append(pending, announcement{chatID: chat.ID, messageID: annID, actorID: actorID})
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.deliverAll(pending)
	group, err := s.groupRepo.FindByID(groupID)
	if err != nil {
		return nil, err
	}
	resp := group.ToResponse()
	return &resp, nil
}

// DeleteGroup removes the group, its chat, and every message, admin only.
func (s *GroupService) DeleteGroup(actorID, groupID uint) error {
	if _, err := s.GetGroup(groupID); err != nil {
		return err
	}
	if err := s.requireAdmin(groupID, actorID); err != nil {
		return err
	}

	var participants []uint
	err := s.txManager.InTransaction(func(tx *gorm.DB) error {
		chat, err := s.chatRepo.WithTx(tx).FindByGroupID(groupID)
		if err != nil {
			return fmt.Errorf("group %d chat: %w", groupID, err)
		}
		participants = chat.ParticipantIDs()
		return s.cascadeDelete(tx, groupID, chat.ID)
	})
	if err != nil {
		return err
	}
	s.chatCache.Invalidate(participants...)
	return nil
}

// cascadeDelete tears down a group with its chat and messages, in
// reference order.
func (s *GroupService) cascadeDelete(tx *gorm.DB, groupID, chatID uint) error {
	chats := s.chatRepo.WithTx(tx)
	if err := chats.ClearLastMessage(chatID); err != nil {
		return err
	}
	if err := s.messages.messageRepo.WithTx(tx).DeleteByChat(chatID); err != nil {
		return err
	}
	if err := chats.Delete(chatID); err != nil {
		return err
	}
	return s.groupRepo.WithTx(tx).Delete(groupID)
}

// AddMembers adds users to the group and its chat together, admin only,
// with one announcement naming everyone added.
func (s *GroupService) AddMembers(actorID, groupID uint, userIDs []uint) (*models.GroupResponse, error) {
	if _, err := s.GetGroup(groupID); err != nil {
		return nil, err
	}
	if err := s.requireAdmin(groupID, actorID); err != nil {
		return nil, err
	}
	if len(userIDs) == 0 {
		return nil, invalidf("no users to add")
	}

	actorName, err := s.userName(actorID)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(userIDs))
	for _, id := range userIDs {
		name, err := s.userName(id)
		if err != nil {
			return nil, err
		}
		names = append(names, name)
	}

	var pending []announcement
	err = s.txManager.InTransaction(func(tx *gorm.DB) error {
		groups := s.groupRepo.WithTx(tx)
		chats := s.chatRepo.WithTx(tx)

		chat, err := chats.FindByGroupID(groupID)
		if err != nil {
			return fmt.Errorf("group %d chat: %w", groupID, err)
		}
		for _, id := range userIDs {
			isMember, err := groups.IsMember(groupID, id)
			if err != nil {
				return err
			}
			if isMember {
				return conflictf("user %d is already a member", id)
			}
			if err := groups.AddMember(groupID, id, models.RoleMember); err != nil {
				return err
			}
			if err := chats.AddParticipant(chat.ID, id); err != nil {
				return err
			}
		}

		annID, err := s.messages.SendAnnouncement(tx, chat.ID, actorID,
			fmt.Sprintf("%s added %s", actorName, strings.Join(names, ", ")))
		if err != nil {
			return err
		}
		pending = append(pending, announcement{chatID: chat.ID, messageID: annID, actorID: actorID})
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.deliverAll(pending)
	group, err := s.groupRepo.FindByID(groupID)
	if err != nil {
		return nil, err
	}
	resp := group.ToResponse()
	return &resp, nil
}

// RemoveMember pulls a user out of the group and its chat together. An
// admin can remove anyone; a member can only remove themselves (leave).
// Removing the last member cascades into deleting the whole group; leaving
// the admin set empty auto-promotes the earliest remaining member.
func (s *GroupService) RemoveMember(actorID, groupID, targetID uint) error {
	if _, err := s.GetGroup(groupID); err != nil {
		return err
	}
	if actorID != targetID {
		if err := s.requireAdmin(groupID, actorID); err != nil {
			return err
		}
	}

	actorName, err := s.userName(actorID)
	if err != nil {
		return err
	}
	targetName := actorName
	if actorID != targetID {
		if targetName, err = s.userName(targetID); err != nil {
			return err
		}
	}

	var pending []announcement
	var invalidate []uint
	err = s.txManager.InTransaction(func(tx *gorm.DB) error {
		groups := s.groupRepo.WithTx(tx)
		chats := s.chatRepo.WithTx(tx)

		if _, err := groups.GetMemberRole(groupID, targetID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFoundf("user %d is not a member of group %d", targetID, groupID)
			}
			return err
		}
		chat, err := chats.FindByGroupID(groupID)
		if err != nil {
			return fmt.Errorf("group %d chat: %w", groupID, err)
		}
		invalidate = chat.ParticipantIDs()

		if err := groups.RemoveMember(groupID, targetID); err != nil {
			return err
		}
		if err := chats.RemoveParticipant(chat.ID, targetID); err != nil {
			return err
		}

		remaining, err := groups.CountMembers(groupID)
		if err != nil {
			return err
		}
		if remaining == 0 {
			// Last member gone: the group and its history go with it.
			return s.cascadeDelete(tx, groupID, chat.ID)
		}

		text := fmt.Sprintf("%s removed %s", actorName, targetName)
		if actorID == targetID {
			text = fmt.Sprintf("%s left the group", actorName)
		}
		annID, err := s.messages.SendAnnouncement(tx, chat.ID, actorID, text)
		if err != nil {
			return err
		}
		pending = append(pending, announcement{chatID: chat.ID, messageID: annID, actorID: actorID})

		admins, err := groups.CountAdmins(groupID)
		if err != nil {
			return err
		}
		if admins == 0 {
			// Admins must never be empty while members remain.
			earliest, err := groups.EarliestMember(groupID)
			if err != nil {
				return err
			}
			if err := groups.UpdateMemberRole(groupID, earliest.UserID, models.RoleAdmin); err != nil {
				return err
			}
			promotedName, err := s.userName(earliest.UserID)
			if err != nil {
				return err
			}
			promoID, err := s.messages.SendAnnouncement(tx, chat.ID, actorID,
				fmt.Sprintf("%s is now an admin", promotedName))
			if err != nil {
				return err
			}
			pending = append(pending, announcement{chatID: chat.ID, messageID: promoID, actorID: actorID})
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.deliverAll(pending)
	s.chatCache.Invalidate(invalidate...)
	return nil
}

// Leave is RemoveMember with the actor as target.
func (s *GroupService) Leave(actorID, groupID uint) error {
	return s.RemoveMember(actorID, groupID, actorID)
}

// PromoteAdmin grants admin to a member, admin only.
func (s *GroupService) PromoteAdmin(actorID, groupID, targetID uint) error {
	return s.changeRole(actorID, groupID, targetID, models.RoleAdmin)
}

// DemoteAdmin strips admin from a member, admin only. Demoting the sole
// remaining admin is rejected to keep the admin set non-empty.
func (s *GroupService) DemoteAdmin(actorID, groupID, targetID uint) error {
	return s.changeRole(actorID, groupID, targetID, models.RoleMember)
}

func (s *GroupService) changeRole(actorID, groupID, targetID uint, role models.GroupRole) error {
	if _, err := s.GetGroup(groupID); err != nil {
		return err
	}
	if err := s.requireAdmin(groupID, actorID); err != nil {
		return err
	}

	actorName, err := s.userName(actorID)
	if err != nil {
		return err
	}
	targetName, err := s.userName(targetID)
	if err != nil {
		return err
	}

	var pending []announcement
	err = s.txManager.InTransaction(func(tx *gorm.DB) error {
		groups := s.groupRepo.WithTx(tx)

		current, err := groups.GetMemberRole(groupID, targetID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFoundf("user %d is not a member of group %d", targetID, groupID)
			}
			return err
		}
		if current == role {
			return conflictf("user %d already has role %s", targetID, role)
		}
		if role == models.RoleMember {
			admins, err := groups.CountAdmins(groupID)
			if err != nil {
				return err
			}
			if admins <= 1 {
				return conflictf("cannot demote the only admin of group %d", groupID)
			}
		}
		if err := groups.UpdateMemberRole(groupID, targetID, role); err != nil {
			return err
		}

		chat, err := s.chatRepo.WithTx(tx).FindByGroupID(groupID)
		if err != nil {
			return fmt.Errorf("group %d chat: %w", groupID, err)
		}
		text := fmt.Sprintf("%s promoted %s to admin", actorName, targetName)
		if role == models.RoleMember {
			text = fmt.Sprintf("%s demoted %s", actorName, targetName)
		}
		annID, err := s.messages.SendAnnouncement(tx, chat.ID, actorID, text)
		if err != nil {
			return err
		}
		pending = append(pending, announcement{chatID: chat.ID, messageID: annID, actorID: actorID})
		return nil
	})
	if err != nil {
		return err
	}
	s.deliverAll(pending)
	return nil
}

// SendJoinRequest records the matched request pair.
func (s *GroupService) SendJoinRequest(userID, groupID uint) error {
	if _, err := s.GetGroup(groupID); err != nil {
		return err
	}
	isMember, err := s.groupRepo.IsMember(groupID, userID)
	if err != nil {
		return err
	}
	if isMember {
		return conflictf("user %d is already a member", userID)
	}
	if _, err := s.groupRepo.FindJoinRequest(groupID, userID); err == nil {
		return conflictf("join request already pending")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	return s.groupRepo.CreateJoinRequest(groupID, userID)
}

// CancelJoinRequest withdraws the requester's own pending request.
func (s *GroupService) CancelJoinRequest(userID, groupID uint) error {
	if _, err := s.groupRepo.FindJoinRequest(groupID, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFoundf("no pending join request")
		}
		return err
	}
	return s.groupRepo.DeleteJoinRequest(groupID, userID)
}

// AcceptJoinRequest promotes the request pair into membership, admin only:
// the request rows disappear and the member plus chat participant rows
// appear in the same transaction, followed by the "joined" announcement.
func (s *GroupService) AcceptJoinRequest(actorID, groupID, requesterID uint) error {
	if _, err := s.GetGroup(groupID); err != nil {
		return err
	}
	if err := s.requireAdmin(groupID, actorID); err != nil {
		return err
	}

	requesterName, err := s.userName(requesterID)
	if err != nil {
		return err
	}

	var pending []announcement
	err = s.txManager.InTransaction(func(tx *gorm.DB) error {
		groups := s.groupRepo.WithTx(tx)
		chats := s.chatRepo.WithTx(tx)

		if _, err := groups.FindJoinRequest(groupID, requesterID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFoundf("no pending join request from user %d", requesterID)
			}
			return err
		}
		if err := groups.DeleteJoinRequest(groupID, requesterID); err != nil {
			return err
		}
		if err := groups.AddMember(groupID, requesterID, models.RoleMember); err != nil {
			return err
		}
		chat, err := chats.FindByGroupID(groupID)
		if err != nil {
			return fmt.Errorf("group %d chat: %w", groupID, err)
		}
		if err := chats.AddParticipant(chat.ID, requesterID); err != nil {
			return err
		}

		annID, err := s.messages.SendAnnouncement(tx, chat.ID, actorID,
			fmt.Sprintf("%s joined the group", requesterName))
		if err != nil {
			return err
		}
		pending = append(pending, announcement{chatID: chat.ID, messageID: annID, actorID: actorID})
		return nil
	})
	if err != nil {
		return err
	}
	s.deliverAll(pending)
	return nil
}

// DeclineJoinRequest drops a pending request, admin only.
func (s *GroupService) DeclineJoinRequest(actorID, groupID, requesterID uint) error {
	if _, err := s.GetGroup(groupID); err != nil {
		return err
	}
	if err := s.requireAdmin(groupID, actorID); err != nil {
		return err
	}
	if _, err := s.groupRepo.FindJoinRequest(groupID, requesterID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFoundf("no pending join request from user %d", requesterID)
		}
		return err
	}
	return s.groupRepo.DeleteJoinRequest(groupID, requesterID)
}
