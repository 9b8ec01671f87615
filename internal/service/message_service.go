package service

import (
	"context"
	"errors"
	"time"

	"github.com/Abdou-Mdn/LinkUp-sub001/internal/models"
	"github.com/Abdou-Mdn/LinkUp-sub001/internal/repository"
	"github.com/Abdou-Mdn/LinkUp-sub001/internal/validation"
	"gorm.io/gorm"
)

// Uploader is the blob-store collaborator. Uploads happen before any
// database write; the message only ever carries the returned URL.
type Uploader interface {
	UploadImage(ctx context.Context, data []byte, folder string) (string, error)
}

// MessageService is the message pipeline: validate, persist, denormalize
// onto the chat, assemble the delivery payload, and hand it to the fan-out.
type MessageService struct {
	messageRepo repository.MessageRepositoryInterface
	chatRepo    repository.ChatRepositoryInterface
	groupRepo   repository.GroupRepositoryInterface
	seqRepo     repository.SequenceRepositoryInterface
	txManager   repository.TxManager
	chats       *ChatService
	broadcaster Broadcaster
	uploader    Uploader
	chatCache   ChatListCache
}

func NewMessageService(
	messageRepo repository.MessageRepositoryInterface,
	chatRepo repository.ChatRepositoryInterface,
	groupRepo repository.GroupRepositoryInterface,
	seqRepo repository.SequenceRepositoryInterface,
	txManager repository.TxManager,
	chats *ChatService,
	broadcaster Broadcaster,
	uploader Uploader,
	chatCache ChatListCache,
) *MessageService {
	return &MessageService{
		messageRepo: messageRepo,
		chatRepo:    chatRepo,
		groupRepo:   groupRepo,
		seqRepo:     seqRepo,
		txManager:   txManager,
		chats:       chats,
		broadcaster: broadcaster,
		uploader:    uploader,
		chatCache:   chatCache,
	}
}

type SendMessageInput struct {
	ChatID        *uint  `json:"chat_id"`
	RecipientID   *uint  `json:"recipient_id"`
	Text          string `json:"text"`
	Image         []byte `json:"-"`
	ReplyToID     *uint  `json:"reply_to_id"`
	GroupInviteID *uint  `json:"group_invite_id"`
}

func (s *MessageService) SendMessage(ctx context.Context, senderID uint, input SendMessageInput) (*models.ChatResponse, *models.MessageResponse, error) {
	text := validation.TrimAndLimit(input.Text, validation.MaxMessageLength())
	if text == "" && len(input.Image) == 0 {
		return nil, nil, invalidf("message needs text or an image")
	}

	chat, err := s.resolveTarget(senderID, input)
	if err != nil {
		return nil, nil, err
	}

	if input.ReplyToID != nil {
		reply, err := s.messageRepo.FindByID(*input.ReplyToID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, nil, invalidf("reply target %d not found", *input.ReplyToID)
			}
			return nil, nil, err
		}
		if reply.ChatID != chat.ID {
			return nil, nil, invalidf("reply target belongs to another chat")
		}
	}

	if input.GroupInviteID != nil {
		if _, err := s.groupRepo.FindByID(*input.GroupInviteID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, nil, invalidf("invited group %d not found", *input.GroupInviteID)
			}
			return nil, nil, err
		}
		isMember, err := s.groupRepo.IsMember(*input.GroupInviteID, senderID)
		if err != nil {
			return nil, nil, err
		}
		if !isMember {
			return nil, nil, forbiddenf("only members can send invites for group %d", *input.GroupInviteID)
		}
	}

	// Upload must finish before anything is persisted; a failed upload
	// leaves no message behind.
	var imageURL string
	if len(input.Image) > 0 {
		if s.uploader == nil {
			return nil, nil, dependencyf("image storage unavailable")
		}
		imageURL, err = s.uploader.UploadImage(ctx, input.Image, "messages")
		if err != nil {
			return nil, nil, dependencyf("image upload: %v", err)
		}
	}

	now := time.Now()
	var messageID uint
	err = s.txManager.InTransaction(func(tx *gorm.DB) error {
		id, err := s.seqRepo.WithTx(tx).Next(models.SeqMessages)
		if err != nil {
			return err
		}
		message := &models.Message{
			ID:            id,
			ChatID:        chat.ID,
			SenderID:      senderID,
			Text:          text,
			ImageURL:      imageURL,
			ReplyToID:     input.ReplyToID,
			GroupInviteID: input.GroupInviteID,
			SeenBy: []models.MessageSeen{
				{MessageID: id, UserID: senderID, SeenAt: now},
			},
		}
		if err := s.messageRepo.WithTx(tx).Create(message); err != nil {
			return err
		}
		if err := s.chatRepo.WithTx(tx).SetLastMessage(chat.ID, id, now); err != nil {
			return err
		}
		messageID = id
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	return s.deliver(chat.ID, messageID, senderID)
}

func (s *MessageService) resolveTarget(senderID uint, input SendMessageInput) (*models.Chat, error) {
	switch {
	case input.ChatID != nil:
		return s.chats.GetChatForUser(*input.ChatID, senderID)
	case input.RecipientID != nil:
		return s.chats.ResolvePrivateChat(senderID, *input.RecipientID)
	default:
		return nil, invalidf("chat_id or recipient_id is required")
	}
}

// deliver assembles the populated payload, fans it out to everyone but the
// sender, and invalidates the affected chat lists.
func (s *MessageService) deliver(chatID, messageID, senderID uint) (*models.ChatResponse, *models.MessageResponse, error) {
	chat, err := s.chatRepo.FindByID(chatID)
	if err != nil {
		return nil, nil, err
	}
	message, err := s.messageRepo.FindByID(messageID)
	if err != nil {
		return nil, nil, err
	}

	chatResp := chat.ToResponse()
	msgResp := message.ToResponse()

	s.broadcaster.BroadcastToUsers(participantsExcept(chat, senderID), Event{
		Type: EventNewMessage,
		Payload: NewMessagePayload{
			Chat:      chatResp,
			Message:   msgResp,
			UpdatedAt: chat.UpdatedAt,
		},
	})
	s.chatCache.Invalidate(chat.ParticipantIDs()...)

	return &chatResp, &msgResp, nil
}

// SendAnnouncement persists a system announcement inside the caller's
// transaction. Membership transactions call it as their last step so the
// announcement commits or aborts together with the change it describes.
// Delivery happens after commit via DeliverAnnouncement.
func (s *MessageService) SendAnnouncement(tx *gorm.DB, chatID, actorID uint, text string) (uint, error) {
	if text == "" {
		return 0, invalidf("announcement text is required")
	}
	now := time.Now()
	id, err := s.seqRepo.WithTx(tx).Next(models.SeqMessages)
	if err != nil {
		return 0, err
	}
	message := &models.Message{
		ID:             id,
		ChatID:         chatID,
		SenderID:       actorID,
		Text:           text,
		IsAnnouncement: true,
		SeenBy: []models.MessageSeen{
			{MessageID: id, UserID: actorID, SeenAt: now},
		},
	}
	if err := s.messageRepo.WithTx(tx).Create(message); err != nil {
		return 0, err
	}
	if err := s.chatRepo.WithTx(tx).SetLastMessage(chatID, id, now); err != nil {
		return 0, err
	}
	return id, nil
}

// DeliverAnnouncement fans out a committed announcement.
func (s *MessageService) DeliverAnnouncement(chatID, messageID, actorID uint) {
	_, _, _ = s.deliver(chatID, messageID, actorID)
}

// EditMessage rewrites a message's text. Only the sender may edit, and
// only while nobody else has seen the message.
func (s *MessageService) EditMessage(actorID, messageID uint, newText string) (*models.MessageResponse, error) {
	newText = validation.TrimAndLimit(newText, validation.MaxMessageLength())
	if newText == "" {
		return nil, invalidf("new text is required")
	}

	message, err := s.messageRepo.FindByID(messageID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundf("message %d not found", messageID)
		}
		return nil, err
	}
	if message.SenderID != actorID {
		return nil, forbiddenf("only the sender can edit a message")
	}
	if message.IsAnnouncement {
		return nil, forbiddenf("announcements cannot be edited")
	}
	if message.IsDeleted {
		return nil, conflictf("message %d is deleted", messageID)
	}
	if message.SeenByOther() {
		return nil, conflictf("message %d was already seen", messageID)
	}

	if err := s.messageRepo.UpdateText(messageID, newText); err != nil {
		return nil, err
	}

	chat, err := s.chatRepo.FindByID(message.ChatID)
	if err != nil {
		return nil, err
	}
	// Text-only delta, not the full message object.
	s.broadcaster.BroadcastToUsers(participantsExcept(chat, actorID), Event{
		Type: EventEditMessage,
		Payload: EditMessagePayload{
			ChatID:    chat.ID,
			MessageID: messageID,
			Text:      newText,
		},
	})
	s.chatCache.Invalidate(chat.ParticipantIDs()...)

	updated, err := s.messageRepo.FindByID(messageID)
	if err != nil {
		return nil, err
	}
	resp := updated.ToResponse()
	return &resp, nil
}

// DeleteMessage soft-deletes: content is cleared, identifiers and the seen
// set stay so history and reply chains keep resolving.
func (s *MessageService) DeleteMessage(actorID, messageID uint) error {
	message, err := s.messageRepo.FindByID(messageID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFoundf("message %d not found", messageID)
		}
		return err
	}
	if message.SenderID != actorID {
		return forbiddenf("only the sender can delete a message")
	}
	if message.IsDeleted {
		return conflictf("message %d is already deleted", messageID)
	}

	if err := s.messageRepo.SoftDelete(messageID); err != nil {
		return err
	}

	chat, err := s.chatRepo.FindByID(message.ChatID)
	if err != nil {
		return err
	}
	s.broadcaster.BroadcastToUsers(participantsExcept(chat, actorID), Event{
		Type: EventDeleteMessage,
		Payload: DeleteMessagePayload{
			ChatID:    chat.ID,
			MessageID: messageID,
		},
	})
	s.chatCache.Invalidate(chat.ParticipantIDs()...)
	return nil
}

// MarkSeen appends the user's seen entry to every unseen message in the
// chat as one bulk write, then broadcasts the refreshed chat snapshot.
// The returned timestamp is the one stamped on the persisted rows.
func (s *MessageService) MarkSeen(chatID, userID uint) (*models.ChatResponse, time.Time, error) {
	chat, err := s.chats.GetChatForUser(chatID, userID)
	if err != nil {
		return nil, time.Time{}, err
	}

	now := time.Now()
	if _, err := s.messageRepo.MarkChatSeen(chatID, userID, now); err != nil {
		return nil, time.Time{}, err
	}

	// Reload so the denormalized last message carries the new seen state.
	chat, err = s.chatRepo.FindByID(chatID)
	if err != nil {
		return nil, time.Time{}, err
	}
	chatResp := chat.ToResponse()

	s.broadcaster.BroadcastToUsers(participantsExcept(chat, userID), Event{
		Type: EventSeenMessages,
		Payload: SeenMessagesPayload{
			Chat:   chatResp,
			UserID: userID,
			SeenAt: now,
		},
	})
	// Every participant's cached list embeds this chat's seen state.
	s.chatCache.Invalidate(chat.ParticipantIDs()...)
	return &chatResp, now, nil
}

// ListMessages pages through a chat's history, oldest first within the
// returned window.
func (s *MessageService) ListMessages(chatID, userID, cursor uint, limit int) ([]models.MessageResponse, error) {
	if _, err := s.chats.GetChatForUser(chatID, userID); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	messages, err := s.messageRepo.ListByChatCursor(chatID, cursor, limit)
	if err != nil {
		return nil, err
	}
	resp := make([]models.MessageResponse, 0, len(messages))
	for i := range messages {
		resp = append(resp, messages[i].ToResponse())
	}
	return resp, nil
}

// SendTyping relays an ephemeral typing signal. Nothing is persisted.
func (s *MessageService) SendTyping(chatID, userID uint, on bool) error {
	chat, err := s.chats.GetChatForUser(chatID, userID)
	if err != nil {
		return err
	}
	eventType := EventTypingOn
	if !on {
		eventType = EventTypingOff
	}
	s.broadcaster.BroadcastToUsers(participantsExcept(chat, userID), Event{
		Type:    eventType,
		Payload: TypingPayload{ChatID: chatID, UserID: userID},
	})
	return nil
}
