package service

import (
	"errors"

	"github.com/Abdou-Mdn/LinkUp-sub001/internal/models"
	"github.com/Abdou-Mdn/LinkUp-sub001/internal/repository"
	"gorm.io/gorm"
)

// ChatListCache caches per-user chat lists. Implemented by the Redis
// cache; mocked in tests.
type ChatListCache interface {
	GetChatList(userID uint) ([]models.ChatResponse, bool)
	SetChatList(userID uint, chats []models.ChatResponse) error
	Invalidate(userIDs ...uint)
}

// ChatService resolves chats: the single private chat per unordered user
// pair, and the one chat backing each group.
type ChatService struct {
	chatRepo  repository.ChatRepositoryInterface
	userRepo  repository.UserRepositoryInterface
	seqRepo   repository.SequenceRepositoryInterface
	txManager repository.TxManager
	chatCache ChatListCache
}

func NewChatService(
	chatRepo repository.ChatRepositoryInterface,
	userRepo repository.UserRepositoryInterface,
	seqRepo repository.SequenceRepositoryInterface,
	txManager repository.TxManager,
	chatCache ChatListCache,
) *ChatService {
	return &ChatService{
		chatRepo:  chatRepo,
		userRepo:  userRepo,
		seqRepo:   seqRepo,
		txManager: txManager,
		chatCache: chatCache,
	}
}

// ResolvePrivateChat finds or creates the private chat for a pair. The
// pair-key unique index closes the concurrent-first-message race: a
// duplicate insert surfaces as gorm.ErrDuplicatedKey and the winner's chat
// is fetched instead.
func (s *ChatService) ResolvePrivateChat(userA, userB uint) (*models.Chat, error) {
	if userA == userB {
		return nil, invalidf("cannot open a chat with yourself")
	}
	if _, err := s.userRepo.FindByID(userB); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundf("user %d not found", userB)
		}
		return nil, err
	}

	key := models.PairKey(userA, userB)
	chat, err := s.chatRepo.FindPrivateByPairKey(key)
	if err == nil {
		return chat, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	created, err := s.createPrivateChat(key, userA, userB)
	if err == nil {
		return created, nil
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// Lost the race, the other sender's chat is the one.
		return s.chatRepo.FindPrivateByPairKey(key)
	}
	return nil, err
}

func (s *ChatService) createPrivateChat(key string, userA, userB uint) (*models.Chat, error) {
	var chatID uint
	err := s.txManager.InTransaction(func(tx *gorm.DB) error {
		id, err := s.seqRepo.WithTx(tx).Next(models.SeqChats)
		if err != nil {
			return err
		}
		chat := &models.Chat{ID: id, PairKey: &key}
		if err := s.chatRepo.WithTx(tx).Create(chat); err != nil {
			return err
		}
		chats := s.chatRepo.WithTx(tx)
		if err := chats.AddParticipant(id, userA); err != nil {
			return err
		}
		if err := chats.AddParticipant(id, userB); err != nil {
			return err
		}
		chatID = id
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.chatRepo.FindByID(chatID)
}

// ResolveGroupChat looks up the chat backing a group. Group chats are only
// ever created with their group, never lazily.
func (s *ChatService) ResolveGroupChat(groupID uint) (*models.Chat, error) {
	chat, err := s.chatRepo.FindByGroupID(groupID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundf("group %d has no chat", groupID)
		}
		return nil, err
	}
	return chat, nil
}

// GetChatForUser loads a chat and verifies the caller belongs to it.
func (s *ChatService) GetChatForUser(chatID, userID uint) (*models.Chat, error) {
	chat, err := s.chatRepo.FindByID(chatID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundf("chat %d not found", chatID)
		}
		return nil, err
	}
	if !chat.HasParticipant(userID) {
		return nil, forbiddenf("user %d is not a participant of chat %d", userID, chatID)
	}
	return chat, nil
}

// ListChats returns the caller's chats newest-activity first.
func (s *ChatService) ListChats(userID uint) ([]models.ChatResponse, error) {
	if cached, ok := s.chatCache.GetChatList(userID); ok {
		return cached, nil
	}

	chats, err := s.chatRepo.ListForUser(userID)
	if err != nil {
		return nil, err
	}
	resp := make([]models.ChatResponse, 0, len(chats))
	for i := range chats {
		resp = append(resp, chats[i].ToResponse())
	}
	_ = s.chatCache.SetChatList(userID, resp)
	return resp, nil
}
