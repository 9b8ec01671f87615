package repository

import (
	"time"

	"github.com/Abdou-Mdn/LinkUp-sub001/internal/models"
	"gorm.io/gorm"
)

type ChatRepository struct {
	db *gorm.DB
}

func NewChatRepository(db *gorm.DB) *ChatRepository {
	return &ChatRepository{db: db}
}

func (r *ChatRepository) WithTx(tx *gorm.DB) ChatRepositoryInterface {
	if tx == nil {
		return r
	}
	return &ChatRepository{db: tx}
}

func (r *ChatRepository) Create(chat *models.Chat) error {
	return r.db.Create(chat).Error
}

func (r *ChatRepository) preloaded() *gorm.DB {
	return r.db.
		Preload("Participants.User").
		Preload("Group").
		Preload("LastMessage.Sender").
		Preload("LastMessage.SeenBy")
}

func (r *ChatRepository) FindByID(id uint) (*models.Chat, error) {
	var chat models.Chat
	if err := r.preloaded().First(&chat, id).Error; err != nil {
		return nil, err
	}
	return &chat, nil
}

func (r *ChatRepository) FindPrivateByPairKey(key string) (*models.Chat, error) {
	var chat models.Chat
	err := r.preloaded().
		Where("is_group = false AND pair_key = ?", key).
		First(&chat).Error
	if err != nil {
		return nil, err
	}
	return &chat, nil
}

func (r *ChatRepository) FindByGroupID(groupID uint) (*models.Chat, error) {
	var chat models.Chat
	err := r.preloaded().Where("group_id = ?", groupID).First(&chat).Error
	if err != nil {
		return nil, err
	}
	return &chat, nil
}

// SetLastMessage denormalizes the newest message onto the chat and bumps
// updated_at so chat lists sort by recency.
func (r *ChatRepository) SetLastMessage(chatID, messageID uint, at time.Time) error {
	return r.db.Model(&models.Chat{}).Where("id = ?", chatID).
		Updates(map[string]interface{}{
			"last_message_id": messageID,
			"updated_at":      at,
		}).Error
}

func (r *ChatRepository) Touch(chatID uint, at time.Time) error {
	return r.db.Model(&models.Chat{}).Where("id = ?", chatID).
		Update("updated_at", at).Error
}

func (r *ChatRepository) AddParticipant(chatID, userID uint) error {
	return r.db.Create(&models.ChatParticipant{ChatID: chatID, UserID: userID}).Error
}

func (r *ChatRepository) RemoveParticipant(chatID, userID uint) error {
	return r.db.Where("chat_id = ? AND user_id = ?", chatID, userID).
		Delete(&models.ChatParticipant{}).Error
}

func (r *ChatRepository) ListForUser(userID uint) ([]models.Chat, error) {
	var chats []models.Chat
	err := r.preloaded().
		Joins("JOIN chat_participants ON chat_participants.chat_id = chats.id").
		Where("chat_participants.user_id = ?", userID).
		Order("chats.updated_at DESC").
		Find(&chats).Error
	return chats, err
}

// ClearLastMessage drops the denormalized pointer. Needed before the
// chat's messages can be deleted in a cascade.
func (r *ChatRepository) ClearLastMessage(chatID uint) error {
	return r.db.Model(&models.Chat{}).Where("id = ?", chatID).
		Update("last_message_id", nil).Error
}

// Delete removes the chat and its participant rows. Message cleanup is the
// message repository's job so callers control cascade order.
func (r *ChatRepository) Delete(chatID uint) error {
	if err := r.db.Where("chat_id = ?", chatID).Delete(&models.ChatParticipant{}).Error; err != nil {
		return err
	}
	return r.db.Delete(&models.Chat{}, chatID).Error
}
