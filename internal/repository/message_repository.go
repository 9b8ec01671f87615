package repository

import (
	"time"

	"github.com/Abdou-Mdn/LinkUp-sub001/internal/models"
	"gorm.io/gorm"
)

type MessageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

func (r *MessageRepository) WithTx(tx *gorm.DB) MessageRepositoryInterface {
	if tx == nil {
		return r
	}
	return &MessageRepository{db: tx}
}

func (r *MessageRepository) Create(message *models.Message) error {
	return r.db.Create(message).Error
}

// FindByID loads the message with the bounded two-level join: sender
// summary, reply target with its own sender, invite group preview, and the
// seen set. Nothing deeper.
func (r *MessageRepository) FindByID(id uint) (*models.Message, error) {
	var message models.Message
	err := r.db.
		Preload("Sender").
		Preload("ReplyTo.Sender").
		Preload("GroupInvite").
		Preload("SeenBy").
		First(&message, id).Error
	if err != nil {
		return nil, err
	}
	return &message, nil
}

func (r *MessageRepository) UpdateText(id uint, text string) error {
	return r.db.Model(&models.Message{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"text":      text,
			"is_edited": true,
		}).Error
}

// SoftDelete clears the content but keeps the row, its references, and its
// seen set, so reply chains and history stay valid.
func (r *MessageRepository) SoftDelete(id uint) error {
	return r.db.Model(&models.Message{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"text":       "",
			"image_url":  "",
			"is_deleted": true,
		}).Error
}

// MarkChatSeen appends a seen entry for every message in the chat the user
// has not seen yet, as one bulk statement. Re-running it is a no-op, which
// makes concurrent seen marks from different users freely interleavable.
func (r *MessageRepository) MarkChatSeen(chatID, userID uint, at time.Time) (int64, error) {
	res := r.db.Exec(
		`INSERT INTO message_seens (message_id, user_id, seen_at)
		 SELECT m.id, ?, ? FROM messages m
		 WHERE m.chat_id = ?
		   AND NOT EXISTS (
		     SELECT 1 FROM message_seens s
		     WHERE s.message_id = m.id AND s.user_id = ?
		   )`,
		userID, at, chatID, userID,
	)
	return res.RowsAffected, res.Error
}

// ListByChatCursor pages backwards through a chat's history by message ID.
// A zero cursor starts from the newest message.
func (r *MessageRepository) ListByChatCursor(chatID, cursor uint, limit int) ([]models.Message, error) {
	q := r.db.
		Preload("Sender").
		Preload("ReplyTo.Sender").
		Preload("GroupInvite").
		Preload("SeenBy").
		Where("chat_id = ?", chatID)
	if cursor > 0 {
		q = q.Where("id < ?", cursor)
	}
	var messages []models.Message
	err := q.Order("id DESC").Limit(limit).Find(&messages).Error
	if err != nil {
		return nil, err
	}

	// Reverse to chronological order
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

func (r *MessageRepository) DeleteByChat(chatID uint) error {
	if err := r.db.Exec(
		`DELETE FROM message_seens WHERE message_id IN
		 (SELECT id FROM messages WHERE chat_id = ?)`, chatID,
	).Error; err != nil {
		return err
	}
	// Break reply self-references so the bulk delete cannot trip over them.
	if err := r.db.Exec(
		`UPDATE messages SET reply_to_id = NULL WHERE chat_id = ?`, chatID,
	).Error; err != nil {
		return err
	}
	return r.db.Where("chat_id = ?", chatID).Delete(&models.Message{}).Error
}
