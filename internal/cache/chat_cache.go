package cache

import (
	"fmt"
	"time"

	"github.com/Abdou-Mdn/LinkUp-sub001/internal/models"
	"github.com/vmihailenco/msgpack/v5"
)

const (
	ChatListTTL = 2 * time.Minute
)

// ChatCache holds per-user chat lists. Every write through the message
// pipeline or a membership transaction invalidates the affected users.
type ChatCache struct {
	redis *RedisCache
}

func NewChatCache(redis *RedisCache) *ChatCache {
	return &ChatCache{redis: redis}
}

func chatListKey(userID uint) string {
	return fmt.Sprintf("chats:%d", userID)
}

// GetChatList retrieves a cached chat list
func (cc *ChatCache) GetChatList(userID uint) ([]models.ChatResponse, bool) {
	if cc == nil || cc.redis == nil {
		return nil, false
	}
	data, err := cc.redis.Get(chatListKey(userID))
	if err != nil || data == nil {
		return nil, false
	}

	var chats []models.ChatResponse
	if err := msgpack.Unmarshal(data, &chats); err != nil {
		return nil, false
	}
	return chats, true
}

// SetChatList caches a chat list
func (cc *ChatCache) SetChatList(userID uint, chats []models.ChatResponse) error {
	if cc == nil || cc.redis == nil {
		return nil
	}
	data, err := msgpack.Marshal(chats)
	if err != nil {
		return err
	}
	return cc.redis.Set(chatListKey(userID), data, ChatListTTL)
}

// Invalidate drops the cached chat lists for the given users
func (cc *ChatCache) Invalidate(userIDs ...uint) {
	if cc == nil || cc.redis == nil {
		return
	}
	for _, id := range userIDs {
		_ = cc.redis.Delete(chatListKey(id))
	}
}
