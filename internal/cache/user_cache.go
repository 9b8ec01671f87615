package cache

import (
	"fmt"
	"strconv"
	"time"
)

const (
	// Matches the hub's pong timeout so stale entries expire on their own
	// if the process dies without unregistering.
	OnlineUsersTTL = 90 * time.Second
)

// UserCache mirrors the in-process presence directory into Redis so other
// request paths can answer "is this user online" cheaply. The hub's map
// stays authoritative.
type UserCache struct {
	redis *RedisCache
}

func NewUserCache(redis *RedisCache) *UserCache {
	return &UserCache{redis: redis}
}

// SetUserOnline adds a user to the online users set
func (uc *UserCache) SetUserOnline(userID uint) error {
	if uc == nil || uc.redis == nil {
		return nil
	}
	if err := uc.redis.SetAdd("online:users", userID); err != nil {
		return err
	}

	userKey := fmt.Sprintf("online:%d", userID)
	return uc.redis.Set(userKey, []byte("1"), OnlineUsersTTL)
}

// SetUserOffline removes a user from the online users set
func (uc *UserCache) SetUserOffline(userID uint) error {
	if uc == nil || uc.redis == nil {
		return nil
	}
	if err := uc.redis.SetRemove("online:users", userID); err != nil {
		return err
	}

	userKey := fmt.Sprintf("online:%d", userID)
	return uc.redis.Delete(userKey)
}

// IsUserOnline checks if a user is online
func (uc *UserCache) IsUserOnline(userID uint) bool {
	if uc == nil || uc.redis == nil {
		return false
	}
	return uc.redis.Exists(fmt.Sprintf("online:%d", userID))
}

// RefreshUserOnline extends the TTL for an online user
func (uc *UserCache) RefreshUserOnline(userID uint) error {
	if uc == nil || uc.redis == nil {
		return nil
	}
	return uc.redis.Set(fmt.Sprintf("online:%d", userID), []byte("1"), OnlineUsersTTL)
}

// GetOnlineUsers returns all online user IDs
func (uc *UserCache) GetOnlineUsers() ([]uint, error) {
	if uc == nil || uc.redis == nil {
		return nil, nil
	}
	members, err := uc.redis.SetMembers("online:users")
	if err != nil {
		return nil, err
	}

	userIDs := make([]uint, 0, len(members))
	for _, member := range members {
		if id, err := strconv.ParseUint(member, 10, 32); err == nil {
			userIDs = append(userIDs, uint(id))
		}
	}
	return userIDs, nil
}
