package repository

import (
	"time"

	"github.com/Abdou-Mdn/LinkUp-sub001/internal/models"
	"gorm.io/gorm"
)

// Repository interfaces consumed by the service layer. Every interface
// exposes WithTx so a service-level transaction can route all of its reads
// and writes through the same *gorm.DB session.

type SequenceRepositoryInterface interface {
	WithTx(tx *gorm.DB) SequenceRepositoryInterface
	Next(name string) (uint, error)
}

type UserRepositoryInterface interface {
	WithTx(tx *gorm.DB) UserRepositoryInterface
	Create(user *models.User) error
	FindByID(id uint) (*models.User, error)
	FindByEmail(email string) (*models.User, error)
	UpdateLastSeen(id uint, at time.Time) error
	SoftDelete(id uint) error
}

type FriendshipRepositoryInterface interface {
	WithTx(tx *gorm.DB) FriendshipRepositoryInterface
	CreateRequest(fromID, toID uint) error
	FindRequest(fromID, toID uint) (*models.FriendRequest, error)
	DeleteRequest(fromID, toID uint) error
	CreateFriendship(userID, friendID uint) error
	DeleteFriendship(userID, friendID uint) error
	ListFriends(userID uint) ([]models.Friendship, error)
	ListIncomingRequests(userID uint) ([]models.FriendRequest, error)
	ListOutgoingRequests(userID uint) ([]models.FriendRequest, error)
	AreFriends(userID, friendID uint) (bool, error)
}

type GroupRepositoryInterface interface {
	WithTx(tx *gorm.DB) GroupRepositoryInterface
	Create(group *models.Group) error
	FindByID(id uint) (*models.Group, error)
	UpdateProfile(id uint, fields map[string]interface{}) error
	Delete(id uint) error
	AddMember(groupID, userID uint, role models.GroupRole) error
	RemoveMember(groupID, userID uint) error
	IsMember(groupID, userID uint) (bool, error)
	GetMemberRole(groupID, userID uint) (models.GroupRole, error)
	UpdateMemberRole(groupID, userID uint, role models.GroupRole) error
	CountMembers(groupID uint) (int64, error)
	CountAdmins(groupID uint) (int64, error)
	EarliestMember(groupID uint) (*models.GroupMember, error)
	CreateJoinRequest(groupID, userID uint) error
	FindJoinRequest(groupID, userID uint) (*models.GroupJoinRequest, error)
	DeleteJoinRequest(groupID, userID uint) error
}

type ChatRepositoryInterface interface {
	WithTx(tx *gorm.DB) ChatRepositoryInterface
	Create(chat *models.Chat) error
	FindByID(id uint) (*models.Chat, error)
	FindPrivateByPairKey(key string) (*models.Chat, error)
	FindByGroupID(groupID uint) (*models.Chat, error)
	SetLastMessage(chatID, messageID uint, at time.Time) error
	Touch(chatID uint, at time.Time) error
	AddParticipant(chatID, userID uint) error
	RemoveParticipant(chatID, userID uint) error
	ListForUser(userID uint) ([]models.Chat, error)
	ClearLastMessage(chatID uint) error
	Delete(chatID uint) error
}

type MessageRepositoryInterface interface {
	WithTx(tx *gorm.DB) MessageRepositoryInterface
	Create(message *models.Message) error
	FindByID(id uint) (*models.Message, error)
	UpdateText(id uint, text string) error
	SoftDelete(id uint) error
	MarkChatSeen(chatID, userID uint, at time.Time) (int64, error)
	ListByChatCursor(chatID, cursor uint, limit int) ([]models.Message, error)
	DeleteByChat(chatID uint) error
}
