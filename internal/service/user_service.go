package service

import (
	"errors"
	"time"

	"github.com/Abdou-Mdn/LinkUp-sub001/internal/models"
	"github.com/Abdou-Mdn/LinkUp-sub001/internal/repository"
	"gorm.io/gorm"
)

// UserService covers accounts and friendships. Friendship mutations feed
// back into chat lifecycle: removing a friend deletes the private chat.
type UserService struct {
	userRepo    repository.UserRepositoryInterface
	friendRepo  repository.FriendshipRepositoryInterface
	chatRepo    repository.ChatRepositoryInterface
	messageRepo repository.MessageRepositoryInterface
	txManager   repository.TxManager
	chatCache   ChatListCache
}

func NewUserService(
	userRepo repository.UserRepositoryInterface,
	friendRepo repository.FriendshipRepositoryInterface,
	chatRepo repository.ChatRepositoryInterface,
	messageRepo repository.MessageRepositoryInterface,
	txManager repository.TxManager,
	chatCache ChatListCache,
) *UserService {
	return &UserService{
		userRepo:    userRepo,
		friendRepo:  friendRepo,
		chatRepo:    chatRepo,
		messageRepo: messageRepo,
		txManager:   txManager,
		chatCache:   chatCache,
	}
}

func (s *UserService) GetUser(id uint) (*models.User, error) {
	user, err := s.userRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundf("user %d not found", id)
		}
		return nil, err
	}
	return user, nil
}

func (s *UserService) ListFriends(userID uint) ([]models.UserResponse, error) {
	rows, err := s.friendRepo.ListFriends(userID)
	if err != nil {
		return nil, err
	}
	out := make([]models.UserResponse, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.Friend.ToResponse())
	}
	return out, nil
}

func (s *UserService) ListIncomingRequests(userID uint) ([]models.FriendRequest, error) {
	return s.friendRepo.ListIncomingRequests(userID)
}

func (s *UserService) ListOutgoingRequests(userID uint) ([]models.FriendRequest, error) {
	return s.friendRepo.ListOutgoingRequests(userID)
}

// SendFriendRequest creates the request pair entry.
func (s *UserService) SendFriendRequest(fromID, toID uint) error {
	if fromID == toID {
		return invalidf("cannot send a friend request to yourself")
	}
	if _, err := s.GetUser(toID); err != nil {
		return err
	}
	friends, err := s.friendRepo.AreFriends(fromID, toID)
	if err != nil {
		return err
	}
	if friends {
		return conflictf("users %d and %d are already friends", fromID, toID)
	}
	if _, err := s.friendRepo.FindRequest(fromID, toID); err == nil {
		return conflictf("friend request already sent")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	if _, err := s.friendRepo.FindRequest(toID, fromID); err == nil {
		return conflictf("user %d already sent you a request", toID)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	return s.friendRepo.CreateRequest(fromID, toID)
}

// AcceptFriendRequest removes the request pair and writes the friendship
// rows together.
func (s *UserService) AcceptFriendRequest(actorID, fromID uint) error {
	if _, err := s.friendRepo.FindRequest(fromID, actorID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFoundf("no friend request from user %d", fromID)
		}
		return err
	}
	return s.txManager.InTransaction(func(tx *gorm.DB) error {
		friends := s.friendRepo.WithTx(tx)
		if err := friends.DeleteRequest(fromID, actorID); err != nil {
			return err
		}
		return friends.CreateFriendship(actorID, fromID)
	})
}

func (s *UserService) DeclineFriendRequest(actorID, fromID uint) error {
	if _, err := s.friendRepo.FindRequest(fromID, actorID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFoundf("no friend request from user %d", fromID)
		}
		return err
	}
	return s.friendRepo.DeleteRequest(fromID, actorID)
}

func (s *UserService) CancelFriendRequest(actorID, toID uint) error {
	if _, err := s.friendRepo.FindRequest(actorID, toID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFoundf("no pending friend request to user %d", toID)
		}
		return err
	}
	return s.friendRepo.DeleteRequest(actorID, toID)
}

// RemoveFriend deletes the friendship and, with it, the pair's private
// chat and its messages, in one transaction.
func (s *UserService) RemoveFriend(actorID, friendID uint) error {
	friends, err := s.friendRepo.AreFriends(actorID, friendID)
	if err != nil {
		return err
	}
	if !friends {
		return notFoundf("users %d and %d are not friends", actorID, friendID)
	}

	err = s.txManager.InTransaction(func(tx *gorm.DB) error {
		if err := s.friendRepo.WithTx(tx).DeleteFriendship(actorID, friendID); err != nil {
			return err
		}

		chats := s.chatRepo.WithTx(tx)
		chat, err := chats.FindPrivateByPairKey(models.PairKey(actorID, friendID))
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil // never chatted
			}
			return err
		}
		if err := chats.ClearLastMessage(chat.ID); err != nil {
			return err
		}
		if err := s.messageRepo.WithTx(tx).DeleteByChat(chat.ID); err != nil {
			return err
		}
		return chats.Delete(chat.ID)
	})
	if err != nil {
		return err
	}
	s.chatCache.Invalidate(actorID, friendID)
	return nil
}

// SetUserOffline stamps last_seen at disconnect and returns the timestamp
// for the userOffline broadcast.
func (s *UserService) SetUserOffline(id uint) (time.Time, error) {
	now := time.Now()
	if err := s.userRepo.UpdateLastSeen(id, now); err != nil {
		return time.Time{}, err
	}
	return now, nil
}

// DeleteAccount soft-deletes the user so existing messages and
// memberships keep resolving while lookups exclude the account.
func (s *UserService) DeleteAccount(id uint) error {
	if _, err := s.GetUser(id); err != nil {
		return err
	}
	return s.userRepo.SoftDelete(id)
}
