package repository

import (
	"github.com/Abdou-Mdn/LinkUp-sub001/internal/models"
	"gorm.io/gorm"
)

type FriendshipRepository struct {
	db *gorm.DB
}

func NewFriendshipRepository(db *gorm.DB) *FriendshipRepository {
	return &FriendshipRepository{db: db}
}

func (r *FriendshipRepository) WithTx(tx *gorm.DB) FriendshipRepositoryInterface {
	if tx == nil {
		return r
	}
	return &FriendshipRepository{db: tx}
}

func (r *FriendshipRepository) CreateRequest(fromID, toID uint) error {
	return r.db.Create(&models.FriendRequest{FromID: fromID, ToID: toID}).Error
}

func (r *FriendshipRepository) FindRequest(fromID, toID uint) (*models.FriendRequest, error) {
	var req models.FriendRequest
	err := r.db.Where("from_id = ? AND to_id = ?", fromID, toID).First(&req).Error
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *FriendshipRepository) DeleteRequest(fromID, toID uint) error {
	return r.db.Where("from_id = ? AND to_id = ?", fromID, toID).
		Delete(&models.FriendRequest{}).Error
}

// CreateFriendship writes both directions so each user's friend list is a
// plain read of its own rows.
func (r *FriendshipRepository) CreateFriendship(userID, friendID uint) error {
	rows := []models.Friendship{
		{UserID: userID, FriendID: friendID},
		{UserID: friendID, FriendID: userID},
	}
	return r.db.Create(&rows).Error
}

func (r *FriendshipRepository) DeleteFriendship(userID, friendID uint) error {
	return r.db.Where(
		"(user_id = ? AND friend_id = ?) OR (user_id = ? AND friend_id = ?)",
		userID, friendID, friendID, userID,
	).Delete(&models.Friendship{}).Error
}

func (r *FriendshipRepository) ListFriends(userID uint) ([]models.Friendship, error) {
	var rows []models.Friendship
	err := r.db.Preload("Friend").
		Where("user_id = ?", userID).
		Order("since ASC").
		Find(&rows).Error
	return rows, err
}

func (r *FriendshipRepository) ListIncomingRequests(userID uint) ([]models.FriendRequest, error) {
	var rows []models.FriendRequest
	err := r.db.Preload("From").
		Where("to_id = ?", userID).
		Order("requested_at ASC").
		Find(&rows).Error
	return rows, err
}

func (r *FriendshipRepository) ListOutgoingRequests(userID uint) ([]models.FriendRequest, error) {
	var rows []models.FriendRequest
	err := r.db.Preload("To").
		Where("from_id = ?", userID).
		Order("requested_at ASC").
		Find(&rows).Error
	return rows, err
}

func (r *FriendshipRepository) AreFriends(userID, friendID uint) (bool, error) {
	var count int64
	err := r.db.Model(&models.Friendship{}).
		Where("user_id = ? AND friend_id = ?", userID, friendID).
		Count(&count).Error
	return count > 0, err
}
