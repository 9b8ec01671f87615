package models

import (
	"time"

	"gorm.io/gorm"
)

type User struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Name         string     `gorm:"size:100;not null" json:"name"`
	Email        string     `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string     `gorm:"not null" json:"-"`
	LastSeen     *time.Time `json:"last_seen"`
}

// Friendship is stored as two mirrored rows, one per direction, so each
// user's friend list reads from its own rows.
type Friendship struct {
	UserID   uint      `gorm:"primaryKey" json:"user_id"`
	FriendID uint      `gorm:"primaryKey" json:"friend_id"`
	Since    time.Time `gorm:"autoCreateTime" json:"since"`

	Friend User `gorm:"foreignKey:FriendID" json:"friend"`
}

// FriendRequest is a single row serving both sides of the pair: the
// sender's sent-requests view and the recipient's incoming view.
type FriendRequest struct {
	FromID      uint      `gorm:"primaryKey" json:"from_id"`
	ToID        uint      `gorm:"primaryKey" json:"to_id"`
	RequestedAt time.Time `gorm:"autoCreateTime" json:"requested_at"`

	From User `gorm:"foreignKey:FromID" json:"from"`
	To   User `gorm:"foreignKey:ToID" json:"to"`
}

type UserResponse struct {
	ID       uint       `json:"id"`
	Name     string     `json:"name"`
	Email    string     `json:"email"`
	LastSeen *time.Time `json:"last_seen"`
}

func (u *User) ToResponse() UserResponse {
	return UserResponse{
		ID:       u.ID,
		Name:     u.Name,
		Email:    u.Email,
		LastSeen: u.LastSeen,
	}
}
