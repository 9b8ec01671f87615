package models

import (
	"time"
)

type GroupRole string

const (
	RoleAdmin  GroupRole = "admin"
	RoleMember GroupRole = "member"
)

type Group struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Name        string `gorm:"size:100;not null" json:"name"`
	Description string `gorm:"size:255" json:"description"`
	Image       string `json:"image"`
	Banner      string `json:"banner"`

	Members []GroupMember `gorm:"foreignKey:GroupID" json:"members"`
}

type GroupMember struct {
	GroupID  uint      `gorm:"primaryKey" json:"group_id"`
	UserID   uint      `gorm:"primaryKey" json:"user_id"`
	Role     GroupRole `gorm:"type:varchar(20);default:'member'" json:"role"`
	JoinedAt time.Time `gorm:"autoCreateTime" json:"joined_at"`

	User  User  `gorm:"foreignKey:UserID" json:"user"`
	Group Group `gorm:"foreignKey:GroupID" json:"-"`
}

// GroupJoinRequest is the matched pair of the group's join-requests view
// and the requester's sent-requests view, kept as one row.
type GroupJoinRequest struct {
	GroupID     uint      `gorm:"primaryKey" json:"group_id"`
	UserID      uint      `gorm:"primaryKey" json:"user_id"`
	RequestedAt time.Time `gorm:"autoCreateTime" json:"requested_at"`

	User  User  `gorm:"foreignKey:UserID" json:"user"`
	Group Group `gorm:"foreignKey:GroupID" json:"-"`
}

type GroupResponse struct {
	ID          uint                  `json:"id"`
	Name        string                `json:"name"`
	Description string                `json:"description"`
	Image       string                `json:"image"`
	Banner      string                `json:"banner"`
	Members     []GroupMemberResponse `json:"members,omitempty"`
	CreatedAt   time.Time             `json:"created_at"`
}

type GroupMemberResponse struct {
	User     UserResponse `json:"user"`
	Role     GroupRole    `json:"role"`
	JoinedAt time.Time    `json:"joined_at"`
}

func (g *Group) ToResponse() GroupResponse {
	resp := GroupResponse{
		ID:          g.ID,
		Name:        g.Name,
		Description: g.Description,
		Image:       g.Image,
		Banner:      g.Banner,
		CreatedAt:   g.CreatedAt,
	}
	for i := range g.Members {
		m := &g.Members[i]
		resp.Members = append(resp.Members, GroupMemberResponse{
			User:     m.User.ToResponse(),
			Role:     m.Role,
			JoinedAt: m.JoinedAt,
		})
	}
	return resp
}

// ToPreview returns the shallow group summary embedded in invite messages.
func (g *Group) ToPreview() GroupPreview {
	return GroupPreview{
		ID:          g.ID,
		Name:        g.Name,
		Description: g.Description,
		Image:       g.Image,
	}
}

type GroupPreview struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Image       string `json:"image"`
}
