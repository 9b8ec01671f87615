package repository

import (
	"github.com/Abdou-Mdn/LinkUp-sub001/internal/models"
	"gorm.io/gorm"
)

type GroupRepository struct {
	db *gorm.DB
}

func NewGroupRepository(db *gorm.DB) *GroupRepository {
	return &GroupRepository{db: db}
}

func (r *GroupRepository) WithTx(tx *gorm.DB) GroupRepositoryInterface {
	if tx == nil {
		return r
	}
	return &GroupRepository{db: tx}
}

func (r *GroupRepository) Create(group *models.Group) error {
	return r.db.Create(group).Error
}

func (r *GroupRepository) FindByID(id uint) (*models.Group, error) {
	var group models.Group
	err := r.db.Preload("Members", func(db *gorm.DB) *gorm.DB {
		return db.Order("group_members.joined_at ASC")
	}).Preload("Members.User").First(&group, id).Error
	if err != nil {
		return nil, err
	}
	return &group, nil
}

func (r *GroupRepository) UpdateProfile(id uint, fields map[string]interface{}) error {
	return r.db.Model(&models.Group{}).Where("id = ?", id).Updates(fields).Error
}

func (r *GroupRepository) Delete(id uint) error {
	if err := r.db.Where("group_id = ?", id).Delete(&models.GroupMember{}).Error; err != nil {
		return err
	}
	if err := r.db.Where("group_id = ?", id).Delete(&models.GroupJoinRequest{}).Error; err != nil {
		return err
	}
	return r.db.Delete(&models.Group{}, id).Error
}

func (r *GroupRepository) AddMember(groupID, userID uint, role models.GroupRole) error {
	member := models.GroupMember{
		GroupID: groupID,
		UserID:  userID,
		Role:    role,
	}
	return r.db.Create(&member).Error
}

func (r *GroupRepository) RemoveMember(groupID, userID uint) error {
	return r.db.Where("group_id = ? AND user_id = ?", groupID, userID).
		Delete(&models.GroupMember{}).Error
}

func (r *GroupRepository) IsMember(groupID, userID uint) (bool, error) {
	var count int64
	err := r.db.Model(&models.GroupMember{}).
		Where("group_id = ? AND user_id = ?", groupID, userID).
		Count(&count).Error
	return count > 0, err
}

func (r *GroupRepository) GetMemberRole(groupID, userID uint) (models.GroupRole, error) {
	var member models.GroupMember
	if err := r.db.Where("group_id = ? AND user_id = ?", groupID, userID).First(&member).Error; err != nil {
		return "", err
	}
	return member.Role, nil
}

func (r *GroupRepository) UpdateMemberRole(groupID, userID uint, role models.GroupRole) error {
	return r.db.Model(&models.GroupMember{}).
		Where("group_id = ? AND user_id = ?", groupID, userID).
		Update("role", role).Error
}

func (r *GroupRepository) CountMembers(groupID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.GroupMember{}).
		Where("group_id = ?", groupID).
		Count(&count).Error
	return count, err
}

func (r *GroupRepository) CountAdmins(groupID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.GroupMember{}).
		Where("group_id = ? AND role = ?", groupID, models.RoleAdmin).
		Count(&count).Error
	return count, err
}

// EarliestMember returns the longest-standing member, the auto-promotion
// target when the admin set would otherwise empty out.
func (r *GroupRepository) EarliestMember(groupID uint) (*models.GroupMember, error) {
	var member models.GroupMember
	err := r.db.Where("group_id = ?", groupID).
		Order("joined_at ASC").
		First(&member).Error
	if err != nil {
		return nil, err
	}
	return &member, nil
}

func (r *GroupRepository) CreateJoinRequest(groupID, userID uint) error {
	return r.db.Create(&models.GroupJoinRequest{GroupID: groupID, UserID: userID}).Error
}

func (r *GroupRepository) FindJoinRequest(groupID, userID uint) (*models.GroupJoinRequest, error) {
	var req models.GroupJoinRequest
	err := r.db.Where("group_id = ? AND user_id = ?", groupID, userID).First(&req).Error
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *GroupRepository) DeleteJoinRequest(groupID, userID uint) error {
	return r.db.Where("group_id = ? AND user_id = ?", groupID, userID).
		Delete(&models.GroupJoinRequest{}).Error
}
