package repository

import (
	"github.com/candrle20/researchtools/internal/model"
	"gorm.io/gorm"
)

// MembershipRepository 实验室成员仓储接口
type MembershipRepository interface {
	Create(membership *model.LabMembershipModel) error
	FindByID(id string) (*model.LabMembershipModel, error)
	FindByUserAndLab(userID, labID string) (*model.LabMembershipModel, error)
	FindByLab(labID string) ([]*model.LabMembershipModel, error)
	FindByUser(userID string) ([]*model.LabMembershipModel, error)
	FindBySchool(schoolID string) ([]*model.LabMembershipModel, error)
	FindAll() ([]*model.LabMembershipModel, error)
}

// membershipRepository 实验室成员仓储实现
type membershipRepository struct {
	db *gorm.DB
}

// NewMembershipRepository 创建成员仓储
func NewMembershipRepository(db *gorm.DB) MembershipRepository {
	return &membershipRepository{db: db}
}

// Create 创建成员记录
// (user_id, lab_id) 唯一约束由数据库保证
func (r *membershipRepository) Create(membership *model.LabMembershipModel) error {
	return r.db.Create(membership).Error
}

// FindByID 根据 ID 查找成员记录
func (r *membershipRepository) FindByID(id string) (*model.LabMembershipModel, error) {
	var m model.LabMembershipModel
	if err := r.db.Where("id = ?", id).First(&m).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

// FindByUserAndLab 查找用户在实验室的成员记录
func (r *membershipRepository) FindByUserAndLab(userID, labID string) (*model.LabMembershipModel, error) {
	var m model.LabMembershipModel
	if err := r.db.Where("user_id = ? AND lab_id = ?", userID, labID).First(&m).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

// FindByLab 查找实验室的成员
func (r *membershipRepository) FindByLab(labID string) ([]*model.LabMembershipModel, error) {
	var ms []*model.LabMembershipModel
	err := r.db.Where("lab_id = ?", labID).Order("joined_at DESC").Find(&ms).Error
	return ms, err
}

// FindByUser 查找用户的成员记录
func (r *membershipRepository) FindByUser(userID string) ([]*model.LabMembershipModel, error) {
	var ms []*model.LabMembershipModel
	err := r.db.Where("user_id = ?", userID).Order("joined_at DESC").Find(&ms).Error
	return ms, err
}

// FindBySchool 查找学院下所有实验室的成员记录
func (r *membershipRepository) FindBySchool(schoolID string) ([]*model.LabMembershipModel, error) {
	var ms []*model.LabMembershipModel
	err := r.db.
		Joins("JOIN labs ON labs.id = lab_memberships.lab_id").
		Where("labs.school_id = ?", schoolID).
		Order("lab_memberships.joined_at DESC").
		Find(&ms).Error
	return ms, err
}

// FindAll 查找所有成员记录
func (r *membershipRepository) FindAll() ([]*model.LabMembershipModel, error) {
	var ms []*model.LabMembershipModel
	err := r.db.Order("joined_at DESC").Find(&ms).Error
	return ms, err
}
