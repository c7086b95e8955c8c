package repository

import (
	"github.com/candrle20/researchtools/internal/model"
	"gorm.io/gorm"
)

// JoinRequestRepository 加入申请仓储接口
type JoinRequestRepository interface {
	Create(request *model.LabJoinRequestModel) error
	Save(request *model.LabJoinRequestModel) error
	FindByID(id string) (*model.LabJoinRequestModel, error)
	FindByLab(labID string) ([]*model.LabJoinRequestModel, error)
	FindByUser(userID string) ([]*model.LabJoinRequestModel, error)
	FindBySchool(schoolID string) ([]*model.LabJoinRequestModel, error)
	FindAll() ([]*model.LabJoinRequestModel, error)
}

// joinRequestRepository 加入申请仓储实现
type joinRequestRepository struct {
	db *gorm.DB
}

// NewJoinRequestRepository 创建加入申请仓储
func NewJoinRequestRepository(db *gorm.DB) JoinRequestRepository {
	return &joinRequestRepository{db: db}
}

// Create 创建加入申请
// (user_id, lab_id, status) 唯一约束由数据库保证,
// 重复的待处理申请在此处报唯一冲突
func (r *joinRequestRepository) Create(request *model.LabJoinRequestModel) error {
	return r.db.Create(request).Error
}

// Save 保存加入申请
func (r *joinRequestRepository) Save(request *model.LabJoinRequestModel) error {
	return r.db.Save(request).Error
}

// FindByID 根据 ID 查找加入申请
func (r *joinRequestRepository) FindByID(id string) (*model.LabJoinRequestModel, error) {
	var req model.LabJoinRequestModel
	if err := r.db.Where("id = ?", id).First(&req).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

// FindByLab 查找实验室的加入申请
func (r *joinRequestRepository) FindByLab(labID string) ([]*model.LabJoinRequestModel, error) {
	var reqs []*model.LabJoinRequestModel
	err := r.db.Where("lab_id = ?", labID).Order("created_at DESC").Find(&reqs).Error
	return reqs, err
}

// FindByUser 查找用户发起的加入申请
func (r *joinRequestRepository) FindByUser(userID string) ([]*model.LabJoinRequestModel, error) {
	var reqs []*model.LabJoinRequestModel
	err := r.db.Where("user_id = ?", userID).Order("created_at DESC").Find(&reqs).Error
	return reqs, err
}

// FindBySchool 查找学院下所有实验室的加入申请
func (r *joinRequestRepository) FindBySchool(schoolID string) ([]*model.LabJoinRequestModel, error) {
	var reqs []*model.LabJoinRequestModel
	err := r.db.
		Joins("JOIN labs ON labs.id = lab_join_requests.lab_id").
		Where("labs.school_id = ?", schoolID).
		Order("lab_join_requests.created_at DESC").
		Find(&reqs).Error
	return reqs, err
}

// FindAll 查找所有加入申请
func (r *joinRequestRepository) FindAll() ([]*model.LabJoinRequestModel, error) {
	var reqs []*model.LabJoinRequestModel
	err := r.db.Order("created_at DESC").Find(&reqs).Error
	return reqs, err
}
