package repository

import (
	"github.com/candrle20/researchtools/internal/model"
	"gorm.io/gorm"
)

// LabRepository 实验室仓储接口
type LabRepository interface {
	Create(lab *model.LabModel) error
	Save(lab *model.LabModel) error
	FindByID(id string) (*model.LabModel, error)
	FindByCode(code string) (*model.LabModel, error)
	FindAll() ([]*model.LabModel, error)
	FindBySchool(schoolID string) ([]*model.LabModel, error)
	FindByMember(userID string) ([]*model.LabModel, error)
	Delete(id string) error
}

// labRepository 实验室仓储实现
type labRepository struct {
	db *gorm.DB
}

// NewLabRepository 创建实验室仓储
func NewLabRepository(db *gorm.DB) LabRepository {
	return &labRepository{db: db}
}

// Create 创建实验室
func (r *labRepository) Create(lab *model.LabModel) error {
	return r.db.Create(lab).Error
}

// Save 保存实验室
func (r *labRepository) Save(lab *model.LabModel) error {
	return r.db.Save(lab).Error
}

// FindByID 根据 ID 查找实验室
func (r *labRepository) FindByID(id string) (*model.LabModel, error) {
	var lab model.LabModel
	if err := r.db.Where("id = ?", id).First(&lab).Error; err != nil {
		return nil, err
	}
	return &lab, nil
}

// FindByCode 根据代码查找实验室
func (r *labRepository) FindByCode(code string) (*model.LabModel, error) {
	var lab model.LabModel
	if err := r.db.Where("code = ?", code).First(&lab).Error; err != nil {
		return nil, err
	}
	return &lab, nil
}

// FindAll 查找所有实验室
func (r *labRepository) FindAll() ([]*model.LabModel, error) {
	var labs []*model.LabModel
	err := r.db.Order("name").Find(&labs).Error
	return labs, err
}

// FindBySchool 查找学院下的实验室
func (r *labRepository) FindBySchool(schoolID string) ([]*model.LabModel, error) {
	var labs []*model.LabModel
	err := r.db.Where("school_id = ?", schoolID).Order("name").Find(&labs).Error
	return labs, err
}

// FindByMember 查找用户加入的实验室
func (r *labRepository) FindByMember(userID string) ([]*model.LabModel, error) {
	var labs []*model.LabModel
	err := r.db.
		Joins("JOIN lab_memberships ON lab_memberships.lab_id = labs.id").
		Where("lab_memberships.user_id = ? AND lab_memberships.is_active = ?", userID, true).
		Order("labs.name").
		Find(&labs).Error
	return labs, err
}

// Delete 删除实验室
func (r *labRepository) Delete(id string) error {
	return r.db.Where("id = ?", id).Delete(&model.LabModel{}).Error
}
