package repository

import (
	"github.com/candrle20/researchtools/internal/model"
	"gorm.io/gorm"
)

// SchoolRepository 学院仓储接口
type SchoolRepository interface {
	Create(school *model.SchoolModel) error
	Save(school *model.SchoolModel) error
	FindByID(id string) (*model.SchoolModel, error)
	FindAll() ([]*model.SchoolModel, error)
	FindByAdmin(adminID string) ([]*model.SchoolModel, error)
	Delete(id string) error
}

// schoolRepository 学院仓储实现
type schoolRepository struct {
	db *gorm.DB
}

// NewSchoolRepository 创建学院仓储
func NewSchoolRepository(db *gorm.DB) SchoolRepository {
	return &schoolRepository{db: db}
}

// Create 创建学院
func (r *schoolRepository) Create(school *model.SchoolModel) error {
	return r.db.Create(school).Error
}

// Save 保存学院
func (r *schoolRepository) Save(school *model.SchoolModel) error {
	return r.db.Save(school).Error
}

// FindByID 根据 ID 查找学院
func (r *schoolRepository) FindByID(id string) (*model.SchoolModel, error) {
	var school model.SchoolModel
	if err := r.db.Where("id = ?", id).First(&school).Error; err != nil {
		return nil, err
	}
	return &school, nil
}

// FindAll 查找所有学院
func (r *schoolRepository) FindAll() ([]*model.SchoolModel, error) {
	var schools []*model.SchoolModel
	err := r.db.Order("name").Find(&schools).Error
	return schools, err
}

// FindByAdmin 查找管理员负责的学院
func (r *schoolRepository) FindByAdmin(adminID string) ([]*model.SchoolModel, error) {
	var schools []*model.SchoolModel
	err := r.db.Where("admin_id = ?", adminID).Order("name").Find(&schools).Error
	return schools, err
}

// Delete 删除学院
func (r *schoolRepository) Delete(id string) error {
	return r.db.Where("id = ?", id).Delete(&model.SchoolModel{}).Error
}
