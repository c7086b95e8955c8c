package repository

import (
	"github.com/candrle20/researchtools/internal/model"
	"gorm.io/gorm"
)

// UserRepository 用户仓储接口
type UserRepository interface {
	Create(user *model.UserModel) error
	Save(user *model.UserModel) error
	FindByID(id string) (*model.UserModel, error)
	FindByUsername(username string) (*model.UserModel, error)
	FindByEmail(email string) (*model.UserModel, error)
	FindAll() ([]*model.UserModel, error)
	FindBySchool(schoolID string) ([]*model.UserModel, error)
}

// userRepository 用户仓储实现
type userRepository struct {
	db *gorm.DB
}

// NewUserRepository 创建用户仓储
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

// Create 创建用户
func (r *userRepository) Create(user *model.UserModel) error {
	return r.db.Create(user).Error
}

// Save 保存用户
func (r *userRepository) Save(user *model.UserModel) error {
	return r.db.Save(user).Error
}

// FindByID 根据 ID 查找用户
func (r *userRepository) FindByID(id string) (*model.UserModel, error) {
	var user model.UserModel
	if err := r.db.Where("id = ?", id).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByUsername 根据用户名查找用户
func (r *userRepository) FindByUsername(username string) (*model.UserModel, error) {
	var user model.UserModel
	if err := r.db.Where("username = ?", username).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByEmail 根据邮箱查找用户
func (r *userRepository) FindByEmail(email string) (*model.UserModel, error) {
	var user model.UserModel
	if err := r.db.Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindAll 查找所有用户
func (r *userRepository) FindAll() ([]*model.UserModel, error) {
	var users []*model.UserModel
	err := r.db.Order("username").Find(&users).Error
	return users, err
}

// FindBySchool 查找学院下的用户
func (r *userRepository) FindBySchool(schoolID string) ([]*model.UserModel, error) {
	var users []*model.UserModel
	err := r.db.Where("school_id = ?", schoolID).Order("username").Find(&users).Error
	return users, err
}
