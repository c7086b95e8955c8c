package service

import (
	"fmt"

	"github.com/candrle20/researchtools/internal/model"
	"github.com/candrle20/researchtools/internal/repository"
	"gorm.io/gorm"
)

// UserService 用户查询服务接口
type UserService interface {
	Get(actor *model.UserModel, id string) (*model.UserModel, error)
	List(actor *model.UserModel) ([]*model.UserModel, error)
}

// userService 用户服务实现
type userService struct {
	userRepo repository.UserRepository
}

// NewUserService 创建用户服务
func NewUserService(db *gorm.DB) UserService {
	return &userService{userRepo: repository.NewUserRepository(db)}
}

// Get 获取用户详情
// 研究员只能查看自己;学院管理员只能查看本学院用户
func (s *userService) Get(actor *model.UserModel, id string) (*model.UserModel, error) {
	user, err := s.userRepo.FindByID(id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, NewNotFoundError("user not found: %s", id)
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if actor == nil {
		return nil, NewAuthorizationError("actor is required")
	}
	switch actor.UserType {
	case model.UserTypeDeveloper:
		return user, nil
	case model.UserTypeSchoolAdmin:
		if actor.ID == user.ID {
			return user, nil
		}
		if actor.SchoolID != nil && user.SchoolID != nil && *actor.SchoolID == *user.SchoolID {
			return user, nil
		}
		return nil, NewNotFoundError("user not found: %s", id)
	default:
		if actor.ID != user.ID {
			return nil, NewNotFoundError("user not found: %s", id)
		}
		return user, nil
	}
}

// List 按角色返回可见的用户
func (s *userService) List(actor *model.UserModel) ([]*model.UserModel, error) {
	if actor == nil {
		return []*model.UserModel{}, nil
	}

	switch actor.UserType {
	case model.UserTypeDeveloper:
		return s.userRepo.FindAll()
	case model.UserTypeSchoolAdmin:
		if actor.SchoolID == nil {
			return []*model.UserModel{}, nil
		}
		return s.userRepo.FindBySchool(*actor.SchoolID)
	default:
		return []*model.UserModel{actor}, nil
	}
}
