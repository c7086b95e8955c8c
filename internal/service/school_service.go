package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/candrle20/researchtools/internal/auth"
	"github.com/candrle20/researchtools/internal/model"
	"github.com/candrle20/researchtools/internal/repository"
	"github.com/candrle20/researchtools/internal/utils"
	"gorm.io/gorm"
)

// SchoolService 学院服务接口
type SchoolService interface {
	Create(ctx context.Context, actor *model.UserModel, req *SchoolRequest) (*model.SchoolModel, error)
	Get(actor *model.UserModel, id string) (*model.SchoolModel, error)
	Update(ctx context.Context, actor *model.UserModel, id string, req *SchoolRequest) (*model.SchoolModel, error)
	Delete(ctx context.Context, actor *model.UserModel, id string) error
	List(actor *model.UserModel) ([]*model.SchoolModel, error)
}

// SchoolRequest 创建/更新学院请求
type SchoolRequest struct {
	Name        string `json:"name" binding:"required"`
	Code        string `json:"code" binding:"required"`
	Description string `json:"description"`
	AdminID     string `json:"admin_id"`
}

// schoolService 学院服务实现
type schoolService struct {
	schoolRepo  repository.SchoolRepository
	userRepo    repository.UserRepository
	auditLogSvc AuditLogService
}

// NewSchoolService 创建学院服务
func NewSchoolService(db *gorm.DB, auditLogSvc AuditLogService) SchoolService {
	return &schoolService{
		schoolRepo:  repository.NewSchoolRepository(db),
		userRepo:    repository.NewUserRepository(db),
		auditLogSvc: auditLogSvc,
	}
}

// Create 创建学院
// 仅平台开发者可操作
func (s *schoolService) Create(ctx context.Context, actor *model.UserModel, req *SchoolRequest) (*model.SchoolModel, error) {
	if !auth.Can(actor, auth.CapManageSchools) {
		return nil, NewAuthorizationError("only platform developers can create schools")
	}

	code := strings.ToUpper(strings.TrimSpace(req.Code))
	if code == "" {
		return nil, NewValidationError("school code is required")
	}

	var adminID *string
	if req.AdminID != "" {
		admin, err := s.userRepo.FindByID(req.AdminID)
		if err != nil {
			if repository.IsNotFound(err) {
				return nil, NewValidationError("admin user not found: %s", req.AdminID)
			}
			return nil, fmt.Errorf("failed to load admin user: %w", err)
		}
		adminID = &admin.ID
	}

	now := time.Now()
	school := &model.SchoolModel{
		ID:          uuid.New().String(),
		Name:        utils.SanitizeString(req.Name),
		Code:        code,
		Description: utils.SanitizeString(req.Description),
		AdminID:     adminID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.schoolRepo.Create(school); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, NewValidationError("school code is already taken: %s", code)
		}
		return nil, fmt.Errorf("failed to create school: %w", err)
	}

	s.audit(ctx, actor, "create", school.ID)
	return school, nil
}

// Get 获取学院详情
// 学院管理员仅能查看自己负责的学院
func (s *schoolService) Get(actor *model.UserModel, id string) (*model.SchoolModel, error) {
	school, err := s.schoolRepo.FindByID(id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, NewNotFoundError("school not found: %s", id)
		}
		return nil, fmt.Errorf("failed to load school: %w", err)
	}

	if actor != nil && actor.UserType == model.UserTypeSchoolAdmin {
		if actor.SchoolID == nil || *actor.SchoolID != school.ID {
			return nil, NewNotFoundError("school not found: %s", id)
		}
	}
	return school, nil
}

// Update 更新学院
func (s *schoolService) Update(ctx context.Context, actor *model.UserModel, id string, req *SchoolRequest) (*model.SchoolModel, error) {
	if !auth.Can(actor, auth.CapManageSchools) {
		return nil, NewAuthorizationError("only platform developers can update schools")
	}

	school, err := s.schoolRepo.FindByID(id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, NewNotFoundError("school not found: %s", id)
		}
		return nil, fmt.Errorf("failed to load school: %w", err)
	}

	school.Name = utils.SanitizeString(req.Name)
	school.Description = utils.SanitizeString(req.Description)
	if req.AdminID != "" {
		school.AdminID = &req.AdminID
	}
	school.UpdatedAt = time.Now()

	if err := s.schoolRepo.Save(school); err != nil {
		return nil, fmt.Errorf("failed to save school: %w", err)
	}

	s.audit(ctx, actor, "update", school.ID)
	return school, nil
}

// Delete 删除学院
func (s *schoolService) Delete(ctx context.Context, actor *model.UserModel, id string) error {
	if !auth.Can(actor, auth.CapManageSchools) {
		return NewAuthorizationError("only platform developers can delete schools")
	}

	if _, err := s.schoolRepo.FindByID(id); err != nil {
		if repository.IsNotFound(err) {
			return NewNotFoundError("school not found: %s", id)
		}
		return fmt.Errorf("failed to load school: %w", err)
	}

	if err := s.schoolRepo.Delete(id); err != nil {
		return fmt.Errorf("failed to delete school: %w", err)
	}

	s.audit(ctx, actor, "delete", id)
	return nil
}

// List 按角色返回可见的学院
// 开发者全部;学院管理员本学院;研究员所属学院
func (s *schoolService) List(actor *model.UserModel) ([]*model.SchoolModel, error) {
	if actor == nil {
		return []*model.SchoolModel{}, nil
	}

	if actor.UserType == model.UserTypeDeveloper {
		return s.schoolRepo.FindAll()
	}

	if actor.SchoolID == nil {
		return []*model.SchoolModel{}, nil
	}
	school, err := s.schoolRepo.FindByID(*actor.SchoolID)
	if err != nil {
		if repository.IsNotFound(err) {
			return []*model.SchoolModel{}, nil
		}
		return nil, fmt.Errorf("failed to load school: %w", err)
	}
	return []*model.SchoolModel{school}, nil
}

func (s *schoolService) audit(ctx context.Context, actor *model.UserModel, action, resourceID string) {
	if s.auditLogSvc == nil || actor == nil {
		return
	}
	_ = s.auditLogSvc.RecordAction(ctx, actor.ID, action, "school", resourceID, nil)
}
