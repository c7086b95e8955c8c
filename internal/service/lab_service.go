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

// LabService 实验室服务接口
type LabService interface {
	Create(ctx context.Context, actor *model.UserModel, req *LabRequest) (*model.LabModel, error)
	Get(actor *model.UserModel, id string) (*model.LabModel, error)
	Update(ctx context.Context, actor *model.UserModel, id string, req *LabRequest) (*model.LabModel, error)
	Delete(ctx context.Context, actor *model.UserModel, id string) error
	List(actor *model.UserModel) ([]*model.LabModel, error)
}

// LabRequest 创建/更新实验室请求
type LabRequest struct {
	Name        string `json:"name" binding:"required"`
	Code        string `json:"code" binding:"required"`
	Description string `json:"description"`
	SchoolID    string `json:"school_id" binding:"required"`
	PIID        string `json:"pi_id"`
}

// labService 实验室服务实现
type labService struct {
	db             *gorm.DB
	labRepo        repository.LabRepository
	schoolRepo     repository.SchoolRepository
	userRepo       repository.UserRepository
	membershipRepo repository.MembershipRepository
	auditLogSvc    AuditLogService
}

// NewLabService 创建实验室服务
func NewLabService(db *gorm.DB, auditLogSvc AuditLogService) LabService {
	return &labService{
		db:             db,
		labRepo:        repository.NewLabRepository(db),
		schoolRepo:     repository.NewSchoolRepository(db),
		userRepo:       repository.NewUserRepository(db),
		membershipRepo: repository.NewMembershipRepository(db),
		auditLogSvc:    auditLogSvc,
	}
}

// Create 创建实验室
// 仅管理员可操作;指定 PI 时在同一事务内为其物化 PI 成员记录
func (s *labService) Create(ctx context.Context, actor *model.UserModel, req *LabRequest) (*model.LabModel, error) {
	if !auth.Can(actor, auth.CapManageLabs) {
		return nil, NewAuthorizationError("only administrators can create labs")
	}

	code := strings.ToUpper(strings.TrimSpace(req.Code))
	if code == "" {
		return nil, NewValidationError("lab code is required")
	}
	if _, err := s.schoolRepo.FindByID(req.SchoolID); err != nil {
		if repository.IsNotFound(err) {
			return nil, NewValidationError("school not found: %s", req.SchoolID)
		}
		return nil, fmt.Errorf("failed to load school: %w", err)
	}

	var piID *string
	if req.PIID != "" {
		pi, err := s.userRepo.FindByID(req.PIID)
		if err != nil {
			if repository.IsNotFound(err) {
				return nil, NewValidationError("PI user not found: %s", req.PIID)
			}
			return nil, fmt.Errorf("failed to load PI user: %w", err)
		}
		piID = &pi.ID
	}

	now := time.Now()
	lab := &model.LabModel{
		ID:          uuid.New().String(),
		Name:        utils.SanitizeString(req.Name),
		Code:        code,
		Description: utils.SanitizeString(req.Description),
		SchoolID:    req.SchoolID,
		PIID:        piID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(lab).Error; err != nil {
			if repository.IsUniqueViolation(err) {
				return NewValidationError("lab code is already taken: %s", code)
			}
			return fmt.Errorf("failed to create lab: %w", err)
		}

		if piID != nil {
			membership := &model.LabMembershipModel{
				ID:           uuid.New().String(),
				UserID:       *piID,
				LabID:        lab.ID,
				Role:         model.MembershipRolePI,
				IsActive:     true,
				ApprovedByID: &actor.ID,
				ApprovedAt:   &now,
				JoinedAt:     now,
			}
			if err := tx.Create(membership).Error; err != nil {
				return fmt.Errorf("failed to create PI membership: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.audit(ctx, actor, "create", "lab", lab.ID)
	return lab, nil
}

// Get 获取实验室详情
func (s *labService) Get(actor *model.UserModel, id string) (*model.LabModel, error) {
	lab, err := s.labRepo.FindByID(id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, NewNotFoundError("lab not found: %s", id)
		}
		return nil, fmt.Errorf("failed to load lab: %w", err)
	}
	return lab, nil
}

// Update 更新实验室
func (s *labService) Update(ctx context.Context, actor *model.UserModel, id string, req *LabRequest) (*model.LabModel, error) {
	if !auth.Can(actor, auth.CapManageLabs) {
		return nil, NewAuthorizationError("only administrators can update labs")
	}

	lab, err := s.labRepo.FindByID(id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, NewNotFoundError("lab not found: %s", id)
		}
		return nil, fmt.Errorf("failed to load lab: %w", err)
	}

	lab.Name = utils.SanitizeString(req.Name)
	lab.Description = utils.SanitizeString(req.Description)
	if req.PIID != "" {
		lab.PIID = &req.PIID
	}
	lab.UpdatedAt = time.Now()

	if err := s.labRepo.Save(lab); err != nil {
		return nil, fmt.Errorf("failed to save lab: %w", err)
	}

	s.audit(ctx, actor, "update", "lab", lab.ID)
	return lab, nil
}

// Delete 删除实验室
func (s *labService) Delete(ctx context.Context, actor *model.UserModel, id string) error {
	if !auth.Can(actor, auth.CapManageLabs) {
		return NewAuthorizationError("only administrators can delete labs")
	}

	if _, err := s.labRepo.FindByID(id); err != nil {
		if repository.IsNotFound(err) {
			return NewNotFoundError("lab not found: %s", id)
		}
		return fmt.Errorf("failed to load lab: %w", err)
	}

	if err := s.labRepo.Delete(id); err != nil {
		return fmt.Errorf("failed to delete lab: %w", err)
	}

	s.audit(ctx, actor, "delete", "lab", id)
	return nil
}

// List 按角色返回可见的实验室
// 开发者全部;学院管理员本学院;研究员已加入的
func (s *labService) List(actor *model.UserModel) ([]*model.LabModel, error) {
	if actor == nil {
		return []*model.LabModel{}, nil
	}

	switch actor.UserType {
	case model.UserTypeDeveloper:
		return s.labRepo.FindAll()
	case model.UserTypeSchoolAdmin:
		if actor.SchoolID == nil {
			return []*model.LabModel{}, nil
		}
		return s.labRepo.FindBySchool(*actor.SchoolID)
	default:
		return s.labRepo.FindByMember(actor.ID)
	}
}

func (s *labService) audit(ctx context.Context, actor *model.UserModel, action, resourceType, resourceID string) {
	if s.auditLogSvc == nil || actor == nil {
		return
	}
	_ = s.auditLogSvc.RecordAction(ctx, actor.ID, action, resourceType, resourceID, nil)
}
