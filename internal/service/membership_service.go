package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/candrle20/researchtools/internal/auth"
	"github.com/candrle20/researchtools/internal/metrics"
	"github.com/candrle20/researchtools/internal/model"
	"github.com/candrle20/researchtools/internal/repository"
	"gorm.io/gorm"
)

// MembershipService 实验室成员与加入申请服务接口
type MembershipService interface {
	RequestJoin(ctx context.Context, actor *model.UserModel, req *JoinRequestInput) (*model.LabJoinRequestModel, error)
	Approve(ctx context.Context, actor *model.UserModel, requestID string) (*model.LabMembershipModel, error)
	Reject(ctx context.Context, actor *model.UserModel, requestID string) error
	ListJoinRequests(actor *model.UserModel) ([]*model.LabJoinRequestModel, error)
	ListMemberships(actor *model.UserModel) ([]*model.LabMembershipModel, error)
}

// JoinRequestInput 加入申请请求
type JoinRequestInput struct {
	LabID   string `json:"lab_id" binding:"required"`
	Message string `json:"message"`
}

// membershipService 成员服务实现
type membershipService struct {
	db             *gorm.DB
	joinRepo       repository.JoinRequestRepository
	membershipRepo repository.MembershipRepository
	labRepo        repository.LabRepository
	auditLogSvc    AuditLogService
}

// NewMembershipService 创建成员服务
func NewMembershipService(db *gorm.DB, auditLogSvc AuditLogService) MembershipService {
	return &membershipService{
		db:             db,
		joinRepo:       repository.NewJoinRequestRepository(db),
		membershipRepo: repository.NewMembershipRepository(db),
		labRepo:        repository.NewLabRepository(db),
		auditLogSvc:    auditLogSvc,
	}
}

// RequestJoin 创建加入申请
// 同一用户对同一实验室只允许一个待处理申请,
// 被拒绝后允许重新申请;已是成员时拒绝
func (s *membershipService) RequestJoin(ctx context.Context, actor *model.UserModel, req *JoinRequestInput) (*model.LabJoinRequestModel, error) {
	if actor == nil {
		return nil, NewAuthorizationError("actor is required")
	}

	if _, err := s.labRepo.FindByID(req.LabID); err != nil {
		if repository.IsNotFound(err) {
			return nil, NewNotFoundError("lab not found: %s", req.LabID)
		}
		return nil, fmt.Errorf("failed to load lab: %w", err)
	}

	// 已是成员时直接拒绝
	if _, err := s.membershipRepo.FindByUserAndLab(actor.ID, req.LabID); err == nil {
		return nil, NewValidationError("user is already a member of this lab")
	} else if !repository.IsNotFound(err) {
		return nil, fmt.Errorf("failed to check membership: %w", err)
	}

	now := time.Now()
	request := &model.LabJoinRequestModel{
		ID:        uuid.New().String(),
		UserID:    actor.ID,
		LabID:     req.LabID,
		Status:    model.JoinRequestPending,
		Message:   req.Message,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.joinRepo.Create(request); err != nil {
		// (user, lab, status) 唯一约束: 重复的待处理申请
		if repository.IsUniqueViolation(err) {
			return nil, NewValidationError("a pending join request for this lab already exists")
		}
		return nil, fmt.Errorf("failed to create join request: %w", err)
	}

	s.audit(ctx, actor, "create", "join_request", request.ID, map[string]string{"lab_id": req.LabID})
	return request, nil
}

// Approve 批准加入申请
// 仅管理员或实验室 PI 可操作;申请必须处于 PENDING;
// 在同一事务内置为 APPROVED 并物化成员记录(角色 RESEARCHER)
// APPROVED 是终态,重复批准会失败且不会产生第二条成员记录
func (s *membershipService) Approve(ctx context.Context, actor *model.UserModel, requestID string) (*model.LabMembershipModel, error) {
	var membership *model.LabMembershipModel

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var request model.LabJoinRequestModel
		if err := tx.Where("id = ?", requestID).First(&request).Error; err != nil {
			if repository.IsNotFound(err) {
				return NewNotFoundError("join request not found: %s", requestID)
			}
			return fmt.Errorf("failed to load join request: %w", err)
		}

		if err := s.checkResolveGuard(tx, actor, request.LabID); err != nil {
			return err
		}
		if request.IsTerminal() {
			return NewPreconditionError("join request already resolved with status %s", request.Status)
		}

		now := time.Now()
		request.Status = model.JoinRequestApproved
		request.ReviewedByID = &actor.ID
		request.ReviewedAt = &now
		request.UpdatedAt = now
		if err := tx.Save(&request).Error; err != nil {
			return fmt.Errorf("failed to save join request: %w", err)
		}

		m := &model.LabMembershipModel{
			ID:           uuid.New().String(),
			UserID:       request.UserID,
			LabID:        request.LabID,
			Role:         model.MembershipRoleResearcher,
			IsActive:     true,
			ApprovedByID: &actor.ID,
			ApprovedAt:   &now,
			JoinedAt:     now,
		}
		if err := tx.Create(m).Error; err != nil {
			// (user, lab) 唯一约束兜底
			if repository.IsUniqueViolation(err) {
				return NewValidationError("user is already a member of this lab")
			}
			return fmt.Errorf("failed to create membership: %w", err)
		}

		membership = m
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordJoinRequestResolution("approved")
	s.audit(ctx, actor, "approve", "join_request", requestID, nil)
	return membership, nil
}

// Reject 拒绝加入申请
// 与 Approve 相同的守卫;REJECTED 是终态,不创建成员记录
func (s *membershipService) Reject(ctx context.Context, actor *model.UserModel, requestID string) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var request model.LabJoinRequestModel
		if err := tx.Where("id = ?", requestID).First(&request).Error; err != nil {
			if repository.IsNotFound(err) {
				return NewNotFoundError("join request not found: %s", requestID)
			}
			return fmt.Errorf("failed to load join request: %w", err)
		}

		if err := s.checkResolveGuard(tx, actor, request.LabID); err != nil {
			return err
		}
		if request.IsTerminal() {
			return NewPreconditionError("join request already resolved with status %s", request.Status)
		}

		now := time.Now()
		request.Status = model.JoinRequestRejected
		request.ReviewedByID = &actor.ID
		request.ReviewedAt = &now
		request.UpdatedAt = now
		return tx.Save(&request).Error
	})
	if err != nil {
		return err
	}

	metrics.RecordJoinRequestResolution("rejected")
	s.audit(ctx, actor, "reject", "join_request", requestID, nil)
	return nil
}

// ListJoinRequests 按角色返回可见的加入申请
// 开发者全部;学院管理员本学院;其他人自己发起的
func (s *membershipService) ListJoinRequests(actor *model.UserModel) ([]*model.LabJoinRequestModel, error) {
	if actor == nil {
		return []*model.LabJoinRequestModel{}, nil
	}

	switch actor.UserType {
	case model.UserTypeDeveloper:
		return s.joinRepo.FindAll()
	case model.UserTypeSchoolAdmin:
		if actor.SchoolID == nil {
			return []*model.LabJoinRequestModel{}, nil
		}
		return s.joinRepo.FindBySchool(*actor.SchoolID)
	default:
		return s.joinRepo.FindByUser(actor.ID)
	}
}

// ListMemberships 按角色返回可见的成员记录
func (s *membershipService) ListMemberships(actor *model.UserModel) ([]*model.LabMembershipModel, error) {
	if actor == nil {
		return []*model.LabMembershipModel{}, nil
	}

	switch actor.UserType {
	case model.UserTypeDeveloper:
		return s.membershipRepo.FindAll()
	case model.UserTypeSchoolAdmin:
		if actor.SchoolID == nil {
			return []*model.LabMembershipModel{}, nil
		}
		return s.membershipRepo.FindBySchool(*actor.SchoolID)
	default:
		return s.membershipRepo.FindByUser(actor.ID)
	}
}

// checkResolveGuard 校验 actor 是否有权处理指定实验室的加入申请
// 管理员具备 approve_membership 能力;实验室 PI 对自己的实验室同样有权
func (s *membershipService) checkResolveGuard(tx *gorm.DB, actor *model.UserModel, labID string) error {
	if actor == nil {
		return NewAuthorizationError("actor is required")
	}
	if auth.Can(actor, auth.CapApproveMembership) {
		return nil
	}

	var lab model.LabModel
	if err := tx.Where("id = ?", labID).First(&lab).Error; err != nil {
		if repository.IsNotFound(err) {
			return NewNotFoundError("lab not found: %s", labID)
		}
		return fmt.Errorf("failed to load lab: %w", err)
	}
	if lab.PIID != nil && *lab.PIID == actor.ID {
		return nil
	}

	return NewAuthorizationError("only administrators or the lab PI can resolve join requests")
}

// audit 记录审计日志,失败时不影响主流程
func (s *membershipService) audit(ctx context.Context, actor *model.UserModel, action, resourceType, resourceID string, details interface{}) {
	if s.auditLogSvc == nil || actor == nil {
		return
	}
	_ = s.auditLogSvc.RecordAction(ctx, actor.ID, action, resourceType, resourceID, details)
}
