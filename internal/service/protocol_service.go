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
	"github.com/candrle20/researchtools/internal/utils"
	"gorm.io/gorm"
)

// SubmissionNotifier 新提交通知接口
// 由 websocket Hub 实现,向在线管理员推送新提交事件
type SubmissionNotifier interface {
	NotifySubmission(protocolID, protocolNumber, title, researcherID string)
}

// ProtocolService 协议工作流服务接口
// 所有操作都以显式的 actor 参数执行,不依赖隐式的全局用户
type ProtocolService interface {
	Create(ctx context.Context, actor *model.UserModel, req *CreateProtocolRequest) (*model.ProtocolModel, error)
	Get(ctx context.Context, actor *model.UserModel, id string) (*model.ProtocolModel, error)
	Update(ctx context.Context, actor *model.UserModel, id string, req *UpdateProtocolRequest) (*model.ProtocolModel, error)
	Delete(ctx context.Context, actor *model.UserModel, id string) error
	Submit(ctx context.Context, actor *model.UserModel, id string) (*model.ProtocolModel, error)
	Withdraw(ctx context.Context, actor *model.UserModel, id string) (*model.ProtocolModel, error)
	Acknowledge(ctx context.Context, actor *model.UserModel, id string) error
	Review(ctx context.Context, actor *model.UserModel, id string, req *ReviewRequest) (*model.ProtocolReviewModel, error)
	Share(ctx context.Context, actor *model.UserModel, id string, email string) error
}

// CreateProtocolRequest 创建协议请求
type CreateProtocolRequest struct {
	Title         string  `json:"title" binding:"required"`
	Description   string  `json:"description"`
	LabID         *string `json:"lab_id"`
	Department    string  `json:"department"`
	Species       string  `json:"species"`
	PainCategory  string  `json:"pain_category"`
	AnimalCount   int     `json:"animal_count"`
	FundingSource string  `json:"funding_source"`
}

// UpdateProtocolRequest 更新协议请求
type UpdateProtocolRequest struct {
	Title         *string `json:"title"`
	Description   *string `json:"description"`
	LabID         *string `json:"lab_id"`
	Department    *string `json:"department"`
	Species       *string `json:"species"`
	PainCategory  *string `json:"pain_category"`
	AnimalCount   *int    `json:"animal_count"`
	FundingSource *string `json:"funding_source"`
}

// ReviewRequest 评审请求
type ReviewRequest struct {
	Decision string `json:"decision" binding:"required"` // APPROVED/REJECTED/REVISION_REQUESTED
	Comments string `json:"comments"`
}

// protocolService 协议工作流服务实现
type protocolService struct {
	db           *gorm.DB
	protocolRepo repository.ProtocolRepository
	reviewRepo   repository.ReviewRepository
	userRepo     repository.UserRepository
	labRepo      repository.LabRepository
	seqRepo      repository.SequenceRepository
	auditLogSvc  AuditLogService
	notifier     SubmissionNotifier
}

// NewProtocolService 创建协议工作流服务
func NewProtocolService(db *gorm.DB, auditLogSvc AuditLogService, notifier SubmissionNotifier) ProtocolService {
	return &protocolService{
		db:           db,
		protocolRepo: repository.NewProtocolRepository(db),
		reviewRepo:   repository.NewReviewRepository(db),
		userRepo:     repository.NewUserRepository(db),
		labRepo:      repository.NewLabRepository(db),
		seqRepo:      repository.NewSequenceRepository(db),
		auditLogSvc:  auditLogSvc,
		notifier:     notifier,
	}
}

// Create 创建草稿协议,所有者为 actor
// 实验室已设置时在同一事务内分配协议编号
func (s *protocolService) Create(ctx context.Context, actor *model.UserModel, req *CreateProtocolRequest) (*model.ProtocolModel, error) {
	if actor == nil {
		return nil, NewAuthorizationError("actor is required")
	}
	if err := utils.ValidateTitle(req.Title); err != nil {
		return nil, NewValidationError("invalid title").withCause(err)
	}

	now := time.Now()
	protocol := &model.ProtocolModel{
		ID:            uuid.New().String(),
		Title:         req.Title,
		Description:   req.Description,
		Status:        model.ProtocolStatusDraft,
		ResearcherID:  actor.ID,
		LabID:         req.LabID,
		Department:    req.Department,
		Species:       req.Species,
		PainCategory:  req.PainCategory,
		AnimalCount:   req.AnimalCount,
		FundingSource: req.FundingSource,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if protocol.LabID != nil {
			number, err := s.assignProtocolNumber(tx, *protocol.LabID)
			if err != nil {
				return err
			}
			protocol.ProtocolNumber = &number
		}
		return tx.Create(protocol).Error
	})
	if err != nil {
		if _, ok := err.(*DomainError); ok {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create protocol: %w", err)
	}

	metrics.RecordProtocolCreated()
	s.audit(ctx, actor, "create", "protocol", protocol.ID, map[string]string{"title": protocol.Title})

	return protocol, nil
}

// assignProtocolNumber 在事务内分配协议编号
// 编号格式为 {实验室代码}-{年度}-{四位序列},序列按实验室+年度
// 在加锁的计数器行上递增,并发创建不会产生重复编号
func (s *protocolService) assignProtocolNumber(tx *gorm.DB, labID string) (string, error) {
	var lab model.LabModel
	if err := tx.Where("id = ?", labID).First(&lab).Error; err != nil {
		if repository.IsNotFound(err) {
			return "", NewNotFoundError("lab not found: %s", labID)
		}
		return "", fmt.Errorf("failed to load lab: %w", err)
	}

	year := time.Now().Year()
	seq, err := s.seqRepo.Next(tx, lab.ID, year)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%s-%d-%04d", lab.Code, year, seq), nil
}

// Get 获取协议详情并原子递增浏览计数
// 不可见的协议按不存在处理,避免泄露其存在性
func (s *protocolService) Get(ctx context.Context, actor *model.UserModel, id string) (*model.ProtocolModel, error) {
	protocol, err := s.loadProtocol(id)
	if err != nil {
		return nil, err
	}

	visible, err := s.canSee(actor, protocol)
	if err != nil {
		return nil, err
	}
	if !visible {
		return nil, NewNotFoundError("protocol not found: %s", id)
	}

	if err := s.protocolRepo.IncrementViews(id); err != nil {
		return nil, fmt.Errorf("failed to increment view count: %w", err)
	}
	protocol.ViewCount++

	return protocol, nil
}

// Update 更新协议字段
// 只有所有者可以修改,且仅限 DRAFT 或 REVISION_REQUESTED 状态
func (s *protocolService) Update(ctx context.Context, actor *model.UserModel, id string, req *UpdateProtocolRequest) (*model.ProtocolModel, error) {
	var updated *model.ProtocolModel

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var protocol model.ProtocolModel
		if err := tx.Where("id = ?", id).First(&protocol).Error; err != nil {
			if repository.IsNotFound(err) {
				return NewNotFoundError("protocol not found: %s", id)
			}
			return fmt.Errorf("failed to load protocol: %w", err)
		}

		if actor == nil || protocol.ResearcherID != actor.ID {
			return NewAuthorizationError("only the owning researcher can update a protocol")
		}
		if protocol.Status != model.ProtocolStatusDraft && protocol.Status != model.ProtocolStatusRevisionRequested {
			return NewPreconditionError("protocol in status %s cannot be edited", protocol.Status)
		}

		if req.Title != nil {
			if err := utils.ValidateTitle(*req.Title); err != nil {
				return NewValidationError("invalid title").withCause(err)
			}
			protocol.Title = *req.Title
		}
		if req.Description != nil {
			protocol.Description = *req.Description
		}
		if req.Department != nil {
			protocol.Department = *req.Department
		}
		if req.Species != nil {
			protocol.Species = *req.Species
		}
		if req.PainCategory != nil {
			protocol.PainCategory = *req.PainCategory
		}
		if req.AnimalCount != nil {
			protocol.AnimalCount = *req.AnimalCount
		}
		if req.FundingSource != nil {
			protocol.FundingSource = *req.FundingSource
		}

		// 实验室首次设置时分配编号;编号一经分配不可变
		if req.LabID != nil {
			protocol.LabID = req.LabID
			if protocol.ProtocolNumber == nil {
				number, err := s.assignProtocolNumber(tx, *req.LabID)
				if err != nil {
					return err
				}
				protocol.ProtocolNumber = &number
			}
		}

		protocol.UpdatedAt = time.Now()
		if err := tx.Save(&protocol).Error; err != nil {
			return fmt.Errorf("failed to save protocol: %w", err)
		}

		updated = &protocol
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.audit(ctx, actor, "update", "protocol", id, nil)
	return updated, nil
}

// Delete 删除协议
// 只有所有者可以删除,且仅限 DRAFT 状态
func (s *protocolService) Delete(ctx context.Context, actor *model.UserModel, id string) error {
	protocol, err := s.loadProtocol(id)
	if err != nil {
		return err
	}

	if actor == nil || protocol.ResearcherID != actor.ID {
		return NewAuthorizationError("only the owning researcher can delete a protocol")
	}
	if protocol.Status != model.ProtocolStatusDraft {
		return NewPreconditionError("only draft protocols can be deleted, current status is %s", protocol.Status)
	}

	if err := s.protocolRepo.Delete(id); err != nil {
		return fmt.Errorf("failed to delete protocol: %w", err)
	}

	s.audit(ctx, actor, "delete", "protocol", id, map[string]string{"title": protocol.Title})
	return nil
}

// Submit 提交协议进入评审
// DRAFT -> IN_REVIEW,记录提交时间并标记为新提交
func (s *protocolService) Submit(ctx context.Context, actor *model.UserModel, id string) (*model.ProtocolModel, error) {
	var submitted *model.ProtocolModel

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var protocol model.ProtocolModel
		if err := tx.Where("id = ?", id).First(&protocol).Error; err != nil {
			if repository.IsNotFound(err) {
				return NewNotFoundError("protocol not found: %s", id)
			}
			return fmt.Errorf("failed to load protocol: %w", err)
		}

		if actor == nil || protocol.ResearcherID != actor.ID {
			return NewAuthorizationError("only the owning researcher can submit a protocol")
		}
		if protocol.Status != model.ProtocolStatusDraft {
			return NewPreconditionError("only draft protocols can be submitted, current status is %s", protocol.Status)
		}

		now := time.Now()
		protocol.Status = model.ProtocolStatusInReview
		protocol.SubmittedAt = &now
		protocol.IsNewSubmission = true
		protocol.UpdatedAt = now

		if err := tx.Save(&protocol).Error; err != nil {
			return fmt.Errorf("failed to save protocol: %w", err)
		}

		submitted = &protocol
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordProtocolSubmitted()
	s.audit(ctx, actor, "submit", "protocol", id, nil)

	if s.notifier != nil {
		number := ""
		if submitted.ProtocolNumber != nil {
			number = *submitted.ProtocolNumber
		}
		s.notifier.NotifySubmission(submitted.ID, number, submitted.Title, submitted.ResearcherID)
	}

	return submitted, nil
}

// Withdraw 撤回协议
// 所有者可从 DRAFT 或 IN_REVIEW 撤回
func (s *protocolService) Withdraw(ctx context.Context, actor *model.UserModel, id string) (*model.ProtocolModel, error) {
	var withdrawn *model.ProtocolModel

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var protocol model.ProtocolModel
		if err := tx.Where("id = ?", id).First(&protocol).Error; err != nil {
			if repository.IsNotFound(err) {
				return NewNotFoundError("protocol not found: %s", id)
			}
			return fmt.Errorf("failed to load protocol: %w", err)
		}

		if actor == nil || protocol.ResearcherID != actor.ID {
			return NewAuthorizationError("only the owning researcher can withdraw a protocol")
		}
		if protocol.Status != model.ProtocolStatusDraft && protocol.Status != model.ProtocolStatusInReview {
			return NewPreconditionError("protocol in status %s cannot be withdrawn", protocol.Status)
		}

		protocol.Status = model.ProtocolStatusWithdrawn
		protocol.IsNewSubmission = false
		protocol.UpdatedAt = time.Now()

		if err := tx.Save(&protocol).Error; err != nil {
			return fmt.Errorf("failed to save protocol: %w", err)
		}

		withdrawn = &protocol
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.audit(ctx, actor, "withdraw", "protocol", id, nil)
	return withdrawn, nil
}

// Acknowledge 管理员确认新提交
// 仅清除 is_new_submission 标记,状态不变;重复调用为幂等操作
func (s *protocolService) Acknowledge(ctx context.Context, actor *model.UserModel, id string) error {
	if !auth.Can(actor, auth.CapAcknowledge) {
		return NewAuthorizationError("only administrators can acknowledge protocols")
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var protocol model.ProtocolModel
		if err := tx.Where("id = ?", id).First(&protocol).Error; err != nil {
			if repository.IsNotFound(err) {
				return NewNotFoundError("protocol not found: %s", id)
			}
			return fmt.Errorf("failed to load protocol: %w", err)
		}

		if !protocol.IsNewSubmission {
			return nil
		}

		return tx.Model(&model.ProtocolModel{}).
			Where("id = ?", id).
			Updates(map[string]interface{}{
				"is_new_submission": false,
				"updated_at":        time.Now(),
			}).Error
	})
	if err != nil {
		return err
	}

	s.audit(ctx, actor, "acknowledge", "protocol", id, nil)
	return nil
}

// Review 管理员记录评审决定
// 在同一事务内创建不可变的评审记录、把协议状态置为决定值
// 并清除新提交标记
func (s *protocolService) Review(ctx context.Context, actor *model.UserModel, id string, req *ReviewRequest) (*model.ProtocolReviewModel, error) {
	if !auth.Can(actor, auth.CapReviewProtocol) {
		return nil, NewAuthorizationError("only administrators can review protocols")
	}
	if !model.ValidProtocolStatus(req.Decision) {
		return nil, NewValidationError("invalid review decision: %s", req.Decision)
	}

	var review *model.ProtocolReviewModel

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var protocol model.ProtocolModel
		if err := tx.Where("id = ?", id).First(&protocol).Error; err != nil {
			if repository.IsNotFound(err) {
				return NewNotFoundError("protocol not found: %s", id)
			}
			return fmt.Errorf("failed to load protocol: %w", err)
		}

		if protocol.Status != model.ProtocolStatusInReview {
			return NewPreconditionError("only protocols in review can receive a decision, current status is %s", protocol.Status)
		}

		r := &model.ProtocolReviewModel{
			ID:         uuid.New().String(),
			ProtocolID: protocol.ID,
			ReviewerID: actor.ID,
			Decision:   req.Decision,
			Comments:   req.Comments,
			ReviewDate: time.Now(),
		}
		if err := tx.Create(r).Error; err != nil {
			return fmt.Errorf("failed to create review: %w", err)
		}

		if err := tx.Model(&model.ProtocolModel{}).
			Where("id = ?", id).
			Updates(map[string]interface{}{
				"status":            req.Decision,
				"is_new_submission": false,
				"updated_at":        time.Now(),
			}).Error; err != nil {
			return fmt.Errorf("failed to update protocol status: %w", err)
		}

		review = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordReview(req.Decision)
	s.audit(ctx, actor, "review", "protocol", id, map[string]string{"decision": req.Decision})

	return review, nil
}

// Share 按邮箱共享协议
// 共享只授予只读可见性;重复共享为幂等操作
func (s *protocolService) Share(ctx context.Context, actor *model.UserModel, id string, email string) error {
	protocol, err := s.loadProtocol(id)
	if err != nil {
		return err
	}

	visible, err := s.canSee(actor, protocol)
	if err != nil {
		return err
	}
	if !visible {
		return NewAuthorizationError("no access to this protocol")
	}

	if err := utils.ValidateEmail(email); err != nil {
		return NewValidationError("invalid email").withCause(err)
	}

	target, err := s.userRepo.FindByEmail(email)
	if err != nil {
		if repository.IsNotFound(err) {
			return NewNotFoundError("user with email %s not found", email)
		}
		return fmt.Errorf("failed to look up user: %w", err)
	}

	if err := s.protocolRepo.AddShare(id, target.ID); err != nil {
		return fmt.Errorf("failed to share protocol: %w", err)
	}

	s.audit(ctx, actor, "share", "protocol", id, map[string]string{"shared_with": target.ID})
	return nil
}

// loadProtocol 加载协议,不存在时返回 NotFound 领域错误
func (s *protocolService) loadProtocol(id string) (*model.ProtocolModel, error) {
	protocol, err := s.protocolRepo.FindByID(id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, NewNotFoundError("protocol not found: %s", id)
		}
		return nil, fmt.Errorf("failed to load protocol: %w", err)
	}
	return protocol, nil
}

// canSee 判断 actor 是否可见该协议
// 管理员可见全部;其他人仅可见自己的或共享给自己的
func (s *protocolService) canSee(actor *model.UserModel, protocol *model.ProtocolModel) (bool, error) {
	if actor == nil {
		return false, nil
	}
	if auth.Can(actor, auth.CapViewAllProtocols) {
		return true, nil
	}
	if protocol.ResearcherID == actor.ID {
		return true, nil
	}
	return s.protocolRepo.IsSharedWith(protocol.ID, actor.ID)
}

// audit 记录审计日志,失败时不影响主流程
func (s *protocolService) audit(ctx context.Context, actor *model.UserModel, action, resourceType, resourceID string, details interface{}) {
	if s.auditLogSvc == nil || actor == nil {
		return
	}
	_ = s.auditLogSvc.RecordAction(ctx, actor.ID, action, resourceType, resourceID, details)
}
