package service

import (
	"fmt"
	"strings"

	"github.com/candrle20/researchtools/internal/auth"
	"github.com/candrle20/researchtools/internal/model"
	"github.com/candrle20/researchtools/internal/repository"
	"gorm.io/gorm"
)

// 列表过滤器取值
// 管理员: new_submissions/in_review/all
// 研究员: mine/shared/drafts/approved/pending/rejected
const (
	FilterAll            = "all"
	FilterNewSubmissions = "new_submissions"
	FilterInReview       = "in_review"
	FilterMine           = "mine"
	FilterShared         = "shared"
	FilterDrafts         = "drafts"
	FilterApproved       = "approved"
	FilterPending        = "pending"
	FilterRejected       = "rejected"
)

// 搜索字段
const (
	SearchByTitle       = "title"
	SearchByDescription = "description"
	SearchByResearcher  = "researcher"
	SearchByStatus      = "status"
)

// QueryService 协议查询服务接口
// 纯查询,无副作用;结果集按 actor 的角色和关系裁剪
type QueryService interface {
	VisibleProtocols(actor *model.UserModel, filter string) ([]*model.ProtocolModel, error)
	Search(actor *model.UserModel, field string, query string) ([]*model.ProtocolModel, error)
	Popular(actor *model.UserModel, limit int) ([]*model.ProtocolModel, error)
	ReviewsForProtocol(actor *model.UserModel, protocolID string) ([]*model.ProtocolReviewModel, error)
	VisibleReviews(actor *model.UserModel) ([]*model.ProtocolReviewModel, error)
}

// queryService 协议查询服务实现
type queryService struct {
	db           *gorm.DB
	protocolRepo repository.ProtocolRepository
	reviewRepo   repository.ReviewRepository
}

// NewQueryService 创建查询服务
func NewQueryService(db *gorm.DB) QueryService {
	return &queryService{
		db:           db,
		protocolRepo: repository.NewProtocolRepository(db),
		reviewRepo:   repository.NewReviewRepository(db),
	}
}

// VisibleProtocols 返回 actor 可见的协议列表
// 管理员基集为全部协议;其他人基集为自己的与共享给自己的并集(去重)
// 未识别的过滤器回落到基集,不报错
func (s *queryService) VisibleProtocols(actor *model.UserModel, filter string) ([]*model.ProtocolModel, error) {
	if actor == nil {
		return []*model.ProtocolModel{}, nil
	}

	var protocols []*model.ProtocolModel
	query := s.scopedQuery(actor)

	if auth.Can(actor, auth.CapViewAllProtocols) {
		switch filter {
		case FilterNewSubmissions:
			query = query.
				Where("status = ? AND is_new_submission = ?", model.ProtocolStatusInReview, true).
				Order("submitted_at DESC")
		case FilterInReview:
			query = query.
				Where("status = ? AND is_new_submission = ?", model.ProtocolStatusInReview, false).
				Order("submitted_at DESC")
		default:
			query = query.Order("created_at DESC")
		}
	} else {
		switch filter {
		case FilterMine:
			query = query.Where("protocols.researcher_id = ?", actor.ID)
		case FilterShared:
			query = query.Where("protocols.id IN (?)", s.sharedIDs(actor))
		case FilterDrafts:
			query = query.Where("status = ?", model.ProtocolStatusDraft)
		case FilterApproved:
			query = query.Where("status = ?", model.ProtocolStatusApproved)
		case FilterPending:
			query = query.Where("status = ?", model.ProtocolStatusInReview)
		case FilterRejected:
			query = query.Where("status = ?", model.ProtocolStatusRejected)
		}
		query = query.Order("created_at DESC")
	}

	if err := query.Find(&protocols).Error; err != nil {
		return nil, fmt.Errorf("failed to query protocols: %w", err)
	}
	return protocols, nil
}

// Search 在 actor 的可见集上搜索
// title/description/researcher 做大小写不敏感的子串匹配,
// status 做精确匹配;未识别的字段不加过滤,返回整个可见集;
// 无结果返回空集而不是错误
func (s *queryService) Search(actor *model.UserModel, field string, query string) ([]*model.ProtocolModel, error) {
	if actor == nil {
		return []*model.ProtocolModel{}, nil
	}

	q := s.scopedQuery(actor)
	pattern := "%" + strings.ToLower(query) + "%"

	switch field {
	case SearchByTitle:
		q = q.Where("LOWER(protocols.title) LIKE ?", pattern)
	case SearchByDescription:
		q = q.Where("LOWER(protocols.description) LIKE ?", pattern)
	case SearchByResearcher:
		q = q.Joins("JOIN users ON users.id = protocols.researcher_id").
			Where("LOWER(users.username) LIKE ?", pattern)
	case SearchByStatus:
		q = q.Where("UPPER(protocols.status) = ?", strings.ToUpper(query))
	}

	var protocols []*model.ProtocolModel
	if err := q.Order("protocols.created_at DESC").Find(&protocols).Error; err != nil {
		return nil, fmt.Errorf("failed to search protocols: %w", err)
	}
	return protocols, nil
}

// Popular 返回 actor 可见集中浏览量最高的协议
func (s *queryService) Popular(actor *model.UserModel, limit int) ([]*model.ProtocolModel, error) {
	if actor == nil {
		return []*model.ProtocolModel{}, nil
	}
	if limit <= 0 {
		limit = 10
	}

	var protocols []*model.ProtocolModel
	err := s.scopedQuery(actor).
		Order("view_count DESC").
		Limit(limit).
		Find(&protocols).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query popular protocols: %w", err)
	}
	return protocols, nil
}

// ReviewsForProtocol 返回协议的评审记录
// 协议必须对 actor 可见
func (s *queryService) ReviewsForProtocol(actor *model.UserModel, protocolID string) ([]*model.ProtocolReviewModel, error) {
	if actor == nil {
		return nil, NewAuthorizationError("actor is required")
	}

	var count int64
	if err := s.scopedQuery(actor).Where("protocols.id = ?", protocolID).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to check protocol visibility: %w", err)
	}
	if count == 0 {
		return nil, NewNotFoundError("protocol not found: %s", protocolID)
	}

	return s.reviewRepo.FindByProtocol(protocolID)
}

// VisibleReviews 返回 actor 可见的评审记录
// 管理员可见全部;其他人可见自己协议上的以及自己作为评审人的
func (s *queryService) VisibleReviews(actor *model.UserModel) ([]*model.ProtocolReviewModel, error) {
	if actor == nil {
		return []*model.ProtocolReviewModel{}, nil
	}

	var reviews []*model.ProtocolReviewModel
	query := s.db.Model(&model.ProtocolReviewModel{})

	if !auth.Can(actor, auth.CapViewAllProtocols) {
		query = query.
			Joins("JOIN protocols ON protocols.id = protocol_reviews.protocol_id").
			Where("protocols.researcher_id = ? OR protocol_reviews.reviewer_id = ?", actor.ID, actor.ID)
	}

	if err := query.Order("review_date DESC").Find(&reviews).Error; err != nil {
		return nil, fmt.Errorf("failed to query reviews: %w", err)
	}
	return reviews, nil
}

// scopedQuery 构建 actor 的基集查询
func (s *queryService) scopedQuery(actor *model.UserModel) *gorm.DB {
	query := s.db.Model(&model.ProtocolModel{})
	if auth.Can(actor, auth.CapViewAllProtocols) {
		return query
	}
	return query.Where("protocols.researcher_id = ? OR protocols.id IN (?)", actor.ID, s.sharedIDs(actor))
}

// sharedIDs 共享给 actor 的协议 ID 子查询
func (s *queryService) sharedIDs(actor *model.UserModel) *gorm.DB {
	return s.db.Model(&model.ProtocolShareModel{}).
		Select("protocol_id").
		Where("user_id = ?", actor.ID)
}
