package repository

import (
	"github.com/candrle20/researchtools/internal/model"
	"gorm.io/gorm"
)

// ReviewRepository 评审记录仓储接口
// 评审记录只增不改,仓储不提供更新方法
type ReviewRepository interface {
	Create(review *model.ProtocolReviewModel) error
	FindByID(id string) (*model.ProtocolReviewModel, error)
	FindByProtocol(protocolID string) ([]*model.ProtocolReviewModel, error)
	CountByProtocol(protocolID string) (int64, error)
}

// reviewRepository 评审记录仓储实现
type reviewRepository struct {
	db *gorm.DB
}

// NewReviewRepository 创建评审记录仓储
func NewReviewRepository(db *gorm.DB) ReviewRepository {
	return &reviewRepository{db: db}
}

// Create 创建评审记录
func (r *reviewRepository) Create(review *model.ProtocolReviewModel) error {
	return r.db.Create(review).Error
}

// FindByID 根据 ID 查找评审记录
func (r *reviewRepository) FindByID(id string) (*model.ProtocolReviewModel, error) {
	var review model.ProtocolReviewModel
	if err := r.db.Where("id = ?", id).First(&review).Error; err != nil {
		return nil, err
	}
	return &review, nil
}

// FindByProtocol 查找协议的全部评审记录,按评审时间倒序
func (r *reviewRepository) FindByProtocol(protocolID string) ([]*model.ProtocolReviewModel, error) {
	var reviews []*model.ProtocolReviewModel
	err := r.db.Where("protocol_id = ?", protocolID).
		Order("review_date DESC").
		Find(&reviews).Error
	return reviews, err
}

// CountByProtocol 统计协议的评审记录数
func (r *reviewRepository) CountByProtocol(protocolID string) (int64, error) {
	var count int64
	err := r.db.Model(&model.ProtocolReviewModel{}).
		Where("protocol_id = ?", protocolID).
		Count(&count).Error
	return count, err
}
