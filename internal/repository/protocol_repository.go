package repository

import (
	"github.com/candrle20/researchtools/internal/model"
	"gorm.io/gorm"
)

// ProtocolRepository 协议仓储接口
type ProtocolRepository interface {
	Create(protocol *model.ProtocolModel) error
	Save(protocol *model.ProtocolModel) error
	FindByID(id string) (*model.ProtocolModel, error)
	Delete(id string) error
	IncrementViews(id string) error
	SharedUserIDs(protocolID string) ([]string, error)
	AddShare(protocolID string, userID string) error
	IsSharedWith(protocolID string, userID string) (bool, error)
}

// protocolRepository 协议仓储实现
type protocolRepository struct {
	db *gorm.DB
}

// NewProtocolRepository 创建协议仓储
func NewProtocolRepository(db *gorm.DB) ProtocolRepository {
	return &protocolRepository{db: db}
}

// Create 创建协议
func (r *protocolRepository) Create(protocol *model.ProtocolModel) error {
	return r.db.Create(protocol).Error
}

// Save 保存协议
func (r *protocolRepository) Save(protocol *model.ProtocolModel) error {
	return r.db.Save(protocol).Error
}

// FindByID 根据 ID 查找协议
func (r *protocolRepository) FindByID(id string) (*model.ProtocolModel, error) {
	var protocol model.ProtocolModel
	if err := r.db.Where("id = ?", id).First(&protocol).Error; err != nil {
		return nil, err
	}
	return &protocol, nil
}

// Delete 删除协议及其共享关系
func (r *protocolRepository) Delete(id string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("protocol_id = ?", id).Delete(&model.ProtocolShareModel{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&model.ProtocolModel{}).Error
	})
}

// IncrementViews 原子递增浏览计数
// 使用 SQL 表达式更新,避免读-改-写在并发下丢失计数
func (r *protocolRepository) IncrementViews(id string) error {
	return r.db.Model(&model.ProtocolModel{}).
		Where("id = ?", id).
		UpdateColumn("view_count", gorm.Expr("view_count + ?", 1)).Error
}

// SharedUserIDs 查询协议共享给的用户 ID 列表
func (r *protocolRepository) SharedUserIDs(protocolID string) ([]string, error) {
	var ids []string
	err := r.db.Model(&model.ProtocolShareModel{}).
		Where("protocol_id = ?", protocolID).
		Pluck("user_id", &ids).Error
	return ids, err
}

// AddShare 添加共享关系,重复共享为幂等操作
func (r *protocolRepository) AddShare(protocolID string, userID string) error {
	share := &model.ProtocolShareModel{ProtocolID: protocolID, UserID: userID}
	err := r.db.Create(share).Error
	if err != nil && IsUniqueViolation(err) {
		return nil
	}
	return err
}

// IsSharedWith 判断协议是否共享给指定用户
func (r *protocolRepository) IsSharedWith(protocolID string, userID string) (bool, error) {
	var count int64
	err := r.db.Model(&model.ProtocolShareModel{}).
		Where("protocol_id = ? AND user_id = ?", protocolID, userID).
		Count(&count).Error
	return count > 0, err
}
