package repository

import (
	"fmt"

	"github.com/candrle20/researchtools/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SequenceRepository 协议编号序列仓储接口
type SequenceRepository interface {
	Next(tx *gorm.DB, labID string, year int) (int, error)
}

// sequenceRepository 协议编号序列仓储实现
type sequenceRepository struct {
	db *gorm.DB
}

// NewSequenceRepository 创建序列仓储
func NewSequenceRepository(db *gorm.DB) SequenceRepository {
	return &sequenceRepository{db: db}
}

// Next 取实验室当年的下一个序列值
// 必须在调用方的事务内执行: 先对序列行加锁再递增,
// 并发创建协议时编号不会重复
func (r *sequenceRepository) Next(tx *gorm.DB, labID string, year int) (int, error) {
	if tx == nil {
		tx = r.db
	}

	// 确保序列行存在,已存在时忽略冲突
	seq := &model.ProtocolSequenceModel{LabID: labID, Year: year, Counter: 0}
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(seq).Error; err != nil {
		return 0, fmt.Errorf("failed to ensure sequence row: %w", err)
	}

	// 加锁读取后递增
	var row model.ProtocolSequenceModel
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("lab_id = ? AND year = ?", labID, year).
		First(&row).Error; err != nil {
		return 0, fmt.Errorf("failed to lock sequence row: %w", err)
	}

	row.Counter++
	if err := tx.Model(&model.ProtocolSequenceModel{}).
		Where("lab_id = ? AND year = ?", labID, year).
		UpdateColumn("counter", row.Counter).Error; err != nil {
		return 0, fmt.Errorf("failed to increment sequence: %w", err)
	}

	return row.Counter, nil
}
