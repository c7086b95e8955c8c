package model

import (
	"errors"
	"time"
)

// ProtocolReviewModel 协议评审记录数据模型
// 只增不改,构成每个协议的审计追踪
type ProtocolReviewModel struct {
	ID         string    `gorm:"primaryKey;type:varchar(64)"`
	ProtocolID string    `gorm:"type:varchar(64);not null;index"`
	ReviewerID string    `gorm:"type:varchar(64);not null;index"`
	Decision   string    `gorm:"type:varchar(20);not null"` // 协议状态枚举值之一
	Comments   string    `gorm:"type:text"`
	ReviewDate time.Time `gorm:"not null;index"`
}

// TableName 指定表名
func (ProtocolReviewModel) TableName() string {
	return "protocol_reviews"
}

// Validate 验证评审记录模型
func (rm *ProtocolReviewModel) Validate() error {
	if rm.ID == "" {
		return errors.New("review ID is required")
	}
	if rm.ProtocolID == "" {
		return errors.New("protocol ID is required")
	}
	if rm.ReviewerID == "" {
		return errors.New("reviewer ID is required")
	}
	if !ValidProtocolStatus(rm.Decision) {
		return errors.New("invalid review decision")
	}
	return nil
}
