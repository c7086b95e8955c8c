package model

import (
	"errors"
	"time"
)

// 协议状态
const (
	ProtocolStatusDraft             = "DRAFT"
	ProtocolStatusInReview          = "IN_REVIEW"
	ProtocolStatusApproved          = "APPROVED"
	ProtocolStatusRejected          = "REJECTED"
	ProtocolStatusRevisionRequested = "REVISION_REQUESTED"
	ProtocolStatusWithdrawn         = "WITHDRAWN"
)

// ValidProtocolStatus 判断字符串是否为合法的协议状态
func ValidProtocolStatus(s string) bool {
	switch s {
	case ProtocolStatusDraft, ProtocolStatusInReview, ProtocolStatusApproved,
		ProtocolStatusRejected, ProtocolStatusRevisionRequested, ProtocolStatusWithdrawn:
		return true
	}
	return false
}

// ProtocolModel 研究协议数据模型
type ProtocolModel struct {
	ID              string     `gorm:"primaryKey;type:varchar(64)"`
	Title           string     `gorm:"type:varchar(200);not null"`
	ProtocolNumber  *string    `gorm:"type:varchar(50);uniqueIndex"` // 实验室设置后才分配,分配后不可变
	Description     string     `gorm:"type:text"`
	Status          string     `gorm:"type:varchar(20);not null;index"`
	ResearcherID    string     `gorm:"type:varchar(64);not null;index"` // 所属研究员
	LabID           *string    `gorm:"type:varchar(64);index"`
	Department      string     `gorm:"type:varchar(100)"`
	Species         string     `gorm:"type:varchar(100)"`
	PainCategory    string     `gorm:"type:varchar(50)"`
	AnimalCount     int        `gorm:"not null;default:0"`
	FundingSource   string     `gorm:"type:varchar(200)"`
	StartDate       *time.Time ``
	EndDate         *time.Time ``
	ViewCount       int        `gorm:"not null;default:0"`
	IsNewSubmission bool       `gorm:"not null;default:false;index"` // 仅在 IN_REVIEW 且管理员未确认时为 true
	SubmittedAt     *time.Time `gorm:"index"`
	CreatedAt       time.Time  `gorm:"not null;index"`
	UpdatedAt       time.Time  `gorm:"not null"`
}

// TableName 指定表名
func (ProtocolModel) TableName() string {
	return "protocols"
}

// Validate 验证协议模型
func (pm *ProtocolModel) Validate() error {
	if pm.ID == "" {
		return errors.New("protocol ID is required")
	}
	if pm.Title == "" {
		return errors.New("protocol title is required")
	}
	if pm.ResearcherID == "" {
		return errors.New("researcher ID is required")
	}
	if !ValidProtocolStatus(pm.Status) {
		return errors.New("invalid protocol status")
	}
	if pm.IsNewSubmission && pm.Status != ProtocolStatusInReview {
		return errors.New("is_new_submission requires IN_REVIEW status")
	}
	if pm.ViewCount < 0 {
		return errors.New("view count cannot be negative")
	}
	return nil
}

// ProtocolShareModel 协议共享关系(只读可见性,不授予修改权)
type ProtocolShareModel struct {
	ProtocolID string    `gorm:"primaryKey;type:varchar(64)"`
	UserID     string    `gorm:"primaryKey;type:varchar(64);index"`
	CreatedAt  time.Time `gorm:"not null"`
}

// TableName 指定表名
func (ProtocolShareModel) TableName() string {
	return "protocol_shares"
}
