package model

import (
	"errors"
	"time"
)

// 加入申请状态
const (
	JoinRequestPending  = "PENDING"
	JoinRequestApproved = "APPROVED"
	JoinRequestRejected = "REJECTED"
)

// LabJoinRequestModel 实验室加入申请数据模型
// (user_id, lab_id, status) 唯一: 阻止重复的待处理申请,
// 但允许被拒绝后重新申请
type LabJoinRequestModel struct {
	ID           string     `gorm:"primaryKey;type:varchar(64)"`
	UserID       string     `gorm:"type:varchar(64);not null;uniqueIndex:idx_join_requests_user_lab_status"`
	LabID        string     `gorm:"type:varchar(64);not null;uniqueIndex:idx_join_requests_user_lab_status;index"`
	Status       string     `gorm:"type:varchar(20);not null;uniqueIndex:idx_join_requests_user_lab_status;index"` // PENDING/APPROVED/REJECTED
	Message      string     `gorm:"type:text"`
	ReviewedByID *string    `gorm:"type:varchar(64)"`
	ReviewedAt   *time.Time ``
	CreatedAt    time.Time  `gorm:"not null"`
	UpdatedAt    time.Time  `gorm:"not null"`
}

// TableName 指定表名
func (jm *LabJoinRequestModel) TableName() string {
	return "lab_join_requests"
}

// Validate 验证加入申请模型
func (jm *LabJoinRequestModel) Validate() error {
	if jm.ID == "" {
		return errors.New("join request ID is required")
	}
	if jm.UserID == "" {
		return errors.New("user ID is required")
	}
	if jm.LabID == "" {
		return errors.New("lab ID is required")
	}
	switch jm.Status {
	case JoinRequestPending, JoinRequestApproved, JoinRequestRejected:
	default:
		return errors.New("invalid join request status")
	}
	return nil
}

// IsTerminal 判断申请是否已处于终态
// APPROVED/REJECTED 之后不允许再次流转
func (jm *LabJoinRequestModel) IsTerminal() bool {
	return jm.Status == JoinRequestApproved || jm.Status == JoinRequestRejected
}
