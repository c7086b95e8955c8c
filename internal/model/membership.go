package model

import (
	"errors"
	"time"
)

// 实验室成员角色
const (
	MembershipRolePI         = "PI"         // 实验室负责人
	MembershipRoleAdmin      = "ADMIN"      // 实验室管理员
	MembershipRoleResearcher = "RESEARCHER" // 研究员
	MembershipRoleStudent    = "STUDENT"    // 学生
	MembershipRoleStaff      = "STAFF"      // 职员
)

// LabMembershipModel 实验室成员数据模型
// (user_id, lab_id) 唯一,一个用户在一个实验室只有一条成员记录
type LabMembershipModel struct {
	ID           string     `gorm:"primaryKey;type:varchar(64)"`
	UserID       string     `gorm:"type:varchar(64);not null;uniqueIndex:idx_memberships_user_lab"`
	LabID        string     `gorm:"type:varchar(64);not null;uniqueIndex:idx_memberships_user_lab;index"`
	Role         string     `gorm:"type:varchar(20);not null"` // PI/ADMIN/RESEARCHER/STUDENT/STAFF
	IsActive     bool       `gorm:"not null;default:false"`
	ApprovedByID *string    `gorm:"type:varchar(64)"`
	ApprovedAt   *time.Time ``
	JoinedAt     time.Time  `gorm:"not null"`
}

// TableName 指定表名
func (LabMembershipModel) TableName() string {
	return "lab_memberships"
}

// Validate 验证成员模型
func (mm *LabMembershipModel) Validate() error {
	if mm.ID == "" {
		return errors.New("membership ID is required")
	}
	if mm.UserID == "" {
		return errors.New("user ID is required")
	}
	if mm.LabID == "" {
		return errors.New("lab ID is required")
	}
	switch mm.Role {
	case MembershipRolePI, MembershipRoleAdmin, MembershipRoleResearcher,
		MembershipRoleStudent, MembershipRoleStaff:
	default:
		return errors.New("invalid membership role")
	}
	return nil
}
