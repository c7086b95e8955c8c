package model

import (
	"errors"
	"time"
)

// 用户类型
const (
	UserTypeDeveloper   = "developer"    // 平台开发者/超级管理员
	UserTypeSchoolAdmin = "school_admin" // 学院管理员
	UserTypeResearcher  = "researcher"   // 研究员
)

// UserModel 用户数据模型
type UserModel struct {
	ID           string    `gorm:"primaryKey;type:varchar(64)"`
	Username     string    `gorm:"type:varchar(150);not null;uniqueIndex"`
	Email        string    `gorm:"type:varchar(254);not null;uniqueIndex"`
	PasswordHash string    `gorm:"type:varchar(128);not null" json:"-"`
	Name         string    `gorm:"type:varchar(255)"`
	UserType     string    `gorm:"type:varchar(20);not null;index"` // developer/school_admin/researcher
	SchoolID     *string   `gorm:"type:varchar(64);index"`
	Bio          string    `gorm:"type:text"`
	ORCID        string    `gorm:"column:orcid;type:varchar(50)"`
	Phone        string    `gorm:"type:varchar(50)"`
	CreatedAt    time.Time `gorm:"not null"`
	UpdatedAt    time.Time `gorm:"not null"`
}

// TableName 指定表名
func (UserModel) TableName() string {
	return "users"
}

// Validate 验证用户模型
func (um *UserModel) Validate() error {
	if um.ID == "" {
		return errors.New("user ID is required")
	}
	if um.Username == "" {
		return errors.New("username is required")
	}
	if um.Email == "" {
		return errors.New("email is required")
	}
	switch um.UserType {
	case UserTypeDeveloper, UserTypeSchoolAdmin, UserTypeResearcher:
	default:
		return errors.New("invalid user type")
	}
	return nil
}

// IsAdmin 判断是否为管理员(平台开发者或学院管理员)
func (um *UserModel) IsAdmin() bool {
	return um.UserType == UserTypeDeveloper || um.UserType == UserTypeSchoolAdmin
}
