package model

import (
	"errors"
	"time"
)

// SchoolModel 学院数据模型
type SchoolModel struct {
	ID          string    `gorm:"primaryKey;type:varchar(64)"`
	Name        string    `gorm:"type:varchar(255);not null"`
	Code        string    `gorm:"type:varchar(10);not null;uniqueIndex"`
	Description string    `gorm:"type:text"`
	AdminID     *string   `gorm:"type:varchar(64);index"` // 学院管理员用户 ID
	CreatedAt   time.Time `gorm:"not null"`
	UpdatedAt   time.Time `gorm:"not null"`
}

// TableName 指定表名
func (SchoolModel) TableName() string {
	return "schools"
}

// Validate 验证学院模型
func (sm *SchoolModel) Validate() error {
	if sm.ID == "" {
		return errors.New("school ID is required")
	}
	if sm.Name == "" {
		return errors.New("school name is required")
	}
	if sm.Code == "" {
		return errors.New("school code is required")
	}
	return nil
}
