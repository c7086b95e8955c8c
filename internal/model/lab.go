package model

import (
	"errors"
	"time"
)

// LabModel 实验室数据模型
type LabModel struct {
	ID          string    `gorm:"primaryKey;type:varchar(64)"`
	Name        string    `gorm:"type:varchar(255);not null"`
	Code        string    `gorm:"type:varchar(20);not null;uniqueIndex"` // 协议编号前缀
	Description string    `gorm:"type:text"`
	SchoolID    string    `gorm:"type:varchar(64);not null;index"`
	PIID        *string   `gorm:"column:pi_id;type:varchar(64);index"` // 实验室负责人(PI)用户 ID
	CreatedAt   time.Time `gorm:"not null"`
	UpdatedAt   time.Time `gorm:"not null"`
}

// TableName 指定表名
func (LabModel) TableName() string {
	return "labs"
}

// Validate 验证实验室模型
func (lm *LabModel) Validate() error {
	if lm.ID == "" {
		return errors.New("lab ID is required")
	}
	if lm.Name == "" {
		return errors.New("lab name is required")
	}
	if lm.Code == "" {
		return errors.New("lab code is required")
	}
	if lm.SchoolID == "" {
		return errors.New("school ID is required")
	}
	return nil
}
