package model

import "errors"

// ProtocolSequenceModel 协议编号序列
// 按实验室+年度维护计数器,在事务内递增,
// 替代原先 count-then-format 的竞态实现
type ProtocolSequenceModel struct {
	LabID   string `gorm:"primaryKey;type:varchar(64)"`
	Year    int    `gorm:"primaryKey"`
	Counter int    `gorm:"not null;default:0"`
}

// TableName 指定表名
func (ProtocolSequenceModel) TableName() string {
	return "protocol_sequences"
}

// Validate 验证序列模型
func (sm *ProtocolSequenceModel) Validate() error {
	if sm.LabID == "" {
		return errors.New("lab ID is required")
	}
	if sm.Year <= 0 {
		return errors.New("year is required")
	}
	if sm.Counter < 0 {
		return errors.New("counter cannot be negative")
	}
	return nil
}
