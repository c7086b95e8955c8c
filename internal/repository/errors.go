package repository

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// IsNotFound 判断是否为记录不存在错误
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// IsUniqueViolation 判断是否为唯一约束冲突
// SQLite 与 PostgreSQL 的错误文本不同,按两种方言匹配
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || // SQLite
		strings.Contains(msg, "duplicate key value") // PostgreSQL
}
