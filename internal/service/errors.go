package service

import (
	"errors"
	"fmt"
)

// ErrorKind 领域错误类别
// 控制器按类别映射 HTTP 状态码,服务层不关心 HTTP
type ErrorKind string

const (
	KindAuthorization ErrorKind = "authorization" // 角色或所有权不足,未发生任何变更
	KindPrecondition  ErrorKind = "precondition"  // 实体不在要求的状态
	KindNotFound      ErrorKind = "not_found"     // 引用的实体不存在
	KindValidation    ErrorKind = "validation"    // 输入非法或违反唯一约束
	KindConflict      ErrorKind = "conflict"      // 并发写冲突,调用方可重试
)

// DomainError 带类别的领域错误
type DomainError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// withCause 附加底层错误
func (e *DomainError) withCause(err error) *DomainError {
	e.Err = err
	return e
}

// NewAuthorizationError 创建授权错误
func NewAuthorizationError(format string, args ...interface{}) *DomainError {
	return &DomainError{Kind: KindAuthorization, Message: fmt.Sprintf(format, args...)}
}

// NewPreconditionError 创建前置条件错误
func NewPreconditionError(format string, args ...interface{}) *DomainError {
	return &DomainError{Kind: KindPrecondition, Message: fmt.Sprintf(format, args...)}
}

// NewNotFoundError 创建未找到错误
func NewNotFoundError(format string, args ...interface{}) *DomainError {
	return &DomainError{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// NewValidationError 创建校验错误
func NewValidationError(format string, args ...interface{}) *DomainError {
	return &DomainError{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// NewConflictError 创建冲突错误
func NewConflictError(format string, args ...interface{}) *DomainError {
	return &DomainError{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

// KindOf 返回错误的类别,非领域错误返回空串
func KindOf(err error) ErrorKind {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Kind
	}
	return ""
}

// IsKind 判断错误是否属于指定类别
func IsKind(err error, kind ErrorKind) bool {
	return KindOf(err) == kind
}
