package utils

import (
	"html"
	"regexp"
	"strings"
	"unicode"
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// SanitizeString 清理字符串,移除或转义危险字符
func SanitizeString(input string) string {
	// 1. HTML 转义,防止 XSS
	sanitized := html.EscapeString(input)

	// 2. 移除控制字符(除了换行符和制表符)
	var result strings.Builder
	for _, r := range sanitized {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			continue
		}
		result.WriteRune(r)
	}

	return result.String()
}

// ValidateEmail 验证邮箱格式
func ValidateEmail(email string) error {
	trimmed := strings.TrimSpace(email)
	if trimmed == "" {
		return ErrEmptyEmail
	}
	if len(trimmed) > 254 {
		return ErrEmailTooLong
	}
	if !emailPattern.MatchString(trimmed) {
		return ErrInvalidEmail
	}
	return nil
}

// ValidateEntityID 验证实体 ID 格式
func ValidateEntityID(id string) error {
	// 1. 检查是否为空
	if id == "" {
		return ErrEmptyID
	}

	// 2. 检查格式(只允许字母、数字、连字符、下划线)
	matched, _ := regexp.MatchString(`^[a-zA-Z0-9_-]+$`, id)
	if !matched {
		return ErrInvalidIDFormat
	}

	// 3. 检查长度(最大 64 字符)
	if len(id) > 64 {
		return ErrIDTooLong
	}

	return nil
}

// ValidateTitle 验证协议标题
func ValidateTitle(title string) error {
	trimmed := strings.TrimSpace(title)
	if trimmed == "" {
		return ErrEmptyTitle
	}
	if len(trimmed) > 200 {
		return ErrTitleTooLong
	}
	if containsDangerousChars(trimmed) {
		return ErrDangerousChars
	}
	return nil
}

// containsDangerousChars 检查字符串是否包含危险字符
func containsDangerousChars(s string) bool {
	// 检查常见的 XSS 和 SQL 注入模式
	dangerousPatterns := []string{
		"<script",
		"</script>",
		"javascript:",
		"onerror=",
		"onload=",
		"';",
		"'; --",
		"DROP TABLE",
		"DELETE FROM",
		"INSERT INTO",
		"UPDATE SET",
		"UNION SELECT",
		"<iframe",
		"<img",
		"<svg",
	}

	lower := strings.ToLower(s)
	for _, pattern := range dangerousPatterns {
		if strings.Contains(lower, strings.ToLower(pattern)) {
			return true
		}
	}

	return false
}

// TrimAndValidate 清理并验证字符串
func TrimAndValidate(s string, maxLen int) (string, error) {
	// 1. 去除首尾空白字符
	trimmed := strings.TrimSpace(s)

	// 2. 检查是否为空
	if trimmed == "" {
		return "", ErrEmptyString
	}

	// 3. 检查长度
	if maxLen > 0 && len(trimmed) > maxLen {
		return "", ErrStringTooLong
	}

	// 4. 清理危险字符
	sanitized := SanitizeString(trimmed)

	return sanitized, nil
}

// 错误定义
var (
	ErrEmptyEmail      = &ValidationError{Code: "EMPTY_EMAIL", Message: "email cannot be empty"}
	ErrEmailTooLong    = &ValidationError{Code: "EMAIL_TOO_LONG", Message: "email exceeds maximum length"}
	ErrInvalidEmail    = &ValidationError{Code: "INVALID_EMAIL", Message: "email format is invalid"}
	ErrEmptyTitle      = &ValidationError{Code: "EMPTY_TITLE", Message: "title cannot be empty"}
	ErrTitleTooLong    = &ValidationError{Code: "TITLE_TOO_LONG", Message: "title exceeds maximum length"}
	ErrDangerousChars  = &ValidationError{Code: "DANGEROUS_CHARS", Message: "input contains dangerous characters"}
	ErrEmptyID         = &ValidationError{Code: "EMPTY_ID", Message: "id cannot be empty"}
	ErrInvalidIDFormat = &ValidationError{Code: "INVALID_ID_FORMAT", Message: "id contains invalid characters"}
	ErrIDTooLong       = &ValidationError{Code: "ID_TOO_LONG", Message: "id exceeds maximum length"}
	ErrEmptyString     = &ValidationError{Code: "EMPTY_STRING", Message: "string cannot be empty"}
	ErrStringTooLong   = &ValidationError{Code: "STRING_TOO_LONG", Message: "string exceeds maximum length"}
)

// ValidationError 验证错误
type ValidationError struct {
	Code    string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}
