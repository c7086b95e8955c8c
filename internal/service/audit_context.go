package service

import "context"

// auditContextKey 审计上下文键
// 未导出的自定义类型,避免与其他包的 context 键冲突
type auditContextKey string

const (
	auditKeyRequestID auditContextKey = "request_id"
	auditKeyIP        auditContextKey = "ip"
	auditKeyUserAgent auditContextKey = "user_agent"
)

// WithAuditContext 把请求元信息写入 context,供审计日志记录
func WithAuditContext(ctx context.Context, requestID, ip, userAgent string) context.Context {
	ctx = context.WithValue(ctx, auditKeyRequestID, requestID)
	ctx = context.WithValue(ctx, auditKeyIP, ip)
	return context.WithValue(ctx, auditKeyUserAgent, userAgent)
}

// auditValue 读取审计上下文中的字符串值,缺失时返回空串
func auditValue(ctx context.Context, key auditContextKey) string {
	if v, ok := ctx.Value(key).(string); ok {
		return v
	}
	return ""
}
