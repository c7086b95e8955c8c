package api

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/candrle20/researchtools/internal/service"
)

// RequestIDMiddleware 请求 ID 中间件
// 透传客户端携带的 X-Request-ID,否则生成新的;
// 同时写入 request context 供审计日志使用
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}

		c.Set("request_id", requestID)
		c.Header("X-Request-ID", requestID)

		ctx := service.WithAuditContext(c.Request.Context(), requestID, c.ClientIP(), c.Request.UserAgent())
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}
