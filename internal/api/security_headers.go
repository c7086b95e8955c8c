package api

import (
	"github.com/gin-gonic/gin"
)

// SecurityHeadersMiddleware 安全头中间件
// 这是一个纯 JSON API,安全头按 API 场景收紧
func SecurityHeadersMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		// 禁止 MIME 类型嗅探
		c.Header("X-Content-Type-Options", "nosniff")

		// API 响应不应被嵌入任何页面
		c.Header("X-Frame-Options", "DENY")
		c.Header("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")

		// 强制 HTTPS
		c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")

		// 不泄露来源
		c.Header("Referrer-Policy", "no-referrer")

		// 协议与评审数据不进共享缓存
		c.Header("Cache-Control", "no-store")

		c.Next()
	}
}
