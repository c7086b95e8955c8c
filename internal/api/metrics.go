package api

import (
	"github.com/gin-gonic/gin"
	"github.com/candrle20/researchtools/internal/metrics"
)

// MetricsHandler Prometheus 指标处理器
func MetricsHandler(c *gin.Context) {
	metrics.Handler().ServeHTTP(c.Writer, c.Request)
}
