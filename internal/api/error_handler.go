package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/candrle20/researchtools/internal/service"
)

// APIError API 错误
type APIError struct {
	Code    int
	Message string
	Detail  string
}

func (e *APIError) Error() string {
	return e.Message
}

// HandleDomainError 将领域错误映射为 HTTP 响应
// authorization→403, precondition→400, not_found→404,
// validation→422, conflict→409, 其余→500
func HandleDomainError(c *gin.Context, err error) {
	var domainErr *service.DomainError
	if errors.As(err, &domainErr) {
		code := http.StatusInternalServerError
		switch domainErr.Kind {
		case service.KindAuthorization:
			code = http.StatusForbidden
		case service.KindPrecondition:
			code = http.StatusBadRequest
		case service.KindNotFound:
			code = http.StatusNotFound
		case service.KindValidation:
			code = http.StatusUnprocessableEntity
		case service.KindConflict:
			code = http.StatusConflict
		}
		Error(c, code, domainErr.Message, "")
		return
	}

	GetLogger().WithError(err).Error("unhandled service error")
	Error(c, http.StatusInternalServerError, "internal server error", "")
}

// ErrorHandlerMiddleware 错误处理中间件
// 兜底处理 handler 挂到 gin.Context 上的错误
func ErrorHandlerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 {
			err := c.Errors.Last()

			var apiErr *APIError
			if errors.As(err, &apiErr) {
				Error(c, apiErr.Code, apiErr.Message, apiErr.Detail)
			} else {
				Error(c, http.StatusInternalServerError, "internal server error", err.Error())
			}
		}
	}
}
