package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/candrle20/researchtools/internal/auth"
	"github.com/candrle20/researchtools/internal/service"
)

// AuthController 认证控制器
type AuthController struct {
	authService service.AuthService
}

// NewAuthController 创建认证控制器
func NewAuthController(authService service.AuthService) *AuthController {
	return &AuthController{authService: authService}
}

// Register 注册研究员账号
func (c *AuthController) Register(ctx *gin.Context) {
	var req service.RegisterRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	user, err := c.authService.Register(ctx.Request.Context(), &req)
	if err != nil {
		HandleDomainError(ctx, err)
		return
	}
	Created(ctx, user)
}

// Login 登录并签发访问令牌
func (c *AuthController) Login(ctx *gin.Context) {
	var req service.LoginRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	result, err := c.authService.Login(ctx.Request.Context(), &req)
	if err != nil {
		// 凭证错误统一返回 401
		if service.IsKind(err, service.KindAuthorization) {
			Error(ctx, http.StatusUnauthorized, "invalid username or password", "")
			return
		}
		HandleDomainError(ctx, err)
		return
	}
	Success(ctx, result)
}

// Me 返回当前登录用户
func (c *AuthController) Me(ctx *gin.Context) {
	Success(ctx, auth.CurrentUser(ctx))
}
