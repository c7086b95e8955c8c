package api

import (
	"github.com/gin-gonic/gin"
	"github.com/candrle20/researchtools/internal/auth"
	"github.com/candrle20/researchtools/internal/service"
)

// UserController 用户控制器
type UserController struct {
	userService service.UserService
}

// NewUserController 创建用户控制器
func NewUserController(userService service.UserService) *UserController {
	return &UserController{userService: userService}
}

// List 获取可见的用户
func (c *UserController) List(ctx *gin.Context) {
	actor := auth.CurrentUser(ctx)

	users, err := c.userService.List(actor)
	if err != nil {
		HandleDomainError(ctx, err)
		return
	}
	Success(ctx, users)
}

// Get 获取用户详情
func (c *UserController) Get(ctx *gin.Context) {
	actor := auth.CurrentUser(ctx)
	id := ctx.Param("id")

	user, err := c.userService.Get(actor, id)
	if err != nil {
		HandleDomainError(ctx, err)
		return
	}
	Success(ctx, user)
}
