package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/candrle20/researchtools/internal/auth"
	"github.com/candrle20/researchtools/internal/service"
)

// SchoolController 学院控制器
type SchoolController struct {
	schoolService service.SchoolService
}

// NewSchoolController 创建学院控制器
func NewSchoolController(schoolService service.SchoolService) *SchoolController {
	return &SchoolController{schoolService: schoolService}
}

// List 获取可见的学院
func (c *SchoolController) List(ctx *gin.Context) {
	actor := auth.CurrentUser(ctx)

	schools, err := c.schoolService.List(actor)
	if err != nil {
		HandleDomainError(ctx, err)
		return
	}
	Success(ctx, schools)
}

// Create 创建学院
func (c *SchoolController) Create(ctx *gin.Context) {
	actor := auth.CurrentUser(ctx)

	var req service.SchoolRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	school, err := c.schoolService.Create(ctx.Request.Context(), actor, &req)
	if err != nil {
		HandleDomainError(ctx, err)
		return
	}
	Created(ctx, school)
}

// Get 获取学院详情
func (c *SchoolController) Get(ctx *gin.Context) {
	actor := auth.CurrentUser(ctx)
	id := ctx.Param("id")

	school, err := c.schoolService.Get(actor, id)
	if err != nil {
		HandleDomainError(ctx, err)
		return
	}
	Success(ctx, school)
}

// Update 更新学院
func (c *SchoolController) Update(ctx *gin.Context) {
	actor := auth.CurrentUser(ctx)
	id := ctx.Param("id")

	var req service.SchoolRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	school, err := c.schoolService.Update(ctx.Request.Context(), actor, id, &req)
	if err != nil {
		HandleDomainError(ctx, err)
		return
	}
	Success(ctx, school)
}

// Delete 删除学院
func (c *SchoolController) Delete(ctx *gin.Context) {
	actor := auth.CurrentUser(ctx)
	id := ctx.Param("id")

	if err := c.schoolService.Delete(ctx.Request.Context(), actor, id); err != nil {
		HandleDomainError(ctx, err)
		return
	}
	Success(ctx, nil)
}
