package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/candrle20/researchtools/internal/auth"
	"github.com/candrle20/researchtools/internal/service"
	"github.com/candrle20/researchtools/internal/utils"
)

// ProtocolController 协议控制器
type ProtocolController struct {
	protocolService service.ProtocolService
	queryService    service.QueryService
}

// NewProtocolController 创建协议控制器
func NewProtocolController(protocolService service.ProtocolService, queryService service.QueryService) *ProtocolController {
	return &ProtocolController{
		protocolService: protocolService,
		queryService:    queryService,
	}
}

// validateProtocolID 验证协议 ID 并返回错误响应(如果无效)
func (c *ProtocolController) validateProtocolID(ctx *gin.Context, id string) bool {
	if err := utils.ValidateEntityID(id); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid protocol ID", err.Error())
		return false
	}
	return true
}

// List 获取协议列表
// filter 取值由角色决定,未识别的过滤器回落到基集
func (c *ProtocolController) List(ctx *gin.Context) {
	actor := auth.CurrentUser(ctx)
	filter := ctx.Query("filter")

	protocols, err := c.queryService.VisibleProtocols(actor, filter)
	if err != nil {
		HandleDomainError(ctx, err)
		return
	}
	Success(ctx, protocols)
}

// Search 搜索协议
func (c *ProtocolController) Search(ctx *gin.Context) {
	actor := auth.CurrentUser(ctx)
	field := ctx.Query("type")
	query := ctx.Query("q")

	protocols, err := c.queryService.Search(actor, field, query)
	if err != nil {
		HandleDomainError(ctx, err)
		return
	}
	Success(ctx, protocols)
}

// Popular 获取热门协议
func (c *ProtocolController) Popular(ctx *gin.Context) {
	actor := auth.CurrentUser(ctx)

	limit := 0
	if raw := ctx.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			limit = n
		}
	}

	protocols, err := c.queryService.Popular(actor, limit)
	if err != nil {
		HandleDomainError(ctx, err)
		return
	}
	Success(ctx, protocols)
}

// Create 创建协议草稿
func (c *ProtocolController) Create(ctx *gin.Context) {
	actor := auth.CurrentUser(ctx)

	var req service.CreateProtocolRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	protocol, err := c.protocolService.Create(ctx.Request.Context(), actor, &req)
	if err != nil {
		HandleDomainError(ctx, err)
		return
	}
	Created(ctx, protocol)
}

// Get 获取协议详情,浏览计数原子加一
func (c *ProtocolController) Get(ctx *gin.Context) {
	actor := auth.CurrentUser(ctx)
	id := ctx.Param("id")
	if !c.validateProtocolID(ctx, id) {
		return
	}

	protocol, err := c.protocolService.Get(ctx.Request.Context(), actor, id)
	if err != nil {
		HandleDomainError(ctx, err)
		return
	}
	Success(ctx, protocol)
}

// Update 更新协议
func (c *ProtocolController) Update(ctx *gin.Context) {
	actor := auth.CurrentUser(ctx)
	id := ctx.Param("id")
	if !c.validateProtocolID(ctx, id) {
		return
	}

	var req service.UpdateProtocolRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	protocol, err := c.protocolService.Update(ctx.Request.Context(), actor, id, &req)
	if err != nil {
		HandleDomainError(ctx, err)
		return
	}
	Success(ctx, protocol)
}

// Delete 删除协议草稿
func (c *ProtocolController) Delete(ctx *gin.Context) {
	actor := auth.CurrentUser(ctx)
	id := ctx.Param("id")
	if !c.validateProtocolID(ctx, id) {
		return
	}

	if err := c.protocolService.Delete(ctx.Request.Context(), actor, id); err != nil {
		HandleDomainError(ctx, err)
		return
	}
	Success(ctx, nil)
}

// Submit 提交协议进入评审
func (c *ProtocolController) Submit(ctx *gin.Context) {
	actor := auth.CurrentUser(ctx)
	id := ctx.Param("id")
	if !c.validateProtocolID(ctx, id) {
		return
	}

	protocol, err := c.protocolService.Submit(ctx.Request.Context(), actor, id)
	if err != nil {
		HandleDomainError(ctx, err)
		return
	}
	Success(ctx, protocol)
}

// Withdraw 撤回协议
func (c *ProtocolController) Withdraw(ctx *gin.Context) {
	actor := auth.CurrentUser(ctx)
	id := ctx.Param("id")
	if !c.validateProtocolID(ctx, id) {
		return
	}

	protocol, err := c.protocolService.Withdraw(ctx.Request.Context(), actor, id)
	if err != nil {
		HandleDomainError(ctx, err)
		return
	}
	Success(ctx, protocol)
}

// Acknowledge 确认新提交,清除新提交标记
func (c *ProtocolController) Acknowledge(ctx *gin.Context) {
	actor := auth.CurrentUser(ctx)
	id := ctx.Param("id")
	if !c.validateProtocolID(ctx, id) {
		return
	}

	if err := c.protocolService.Acknowledge(ctx.Request.Context(), actor, id); err != nil {
		HandleDomainError(ctx, err)
		return
	}
	Success(ctx, nil)
}

// shareRequest 共享协议请求
type shareRequest struct {
	Email string `json:"email" binding:"required"`
}

// Share 按邮箱共享协议
func (c *ProtocolController) Share(ctx *gin.Context) {
	actor := auth.CurrentUser(ctx)
	id := ctx.Param("id")
	if !c.validateProtocolID(ctx, id) {
		return
	}

	var req shareRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	if err := c.protocolService.Share(ctx.Request.Context(), actor, id, req.Email); err != nil {
		HandleDomainError(ctx, err)
		return
	}
	Success(ctx, nil)
}

// Review 提交评审决定
func (c *ProtocolController) Review(ctx *gin.Context) {
	actor := auth.CurrentUser(ctx)
	id := ctx.Param("id")
	if !c.validateProtocolID(ctx, id) {
		return
	}

	var req service.ReviewRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	review, err := c.protocolService.Review(ctx.Request.Context(), actor, id, &req)
	if err != nil {
		HandleDomainError(ctx, err)
		return
	}
	Created(ctx, review)
}

// ListReviews 获取协议的评审历史
func (c *ProtocolController) ListReviews(ctx *gin.Context) {
	actor := auth.CurrentUser(ctx)
	id := ctx.Param("id")
	if !c.validateProtocolID(ctx, id) {
		return
	}

	reviews, err := c.queryService.ReviewsForProtocol(actor, id)
	if err != nil {
		HandleDomainError(ctx, err)
		return
	}
	Success(ctx, reviews)
}

// AllReviews 获取可见的全部评审
func (c *ProtocolController) AllReviews(ctx *gin.Context) {
	actor := auth.CurrentUser(ctx)

	reviews, err := c.queryService.VisibleReviews(actor)
	if err != nil {
		HandleDomainError(ctx, err)
		return
	}
	Success(ctx, reviews)
}
