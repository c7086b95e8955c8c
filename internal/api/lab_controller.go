package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/candrle20/researchtools/internal/auth"
	"github.com/candrle20/researchtools/internal/service"
	"github.com/candrle20/researchtools/internal/utils"
)

// LabController 实验室与加入申请控制器
type LabController struct {
	labService        service.LabService
	membershipService service.MembershipService
}

// NewLabController 创建实验室控制器
func NewLabController(labService service.LabService, membershipService service.MembershipService) *LabController {
	return &LabController{
		labService:        labService,
		membershipService: membershipService,
	}
}

// List 获取可见的实验室
func (c *LabController) List(ctx *gin.Context) {
	actor := auth.CurrentUser(ctx)

	labs, err := c.labService.List(actor)
	if err != nil {
		HandleDomainError(ctx, err)
		return
	}
	Success(ctx, labs)
}

// Create 创建实验室
func (c *LabController) Create(ctx *gin.Context) {
	actor := auth.CurrentUser(ctx)

	var req service.LabRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	lab, err := c.labService.Create(ctx.Request.Context(), actor, &req)
	if err != nil {
		HandleDomainError(ctx, err)
		return
	}
	Created(ctx, lab)
}

// Get 获取实验室详情
func (c *LabController) Get(ctx *gin.Context) {
	actor := auth.CurrentUser(ctx)
	id := ctx.Param("id")
	if err := utils.ValidateEntityID(id); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid lab ID", err.Error())
		return
	}

	lab, err := c.labService.Get(actor, id)
	if err != nil {
		HandleDomainError(ctx, err)
		return
	}
	Success(ctx, lab)
}

// Update 更新实验室
func (c *LabController) Update(ctx *gin.Context) {
	actor := auth.CurrentUser(ctx)
	id := ctx.Param("id")

	var req service.LabRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	lab, err := c.labService.Update(ctx.Request.Context(), actor, id, &req)
	if err != nil {
		HandleDomainError(ctx, err)
		return
	}
	Success(ctx, lab)
}

// Delete 删除实验室
func (c *LabController) Delete(ctx *gin.Context) {
	actor := auth.CurrentUser(ctx)
	id := ctx.Param("id")

	if err := c.labService.Delete(ctx.Request.Context(), actor, id); err != nil {
		HandleDomainError(ctx, err)
		return
	}
	Success(ctx, nil)
}

// ListJoinRequests 获取可见的加入申请
func (c *LabController) ListJoinRequests(ctx *gin.Context) {
	actor := auth.CurrentUser(ctx)

	requests, err := c.membershipService.ListJoinRequests(actor)
	if err != nil {
		HandleDomainError(ctx, err)
		return
	}
	Success(ctx, requests)
}

// CreateJoinRequest 创建加入申请
func (c *LabController) CreateJoinRequest(ctx *gin.Context) {
	actor := auth.CurrentUser(ctx)

	var req service.JoinRequestInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	request, err := c.membershipService.RequestJoin(ctx.Request.Context(), actor, &req)
	if err != nil {
		HandleDomainError(ctx, err)
		return
	}
	Created(ctx, request)
}

// ApproveJoinRequest 批准加入申请
func (c *LabController) ApproveJoinRequest(ctx *gin.Context) {
	actor := auth.CurrentUser(ctx)
	id := ctx.Param("id")

	membership, err := c.membershipService.Approve(ctx.Request.Context(), actor, id)
	if err != nil {
		HandleDomainError(ctx, err)
		return
	}
	Success(ctx, membership)
}

// RejectJoinRequest 拒绝加入申请
func (c *LabController) RejectJoinRequest(ctx *gin.Context) {
	actor := auth.CurrentUser(ctx)
	id := ctx.Param("id")

	if err := c.membershipService.Reject(ctx.Request.Context(), actor, id); err != nil {
		HandleDomainError(ctx, err)
		return
	}
	Success(ctx, nil)
}

// ListMemberships 获取可见的成员记录
func (c *LabController) ListMemberships(ctx *gin.Context) {
	actor := auth.CurrentUser(ctx)

	memberships, err := c.membershipService.ListMemberships(actor)
	if err != nil {
		HandleDomainError(ctx, err)
		return
	}
	Success(ctx, memberships)
}
