package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"shopify_split_v1_202610/internal/api/dto"
	"shopify_split_v1_202610/internal/service"
)

// InstanceController 店铺连接管理
type InstanceController struct {
	instanceSvc *service.InstanceService
}

func NewInstanceController(instanceSvc *service.InstanceService) *InstanceController {
	return &InstanceController{instanceSvc: instanceSvc}
}

// List 店铺列表
// GET /api/instances?name=&active=&page=&page_size=
func (c *InstanceController) List(ctx *gin.Context) {
	var req dto.InstanceListReq
	if err := ctx.ShouldBindQuery(&req); err != nil {
		fail(ctx, http.StatusBadRequest, "参数错误: "+err.Error())
		return
	}
	if req.Page <= 0 {
		req.Page = 1
	}
	if req.PageSize <= 0 {
		req.PageSize = 20
	}

	resp, err := c.instanceSvc.List(ctx.Request.Context(), req)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ok(ctx, "success", resp)
}

// Get 店铺详情
// GET /api/instances/:id
func (c *InstanceController) Get(ctx *gin.Context) {
	id, valid := parseID(ctx, "id")
	if !valid {
		return
	}

	resp, err := c.instanceSvc.Get(ctx.Request.Context(), id)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ok(ctx, "success", resp)
}

// Create 新建店铺
// POST /api/instances
func (c *InstanceController) Create(ctx *gin.Context) {
	var req dto.InstanceCreateReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		fail(ctx, http.StatusBadRequest, "参数错误: "+err.Error())
		return
	}

	resp, err := c.instanceSvc.Create(ctx.Request.Context(), req)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ok(ctx, "创建成功", resp)
}

// Update 更新店铺
// PUT /api/instances/:id
func (c *InstanceController) Update(ctx *gin.Context) {
	id, valid := parseID(ctx, "id")
	if !valid {
		return
	}

	var req dto.InstanceUpdateReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		fail(ctx, http.StatusBadRequest, "参数错误: "+err.Error())
		return
	}

	resp, err := c.instanceSvc.Update(ctx.Request.Context(), id, req)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ok(ctx, "更新成功", resp)
}
