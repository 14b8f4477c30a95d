package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"shopify_split_v1_202610/internal/api/dto"
	"shopify_split_v1_202610/internal/service"
)

// RecordController 查询同步产生的本地订单与客户
type RecordController struct {
	orderSvc    *service.OrderSyncService
	customerSvc *service.CustomerSyncService
}

func NewRecordController(orderSvc *service.OrderSyncService, customerSvc *service.CustomerSyncService) *RecordController {
	return &RecordController{orderSvc: orderSvc, customerSvc: customerSvc}
}

// ListOrders GET /api/orders?instance_id=&state=&page=&page_size=
func (c *RecordController) ListOrders(ctx *gin.Context) {
	req, valid := bindList(ctx)
	if !valid {
		return
	}

	list, total, err := c.orderSvc.ListOrders(ctx.Request.Context(), req)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ok(ctx, "success", gin.H{"list": list, "total": total, "page": req.Page, "page_size": req.PageSize})
}

// ListPartners GET /api/partners?keyword=&page=&page_size=
func (c *RecordController) ListPartners(ctx *gin.Context) {
	req, valid := bindList(ctx)
	if !valid {
		return
	}

	list, total, err := c.customerSvc.ListPartners(ctx.Request.Context(), req)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ok(ctx, "success", gin.H{"list": list, "total": total, "page": req.Page, "page_size": req.PageSize})
}

func bindList(ctx *gin.Context) (dto.ListReq, bool) {
	var req dto.ListReq
	if err := ctx.ShouldBindQuery(&req); err != nil {
		fail(ctx, http.StatusBadRequest, "参数错误: "+err.Error())
		return req, false
	}
	if req.Page <= 0 {
		req.Page = 1
	}
	if req.PageSize <= 0 || req.PageSize > 200 {
		req.PageSize = 20
	}
	return req, true
}
