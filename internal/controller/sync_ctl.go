package controller

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"shopify_split_v1_202610/internal/api/dto"
	"shopify_split_v1_202610/internal/service"
	"shopify_split_v1_202610/internal/task"
)

// ProductImporter 商品导入
type ProductImporter interface {
	ImportProducts(ctx context.Context, opts service.ImportOptions) ([]int64, error)
}

// CustomerExporter 客户导出
type CustomerExporter interface {
	ExportCustomers(ctx context.Context, instanceIDs []int64, update bool) ([]int64, error)
}

// SyncController 手动触发同步
// 商品导出、客户导入、订单导入经 TaskManager 触发，与定时任务互斥
type SyncController struct {
	taskManager *task.TaskManager
	products    ProductImporter
	customers   CustomerExporter
}

// NewSyncController 创建同步控制器
func NewSyncController(taskManager *task.TaskManager, products ProductImporter, customers CustomerExporter) *SyncController {
	return &SyncController{taskManager: taskManager, products: products, customers: customers}
}

// ==================== Handler 实现 ====================

// ExportProducts 导出商品
// POST /api/sync/products/export
func (c *SyncController) ExportProducts(ctx *gin.Context) {
	req, valid := bindExport(ctx)
	if !valid {
		return
	}

	ids, err := c.taskManager.TriggerProductExport(ctx.Request.Context(), req.InstanceIDs, req.Update)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ok(ctx, "商品导出完成", dto.SyncResp{Op: "export_products", IDs: nonNil(ids)})
}

// ImportProducts 导入商品映射
// POST /api/sync/products/import
func (c *SyncController) ImportProducts(ctx *gin.Context) {
	opts, valid := bindImport(ctx)
	if !valid {
		return
	}

	ids, err := c.products.ImportProducts(ctx.Request.Context(), opts)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ok(ctx, "商品导入完成", dto.SyncResp{Op: "import_products", IDs: nonNil(ids)})
}

// ImportCustomers 导入客户
// POST /api/sync/customers/import
func (c *SyncController) ImportCustomers(ctx *gin.Context) {
	opts, valid := bindImport(ctx)
	if !valid {
		return
	}

	ids, err := c.taskManager.TriggerCustomerImport(ctx.Request.Context(), opts)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ok(ctx, "客户导入完成", dto.SyncResp{Op: "import_customers", IDs: nonNil(ids)})
}

// ExportCustomers 导出客户
// POST /api/sync/customers/export
func (c *SyncController) ExportCustomers(ctx *gin.Context) {
	req, valid := bindExport(ctx)
	if !valid {
		return
	}

	ids, err := c.customers.ExportCustomers(ctx.Request.Context(), req.InstanceIDs, req.Update)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ok(ctx, "客户导出完成", dto.SyncResp{Op: "export_customers", IDs: nonNil(ids)})
}

// ImportOrders 导入订单与草稿订单
// POST /api/sync/orders/import
func (c *SyncController) ImportOrders(ctx *gin.Context) {
	opts, valid := bindImport(ctx)
	if !valid {
		return
	}

	ids, err := c.taskManager.TriggerOrderImport(ctx.Request.Context(), opts)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ok(ctx, "订单导入完成", dto.SyncResp{Op: "import_orders", IDs: nonNil(ids)})
}

// Status 任务运行状态
// GET /api/sync/status
func (c *SyncController) Status(ctx *gin.Context) {
	ok(ctx, "success", c.taskManager.Status())
}

// ==================== 工具函数 ====================

// bindExport 空 body 视为全部店铺
func bindExport(ctx *gin.Context) (dto.ExportReq, bool) {
	var req dto.ExportReq
	if ctx.Request.ContentLength == 0 {
		return req, true
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		fail(ctx, http.StatusBadRequest, "参数错误: "+err.Error())
		return req, false
	}
	return req, true
}

func bindImport(ctx *gin.Context) (service.ImportOptions, bool) {
	var req dto.ImportReq
	if ctx.Request.ContentLength != 0 {
		if err := ctx.ShouldBindJSON(&req); err != nil {
			fail(ctx, http.StatusBadRequest, "参数错误: "+err.Error())
			return service.ImportOptions{}, false
		}
	}
	if req.FromDate != nil && req.ToDate != nil && req.ToDate.Before(*req.FromDate) {
		fail(ctx, http.StatusBadRequest, "参数错误: to_date 不能早于 from_date")
		return service.ImportOptions{}, false
	}
	return service.ImportOptions{
		InstanceIDs:  req.InstanceIDs,
		SkipExisting: req.SkipExisting,
		FromDate:     req.FromDate,
		ToDate:       req.ToDate,
	}, true
}

func nonNil(ids []int64) []int64 {
	if ids == nil {
		return []int64{}
	}
	return ids
}
