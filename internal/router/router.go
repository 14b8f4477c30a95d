package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"shopify_split_v1_202610/internal/controller"
	"shopify_split_v1_202610/internal/middleware"
)

// Controllers 控制器集合
type Controllers struct {
	Instance *controller.InstanceController
	Sync     *controller.SyncController
	Record   *controller.RecordController
}

// Options 路由配置
type Options struct {
	SyncCooldown time.Duration // 同一店铺同类手动同步的最小间隔
	Logger       *zap.Logger
}

// SetupRouter 创建 gin 引擎并注册所有路由
func SetupRouter(ctls *Controllers, opts Options) *gin.Engine {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(opts.Logger))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	{
		// instances 店铺连接
		instances := api.Group("/instances")
		{
			instances.GET("", ctls.Instance.List)
			instances.GET("/:id", ctls.Instance.Get)
			instances.POST("", ctls.Instance.Create)
			instances.PUT("/:id", ctls.Instance.Update)
		}

		// sync 手动同步，带冷却
		limiter := middleware.NewSyncRateLimiter()
		cooldown := func(t middleware.SyncType) gin.HandlerFunc {
			return middleware.SyncCooldown(limiter, t, opts.SyncCooldown)
		}
		sync := api.Group("/sync")
		{
			sync.GET("/status", ctls.Sync.Status)
			sync.POST("/products/export", cooldown(middleware.SyncTypeProductExport), ctls.Sync.ExportProducts)
			sync.POST("/products/import", cooldown(middleware.SyncTypeProductImport), ctls.Sync.ImportProducts)
			sync.POST("/customers/import", cooldown(middleware.SyncTypeCustomerImport), ctls.Sync.ImportCustomers)
			sync.POST("/customers/export", cooldown(middleware.SyncTypeCustomerExport), ctls.Sync.ExportCustomers)
			sync.POST("/orders/import", cooldown(middleware.SyncTypeOrderImport), ctls.Sync.ImportOrders)
		}

		api.GET("/orders", ctls.Record.ListOrders)
		api.GET("/partners", ctls.Record.ListPartners)
	}

	return r
}
