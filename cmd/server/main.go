package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"shopify_split_v1_202610/internal/bootstrap"
	"shopify_split_v1_202610/internal/controller"
	"shopify_split_v1_202610/internal/router"
)

func main() {
	// 1. 加载 .env (可选)
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("警告: 读取 .env 失败: %v", err)
	}

	// 2. 配置、日志、数据库、依赖
	deps, err := bootstrap.Init()
	if err != nil {
		log.Fatalf("初始化失败: %v", err)
	}
	defer deps.Logger.Sync()

	if deps.Config.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// 3. 启动定时任务
	if err := deps.Tasks.Start(); err != nil {
		deps.Logger.Fatal("定时任务启动失败", zap.Error(err))
	}

	// 4. 初始化路由
	r := router.SetupRouter(initControllers(deps), router.Options{
		SyncCooldown: deps.Config.Middleware.SyncCooldown,
		Logger:       deps.Logger,
	})

	// 5. 启动服务
	startServer(deps, r)
}

// initControllers 初始化所有控制器
func initControllers(deps *bootstrap.Dependencies) *router.Controllers {
	svc := deps.Services
	return &router.Controllers{
		Instance: controller.NewInstanceController(svc.Instance),
		Sync:     controller.NewSyncController(deps.Tasks, svc.Product, svc.Customer),
		Record:   controller.NewRecordController(svc.Order, svc.Customer),
	}
}

// ==================== 服务启动 ====================

// startServer 启动服务，收到退出信号后先停任务再关闭 HTTP
func startServer(deps *bootstrap.Dependencies, r *gin.Engine) {
	logger := deps.Logger
	port := deps.Config.Server.Port

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}

	go func() {
		logger.Info("服务启动", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("服务启动失败", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("正在关闭服务...")
	deps.Tasks.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("服务强制关闭", zap.Error(err))
	}

	if sqlDB, err := deps.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
	logger.Info("服务已退出")
}
