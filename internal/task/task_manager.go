package task

import (
	"context"
	"time"

	"go.uber.org/zap"

	"shopify_split_v1_202610/internal/config"
	"shopify_split_v1_202610/internal/service"
)

// ==================== TaskManager 同步任务管理器 ====================

// TaskManager 统一管理商品导出、客户导入、订单导入三个任务
// 手动触发与定时任务共用互斥标记，同一任务不会并发运行
type TaskManager struct {
	productTask  *ProductExportTask
	customerTask *CustomerImportTask
	orderTask    *OrderImportTask
	enabled      bool
	logger       *zap.Logger
}

// TaskManagerDeps 任务管理器依赖
type TaskManagerDeps struct {
	ProductService  ProductExporter
	CustomerService CustomerImporter
	OrderService    OrderImporter
}

// TaskManagerConfig 任务管理器配置
type TaskManagerConfig struct {
	Enabled bool // false 时只支持手动触发

	ProductExportCron  string
	CustomerImportCron string
	OrderImportCron    string
	RunTimeout         time.Duration
}

// ConfigFrom 由应用配置转换
func ConfigFrom(cfg config.TaskConfig) *TaskManagerConfig {
	return &TaskManagerConfig{
		Enabled:            cfg.Enabled,
		ProductExportCron:  cfg.ProductExportCron,
		CustomerImportCron: cfg.CustomerImportCron,
		OrderImportCron:    cfg.OrderImportCron,
		RunTimeout:         cfg.RunTimeout,
	}
}

// DefaultConfig 默认配置
func DefaultConfig() *TaskManagerConfig {
	return ConfigFrom(config.Default().Task)
}

// NewTaskManager 创建任务管理器，未提供的服务对应任务为空
func NewTaskManager(deps *TaskManagerDeps, cfg *TaskManagerConfig, logger *zap.Logger) *TaskManager {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("task")

	tm := &TaskManager{enabled: cfg.Enabled, logger: logger}
	if deps.ProductService != nil {
		tm.productTask = NewProductExportTask(deps.ProductService, cfg.ProductExportCron, cfg.RunTimeout, logger)
	}
	if deps.CustomerService != nil {
		tm.customerTask = NewCustomerImportTask(deps.CustomerService, cfg.CustomerImportCron, cfg.RunTimeout, logger)
	}
	if deps.OrderService != nil {
		tm.orderTask = NewOrderImportTask(deps.OrderService, cfg.OrderImportCron, cfg.RunTimeout, logger)
	}
	return tm
}

// ==================== 生命周期管理 ====================

// Start 启动所有定时任务
func (tm *TaskManager) Start() error {
	if !tm.enabled {
		tm.logger.Info("定时任务未启用，仅支持手动触发")
		return nil
	}
	tm.logger.Info("正在启动同步任务...")

	if tm.productTask != nil {
		if err := tm.productTask.Start(); err != nil {
			return err
		}
	}
	if tm.customerTask != nil {
		if err := tm.customerTask.Start(); err != nil {
			return err
		}
	}
	if tm.orderTask != nil {
		if err := tm.orderTask.Start(); err != nil {
			return err
		}
	}

	tm.logger.Info("同步任务已全部启动")
	return nil
}

// Stop 停止所有任务，等待运行中的任务结束
func (tm *TaskManager) Stop() {
	tm.logger.Info("正在停止同步任务...")

	if tm.productTask != nil {
		tm.productTask.Stop()
	}
	if tm.customerTask != nil {
		tm.customerTask.Stop()
	}
	if tm.orderTask != nil {
		tm.orderTask.Stop()
	}

	tm.logger.Info("同步任务已全部停止")
}

// ==================== 手动触发接口 ====================

// TriggerProductExport 立即导出商品
func (tm *TaskManager) TriggerProductExport(ctx context.Context, instanceIDs []int64, update bool) ([]int64, error) {
	if tm.productTask == nil {
		return nil, ErrTaskDisabled
	}
	return tm.productTask.RunNow(ctx, instanceIDs, update)
}

// TriggerCustomerImport 立即导入客户
func (tm *TaskManager) TriggerCustomerImport(ctx context.Context, opts service.ImportOptions) ([]int64, error) {
	if tm.customerTask == nil {
		return nil, ErrTaskDisabled
	}
	return tm.customerTask.RunNow(ctx, opts)
}

// TriggerOrderImport 立即导入订单
func (tm *TaskManager) TriggerOrderImport(ctx context.Context, opts service.ImportOptions) ([]int64, error) {
	if tm.orderTask == nil {
		return nil, ErrTaskDisabled
	}
	return tm.orderTask.RunNow(ctx, opts)
}

// ==================== 状态查询 ====================

// Status 任务是否启用 / 是否运行中
func (tm *TaskManager) Status() map[string]map[string]bool {
	status := func(j *job) map[string]bool {
		if j == nil {
			return map[string]bool{"enabled": false, "running": false}
		}
		return map[string]bool{"enabled": true, "running": j.Running()}
	}

	out := map[string]map[string]bool{}
	if tm.productTask != nil {
		out["product_export"] = status(tm.productTask.job)
	} else {
		out["product_export"] = status(nil)
	}
	if tm.customerTask != nil {
		out["customer_import"] = status(tm.customerTask.job)
	} else {
		out["customer_import"] = status(nil)
	}
	if tm.orderTask != nil {
		out["order_import"] = status(tm.orderTask.job)
	} else {
		out["order_import"] = status(nil)
	}
	return out
}

// ==================== 错误定义 ====================

type TaskError string

func (e TaskError) Error() string { return string(e) }

const (
	ErrTaskDisabled TaskError = "task is disabled"
	ErrTaskRunning  TaskError = "task is already running"
)
