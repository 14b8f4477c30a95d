package task

import (
	"context"
	"time"

	"go.uber.org/zap"

	"shopify_split_v1_202610/internal/service"
)

// OrderImporter 订单导入
type OrderImporter interface {
	ImportOrders(ctx context.Context, opts service.ImportOptions) ([]int64, error)
}

// ==================== OrderImportTask 订单导入任务 ====================

// OrderImportTask 定时导入草稿订单与订单
type OrderImportTask struct {
	*job
	importer OrderImporter
}

func NewOrderImportTask(importer OrderImporter, spec string, timeout time.Duration, logger *zap.Logger) *OrderImportTask {
	return &OrderImportTask{
		job:      newJob("order_import", spec, timeout, logger.Named("order_import_task")),
		importer: importer,
	}
}

// Start 启动定时任务
func (t *OrderImportTask) Start() error {
	return t.start(func(ctx context.Context) error {
		_, err := t.run(ctx, service.ImportOptions{})
		return err
	})
}

// Stop 停止任务
func (t *OrderImportTask) Stop() {
	t.stop()
}

// RunNow 手动触发，与定时任务互斥
func (t *OrderImportTask) RunNow(ctx context.Context, opts service.ImportOptions) ([]int64, error) {
	var ids []int64
	err := t.runExclusive(ctx, func(ctx context.Context) error {
		var err error
		ids, err = t.run(ctx, opts)
		return err
	})
	return ids, err
}

func (t *OrderImportTask) run(ctx context.Context, opts service.ImportOptions) ([]int64, error) {
	ids, err := t.importer.ImportOrders(ctx, opts)
	if err != nil {
		t.logger.Error("订单导入失败", zap.Error(err))
		return ids, err
	}
	t.logger.Info("订单导入完成", zap.Int("orders", len(ids)))
	return ids, nil
}
