package task

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// ProductExporter 商品导出
type ProductExporter interface {
	ExportProducts(ctx context.Context, instanceIDs []int64, update bool) ([]int64, error)
}

// ==================== ProductExportTask 商品导出任务 ====================

// ProductExportTask 定时把增量模板推送到全部启用店铺 (update 模式)
type ProductExportTask struct {
	*job
	exporter ProductExporter
}

func NewProductExportTask(exporter ProductExporter, spec string, timeout time.Duration, logger *zap.Logger) *ProductExportTask {
	return &ProductExportTask{
		job:      newJob("product_export", spec, timeout, logger.Named("product_export_task")),
		exporter: exporter,
	}
}

// Start 启动定时任务
func (t *ProductExportTask) Start() error {
	return t.start(func(ctx context.Context) error {
		_, err := t.run(ctx, nil, true)
		return err
	})
}

// Stop 停止任务
func (t *ProductExportTask) Stop() {
	t.stop()
}

// RunNow 手动触发，与定时任务互斥
func (t *ProductExportTask) RunNow(ctx context.Context, instanceIDs []int64, update bool) ([]int64, error) {
	var ids []int64
	err := t.runExclusive(ctx, func(ctx context.Context) error {
		var err error
		ids, err = t.run(ctx, instanceIDs, update)
		return err
	})
	return ids, err
}

func (t *ProductExportTask) run(ctx context.Context, instanceIDs []int64, update bool) ([]int64, error) {
	ids, err := t.exporter.ExportProducts(ctx, instanceIDs, update)
	if err != nil {
		t.logger.Error("商品导出失败", zap.Int("templates", len(ids)), zap.Error(err))
		return ids, err
	}
	t.logger.Info("商品导出完成", zap.Int("templates", len(ids)))
	return ids, nil
}
