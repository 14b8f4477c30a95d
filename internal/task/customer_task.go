package task

import (
	"context"
	"time"

	"go.uber.org/zap"

	"shopify_split_v1_202610/internal/service"
)

// CustomerImporter 客户导入
type CustomerImporter interface {
	ImportCustomers(ctx context.Context, opts service.ImportOptions) ([]int64, error)
}

// CustomerImportTask 定时从水位线开始导入客户
type CustomerImportTask struct {
	*job
	importer CustomerImporter
}

func NewCustomerImportTask(importer CustomerImporter, spec string, timeout time.Duration, logger *zap.Logger) *CustomerImportTask {
	return &CustomerImportTask{
		job:      newJob("customer_import", spec, timeout, logger.Named("customer_import_task")),
		importer: importer,
	}
}

func (t *CustomerImportTask) Start() error {
	return t.start(func(ctx context.Context) error {
		_, err := t.run(ctx, service.ImportOptions{SkipExisting: true})
		return err
	})
}

func (t *CustomerImportTask) Stop() {
	t.stop()
}

// RunNow 手动触发，与定时任务互斥
func (t *CustomerImportTask) RunNow(ctx context.Context, opts service.ImportOptions) ([]int64, error) {
	var ids []int64
	err := t.runExclusive(ctx, func(ctx context.Context) error {
		var err error
		ids, err = t.run(ctx, opts)
		return err
	})
	return ids, err
}

func (t *CustomerImportTask) run(ctx context.Context, opts service.ImportOptions) ([]int64, error) {
	ids, err := t.importer.ImportCustomers(ctx, opts)
	if err != nil {
		t.logger.Error("客户导入失败", zap.Error(err))
		return ids, err
	}
	t.logger.Info("客户导入完成", zap.Int("partners", len(ids)))
	return ids, nil
}
