package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"shopify_split_v1_202610/internal/model"
	"shopify_split_v1_202610/internal/repository"
)

// ImportOptions 导入参数
type ImportOptions struct {
	InstanceIDs  []int64 // 为空时处理全部启用的店铺
	SkipExisting bool
	FromDate     *time.Time // 为空时使用店铺水位线
	ToDate       *time.Time
}

// resolveInstances 指定 ID 时按 ID 加载，否则取全部启用店铺
func resolveInstances(ctx context.Context, repo repository.InstanceRepository, ids []int64) ([]model.StoreInstance, error) {
	var (
		list []model.StoreInstance
		err  error
	)
	if len(ids) == 0 {
		list, err = repo.ListActive(ctx)
	} else {
		list, err = repo.ListByIDs(ctx, ids)
	}
	if err != nil {
		return nil, fmt.Errorf("加载店铺失败: %w", err)
	}
	return list, nil
}

// newRunLogger 每次运行分配一个 run_id
func newRunLogger(logger *zap.Logger, op string) (string, *zap.Logger) {
	runID := uuid.NewString()
	return runID, logger.With(zap.String("op", op), zap.String("run_id", runID))
}

// effectiveFrom 显式起始时间优先，否则用水位线
func effectiveFrom(from, watermark *time.Time) *time.Time {
	if from != nil {
		return from
	}
	return watermark
}

func appendUnique(ids []int64, id int64) []int64 {
	for _, v := range ids {
		if v == id {
			return ids
		}
	}
	return append(ids, id)
}
