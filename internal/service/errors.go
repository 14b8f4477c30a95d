package service

import (
	"errors"
	"fmt"

	"shopify_split_v1_202610/pkg/shopify"
)

var (
	// ErrProductNotMapped 订单行在本地找不到对应变体
	ErrProductNotMapped = errors.New("订单行未找到本地商品")
	// ErrInvalidInstance 店铺配置不合法 (如选项槽位冲突)
	ErrInvalidInstance = errors.New("店铺配置无效")
)

// SyncError 中止整次同步的错误，消息中原样带上远端响应体
type SyncError struct {
	Op     string // export_products / import_orders ...
	Target string // 出错的记录，如 "template 12 color Red"
	Err    error
}

func (e *SyncError) Error() string {
	var apiErr *shopify.APIError
	if errors.As(e.Err, &apiErr) {
		return fmt.Sprintf("%s 失败 (%s): Shopify 返回 %d: %s", e.Op, e.Target, apiErr.StatusCode, apiErr.Body)
	}
	return fmt.Sprintf("%s 失败 (%s): %v", e.Op, e.Target, e.Err)
}

func (e *SyncError) Unwrap() error {
	return e.Err
}

func newSyncError(op, target string, err error) error {
	var se *SyncError
	if errors.As(err, &se) {
		return err
	}
	return &SyncError{Op: op, Target: target, Err: err}
}
