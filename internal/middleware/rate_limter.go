package middleware

import (
	"fmt"
	"sync"
	"time"
)

// ==================== SyncRateLimiter 同步冷却限流器 ====================

// SyncRateLimiter 手动同步冷却限流器
// 防止频繁触发手动同步导致 Shopify API 限流
type SyncRateLimiter struct {
	locks sync.Map // key -> *lockEntry
	now   func() time.Time
}

// lockEntry 锁条目
type lockEntry struct {
	lastTime time.Time
	mu       sync.Mutex
}

// NewSyncRateLimiter 创建限流器
func NewSyncRateLimiter() *SyncRateLimiter {
	return &SyncRateLimiter{now: time.Now}
}

// ==================== 限流检查 ====================

// CheckResult 检查结果
type CheckResult struct {
	Allowed    bool          // 是否允许
	RetryAfter time.Duration // 剩余冷却时间
}

// Check 检查是否允许执行，允许时记录本次执行时间
// key: 限流键，如 "instance:3:order_import"
func (r *SyncRateLimiter) Check(key string, interval time.Duration) CheckResult {
	actual, _ := r.locks.LoadOrStore(key, &lockEntry{})
	entry := actual.(*lockEntry)

	entry.mu.Lock()
	defer entry.mu.Unlock()

	now := r.now()
	if !entry.lastTime.IsZero() {
		if elapsed := now.Sub(entry.lastTime); elapsed < interval {
			return CheckResult{Allowed: false, RetryAfter: interval - elapsed}
		}
	}

	entry.lastTime = now
	return CheckResult{Allowed: true}
}

// Reset 重置指定 key 的限流
func (r *SyncRateLimiter) Reset(key string) {
	r.locks.Delete(key)
}

// ==================== Key 生成工具 ====================

// SyncType 同步类型
type SyncType string

const (
	SyncTypeProductExport  SyncType = "product_export"
	SyncTypeProductImport  SyncType = "product_import"
	SyncTypeCustomerImport SyncType = "customer_import"
	SyncTypeCustomerExport SyncType = "customer_export"
	SyncTypeOrderImport    SyncType = "order_import"
)

// InstanceSyncKey 店铺级同步 Key
func InstanceSyncKey(instanceID int64, syncType SyncType) string {
	return fmt.Sprintf("instance:%d:%s", instanceID, syncType)
}

// GlobalSyncKey 全局同步 Key
func GlobalSyncKey(syncType SyncType) string {
	return fmt.Sprintf("global:%s", syncType)
}
