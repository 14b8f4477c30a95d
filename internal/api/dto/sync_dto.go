package dto

import "time"

// ================== Sync DTO ==================

// ExportReq 导出请求，instance_ids 为空表示全部启用店铺
type ExportReq struct {
	InstanceIDs []int64 `json:"instance_ids" binding:"omitempty,dive,gt=0"`
	Update      bool    `json:"update"`
}

// ImportReq 导入请求
// from_date 为空时使用店铺水位线；to_date 非空时不推进水位线
type ImportReq struct {
	InstanceIDs  []int64    `json:"instance_ids" binding:"omitempty,dive,gt=0"`
	SkipExisting bool       `json:"skip_existing"`
	FromDate     *time.Time `json:"from_date"`
	ToDate       *time.Time `json:"to_date"`
}

// SyncResp 同步结果：本次涉及的本地记录 ID
type SyncResp struct {
	Op  string  `json:"op"`
	IDs []int64 `json:"ids"`
}

// ListReq 通用分页请求
type ListReq struct {
	Page       int    `form:"page,default=1"`
	PageSize   int    `form:"page_size,default=20"`
	InstanceID int64  `form:"instance_id"`
	Keyword    string `form:"keyword"`
	State      string `form:"state"`
}
