package dto

import "time"

// ================== Store Instance DTO ==================

// InstanceListReq 店铺列表请求
type InstanceListReq struct {
	Page     int    `form:"page,default=1"`
	PageSize int    `form:"page_size,default=20"`
	Name     string `form:"name"`
	Active   *bool  `form:"active"`
}

// InstanceCreateReq 新建店铺连接
// 颜色与尺码槽位必须在 1-3 且互不相同
type InstanceCreateReq struct {
	Name                 string `json:"name" binding:"required,max=100"`
	ShopifyHost          string `json:"shopify_host" binding:"required,max=255"`
	ShopifyVersion       string `json:"shopify_version" binding:"omitempty,max=20"`
	ShopifySharedSecret  string `json:"shopify_shared_secret" binding:"required"`
	Active               bool   `json:"active"`
	SplitProductsByColor bool   `json:"split_products_by_color"`
	ColorOptionPosition  int    `json:"color_option_position" binding:"omitempty,min=1,max=3"`
	SizeOptionPosition   int    `json:"size_option_position" binding:"omitempty,min=1,max=3"`
}

// InstanceUpdateReq 更新店铺连接，只修改非空字段
type InstanceUpdateReq struct {
	Name                 *string `json:"name" binding:"omitempty,max=100"`
	ShopifyHost          *string `json:"shopify_host" binding:"omitempty,max=255"`
	ShopifyVersion       *string `json:"shopify_version" binding:"omitempty,max=20"`
	ShopifySharedSecret  *string `json:"shopify_shared_secret"`
	Active               *bool   `json:"active"`
	SplitProductsByColor *bool   `json:"split_products_by_color"`
	ColorOptionPosition  *int    `json:"color_option_position" binding:"omitempty,min=1,max=3"`
	SizeOptionPosition   *int    `json:"size_option_position" binding:"omitempty,min=1,max=3"`
}

// InstanceResp 店铺响应 (不返回 access token)
type InstanceResp struct {
	ID                   int64      `json:"id"`
	Name                 string     `json:"name"`
	ShopifyHost          string     `json:"shopify_host"`
	ShopifyVersion       string     `json:"shopify_version"`
	HasAccessToken       bool       `json:"has_access_token"`
	Active               bool       `json:"active"`
	SplitProductsByColor bool       `json:"split_products_by_color"`
	ColorOptionPosition  int        `json:"color_option_position"`
	SizeOptionPosition   int        `json:"size_option_position"`
	LastExportProduct    *time.Time `json:"last_export_product"`
	LastExportCustomer   *time.Time `json:"last_export_customer"`
	LastCustomerImport   *time.Time `json:"shopify_last_date_customer_import"`
	LastOrderImport      *time.Time `json:"shopify_last_date_order_import"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}

// InstanceListResp 店铺列表响应
type InstanceListResp struct {
	List     []InstanceResp `json:"list"`
	Total    int64          `json:"total"`
	Page     int            `json:"page"`
	PageSize int            `json:"page_size"`
}
