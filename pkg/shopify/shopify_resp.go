package shopify

// ==========================================
// 单资源包装与分页列表响应
// ==========================================

// ProductEnvelope {"product": {...}}
type ProductEnvelope struct {
	Product *Product `json:"product"`
}

// VariantEnvelope {"variant": {...}}
type VariantEnvelope struct {
	Variant *Variant `json:"variant"`
}

// CustomerEnvelope {"customer": {...}}
type CustomerEnvelope struct {
	Customer *Customer `json:"customer"`
}

// PageInfo 部分接口在响应体中返回分页游标
type PageInfo struct {
	HasNextPage bool   `json:"has_next_page"`
	NextPage    string `json:"next_page"`
}

// ProductListResp GET /products.json
type ProductListResp struct {
	Products []Product `json:"products"`
	PageInfo *PageInfo `json:"page_info,omitempty"`
}

// CustomerListResp GET /customers.json
type CustomerListResp struct {
	Customers []Customer `json:"customers"`
	PageInfo  *PageInfo  `json:"page_info,omitempty"`
}

// OrderListResp GET /orders.json
type OrderListResp struct {
	Orders   []Order   `json:"orders"`
	PageInfo *PageInfo `json:"page_info,omitempty"`
}

// DraftOrderListResp GET /draft_orders.json
type DraftOrderListResp struct {
	DraftOrders []Order   `json:"draft_orders"`
	PageInfo    *PageInfo `json:"page_info,omitempty"`
}
