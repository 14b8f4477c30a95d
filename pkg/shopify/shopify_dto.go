package shopify

import (
	"time"

	"github.com/shopspring/decimal"
)

// ==========================================
// DTO: Shopify REST Admin API 资源结构
// 同一结构同时用于请求体与响应体，写入时依赖 omitempty 控制字段
// ==========================================

// 商品状态
const (
	ProductStatusActive = "active"
	ProductStatusDraft  = "draft"
)

// InventoryManagementShopify 由 Shopify 托管库存
const InventoryManagementShopify = "shopify"

// Product 商品
// POST /products.json, PUT /products/{id}.json
type Product struct {
	ID        int64      `json:"id,omitempty"`
	Title     string     `json:"title,omitempty"`
	BodyHTML  string     `json:"body_html"`
	Vendor    string     `json:"vendor,omitempty"`
	Tags      string     `json:"tags"`
	Status    string     `json:"status,omitempty"`
	Options   []Option   `json:"options,omitempty"`
	Variants  []Variant  `json:"variants,omitempty"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// Option 商品选项 (最多 3 个)
type Option struct {
	Name     string   `json:"name"`
	Position int      `json:"position"`
	Values   []string `json:"values"`
}

// Variant 商品变体
// PUT /variants/{id}.json, POST /products/{id}/variants.json
type Variant struct {
	ID                  int64  `json:"id,omitempty"`
	ProductID           int64  `json:"product_id,omitempty"`
	Title               string `json:"title,omitempty"`
	Price               string `json:"price,omitempty"`
	SKU                 string `json:"sku"`
	Barcode             string `json:"barcode"`
	InventoryManagement string `json:"inventory_management,omitempty"`
	InventoryItemID     int64  `json:"inventory_item_id,omitempty"`
	Option1             string `json:"option1,omitempty"`
	Option2             string `json:"option2,omitempty"`
	Option3             string `json:"option3,omitempty"`
}

// SetOption 按槽位 (1..3) 写入选项值，越界忽略
func (v *Variant) SetOption(position int, value string) {
	switch position {
	case 1:
		v.Option1 = value
	case 2:
		v.Option2 = value
	case 3:
		v.Option3 = value
	}
}

// OptionAt 读取槽位 (1..3) 的选项值
func (v *Variant) OptionAt(position int) string {
	switch position {
	case 1:
		return v.Option1
	case 2:
		return v.Option2
	case 3:
		return v.Option3
	}
	return ""
}

// Customer 客户
type Customer struct {
	ID             int64      `json:"id,omitempty"`
	Email          string     `json:"email,omitempty"`
	FirstName      string     `json:"first_name,omitempty"`
	LastName       string     `json:"last_name,omitempty"`
	Phone          string     `json:"phone,omitempty"`
	Vat            string     `json:"vat,omitempty"`
	Note           string     `json:"note,omitempty"`
	Tags           string     `json:"tags,omitempty"`
	DefaultAddress *Address   `json:"default_address,omitempty"`
	Addresses      []Address  `json:"addresses,omitempty"`
	CreatedAt      *time.Time `json:"created_at,omitempty"`
	UpdatedAt      *time.Time `json:"updated_at,omitempty"`
}

// Address 客户地址
type Address struct {
	Address1    string `json:"address1,omitempty"`
	Address2    string `json:"address2,omitempty"`
	City        string `json:"city,omitempty"`
	Zip         string `json:"zip,omitempty"`
	Province    string `json:"province,omitempty"`
	CountryCode string `json:"country_code,omitempty"`
	Company     string `json:"company,omitempty"`
	Phone       string `json:"phone,omitempty"`
}

// Order 订单 / 草稿订单
// 草稿订单使用 shipping_line (单个) 与 applied_discount，普通订单使用 shipping_lines
type Order struct {
	ID              int64            `json:"id"`
	Name            string           `json:"name"`
	OrderNumber     int64            `json:"order_number"`
	OrderID         int64            `json:"order_id"`
	Email           string           `json:"email"`
	Status          string           `json:"status"`
	FinancialStatus string           `json:"financial_status"`
	Currency        string           `json:"currency"`
	TotalPrice      decimal.Decimal  `json:"total_price"`
	SubtotalPrice   decimal.Decimal  `json:"subtotal_price"`
	TotalTax        decimal.Decimal  `json:"total_tax"`
	CreatedAt       time.Time        `json:"created_at"`
	Customer        *Customer        `json:"customer"`
	LineItems       []LineItem       `json:"line_items"`
	ShippingLines   []ShippingLine   `json:"shipping_lines"`
	ShippingLine    *ShippingLine    `json:"shipping_line"`
	AppliedDiscount *AppliedDiscount `json:"applied_discount"`
}

// AllShippingLines 合并两种运费字段
func (o *Order) AllShippingLines() []ShippingLine {
	lines := make([]ShippingLine, 0, len(o.ShippingLines)+1)
	lines = append(lines, o.ShippingLines...)
	if o.ShippingLine != nil {
		lines = append(lines, *o.ShippingLine)
	}
	return lines
}

// LineItem 订单行
type LineItem struct {
	ID            int64           `json:"id"`
	ProductID     int64           `json:"product_id"`
	VariantID     int64           `json:"variant_id"`
	Title         string          `json:"title"`
	VariantTitle  string          `json:"variant_title"`
	SKU           string          `json:"sku"`
	Quantity      int             `json:"quantity"`
	Price         decimal.Decimal `json:"price"`
	TotalDiscount decimal.Decimal `json:"total_discount"`
	TaxLines      []TaxLine       `json:"tax_lines"`
}

// TaxLine 税行
type TaxLine struct {
	Title string          `json:"title"`
	Price decimal.Decimal `json:"price"`
	Rate  decimal.Decimal `json:"rate"`
}

// ShippingLine 运费行
type ShippingLine struct {
	Title    string          `json:"title"`
	Code     string          `json:"code"`
	Price    decimal.Decimal `json:"price"`
	TaxLines []TaxLine       `json:"tax_lines"`
}

// AppliedDiscount 订单级折扣
type AppliedDiscount struct {
	Title     string          `json:"title"`
	Amount    decimal.Decimal `json:"amount"`
	Value     decimal.Decimal `json:"value"`
	ValueType string          `json:"value_type"`
}
