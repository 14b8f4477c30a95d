package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// SaleOrder 状态
const (
	SaleOrderStateDraft  = "draft"
	SaleOrderStateSale   = "sale"
	SaleOrderStateCancel = "cancel"
)

// ==================== SaleOrder 销售订单 ====================

type SaleOrder struct {
	BaseModel
	Name       string    `gorm:"size:64;index" json:"name"`
	PartnerID  int64     `gorm:"index;not null" json:"partner_id"`
	Partner    *Partner  `gorm:"foreignKey:PartnerID" json:"partner,omitempty"`
	InstanceID int64     `gorm:"index" json:"instance_id"`
	State      string    `gorm:"size:20;index;default:draft" json:"state"`
	DateOrder  time.Time `json:"date_order"`

	// Shopify 信息
	ShopifyOrderID       int64           `gorm:"uniqueIndex;not null" json:"shopify_order_id"`
	ShopifyOrderNumber   int64           `json:"shopify_order_number"`
	ShopifyOrderStatus   string          `gorm:"size:32" json:"shopify_order_status"`
	ShopifyOrderTotal    decimal.Decimal `gorm:"type:decimal(12,2);default:0" json:"shopify_order_total"`
	ShopifyLinkedOrderID int64           `gorm:"default:0;comment:草稿完成后生成的订单ID" json:"shopify_linked_order_id"`
	IsShopifyOrder       bool            `gorm:"default:false" json:"is_shopify_order"`
	IsDraftOrder         bool            `gorm:"default:false" json:"is_draft_order"`

	// 原始数据
	RemoteRawData datatypes.JSON `json:"-"`

	Lines []SaleOrderLine `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"lines,omitempty"`
}

func (SaleOrder) TableName() string {
	return "sale_orders"
}

// ==================== SaleOrderLine 订单行 ====================

type SaleOrderLine struct {
	BaseModel
	OrderID    int64           `gorm:"index;not null" json:"order_id"`
	VariantID  *int64          `gorm:"index" json:"variant_id"`
	CarrierID  *int64          `gorm:"index" json:"carrier_id"`
	Name       string          `gorm:"size:255" json:"name"`
	Quantity   int             `gorm:"default:1" json:"quantity"`
	PriceUnit  decimal.Decimal `gorm:"type:decimal(12,2);default:0;comment:不含税单价" json:"price_unit"`
	Discount   decimal.Decimal `gorm:"type:decimal(8,4);default:0;comment:折扣百分比" json:"discount"`
	TaxRate    decimal.Decimal `gorm:"type:decimal(8,4);default:0;comment:税率合计" json:"tax_rate"`
	TaxTitles  StringArray     `json:"tax_titles"`
	IsDelivery bool            `gorm:"default:false" json:"is_delivery"`
}

func (SaleOrderLine) TableName() string {
	return "sale_order_lines"
}

// ==================== DeliveryCarrier 承运商 ====================

// DeliveryCarrier 以 Shopify 运费标题为键，首次出现时创建
type DeliveryCarrier struct {
	BaseModel
	Name       string `gorm:"size:255;not null;uniqueIndex" json:"name"`
	InstanceID int64  `gorm:"index" json:"instance_id"`
	IsShopify  bool   `gorm:"default:false" json:"is_shopify"`
}

func (DeliveryCarrier) TableName() string {
	return "delivery_carriers"
}
