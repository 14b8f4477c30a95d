package model

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ==================== 属性 ====================

// ProductAttribute 全局属性，如 Color、Size
type ProductAttribute struct {
	BaseModel
	Name   string                  `gorm:"size:100;not null;uniqueIndex" json:"name"`
	Values []ProductAttributeValue `gorm:"foreignKey:AttributeID" json:"values,omitempty"`
}

func (ProductAttribute) TableName() string {
	return "product_attributes"
}

// IsColor 属性名不区分大小写等于 color
func (a *ProductAttribute) IsColor() bool {
	return a != nil && strings.EqualFold(strings.TrimSpace(a.Name), "color")
}

// ProductAttributeValue 全局属性值，可被多个模板复用
type ProductAttributeValue struct {
	BaseModel
	AttributeID int64  `gorm:"not null;uniqueIndex:idx_attr_value_name" json:"attribute_id"`
	Name        string `gorm:"size:100;not null;uniqueIndex:idx_attr_value_name" json:"name"`
	Sequence    int    `gorm:"default:10" json:"sequence"`
}

func (ProductAttributeValue) TableName() string {
	return "product_attribute_values"
}

// ==================== 模板 ====================

// ProductTemplate 商品模板，一个模板对应 N 个变体
type ProductTemplate struct {
	BaseModel
	Name        string          `gorm:"size:255;not null" json:"name"`
	Description string          `gorm:"type:text" json:"description"`
	Tags        StringArray     `json:"tags"`
	ListPrice   decimal.Decimal `gorm:"type:decimal(12,2);default:0" json:"list_price"`

	// 同步标记 (按模板记录，多店铺时以最后一次为准)
	IsPublished       bool   `gorm:"index;default:false" json:"is_published"`
	IsShopifyProduct  bool   `gorm:"index;default:false" json:"is_shopify_product"`
	IsExported        bool   `gorm:"default:false" json:"is_exported"`
	ShopifyInstanceID *int64 `gorm:"index" json:"shopify_instance_id"`
	ShopifyProductID  int64  `gorm:"index;default:0;comment:不拆分时的远端商品ID" json:"shopify_product_id"`

	AttributeLines []AttributeLine  `gorm:"foreignKey:TemplateID" json:"attribute_lines,omitempty"`
	Variants       []ProductVariant `gorm:"foreignKey:TemplateID" json:"variants,omitempty"`
}

func (ProductTemplate) TableName() string {
	return "product_templates"
}

// AttributeLine 模板上的一条属性线，如 Color: {Red, Blue}
type AttributeLine struct {
	BaseModel
	TemplateID  int64                    `gorm:"index;not null" json:"template_id"`
	AttributeID int64                    `gorm:"index;not null" json:"attribute_id"`
	Attribute   *ProductAttribute        `gorm:"foreignKey:AttributeID" json:"attribute,omitempty"`
	Sequence    int                      `gorm:"default:10" json:"sequence"`
	Values      []TemplateAttributeValue `gorm:"foreignKey:LineID" json:"values,omitempty"`
}

func (AttributeLine) TableName() string {
	return "product_attribute_lines"
}

// TemplateAttributeValue 属性值在某个模板内的实例
// 拆分导出时远端商品 ID 挂在它上面 (经 RemoteProductMapping)，而不是全局属性值
type TemplateAttributeValue struct {
	BaseModel
	TemplateID       int64                  `gorm:"not null;uniqueIndex:idx_tmpl_attr_value" json:"template_id"`
	LineID           int64                  `gorm:"index;not null" json:"line_id"`
	AttributeID      int64                  `gorm:"index;not null" json:"attribute_id"`
	AttributeValueID int64                  `gorm:"not null;uniqueIndex:idx_tmpl_attr_value" json:"attribute_value_id"`
	Attribute        *ProductAttribute      `gorm:"foreignKey:AttributeID" json:"attribute,omitempty"`
	AttributeValue   *ProductAttributeValue `gorm:"foreignKey:AttributeValueID" json:"attribute_value,omitempty"`
}

func (TemplateAttributeValue) TableName() string {
	return "product_template_attribute_values"
}

// Name 属性值名称
func (v *TemplateAttributeValue) Name() string {
	if v.AttributeValue == nil {
		return ""
	}
	return v.AttributeValue.Name
}

// IsColor 是否颜色属性
func (v *TemplateAttributeValue) IsColor() bool {
	return v.Attribute.IsColor()
}

// ==================== 变体 ====================

// ProductVariant 具体 SKU
type ProductVariant struct {
	BaseModel
	TemplateID  int64           `gorm:"index;not null" json:"template_id"`
	DefaultCode string          `gorm:"size:100;index" json:"default_code"` // SKU，与远端对账的键
	Barcode     string          `gorm:"size:100" json:"barcode"`
	ListPrice   decimal.Decimal `gorm:"type:decimal(12,2);default:0" json:"list_price"`

	// Shopify 标识
	ShopifyVariantID       int64  `gorm:"index;default:0" json:"shopify_variant_id"`
	ShopifyInventoryItemID int64  `gorm:"default:0" json:"shopify_inventory_item_id"`
	ShopifyBarcode         string `gorm:"size:100" json:"shopify_barcode"`
	IsShopifyVariant       bool   `gorm:"default:false" json:"is_shopify_variant"`

	Values []TemplateAttributeValue `gorm:"many2many:product_variant_attribute_values;" json:"values,omitempty"`
}

func (ProductVariant) TableName() string {
	return "product_variants"
}

// HasSKU 只有带 SKU 的变体可以导出
func (v *ProductVariant) HasSKU() bool {
	return strings.TrimSpace(v.DefaultCode) != ""
}

// HasValue 变体是否包含指定的模板属性值
func (v *ProductVariant) HasValue(templateValueID int64) bool {
	for i := range v.Values {
		if v.Values[i].ID == templateValueID {
			return true
		}
	}
	return false
}
