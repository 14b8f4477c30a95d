package model

import "time"

// RemoteProductMapping (模板, 颜色属性值) -> 远端商品 ID
// 同一全局颜色在不同模板下对应不同的远端商品
type RemoteProductMapping struct {
	ID               int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	TemplateID       int64     `gorm:"not null;uniqueIndex:idx_remote_map_tmpl_value" json:"template_id"`
	AttributeValueID int64     `gorm:"not null;uniqueIndex:idx_remote_map_tmpl_value" json:"attribute_value_id"`
	TemplateValueID  int64     `gorm:"index;not null" json:"template_value_id"`
	InstanceID       int64     `gorm:"index" json:"instance_id"`
	ShopifyProductID int64     `gorm:"index;not null" json:"shopify_product_id"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func (RemoteProductMapping) TableName() string {
	return "shopify_remote_product_mappings"
}
