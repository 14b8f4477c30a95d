package model

import (
	"fmt"
	"time"
)

// StoreInstance Shopify 店铺连接配置
type StoreInstance struct {
	BaseModel

	// 1. 连接信息
	Name                string `gorm:"size:100;not null" json:"name"`
	ShopifyHost         string `gorm:"size:255;not null;uniqueIndex" json:"shopify_host"` // xxx.myshopify.com 的 xxx
	ShopifyVersion      string `gorm:"size:20;not null;default:'2024-01'" json:"shopify_version"`
	ShopifySharedSecret string `gorm:"size:255" json:"-"` // Admin API access token
	Active              bool   `gorm:"index" json:"active"`

	// 2. 按颜色拆分
	SplitProductsByColor bool `gorm:"default:false" json:"split_products_by_color"`
	ColorOptionPosition  int  `gorm:"default:1;comment:颜色所在选项槽位 1-3" json:"color_option_position"`
	SizeOptionPosition   int  `gorm:"default:2;comment:尺码所在选项槽位 1-3" json:"size_option_position"`

	// 3. 水位线 (只在整批成功后前移)
	LastExportProduct  *time.Time `gorm:"comment:最后商品导出时间" json:"last_export_product"`
	LastExportCustomer *time.Time `gorm:"comment:最后客户导出时间" json:"last_export_customer"`
	LastExportStock    *time.Time `gorm:"comment:最后库存导出时间" json:"last_export_stock"`
	LastCustomerImport *time.Time `gorm:"column:shopify_last_date_customer_import" json:"shopify_last_date_customer_import"`
	LastOrderImport    *time.Time `gorm:"column:shopify_last_date_order_import" json:"shopify_last_date_order_import"`
}

func (StoreInstance) TableName() string {
	return "store_instances"
}

// ValidateOptionPositions 槽位必须在 [1,3] 且互不相同
func (i *StoreInstance) ValidateOptionPositions() error {
	if i.ColorOptionPosition < 1 || i.ColorOptionPosition > 3 {
		return fmt.Errorf("color_option_position 必须在 1-3 之间, 当前 %d", i.ColorOptionPosition)
	}
	if i.SizeOptionPosition < 1 || i.SizeOptionPosition > 3 {
		return fmt.Errorf("size_option_position 必须在 1-3 之间, 当前 %d", i.SizeOptionPosition)
	}
	if i.ColorOptionPosition == i.SizeOptionPosition {
		return fmt.Errorf("颜色与尺码不能使用同一选项槽位 %d", i.ColorOptionPosition)
	}
	return nil
}
