package model

// Partner 客户
type Partner struct {
	BaseModel
	Name         string `gorm:"size:255;not null" json:"name"`
	Email        string `gorm:"size:255;index" json:"email"`
	Vat          string `gorm:"size:64;index" json:"vat"`
	Phone        string `gorm:"size:64;index" json:"phone"`
	Street       string `gorm:"size:255" json:"street"`
	City         string `gorm:"size:100" json:"city"`
	Zip          string `gorm:"size:20" json:"zip"`
	CountryCode  string `gorm:"size:5" json:"country_code"`
	Ref          string `gorm:"size:64;index" json:"ref"`
	CustomerRank int    `gorm:"default:0" json:"customer_rank"`

	// Shopify 标识
	ShopifyCustomerID int64  `gorm:"index;default:0" json:"shopify_customer_id"`
	ShopifyInstanceID *int64 `gorm:"index" json:"shopify_instance_id"`
	IsShopifyCustomer bool   `gorm:"default:false" json:"is_shopify_customer"`
	IsExported        bool   `gorm:"default:false" json:"is_exported"`
}

func (Partner) TableName() string {
	return "partners"
}
