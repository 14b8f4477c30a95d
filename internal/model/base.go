package model

import (
	"database/sql/driver"
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

type BaseModel struct {
	ID        int64          `gorm:"primary_key;AUTO_INCREMENT" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// StringArray Postgres 下落库为 text[]，其它方言 (测试用 sqlite) 退化为 text
type StringArray []string

func (a StringArray) Value() (driver.Value, error) {
	return pq.StringArray(a).Value()
}

func (a *StringArray) Scan(src interface{}) error {
	return (*pq.StringArray)(a).Scan(src)
}

func (StringArray) GormDataType() string {
	return "text[]"
}

func (StringArray) GormDBDataType(db *gorm.DB, _ *schema.Field) string {
	if db.Dialector.Name() == "postgres" {
		return "text[]"
	}
	return "text"
}

// AllModels 需要自动迁移的模型
func AllModels() []interface{} {
	return []interface{}{
		// Instance
		&StoreInstance{},
		// Catalog
		&ProductAttribute{}, &ProductAttributeValue{},
		&ProductTemplate{}, &AttributeLine{}, &TemplateAttributeValue{},
		&ProductVariant{}, &RemoteProductMapping{},
		// Partner
		&Partner{},
		// Sale
		&DeliveryCarrier{}, &SaleOrder{}, &SaleOrderLine{},
	}
}
