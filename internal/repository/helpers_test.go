package repository

import (
	"testing"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"shopify_split_v1_202610/internal/model"
)

// ==================== 测试辅助 ====================

func setupRepoTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("连接测试数据库失败: %v", err)
	}
	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(model.AllModels()...); err != nil {
		t.Fatalf("建表失败: %v", err)
	}
	return db
}

// seedShirt 模板 Shirt: Color{Red, Blue} x Size{S, M}
func seedShirt(t *testing.T, db *gorm.DB, published bool) *model.ProductTemplate {
	t.Helper()

	color := model.ProductAttribute{Name: "Color"}
	size := model.ProductAttribute{Name: "Size"}
	db.FirstOrCreate(&color, model.ProductAttribute{Name: "Color"})
	db.FirstOrCreate(&size, model.ProductAttribute{Name: "Size"})

	tmpl := model.ProductTemplate{Name: "Shirt", IsPublished: published, ListPrice: decimal.NewFromInt(20)}
	if err := db.Create(&tmpl).Error; err != nil {
		t.Fatalf("创建模板失败: %v", err)
	}

	values := map[string]*model.TemplateAttributeValue{}
	for seq, al := range []struct {
		attr  model.ProductAttribute
		names []string
	}{{color, []string{"Red", "Blue"}}, {size, []string{"S", "M"}}} {
		line := model.AttributeLine{TemplateID: tmpl.ID, AttributeID: al.attr.ID, Sequence: seq + 1}
		db.Omit("Attribute", "Values").Create(&line)
		for _, name := range al.names {
			av := model.ProductAttributeValue{AttributeID: al.attr.ID, Name: name}
			db.FirstOrCreate(&av, model.ProductAttributeValue{AttributeID: al.attr.ID, Name: name})
			tv := model.TemplateAttributeValue{
				TemplateID: tmpl.ID, LineID: line.ID, AttributeID: al.attr.ID, AttributeValueID: av.ID,
			}
			db.Omit("Attribute", "AttributeValue").Create(&tv)
			values[name] = &tv
		}
	}

	for _, v := range []struct{ sku, c, s string }{
		{"SH-R-S", "Red", "S"}, {"SH-R-M", "Red", "M"}, {"SH-B-S", "Blue", "S"}, {"", "Blue", "M"},
	} {
		variant := model.ProductVariant{
			TemplateID:  tmpl.ID,
			DefaultCode: v.sku,
			ListPrice:   decimal.NewFromInt(20),
			Values:      []model.TemplateAttributeValue{*values[v.c], *values[v.s]},
		}
		if err := db.Omit("Values.*").Create(&variant).Error; err != nil {
			t.Fatalf("创建变体失败: %v", err)
		}
	}
	return &tmpl
}
