package repository

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"shopify_split_v1_202610/internal/model"
)

// ==================== 接口定义 ====================

// ProductRepository 商品目录仓储接口 (模板/属性/变体)
type ProductRepository interface {
	// 模板
	CreateTemplate(ctx context.Context, tmpl *model.ProductTemplate) error
	GetTemplate(ctx context.Context, id int64) (*model.ProductTemplate, error)
	FindTemplateByShopifyProductID(ctx context.Context, shopifyProductID int64) (*model.ProductTemplate, error)
	UpdateTemplateFields(ctx context.Context, id int64, fields map[string]interface{}) error
	ListTemplates(ctx context.Context, filter TemplateFilter) ([]model.ProductTemplate, int64, error)

	// ListExportCandidates 导出增量集合，结果已预加载属性线与变体
	ListExportCandidates(ctx context.Context, filter ExportFilter) ([]model.ProductTemplate, error)
	// MarkTemplateExported 写回同步标记，不改动 updated_at
	MarkTemplateExported(ctx context.Context, templateID, instanceID, shopifyProductID int64) error

	// 属性
	FindOrCreateAttribute(ctx context.Context, name string) (*model.ProductAttribute, error)
	FindOrCreateAttributeValue(ctx context.Context, attributeID int64, name string) (*model.ProductAttributeValue, error)
	CreateAttributeLine(ctx context.Context, line *model.AttributeLine) error
	CreateTemplateValue(ctx context.Context, v *model.TemplateAttributeValue) error

	// 变体
	CreateVariant(ctx context.Context, variant *model.ProductVariant) error
	GetVariant(ctx context.Context, id int64) (*model.ProductVariant, error)
	FindVariantByShopifyID(ctx context.Context, shopifyVariantID int64) (*model.ProductVariant, error)
	FindVariantBySKU(ctx context.Context, sku string) (*model.ProductVariant, error)
	FindVariantForRemote(ctx context.Context, shopifyVariantID int64, sku string) (*model.ProductVariant, error)
	ListVariantsByShopifyProductID(ctx context.Context, shopifyProductID int64) ([]model.ProductVariant, error)
	// UpdateVariantRemoteIDs 写回远端变体 ID 与库存 ID，不改动 updated_at
	UpdateVariantRemoteIDs(ctx context.Context, variantID, shopifyVariantID, inventoryItemID int64, barcode string) error

	// 事务
	WithTx(tx *gorm.DB) ProductRepository
	Transaction(ctx context.Context, fn func(txRepo ProductRepository) error) error
}

// ==================== 过滤条件 ====================

// ExportFilter 导出增量条件
// Since 为空：已发布且从未同步过的模板，按 (is_shopify_product, created_at) 升序
// Since 非空：已发布且 updated_at > Since 的模板，按 updated_at 升序
type ExportFilter struct {
	Since *time.Time
}

// TemplateFilter 模板列表条件
type TemplateFilter struct {
	Name             string
	IsPublished      *bool
	IsShopifyProduct *bool
	Page             int
	PageSize         int
}

// ==================== 仓储实现 ====================

type productRepo struct {
	db *gorm.DB
}

// NewProductRepository 创建商品仓储
func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepo{db: db}
}

// preloadCatalog 预加载导出所需的完整结构
func preloadCatalog(db *gorm.DB) *gorm.DB {
	return db.
		Preload("AttributeLines", func(db *gorm.DB) *gorm.DB {
			return db.Order("sequence ASC, id ASC")
		}).
		Preload("AttributeLines.Attribute").
		Preload("AttributeLines.Values", func(db *gorm.DB) *gorm.DB {
			return db.Order("id ASC")
		}).
		Preload("AttributeLines.Values.Attribute").
		Preload("AttributeLines.Values.AttributeValue").
		Preload("Variants", func(db *gorm.DB) *gorm.DB {
			return db.Order("id ASC")
		}).
		Preload("Variants.Values").
		Preload("Variants.Values.Attribute").
		Preload("Variants.Values.AttributeValue")
}

func (r *productRepo) CreateTemplate(ctx context.Context, tmpl *model.ProductTemplate) error {
	return r.db.WithContext(ctx).Omit("AttributeLines", "Variants").Create(tmpl).Error
}

func (r *productRepo) GetTemplate(ctx context.Context, id int64) (*model.ProductTemplate, error) {
	var tmpl model.ProductTemplate
	if err := preloadCatalog(r.db.WithContext(ctx)).First(&tmpl, id).Error; err != nil {
		return nil, err
	}
	return &tmpl, nil
}

func (r *productRepo) FindTemplateByShopifyProductID(ctx context.Context, shopifyProductID int64) (*model.ProductTemplate, error) {
	if shopifyProductID == 0 {
		return nil, nil
	}
	var list []model.ProductTemplate
	err := r.db.WithContext(ctx).
		Where("shopify_product_id = ?", shopifyProductID).
		Order("id ASC").Limit(1).Find(&list).Error
	if err != nil || len(list) == 0 {
		return nil, err
	}
	return &list[0], nil
}

func (r *productRepo) UpdateTemplateFields(ctx context.Context, id int64, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&model.ProductTemplate{}).Where("id = ?", id).Updates(fields).Error
}

func (r *productRepo) ListTemplates(ctx context.Context, filter TemplateFilter) ([]model.ProductTemplate, int64, error) {
	var list []model.ProductTemplate
	var total int64

	query := r.db.WithContext(ctx).Model(&model.ProductTemplate{})
	if filter.Name != "" {
		query = query.Where("name LIKE ?", "%"+filter.Name+"%")
	}
	if filter.IsPublished != nil {
		query = query.Where("is_published = ?", *filter.IsPublished)
	}
	if filter.IsShopifyProduct != nil {
		query = query.Where("is_shopify_product = ?", *filter.IsShopifyProduct)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	offset := (filter.Page - 1) * filter.PageSize

	err := query.Order("id DESC").Offset(offset).Limit(filter.PageSize).Find(&list).Error
	return list, total, err
}

func (r *productRepo) ListExportCandidates(ctx context.Context, filter ExportFilter) ([]model.ProductTemplate, error) {
	var list []model.ProductTemplate

	query := preloadCatalog(r.db.WithContext(ctx)).Where("is_published = ?", true)
	if filter.Since == nil {
		query = query.
			Where("is_shopify_product = ?", false).
			Order("is_shopify_product ASC, created_at ASC, id ASC")
	} else {
		query = query.
			Where("updated_at > ?", *filter.Since).
			Order("updated_at ASC, id ASC")
	}

	err := query.Find(&list).Error
	return list, err
}

func (r *productRepo) MarkTemplateExported(ctx context.Context, templateID, instanceID, shopifyProductID int64) error {
	fields := map[string]interface{}{
		"is_shopify_product":  true,
		"is_exported":         true,
		"shopify_instance_id": instanceID,
	}
	if shopifyProductID > 0 {
		fields["shopify_product_id"] = shopifyProductID
	}
	return r.db.WithContext(ctx).Model(&model.ProductTemplate{}).
		Where("id = ?", templateID).
		UpdateColumns(fields).Error
}

// ==================== 属性 ====================

func (r *productRepo) FindOrCreateAttribute(ctx context.Context, name string) (*model.ProductAttribute, error) {
	name = strings.TrimSpace(name)
	var attr model.ProductAttribute
	err := r.db.WithContext(ctx).
		Where(model.ProductAttribute{Name: name}).
		FirstOrCreate(&attr).Error
	if err != nil {
		return nil, err
	}
	return &attr, nil
}

func (r *productRepo) FindOrCreateAttributeValue(ctx context.Context, attributeID int64, name string) (*model.ProductAttributeValue, error) {
	name = strings.TrimSpace(name)
	var value model.ProductAttributeValue
	err := r.db.WithContext(ctx).
		Where(model.ProductAttributeValue{AttributeID: attributeID, Name: name}).
		FirstOrCreate(&value).Error
	if err != nil {
		return nil, err
	}
	return &value, nil
}

func (r *productRepo) CreateAttributeLine(ctx context.Context, line *model.AttributeLine) error {
	return r.db.WithContext(ctx).Omit("Attribute", "Values").Create(line).Error
}

func (r *productRepo) CreateTemplateValue(ctx context.Context, v *model.TemplateAttributeValue) error {
	return r.db.WithContext(ctx).Omit("Attribute", "AttributeValue").Create(v).Error
}

// ==================== 变体 ====================

// CreateVariant 只写入变体与属性值关联，不重复写入属性值本身
func (r *productRepo) CreateVariant(ctx context.Context, variant *model.ProductVariant) error {
	return r.db.WithContext(ctx).Omit("Values.*").Create(variant).Error
}

func (r *productRepo) GetVariant(ctx context.Context, id int64) (*model.ProductVariant, error) {
	var v model.ProductVariant
	err := r.db.WithContext(ctx).
		Preload("Values.Attribute").
		Preload("Values.AttributeValue").
		First(&v, id).Error
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *productRepo) findVariant(ctx context.Context, query string, args ...interface{}) (*model.ProductVariant, error) {
	var list []model.ProductVariant
	err := r.db.WithContext(ctx).
		Preload("Values.Attribute").
		Preload("Values.AttributeValue").
		Where(query, args...).
		Order("id ASC").Limit(1).Find(&list).Error
	if err != nil || len(list) == 0 {
		return nil, err
	}
	return &list[0], nil
}

func (r *productRepo) FindVariantByShopifyID(ctx context.Context, shopifyVariantID int64) (*model.ProductVariant, error) {
	if shopifyVariantID == 0 {
		return nil, nil
	}
	return r.findVariant(ctx, "shopify_variant_id = ?", shopifyVariantID)
}

func (r *productRepo) FindVariantBySKU(ctx context.Context, sku string) (*model.ProductVariant, error) {
	sku = strings.TrimSpace(sku)
	if sku == "" {
		return nil, nil
	}
	return r.findVariant(ctx, "default_code = ?", sku)
}

// FindVariantForRemote 按远端变体 ID 或 SKU 查找
func (r *productRepo) FindVariantForRemote(ctx context.Context, shopifyVariantID int64, sku string) (*model.ProductVariant, error) {
	sku = strings.TrimSpace(sku)
	switch {
	case shopifyVariantID != 0 && sku != "":
		return r.findVariant(ctx, "shopify_variant_id = ? OR default_code = ?", shopifyVariantID, sku)
	case shopifyVariantID != 0:
		return r.FindVariantByShopifyID(ctx, shopifyVariantID)
	default:
		return r.FindVariantBySKU(ctx, sku)
	}
}

// ListVariantsByShopifyProductID 远端商品对应的本地变体 (拆分映射优先，其次模板)
func (r *productRepo) ListVariantsByShopifyProductID(ctx context.Context, shopifyProductID int64) ([]model.ProductVariant, error) {
	var list []model.ProductVariant
	if shopifyProductID == 0 {
		return list, nil
	}

	db := r.db.WithContext(ctx)
	mapped := db.Model(&model.RemoteProductMapping{}).
		Select("template_value_id").
		Where("shopify_product_id = ?", shopifyProductID)
	err := db.
		Where("id IN (?)", db.Table("product_variant_attribute_values").
			Select("product_variant_id").
			Where("template_attribute_value_id IN (?)", mapped)).
		Order("id ASC").Find(&list).Error
	if err != nil {
		return nil, err
	}
	if len(list) > 0 {
		return list, nil
	}

	err = db.
		Where("template_id IN (?)", db.Model(&model.ProductTemplate{}).
			Select("id").
			Where("shopify_product_id = ?", shopifyProductID)).
		Order("id ASC").Find(&list).Error
	return list, err
}

func (r *productRepo) UpdateVariantRemoteIDs(ctx context.Context, variantID, shopifyVariantID, inventoryItemID int64, barcode string) error {
	fields := map[string]interface{}{
		"shopify_variant_id":        shopifyVariantID,
		"shopify_inventory_item_id": inventoryItemID,
		"is_shopify_variant":        true,
	}
	if barcode != "" {
		fields["shopify_barcode"] = barcode
	}
	return r.db.WithContext(ctx).Model(&model.ProductVariant{}).
		Where("id = ?", variantID).
		UpdateColumns(fields).Error
}

// ==================== 事务 ====================

func (r *productRepo) WithTx(tx *gorm.DB) ProductRepository {
	return &productRepo{db: tx}
}

func (r *productRepo) Transaction(ctx context.Context, fn func(txRepo ProductRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(r.WithTx(tx))
	})
}
