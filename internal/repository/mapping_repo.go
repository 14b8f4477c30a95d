package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"shopify_split_v1_202610/internal/model"
)

// RemoteProductMappingRepository (模板, 颜色值) -> 远端商品 映射仓储
type RemoteProductMappingRepository interface {
	Find(ctx context.Context, templateID, attributeValueID int64) (*model.RemoteProductMapping, error)
	FindByShopifyProductID(ctx context.Context, shopifyProductID int64) (*model.RemoteProductMapping, error)
	ListByTemplate(ctx context.Context, templateID int64) ([]model.RemoteProductMapping, error)
	Upsert(ctx context.Context, m *model.RemoteProductMapping) error

	WithTx(tx *gorm.DB) RemoteProductMappingRepository
}

type mappingRepo struct {
	db *gorm.DB
}

// NewRemoteProductMappingRepository 创建映射仓储
func NewRemoteProductMappingRepository(db *gorm.DB) RemoteProductMappingRepository {
	return &mappingRepo{db: db}
}

func (r *mappingRepo) Find(ctx context.Context, templateID, attributeValueID int64) (*model.RemoteProductMapping, error) {
	var list []model.RemoteProductMapping
	err := r.db.WithContext(ctx).
		Where("template_id = ? AND attribute_value_id = ?", templateID, attributeValueID).
		Limit(1).Find(&list).Error
	if err != nil || len(list) == 0 {
		return nil, err
	}
	return &list[0], nil
}

func (r *mappingRepo) FindByShopifyProductID(ctx context.Context, shopifyProductID int64) (*model.RemoteProductMapping, error) {
	var list []model.RemoteProductMapping
	err := r.db.WithContext(ctx).
		Where("shopify_product_id = ?", shopifyProductID).
		Order("id ASC").Limit(1).Find(&list).Error
	if err != nil || len(list) == 0 {
		return nil, err
	}
	return &list[0], nil
}

func (r *mappingRepo) ListByTemplate(ctx context.Context, templateID int64) ([]model.RemoteProductMapping, error) {
	var list []model.RemoteProductMapping
	err := r.db.WithContext(ctx).Where("template_id = ?", templateID).Order("id ASC").Find(&list).Error
	return list, err
}

// Upsert 同一 (模板, 颜色值) 只保留一条，冲突时覆盖远端 ID
func (r *mappingRepo) Upsert(ctx context.Context, m *model.RemoteProductMapping) error {
	now := time.Now()
	if m.CreatedAt.IsZero() {
		m.CreatedAt = now
	}
	m.UpdatedAt = now
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "template_id"}, {Name: "attribute_value_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"template_value_id", "instance_id", "shopify_product_id", "updated_at",
		}),
	}).Create(m).Error
}

func (r *mappingRepo) WithTx(tx *gorm.DB) RemoteProductMappingRepository {
	return &mappingRepo{db: tx}
}
