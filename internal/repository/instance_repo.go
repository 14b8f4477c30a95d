package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"shopify_split_v1_202610/internal/model"
)

// ==================== 接口定义 ====================

// WatermarkField 水位线字段
type WatermarkField string

const (
	WatermarkExportProduct  WatermarkField = "last_export_product"
	WatermarkExportCustomer WatermarkField = "last_export_customer"
	WatermarkExportStock    WatermarkField = "last_export_stock"
	WatermarkImportCustomer WatermarkField = "shopify_last_date_customer_import"
	WatermarkImportOrder    WatermarkField = "shopify_last_date_order_import"
)

// InstanceRepository 店铺实例仓储接口
type InstanceRepository interface {
	Create(ctx context.Context, instance *model.StoreInstance) error
	GetByID(ctx context.Context, id int64) (*model.StoreInstance, error)
	Update(ctx context.Context, instance *model.StoreInstance) error
	UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) error
	Delete(ctx context.Context, id int64) error

	List(ctx context.Context, filter InstanceFilter) ([]model.StoreInstance, int64, error)
	ListActive(ctx context.Context) ([]model.StoreInstance, error)
	ListByIDs(ctx context.Context, ids []int64) ([]model.StoreInstance, error)

	// AdvanceWatermark 只向前移动，at 不晚于当前值时不更新
	AdvanceWatermark(ctx context.Context, id int64, field WatermarkField, at time.Time) error
}

// ==================== 过滤条件 ====================

// InstanceFilter 店铺实例过滤条件
type InstanceFilter struct {
	Name     string
	Active   *bool // nil 表示不筛选
	Page     int
	PageSize int
}

// ==================== 仓储实现 ====================

type instanceRepo struct {
	db *gorm.DB
}

// NewInstanceRepository 创建店铺实例仓储
func NewInstanceRepository(db *gorm.DB) InstanceRepository {
	return &instanceRepo{db: db}
}

func (r *instanceRepo) Create(ctx context.Context, instance *model.StoreInstance) error {
	return r.db.WithContext(ctx).Create(instance).Error
}

func (r *instanceRepo) GetByID(ctx context.Context, id int64) (*model.StoreInstance, error) {
	var instance model.StoreInstance
	if err := r.db.WithContext(ctx).First(&instance, id).Error; err != nil {
		return nil, err
	}
	return &instance, nil
}

func (r *instanceRepo) Update(ctx context.Context, instance *model.StoreInstance) error {
	return r.db.WithContext(ctx).Save(instance).Error
}

func (r *instanceRepo) UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&model.StoreInstance{}).Where("id = ?", id).Updates(fields).Error
}

func (r *instanceRepo) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&model.StoreInstance{}, id).Error
}

func (r *instanceRepo) List(ctx context.Context, filter InstanceFilter) ([]model.StoreInstance, int64, error) {
	var instances []model.StoreInstance
	var total int64

	query := r.db.WithContext(ctx).Model(&model.StoreInstance{})
	if filter.Name != "" {
		query = query.Where("name LIKE ?", "%"+filter.Name+"%")
	}
	if filter.Active != nil {
		query = query.Where("active = ?", *filter.Active)
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

	err := query.Order("id ASC").Offset(offset).Limit(filter.PageSize).Find(&instances).Error
	return instances, total, err
}

func (r *instanceRepo) ListActive(ctx context.Context) ([]model.StoreInstance, error) {
	var instances []model.StoreInstance
	err := r.db.WithContext(ctx).Where("active = ?", true).Order("id ASC").Find(&instances).Error
	return instances, err
}

func (r *instanceRepo) ListByIDs(ctx context.Context, ids []int64) ([]model.StoreInstance, error) {
	var instances []model.StoreInstance
	if len(ids) == 0 {
		return instances, nil
	}
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Order("id ASC").Find(&instances).Error
	return instances, err
}

func (r *instanceRepo) AdvanceWatermark(ctx context.Context, id int64, field WatermarkField, at time.Time) error {
	switch field {
	case WatermarkExportProduct, WatermarkExportCustomer, WatermarkExportStock,
		WatermarkImportCustomer, WatermarkImportOrder:
	default:
		return fmt.Errorf("未知的水位线字段: %s", field)
	}

	col := string(field)
	return r.db.WithContext(ctx).
		Model(&model.StoreInstance{}).
		Where("id = ?", id).
		Where("("+col+" IS NULL OR "+col+" < ?)", at).
		UpdateColumn(col, at).Error
}
