package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"shopify_split_v1_202610/internal/model"
)

// ==================== 接口定义 ====================

// SaleOrderRepository 销售订单仓储接口
type SaleOrderRepository interface {
	Create(ctx context.Context, order *model.SaleOrder) error
	GetByID(ctx context.Context, id int64) (*model.SaleOrder, error)
	FindByShopifyOrderID(ctx context.Context, shopifyOrderID int64) (*model.SaleOrder, error)
	UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) error
	List(ctx context.Context, filter SaleOrderFilter) ([]model.SaleOrder, int64, error)

	// ReplaceLines 删除旧订单行并写入新订单行
	ReplaceLines(ctx context.Context, orderID int64, lines []model.SaleOrderLine) error

	FindOrCreateCarrier(ctx context.Context, name string, instanceID int64) (*model.DeliveryCarrier, error)

	WithTx(tx *gorm.DB) SaleOrderRepository
	Transaction(ctx context.Context, fn func(txRepo SaleOrderRepository) error) error
}

// SaleOrderFilter 订单过滤条件
type SaleOrderFilter struct {
	InstanceID int64 // 0 表示不筛选
	State      string
	Page       int
	PageSize   int
}

// ==================== 仓储实现 ====================

type saleOrderRepo struct {
	db *gorm.DB
}

// NewSaleOrderRepository 创建订单仓储
func NewSaleOrderRepository(db *gorm.DB) SaleOrderRepository {
	return &saleOrderRepo{db: db}
}

func (r *saleOrderRepo) Create(ctx context.Context, order *model.SaleOrder) error {
	return r.db.WithContext(ctx).Omit("Partner", "Lines").Create(order).Error
}

func (r *saleOrderRepo) GetByID(ctx context.Context, id int64) (*model.SaleOrder, error) {
	var order model.SaleOrder
	err := r.db.WithContext(ctx).
		Preload("Partner").
		Preload("Lines", func(db *gorm.DB) *gorm.DB {
			return db.Order("id ASC")
		}).
		First(&order, id).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *saleOrderRepo) FindByShopifyOrderID(ctx context.Context, shopifyOrderID int64) (*model.SaleOrder, error) {
	var list []model.SaleOrder
	err := r.db.WithContext(ctx).
		Where("shopify_order_id = ?", shopifyOrderID).
		Limit(1).Find(&list).Error
	if err != nil || len(list) == 0 {
		return nil, err
	}
	return &list[0], nil
}

func (r *saleOrderRepo) UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&model.SaleOrder{}).Where("id = ?", id).Updates(fields).Error
}

func (r *saleOrderRepo) List(ctx context.Context, filter SaleOrderFilter) ([]model.SaleOrder, int64, error) {
	var list []model.SaleOrder
	var total int64

	query := r.db.WithContext(ctx).Model(&model.SaleOrder{})
	if filter.InstanceID > 0 {
		query = query.Where("instance_id = ?", filter.InstanceID)
	}
	if filter.State != "" {
		query = query.Where("state = ?", filter.State)
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
	err := query.Order("date_order DESC, id DESC").
		Offset((filter.Page - 1) * filter.PageSize).
		Limit(filter.PageSize).
		Find(&list).Error
	return list, total, err
}

func (r *saleOrderRepo) ReplaceLines(ctx context.Context, orderID int64, lines []model.SaleOrderLine) error {
	db := r.db.WithContext(ctx)
	if err := db.Unscoped().Where("order_id = ?", orderID).Delete(&model.SaleOrderLine{}).Error; err != nil {
		return err
	}
	if len(lines) == 0 {
		return nil
	}
	for i := range lines {
		lines[i].OrderID = orderID
	}
	return db.Create(&lines).Error
}

func (r *saleOrderRepo) FindOrCreateCarrier(ctx context.Context, name string, instanceID int64) (*model.DeliveryCarrier, error) {
	var carrier model.DeliveryCarrier
	err := r.db.WithContext(ctx).
		Where(model.DeliveryCarrier{Name: strings.TrimSpace(name)}).
		Attrs(model.DeliveryCarrier{InstanceID: instanceID, IsShopify: true}).
		FirstOrCreate(&carrier).Error
	if err != nil {
		return nil, err
	}
	return &carrier, nil
}

func (r *saleOrderRepo) WithTx(tx *gorm.DB) SaleOrderRepository {
	return &saleOrderRepo{db: tx}
}

func (r *saleOrderRepo) Transaction(ctx context.Context, fn func(txRepo SaleOrderRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(r.WithTx(tx))
	})
}
