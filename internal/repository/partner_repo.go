package repository

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"shopify_split_v1_202610/internal/model"
)

// ==================== 接口定义 ====================

// PartnerRepository 客户仓储接口
type PartnerRepository interface {
	Create(ctx context.Context, partner *model.Partner) error
	GetByID(ctx context.Context, id int64) (*model.Partner, error)
	UpdateColumns(ctx context.Context, id int64, fields map[string]interface{}) error
	Touch(ctx context.Context, id int64, fields map[string]interface{}) error

	// FindByShopifyCustomerID 按远端客户 ID 查找
	FindByShopifyCustomerID(ctx context.Context, shopifyCustomerID int64) (*model.Partner, error)
	// FindUnmappedByKeys 在未绑定远端 ID 的客户中按 email OR vat OR phone 查找
	FindUnmappedByKeys(ctx context.Context, keys MatchKeys) (*model.Partner, error)

	ListForExport(ctx context.Context, filter PartnerExportFilter) ([]model.Partner, error)
	List(ctx context.Context, filter PartnerFilter) ([]model.Partner, int64, error)
}

// ==================== 过滤条件 ====================

// MatchKeys 客户自然键，空值不参与匹配
type MatchKeys struct {
	Email string
	Vat   string
	Phone string
}

// Empty 没有任何可用的自然键
func (k MatchKeys) Empty() bool {
	return k.Email == "" && k.Vat == "" && k.Phone == ""
}

// PartnerExportFilter 客户导出条件
// OnlyNew: 既未绑定 Shopify 也未导出过
// UpdatedAfter: 仅 updated_at 晚于该时间 (nil 表示全部)
type PartnerExportFilter struct {
	OnlyNew      bool
	UpdatedAfter *time.Time
}

// PartnerFilter 客户列表条件
type PartnerFilter struct {
	Keyword           string
	IsShopifyCustomer *bool
	Page              int
	PageSize          int
}

// ==================== 仓储实现 ====================

type partnerRepo struct {
	db *gorm.DB
}

// NewPartnerRepository 创建客户仓储
func NewPartnerRepository(db *gorm.DB) PartnerRepository {
	return &partnerRepo{db: db}
}

func (r *partnerRepo) Create(ctx context.Context, partner *model.Partner) error {
	return r.db.WithContext(ctx).Create(partner).Error
}

func (r *partnerRepo) GetByID(ctx context.Context, id int64) (*model.Partner, error) {
	var p model.Partner
	if err := r.db.WithContext(ctx).First(&p, id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// UpdateColumns 写回同步标识，不改动 updated_at
func (r *partnerRepo) UpdateColumns(ctx context.Context, id int64, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&model.Partner{}).Where("id = ?", id).UpdateColumns(fields).Error
}

// Touch 普通更新，刷新 updated_at
func (r *partnerRepo) Touch(ctx context.Context, id int64, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&model.Partner{}).Where("id = ?", id).Updates(fields).Error
}

func (r *partnerRepo) first(ctx context.Context, query *gorm.DB) (*model.Partner, error) {
	var list []model.Partner
	if err := query.WithContext(ctx).Order("id ASC").Limit(1).Find(&list).Error; err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return &list[0], nil
}

func (r *partnerRepo) FindByShopifyCustomerID(ctx context.Context, shopifyCustomerID int64) (*model.Partner, error) {
	if shopifyCustomerID == 0 {
		return nil, nil
	}
	return r.first(ctx, r.db.Where("shopify_customer_id = ?", shopifyCustomerID))
}

func (r *partnerRepo) FindUnmappedByKeys(ctx context.Context, keys MatchKeys) (*model.Partner, error) {
	if keys.Empty() {
		return nil, nil
	}

	var conds []string
	var args []interface{}
	if keys.Email != "" {
		conds = append(conds, "LOWER(email) = ?")
		args = append(args, strings.ToLower(keys.Email))
	}
	if keys.Vat != "" {
		conds = append(conds, "UPPER(vat) = ?")
		args = append(args, strings.ToUpper(keys.Vat))
	}
	if keys.Phone != "" {
		conds = append(conds, "phone = ?")
		args = append(args, keys.Phone)
	}

	query := r.db.
		Where("shopify_customer_id = ?", 0).
		Where("("+strings.Join(conds, " OR ")+")", args...)
	return r.first(ctx, query)
}

func (r *partnerRepo) ListForExport(ctx context.Context, filter PartnerExportFilter) ([]model.Partner, error) {
	var list []model.Partner
	query := r.db.WithContext(ctx).Model(&model.Partner{})
	if filter.OnlyNew {
		query = query.Where("is_shopify_customer = ? AND is_exported = ?", false, false)
	}
	if filter.UpdatedAfter != nil {
		query = query.Where("updated_at > ?", *filter.UpdatedAfter)
	}
	err := query.Order("id ASC").Find(&list).Error
	return list, err
}

func (r *partnerRepo) List(ctx context.Context, filter PartnerFilter) ([]model.Partner, int64, error) {
	var list []model.Partner
	var total int64

	query := r.db.WithContext(ctx).Model(&model.Partner{})
	if filter.Keyword != "" {
		kw := "%" + filter.Keyword + "%"
		query = query.Where("name LIKE ? OR email LIKE ?", kw, kw)
	}
	if filter.IsShopifyCustomer != nil {
		query = query.Where("is_shopify_customer = ?", *filter.IsShopifyCustomer)
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
	err := query.Order("id DESC").Offset((filter.Page - 1) * filter.PageSize).Limit(filter.PageSize).Find(&list).Error
	return list, total, err
}
