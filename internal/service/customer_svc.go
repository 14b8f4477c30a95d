package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"shopify_split_v1_202610/internal/api/dto"
	"shopify_split_v1_202610/internal/config"
	"shopify_split_v1_202610/internal/model"
	"shopify_split_v1_202610/internal/repository"
	"shopify_split_v1_202610/pkg/shopify"
)

const (
	opImportCustomers = "import_customers"
	opExportCustomers = "export_customers"
)

// CustomerSyncService 客户导入/导出
type CustomerSyncService struct {
	instances repository.InstanceRepository
	partners  repository.PartnerRepository
	clients   ClientFactory
	matcher   *CustomerMatcher
	logger    *zap.Logger
}

// NewCustomerSyncService 创建客户同步服务
func NewCustomerSyncService(
	instances repository.InstanceRepository,
	partners repository.PartnerRepository,
	clients ClientFactory,
	cfg config.SyncConfig,
	logger *zap.Logger,
) *CustomerSyncService {
	logger = logger.Named("customer_sync")
	return &CustomerSyncService{
		instances: instances,
		partners:  partners,
		clients:   clients,
		matcher:   NewCustomerMatcher(partners, cfg.CustomerPlaceholderName, logger),
		logger:    logger,
	}
}

// Matcher 订单导入复用同一套匹配规则
func (s *CustomerSyncService) Matcher() *CustomerMatcher {
	return s.matcher
}

// ==================== 导入 ====================

// ImportCustomers 拉取远端客户并匹配/创建本地客户，返回涉及的客户 ID
// 未指定截止时间时，每个店铺处理完后推进 shopify_last_date_customer_import
func (s *CustomerSyncService) ImportCustomers(ctx context.Context, opts ImportOptions) ([]int64, error) {
	instances, err := resolveInstances(ctx, s.instances, opts.InstanceIDs)
	if err != nil {
		return nil, err
	}

	var affected []int64
	for i := range instances {
		inst := &instances[i]
		_, log := newRunLogger(s.logger, opImportCustomers)
		log = log.With(zap.Int64("instance_id", inst.ID))
		startedAt := time.Now()

		client, err := s.clients(inst)
		if err != nil {
			return affected, err
		}
		customers, err := client.ListCustomers(ctx, shopify.ListParams{
			CreatedAtMin: effectiveFrom(opts.FromDate, inst.LastCustomerImport),
			CreatedAtMax: opts.ToDate,
		})
		if err != nil {
			return affected, newSyncError(opImportCustomers, fmt.Sprintf("instance %d", inst.ID), err)
		}
		log.Info("远端客户拉取完成", zap.Int("count", len(customers)))

		for j := range customers {
			p, changed, err := s.Resolve(ctx, inst, &customers[j], opts.SkipExisting)
			if err != nil {
				return affected, newSyncError(opImportCustomers, fmt.Sprintf("customer %d", customers[j].ID), err)
			}
			if changed {
				affected = appendUnique(affected, p.ID)
			}
		}

		if opts.ToDate == nil {
			if err := s.instances.AdvanceWatermark(ctx, inst.ID, repository.WatermarkImportCustomer, startedAt); err != nil {
				return affected, fmt.Errorf("更新客户导入水位线失败: %w", err)
			}
		}
		log.Info("客户导入完成", zap.Int("affected", len(affected)))
	}
	return affected, nil
}

// Resolve 匹配到则写入远端 ID，否则新建客户
// skipExisting=true 时已绑定该远端 ID 的客户保持不变 (changed=false)
func (s *CustomerSyncService) Resolve(ctx context.Context, inst *model.StoreInstance, c *shopify.Customer, skipExisting bool) (*model.Partner, bool, error) {
	p, err := s.matcher.Match(ctx, c)
	if err != nil {
		return nil, false, err
	}

	if p == nil {
		p = s.matcher.NewPartner(c, inst.ID)
		if err := s.partners.Create(ctx, p); err != nil {
			return nil, false, fmt.Errorf("创建客户失败: %w", err)
		}
		s.logger.Info("新建客户", zap.Int64("partner_id", p.ID), zap.Int64("customer_id", c.ID), zap.String("name", p.Name))
		return p, true, nil
	}

	if skipExisting && c.ID != 0 && p.ShopifyCustomerID == c.ID {
		return p, false, nil
	}
	if c.ID == 0 {
		return p, false, nil
	}

	instanceID := inst.ID
	fields := map[string]interface{}{
		"shopify_customer_id": c.ID,
		"is_shopify_customer": true,
		"shopify_instance_id": instanceID,
	}
	if err := s.partners.UpdateColumns(ctx, p.ID, fields); err != nil {
		return nil, false, fmt.Errorf("写回客户远端 ID 失败: %w", err)
	}
	p.ShopifyCustomerID = c.ID
	p.IsShopifyCustomer = true
	p.ShopifyInstanceID = &instanceID
	s.logger.Debug("客户已匹配", zap.Int64("partner_id", p.ID), zap.Int64("customer_id", c.ID))
	return p, true, nil
}

// ==================== 导出 ====================

// ExportCustomers update=false 导出从未同步过的客户；update=true 导出水位线之后修改过的客户
// 有远端 ID 且 update 时 PUT，否则 POST
func (s *CustomerSyncService) ExportCustomers(ctx context.Context, instanceIDs []int64, update bool) ([]int64, error) {
	instances, err := resolveInstances(ctx, s.instances, instanceIDs)
	if err != nil {
		return nil, err
	}

	var affected []int64
	for i := range instances {
		inst := &instances[i]
		_, log := newRunLogger(s.logger, opExportCustomers)
		log = log.With(zap.Int64("instance_id", inst.ID))
		startedAt := time.Now()

		client, err := s.clients(inst)
		if err != nil {
			return affected, err
		}

		filter := repository.PartnerExportFilter{OnlyNew: !update}
		if update {
			filter.UpdatedAfter = inst.LastExportCustomer
		}
		partners, err := s.partners.ListForExport(ctx, filter)
		if err != nil {
			return affected, fmt.Errorf("查询待导出客户失败: %w", err)
		}
		log.Info("开始导出客户", zap.Int("count", len(partners)), zap.Bool("update", update))

		for j := range partners {
			p := &partners[j]
			target := fmt.Sprintf("partner %d", p.ID)
			payload := partnerPayload(p)

			if p.ShopifyCustomerID != 0 && update {
				if _, err := client.UpdateCustomer(ctx, p.ShopifyCustomerID, payload); err != nil {
					return affected, newSyncError(opExportCustomers, target, err)
				}
			} else {
				created, err := client.CreateCustomer(ctx, payload)
				if err != nil {
					return affected, newSyncError(opExportCustomers, target, err)
				}
				err = s.partners.UpdateColumns(ctx, p.ID, map[string]interface{}{
					"shopify_customer_id": created.ID,
					"shopify_instance_id": inst.ID,
					"is_shopify_customer": true,
					"is_exported":         true,
				})
				if err != nil {
					return affected, newSyncError(opExportCustomers, target, err)
				}
			}
			affected = appendUnique(affected, p.ID)
		}

		if err := s.instances.AdvanceWatermark(ctx, inst.ID, repository.WatermarkExportCustomer, startedAt); err != nil {
			return affected, fmt.Errorf("更新客户导出水位线失败: %w", err)
		}
		log.Info("客户导出完成", zap.Int("affected", len(affected)))
	}
	return affected, nil
}

func partnerPayload(p *model.Partner) *shopify.Customer {
	first, last := splitName(p.Name)
	c := &shopify.Customer{
		Email:     p.Email,
		FirstName: first,
		LastName:  last,
		Phone:     p.Phone,
		Note:      p.Ref,
	}
	if p.Street != "" || p.City != "" || p.Zip != "" {
		c.Addresses = []shopify.Address{{
			Address1:    p.Street,
			City:        p.City,
			Zip:         p.Zip,
			CountryCode: p.CountryCode,
			Phone:       p.Phone,
		}}
	}
	return c
}

func splitName(name string) (string, string) {
	name = strings.TrimSpace(name)
	if i := strings.IndexByte(name, ' '); i > 0 {
		return name[:i], strings.TrimSpace(name[i+1:])
	}
	return name, ""
}

// ==================== 查询 ====================

// ListPartners 分页查询本地客户
func (s *CustomerSyncService) ListPartners(ctx context.Context, req dto.ListReq) ([]model.Partner, int64, error) {
	return s.partners.List(ctx, repository.PartnerFilter{
		Keyword:  req.Keyword,
		Page:     req.Page,
		PageSize: req.PageSize,
	})
}
