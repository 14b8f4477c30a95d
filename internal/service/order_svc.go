package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"shopify_split_v1_202610/internal/api/dto"
	"shopify_split_v1_202610/internal/model"
	"shopify_split_v1_202610/internal/repository"
	"shopify_split_v1_202610/pkg/shopify"
)

const opImportOrders = "import_orders"

// OrderSyncService 订单与草稿订单导入
type OrderSyncService struct {
	instances  repository.InstanceRepository
	orders     repository.SaleOrderRepository
	partners   repository.PartnerRepository
	customers  *CustomerSyncService
	translator *OrderLineTranslator
	clients    ClientFactory
	logger     *zap.Logger
}

// NewOrderSyncService 创建订单同步服务
func NewOrderSyncService(
	instances repository.InstanceRepository,
	orders repository.SaleOrderRepository,
	partners repository.PartnerRepository,
	customers *CustomerSyncService,
	translator *OrderLineTranslator,
	clients ClientFactory,
	logger *zap.Logger,
) *OrderSyncService {
	return &OrderSyncService{
		instances:  instances,
		orders:     orders,
		partners:   partners,
		customers:  customers,
		translator: translator,
		clients:    clients,
		logger:     logger.Named("order_sync"),
	}
}

// ImportOrders 先导入草稿订单，再导入普通订单 (已存在的跳过)，返回涉及的销售订单 ID
// 订单行无法映射到本地商品时整次运行中止
func (s *OrderSyncService) ImportOrders(ctx context.Context, opts ImportOptions) ([]int64, error) {
	instances, err := resolveInstances(ctx, s.instances, opts.InstanceIDs)
	if err != nil {
		return nil, err
	}

	var affected []int64
	for i := range instances {
		inst := &instances[i]
		_, log := newRunLogger(s.logger, opImportOrders)
		log = log.With(zap.Int64("instance_id", inst.ID))
		startedAt := time.Now()

		client, err := s.clients(inst)
		if err != nil {
			return affected, err
		}
		params := shopify.ListParams{
			CreatedAtMin: effectiveFrom(opts.FromDate, inst.LastOrderImport),
			CreatedAtMax: opts.ToDate,
			Status:       "any",
		}

		drafts, err := client.ListDraftOrders(ctx, params)
		if err != nil {
			return affected, newSyncError(opImportOrders, fmt.Sprintf("instance %d drafts", inst.ID), err)
		}
		for j := range drafts {
			id, changed, err := s.prepareOrder(ctx, inst, &drafts[j], true, opts.SkipExisting)
			if err != nil {
				return affected, newSyncError(opImportOrders, fmt.Sprintf("draft order %d", drafts[j].ID), err)
			}
			if changed {
				affected = appendUnique(affected, id)
			}
		}

		orders, err := client.ListOrders(ctx, params)
		if err != nil {
			return affected, newSyncError(opImportOrders, fmt.Sprintf("instance %d orders", inst.ID), err)
		}
		for j := range orders {
			existing, err := s.orders.FindByShopifyOrderID(ctx, orders[j].ID)
			if err != nil {
				return affected, err
			}
			if existing != nil {
				continue
			}
			id, changed, err := s.prepareOrder(ctx, inst, &orders[j], false, opts.SkipExisting)
			if err != nil {
				return affected, newSyncError(opImportOrders, fmt.Sprintf("order %d", orders[j].ID), err)
			}
			if changed {
				affected = appendUnique(affected, id)
			}
		}

		if opts.ToDate == nil {
			if err := s.instances.AdvanceWatermark(ctx, inst.ID, repository.WatermarkImportOrder, startedAt); err != nil {
				return affected, fmt.Errorf("更新订单导入水位线失败: %w", err)
			}
		}
		log.Info("订单导入完成", zap.Int("drafts", len(drafts)), zap.Int("orders", len(orders)), zap.Int("affected", len(affected)))
	}
	return affected, nil
}

// prepareOrder 新订单以 draft 状态创建；已存在的草稿在 skipExisting=false 时整单重写
func (s *OrderSyncService) prepareOrder(ctx context.Context, inst *model.StoreInstance, o *shopify.Order, draft, skipExisting bool) (int64, bool, error) {
	existing, err := s.orders.FindByShopifyOrderID(ctx, o.ID)
	if err != nil {
		return 0, false, err
	}
	if existing != nil && (existing.State != model.SaleOrderStateDraft || skipExisting) {
		return existing.ID, false, nil
	}

	partner, err := s.checkCustomer(ctx, inst, o)
	if err != nil {
		return 0, false, err
	}
	lines, err := s.translator.Translate(ctx, inst.ID, o)
	if err != nil {
		return 0, false, err
	}

	raw, err := json.Marshal(o)
	if err != nil {
		return 0, false, fmt.Errorf("序列化远端订单失败: %w", err)
	}
	status := o.Status
	if status == "" && !draft {
		status = "open"
	}

	order := &model.SaleOrder{
		Name:                 o.Name,
		PartnerID:            partner.ID,
		InstanceID:           inst.ID,
		State:                model.SaleOrderStateDraft,
		DateOrder:            o.CreatedAt.UTC(),
		ShopifyOrderID:       o.ID,
		ShopifyOrderNumber:   o.OrderNumber,
		ShopifyOrderStatus:   status,
		ShopifyOrderTotal:    o.TotalPrice,
		ShopifyLinkedOrderID: o.OrderID,
		IsShopifyOrder:       true,
		IsDraftOrder:         draft,
		RemoteRawData:        datatypes.JSON(raw),
	}

	err = s.orders.Transaction(ctx, func(orders repository.SaleOrderRepository) error {
		if existing == nil {
			if err := orders.Create(ctx, order); err != nil {
				return err
			}
		} else {
			order.ID = existing.ID
			err := orders.UpdateFields(ctx, existing.ID, map[string]interface{}{
				"name":                    order.Name,
				"partner_id":              order.PartnerID,
				"instance_id":             order.InstanceID,
				"date_order":              order.DateOrder,
				"shopify_order_number":    order.ShopifyOrderNumber,
				"shopify_order_status":    order.ShopifyOrderStatus,
				"shopify_order_total":     order.ShopifyOrderTotal,
				"shopify_linked_order_id": order.ShopifyLinkedOrderID,
				"is_draft_order":          order.IsDraftOrder,
				"remote_raw_data":         order.RemoteRawData,
			})
			if err != nil {
				return err
			}
		}
		return orders.ReplaceLines(ctx, order.ID, lines)
	})
	if err != nil {
		return 0, false, fmt.Errorf("保存销售订单失败: %w", err)
	}

	s.logger.Info("销售订单已保存", zap.Int64("sale_order_id", order.ID), zap.Int64("shopify_order_id", o.ID),
		zap.Bool("draft", draft), zap.Bool("rewritten", existing != nil), zap.Int("lines", len(lines)))
	return order.ID, true, nil
}

// checkCustomer 订单客户匹配或创建，并标记为客户 (customer_rank=1, ref=SID<远端ID>)
func (s *OrderSyncService) checkCustomer(ctx context.Context, inst *model.StoreInstance, o *shopify.Order) (*model.Partner, error) {
	c := o.Customer
	if c == nil {
		c = &shopify.Customer{Email: o.Email}
	}

	partner, _, err := s.customers.Resolve(ctx, inst, c, true)
	if err != nil {
		return nil, err
	}

	fields := map[string]interface{}{
		"customer_rank":       1,
		"shopify_instance_id": inst.ID,
	}
	if c.ID != 0 {
		fields["ref"] = fmt.Sprintf("SID%d", c.ID)
	}
	if err := s.partners.UpdateColumns(ctx, partner.ID, fields); err != nil {
		return nil, fmt.Errorf("更新订单客户失败: %w", err)
	}
	return partner, nil
}

// ==================== 查询 ====================

// ListOrders 分页查询已导入订单
func (s *OrderSyncService) ListOrders(ctx context.Context, req dto.ListReq) ([]model.SaleOrder, int64, error) {
	return s.orders.List(ctx, repository.SaleOrderFilter{
		InstanceID: req.InstanceID,
		State:      req.State,
		Page:       req.Page,
		PageSize:   req.PageSize,
	})
}
