package service

import (
	"context"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"shopify_split_v1_202610/internal/model"
	"shopify_split_v1_202610/internal/repository"
	"shopify_split_v1_202610/pkg/shopify"
)

const opExportProducts = "export_products"

// ExportRun 一次商品导出的上下文，显式传递当前店铺
type ExportRun struct {
	ID          string
	Instance    *model.StoreInstance
	Client      ShopifyAPI
	Builder     *PayloadBuilder
	Update      bool
	MaxProducts int // 0 不限制
	Logger      *zap.Logger

	pushed   int
	affected []int64
}

// CapReached 本次已创建/更新的远端商品数是否达到上限
func (r *ExportRun) CapReached() bool {
	return r.MaxProducts > 0 && r.pushed >= r.MaxProducts
}

// Pushed 成功创建或更新的远端商品数
func (r *ExportRun) Pushed() int {
	return r.pushed
}

func (r *ExportRun) touch(templateID int64) {
	for _, id := range r.affected {
		if id == templateID {
			return
		}
	}
	r.affected = append(r.affected, templateID)
}

// ProductExporter 把一个模板推送到远端
// 数量上限只在模板之间检查，开始处理的模板总会推送全部分组
type ProductExporter interface {
	ExportTemplate(ctx context.Context, run *ExportRun, tmpl *model.ProductTemplate) error
}

// NewProductExporter 按店铺配置选择导出方式
func NewProductExporter(db *gorm.DB, products repository.ProductRepository, mappings repository.RemoteProductMappingRepository, partitioner *VariantPartitioner, split bool) ProductExporter {
	base := &singleExporter{db: db, products: products, mappings: mappings, partitioner: partitioner}
	if !split {
		return base
	}
	return &colorSplitExporter{base: base}
}

// ==================== 不拆分 ====================

// singleExporter 一个模板对应一个远端商品，远端 ID 记在模板上
type singleExporter struct {
	db          *gorm.DB
	products    repository.ProductRepository
	mappings    repository.RemoteProductMappingRepository
	partitioner *VariantPartitioner
}

func (e *singleExporter) ExportTemplate(ctx context.Context, run *ExportRun, tmpl *model.ProductTemplate) error {
	groups := e.partitioner.Partition(tmpl, false)
	for i := range groups {
		if err := e.pushGroup(ctx, run, tmpl, &groups[i], tmpl.ShopifyProductID); err != nil {
			return err
		}
	}
	return nil
}

// pushGroup 有远端 ID 且为更新运行时 PUT，否则 POST 新建
func (e *singleExporter) pushGroup(ctx context.Context, run *ExportRun, tmpl *model.ProductTemplate, g *ExportGroup, remoteID int64) error {
	target := groupTarget(tmpl, g)
	log := run.Logger.With(zap.Int64("template_id", tmpl.ID), zap.String("group", g.Label()))

	var (
		productID int64
		remote    []shopify.Variant
	)
	if remoteID != 0 && run.Update {
		updated, err := e.updateRemote(ctx, run, tmpl, g, remoteID)
		if err != nil {
			return newSyncError(opExportProducts, target, err)
		}
		productID, remote = remoteID, updated
		log.Info("远端商品已更新", zap.Int64("shopify_product_id", remoteID), zap.Int("variants", len(remote)))
	} else {
		created, err := run.Client.CreateProduct(ctx, run.Builder.Build(tmpl, g, false))
		if err != nil {
			return newSyncError(opExportProducts, target, err)
		}
		productID, remote = created.ID, created.Variants
		log.Info("远端商品已创建", zap.Int64("shopify_product_id", productID), zap.Int("variants", len(remote)))
	}
	run.pushed++

	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		products := e.products.WithTx(tx)
		if g.Split && g.ColorValue != nil {
			err := e.mappings.WithTx(tx).Upsert(ctx, &model.RemoteProductMapping{
				TemplateID:       tmpl.ID,
				AttributeValueID: g.ColorValue.AttributeValueID,
				TemplateValueID:  g.ColorValue.ID,
				InstanceID:       run.Instance.ID,
				ShopifyProductID: productID,
			})
			if err != nil {
				return err
			}
			if err := products.MarkTemplateExported(ctx, tmpl.ID, run.Instance.ID, 0); err != nil {
				return err
			}
		} else if err := products.MarkTemplateExported(ctx, tmpl.ID, run.Instance.ID, productID); err != nil {
			return err
		}
		return reconcileVariants(ctx, products, g.Variants, remote)
	})
	if err != nil {
		return newSyncError(opExportProducts, target, err)
	}
	if !g.Split {
		tmpl.ShopifyProductID = productID
	}
	run.touch(tmpl.ID)
	return nil
}

// updateRemote 先更新商品头，再逐个变体 PUT (无远端 ID 的变体 POST 新增)
func (e *singleExporter) updateRemote(ctx context.Context, run *ExportRun, tmpl *model.ProductTemplate, g *ExportGroup, remoteID int64) ([]shopify.Variant, error) {
	if _, err := run.Client.UpdateProduct(ctx, remoteID, run.Builder.Header(tmpl, g)); err != nil {
		return nil, err
	}

	out := make([]shopify.Variant, 0, len(g.Variants))
	for i := range g.Variants {
		payload := run.Builder.Variant(tmpl, g, &g.Variants[i], true)
		var (
			v   *shopify.Variant
			err error
		)
		if payload.ID != 0 {
			v, err = run.Client.UpdateVariant(ctx, &payload)
		} else {
			v, err = run.Client.CreateVariant(ctx, remoteID, &payload)
		}
		if err != nil {
			return nil, err
		}
		out = append(out, *v)
	}
	return out, nil
}

// reconcileVariants 按 SKU 把远端变体 ID 写回本地变体
func reconcileVariants(ctx context.Context, products repository.ProductRepository, local []model.ProductVariant, remote []shopify.Variant) error {
	bySKU := make(map[string]*model.ProductVariant, len(local))
	for i := range local {
		bySKU[strings.TrimSpace(local[i].DefaultCode)] = &local[i]
	}
	for _, rv := range remote {
		lv, ok := bySKU[strings.TrimSpace(rv.SKU)]
		if !ok || rv.SKU == "" {
			continue
		}
		if err := products.UpdateVariantRemoteIDs(ctx, lv.ID, rv.ID, rv.InventoryItemID, rv.Barcode); err != nil {
			return err
		}
		lv.ShopifyVariantID = rv.ID
		lv.ShopifyInventoryItemID = rv.InventoryItemID
		lv.IsShopifyVariant = true
	}
	return nil
}

// ==================== 按颜色拆分 ====================

// colorSplitExporter 每个颜色一个远端商品，远端 ID 记在 (模板, 颜色) 映射上
// 模板没有颜色属性线时退回不拆分
type colorSplitExporter struct {
	base *singleExporter
}

func (e *colorSplitExporter) ExportTemplate(ctx context.Context, run *ExportRun, tmpl *model.ProductTemplate) error {
	if findColorLine(tmpl) == nil {
		return e.base.ExportTemplate(ctx, run, tmpl)
	}

	groups := e.base.partitioner.Partition(tmpl, true)
	for i := range groups {
		g := &groups[i]

		var remoteID int64
		m, err := e.base.mappings.Find(ctx, tmpl.ID, g.ColorValue.AttributeValueID)
		if err != nil {
			return newSyncError(opExportProducts, groupTarget(tmpl, g), err)
		}
		if m != nil {
			remoteID = m.ShopifyProductID
		}
		if err := e.base.pushGroup(ctx, run, tmpl, g, remoteID); err != nil {
			return err
		}
	}
	return nil
}
