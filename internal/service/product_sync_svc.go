package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"shopify_split_v1_202610/internal/config"
	"shopify_split_v1_202610/internal/model"
	"shopify_split_v1_202610/internal/repository"
	"shopify_split_v1_202610/pkg/shopify"
)

const opImportProducts = "import_products"

// ProductSyncService 商品导出/导入
type ProductSyncService struct {
	db          *gorm.DB
	instances   repository.InstanceRepository
	products    repository.ProductRepository
	mappings    repository.RemoteProductMappingRepository
	clients     ClientFactory
	partitioner *VariantPartitioner
	cfg         config.SyncConfig
	logger      *zap.Logger
}

// NewProductSyncService 创建商品同步服务
func NewProductSyncService(
	db *gorm.DB,
	instances repository.InstanceRepository,
	products repository.ProductRepository,
	mappings repository.RemoteProductMappingRepository,
	clients ClientFactory,
	cfg config.SyncConfig,
	logger *zap.Logger,
) *ProductSyncService {
	logger = logger.Named("product_sync")
	return &ProductSyncService{
		db:          db,
		instances:   instances,
		products:    products,
		mappings:    mappings,
		clients:     clients,
		partitioner: NewVariantPartitioner(logger),
		cfg:         cfg,
		logger:      logger,
	}
}

// ==================== 导出 ====================

// ExportProducts 把增量模板推送到各店铺，返回涉及的模板 ID
// 任一写请求失败立即中止整次运行，水位线不前移
func (s *ProductSyncService) ExportProducts(ctx context.Context, instanceIDs []int64, update bool) ([]int64, error) {
	instances, err := resolveInstances(ctx, s.instances, instanceIDs)
	if err != nil {
		return nil, err
	}

	var affected []int64
	for i := range instances {
		ids, err := s.exportInstance(ctx, &instances[i], update)
		for _, id := range ids {
			affected = appendUnique(affected, id)
		}
		if err != nil {
			return affected, err
		}
	}
	return affected, nil
}

func (s *ProductSyncService) exportInstance(ctx context.Context, inst *model.StoreInstance, update bool) ([]int64, error) {
	runID, log := newRunLogger(s.logger, opExportProducts)
	log = log.With(zap.Int64("instance_id", inst.ID))
	startedAt := time.Now()

	builder, err := NewPayloadBuilder(inst)
	if err != nil {
		return nil, err
	}
	client, err := s.clients(inst)
	if err != nil {
		return nil, err
	}

	templates, err := s.products.ListExportCandidates(ctx, repository.ExportFilter{Since: inst.LastExportProduct})
	if err != nil {
		return nil, fmt.Errorf("查询待导出模板失败: %w", err)
	}
	log.Info("开始导出商品", zap.Int("templates", len(templates)), zap.Bool("update", update),
		zap.Bool("split_by_color", inst.SplitProductsByColor))

	run := &ExportRun{
		ID:          runID,
		Instance:    inst,
		Client:      client,
		Builder:     builder,
		Update:      update,
		MaxProducts: s.cfg.MaxProductsPerRun,
		Logger:      log,
	}
	exporter := NewProductExporter(s.db, s.products, s.mappings, s.partitioner, inst.SplitProductsByColor)

	var (
		capped   bool
		lastDone *time.Time
	)
	for i := range templates {
		if err := ctx.Err(); err != nil {
			return run.affected, err
		}
		// 软上限：只在模板之间检查
		if run.CapReached() {
			capped = true
			break
		}
		if err := exporter.ExportTemplate(ctx, run, &templates[i]); err != nil {
			log.Error("导出中止", zap.Int64("template_id", templates[i].ID), zap.Error(err))
			return run.affected, err
		}
		t := templates[i].UpdatedAt
		lastDone = &t
	}

	// 达到上限时只推进到最后一个完整处理的模板；首次导出不设水位线
	var watermark *time.Time
	switch {
	case !capped:
		watermark = &startedAt
	case inst.LastExportProduct != nil && lastDone != nil:
		watermark = lastDone
	}
	if watermark != nil {
		if err := s.instances.AdvanceWatermark(ctx, inst.ID, repository.WatermarkExportProduct, *watermark); err != nil {
			return run.affected, fmt.Errorf("更新导出水位线失败: %w", err)
		}
	}

	log.Info("商品导出完成", zap.Int("pushed", run.Pushed()), zap.Int("templates", len(run.affected)),
		zap.Bool("capped", capped))
	return run.affected, nil
}

// ==================== 导入 ====================

// ImportProducts 拉取远端商品并与本地变体对账，返回涉及的模板 ID
// 未匹配的远端商品默认不落地，开启 sync.create_products_on_import 后创建本地模板
func (s *ProductSyncService) ImportProducts(ctx context.Context, opts ImportOptions) ([]int64, error) {
	instances, err := resolveInstances(ctx, s.instances, opts.InstanceIDs)
	if err != nil {
		return nil, err
	}

	var affected []int64
	for i := range instances {
		inst := &instances[i]
		_, log := newRunLogger(s.logger, opImportProducts)
		log = log.With(zap.Int64("instance_id", inst.ID))

		client, err := s.clients(inst)
		if err != nil {
			return affected, err
		}
		remote, err := client.ListProducts(ctx, shopify.ListParams{
			CreatedAtMin: opts.FromDate,
			CreatedAtMax: opts.ToDate,
		})
		if err != nil {
			return affected, newSyncError(opImportProducts, fmt.Sprintf("instance %d", inst.ID), err)
		}
		log.Info("远端商品拉取完成", zap.Int("count", len(remote)))

		for j := range remote {
			id, err := s.importProduct(ctx, inst, &remote[j], opts.SkipExisting, log)
			if err != nil {
				return affected, newSyncError(opImportProducts, fmt.Sprintf("product %d", remote[j].ID), err)
			}
			if id != 0 {
				affected = appendUnique(affected, id)
			}
		}
	}
	return affected, nil
}

// importProduct 返回对账到的本地模板 ID，未处理返回 0
func (s *ProductSyncService) importProduct(ctx context.Context, inst *model.StoreInstance, rp *shopify.Product, skipExisting bool, log *zap.Logger) (int64, error) {
	known, err := s.knownTemplateID(ctx, rp.ID)
	if err != nil {
		return 0, err
	}
	if known != 0 && skipExisting {
		log.Debug("远端商品已映射，跳过", zap.Int64("shopify_product_id", rp.ID), zap.Int64("template_id", known))
		return 0, nil
	}

	var templateID int64
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		products := s.products.WithTx(tx)
		mappings := s.mappings.WithTx(tx)

		for _, rv := range rp.Variants {
			local, err := products.FindVariantForRemote(ctx, rv.ID, rv.SKU)
			if err != nil {
				return err
			}
			if local == nil {
				continue
			}
			if err := products.UpdateVariantRemoteIDs(ctx, local.ID, rv.ID, rv.InventoryItemID, rv.Barcode); err != nil {
				return err
			}

			// 远端商品 ID 挂到该变体的颜色值上，没有颜色则挂在模板上
			var productID int64
			if color := colorValueOf(local); color != nil {
				err := mappings.Upsert(ctx, &model.RemoteProductMapping{
					TemplateID:       local.TemplateID,
					AttributeValueID: color.AttributeValueID,
					TemplateValueID:  color.ID,
					InstanceID:       inst.ID,
					ShopifyProductID: rp.ID,
				})
				if err != nil {
					return err
				}
			} else {
				productID = rp.ID
			}
			if err := products.MarkTemplateExported(ctx, local.TemplateID, inst.ID, productID); err != nil {
				return err
			}
			templateID = local.TemplateID
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	if templateID != 0 {
		log.Info("远端商品已对账", zap.Int64("shopify_product_id", rp.ID), zap.Int64("template_id", templateID))
		return templateID, nil
	}

	if !s.cfg.CreateProductsOnImport {
		log.Info("远端商品未匹配本地变体，保持未映射", zap.Int64("shopify_product_id", rp.ID), zap.String("title", rp.Title))
		return 0, nil
	}
	return s.createTemplateFromRemote(ctx, inst, rp, log)
}

// knownTemplateID 远端商品是否已映射到某个模板
func (s *ProductSyncService) knownTemplateID(ctx context.Context, shopifyProductID int64) (int64, error) {
	m, err := s.mappings.FindByShopifyProductID(ctx, shopifyProductID)
	if err != nil {
		return 0, err
	}
	if m != nil {
		return m.TemplateID, nil
	}
	tmpl, err := s.products.FindTemplateByShopifyProductID(ctx, shopifyProductID)
	if err != nil {
		return 0, err
	}
	if tmpl != nil {
		return tmpl.ID, nil
	}
	return 0, nil
}

// createTemplateFromRemote 按远端选项建立属性线，每个远端变体创建一个本地变体
func (s *ProductSyncService) createTemplateFromRemote(ctx context.Context, inst *model.StoreInstance, rp *shopify.Product, log *zap.Logger) (int64, error) {
	instanceID := inst.ID
	tmpl := &model.ProductTemplate{
		Name:              rp.Title,
		Description:       rp.BodyHTML,
		Tags:              splitTags(rp.Tags),
		IsShopifyProduct:  true,
		IsExported:        true,
		ShopifyInstanceID: &instanceID,
		ShopifyProductID:  rp.ID,
	}

	err := s.products.Transaction(ctx, func(products repository.ProductRepository) error {
		if err := products.CreateTemplate(ctx, tmpl); err != nil {
			return err
		}

		// 选项槽位 -> 选项值名 -> 模板属性值
		slots := make(map[int]map[string]model.TemplateAttributeValue)
		for i, opt := range rp.Options {
			attr, err := products.FindOrCreateAttribute(ctx, opt.Name)
			if err != nil {
				return err
			}
			line := &model.AttributeLine{TemplateID: tmpl.ID, AttributeID: attr.ID, Sequence: (i + 1) * 10}
			if err := products.CreateAttributeLine(ctx, line); err != nil {
				return err
			}

			position := opt.Position
			if position == 0 {
				position = i + 1
			}
			slots[position] = make(map[string]model.TemplateAttributeValue)
			for _, name := range opt.Values {
				val, err := products.FindOrCreateAttributeValue(ctx, attr.ID, name)
				if err != nil {
					return err
				}
				tv := model.TemplateAttributeValue{
					TemplateID:       tmpl.ID,
					LineID:           line.ID,
					AttributeID:      attr.ID,
					AttributeValueID: val.ID,
				}
				if err := products.CreateTemplateValue(ctx, &tv); err != nil {
					return err
				}
				slots[position][strings.TrimSpace(name)] = tv
			}
		}

		for _, rv := range rp.Variants {
			price, _ := decimal.NewFromString(rv.Price)
			variant := &model.ProductVariant{
				TemplateID:             tmpl.ID,
				DefaultCode:            strings.TrimSpace(rv.SKU),
				Barcode:                rv.Barcode,
				ListPrice:              price,
				ShopifyVariantID:       rv.ID,
				ShopifyInventoryItemID: rv.InventoryItemID,
				ShopifyBarcode:         rv.Barcode,
				IsShopifyVariant:       true,
			}
			for pos := 1; pos <= maxRemoteOptions; pos++ {
				if tv, ok := slots[pos][strings.TrimSpace(rv.OptionAt(pos))]; ok {
					variant.Values = append(variant.Values, tv)
				}
			}
			if err := products.CreateVariant(ctx, variant); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	log.Info("按远端商品创建本地模板", zap.Int64("shopify_product_id", rp.ID), zap.Int64("template_id", tmpl.ID),
		zap.Int("variants", len(rp.Variants)))
	return tmpl.ID, nil
}

func splitTags(tags string) model.StringArray {
	var out model.StringArray
	for _, t := range strings.Split(tags, ",") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}
