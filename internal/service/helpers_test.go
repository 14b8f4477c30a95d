package service

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"shopify_split_v1_202610/internal/config"
	"shopify_split_v1_202610/internal/model"
	"shopify_split_v1_202610/internal/repository"
	"shopify_split_v1_202610/pkg/shopify"
)

// ==================== 测试辅助 ====================

func setupSvcTestDB(t *testing.T) *gorm.DB {
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

func seedInstance(t *testing.T, db *gorm.DB, split bool) *model.StoreInstance {
	t.Helper()
	inst := &model.StoreInstance{
		Name:                 "demo",
		ShopifyHost:          fmt.Sprintf("demo-%v", split),
		ShopifyVersion:       "2024-01",
		ShopifySharedSecret:  "shpat_test",
		Active:               true,
		SplitProductsByColor: split,
		ColorOptionPosition:  1,
		SizeOptionPosition:   2,
	}
	if err := db.Create(inst).Error; err != nil {
		t.Fatalf("创建店铺失败: %v", err)
	}
	return inst
}

// seedShirt 模板 Shirt: Color{Red, Blue} x Size{S, M}，Blue/M 没有 SKU
func seedShirt(t *testing.T, db *gorm.DB) *model.ProductTemplate {
	t.Helper()

	color := model.ProductAttribute{Name: "Color"}
	size := model.ProductAttribute{Name: "Size"}
	db.FirstOrCreate(&color, model.ProductAttribute{Name: "Color"})
	db.FirstOrCreate(&size, model.ProductAttribute{Name: "Size"})

	tmpl := model.ProductTemplate{
		Name:        "Shirt",
		Description: "<p>Cotton</p>",
		Tags:        model.StringArray{"summer", "cotton"},
		IsPublished: true,
		ListPrice:   decimal.NewFromInt(20),
	}
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
			ListPrice:   decimal.RequireFromString("19.90"),
			Values:      []model.TemplateAttributeValue{*values[v.c], *values[v.s]},
		}
		if err := db.Omit("Values.*").Create(&variant).Error; err != nil {
			t.Fatalf("创建变体失败: %v", err)
		}
	}
	return loadTemplate(t, db, tmpl.ID)
}

func loadTemplate(t *testing.T, db *gorm.DB, id int64) *model.ProductTemplate {
	t.Helper()
	tmpl, err := repository.NewProductRepository(db).GetTemplate(context.Background(), id)
	if err != nil {
		t.Fatalf("加载模板失败: %v", err)
	}
	return tmpl
}

func testSyncConfig() config.SyncConfig {
	return config.Default().Sync
}

// ==================== 假 Shopify ====================

// fakeShopify 内存实现，记录所有写请求
type fakeShopify struct {
	mu     sync.Mutex
	nextID int64

	createdProducts []shopify.Product
	updatedProducts map[int64]shopify.Product
	updatedVariants []shopify.Variant
	createdVariants []shopify.Variant
	failWith        error

	remoteProducts []shopify.Product

	customers        []shopify.Customer
	createdCustomers []shopify.Customer
	updatedCustomers map[int64]shopify.Customer

	orders      []shopify.Order
	drafts      []shopify.Order
	orderParams []shopify.ListParams
}

func newFakeShopify() *fakeShopify {
	return &fakeShopify{
		nextID:           1000,
		updatedProducts:  map[int64]shopify.Product{},
		updatedCustomers: map[int64]shopify.Customer{},
	}
}

func (f *fakeShopify) factory() ClientFactory {
	return func(*model.StoreInstance) (ShopifyAPI, error) { return f, nil }
}

func (f *fakeShopify) id() int64 {
	f.nextID++
	return f.nextID
}

func (f *fakeShopify) CreateProduct(_ context.Context, p *shopify.Product) (*shopify.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return nil, f.failWith
	}
	out := *p
	out.ID = f.id()
	out.Variants = make([]shopify.Variant, len(p.Variants))
	for i, v := range p.Variants {
		v.ID = f.id()
		v.ProductID = out.ID
		v.InventoryItemID = v.ID + 50000
		out.Variants[i] = v
	}
	f.createdProducts = append(f.createdProducts, out)
	return &out, nil
}

func (f *fakeShopify) UpdateProduct(_ context.Context, id int64, p *shopify.Product) (*shopify.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return nil, f.failWith
	}
	out := *p
	out.ID = id
	f.updatedProducts[id] = out
	return &out, nil
}

func (f *fakeShopify) UpdateVariant(_ context.Context, v *shopify.Variant) (*shopify.Variant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := *v
	out.InventoryItemID = v.ID + 50000
	f.updatedVariants = append(f.updatedVariants, out)
	return &out, nil
}

func (f *fakeShopify) CreateVariant(_ context.Context, productID int64, v *shopify.Variant) (*shopify.Variant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := *v
	out.ID = f.id()
	out.ProductID = productID
	out.InventoryItemID = out.ID + 50000
	f.createdVariants = append(f.createdVariants, out)
	return &out, nil
}

func (f *fakeShopify) ListProducts(context.Context, shopify.ListParams) ([]shopify.Product, error) {
	return f.remoteProducts, nil
}

func (f *fakeShopify) ListCustomers(context.Context, shopify.ListParams) ([]shopify.Customer, error) {
	return f.customers, nil
}

func (f *fakeShopify) CreateCustomer(_ context.Context, c *shopify.Customer) (*shopify.Customer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return nil, f.failWith
	}
	out := *c
	out.ID = f.id()
	f.createdCustomers = append(f.createdCustomers, out)
	return &out, nil
}

func (f *fakeShopify) UpdateCustomer(_ context.Context, id int64, c *shopify.Customer) (*shopify.Customer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := *c
	out.ID = id
	f.updatedCustomers[id] = out
	return &out, nil
}

func (f *fakeShopify) ListOrders(_ context.Context, params shopify.ListParams) ([]shopify.Order, error) {
	f.mu.Lock()
	f.orderParams = append(f.orderParams, params)
	f.mu.Unlock()
	return f.orders, nil
}

func (f *fakeShopify) ListDraftOrders(_ context.Context, params shopify.ListParams) ([]shopify.Order, error) {
	f.mu.Lock()
	f.orderParams = append(f.orderParams, params)
	f.mu.Unlock()
	return f.drafts, nil
}

// ==================== 服务构建 ====================

type testEnv struct {
	db        *gorm.DB
	instances repository.InstanceRepository
	products  repository.ProductRepository
	mappings  repository.RemoteProductMappingRepository
	partners  repository.PartnerRepository
	orders    repository.SaleOrderRepository
	remote    *fakeShopify
	cfg       config.SyncConfig
}

func newTestEnv(t *testing.T) *testEnv {
	db := setupSvcTestDB(t)
	return &testEnv{
		db:        db,
		instances: repository.NewInstanceRepository(db),
		products:  repository.NewProductRepository(db),
		mappings:  repository.NewRemoteProductMappingRepository(db),
		partners:  repository.NewPartnerRepository(db),
		orders:    repository.NewSaleOrderRepository(db),
		remote:    newFakeShopify(),
		cfg:       testSyncConfig(),
	}
}

func (e *testEnv) productSvc() *ProductSyncService {
	return NewProductSyncService(e.db, e.instances, e.products, e.mappings, e.remote.factory(), e.cfg, zap.NewNop())
}

func (e *testEnv) customerSvc() *CustomerSyncService {
	return NewCustomerSyncService(e.instances, e.partners, e.remote.factory(), e.cfg, zap.NewNop())
}

func (e *testEnv) orderSvc() *OrderSyncService {
	translator := NewOrderLineTranslator(e.products, e.orders, e.cfg, zap.NewNop())
	return NewOrderSyncService(e.instances, e.orders, e.partners, e.customerSvc(), translator, e.remote.factory(), zap.NewNop())
}
