package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopify_split_v1_202610/internal/model"
	"shopify_split_v1_202610/pkg/shopify"
)

func createdTitles(f *fakeShopify) []string {
	var out []string
	for _, p := range f.createdProducts {
		out = append(out, p.Title)
	}
	return out
}

// ==================== 导出 ====================

func TestExportProducts_SplitShirt(t *testing.T) {
	env := newTestEnv(t)
	inst := seedInstance(t, env.db, true)
	tmpl := seedShirt(t, env.db)
	ctx := context.Background()

	ids, err := env.productSvc().ExportProducts(ctx, nil, false)
	require.NoError(t, err)
	assert.Equal(t, []int64{tmpl.ID}, ids)

	require.Equal(t, []string{"Shirt - Red", "Shirt - Blue"}, createdTitles(env.remote))
	red, blue := env.remote.createdProducts[0], env.remote.createdProducts[1]

	require.Len(t, red.Variants, 2)
	assert.Equal(t, "SH-R-S", red.Variants[0].SKU)
	assert.Equal(t, "Red", red.Variants[0].Option1)
	assert.Equal(t, "S", red.Variants[0].Option2)
	assert.Equal(t, "SH-R-M", red.Variants[1].SKU)
	assert.Equal(t, "M", red.Variants[1].Option2)
	assert.Equal(t, shopify.ProductStatusDraft, red.Status)

	require.Len(t, blue.Variants, 1, "SH-B-M 没有 SKU，不导出")
	assert.Equal(t, "SH-B-S", blue.Variants[0].SKU)
	assert.Equal(t, "Blue", blue.Variants[0].Option1)

	// 远端 ID 记在 (模板, 颜色) 映射上，不在模板上
	mappings, _ := env.mappings.ListByTemplate(ctx, tmpl.ID)
	require.Len(t, mappings, 2)
	assert.Equal(t, red.ID, mappings[0].ShopifyProductID)
	assert.Equal(t, blue.ID, mappings[1].ShopifyProductID)

	got := loadTemplate(t, env.db, tmpl.ID)
	assert.True(t, got.IsShopifyProduct)
	assert.True(t, got.IsExported)
	assert.Zero(t, got.ShopifyProductID)
	require.NotNil(t, got.ShopifyInstanceID)
	assert.Equal(t, inst.ID, *got.ShopifyInstanceID)

	// 按 SKU 写回远端变体 ID
	for _, v := range got.Variants {
		if v.DefaultCode == "" {
			assert.False(t, v.IsShopifyVariant)
			assert.Zero(t, v.ShopifyVariantID)
			continue
		}
		assert.True(t, v.IsShopifyVariant, v.DefaultCode)
		assert.NotZero(t, v.ShopifyVariantID, v.DefaultCode)
		assert.Equal(t, v.ShopifyVariantID+50000, v.ShopifyInventoryItemID)
	}

	after, _ := env.instances.GetByID(ctx, inst.ID)
	assert.NotNil(t, after.LastExportProduct, "整批成功后推进水位线")
}

func TestExportProducts_UpdateTargetsSameRemoteIDs(t *testing.T) {
	env := newTestEnv(t)
	seedInstance(t, env.db, true)
	tmpl := seedShirt(t, env.db)
	ctx := context.Background()
	svc := env.productSvc()

	_, err := svc.ExportProducts(ctx, nil, true)
	require.NoError(t, err)
	require.Len(t, env.remote.createdProducts, 2)
	redID := env.remote.createdProducts[0].ID
	blueID := env.remote.createdProducts[1].ID

	// 修改模板使其进入增量集合
	time.Sleep(20 * time.Millisecond)
	require.NoError(t, env.db.Model(&model.ProductTemplate{}).Where("id = ?", tmpl.ID).
		Update("description", "<p>Linen</p>").Error)

	ids, err := svc.ExportProducts(ctx, nil, true)
	require.NoError(t, err)
	assert.Equal(t, []int64{tmpl.ID}, ids)
	assert.Len(t, env.remote.createdProducts, 2, "更新不应重复创建远端商品")

	require.Contains(t, env.remote.updatedProducts, redID)
	require.Contains(t, env.remote.updatedProducts, blueID)
	assert.Equal(t, "<p>Linen</p>", env.remote.updatedProducts[redID].BodyHTML)
	assert.Empty(t, env.remote.updatedProducts[redID].Status)
	assert.Nil(t, env.remote.updatedProducts[redID].Variants, "商品 PUT 不带变体")

	// 每个本地变体一次 PUT，带上原远端变体 ID
	require.Len(t, env.remote.updatedVariants, 3)
	created := map[string]int64{}
	for _, p := range env.remote.createdProducts {
		for _, v := range p.Variants {
			created[v.SKU] = v.ID
		}
	}
	for _, v := range env.remote.updatedVariants {
		assert.Equal(t, created[v.SKU], v.ID, v.SKU)
	}
	assert.Empty(t, env.remote.createdVariants)
}

func TestExportProducts_UpdateAddsNewVariant(t *testing.T) {
	env := newTestEnv(t)
	seedInstance(t, env.db, true)
	tmpl := seedShirt(t, env.db)
	ctx := context.Background()
	svc := env.productSvc()

	_, err := svc.ExportProducts(ctx, nil, true)
	require.NoError(t, err)
	blueID := env.remote.createdProducts[1].ID

	// Blue/M 补上 SKU
	time.Sleep(20 * time.Millisecond)
	env.db.Model(&model.ProductVariant{}).Where("template_id = ? AND default_code = ?", tmpl.ID, "").
		UpdateColumn("default_code", "SH-B-M")
	env.db.Model(&model.ProductTemplate{}).Where("id = ?", tmpl.ID).Update("name", "Shirt")

	_, err = svc.ExportProducts(ctx, nil, true)
	require.NoError(t, err)
	require.Len(t, env.remote.createdVariants, 1)
	assert.Equal(t, "SH-B-M", env.remote.createdVariants[0].SKU)
	assert.Equal(t, blueID, env.remote.createdVariants[0].ProductID)

	v, _ := env.products.FindVariantBySKU(ctx, "SH-B-M")
	require.NotNil(t, v)
	assert.Equal(t, env.remote.createdVariants[0].ID, v.ShopifyVariantID)
}

func TestExportProducts_Unsplit(t *testing.T) {
	env := newTestEnv(t)
	seedInstance(t, env.db, false)
	tmpl := seedShirt(t, env.db)

	_, err := env.productSvc().ExportProducts(context.Background(), nil, false)
	require.NoError(t, err)

	require.Len(t, env.remote.createdProducts, 1)
	p := env.remote.createdProducts[0]
	assert.Equal(t, "Shirt", p.Title)
	assert.Len(t, p.Variants, 3)

	got := loadTemplate(t, env.db, tmpl.ID)
	assert.Equal(t, p.ID, got.ShopifyProductID, "不拆分时远端 ID 记在模板上")
	mappings, _ := env.mappings.ListByTemplate(context.Background(), tmpl.ID)
	assert.Empty(t, mappings)
}

func TestExportProducts_RemoteRejectAborts(t *testing.T) {
	env := newTestEnv(t)
	inst := seedInstance(t, env.db, true)
	seedShirt(t, env.db)
	env.remote.failWith = &shopify.APIError{Method: "POST", URL: "/products.json", StatusCode: 422, Body: `{"errors":{"title":["can't be blank"]}}`}

	_, err := env.productSvc().ExportProducts(context.Background(), nil, false)
	require.Error(t, err)

	var se *SyncError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, opExportProducts, se.Op)
	assert.True(t, strings.Contains(err.Error(), `can't be blank`), "错误信息带上远端响应体")

	after, _ := env.instances.GetByID(context.Background(), inst.ID)
	assert.Nil(t, after.LastExportProduct, "失败时水位线不前移")
}

func TestExportProducts_SoftCap(t *testing.T) {
	env := newTestEnv(t)
	env.cfg.MaxProductsPerRun = 1
	inst := seedInstance(t, env.db, true)
	seedShirt(t, env.db)
	ctx := context.Background()

	_, err := env.productSvc().ExportProducts(ctx, nil, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"Shirt - Red", "Shirt - Blue"}, createdTitles(env.remote),
		"上限只在模板之间检查，已开始的模板推送全部颜色")

	after, _ := env.instances.GetByID(ctx, inst.ID)
	assert.NotNil(t, after.LastExportProduct, "模板全部处理完时正常推进水位线")
}

func TestExportProducts_SoftCapResumesNextRun(t *testing.T) {
	env := newTestEnv(t)
	env.cfg.MaxProductsPerRun = 1
	inst := seedInstance(t, env.db, true)
	seedShirt(t, env.db)
	polo := seedShirt(t, env.db)
	env.db.Model(&model.ProductTemplate{}).Where("id = ?", polo.ID).UpdateColumn("name", "Polo")
	ctx := context.Background()

	_, err := env.productSvc().ExportProducts(ctx, nil, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"Shirt - Red", "Shirt - Blue"}, createdTitles(env.remote))
	after, _ := env.instances.GetByID(ctx, inst.ID)
	assert.Nil(t, after.LastExportProduct, "首次导出被截断时不设水位线")

	_, err = env.productSvc().ExportProducts(ctx, nil, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"Shirt - Red", "Shirt - Blue", "Polo - Red", "Polo - Blue"}, createdTitles(env.remote),
		"第二次只导出剩下的模板")
	after, _ = env.instances.GetByID(ctx, inst.ID)
	assert.NotNil(t, after.LastExportProduct)

	_, err = env.productSvc().ExportProducts(ctx, nil, true)
	require.NoError(t, err)
	assert.Len(t, env.remote.createdProducts, 4, "已导出的颜色不再重复创建")

	var mappings int64
	env.db.Model(&model.RemoteProductMapping{}).Count(&mappings)
	assert.Equal(t, int64(4), mappings)
}

func TestExportProducts_InvalidInstance(t *testing.T) {
	env := newTestEnv(t)
	inst := seedInstance(t, env.db, true)
	env.db.Model(inst).UpdateColumn("size_option_position", 1)
	seedShirt(t, env.db)

	_, err := env.productSvc().ExportProducts(context.Background(), []int64{inst.ID}, false)
	assert.True(t, errors.Is(err, ErrInvalidInstance))
	assert.Empty(t, env.remote.createdProducts)
}

// ==================== 导入 ====================

func TestImportProducts_MatchBySKU(t *testing.T) {
	env := newTestEnv(t)
	seedInstance(t, env.db, true)
	tmpl := seedShirt(t, env.db)
	ctx := context.Background()

	env.remote.remoteProducts = []shopify.Product{
		{ID: 9001, Title: "Shirt - Red", Variants: []shopify.Variant{
			{ID: 91, SKU: "SH-R-S", InventoryItemID: 191},
			{ID: 92, SKU: "SH-R-M", InventoryItemID: 192},
		}},
		{ID: 9002, Title: "Unknown", Variants: []shopify.Variant{{ID: 93, SKU: "NOPE"}}},
	}

	ids, err := env.productSvc().ImportProducts(ctx, ImportOptions{})
	require.NoError(t, err)
	assert.Equal(t, []int64{tmpl.ID}, ids)

	v, _ := env.products.FindVariantBySKU(ctx, "SH-R-M")
	assert.Equal(t, int64(92), v.ShopifyVariantID)
	assert.Equal(t, int64(192), v.ShopifyInventoryItemID)

	m, _ := env.mappings.FindByShopifyProductID(ctx, 9001)
	require.NotNil(t, m, "远端商品 ID 挂到颜色映射上")
	assert.Equal(t, tmpl.ID, m.TemplateID)

	got := loadTemplate(t, env.db, tmpl.ID)
	assert.True(t, got.IsShopifyProduct)

	none, _ := env.products.FindTemplateByShopifyProductID(ctx, 9002)
	assert.Nil(t, none, "未匹配的远端商品不落地")
}

func TestImportProducts_SkipExisting(t *testing.T) {
	env := newTestEnv(t)
	inst := seedInstance(t, env.db, true)
	tmpl := seedShirt(t, env.db)
	ctx := context.Background()

	red := tmpl.AttributeLines[0].Values[0]
	env.mappings.Upsert(ctx, &model.RemoteProductMapping{
		TemplateID: tmpl.ID, AttributeValueID: red.AttributeValueID, TemplateValueID: red.ID,
		InstanceID: inst.ID, ShopifyProductID: 9001,
	})
	env.remote.remoteProducts = []shopify.Product{
		{ID: 9001, Variants: []shopify.Variant{{ID: 91, SKU: "SH-R-S"}}},
	}

	ids, err := env.productSvc().ImportProducts(ctx, ImportOptions{SkipExisting: true})
	require.NoError(t, err)
	assert.Empty(t, ids)
	v, _ := env.products.FindVariantBySKU(ctx, "SH-R-S")
	assert.Zero(t, v.ShopifyVariantID)
}

func TestImportProducts_CreateOnImport(t *testing.T) {
	env := newTestEnv(t)
	env.cfg.CreateProductsOnImport = true
	seedInstance(t, env.db, false)
	ctx := context.Background()

	env.remote.remoteProducts = []shopify.Product{{
		ID: 7001, Title: "Cap", BodyHTML: "<p>Cap</p>", Tags: "hat, summer",
		Options: []shopify.Option{
			{Name: "Color", Position: 1, Values: []string{"Black", "White"}},
		},
		Variants: []shopify.Variant{
			{ID: 71, SKU: "CAP-BK", Price: "12.50", Option1: "Black", InventoryItemID: 171},
			{ID: 72, SKU: "CAP-WH", Price: "12.50", Option1: "White", InventoryItemID: 172},
		},
	}}

	ids, err := env.productSvc().ImportProducts(ctx, ImportOptions{})
	require.NoError(t, err)
	require.Len(t, ids, 1)

	tmpl := loadTemplate(t, env.db, ids[0])
	assert.Equal(t, "Cap", tmpl.Name)
	assert.Equal(t, model.StringArray{"hat", "summer"}, tmpl.Tags)
	assert.Equal(t, int64(7001), tmpl.ShopifyProductID)
	require.Len(t, tmpl.AttributeLines, 1)
	assert.Len(t, tmpl.AttributeLines[0].Values, 2)
	require.Len(t, tmpl.Variants, 2)
	assert.Equal(t, int64(71), tmpl.Variants[0].ShopifyVariantID)
	require.Len(t, tmpl.Variants[0].Values, 1)
	assert.Equal(t, "Black", tmpl.Variants[0].Values[0].Name())
	assert.Equal(t, "12.5", tmpl.Variants[0].ListPrice.String())
}
