package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopify_split_v1_202610/internal/model"
)

func TestProductRepo_GetTemplate_Preload(t *testing.T) {
	db := setupRepoTestDB(t)
	repo := NewProductRepository(db)
	tmpl := seedShirt(t, db, true)

	got, err := repo.GetTemplate(context.Background(), tmpl.ID)
	require.NoError(t, err)
	require.Len(t, got.AttributeLines, 2)
	assert.True(t, got.AttributeLines[0].Attribute.IsColor())
	assert.Len(t, got.AttributeLines[0].Values, 2)
	assert.Equal(t, "Red", got.AttributeLines[0].Values[0].Name())

	require.Len(t, got.Variants, 4)
	assert.Len(t, got.Variants[0].Values, 2)
	assert.False(t, got.Variants[3].HasSKU())
}

func TestProductRepo_ListExportCandidates(t *testing.T) {
	db := setupRepoTestDB(t)
	repo := NewProductRepository(db)
	ctx := context.Background()

	published := seedShirt(t, db, true)
	seedShirt(t, db, false)

	// 无水位线：只取已发布且未同步的
	list, err := repo.ListExportCandidates(ctx, ExportFilter{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, published.ID, list[0].ID)

	require.NoError(t, repo.MarkTemplateExported(ctx, published.ID, 1, 0))
	list, _ = repo.ListExportCandidates(ctx, ExportFilter{})
	assert.Len(t, list, 0, "已同步的模板不再出现在首次导出集合")

	// 有水位线：按 updated_at 判断，写回标记不应刷新 updated_at
	since := time.Now().Add(time.Hour)
	list, _ = repo.ListExportCandidates(ctx, ExportFilter{Since: &since})
	assert.Len(t, list, 0)

	past := time.Now().Add(-time.Hour)
	list, _ = repo.ListExportCandidates(ctx, ExportFilter{Since: &past})
	assert.Len(t, list, 1)
}

func TestProductRepo_MarkTemplateExported_KeepsUpdatedAt(t *testing.T) {
	db := setupRepoTestDB(t)
	repo := NewProductRepository(db)
	ctx := context.Background()
	tmpl := seedShirt(t, db, true)

	before, _ := repo.GetTemplate(ctx, tmpl.ID)
	time.Sleep(10 * time.Millisecond)
	require.NoError(t, repo.MarkTemplateExported(ctx, tmpl.ID, 3, 555))

	after, _ := repo.GetTemplate(ctx, tmpl.ID)
	assert.True(t, after.IsShopifyProduct)
	assert.True(t, after.IsExported)
	assert.Equal(t, int64(555), after.ShopifyProductID)
	require.NotNil(t, after.ShopifyInstanceID)
	assert.Equal(t, int64(3), *after.ShopifyInstanceID)
	assert.True(t, before.UpdatedAt.Equal(after.UpdatedAt), "写回不应刷新 updated_at")
}

func TestProductRepo_VariantLookup(t *testing.T) {
	db := setupRepoTestDB(t)
	repo := NewProductRepository(db)
	ctx := context.Background()
	tmpl := seedShirt(t, db, true)

	v, err := repo.FindVariantBySKU(ctx, "SH-R-M")
	require.NoError(t, err)
	require.NotNil(t, v)

	require.NoError(t, repo.UpdateVariantRemoteIDs(ctx, v.ID, 9001, 7001, ""))

	byRemote, _ := repo.FindVariantByShopifyID(ctx, 9001)
	require.NotNil(t, byRemote)
	assert.Equal(t, v.ID, byRemote.ID)
	assert.True(t, byRemote.IsShopifyVariant)
	assert.Equal(t, int64(7001), byRemote.ShopifyInventoryItemID)

	// 远端 ID 不匹配时按 SKU 命中
	bySKU, _ := repo.FindVariantForRemote(ctx, 12345, "SH-B-S")
	require.NotNil(t, bySKU)
	assert.Equal(t, "SH-B-S", bySKU.DefaultCode)

	none, err := repo.FindVariantForRemote(ctx, 12345, "")
	assert.NoError(t, err)
	assert.Nil(t, none)

	// 不拆分：远端商品 ID 挂在模板上
	require.NoError(t, repo.MarkTemplateExported(ctx, tmpl.ID, 1, 4242))
	variants, err := repo.ListVariantsByShopifyProductID(ctx, 4242)
	require.NoError(t, err)
	assert.Len(t, variants, 4)
}

func TestProductRepo_ListVariantsByShopifyProductID_Mapping(t *testing.T) {
	db := setupRepoTestDB(t)
	repo := NewProductRepository(db)
	maps := NewRemoteProductMappingRepository(db)
	ctx := context.Background()
	tmpl := seedShirt(t, db, true)

	full, _ := repo.GetTemplate(ctx, tmpl.ID)
	red := full.AttributeLines[0].Values[0]
	require.NoError(t, maps.Upsert(ctx, &model.RemoteProductMapping{
		TemplateID: tmpl.ID, AttributeValueID: red.AttributeValueID, TemplateValueID: red.ID, ShopifyProductID: 88,
	}))

	variants, err := repo.ListVariantsByShopifyProductID(ctx, 88)
	require.NoError(t, err)
	require.Len(t, variants, 2)
	assert.Equal(t, "SH-R-S", variants[0].DefaultCode)
	assert.Equal(t, "SH-R-M", variants[1].DefaultCode)
}

func TestProductRepo_FindOrCreateAttributeValue(t *testing.T) {
	db := setupRepoTestDB(t)
	repo := NewProductRepository(db)
	ctx := context.Background()

	a1, err := repo.FindOrCreateAttribute(ctx, " Color ")
	require.NoError(t, err)
	a2, _ := repo.FindOrCreateAttribute(ctx, "Color")
	assert.Equal(t, a1.ID, a2.ID)

	v1, _ := repo.FindOrCreateAttributeValue(ctx, a1.ID, "Green")
	v2, _ := repo.FindOrCreateAttributeValue(ctx, a1.ID, "Green")
	assert.Equal(t, v1.ID, v2.ID)
}
