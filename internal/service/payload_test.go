package service

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"shopify_split_v1_202610/internal/model"
	"shopify_split_v1_202610/pkg/shopify"
)

func TestNewPayloadBuilder_InvalidPositions(t *testing.T) {
	for _, tc := range []struct{ color, size int }{{1, 1}, {0, 2}, {1, 4}} {
		_, err := NewPayloadBuilder(&model.StoreInstance{ColorOptionPosition: tc.color, SizeOptionPosition: tc.size})
		if !errors.Is(err, ErrInvalidInstance) {
			t.Errorf("positions (%d,%d): err = %v, want ErrInvalidInstance", tc.color, tc.size, err)
		}
	}
}

func TestPayloadBuilder_SplitCreate(t *testing.T) {
	db := setupSvcTestDB(t)
	tmpl := seedShirt(t, db)
	groups := NewVariantPartitioner(nil).Partition(tmpl, true)

	b, err := NewPayloadBuilder(&model.StoreInstance{ColorOptionPosition: 1, SizeOptionPosition: 2})
	require.NoError(t, err)

	p := b.Build(tmpl, &groups[0], false)
	assert.Equal(t, "Shirt - Red", p.Title)
	assert.Equal(t, "<p>Cotton</p>", p.BodyHTML)
	assert.Equal(t, "summer, cotton", p.Tags)
	assert.Equal(t, shopify.ProductStatusDraft, p.Status)

	require.Len(t, p.Options, 2)
	assert.Equal(t, shopify.Option{Name: "Color", Position: 1, Values: []string{"Red"}}, p.Options[0])
	assert.Equal(t, shopify.Option{Name: "Size", Position: 2, Values: []string{"M", "S"}}, p.Options[1])

	require.Len(t, p.Variants, 2)
	v := p.Variants[0]
	assert.Equal(t, "SH-R-S", v.SKU)
	assert.Equal(t, "Red", v.Option1)
	assert.Equal(t, "S", v.Option2)
	assert.Equal(t, "19.90", v.Price)
	assert.Equal(t, shopify.InventoryManagementShopify, v.InventoryManagement)
	assert.Zero(t, v.ID, "创建时不带远端变体 ID")
	assert.Equal(t, "M", p.Variants[1].Option2)
}

func TestPayloadBuilder_SwappedPositions(t *testing.T) {
	db := setupSvcTestDB(t)
	tmpl := seedShirt(t, db)
	groups := NewVariantPartitioner(nil).Partition(tmpl, true)

	b, _ := NewPayloadBuilder(&model.StoreInstance{ColorOptionPosition: 3, SizeOptionPosition: 1})
	p := b.Build(tmpl, &groups[1], false)

	assert.Equal(t, "Size", p.Options[0].Name)
	assert.Equal(t, 1, p.Options[0].Position)
	assert.Equal(t, "Color", p.Options[1].Name)
	assert.Equal(t, 3, p.Options[1].Position)

	require.Len(t, p.Variants, 1)
	assert.Equal(t, "S", p.Variants[0].Option1)
	assert.Equal(t, "", p.Variants[0].Option2)
	assert.Equal(t, "Blue", p.Variants[0].Option3)
}

func TestPayloadBuilder_UpdateCarriesVariantID(t *testing.T) {
	db := setupSvcTestDB(t)
	tmpl := seedShirt(t, db)
	tmpl.Variants[0].ShopifyVariantID = 777
	groups := NewVariantPartitioner(nil).Partition(tmpl, true)

	b, _ := NewPayloadBuilder(&model.StoreInstance{ColorOptionPosition: 1, SizeOptionPosition: 2})
	p := b.Build(tmpl, &groups[0], true)
	assert.Empty(t, p.Status, "更新不修改状态")
	assert.Equal(t, int64(777), p.Variants[0].ID)
	assert.Zero(t, p.Variants[1].ID)

	h := b.Header(tmpl, &groups[0])
	assert.Nil(t, h.Variants)
	assert.Nil(t, h.Options)
	assert.Equal(t, "Shirt - Red", h.Title)
}

func TestPayloadBuilder_Unsplit(t *testing.T) {
	db := setupSvcTestDB(t)
	tmpl := seedShirt(t, db)
	groups := NewVariantPartitioner(nil).Partition(tmpl, false)

	b, _ := NewPayloadBuilder(&model.StoreInstance{ColorOptionPosition: 2, SizeOptionPosition: 1})
	p := b.Build(tmpl, &groups[0], false)

	assert.Equal(t, "Shirt", p.Title)
	require.Len(t, p.Options, 2)
	assert.Equal(t, shopify.Option{Name: "Color", Position: 1, Values: []string{"Red", "Blue"}}, p.Options[0])
	assert.Equal(t, shopify.Option{Name: "Size", Position: 2, Values: []string{"S", "M"}}, p.Options[1])

	require.Len(t, p.Variants, 3)
	assert.Equal(t, "Blue", p.Variants[2].Option1, "不拆分时按属性线顺序占用槽位")
	assert.Equal(t, "S", p.Variants[2].Option2)
}

func TestPayloadBuilder_UnsplitWithoutLines(t *testing.T) {
	tmpl := &model.ProductTemplate{Name: "Mug"}
	g := &ExportGroup{Variants: []model.ProductVariant{{DefaultCode: "MUG"}}}

	b, _ := NewPayloadBuilder(&model.StoreInstance{ColorOptionPosition: 1, SizeOptionPosition: 2})
	p := b.Build(tmpl, g, false)
	assert.Nil(t, p.Options)
	require.Len(t, p.Variants, 1)
	assert.Equal(t, "0.00", p.Variants[0].Price)
	assert.Empty(t, p.Variants[0].Option1)
}

type memLine struct {
	attr   string
	values []string
}

type memVariant struct {
	sku    string
	values []string // 每条属性线一个值，按属性线顺序
}

// memTemplate 内存中构造模板，ID 按属性线顺序编号
func memTemplate(name string, lines []memLine, variants []memVariant) *model.ProductTemplate {
	tmpl := &model.ProductTemplate{Name: name}
	byName := make([]map[string]model.TemplateAttributeValue, len(lines))
	for i, l := range lines {
		line := model.AttributeLine{AttributeID: int64(i + 1), Attribute: &model.ProductAttribute{Name: l.attr}, Sequence: i + 1}
		line.ID = int64(i + 1)
		byName[i] = map[string]model.TemplateAttributeValue{}
		for j, v := range l.values {
			tv := model.TemplateAttributeValue{
				LineID:         line.ID,
				AttributeID:    line.AttributeID,
				AttributeValue: &model.ProductAttributeValue{Name: v},
			}
			tv.ID = int64((i+1)*100 + j)
			line.Values = append(line.Values, tv)
			byName[i][v] = tv
		}
		tmpl.AttributeLines = append(tmpl.AttributeLines, line)
	}
	for _, mv := range variants {
		v := model.ProductVariant{DefaultCode: mv.sku}
		for i, name := range mv.values {
			v.Values = append(v.Values, byName[i][name])
		}
		tmpl.Variants = append(tmpl.Variants, v)
	}
	return tmpl
}

func TestPayloadBuilder_UnsplitTruncatesExtraLines(t *testing.T) {
	tmpl := memTemplate("Jacket", []memLine{
		{"Color", []string{"Black"}},
		{"Size", []string{"L"}},
		{"Material", []string{"Wool"}},
		{"Fit", []string{"Slim"}},
	}, []memVariant{{"JK-1", []string{"Black", "L", "Wool", "Slim"}}})

	core, logs := observer.New(zap.WarnLevel)
	groups := NewVariantPartitioner(zap.New(core)).Partition(tmpl, false)
	require.Len(t, groups, 1)
	assert.Equal(t, 1, logs.FilterMessage("属性线超过远端选项上限，只导出前 3 条").Len())

	b, _ := NewPayloadBuilder(&model.StoreInstance{ColorOptionPosition: 1, SizeOptionPosition: 2})
	p := b.Build(tmpl, &groups[0], false)

	require.Len(t, p.Options, 3)
	assert.Equal(t, shopify.Option{Name: "Material", Position: 3, Values: []string{"Wool"}}, p.Options[2])
	for _, o := range p.Options {
		assert.NotContains(t, o.Values, "Slim", "第 4 条属性线不导出")
	}

	require.Len(t, p.Variants, 1)
	v := p.Variants[0]
	assert.Equal(t, "Black", v.Option1)
	assert.Equal(t, "L", v.Option2)
	assert.Equal(t, "Wool", v.Option3)
}

func TestPayloadBuilder_UnsplitOptionsFromExportedVariants(t *testing.T) {
	tmpl := memTemplate("Cap", []memLine{
		{"Color", []string{"Red", "Green", "Blue"}},
	}, []memVariant{
		{"CAP-B", []string{"Blue"}},
		{"CAP-R", []string{"Red"}},
		{"CAP-R2", []string{"Red"}},
		{"", []string{"Green"}},
	})
	groups := NewVariantPartitioner(nil).Partition(tmpl, false)
	require.Len(t, groups, 1)

	b, _ := NewPayloadBuilder(&model.StoreInstance{ColorOptionPosition: 1, SizeOptionPosition: 2})
	p := b.Build(tmpl, &groups[0], false)

	require.Len(t, p.Options, 1)
	assert.Equal(t, []string{"Red", "Blue"}, p.Options[0].Values,
		"只含带 SKU 变体上的值，去重并保持属性线顺序")
	assert.Len(t, p.Variants, 3)
}
