package service

import (
	"fmt"
	"sort"
	"strings"

	"shopify_split_v1_202610/internal/model"
	"shopify_split_v1_202610/pkg/shopify"
)

// PayloadBuilder 把导出分组转换成远端商品结构
// 颜色/尺码所在选项槽位按店铺配置，同一店铺的所有商品一致
type PayloadBuilder struct {
	ColorPosition int
	SizePosition  int
}

// NewPayloadBuilder 槽位非法时返回 ErrInvalidInstance
func NewPayloadBuilder(inst *model.StoreInstance) (*PayloadBuilder, error) {
	if err := inst.ValidateOptionPositions(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInstance, err)
	}
	return &PayloadBuilder{
		ColorPosition: inst.ColorOptionPosition,
		SizePosition:  inst.SizeOptionPosition,
	}, nil
}

// Build 完整商品 (创建用)；update=true 时变体带上已保存的远端 ID，且不设置 status
func (b *PayloadBuilder) Build(tmpl *model.ProductTemplate, g *ExportGroup, update bool) *shopify.Product {
	p := b.Header(tmpl, g)
	if !update {
		p.Status = shopify.ProductStatusDraft
	}
	p.Options = b.options(tmpl, g)
	p.Variants = make([]shopify.Variant, 0, len(g.Variants))
	for i := range g.Variants {
		p.Variants = append(p.Variants, b.Variant(tmpl, g, &g.Variants[i], update))
	}
	return p
}

// Header 更新商品时只发送 title/body_html/tags
func (b *PayloadBuilder) Header(tmpl *model.ProductTemplate, g *ExportGroup) *shopify.Product {
	title := tmpl.Name
	if g.Split && g.ColorValue != nil {
		title = fmt.Sprintf("%s - %s", tmpl.Name, g.ColorValue.Name())
	}
	return &shopify.Product{
		Title:    title,
		BodyHTML: tmpl.Description,
		Tags:     strings.Join(tmpl.Tags, ", "),
	}
}

// Variant 单个变体；价格以字符串传输
func (b *PayloadBuilder) Variant(tmpl *model.ProductTemplate, g *ExportGroup, v *model.ProductVariant, update bool) shopify.Variant {
	price := v.ListPrice
	if price.IsZero() {
		price = tmpl.ListPrice
	}
	out := shopify.Variant{
		Price:               price.StringFixed(2),
		SKU:                 strings.TrimSpace(v.DefaultCode),
		Barcode:             v.Barcode,
		InventoryManagement: shopify.InventoryManagementShopify,
	}
	if update && v.ShopifyVariantID != 0 {
		out.ID = v.ShopifyVariantID
	}

	if g.Split {
		if g.ColorValue != nil {
			out.SetOption(b.ColorPosition, g.ColorValue.Name())
		}
		out.SetOption(b.SizePosition, sizeNameOf(tmpl, v))
		return out
	}

	for i, line := range tmpl.AttributeLines {
		if i >= maxRemoteOptions {
			break
		}
		if val := valueOnLine(v, line.ID); val != nil {
			out.SetOption(i+1, val.Name())
		}
	}
	return out
}

func (b *PayloadBuilder) options(tmpl *model.ProductTemplate, g *ExportGroup) []shopify.Option {
	if g.Split {
		opts := []shopify.Option{
			{Name: "Color", Position: b.ColorPosition, Values: g.Colors},
			{Name: "Size", Position: b.SizePosition, Values: g.Sizes},
		}
		sort.Slice(opts, func(i, j int) bool { return opts[i].Position < opts[j].Position })
		return opts
	}

	if len(tmpl.AttributeLines) == 0 {
		return nil
	}
	opts := make([]shopify.Option, 0, maxRemoteOptions)
	for i, line := range tmpl.AttributeLines {
		if i >= maxRemoteOptions {
			break
		}
		name := ""
		if line.Attribute != nil {
			name = line.Attribute.Name
		}
		opts = append(opts, shopify.Option{Name: name, Position: i + 1, Values: exportedValues(line, g.Variants)})
	}
	return opts
}

// exportedValues 属性线上实际出现在导出变体中的值，按属性线顺序去重
func exportedValues(line model.AttributeLine, variants []model.ProductVariant) []string {
	used := make(map[string]bool, len(variants))
	for k := range variants {
		if val := valueOnLine(&variants[k], line.ID); val != nil {
			used[val.Name()] = true
		}
	}
	values := make([]string, 0, len(used))
	for j := range line.Values {
		n := line.Values[j].Name()
		if used[n] {
			values = append(values, n)
			delete(used, n)
		}
	}
	return values
}
