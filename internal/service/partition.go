package service

import (
	"fmt"
	"sort"

	"go.uber.org/zap"

	"shopify_split_v1_202610/internal/model"
)

// DefaultSizeName 变体除颜色外没有其它属性值时使用的尺码名
const DefaultSizeName = "Default"

// maxRemoteOptions Shopify 商品最多 3 个选项
const maxRemoteOptions = 3

// ExportGroup 一个待导出的远端商品
// 拆分模式下对应模板内的一个颜色值，不拆分时对应整个模板
type ExportGroup struct {
	Split      bool
	ColorValue *model.TemplateAttributeValue // 拆分时远端 ID 的归属
	Variants   []model.ProductVariant        // 仅含有 SKU 的变体

	Colors []string // 去重后排序
	Sizes  []string
}

// Label 日志用的分组描述
func (g *ExportGroup) Label() string {
	if !g.Split || g.ColorValue == nil {
		return "unsplit"
	}
	return "color=" + g.ColorValue.Name()
}

// VariantPartitioner 决定模板如何切分成远端商品
type VariantPartitioner struct {
	logger *zap.Logger
}

func NewVariantPartitioner(logger *zap.Logger) *VariantPartitioner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &VariantPartitioner{logger: logger}
}

// Partition 返回模板的导出分组
// split=false 或模板没有颜色属性线时返回一个包含全部带 SKU 变体的分组
func (p *VariantPartitioner) Partition(tmpl *model.ProductTemplate, split bool) []ExportGroup {
	colorLine := findColorLine(tmpl)
	if !split || colorLine == nil {
		return p.unsplit(tmpl)
	}

	groups := make([]ExportGroup, 0, len(colorLine.Values))
	for i := range colorLine.Values {
		color := &colorLine.Values[i]

		var variants []model.ProductVariant
		for _, v := range tmpl.Variants {
			if v.HasValue(color.ID) && v.HasSKU() {
				variants = append(variants, v)
			}
		}
		if len(variants) == 0 {
			p.logger.Warn("颜色下没有带 SKU 的变体，跳过",
				zap.Int64("template_id", tmpl.ID), zap.String("color", color.Name()))
			continue
		}

		sizes := make([]string, 0, len(variants))
		for i := range variants {
			sizes = append(sizes, sizeNameOf(tmpl, &variants[i]))
		}
		groups = append(groups, ExportGroup{
			Split:      true,
			ColorValue: color,
			Variants:   variants,
			Colors:     []string{color.Name()},
			Sizes:      uniqueSorted(sizes),
		})
	}
	return groups
}

func (p *VariantPartitioner) unsplit(tmpl *model.ProductTemplate) []ExportGroup {
	var variants []model.ProductVariant
	for _, v := range tmpl.Variants {
		if v.HasSKU() {
			variants = append(variants, v)
		}
	}
	if len(variants) == 0 {
		p.logger.Warn("模板没有带 SKU 的变体，跳过", zap.Int64("template_id", tmpl.ID))
		return nil
	}
	if len(tmpl.AttributeLines) > maxRemoteOptions {
		p.logger.Warn("属性线超过远端选项上限，只导出前 3 条",
			zap.Int64("template_id", tmpl.ID), zap.Int("lines", len(tmpl.AttributeLines)))
	}

	group := ExportGroup{Variants: variants}
	var colors, sizes []string
	for i := range variants {
		if c := colorValueOf(&variants[i]); c != nil {
			colors = append(colors, c.Name())
		}
		sizes = append(sizes, sizeNameOf(tmpl, &variants[i]))
	}
	group.Colors = uniqueSorted(colors)
	group.Sizes = uniqueSorted(sizes)
	return []ExportGroup{group}
}

// ==================== 属性辅助 ====================

func findColorLine(tmpl *model.ProductTemplate) *model.AttributeLine {
	for i := range tmpl.AttributeLines {
		if tmpl.AttributeLines[i].Attribute.IsColor() {
			return &tmpl.AttributeLines[i]
		}
	}
	return nil
}

// colorValueOf 变体上的颜色值
func colorValueOf(v *model.ProductVariant) *model.TemplateAttributeValue {
	for i := range v.Values {
		if v.Values[i].IsColor() {
			return &v.Values[i]
		}
	}
	return nil
}

// valueOnLine 变体在指定属性线上的取值
func valueOnLine(v *model.ProductVariant, lineID int64) *model.TemplateAttributeValue {
	for i := range v.Values {
		if v.Values[i].LineID == lineID {
			return &v.Values[i]
		}
	}
	return nil
}

// sizeNameOf 按属性线顺序取第一个非颜色值
func sizeNameOf(tmpl *model.ProductTemplate, v *model.ProductVariant) string {
	for i := range tmpl.AttributeLines {
		line := &tmpl.AttributeLines[i]
		if line.Attribute.IsColor() {
			continue
		}
		if val := valueOnLine(v, line.ID); val != nil && val.Name() != "" {
			return val.Name()
		}
	}
	return DefaultSizeName
}

func uniqueSorted(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok || s == "" {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

func groupTarget(tmpl *model.ProductTemplate, g *ExportGroup) string {
	return fmt.Sprintf("template %d %s", tmpl.ID, g.Label())
}
