package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"shopify_split_v1_202610/internal/config"
	"shopify_split_v1_202610/internal/model"
	"shopify_split_v1_202610/internal/repository"
	"shopify_split_v1_202610/pkg/shopify"
)

var hundred = decimal.NewFromInt(100)

// OrderLineTranslator 远端订单行/运费行 -> 本地订单行
// 单价含税，按税行 rate 之和反算不含税单价
type OrderLineTranslator struct {
	products     repository.ProductRepository
	orders       repository.SaleOrderRepository
	policy       string
	genericSKU   string
	shippingRate decimal.Decimal
	logger       *zap.Logger
}

func NewOrderLineTranslator(products repository.ProductRepository, orders repository.SaleOrderRepository, cfg config.SyncConfig, logger *zap.Logger) *OrderLineTranslator {
	return &OrderLineTranslator{
		products:     products,
		orders:       orders,
		policy:       cfg.UnmatchedLinePolicy,
		genericSKU:   cfg.GenericProductSKU,
		shippingRate: decimal.NewFromFloat(cfg.DefaultShippingTaxRate),
		logger:       logger,
	}
}

// Translate 任一商品行找不到本地变体 (fail 策略) 时返回 ErrProductNotMapped
func (t *OrderLineTranslator) Translate(ctx context.Context, instanceID int64, o *shopify.Order) ([]model.SaleOrderLine, error) {
	discounts := allocateDiscount(o)
	lines := make([]model.SaleOrderLine, 0, len(o.LineItems)+1)

	for i := range o.LineItems {
		item := &o.LineItems[i]
		variant, err := t.resolveVariant(ctx, item)
		if err != nil {
			return nil, err
		}

		rate, titles := sumTaxLines(item.TaxLines)
		priceExcl := NetPrice(item.Price.Sub(item.TotalDiscount), rate)

		line := model.SaleOrderLine{
			VariantID: &variant.ID,
			Name:      item.Title,
			Quantity:  item.Quantity,
			PriceUnit: priceExcl,
			TaxRate:   rate,
			TaxTitles: titles,
		}
		subtotal := priceExcl.Mul(decimal.NewFromInt(int64(item.Quantity)))
		if d := discounts[i]; d.IsPositive() && subtotal.IsPositive() {
			line.Discount = d.Div(subtotal).Mul(hundred).Round(4)
		}
		lines = append(lines, line)
	}

	for _, sl := range o.AllShippingLines() {
		rate, titles := sumTaxLines(sl.TaxLines)
		if len(sl.TaxLines) == 0 {
			rate = t.shippingRate
		}
		net := NetPrice(sl.Price, rate)
		if !net.IsPositive() {
			continue
		}
		carrier, err := t.orders.FindOrCreateCarrier(ctx, sl.Title, instanceID)
		if err != nil {
			return nil, fmt.Errorf("创建承运商失败 %q: %w", sl.Title, err)
		}
		lines = append(lines, model.SaleOrderLine{
			CarrierID:  &carrier.ID,
			Name:       sl.Title,
			Quantity:   1,
			PriceUnit:  net,
			TaxRate:    rate,
			TaxTitles:  titles,
			IsDelivery: true,
		})
	}
	return lines, nil
}

// resolveVariant 远端变体 ID 优先；远端商品 ID 只在唯一对应一个变体时采用
func (t *OrderLineTranslator) resolveVariant(ctx context.Context, item *shopify.LineItem) (*model.ProductVariant, error) {
	v, err := t.products.FindVariantByShopifyID(ctx, item.VariantID)
	if err != nil || v != nil {
		return v, err
	}

	if item.ProductID != 0 {
		list, err := t.products.ListVariantsByShopifyProductID(ctx, item.ProductID)
		if err != nil {
			return nil, err
		}
		if len(list) == 1 {
			return &list[0], nil
		}
	}

	if t.policy == config.UnmatchedLineGeneric {
		generic, err := t.products.FindVariantBySKU(ctx, t.genericSKU)
		if err != nil {
			return nil, err
		}
		if generic != nil {
			t.logger.Warn("订单行未匹配，使用通用商品",
				zap.String("title", item.Title), zap.Int64("variant_id", item.VariantID), zap.String("generic_sku", t.genericSKU))
			return generic, nil
		}
	}

	return nil, fmt.Errorf("%w: %s (product %d, variant %d)", ErrProductNotMapped, item.Title, item.ProductID, item.VariantID)
}

// NetPrice round(gross / (1 + rate), 2)，rate 为 0 时原样返回
func NetPrice(gross, rate decimal.Decimal) decimal.Decimal {
	if rate.IsZero() {
		return gross
	}
	return gross.Div(decimal.NewFromInt(1).Add(rate)).Round(2)
}

// sumTaxLines 税率求和；金额为 0 的税行不计入税名
func sumTaxLines(taxes []shopify.TaxLine) (decimal.Decimal, model.StringArray) {
	rate := decimal.Zero
	var titles model.StringArray
	for _, tl := range taxes {
		rate = rate.Add(tl.Rate)
		if !tl.Price.IsZero() && tl.Title != "" {
			titles = append(titles, tl.Title)
		}
	}
	return rate, titles
}

// allocateDiscount 订单级折扣按行小计占比分摊，尾差计入最后一行
func allocateDiscount(o *shopify.Order) []decimal.Decimal {
	out := make([]decimal.Decimal, len(o.LineItems))
	if o.AppliedDiscount == nil || !o.AppliedDiscount.Amount.IsPositive() || len(o.LineItems) == 0 {
		return out
	}
	amount := o.AppliedDiscount.Amount

	total := decimal.Zero
	subtotals := make([]decimal.Decimal, len(o.LineItems))
	for i, item := range o.LineItems {
		subtotals[i] = item.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
		total = total.Add(subtotals[i])
	}
	if !total.IsPositive() {
		return out
	}

	allocated := decimal.Zero
	for i := range subtotals {
		if i == len(subtotals)-1 {
			out[i] = amount.Sub(allocated)
			break
		}
		out[i] = amount.Mul(subtotals[i]).Div(total).Round(2)
		allocated = allocated.Add(out[i])
	}
	return out
}
