package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"shopify_split_v1_202610/internal/config"
	"shopify_split_v1_202610/internal/model"
	"shopify_split_v1_202610/pkg/shopify"
)

// ShopifyAPI 同步流程用到的远端接口，*shopify.Client 实现它
type ShopifyAPI interface {
	CreateProduct(ctx context.Context, p *shopify.Product) (*shopify.Product, error)
	UpdateProduct(ctx context.Context, id int64, p *shopify.Product) (*shopify.Product, error)
	UpdateVariant(ctx context.Context, v *shopify.Variant) (*shopify.Variant, error)
	CreateVariant(ctx context.Context, productID int64, v *shopify.Variant) (*shopify.Variant, error)
	ListProducts(ctx context.Context, params shopify.ListParams) ([]shopify.Product, error)

	ListCustomers(ctx context.Context, params shopify.ListParams) ([]shopify.Customer, error)
	CreateCustomer(ctx context.Context, c *shopify.Customer) (*shopify.Customer, error)
	UpdateCustomer(ctx context.Context, id int64, c *shopify.Customer) (*shopify.Customer, error)

	ListOrders(ctx context.Context, params shopify.ListParams) ([]shopify.Order, error)
	ListDraftOrders(ctx context.Context, params shopify.ListParams) ([]shopify.Order, error)
}

var _ ShopifyAPI = (*shopify.Client)(nil)

// ClientFactory 按店铺构建客户端
type ClientFactory func(inst *model.StoreInstance) (ShopifyAPI, error)

// NewClientFactory 使用全局出站配置 + 店铺凭据构建 resty 客户端
func NewClientFactory(cfg config.ShopifyConfig, logger *zap.Logger) ClientFactory {
	return func(inst *model.StoreInstance) (ShopifyAPI, error) {
		if inst.ShopifyHost == "" || inst.ShopifySharedSecret == "" {
			return nil, fmt.Errorf("%w: 店铺 %d 缺少 host 或 access token", ErrInvalidInstance, inst.ID)
		}
		return shopify.NewClient(shopify.Config{
			BaseURL:           shopify.BuildBaseURL(cfg.BaseURLTemplate, inst.ShopifyHost, inst.ShopifyVersion),
			AccessToken:       inst.ShopifySharedSecret,
			RequestsPerSecond: cfg.RequestsPerSecond,
			Burst:             cfg.Burst,
			PageLimit:         cfg.PageLimit,
			Timeout:           cfg.Timeout,
			Debug:             cfg.Debug,
		}, logger.With(zap.Int64("instance_id", inst.ID))), nil
	}
}
