package shopify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// DefaultBaseURLTemplate {host}.myshopify.com/admin/api/{version}
const DefaultBaseURLTemplate = "https://%s.myshopify.com/admin/api/%s"

// DefaultPageLimit Shopify 单页上限
const DefaultPageLimit = 250

// BuildBaseURL 根据店铺 host 与 API 版本拼接基础地址
func BuildBaseURL(tpl, host, version string) string {
	if tpl == "" {
		tpl = DefaultBaseURLTemplate
	}
	return fmt.Sprintf(tpl, host, version)
}

// Config 客户端配置
type Config struct {
	BaseURL     string
	AccessToken string

	// 出站限速，RequestsPerSecond <= 0 表示不限速
	RequestsPerSecond float64
	Burst             int

	PageLimit int
	Timeout   time.Duration
	Debug     bool
}

// Client Shopify REST 客户端
// 不做重试：写请求失败直接返回 APIError，由调用方决定中止
type Client struct {
	http      *resty.Client
	limiter   *rate.Limiter
	pageLimit int
	logger    *zap.Logger
}

// NewClient 创建客户端
func NewClient(cfg Config, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}

	httpClient := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetDebug(cfg.Debug).
		SetHeader("X-Shopify-Access-Token", cfg.AccessToken).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", "Shopify-Split-Go/1.0")
	if cfg.Timeout > 0 {
		httpClient.SetTimeout(cfg.Timeout)
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.RequestsPerSecond > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}

	pageLimit := cfg.PageLimit
	if pageLimit <= 0 || pageLimit > DefaultPageLimit {
		pageLimit = DefaultPageLimit
	}

	return &Client{
		http:      httpClient,
		limiter:   limiter,
		pageLimit: pageLimit,
		logger:    logger.Named("shopify"),
	}
}

// ==================== 商品 ====================

// CreateProduct POST /products.json
func (c *Client) CreateProduct(ctx context.Context, p *Product) (*Product, error) {
	var out ProductEnvelope
	if err := c.send(ctx, http.MethodPost, "products.json", ProductEnvelope{Product: p}, &out); err != nil {
		return nil, err
	}
	if out.Product == nil {
		return nil, fmt.Errorf("创建商品响应缺少 product 字段")
	}
	return out.Product, nil
}

// UpdateProduct PUT /products/{id}.json
func (c *Client) UpdateProduct(ctx context.Context, id int64, p *Product) (*Product, error) {
	var out ProductEnvelope
	path := fmt.Sprintf("products/%d.json", id)
	if err := c.send(ctx, http.MethodPut, path, ProductEnvelope{Product: p}, &out); err != nil {
		return nil, err
	}
	if out.Product == nil {
		return nil, fmt.Errorf("更新商品 %d 响应缺少 product 字段", id)
	}
	return out.Product, nil
}

// UpdateVariant PUT /variants/{id}.json
func (c *Client) UpdateVariant(ctx context.Context, v *Variant) (*Variant, error) {
	if v.ID == 0 {
		return nil, fmt.Errorf("变体缺少远端 ID, sku=%s", v.SKU)
	}
	var out VariantEnvelope
	path := fmt.Sprintf("variants/%d.json", v.ID)
	if err := c.send(ctx, http.MethodPut, path, VariantEnvelope{Variant: v}, &out); err != nil {
		return nil, err
	}
	if out.Variant == nil {
		return nil, fmt.Errorf("更新变体 %d 响应缺少 variant 字段", v.ID)
	}
	return out.Variant, nil
}

// CreateVariant POST /products/{id}/variants.json
func (c *Client) CreateVariant(ctx context.Context, productID int64, v *Variant) (*Variant, error) {
	var out VariantEnvelope
	path := fmt.Sprintf("products/%d/variants.json", productID)
	if err := c.send(ctx, http.MethodPost, path, VariantEnvelope{Variant: v}, &out); err != nil {
		return nil, err
	}
	if out.Variant == nil {
		return nil, fmt.Errorf("新增变体响应缺少 variant 字段, product=%d", productID)
	}
	return out.Variant, nil
}

// ListProducts 拉取全部商品
func (c *Client) ListProducts(ctx context.Context, params ListParams) ([]Product, error) {
	return listAll(ctx, c, "products.json", params.values(c.pageLimit), func(body []byte) ([]Product, *PageInfo, error) {
		var resp ProductListResp
		err := json.Unmarshal(body, &resp)
		return resp.Products, resp.PageInfo, err
	})
}

// ==================== 客户 ====================

// ListCustomers 拉取全部客户
func (c *Client) ListCustomers(ctx context.Context, params ListParams) ([]Customer, error) {
	return listAll(ctx, c, "customers.json", params.values(c.pageLimit), func(body []byte) ([]Customer, *PageInfo, error) {
		var resp CustomerListResp
		err := json.Unmarshal(body, &resp)
		return resp.Customers, resp.PageInfo, err
	})
}

// CreateCustomer POST /customers.json
func (c *Client) CreateCustomer(ctx context.Context, cu *Customer) (*Customer, error) {
	var out CustomerEnvelope
	if err := c.send(ctx, http.MethodPost, "customers.json", CustomerEnvelope{Customer: cu}, &out); err != nil {
		return nil, err
	}
	if out.Customer == nil {
		return nil, fmt.Errorf("创建客户响应缺少 customer 字段")
	}
	return out.Customer, nil
}

// UpdateCustomer PUT /customers/{id}.json
func (c *Client) UpdateCustomer(ctx context.Context, id int64, cu *Customer) (*Customer, error) {
	var out CustomerEnvelope
	path := fmt.Sprintf("customers/%d.json", id)
	if err := c.send(ctx, http.MethodPut, path, CustomerEnvelope{Customer: cu}, &out); err != nil {
		return nil, err
	}
	if out.Customer == nil {
		return nil, fmt.Errorf("更新客户 %d 响应缺少 customer 字段", id)
	}
	return out.Customer, nil
}

// ==================== 订单 ====================

// ListOrders 拉取全部订单
func (c *Client) ListOrders(ctx context.Context, params ListParams) ([]Order, error) {
	return listAll(ctx, c, "orders.json", params.values(c.pageLimit), func(body []byte) ([]Order, *PageInfo, error) {
		var resp OrderListResp
		err := json.Unmarshal(body, &resp)
		return resp.Orders, resp.PageInfo, err
	})
}

// ListDraftOrders 拉取全部草稿订单
func (c *Client) ListDraftOrders(ctx context.Context, params ListParams) ([]Order, error) {
	return listAll(ctx, c, "draft_orders.json", params.values(c.pageLimit), func(body []byte) ([]Order, *PageInfo, error) {
		var resp DraftOrderListResp
		err := json.Unmarshal(body, &resp)
		return resp.DraftOrders, resp.PageInfo, err
	})
}

// ==================== 内部实现 ====================

// ListParams 列表查询条件
type ListParams struct {
	CreatedAtMin *time.Time
	CreatedAtMax *time.Time
	UpdatedAtMin *time.Time
	Status       string
	Order        string
}

func (p ListParams) values(limit int) url.Values {
	v := url.Values{}
	v.Set("limit", strconv.Itoa(limit))
	if p.CreatedAtMin != nil {
		v.Set("created_at_min", p.CreatedAtMin.UTC().Format(time.RFC3339))
	}
	if p.CreatedAtMax != nil {
		v.Set("created_at_max", p.CreatedAtMax.UTC().Format(time.RFC3339))
	}
	if p.UpdatedAtMin != nil {
		v.Set("updated_at_min", p.UpdatedAtMin.UTC().Format(time.RFC3339))
	}
	if p.Status != "" {
		v.Set("status", p.Status)
	}
	if p.Order != "" {
		v.Set("order", p.Order)
	}
	return v
}

// send 发送写请求，非 2xx 返回 APIError
func (c *Client) send(ctx context.Context, method, path string, body, result interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(result).
		Execute(method, path)
	if err != nil {
		return fmt.Errorf("请求 Shopify 失败 %s %s: %w", method, path, err)
	}

	if !resp.IsSuccess() {
		return &APIError{
			Method:     method,
			URL:        resp.Request.URL,
			StatusCode: resp.StatusCode(),
			Body:       resp.String(),
		}
	}
	return nil
}

// listAll 按 Link 头 (优先) 或响应体 page_info 翻页
// 非 200 或空响应直接结束循环，保留已获取的数据
func listAll[T any](
	ctx context.Context,
	c *Client,
	path string,
	query url.Values,
	decode func(body []byte) ([]T, *PageInfo, error),
) ([]T, error) {
	var all []T
	reqURL := path

	for page := 1; ; page++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return all, err
		}

		req := c.http.R().SetContext(ctx)
		if query != nil {
			req.SetQueryParamsFromValues(query)
		}
		resp, err := req.Get(reqURL)
		if err != nil {
			if ctx.Err() != nil {
				return all, ctx.Err()
			}
			c.logger.Warn("分页请求失败，保留已获取数据",
				zap.String("path", path), zap.Int("page", page), zap.Error(err))
			break
		}
		if resp.StatusCode() != http.StatusOK || len(resp.Body()) == 0 {
			c.logger.Warn("分页请求返回非 200，结束翻页",
				zap.String("path", path), zap.Int("page", page), zap.Int("status", resp.StatusCode()))
			break
		}

		items, info, err := decode(resp.Body())
		if err != nil {
			c.logger.Warn("分页响应解析失败，结束翻页",
				zap.String("path", path), zap.Int("page", page), zap.Error(err))
			break
		}
		all = append(all, items...)

		// 远端给出的 next 链接已包含全部参数，原样复用
		if next := ParseLinkHeader(resp.Header().Get("Link"))["next"]; next != "" {
			reqURL, query = next, nil
			continue
		}
		if info != nil && info.HasNextPage && info.NextPage != "" {
			reqURL = path
			query = url.Values{}
			query.Set("limit", strconv.Itoa(c.pageLimit))
			query.Set("page_info", info.NextPage)
			continue
		}
		break
	}

	c.logger.Debug("分页拉取完成", zap.String("path", path), zap.Int("count", len(all)))
	return all, nil
}
