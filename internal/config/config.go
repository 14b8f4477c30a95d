package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// 订单行找不到本地商品时的处理策略
const (
	UnmatchedLineFail    = "fail"
	UnmatchedLineGeneric = "generic"
)

// Config 应用配置
type Config struct {
	Server     ServerConfig
	App        AppConfig
	Database   DatabaseConfig
	Log        LogConfig
	Shopify    ShopifyConfig
	Sync       SyncConfig
	Task       TaskConfig
	Middleware MiddlewareConfig
}

type ServerConfig struct {
	Port string
}

type AppConfig struct {
	Env string
}

type DatabaseConfig struct {
	DSN          string
	MaxIdleConns int
	MaxOpenConns int
	LogLevel     string
}

type LogConfig struct {
	Level  string
	Format string
	Output string
}

// ShopifyConfig 出站请求配置 (店铺凭据存放在 store_instances 表)
type ShopifyConfig struct {
	RequestsPerSecond float64
	Burst             int
	PageLimit         int
	Timeout           time.Duration
	BaseURLTemplate   string
	Debug             bool
}

// SyncConfig 同步行为配置
type SyncConfig struct {
	MaxProductsPerRun       int // 0 表示不限制
	CreateProductsOnImport  bool
	UnmatchedLinePolicy     string
	GenericProductSKU       string
	DefaultShippingTaxRate  float64
	CustomerPlaceholderName string
}

// TaskConfig 定时任务配置 (cron 表达式含秒)
type TaskConfig struct {
	Enabled            bool
	ProductExportCron  string
	CustomerImportCron string
	OrderImportCron    string
	RunTimeout         time.Duration
}

type MiddlewareConfig struct {
	SyncCooldown time.Duration
}

// setDefaults 默认值
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("app.env", "development")

	v.SetDefault("database.dsn", "host=localhost user=postgres password=postgres dbname=shopify_split port=5432 sslmode=disable")
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.max_open_conns", 100)
	v.SetDefault("database.log_level", "warn")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.output", "stdout")

	v.SetDefault("shopify.requests_per_second", 2.0)
	v.SetDefault("shopify.burst", 4)
	v.SetDefault("shopify.page_limit", 250)
	v.SetDefault("shopify.timeout", "60s")
	v.SetDefault("shopify.base_url_template", "https://%s.myshopify.com/admin/api/%s")
	v.SetDefault("shopify.debug", false)

	v.SetDefault("sync.max_products_per_run", 10)
	v.SetDefault("sync.create_products_on_import", false)
	v.SetDefault("sync.unmatched_line_policy", UnmatchedLineFail)
	v.SetDefault("sync.generic_product_sku", "GENERIC")
	v.SetDefault("sync.default_shipping_tax_rate", 0.21)
	v.SetDefault("sync.customer_placeholder_name", "Shopify Customer")

	v.SetDefault("task.enabled", true)
	v.SetDefault("task.product_export_cron", "0 */30 * * * *")
	v.SetDefault("task.customer_import_cron", "0 0 * * * *")
	v.SetDefault("task.order_import_cron", "0 */10 * * * *")
	v.SetDefault("task.run_timeout", "30m")

	v.SetDefault("middleware.sync_cooldown", "1m")
}

// Load 读取配置：默认值 < config.yaml (可选) < 环境变量
// 环境变量名为 key 大写并把 "." 替换为 "_"，例如 SYNC_MAX_PRODUCTS_PER_RUN
func Load(paths ...string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if len(paths) == 0 {
		paths = []string{".", "./configs"}
	}
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
	}

	cfg := FromViper(v)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FromViper 从 viper 实例构建配置
func FromViper(v *viper.Viper) *Config {
	return &Config{
		Server: ServerConfig{Port: v.GetString("server.port")},
		App:    AppConfig{Env: v.GetString("app.env")},
		Database: DatabaseConfig{
			DSN:          v.GetString("database.dsn"),
			MaxIdleConns: v.GetInt("database.max_idle_conns"),
			MaxOpenConns: v.GetInt("database.max_open_conns"),
			LogLevel:     v.GetString("database.log_level"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		Shopify: ShopifyConfig{
			RequestsPerSecond: v.GetFloat64("shopify.requests_per_second"),
			Burst:             v.GetInt("shopify.burst"),
			PageLimit:         v.GetInt("shopify.page_limit"),
			Timeout:           v.GetDuration("shopify.timeout"),
			BaseURLTemplate:   v.GetString("shopify.base_url_template"),
			Debug:             v.GetBool("shopify.debug"),
		},
		Sync: SyncConfig{
			MaxProductsPerRun:       v.GetInt("sync.max_products_per_run"),
			CreateProductsOnImport:  v.GetBool("sync.create_products_on_import"),
			UnmatchedLinePolicy:     strings.ToLower(v.GetString("sync.unmatched_line_policy")),
			GenericProductSKU:       v.GetString("sync.generic_product_sku"),
			DefaultShippingTaxRate:  v.GetFloat64("sync.default_shipping_tax_rate"),
			CustomerPlaceholderName: v.GetString("sync.customer_placeholder_name"),
		},
		Task: TaskConfig{
			Enabled:            v.GetBool("task.enabled"),
			ProductExportCron:  v.GetString("task.product_export_cron"),
			CustomerImportCron: v.GetString("task.customer_import_cron"),
			OrderImportCron:    v.GetString("task.order_import_cron"),
			RunTimeout:         v.GetDuration("task.run_timeout"),
		},
		Middleware: MiddlewareConfig{
			SyncCooldown: v.GetDuration("middleware.sync_cooldown"),
		},
	}
}

// Default 仅含默认值的配置，测试与 CLI 使用
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	return FromViper(v)
}

// Validate 校验配置
func (c *Config) Validate() error {
	switch c.Sync.UnmatchedLinePolicy {
	case UnmatchedLineFail:
	case UnmatchedLineGeneric:
		if c.Sync.GenericProductSKU == "" {
			return errors.New("sync.unmatched_line_policy=generic 时必须配置 sync.generic_product_sku")
		}
	default:
		return fmt.Errorf("未知的 sync.unmatched_line_policy: %q", c.Sync.UnmatchedLinePolicy)
	}
	if c.Sync.MaxProductsPerRun < 0 {
		return errors.New("sync.max_products_per_run 不能为负数")
	}
	if c.Sync.DefaultShippingTaxRate < 0 {
		return errors.New("sync.default_shipping_tax_rate 不能为负数")
	}
	return nil
}
