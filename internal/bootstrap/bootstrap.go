package bootstrap

import (
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"shopify_split_v1_202610/internal/config"
	"shopify_split_v1_202610/internal/model"
	"shopify_split_v1_202610/internal/repository"
	"shopify_split_v1_202610/internal/service"
	"shopify_split_v1_202610/internal/task"
	"shopify_split_v1_202610/pkg/database"
	"shopify_split_v1_202610/pkg/logger"
)

// ==================== 依赖容器 ====================

// Dependencies 依赖容器
type Dependencies struct {
	Config   *config.Config
	Logger   *zap.Logger
	DB       *gorm.DB
	Repos    *Repositories
	Services *Services
	Tasks    *task.TaskManager
}

// Repositories 仓库集合
type Repositories struct {
	Instance repository.InstanceRepository
	Product  repository.ProductRepository
	Mapping  repository.RemoteProductMappingRepository
	Partner  repository.PartnerRepository
	Order    repository.SaleOrderRepository
}

// Services 服务集合
type Services struct {
	Instance *service.InstanceService
	Product  *service.ProductSyncService
	Customer *service.CustomerSyncService
	Order    *service.OrderSyncService
}

// ==================== 初始化函数 ====================

// NewLogger 按配置创建 zap 日志
func NewLogger(cfg *config.Config) *zap.Logger {
	return logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
}

// InitDatabase 连接数据库并迁移全部表
func InitDatabase(cfg *config.Config, zl *zap.Logger) (*gorm.DB, error) {
	return database.InitDB(database.Config{
		DSN:          cfg.Database.DSN,
		MaxIdleConns: cfg.Database.MaxIdleConns,
		MaxOpenConns: cfg.Database.MaxOpenConns,
		LogLevel:     cfg.Database.LogLevel,
	}, zl, model.AllModels()...)
}

// Build 在已连接的数据库上组装仓储、服务与任务管理器
func Build(cfg *config.Config, zl *zap.Logger, db *gorm.DB) *Dependencies {
	repos := initRepositories(db)
	clients := service.NewClientFactory(cfg.Shopify, zl)

	services := &Services{
		Instance: service.NewInstanceService(repos.Instance, zl),
		Product:  service.NewProductSyncService(db, repos.Instance, repos.Product, repos.Mapping, clients, cfg.Sync, zl),
		Customer: service.NewCustomerSyncService(repos.Instance, repos.Partner, clients, cfg.Sync, zl),
	}
	translator := service.NewOrderLineTranslator(repos.Product, repos.Order, cfg.Sync, zl.Named("order_line"))
	services.Order = service.NewOrderSyncService(
		repos.Instance, repos.Order, repos.Partner,
		services.Customer, translator, clients, zl,
	)

	tasks := task.NewTaskManager(&task.TaskManagerDeps{
		ProductService:  services.Product,
		CustomerService: services.Customer,
		OrderService:    services.Order,
	}, task.ConfigFrom(cfg.Task), zl)

	return &Dependencies{
		Config:   cfg,
		Logger:   zl,
		DB:       db,
		Repos:    repos,
		Services: services,
		Tasks:    tasks,
	}
}

// Init 读取配置、初始化日志和数据库并组装依赖
func Init(configPaths ...string) (*Dependencies, error) {
	cfg, err := config.Load(configPaths...)
	if err != nil {
		return nil, err
	}
	zl := NewLogger(cfg)

	db, err := InitDatabase(cfg, zl)
	if err != nil {
		return nil, fmt.Errorf("初始化数据库失败: %w", err)
	}
	return Build(cfg, zl, db), nil
}

func initRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Instance: repository.NewInstanceRepository(db),
		Product:  repository.NewProductRepository(db),
		Mapping:  repository.NewRemoteProductMappingRepository(db),
		Partner:  repository.NewPartnerRepository(db),
		Order:    repository.NewSaleOrderRepository(db),
	}
}
