package database

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"shopify_split_v1_202610/pkg/logger"
)

// Config 数据库配置
type Config struct {
	DSN          string
	MaxIdleConns int
	MaxOpenConns int
	LogLevel     string
}

// InitDB 初始化数据库连接
// models: 需要自动建表/迁移的结构体指针
func InitDB(cfg Config, zl *zap.Logger, models ...interface{}) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN), &gorm.Config{
		Logger: logger.NewGormLogger(zl, logger.MapGormLevel(cfg.LogLevel)),
	})
	if err != nil {
		return nil, fmt.Errorf("数据库连接失败: %w", err)
	}

	// 获取底层的 sqlDB 对象，用于设置连接池参数
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("获取底层 SQL DB 失败: %w", err)
	}

	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	sqlDB.SetConnMaxLifetime(time.Hour)

	zl.Info("数据库连接成功")

	if len(models) > 0 {
		if err := db.AutoMigrate(models...); err != nil {
			return nil, fmt.Errorf("自动建表出错: %w", err)
		}
	}

	return db, nil
}
