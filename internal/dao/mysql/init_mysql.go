// Package mysql 提供 MySQL 存储的初始化
// 负责建立 MySQL 连接、自动迁移表结构、初始化 Repository 层
package mysql

import (
	"context"
	"fmt"

	"go.uber.org/zap"                  // 日志库
	mysqldriver "gorm.io/driver/mysql" // GORM MySQL 驱动
	"gorm.io/gorm"                     // GORM ORM 框架

	"github.com/Olamide1/loopline/internal/config" // 配置管理
	"github.com/Olamide1/loopline/internal/dao"
	"github.com/Olamide1/loopline/internal/dao/mysql/repository"
	"github.com/Olamide1/loopline/internal/model" // 数据模型
)

// Init 初始化数据库连接并返回 Repository 层实例
// 执行步骤：
//  1. 构建 DSN（Data Source Name）连接字符串
//  2. 使用 GORM 建立数据库连接，开启错误翻译以识别唯一键冲突
//  3. 执行 AutoMigrate 自动迁移表结构
//  4. 创建并返回 Repository 实例
func Init(cfg config.MysqlConfig) (*dao.Repositories, error) {
	// 格式：user:password@tcp(host:port)/database?params
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		cfg.User,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.DatabaseName,
	)

	db, err := gorm.Open(mysqldriver.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("open mysql: %w", err)
	}

	// 注意：不会删除已有字段或数据
	err = db.AutoMigrate(
		&model.Notification{}, // 通知表
		&model.UserInfo{},     // 用户状态表
	)
	if err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	zap.L().Info("mysql connected", zap.String("database", cfg.DatabaseName))
	return NewRepositories(db), nil
}

// NewRepositories 用已有的 gorm 连接创建 Repository 集合
func NewRepositories(db *gorm.DB) *dao.Repositories {
	closer := func(context.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.Close()
	}
	return dao.NewRepositories(
		repository.NewNotificationRepository(db),
		repository.NewUserRepository(db),
		closer,
	)
}
