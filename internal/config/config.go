// Package config 提供应用程序的配置加载和管理功能
// 使用 TOML 格式的配置文件，支持多路径查找
package config

import (
	"fmt"

	"github.com/BurntSushi/toml" // TOML 配置文件解析库
)

// MainConfig 主配置，包含应用基本信息
type MainConfig struct {
	AppName string `toml:"appName"` // 应用名称，用于日志标识等
	Host    string `toml:"host"`    // 服务器监听地址，如 "0.0.0.0"
	Port    int    `toml:"port"`    // 服务器监听端口，如 8000
	Mode    string `toml:"mode"`    // 运行模式："dev" 或 "release"
	TLSCert string `toml:"tlsCert"` // 证书路径，留空则使用 HTTP
	TLSKey  string `toml:"tlsKey"`
}

// StoreConfig 通知与用户状态的存储选择
type StoreConfig struct {
	Driver string `toml:"driver"` // "mysql"（默认）或 "mongo"
}

// MysqlConfig MySQL 数据库连接配置
type MysqlConfig struct {
	Host         string `toml:"host"`         // MySQL 服务器地址
	Port         int    `toml:"port"`         // MySQL 端口，默认 3306
	User         string `toml:"user"`         // 数据库用户名
	Password     string `toml:"password"`     // 数据库密码
	DatabaseName string `toml:"databaseName"` // 数据库名称
}

// MongoConfig MongoDB 连接配置
type MongoConfig struct {
	URI          string `toml:"uri"`          // 如 "mongodb://localhost:27017"
	DatabaseName string `toml:"databaseName"` // 数据库名称
	Timeout      int    `toml:"timeout"`      // 连接超时（秒）
}

// RedisConfig Redis 连接配置
type RedisConfig struct {
	Host         string `toml:"host"`         // Redis 服务器地址
	Port         int    `toml:"port"`         // Redis 端口，默认 6379
	Password     string `toml:"password"`     // Redis 密码，无密码留空
	Db           int    `toml:"db"`           // Redis 数据库编号，默认 0
	Workers      int    `toml:"workers"`      // 异步缓存任务 worker 数
	TaskChanSize int    `toml:"taskChanSize"` // 异步缓存任务缓冲
}

// LogConfig 日志配置，使用 lumberjack 进行日志轮转
type LogConfig struct {
	LogPath    string `toml:"logPath"`    // 日志文件存储目录
	FileName   string `toml:"fileName"`   // 日志文件名
	MaxSize    int    `toml:"maxSize"`    // 单个日志文件最大大小（MB）
	MaxBackups int    `toml:"maxBackups"` // 保留旧日志文件的最大个数
	MaxAge     int    `toml:"maxAge"`     // 保留旧日志文件的最大天数
	Level      string `toml:"level"`      // 日志级别：debug, info, warn, error
}

// KafkaConfig 领域事件代理配置
type KafkaConfig struct {
	MessageMode string `toml:"messageMode"` // 事件模式："channel" 或 "kafka"
	HostPort    string `toml:"hostPort"`    // Kafka 服务器地址，如 "localhost:9092"
	EventTopic  string `toml:"eventTopic"`  // 领域事件主题
	GroupID     string `toml:"groupId"`     // 消费组
	Timeout     int    `toml:"timeout"`     // 超时时间（秒）
}

// JWTConfig JWT 认证配置
type JWTConfig struct {
	Secret            string `toml:"secret"`            // JWT 签名密钥，建议 32 字符以上
	AccessTokenExpiry int    `toml:"accessTokenExpiry"` // Access Token 有效期（分钟）
}

// SnowflakeConfig 雪花算法配置
type SnowflakeConfig struct {
	MachineID int64 `toml:"machineId"` // 雪花算法节点 ID，范围 0-1023，分布式部署时每台机器需唯一
}

// RealtimeConfig 实时推送配置
type RealtimeConfig struct {
	SendBuffer        int    `toml:"sendBuffer"`        // 单个会话下行缓冲
	FanoutConcurrency int    `toml:"fanoutConcurrency"` // 单次通知的并发接收者上限
	EventBuffer       int    `toml:"eventBuffer"`       // channel 模式事件缓冲
	AllowedOrigins    string `toml:"allowedOrigins"`    // 逗号分隔，留空允许全部
}

// Config 应用程序总配置，聚合所有子配置
type Config struct {
	MainConfig      `toml:"mainConfig"`      // 主配置
	StoreConfig     `toml:"storeConfig"`     // 存储选择
	MysqlConfig     `toml:"mysqlConfig"`     // MySQL 配置
	MongoConfig     `toml:"mongoConfig"`     // MongoDB 配置
	RedisConfig     `toml:"redisConfig"`     // Redis 配置
	LogConfig       `toml:"logConfig"`       // 日志配置
	KafkaConfig     `toml:"kafkaConfig"`     // Kafka 配置
	JWTConfig       `toml:"jwtConfig"`       // JWT 配置
	SnowflakeConfig `toml:"snowflakeConfig"` // 雪花算法配置
	RealtimeConfig  `toml:"realtimeConfig"`  // 实时推送配置
}

// config 全局配置单例，延迟加载
var config *Config

// LoadConfig 从多个候选路径加载配置文件
// 按顺序尝试加载，找到第一个可用的配置文件即停止
func LoadConfig() error {
	// 候选配置文件路径（优先加载本地配置）
	paths := []string{
		"configs/config_local.toml",       // 本地开发配置（优先）
		"configs/config.toml",             // 默认配置
		"../../configs/config_local.toml", // 从子目录运行时的路径
		"../../configs/config.toml",       // 从子目录运行时的路径
	}

	for _, path := range paths {
		if _, err := toml.DecodeFile(path, config); err == nil {
			return nil
		}
	}

	return fmt.Errorf("could not find configuration file in any of the search paths")
}

// Load 从指定路径加载配置，主要用于测试和命令行参数
func Load(path string) (*Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("decode config %s: %w", path, err)
	}
	return cfg, nil
}

// Default 未提供配置文件时的默认值
func Default() *Config {
	return &Config{
		MainConfig:      MainConfig{AppName: "loopline", Host: "0.0.0.0", Port: 8000, Mode: "dev"},
		StoreConfig:     StoreConfig{Driver: "mysql"},
		RedisConfig:     RedisConfig{Host: "127.0.0.1", Port: 6379, Workers: 4, TaskChanSize: 1000},
		LogConfig:       LogConfig{LogPath: "logs", FileName: "loopline.log", MaxSize: 100, MaxBackups: 7, MaxAge: 30, Level: "info"},
		KafkaConfig:     KafkaConfig{MessageMode: "channel", EventTopic: "loopline_events", GroupID: "loopline", Timeout: 1},
		JWTConfig:       JWTConfig{AccessTokenExpiry: 60},
		SnowflakeConfig: SnowflakeConfig{MachineID: 1},
		RealtimeConfig:  RealtimeConfig{SendBuffer: 256, FanoutConcurrency: 16, EventBuffer: 100},
	}
}

// GetConfig 获取全局配置实例（单例模式）
// 首次调用时会自动加载配置文件
func GetConfig() *Config {
	if config == nil {
		config = Default()
		_ = LoadConfig() // 忽略加载错误，使用默认值
	}
	return config
}
