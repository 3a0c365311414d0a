package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/Olamide1/loopline/internal/config"
	"github.com/Olamide1/loopline/internal/dao"
	mongodao "github.com/Olamide1/loopline/internal/dao/mongo"
	mysqldao "github.com/Olamide1/loopline/internal/dao/mysql"
	myredis "github.com/Olamide1/loopline/internal/dao/redis"
	"github.com/Olamide1/loopline/internal/gateway/websocket"
	"github.com/Olamide1/loopline/internal/handler"
	"github.com/Olamide1/loopline/internal/https_server"
	"github.com/Olamide1/loopline/internal/infrastructure/logger"
	"github.com/Olamide1/loopline/internal/service/chat"
	"github.com/Olamide1/loopline/internal/service/notification"
	"github.com/Olamide1/loopline/internal/service/realtime"
	"github.com/Olamide1/loopline/pkg/util/jwt"
	"github.com/Olamide1/loopline/pkg/util/snowflake"
)

func main() {
	// 1. 加载配置，LOOPLINE_CONFIG 指定文件时优先
	conf := config.GetConfig()
	if path := os.Getenv("LOOPLINE_CONFIG"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			log.Fatalf("load config failed: %v", err)
		}
		conf = loaded
	}

	// 2. 初始化日志
	if err := logger.Init(&conf.LogConfig, conf.MainConfig.Mode); err != nil {
		log.Fatalf("init logger failed: %v", err)
	}
	defer func() { _ = zap.L().Sync() }()
	zap.L().Info("日志初始化成功")

	if err := handler.InitTrans("zh"); err != nil {
		zap.L().Fatal("validator 翻译器初始化失败", zap.Error(err))
	}
	snowflake.Init(conf.SnowflakeConfig.MachineID)
	jwt.Init(conf.JWTConfig.Secret, conf.JWTConfig.AccessTokenExpiry)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 3. 初始化存储
	repos, err := openStore(ctx, conf)
	if err != nil {
		zap.L().Fatal("存储初始化失败", zap.String("driver", conf.StoreConfig.Driver), zap.Error(err))
	}
	zap.L().Info("存储初始化成功", zap.String("driver", conf.StoreConfig.Driver))

	// 4. 初始化 Redis，不可用时未读数直接读库
	var cache notification.Cache
	redisClient, err := myredis.Init(ctx, conf.RedisConfig)
	if err != nil {
		zap.L().Warn("Redis 不可用，未读数缓存已关闭", zap.Error(err))
	} else {
		redisCache := myredis.NewRedisCache(redisClient, conf.RedisConfig.Workers, conf.RedisConfig.TaskChanSize)
		defer func() {
			redisCache.Close()
			_ = redisClient.Close()
		}()
		cache = redisCache
	}

	// 5. 实时核心与事件代理
	core := realtime.NewCore(repos.User, repos.Notification, cache, conf.RealtimeConfig.FanoutConcurrency)
	chatServer := chat.NewChatServer(chat.ChatServerConfig{
		Kafka:       conf.KafkaConfig,
		EventBuffer: conf.RealtimeConfig.EventBuffer,
		Handler:     core,
	})
	chatServer.Start(ctx)

	origins := https_server.SplitOrigins(conf.RealtimeConfig.AllowedOrigins)
	gateway := websocket.NewGateway(core, conf.RealtimeConfig.SendBuffer, origins)
	handlers := handler.NewHandlers(core.Notifications(), core, repos.User, chatServer.GetBroker(), gateway)

	// 6. HTTP 服务
	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", conf.MainConfig.Host, conf.MainConfig.Port),
		Handler: https_server.Init(conf, handlers),
	}
	go func() {
		var err error
		if conf.MainConfig.TLSCert != "" {
			err = srv.ListenAndServeTLS(conf.MainConfig.TLSCert, conf.MainConfig.TLSKey)
		} else {
			err = srv.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			zap.L().Fatal("server running fault", zap.Error(err))
		}
	}()
	zap.L().Info("服务已启动", zap.String("addr", srv.Addr), zap.String("broker", chatServer.Mode()))

	<-ctx.Done()
	zap.L().Info("关闭服务器...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zap.L().Error("HTTP 服务关闭失败", zap.Error(err))
	}
	chatServer.Close()
	if err := repos.Close(shutdownCtx); err != nil {
		zap.L().Error("存储关闭失败", zap.Error(err))
	}
	zap.L().Info("服务器已关闭")
}

// openStore 按配置选择 MySQL 或 MongoDB
func openStore(ctx context.Context, conf *config.Config) (*dao.Repositories, error) {
	switch conf.StoreConfig.Driver {
	case "", "mysql":
		return mysqldao.Init(conf.MysqlConfig)
	case "mongo":
		return mongodao.Init(ctx, conf.MongoConfig)
	default:
		return nil, fmt.Errorf("unknown store driver %q", conf.StoreConfig.Driver)
	}
}
