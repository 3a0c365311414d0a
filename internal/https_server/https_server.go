// Package https_server 提供 HTTP/HTTPS 服务器的初始化和配置
// 负责创建 Gin 引擎实例并配置中间件和路由
package https_server

import (
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/Olamide1/loopline/internal/config"
	"github.com/Olamide1/loopline/internal/handler"
	"github.com/Olamide1/loopline/internal/infrastructure/logger"
	"github.com/Olamide1/loopline/internal/infrastructure/middleware"
	"github.com/Olamide1/loopline/internal/router"
)

// Init 创建 Gin 引擎并注册中间件和路由
func Init(cfg *config.Config, handlers *handler.Handlers) *gin.Engine {
	if cfg.MainConfig.Mode != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()

	engine.Use(logger.GinLogger())
	engine.Use(logger.GinRecovery(true))

	corsConfig := cors.DefaultConfig()
	if origins := SplitOrigins(cfg.RealtimeConfig.AllowedOrigins); len(origins) > 0 {
		corsConfig.AllowOrigins = origins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", logger.RequestIDHeader}
	engine.Use(cors.New(corsConfig))

	// 配置了证书才启用 HTTPS 重定向
	if cfg.MainConfig.TLSCert != "" {
		engine.Use(middleware.TlsHandler(cfg.MainConfig.Host, cfg.MainConfig.Port, cfg.MainConfig.Mode == "dev"))
	}

	router.NewRouter(handlers).RegisterRoutes(engine)
	return engine
}

// SplitOrigins 解析逗号分隔的来源列表
func SplitOrigins(raw string) []string {
	var out []string
	for _, o := range strings.Split(raw, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}
