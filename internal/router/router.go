// Package router 提供 HTTP 路由注册
// 本文件是路由注册的入口，聚合所有子模块的路由
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Olamide1/loopline/internal/handler"
	"github.com/Olamide1/loopline/internal/infrastructure/middleware"
)

// Router 路由管理器，持有注入的 Handler 聚合
type Router struct {
	handlers *handler.Handlers
}

func NewRouter(handlers *handler.Handlers) *Router {
	return &Router{handlers: handlers}
}

// RegisterRoutes 注册所有路由
// /ping 公开，其余路由需要认证
func (rt *Router) RegisterRoutes(r *gin.Engine) {
	r.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})

	authed := r.Group("")
	authed.Use(middleware.JWTAuth())
	rt.RegisterWebSocketRoutes(authed) // WebSocket 路由

	v1 := authed.Group("/api/v1")
	rt.RegisterNotificationRoutes(v1) // 通知路由
	rt.RegisterPresenceRoutes(v1)     // 在线状态路由
	rt.RegisterEventRoutes(v1)        // 领域事件入口
}
