// Package router 提供 HTTP 路由注册
// 本文件定义在线状态相关的路由
package router

import (
	"github.com/gin-gonic/gin"
)

// RegisterPresenceRoutes 注册在线状态路由（需要认证）
func (rt *Router) RegisterPresenceRoutes(rg *gin.RouterGroup) {
	presenceGroup := rg.Group("/presence")
	{
		presenceGroup.POST("/status", rt.handlers.Presence.SetStatus)    // 手动设置状态
		presenceGroup.GET("/online", rt.handlers.Presence.OnlineUsers)   // 工作区在线用户
		presenceGroup.GET("/user/:id", rt.handlers.Presence.UserStatus) // 用户状态
	}
}
