// Package router 提供 HTTP 路由注册
// 本文件定义领域事件入口路由，由消息服务在写库成功后调用
package router

import (
	"github.com/gin-gonic/gin"
)

// RegisterEventRoutes 注册领域事件路由（需要认证）
func (rt *Router) RegisterEventRoutes(rg *gin.RouterGroup) {
	eventGroup := rg.Group("/event")
	{
		eventGroup.POST("/message", rt.handlers.Event.MessagePosted)          // 新消息 / 线程回复
		eventGroup.POST("/reaction", rt.handlers.Event.ReactionToggled)       // 表情回应
		eventGroup.POST("/read", rt.handlers.Event.MessageRead)               // 已读回执
		eventGroup.POST("/dm", rt.handlers.Event.DirectMessageSent)           // 私信
		eventGroup.POST("/message/updated", rt.handlers.Event.MessageUpdated) // 消息编辑
		eventGroup.POST("/channel/created", rt.handlers.Event.ChannelCreated) // 新建频道
		eventGroup.POST("/channel/updated", rt.handlers.Event.ChannelUpdated) // 频道更新
		eventGroup.POST("/channel/read", rt.handlers.Event.ChannelRead)       // 频道已读
	}
}
