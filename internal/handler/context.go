package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/Olamide1/loopline/internal/infrastructure/middleware"
	"github.com/Olamide1/loopline/pkg/errorx"
)

// currentUser 取 JWTAuth 写入的用户 ID
func currentUser(c *gin.Context) (string, error) {
	uid := c.GetString(middleware.ContextUserID)
	if uid == "" {
		return "", errorx.New(errorx.CodeUnauthorized, "请先登录")
	}
	return uid, nil
}
