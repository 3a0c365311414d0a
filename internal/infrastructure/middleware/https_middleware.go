package middleware

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/unrolled/secure"
	"go.uber.org/zap"
)

// TlsHandler HTTP 重定向到 HTTPS，并附带常用安全响应头
func TlsHandler(host string, port int, dev bool) gin.HandlerFunc {
	secureMiddleware := secure.New(secure.Options{
		SSLRedirect:          true,
		SSLHost:              host + ":" + strconv.Itoa(port),
		STSSeconds:           31536000,
		FrameDeny:            true,
		ContentTypeNosniff:   true,
		BrowserXssFilter:     true,
		IsDevelopment:        dev,
		SSLProxyHeaders:      map[string]string{"X-Forwarded-Proto": "https"},
		STSIncludeSubdomains: true,
	})

	return func(c *gin.Context) {
		if err := secureMiddleware.Process(c.Writer, c.Request); err != nil {
			// 重定向已写入响应，终止后续处理链
			zap.L().Debug("TLS redirection", zap.Error(err))
			c.Abort()
			return
		}
		c.Next()
	}
}
