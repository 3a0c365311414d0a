package logger

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func observe(t *testing.T) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	restore := zap.ReplaceGlobals(zap.New(core))
	t.Cleanup(restore)
	return logs
}

func TestRedactQuery(t *testing.T) {
	u, err := url.Parse("/wss?token=eyJhbGciOi.secret&workspace=w1")
	require.NoError(t, err)
	got := redactQuery(u)
	assert.NotContains(t, got, "secret")
	assert.Equal(t, "token=%2A%2A%2A&workspace=w1", got)

	u, _ = url.Parse("/api/v1/notification/list?limit=10")
	assert.Equal(t, "limit=10", redactQuery(u))
	assert.Empty(t, redactQuery(&url.URL{Path: "/ping"}))
}

func TestGinLogger_HidesToken(t *testing.T) {
	logs := observe(t)
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(GinLogger())
	r.GET("/wss", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/wss?token=jwt-secret", nil))
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))

	entries := logs.FilterMessage("http request").All()
	require.Len(t, entries, 1)
	query := entries[0].ContextMap()["query"].(string)
	assert.NotContains(t, query, "jwt-secret")
	assert.Contains(t, query, "token=")
}

func TestGinRecovery_HidesCredentials(t *testing.T) {
	logs := observe(t)
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(GinRecovery(false))
	r.GET("/boom", func(c *gin.Context) { panic("boom") })

	req := httptest.NewRequest(http.MethodGet, "/boom?token=jwt-secret", nil)
	req.Header.Set("Authorization", "Bearer jwt-secret")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	entries := logs.FilterMessage("[Recovery from panic]").All()
	require.Len(t, entries, 1)
	dump := entries[0].ContextMap()["request"].(string)
	assert.NotContains(t, dump, "jwt-secret")
	assert.Contains(t, dump, "/boom")
	assert.Equal(t, "Bearer jwt-secret", req.Header.Get("Authorization"), "original request untouched")
}
