package logger

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestGinMiddleware(t *testing.T) {
	base, logs := observed()

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("request_id", "req-42")
		c.Next()
	})
	r.Use(GinMiddleware(base, "/health"))
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/connect/printers", func(c *gin.Context) {
		assert.Equal(t, "req-42", GetRequestID(c.Request.Context()))
		GetGinLogger(c).Info("listing printers")
		c.Status(http.StatusOK)
	})
	r.POST("/connect/print", func(c *gin.Context) { c.Status(http.StatusBadRequest) })
	r.GET("/boom", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })

	for _, req := range []*http.Request{
		httptest.NewRequest(http.MethodGet, "/health", nil),
		httptest.NewRequest(http.MethodGet, "/connect/printers", nil),
		httptest.NewRequest(http.MethodPost, "/connect/print", nil),
		httptest.NewRequest(http.MethodGet, "/boom", nil),
	} {
		r.ServeHTTP(httptest.NewRecorder(), req)
	}

	levels := map[string]zapcore.Level{}
	for _, entry := range logs.FilterMessage("HTTP Request").All() {
		fields := entry.ContextMap()
		assert.Equal(t, "req-42", fields["request_id"])
		levels[fields["path"].(string)] = entry.Level
	}
	assert.Equal(t, zapcore.DebugLevel, levels["/health"])
	assert.Equal(t, zapcore.InfoLevel, levels["/connect/printers"])
	assert.Equal(t, zapcore.WarnLevel, levels["/connect/print"])
	assert.Equal(t, zapcore.ErrorLevel, levels["/boom"])
	assert.Equal(t, 1, logs.FilterMessage("listing printers").Len())
}

func TestRecovery(t *testing.T) {
	base, logs := observed()

	r := gin.New()
	r.Use(Recovery(base))
	r.GET("/panic", func(c *gin.Context) { panic("renderer crashed") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"Internal Server Error"}`, w.Body.String())
	require.Equal(t, 1, logs.FilterMessage("Panic recovered").Len())
}

func TestGetGinLogger_NotSet(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.NotNil(t, GetGinLogger(c))
}
