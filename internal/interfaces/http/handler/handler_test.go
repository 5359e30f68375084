package handler

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	infraprinting "github.com/ythchandraap/expert-printer-guide/internal/infrastructure/printing"
	"github.com/ythchandraap/expert-printer-guide/internal/interfaces/http/router"
	"github.com/ythchandraap/expert-printer-guide/internal/testutil"
)

type serverOptions struct {
	resultWait  time.Duration
	maxBodySize int64
}

func newTestServer(t *testing.T, bridge *testutil.Bridge, opts ...func(*serverOptions)) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	o := &serverOptions{resultWait: 5 * time.Second, maxBodySize: 1 << 20}
	for _, opt := range opts {
		opt(o)
	}

	page, err := infraprinting.ViewerPage("https://cdn.example/pdfjs", 96)
	require.NoError(t, err)

	system := NewSystemHandler(bridge.Service, func() string { return "10.0.0.5" })

	engine := gin.New()
	router.NewRouter(engine).
		Register(ConnectRoutes(
			NewPrintHandler(bridge.Service, o.resultWait),
			NewJobHandler(bridge.Service),
			NewPrinterHandler(bridge.Service),
			system,
			o.maxBodySize,
		)).
		Register(HealthRoutes(system)).
		Register(ViewerRoutes(NewViewerHandler(page, bridge.Stager))).
		Setup()
	return engine
}

func postPrint(engine *gin.Engine, body []byte, contentType string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/connect/print", bytes.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}
