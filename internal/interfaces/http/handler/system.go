package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	app "github.com/ythchandraap/expert-printer-guide/internal/application/printing"
)

// SystemHandler reports host information and liveness
type SystemHandler struct {
	printService *app.PrintService
	localIP      func() string
	startTime    time.Time
}

// NewSystemHandler creates a new SystemHandler. localIP reports the
// address clients should use to reach the bridge.
func NewSystemHandler(printService *app.PrintService, localIP func() string) *SystemHandler {
	return &SystemHandler{
		printService: printService,
		localIP:      localIP,
		startTime:    time.Now(),
	}
}

// SystemInfoResponse is the body of GET /connect/system
type SystemInfoResponse struct {
	OS       string `json:"os"`
	Platform string `json:"platform"`
	LocalIP  string `json:"localIP"`
	Version  string `json:"version"`
}

// GetSystemInfo handles GET /connect/system
func (h *SystemHandler) GetSystemInfo(c *gin.Context) {
	info := h.printService.System()
	c.JSON(http.StatusOK, SystemInfoResponse{
		OS:       info.OS,
		Platform: info.Platform,
		LocalIP:  h.localIP(),
		Version:  info.Version,
	})
}

// HealthResponse is the body of GET /health
type HealthResponse struct {
	Status string `json:"status"`
	Uptime string `json:"uptime"`
}

// Health handles GET /health
func (h *SystemHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status: "ok",
		Uptime: time.Since(h.startTime).Round(time.Second).String(),
	})
}
