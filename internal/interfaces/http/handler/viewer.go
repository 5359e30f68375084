package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ythchandraap/expert-printer-guide/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// StagedFileResolver maps a staged file name to its path on disk
type StagedFileResolver interface {
	Resolve(name string) (string, error)
}

// ViewerHandler serves the document viewer and staged documents to the
// local rendering surface
type ViewerHandler struct {
	page     []byte
	resolver StagedFileResolver
}

// NewViewerHandler creates a ViewerHandler serving a pre-rendered viewer page
func NewViewerHandler(page []byte, resolver StagedFileResolver) *ViewerHandler {
	return &ViewerHandler{page: page, resolver: resolver}
}

// Page handles GET /viewer/
func (h *ViewerHandler) Page(c *gin.Context) {
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "text/html; charset=utf-8", h.page)
}

// Document handles GET /viewer/document/:name
func (h *ViewerHandler) Document(c *gin.Context) {
	name := c.Param("name")
	path, err := h.resolver.Resolve(name)
	if err != nil {
		logger.L(c.Request.Context()).Debug("staged document not served", zap.String("name", name), zap.Error(err))
		c.JSON(http.StatusNotFound, ErrorResponse{Error: MessageNotFound})
		return
	}

	c.Header("Cache-Control", "no-store")
	c.Header("Content-Type", "application/pdf")
	c.File(path)
}
