package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	app "github.com/ythchandraap/expert-printer-guide/internal/application/printing"
	"github.com/ythchandraap/expert-printer-guide/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// PrinterHandler lists installed printers
type PrinterHandler struct {
	printService *app.PrintService
}

// NewPrinterHandler creates a new PrinterHandler
func NewPrinterHandler(printService *app.PrintService) *PrinterHandler {
	return &PrinterHandler{printService: printService}
}

// ListPrinters handles GET /connect/printers. The status code is carried
// in the body as well, matching the socket getPrinter reply.
func (h *PrinterHandler) ListPrinters(c *gin.Context) {
	printers, err := h.printService.ListPrinters(c.Request.Context())
	if err != nil {
		logger.L(c.Request.Context()).Error("failed to list printers", zap.Error(err))
		c.JSON(http.StatusInternalServerError, PrinterListResponse{
			StatusCode: http.StatusInternalServerError,
			Message:    err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, PrinterListResponse{
		StatusCode: http.StatusOK,
		List:       printers,
		Message:    MessageHereIsData,
	})
}
