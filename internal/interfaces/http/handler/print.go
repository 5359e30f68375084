package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	app "github.com/ythchandraap/expert-printer-guide/internal/application/printing"
	"github.com/ythchandraap/expert-printer-guide/internal/domain/printing"
	"github.com/ythchandraap/expert-printer-guide/internal/infrastructure/logger"
	"github.com/ythchandraap/expert-printer-guide/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

// DefaultResultWait bounds how long an upload waits for its job
const DefaultResultWait = 90 * time.Second

// PrintHandler accepts multipart uploads on the print endpoint
type PrintHandler struct {
	printService *app.PrintService
	resultWait   time.Duration
}

// NewPrintHandler creates a new PrintHandler. A non-positive resultWait
// selects DefaultResultWait.
func NewPrintHandler(printService *app.PrintService, resultWait time.Duration) *PrintHandler {
	if resultWait <= 0 {
		resultWait = DefaultResultWait
	}
	return &PrintHandler{
		printService: printService,
		resultWait:   resultWait,
	}
}

// Print handles POST /connect/print.
// It answers 200 when the job completes or is still running after the
// result wait, and 500 when the job fails.
func (h *PrintHandler) Print(c *gin.Context) {
	boundary, err := MultipartBoundary(c.GetHeader("Content-Type"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Expected multipart/form-data"})
		return
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		if middleware.IsBodyTooLarge(err) {
			c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{Error: middleware.ErrBodyTooLarge})
			return
		}
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Failed to read request body"})
		return
	}

	file, err := ExtractFile(body, boundary)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "No file uploaded"})
		return
	}

	ctx := c.Request.Context()
	ticket, err := h.printService.Submit(ctx, app.SubmitRequest{
		Channel:     printing.SourceChannelHTTPUpload,
		FileName:    file.Name,
		FileBytes:   file.Data,
		PrinterName: c.GetHeader("print-device"),
		Copies:      ParseCopies(c.GetHeader("copies")),
	})
	if err != nil {
		h.handleSubmitError(c, err)
		return
	}

	log := logger.L(ctx).With(zap.String("job_id", ticket.JobID.String()))

	waitCtx, cancel := context.WithTimeout(ctx, h.resultWait)
	defer cancel()

	result, err := ticket.Wait(waitCtx)
	if err != nil {
		if ctx.Err() != nil {
			log.Warn("client went away before print job finished")
			return
		}
		log.Info("print job still running, answering accepted", zap.Duration("waited", h.resultWait))
		c.JSON(http.StatusOK, PrintAcceptedResponse{Message: MessagePrintAccepted, JobID: ticket.JobID.String()})
		return
	}

	if !result.Succeeded() {
		msg := "print job failed"
		if result.Err != nil {
			msg = result.Err.Error()
		}
		c.JSON(http.StatusInternalServerError, PrintFailedResponse{
			Message: MessagePrintFailed,
			Error:   msg,
			JobID:   ticket.JobID.String(),
		})
		return
	}

	c.JSON(http.StatusOK, PrintAcceptedResponse{Message: MessagePrintAccepted, JobID: ticket.JobID.String()})
}

func (h *PrintHandler) handleSubmitError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, app.ErrQueueFull), errors.Is(err, app.ErrOrchestratorNotRunning):
		c.JSON(http.StatusServiceUnavailable, PrintFailedResponse{Message: MessagePrintFailed, Error: err.Error()})
	case errors.Is(err, printing.ErrIngress):
		c.JSON(http.StatusBadRequest, PrintFailedResponse{Message: MessagePrintFailed, Error: err.Error()})
	default:
		logger.L(c.Request.Context()).Error("failed to submit print job", zap.Error(err))
		c.JSON(http.StatusInternalServerError, PrintFailedResponse{Message: MessagePrintFailed, Error: err.Error()})
	}
}

// ParseCopies reads the copies header. Anything that is not a positive
// integer selects one copy.
func ParseCopies(header string) int {
	n, err := strconv.Atoi(strings.TrimSpace(header))
	if err != nil || n < 1 {
		return printing.DefaultCopies
	}
	return n
}
