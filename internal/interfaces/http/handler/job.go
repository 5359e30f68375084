package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	app "github.com/ythchandraap/expert-printer-guide/internal/application/printing"
	"github.com/ythchandraap/expert-printer-guide/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// JobHandler serves tracked job snapshots
type JobHandler struct {
	printService *app.PrintService
}

// NewJobHandler creates a new JobHandler
func NewJobHandler(printService *app.PrintService) *JobHandler {
	return &JobHandler{printService: printService}
}

// GetJob handles GET /connect/jobs/:id
func (h *JobHandler) GetJob(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid job id"})
		return
	}

	snapshot, err := h.printService.GetJob(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, app.ErrJobNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "Job not found"})
			return
		}
		logger.L(c.Request.Context()).Error("failed to load job", zap.String("job_id", id.String()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Internal Server Error"})
		return
	}

	c.JSON(http.StatusOK, snapshot)
}
