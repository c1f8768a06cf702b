package http

import (
	"net/http"

	"crypto-signal-engine/internal/signal/dto"
	"crypto-signal-engine/internal/signal/service"
	"crypto-signal-engine/pkg/logger"

	"github.com/labstack/echo/v4"
)

// JobHandler handles HTTP requests for the periodic jobs.
type JobHandler struct {
	runner service.JobRunner
	logger *logger.Logger
}

// NewJobHandler creates a new JobHandler.
func NewJobHandler(runner service.JobRunner, logger *logger.Logger) *JobHandler {
	return &JobHandler{runner: runner, logger: logger}
}

// RegisterRoutes registers the job routes to the Echo group.
func (h *JobHandler) RegisterRoutes(g *echo.Group) {
	g.POST("/:name/run", h.TriggerJob)
	g.GET("/status", h.GetStatus)
}

// TriggerJob runs a registered job immediately. A job already in flight is not
// queued; the response says so.
func (h *JobHandler) TriggerJob(c echo.Context) error {
	name := c.Param("name")

	result, err := h.runner.Trigger(c.Request().Context(), name)
	if err != nil {
		return c.JSON(http.StatusNotFound, dto.Fail(err.Error()))
	}

	return c.JSON(http.StatusOK, dto.OK(result))
}

// GetStatus lists every registered job with its schedule and run state.
func (h *JobHandler) GetStatus(c echo.Context) error {
	return c.JSON(http.StatusOK, dto.OK(h.runner.Status()))
}
