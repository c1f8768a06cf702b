package http

import (
	"net/http"
	"strconv"

	"crypto-signal-engine/internal/entity"
	"crypto-signal-engine/internal/signal/config"
	"crypto-signal-engine/internal/signal/dto"
	"crypto-signal-engine/internal/signal/service"
	"crypto-signal-engine/pkg/logger"

	"github.com/labstack/echo/v4"
)

// PerformanceHandler handles HTTP requests for performance and portfolio
// views.
type PerformanceHandler struct {
	cfg       *config.Config
	tracker   service.PerformanceTrackerService
	portfolio service.PortfolioService
	logger    *logger.Logger
}

// NewPerformanceHandler creates a new PerformanceHandler.
func NewPerformanceHandler(cfg *config.Config, tracker service.PerformanceTrackerService, portfolio service.PortfolioService, logger *logger.Logger) *PerformanceHandler {
	return &PerformanceHandler{cfg: cfg, tracker: tracker, portfolio: portfolio, logger: logger}
}

// RegisterRoutes registers the performance routes to the Echo group.
func (h *PerformanceHandler) RegisterRoutes(g *echo.Group) {
	g.GET("/performance", h.GetPerformance)
	g.GET("/portfolio", h.GetPortfolio)
}

// GetPerformance returns the derived performance summary for one coin.
func (h *PerformanceHandler) GetPerformance(c echo.Context) error {
	coin := c.QueryParam("coin")
	if coin == "" {
		return c.JSON(http.StatusBadRequest, dto.Fail("coin is required"))
	}

	days := h.cfg.Engine.PerformanceWindowDays
	if raw := c.QueryParam("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			return c.JSON(http.StatusBadRequest, dto.Fail("Invalid days"))
		}
		days = parsed
	}

	horizon := entity.Horizon(h.cfg.Engine.PerformanceHorizon)
	if raw := c.QueryParam("horizon"); raw != "" {
		parsed, err := entity.ParseHorizon(raw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, dto.Fail(err.Error()))
		}
		horizon = parsed
	}

	summary, err := h.tracker.Summarize(c.Request().Context(), coin, days, horizon)
	if err != nil {
		h.logger.Error("Failed to summarize performance", logger.StringField("coin", coin), logger.ErrorField(err))
		return c.JSON(http.StatusInternalServerError, dto.Fail("Failed to get performance"))
	}

	return c.JSON(http.StatusOK, dto.OK(summary))
}

// GetPortfolio returns a fresh portfolio rollup.
func (h *PerformanceHandler) GetPortfolio(c echo.Context) error {
	stat, err := h.portfolio.Rollup(c.Request().Context())
	if err != nil {
		h.logger.Error("Failed to roll up portfolio", logger.ErrorField(err))
		return c.JSON(http.StatusInternalServerError, dto.Fail("Failed to get portfolio"))
	}

	return c.JSON(http.StatusOK, dto.OK(stat))
}
