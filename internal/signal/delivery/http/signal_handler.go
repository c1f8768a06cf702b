package http

import (
	"net/http"
	"strconv"

	"crypto-signal-engine/internal/signal/dto"
	"crypto-signal-engine/internal/signal/service"
	"crypto-signal-engine/pkg/logger"

	"github.com/labstack/echo/v4"
)

// SignalHandler handles HTTP requests for signal generation and lifecycle.
type SignalHandler struct {
	generator service.SignalGeneratorService
	autoGen   service.AutoGeneratorService
	manager   service.SignalManagerService
	logger    *logger.Logger
}

// NewSignalHandler creates a new SignalHandler.
func NewSignalHandler(generator service.SignalGeneratorService, autoGen service.AutoGeneratorService, manager service.SignalManagerService, logger *logger.Logger) *SignalHandler {
	return &SignalHandler{generator: generator, autoGen: autoGen, manager: manager, logger: logger}
}

// RegisterRoutes registers the signal routes to the Echo group.
func (h *SignalHandler) RegisterRoutes(g *echo.Group) {
	g.POST("/generate", h.Generate)
	g.POST("/auto-generate", h.AutoGenerate)
	g.GET("/active", h.GetActive)
	g.GET("/completed", h.GetCompleted)
	g.POST("/close", h.Close)
	g.POST("/update-prices", h.UpdatePrices)
}

// Generate runs the full scoring pipeline for one coin and records a
// prediction without funding a position.
func (h *SignalHandler) Generate(c echo.Context) error {
	var req dto.GenerateSignalRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, dto.Fail("Invalid request payload"))
	}
	if req.Coin == "" {
		return c.JSON(http.StatusBadRequest, dto.Fail("coin is required"))
	}
	if req.Capital < 0 {
		return c.JSON(http.StatusBadRequest, dto.Fail("capital must be positive"))
	}

	result, err := h.generator.Generate(c.Request().Context(), req.Coin, req.Timeframe, req.Capital)
	if err != nil {
		h.logger.Error("Failed to generate signal", logger.StringField("coin", req.Coin), logger.ErrorField(err))
		return c.JSON(http.StatusInternalServerError, dto.Fail(err.Error()))
	}

	return c.JSON(http.StatusOK, dto.OK(result))
}

// AutoGenerate runs a full sweep over the configured coins.
func (h *SignalHandler) AutoGenerate(c echo.Context) error {
	result, err := h.autoGen.Run(c.Request().Context())
	if err != nil {
		h.logger.Error("Auto-generation sweep failed", logger.ErrorField(err))
		return c.JSON(http.StatusInternalServerError, dto.Fail(err.Error()))
	}

	return c.JSON(http.StatusOK, dto.OK(result))
}

// GetActive lists all signals still tracking the market, optionally filtered
// by coin.
func (h *SignalHandler) GetActive(c echo.Context) error {
	signals, err := h.manager.ListActive(c.Request().Context(), c.QueryParam("coin"))
	if err != nil {
		h.logger.Error("Failed to list active signals", logger.ErrorField(err))
		return c.JSON(http.StatusInternalServerError, dto.Fail("Failed to get active signals"))
	}

	return c.JSON(http.StatusOK, dto.OK(signals))
}

// GetCompleted lists terminal signals, most recently closed first.
func (h *SignalHandler) GetCompleted(c echo.Context) error {
	limit := 50
	if raw := c.QueryParam("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			return c.JSON(http.StatusBadRequest, dto.Fail("Invalid limit"))
		}
		limit = parsed
	}

	signals, err := h.manager.ListCompleted(c.Request().Context(), limit)
	if err != nil {
		h.logger.Error("Failed to list completed signals", logger.ErrorField(err))
		return c.JSON(http.StatusInternalServerError, dto.Fail("Failed to get completed signals"))
	}

	return c.JSON(http.StatusOK, dto.OK(signals))
}

// Close force-terminates one signal at the live price.
func (h *SignalHandler) Close(c echo.Context) error {
	var req dto.CloseSignalRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, dto.Fail("Invalid request payload"))
	}
	if req.SignalID == "" {
		return c.JSON(http.StatusBadRequest, dto.Fail("signal_id is required"))
	}

	signal, err := h.manager.Close(c.Request().Context(), req.SignalID, "manual")
	if err != nil {
		h.logger.Error("Failed to close signal", logger.StringField("signal_id", req.SignalID), logger.ErrorField(err))
		return c.JSON(http.StatusConflict, dto.Fail(err.Error()))
	}

	return c.JSON(http.StatusOK, dto.OK(signal))
}

// UpdatePrices runs one batch price-update pass over all active signals.
func (h *SignalHandler) UpdatePrices(c echo.Context) error {
	result, err := h.manager.UpdateAll(c.Request().Context())
	if err != nil {
		h.logger.Error("Failed to update prices", logger.ErrorField(err))
		return c.JSON(http.StatusInternalServerError, dto.Fail(err.Error()))
	}

	return c.JSON(http.StatusOK, dto.OK(result))
}
