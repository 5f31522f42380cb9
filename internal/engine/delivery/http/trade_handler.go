package http

import (
	"errors"
	"net/http"
	"strconv"

	"fund8r-engine/internal/engine/dto"
	"fund8r-engine/internal/engine/service"
	"fund8r-engine/pkg/logger"

	"github.com/labstack/echo/v4"
)

// TradeHandler handles HTTP requests for trade submission.
type TradeHandler struct {
	tradeService service.TradeService
	logger       *logger.Logger
}

// NewTradeHandler creates a new TradeHandler.
func NewTradeHandler(tradeService service.TradeService, logger *logger.Logger) *TradeHandler {
	return &TradeHandler{tradeService: tradeService, logger: logger}
}

// RegisterRoutes registers trade routes on the challenges group.
func (h *TradeHandler) RegisterRoutes(g *echo.Group) {
	g.POST("/:id/trades", h.SubmitTrade)
	g.POST("/:id/positions", h.OpenPosition)
	g.POST("/:id/positions/:orderId/close", h.ClosePosition)
}

// SubmitTrade applies a closed trade to a challenge and returns the result,
// including any breach the trade caused.
func (h *TradeHandler) SubmitTrade(c echo.Context) error {
	challengeID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid challenge ID"})
	}

	var req dto.SubmitTradeRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request payload"})
	}

	result, err := h.tradeService.SubmitTrade(c.Request().Context(), challengeID, req)
	if err != nil {
		return h.tradeError(c, err, challengeID)
	}

	return c.JSON(http.StatusCreated, result)
}

// OpenPosition opens a running position on a challenge.
func (h *TradeHandler) OpenPosition(c echo.Context) error {
	challengeID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid challenge ID"})
	}

	var req dto.OpenPositionRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request payload"})
	}

	order, err := h.tradeService.OpenPosition(c.Request().Context(), challengeID, req)
	if err != nil {
		return h.tradeError(c, err, challengeID)
	}

	return c.JSON(http.StatusCreated, order)
}

// ClosePosition closes an open position on a challenge.
func (h *TradeHandler) ClosePosition(c echo.Context) error {
	challengeID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid challenge ID"})
	}
	orderID, err := strconv.ParseInt(c.Param("orderId"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid order ID"})
	}

	var req dto.ClosePositionRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request payload"})
	}

	result, err := h.tradeService.ClosePosition(c.Request().Context(), challengeID, orderID, req)
	if err != nil {
		return h.tradeError(c, err, challengeID)
	}

	return c.JSON(http.StatusOK, result)
}

func (h *TradeHandler) tradeError(c echo.Context, err error, challengeID int64) error {
	switch {
	case errors.Is(err, service.ErrChallengeNotFound), errors.Is(err, service.ErrOrderNotFound):
		return c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: err.Error()})
	case errors.Is(err, service.ErrChallengeNotActive), errors.Is(err, service.ErrOrderNotOpen):
		return c.JSON(http.StatusConflict, dto.ErrorResponse{Error: err.Error()})
	case errors.Is(err, service.ErrInvalidOrderType):
		return c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
	default:
		h.logger.Error("Trade request failed",
			logger.ErrorField(err), logger.Field("challenge_id", challengeID))
		return c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "Internal server error"})
	}
}
