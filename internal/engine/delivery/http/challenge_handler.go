package http

import (
	"errors"
	"net/http"
	"strconv"

	"fund8r-engine/internal/engine/dto"
	"fund8r-engine/internal/engine/service"
	"fund8r-engine/pkg/logger"
	"fund8r-engine/pkg/utils"

	"github.com/labstack/echo/v4"
)

// ChallengeHandler handles HTTP requests for challenges.
type ChallengeHandler struct {
	challengeService service.ChallengeService
	logger           *logger.Logger
}

// NewChallengeHandler creates a new ChallengeHandler.
func NewChallengeHandler(challengeService service.ChallengeService, logger *logger.Logger) *ChallengeHandler {
	return &ChallengeHandler{challengeService: challengeService, logger: logger}
}

// RegisterRoutes registers the challenge routes on the Echo group.
func (h *ChallengeHandler) RegisterRoutes(g *echo.Group) {
	g.POST("", h.CreateChallenge)
	g.GET("/:id", h.GetChallenge)
	g.GET("/:id/stats", h.GetDailyStats)
	g.GET("/:id/orders", h.GetOrders)
}

// CreateChallenge provisions a new challenge after purchase.
func (h *ChallengeHandler) CreateChallenge(c echo.Context) error {
	var req dto.CreateChallengeRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request payload"})
	}

	challenge, err := h.challengeService.Create(c.Request().Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			return c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		}
		h.logger.Error("Failed to create challenge", logger.ErrorField(err))
		return c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
	}

	return c.JSON(http.StatusCreated, challenge)
}

// GetChallenge returns a challenge with its current risk metrics.
func (h *ChallengeHandler) GetChallenge(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid challenge ID"})
	}

	challenge, err := h.challengeService.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrChallengeNotFound) {
			return c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: err.Error()})
		}
		h.logger.Error("Failed to get challenge", logger.ErrorField(err), logger.Field("challenge_id", id))
		return c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "Internal server error"})
	}

	return c.JSON(http.StatusOK, challenge)
}

// GetDailyStats returns the challenge's per-day stats.
func (h *ChallengeHandler) GetDailyStats(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid challenge ID"})
	}

	stats, err := h.challengeService.GetDailyStats(c.Request().Context(), id)
	if err != nil {
		h.logger.Error("Failed to get daily stats", logger.ErrorField(err), logger.Field("challenge_id", id))
		return c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "Internal server error"})
	}

	return c.JSON(http.StatusOK, stats)
}

// GetOrders returns the challenge's orders, optionally filtered by status.
func (h *ChallengeHandler) GetOrders(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid challenge ID"})
	}

	param := dto.GetOrdersParam{ChallengeID: id}
	if status := c.QueryParam("status"); status != "" {
		param.Status = utils.ToPointer(status)
	}

	orders, err := h.challengeService.GetOrders(c.Request().Context(), param)
	if err != nil {
		h.logger.Error("Failed to get orders", logger.ErrorField(err), logger.Field("challenge_id", id))
		return c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "Internal server error"})
	}

	return c.JSON(http.StatusOK, orders)
}
