package http

import (
	"net/http"
	"strconv"

	"fund8r-engine/internal/engine/dto"
	"fund8r-engine/internal/engine/service"
	"fund8r-engine/pkg/logger"

	"github.com/labstack/echo/v4"
)

// NotificationHandler handles HTTP requests for in-app notifications.
type NotificationHandler struct {
	notificationService service.NotificationService
	logger              *logger.Logger
}

// NewNotificationHandler creates a new NotificationHandler.
func NewNotificationHandler(notificationService service.NotificationService, logger *logger.Logger) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService, logger: logger}
}

// RegisterRoutes registers notification routes on the API group.
func (h *NotificationHandler) RegisterRoutes(g *echo.Group) {
	g.GET("/users/:id/notifications", h.ListNotifications)
	g.POST("/notifications/:id/read", h.MarkRead)
}

// ListNotifications returns a user's notifications, optionally unread only.
func (h *NotificationHandler) ListNotifications(c echo.Context) error {
	userID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid user ID"})
	}

	unreadOnly := c.QueryParam("unread") == "true"

	notifications, err := h.notificationService.List(c.Request().Context(), userID, unreadOnly)
	if err != nil {
		h.logger.Error("Failed to list notifications", logger.ErrorField(err), logger.Field("user_id", userID))
		return c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "Internal server error"})
	}

	return c.JSON(http.StatusOK, notifications)
}

// MarkRead flags a notification as read.
func (h *NotificationHandler) MarkRead(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid notification ID"})
	}

	if err := h.notificationService.MarkRead(c.Request().Context(), id); err != nil {
		h.logger.Error("Failed to mark notification read", logger.ErrorField(err), logger.Field("notification_id", id))
		return c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "Internal server error"})
	}

	return c.NoContent(http.StatusNoContent)
}
