package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/cropstech/crops-backend/internal/repository"
	"github.com/cropstech/crops-backend/pkg/middleware"
	"github.com/cropstech/crops-backend/pkg/response"
)

// ListNotifications returns the caller's notifications, newest first.
// @Summary List notifications
// @Tags notifications
// @Produce json
// @Param unread_only query bool false "Only unread"
// @Param page query int false "Page" default(1)
// @Param page_size query int false "Page size" default(20)
// @Success 200 {object} response.Response
// @Router /api/v1/notifications [get]
func (h *Handler) ListNotifications(c *gin.Context) {
	userID := middleware.UserID(c)
	unreadOnly := c.Query("unread_only") == "true"
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	items, err := h.notifications.List(c.Request.Context(), userID, unreadOnly, page, pageSize)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Success(c, gin.H{"page": page, "page_size": pageSize, "list": items})
}

// MarkNotificationRead flips read_at on one notification.
// @Summary Mark a notification read
// @Tags notifications
// @Produce json
// @Param id path string true "Notification ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/notifications/{id}/read [post]
func (h *Handler) MarkNotificationRead(c *gin.Context) {
	userID := middleware.UserID(c)
	id := c.Param("id")
	if err := h.notifications.MarkRead(c.Request.Context(), id, userID); err != nil {
		if errors.Is(err, repository.ErrNotOwned) {
			response.NotFound(c, "notification not found")
			return
		}
		response.InternalError(c, err)
		return
	}
	response.Success(c, nil)
}

// MarkAllNotificationsRead flips read_at on every unread notification.
// @Summary Mark all notifications read
// @Tags notifications
// @Produce json
// @Success 200 {object} response.Response
// @Router /api/v1/notifications/read-all [post]
func (h *Handler) MarkAllNotificationsRead(c *gin.Context) {
	userID := middleware.UserID(c)
	if err := h.notifications.MarkAllRead(c.Request.Context(), userID); err != nil {
		response.InternalError(c, err)
		return
	}
	response.Success(c, nil)
}
