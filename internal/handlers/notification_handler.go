package handlers

import (
	"net/http"

	"github.com/anonto42/regional-voices/backend/internal/middleware"
	"github.com/anonto42/regional-voices/backend/internal/services"
	"github.com/labstack/echo/v4"
)

// NotificationHandler lists notifications and marks them read
type NotificationHandler struct {
	social *services.SocialService
}

// NewNotificationHandler creates a new NotificationHandler
func NewNotificationHandler(social *services.SocialService) *NotificationHandler {
	return &NotificationHandler{social: social}
}

// RegisterNotificationRoutes registers notification routes
func (h *NotificationHandler) RegisterNotificationRoutes(g *echo.Group) {
	g.GET("/notifications", h.List)
	g.POST("/notifications/read-all", h.MarkAllAsRead)
	g.POST("/notifications/:id/read", h.MarkAsRead)
}

// List renders the user's notifications, newest first
func (h *NotificationHandler) List(c echo.Context) error {
	ctx := c.Request().Context()
	user := middleware.CurrentUser(c)

	notifications, err := h.social.Notifications(ctx, user)
	if err != nil {
		return httpError(err)
	}
	unread, err := h.social.UnreadCount(ctx, user)
	if err != nil {
		return httpError(err)
	}
	return c.Render(http.StatusOK, "notifications", echo.Map{
		"notifications": notifications,
		"unread":        unread,
	})
}

// MarkAsRead marks one notification read and follows it: to the feed when it
// points at a contribution, back to the list otherwise
func (h *NotificationHandler) MarkAsRead(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	notification, err := h.social.MarkNotificationRead(c.Request().Context(), middleware.CurrentUser(c), id)
	if err != nil {
		return httpError(err)
	}
	if notification.TargetID != nil {
		return c.Redirect(http.StatusFound, "/")
	}
	return c.Redirect(http.StatusFound, "/notifications")
}

// MarkAllAsRead marks every notification read
func (h *NotificationHandler) MarkAllAsRead(c echo.Context) error {
	if _, err := h.social.MarkAllNotificationsRead(c.Request().Context(), middleware.CurrentUser(c)); err != nil {
		return httpError(err)
	}
	return c.Redirect(http.StatusFound, "/notifications")
}
