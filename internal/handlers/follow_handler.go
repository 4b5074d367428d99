package handlers

import (
	"net/http"

	"github.com/anonto42/regional-voices/backend/internal/middleware"
	"github.com/anonto42/regional-voices/backend/internal/services"
	"github.com/labstack/echo/v4"
)

// FollowHandler handles follow/unfollow requests
type FollowHandler struct {
	social *services.SocialService
}

// NewFollowHandler creates a new FollowHandler
func NewFollowHandler(social *services.SocialService) *FollowHandler {
	return &FollowHandler{social: social}
}

// RegisterFollowRoutes registers follow routes
func (h *FollowHandler) RegisterFollowRoutes(g *echo.Group) {
	g.POST("/follow/:id", h.ToggleFollow)
}

// ToggleFollow follows or unfollows a user and returns to the feed
func (h *FollowHandler) ToggleFollow(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	if _, err := h.social.ToggleFollow(c.Request().Context(), middleware.CurrentUser(c), id); err != nil {
		return httpError(err)
	}
	return c.Redirect(http.StatusFound, "/")
}
