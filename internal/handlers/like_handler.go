package handlers

import (
	"net/http"

	"github.com/anonto42/regional-voices/backend/internal/middleware"
	"github.com/anonto42/regional-voices/backend/internal/services"
	"github.com/labstack/echo/v4"
)

// LikeHandler handles HTTP requests related to likes
type LikeHandler struct {
	social *services.SocialService
}

// NewLikeHandler creates a new LikeHandler
func NewLikeHandler(social *services.SocialService) *LikeHandler {
	return &LikeHandler{social: social}
}

// RegisterLikeRoutes registers the like toggle. Every method is routed so that
// non-POST requests get the JSON error instead of a 405.
func (h *LikeHandler) RegisterLikeRoutes(g *echo.Group) {
	g.Any("/like/:id", h.ToggleLike)
}

// ToggleLike likes or unlikes a contribution and returns the new state
func (h *LikeHandler) ToggleLike(c echo.Context) error {
	if c.Request().Method != http.MethodPost {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request"})
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	result, err := h.social.ToggleLike(c.Request().Context(), middleware.CurrentUser(c), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, result)
}
