package handlers

import (
	"net/http"

	"github.com/anonto42/regional-voices/backend/internal/middleware"
	"github.com/anonto42/regional-voices/backend/internal/models"
	"github.com/anonto42/regional-voices/backend/internal/services"
	"github.com/labstack/echo/v4"
)

// CommentHandler handles HTTP requests related to comments
type CommentHandler struct {
	social *services.SocialService
}

// NewCommentHandler creates a new CommentHandler
func NewCommentHandler(social *services.SocialService) *CommentHandler {
	return &CommentHandler{social: social}
}

// RegisterCommentRoutes registers comment routes
func (h *CommentHandler) RegisterCommentRoutes(g *echo.Group) {
	g.POST("/comment/:id", h.AddComment)
}

// AddComment stores a comment and returns to the feed. Blank comments are ignored.
func (h *CommentHandler) AddComment(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	var form models.CreateCommentForm
	if err := c.Bind(&form); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}

	if _, err := h.social.AddComment(c.Request().Context(), middleware.CurrentUser(c), id, form.Text); err != nil {
		return httpError(err)
	}
	return c.Redirect(http.StatusFound, "/")
}
