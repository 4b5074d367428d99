package handlers

import (
	"net/http"

	"github.com/anonto42/regional-voices/backend/internal/middleware"
	"github.com/anonto42/regional-voices/backend/internal/services"
	"github.com/anonto42/regional-voices/backend/pkg/config"
	"github.com/labstack/echo/v4"
)

// FeedHandler serves the home and explore feeds
type FeedHandler struct {
	feed *services.FeedService
}

// NewFeedHandler creates a new FeedHandler
func NewFeedHandler(feed *services.FeedService) *FeedHandler {
	return &FeedHandler{feed: feed}
}

// RegisterFeedRoutes registers feed routes on a group that requires login
func (h *FeedHandler) RegisterFeedRoutes(g *echo.Group) {
	g.GET("/", h.Home)
	g.GET("/explore", h.Explore)
}

// Home renders the feed chosen by the configured policy
func (h *FeedHandler) Home(c echo.Context) error {
	items, err := h.feed.Home(c.Request().Context(), middleware.CurrentUser(c))
	if err != nil {
		return httpError(err)
	}
	return c.Render(http.StatusOK, "home", echo.Map{
		"items": items,
		"feed":  h.feed.Policy(),
	})
}

// Explore renders every contribution
func (h *FeedHandler) Explore(c echo.Context) error {
	items, err := h.feed.GlobalFeed(c.Request().Context(), middleware.CurrentUser(c))
	if err != nil {
		return httpError(err)
	}
	return c.Render(http.StatusOK, "home", echo.Map{
		"items": items,
		"feed":  config.FeedPolicyGlobal,
	})
}
