package handlers

import (
	"net/http"

	"github.com/anonto42/regional-voices/backend/internal/middleware"
	"github.com/anonto42/regional-voices/backend/internal/models"
	"github.com/anonto42/regional-voices/backend/internal/services"
	"github.com/labstack/echo/v4"
)

// UserHandler handles HTTP requests related to users and profiles
type UserHandler struct {
	identity *services.IdentityService
	feed     *services.FeedService
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(identity *services.IdentityService, feed *services.FeedService) *UserHandler {
	return &UserHandler{identity: identity, feed: feed}
}

// RegisterProfileRoutes registers own-profile routes on a group that requires login
func (h *UserHandler) RegisterProfileRoutes(g *echo.Group) {
	g.GET("/profile", h.GetProfile)
	g.GET("/profile/edit", h.EditProfilePage)
	g.POST("/profile/edit", h.UpdateProfile)
}

// RegisterPublicRoutes registers routes anyone may view
func (h *UserHandler) RegisterPublicRoutes(g *echo.Group) {
	g.GET("/users/:handle", h.GetUser)
}

// GetProfile renders the logged-in user's own page
func (h *UserHandler) GetProfile(c echo.Context) error {
	ctx := c.Request().Context()
	user := middleware.CurrentUser(c)

	page, err := h.feed.PublicProfile(ctx, user.Handle, user)
	if err != nil {
		return httpError(err)
	}
	profile, err := h.identity.Profile(ctx, user)
	if err != nil {
		return httpError(err)
	}
	return c.Render(http.StatusOK, "profile", echo.Map{
		"user":      user,
		"profile":   profile,
		"items":     page.Items,
		"followers": page.Followers,
		"following": page.Following,
	})
}

// GetUser renders another user's public page
func (h *UserHandler) GetUser(c echo.Context) error {
	page, err := h.feed.PublicProfile(c.Request().Context(), c.Param("handle"), middleware.CurrentUser(c))
	if err != nil {
		return httpError(err)
	}
	return c.Render(http.StatusOK, "public_profile", echo.Map{"page": page})
}

// EditProfilePage renders the followed-categories form
func (h *UserHandler) EditProfilePage(c echo.Context) error {
	profile, err := h.identity.Profile(c.Request().Context(), middleware.CurrentUser(c))
	if err != nil {
		return httpError(err)
	}
	return c.Render(http.StatusOK, "edit_profile", echo.Map{
		"profile": profile,
		"errors":  noErrors(),
	})
}

// UpdateProfile replaces the followed categories
func (h *UserHandler) UpdateProfile(c echo.Context) error {
	ctx := c.Request().Context()
	user := middleware.CurrentUser(c)

	var form models.EditProfileForm
	if err := c.Bind(&form); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}

	if _, err := h.identity.EditProfile(ctx, user, form.FollowedCategories); err != nil {
		if fields, ok := validationFields(err); ok {
			profile, perr := h.identity.Profile(ctx, user)
			if perr != nil {
				return httpError(perr)
			}
			return c.Render(http.StatusOK, "edit_profile", echo.Map{
				"profile": profile,
				"errors":  fields,
			})
		}
		return httpError(err)
	}
	return c.Redirect(http.StatusFound, "/profile")
}
