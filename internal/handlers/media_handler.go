package handlers

import (
	"errors"
	"mime"
	"net/http"
	"path"

	"github.com/anonto42/regional-voices/backend/pkg/media"
	"github.com/labstack/echo/v4"
)

// MediaHandler streams stored uploads back to browsers
type MediaHandler struct {
	store media.Store
}

// NewMediaHandler creates a new MediaHandler
func NewMediaHandler(store media.Store) *MediaHandler {
	return &MediaHandler{store: store}
}

// RegisterMediaRoutes registers the media route
func (h *MediaHandler) RegisterMediaRoutes(g *echo.Group) {
	g.GET("/media/*", h.Serve)
}

// Serve streams the referenced file
func (h *MediaHandler) Serve(c echo.Context) error {
	ref, err := media.CleanRef(c.Param("*"))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Media not found")
	}

	rc, err := h.store.Open(c.Request().Context(), ref)
	if err != nil {
		if errors.Is(err, media.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Media not found")
		}
		return httpError(err)
	}
	defer rc.Close()

	contentType := mime.TypeByExtension(path.Ext(ref))
	if contentType == "" {
		contentType = echo.MIMEOctetStream
	}
	c.Response().Header().Set("Cache-Control", "public, max-age=86400")
	return c.Stream(http.StatusOK, contentType, rc)
}
