package handlers

import (
	"errors"
	"mime/multipart"
	"net/http"

	"github.com/anonto42/regional-voices/backend/internal/middleware"
	"github.com/anonto42/regional-voices/backend/internal/models"
	"github.com/anonto42/regional-voices/backend/internal/services"
	"github.com/labstack/echo/v4"
)

// PostHandler handles contribution submission
type PostHandler struct {
	content *services.ContentService
}

// NewPostHandler creates a new PostHandler
func NewPostHandler(content *services.ContentService) *PostHandler {
	return &PostHandler{content: content}
}

// RegisterPostRoutes registers contribution routes on a group that requires login
func (h *PostHandler) RegisterPostRoutes(g *echo.Group) {
	g.GET("/create", h.CreatePage)
	g.POST("/create", h.CreatePost)
}

// CreatePage renders the empty create-post form
func (h *PostHandler) CreatePage(c echo.Context) error {
	return h.render(c, services.ContributionInput{}, noErrors())
}

// CreatePost validates the form, stores any media and redirects to the profile
func (h *PostHandler) CreatePost(c echo.Context) error {
	var form models.ContributionForm
	in := services.ContributionInput{}
	if err := c.Bind(&form); err != nil {
		in.Category = c.FormValue("category")
		in.Text = c.FormValue("text_content")
		return h.render(c, in, map[string]string{"state": "Select a valid choice. That choice is not one of the available choices."})
	}
	in.RegionID = form.RegionID
	in.Category = form.Category
	in.Text = form.Text

	var closers []multipart.File
	defer func() {
		for _, f := range closers {
			_ = f.Close()
		}
	}()
	for _, slot := range []struct {
		field string
		dst   **services.Upload
	}{
		{"image_content", &in.Image},
		{"audio_content", &in.Audio},
		{"video_content", &in.Video},
	} {
		fh, err := c.FormFile(slot.field)
		if err != nil {
			if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
				continue
			}
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid upload")
		}
		f, err := fh.Open()
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid upload")
		}
		closers = append(closers, f)
		*slot.dst = &services.Upload{Filename: fh.Filename, Content: f}
	}

	if _, err := h.content.CreateContribution(c.Request().Context(), middleware.CurrentUser(c), in); err != nil {
		if fields, ok := validationFields(err); ok {
			in.Image, in.Audio, in.Video = nil, nil, nil
			return h.render(c, in, fields)
		}
		return httpError(err)
	}
	return c.Redirect(http.StatusFound, "/profile")
}

func (h *PostHandler) render(c echo.Context, in services.ContributionInput, errs map[string]string) error {
	regions, err := h.content.ListRegions(c.Request().Context())
	if err != nil {
		return httpError(err)
	}
	return c.Render(http.StatusOK, "create_post", echo.Map{
		"form":    in,
		"regions": regions,
		"errors":  errs,
		"script":  h.content.Script(),
	})
}
