package handlers

import (
	"net/http"

	"github.com/anonto42/regional-voices/backend/internal/services"
	"github.com/labstack/echo/v4"
)

// DashboardHandler serves the staff dashboard
type DashboardHandler struct {
	dashboard *services.DashboardService
}

// NewDashboardHandler creates a new DashboardHandler
func NewDashboardHandler(dashboard *services.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboard: dashboard}
}

// RegisterDashboardRoutes registers the dashboard on a staff-only group
func (h *DashboardHandler) RegisterDashboardRoutes(g *echo.Group) {
	g.GET("", h.Index)
}

// Index renders usage statistics
func (h *DashboardHandler) Index(c echo.Context) error {
	stats, err := h.dashboard.Stats(c.Request().Context())
	if err != nil {
		return httpError(err)
	}
	return c.Render(http.StatusOK, "admin/custom_index", echo.Map{"stats": stats})
}
