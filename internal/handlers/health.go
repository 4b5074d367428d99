package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// Pinger is satisfied by *sql.DB
type Pinger interface {
	PingContext(ctx context.Context) error
}

// HealthHandler reports service and database health
type HealthHandler struct {
	service string
	db      Pinger
}

// NewHealthHandler creates a new HealthHandler
func NewHealthHandler(service string, db Pinger) *HealthHandler {
	return &HealthHandler{service: service, db: db}
}

// HealthCheck answers 200 when the database responds and 503 otherwise
func (h *HealthHandler) HealthCheck(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	if h.db != nil {
		if err := h.db.PingContext(ctx); err != nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]string{
				"status":   "unhealthy",
				"service":  h.service,
				"database": "down",
			})
		}
	}
	return c.JSON(http.StatusOK, map[string]string{
		"status":   "healthy",
		"service":  h.service,
		"database": "up",
	})
}
