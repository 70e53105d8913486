package handlers

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// HealthHandler serves the liveness probe.
type HealthHandler struct {
	now func() time.Time
}

// NewHealthHandler creates a HealthHandler using the wall clock.
func NewHealthHandler() *HealthHandler {
	return &HealthHandler{now: time.Now}
}

// Get handles GET /health.
func (h *HealthHandler) Get(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: "ok", Timestamp: h.now().UTC()})
}
