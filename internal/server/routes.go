package server

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/nfrund/troom/internal/handlers"
)

// Banner is the body of GET /.
const Banner = "troom chat relay is running"

// RegisterRoutes sets up the routes that do not belong to a module.
func (s *Server) RegisterRoutes() {
	health := handlers.NewHealthHandler()

	s.E.GET("/", func(c echo.Context) error {
		return c.String(http.StatusOK, Banner)
	})
	s.E.GET("/health", health.Get)
}
