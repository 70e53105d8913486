package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/samber/do/v2"

	"github.com/nfrund/troom/internal/config"
	"github.com/nfrund/troom/internal/handlers"
	"github.com/nfrund/troom/internal/middleware"
	"github.com/nfrund/troom/internal/module"
)

// Server holds the dependencies for the HTTP server.
type Server struct {
	E        *echo.Echo
	Cfg      *config.Config
	injector do.Injector
	modules  []module.Module
	logger   *slog.Logger
}

// New creates a new Server instance with the global middleware chain.
func New(cfg *config.Config, injector do.Injector, modules []module.Module) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handlers.NewValidator()

	e.Use(echomw.RequestID())
	e.Use(middleware.Logger)
	e.Use(echomw.Recover())
	e.Use(middleware.CORS(cfg.CORSAllowedOrigins))
	setupErrorHandling(e)

	return &Server{
		E:        e,
		Cfg:      cfg,
		injector: injector,
		modules:  modules,
		logger:   slog.Default().With("component", "server"),
	}
}

// Boot registers every module with the container, then boots them in
// order. Background work started by modules lives as long as ctx.
func (s *Server) Boot(ctx context.Context) error {
	for _, m := range s.modules {
		if err := m.Register(s.injector); err != nil {
			return fmt.Errorf("register module %s: %w", m.Name(), err)
		}
	}

	root := s.E.Group("")
	for _, m := range s.modules {
		s.logger.Info("Booting module", "module", m.Name())
		if err := m.Boot(ctx, root, s.injector); err != nil {
			return fmt.Errorf("boot module %s: %w", m.Name(), err)
		}
	}

	s.RegisterRoutes()
	return nil
}

// setupErrorHandling installs a JSON error handler. Errors that are not
// *echo.HTTPError are logged with a stack trace and reported as a 500.
func setupErrorHandling(e *echo.Echo) {
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code := http.StatusInternalServerError
		message := http.StatusText(code)

		var he *echo.HTTPError
		if errors.As(err, &he) {
			code = he.Code
			if msg, ok := he.Message.(string); ok {
				message = msg
			} else {
				message = http.StatusText(code)
			}
		} else {
			logger := middleware.FromContext(c.Request().Context())
			logger.Error("Internal Server Error (Unhandled)",
				"error", err,
				"path", c.Request().URL.Path,
				"stack_trace", string(debug.Stack()),
			)
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(code)
		} else {
			err = c.JSON(code, handlers.ErrorResponse{Error: message})
		}
		if err != nil {
			slog.Error("Failed to write error response", "error", err)
		}
	}
}
