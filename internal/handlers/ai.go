package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/nfrund/troom/internal/assistant"
	"github.com/nfrund/troom/internal/middleware"
)

// AIHandler exposes the text generator over HTTP.
type AIHandler struct {
	generator assistant.Generator
}

// NewAIHandler creates an AIHandler. A nil generator makes every request
// answer 503.
func NewAIHandler(generator assistant.Generator) *AIHandler {
	return &AIHandler{generator: generator}
}

// Text handles POST /api/ai/text.
func (h *AIHandler) Text(c echo.Context) error {
	var req AITextRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body"})
	}
	req.Prompt = strings.TrimSpace(req.Prompt)
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Prompt is required"})
	}
	return h.generate(c, req.Prompt)
}

// Query handles the legacy POST /api/ai, which takes {"query": ...}.
func (h *AIHandler) Query(c echo.Context) error {
	var req AIQueryRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body"})
	}
	req.Query = strings.TrimSpace(req.Query)
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Query is required"})
	}
	return h.generate(c, req.Query)
}

func (h *AIHandler) generate(c echo.Context, prompt string) error {
	if h.generator == nil {
		return c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "AI backend not configured"})
	}

	logger := middleware.FromContext(c.Request().Context())
	text, err := h.generator.Generate(c.Request().Context(), prompt)
	if err != nil {
		if errors.Is(err, assistant.ErrNotConfigured) {
			return c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "AI backend not configured"})
		}
		logger.Error("AI generation failed", "error", err)
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to generate text"})
	}
	return c.JSON(http.StatusOK, AIResponse{Response: text})
}
