package ai

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/labstack/echo/v4"
	"github.com/samber/do/v2"

	"github.com/nfrund/troom/internal/assistant"
	"github.com/nfrund/troom/internal/config"
	"github.com/nfrund/troom/internal/handlers"
	"github.com/nfrund/troom/internal/middleware"
	"github.com/nfrund/troom/internal/module"
	"github.com/nfrund/troom/internal/pubsub"
	"github.com/nfrund/troom/internal/websocket"
)

// AIModule answers "@ai" chat messages and serves the text generation API.
// Without credentials the routes stay mounted and answer 503.
type AIModule struct {
	module.BaseModule
	responder *assistant.Responder
	logger    *slog.Logger
}

// New creates a new instance of the AIModule.
func New() *AIModule {
	return &AIModule{logger: slog.Default().With("module", "ai")}
}

// Name returns the module name.
func (m *AIModule) Name() string {
	return "ai"
}

// Register provides the text generator when an API key is configured.
func (m *AIModule) Register(i do.Injector) error {
	cfg, err := do.Invoke[*config.Config](i)
	if err != nil {
		return err
	}
	if !cfg.AI.Enabled() {
		m.logger.Warn("AI_API_KEY not set, assistant disabled")
		return nil
	}
	do.Provide(i, func(i do.Injector) (assistant.Generator, error) {
		return assistant.NewOpenAIClient(assistant.Config{
			APIKey:       cfg.AI.APIKey,
			BaseURL:      cfg.AI.BaseURL,
			Model:        cfg.AI.Model,
			SystemPrompt: cfg.AI.SystemPrompt,
			Timeout:      cfg.AI.Timeout,
		})
	})
	return nil
}

// Boot starts the chat responder, when configured, and mounts the AI routes.
func (m *AIModule) Boot(ctx context.Context, g *echo.Group, i do.Injector) error {
	cfg, err := do.Invoke[*config.Config](i)
	if err != nil {
		return err
	}

	handler := handlers.NewAIHandler(nil)
	if gen, err := do.Invoke[assistant.Generator](i); err == nil {
		if err := m.startResponder(ctx, i, gen, cfg.AI); err != nil {
			return err
		}
		handler = handlers.NewAIHandler(gen)
	}

	limiter := middleware.RateLimiter(cfg.AI.RateLimit)
	g.POST("/api/ai/text", handler.Text, limiter)
	g.POST("/api/ai", handler.Query, limiter)
	return nil
}

func (m *AIModule) startResponder(ctx context.Context, i do.Injector, gen assistant.Generator, cfg config.AIConfig) error {
	bridge, err := do.Invoke[*websocket.Bridge](i)
	if err != nil {
		return fmt.Errorf("ai: resolve bridge: %w", err)
	}
	subscriber, err := do.Invoke[pubsub.Subscriber](i)
	if err != nil {
		return fmt.Errorf("ai: resolve subscriber: %w", err)
	}

	m.responder = assistant.NewResponder(gen, bridge, assistant.ResponderConfig{
		Username: cfg.Username,
		Trigger:  cfg.Trigger,
		Timeout:  cfg.Timeout,
	})
	if err := m.responder.Start(ctx, subscriber); err != nil {
		return fmt.Errorf("ai: subscribe responder: %w", err)
	}
	m.logger.Info("Assistant responder started", "username", cfg.Username, "trigger", cfg.Trigger)
	return nil
}

// Shutdown waits for in-flight replies.
func (m *AIModule) Shutdown(ctx context.Context) error {
	if m.responder == nil {
		return nil
	}
	done := make(chan struct{})
	go func() {
		m.responder.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("ai: replies still in flight: %w", ctx.Err())
	}
}
