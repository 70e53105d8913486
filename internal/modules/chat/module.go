package chat

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/labstack/echo/v4"
	"github.com/samber/do/v2"

	"github.com/nfrund/troom/internal/config"
	"github.com/nfrund/troom/internal/handlers"
	"github.com/nfrund/troom/internal/module"
	"github.com/nfrund/troom/internal/pubsub"
	"github.com/nfrund/troom/internal/room"
	"github.com/nfrund/troom/internal/websocket"
)

// ChatModule implements the module.Module interface for room chat. It owns
// the room service and the websocket bridge that drives it.
type ChatModule struct {
	module.BaseModule
	cancel  context.CancelFunc
	stopped chan struct{}
	logger  *slog.Logger
}

// New creates a new instance of the ChatModule.
func New() *ChatModule {
	return &ChatModule{logger: slog.Default().With("module", "chat")}
}

// Name returns the module name.
func (m *ChatModule) Name() string {
	return "chat"
}

// Register provides the room service and the websocket bridge.
func (m *ChatModule) Register(i do.Injector) error {
	do.Provide(i, NewRoomService)
	do.Provide(i, NewBridge)
	return nil
}

// NewRoomService builds the room service from configuration.
func NewRoomService(i do.Injector) (*room.Service, error) {
	cfg, err := do.Invoke[*config.Config](i)
	if err != nil {
		return nil, err
	}
	publisher, err := do.Invoke[pubsub.Publisher](i)
	if err != nil {
		return nil, err
	}
	return room.NewService(
		room.WithPublisher(publisher),
		room.WithLimits(room.Limits{
			MaxRoomLength:     cfg.Chat.MaxRoomLength,
			MaxUsernameLength: cfg.Chat.MaxNameLength,
			MaxTextLength:     cfg.Chat.MaxTextLength,
		}),
		room.WithReservedUsernames(cfg.AI.Username),
	), nil
}

// NewBridge builds the websocket bridge on top of the room service.
func NewBridge(i do.Injector) (*websocket.Bridge, error) {
	cfg, err := do.Invoke[*config.Config](i)
	if err != nil {
		return nil, err
	}
	svc, err := do.Invoke[*room.Service](i)
	if err != nil {
		return nil, err
	}
	publisher, err := do.Invoke[pubsub.Publisher](i)
	if err != nil {
		return nil, err
	}
	wsCfg := websocket.DefaultConfig()
	wsCfg.AllowedOrigins = cfg.CORSAllowedOrigins
	wsCfg.MaxMessageBytes = cfg.WebSocket.MaxMessageBytes
	wsCfg.SendBuffer = cfg.WebSocket.SendBuffer
	wsCfg.RateLimit = cfg.WebSocket.RateLimit
	wsCfg.RateBurst = cfg.WebSocket.RateBurst
	wsCfg.EventAliases = cfg.WebSocket.EventAliases
	return websocket.NewBridge(svc, wsCfg, websocket.WithPublisher(publisher)), nil
}

// Boot starts the bridge loop and the presence audit, and mounts the
// websocket endpoint and the room introspection API.
func (m *ChatModule) Boot(ctx context.Context, g *echo.Group, i do.Injector) error {
	svc, err := do.Invoke[*room.Service](i)
	if err != nil {
		return fmt.Errorf("chat: resolve room service: %w", err)
	}
	bridge, err := do.Invoke[*websocket.Bridge](i)
	if err != nil {
		return fmt.Errorf("chat: resolve bridge: %w", err)
	}
	subscriber, err := do.Invoke[pubsub.Subscriber](i)
	if err != nil {
		return fmt.Errorf("chat: resolve subscriber: %w", err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	if err := NewPresenceSubscriber(subscriber, nil).Start(runCtx); err != nil {
		cancel()
		return fmt.Errorf("chat: start presence subscriber: %w", err)
	}

	m.cancel = cancel
	m.stopped = make(chan struct{})
	go func() {
		defer close(m.stopped)
		bridge.Run(runCtx)
	}()

	m.logger.Info("Booting ChatModule: Setting up routes...")
	rooms := handlers.NewRoomsHandler(svc)
	g.GET("/ws", bridge.Handler())
	g.GET("/api/rooms", rooms.List)
	g.GET("/api/rooms/:room/members", rooms.Members)

	return nil
}

// Shutdown stops the bridge loop and waits for it to close every connection.
func (m *ChatModule) Shutdown(ctx context.Context) error {
	m.logger.Info("Shutting down ChatModule...")
	if m.stopped == nil {
		return nil
	}
	m.cancel()
	select {
	case <-m.stopped:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("chat: bridge did not stop: %w", ctx.Err())
	}
}
