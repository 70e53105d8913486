package chat

import (
	"context"
	"log/slog"

	"github.com/nfrund/troom/internal/pubsub"
	"github.com/nfrund/troom/internal/room"
	"github.com/nfrund/troom/internal/websocket"
)

// PresenceSubscriber writes an audit log of connections and room
// membership changes from the bus.
type PresenceSubscriber struct {
	subscriber pubsub.Subscriber
	logger     *slog.Logger
}

// NewPresenceSubscriber creates a new presence subscriber. A nil logger
// means slog.Default().
func NewPresenceSubscriber(subscriber pubsub.Subscriber, logger *slog.Logger) *PresenceSubscriber {
	if logger == nil {
		logger = slog.Default()
	}
	return &PresenceSubscriber{
		subscriber: subscriber,
		logger:     logger.With("component", "chat_presence_subscriber"),
	}
}

// Start subscribes to presence and lifecycle topics. Handlers run until ctx ends.
func (ps *PresenceSubscriber) Start(ctx context.Context) error {
	if err := pubsub.Subscribe(ctx, ps.subscriber, room.MemberJoinedEvent, ps.memberJoined); err != nil {
		return err
	}
	if err := pubsub.Subscribe(ctx, ps.subscriber, room.MemberLeftEvent, ps.memberLeft); err != nil {
		return err
	}
	if err := pubsub.Subscribe(ctx, ps.subscriber, websocket.ClientConnectedEvent, ps.clientConnected); err != nil {
		return err
	}
	if err := pubsub.Subscribe(ctx, ps.subscriber, websocket.ClientDisconnectedEvent, ps.clientDisconnected); err != nil {
		return err
	}
	ps.logger.Info("Successfully subscribed to presence updates")
	return nil
}

func (ps *PresenceSubscriber) memberJoined(_ context.Context, p room.PresenceChanged) error {
	ps.logger.Info("Member joined", "room", p.Room, "username", p.Username, "conn_id", p.ConnID)
	return nil
}

func (ps *PresenceSubscriber) memberLeft(_ context.Context, p room.PresenceChanged) error {
	ps.logger.Info("Member left", "room", p.Room, "username", p.Username, "conn_id", p.ConnID)
	return nil
}

func (ps *PresenceSubscriber) clientConnected(_ context.Context, c websocket.ClientLifecycle) error {
	ps.logger.Debug("Client connected", "conn_id", c.ConnID, "remote_addr", c.RemoteAddr)
	return nil
}

func (ps *PresenceSubscriber) clientDisconnected(_ context.Context, c websocket.ClientLifecycle) error {
	ps.logger.Debug("Client disconnected", "conn_id", c.ConnID, "reason", c.Reason)
	return nil
}
