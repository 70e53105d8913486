package websocket

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/coder/websocket"
	"golang.org/x/time/rate"

	"github.com/nfrund/troom/internal/room"
)

// Client is one connected websocket peer.
type Client struct {
	ID         room.ConnID
	RemoteAddr string

	conn    *websocket.Conn
	send    chan []byte
	limiter *rate.Limiter
	bridge  *Bridge
	logger  *slog.Logger
}

// inbound is a decoded frame, or the reason it could not be decoded,
// on its way to the bridge loop.
type inbound struct {
	client *Client
	id     *uint64
	cmd    room.Command
	err    error
}

// readPump reads frames until the connection fails, then unregisters.
func (c *Client) readPump(ctx context.Context) {
	defer func() {
		c.bridge.unregisterClient(c)
		c.conn.Close(websocket.StatusNormalClosure, "Client disconnected")
	}()

	for {
		_, data, err := c.conn.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			switch {
			case status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway:
				c.logger.Info("WebSocket closed normally by client")
			case errors.Is(err, io.EOF) || errors.Is(err, context.Canceled):
			default:
				c.logger.Warn("WebSocket read error", "error", err)
			}
			return
		}

		msg := c.decode(data)
		if !c.bridge.enqueue(ctx, msg) {
			return
		}
	}
}

// decode turns one frame into a command. Every frame counts against the
// rate limit, valid or not.
func (c *Client) decode(data []byte) inbound {
	allowed := c.limiter.Allow()
	f, err := parseFrame(data)
	if !allowed {
		return inbound{client: c, id: f.ID, err: room.ErrRateLimited}
	}
	if err != nil {
		return inbound{client: c, id: f.ID, err: err}
	}
	cmd, err := decodeCommand(c.bridge.events, f)
	return inbound{client: c, id: f.ID, cmd: cmd, err: err}
}

// writePump writes queued frames and keeps the connection alive with
// pings. It returns when the bridge closes the send channel.
func (c *Client) writePump() {
	ticker := time.NewTicker(c.bridge.cfg.PingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close(websocket.StatusNormalClosure, "Server-side cleanup")
	}()

	for {
		select {
		case message, ok := <-c.send:
			if !ok {
				return
			}
			ctx, cancel := context.WithTimeout(context.Background(), c.bridge.cfg.WriteTimeout)
			err := c.conn.Write(ctx, websocket.MessageText, message)
			cancel()
			if err != nil {
				c.logger.Warn("WebSocket write error", "error", err)
				return
			}

		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), c.bridge.cfg.WriteTimeout)
			err := c.conn.Ping(ctx)
			cancel()
			if err != nil {
				c.logger.Info("WebSocket ping failed", "error", err)
				return
			}
		}
	}
}

// enqueue hands a frame to the write pump without blocking the bridge
// loop. Frames for a client whose buffer is full are dropped.
func (c *Client) enqueue(message []byte) {
	select {
	case c.send <- message:
	default:
		c.logger.Warn("Client send channel full, dropping message")
	}
}
