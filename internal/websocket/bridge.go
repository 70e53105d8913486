package websocket

import (
	"context"
	"log/slog"
	"net/url"
	"slices"
	"sync/atomic"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"

	"github.com/nfrund/troom/internal/pubsub"
	"github.com/nfrund/troom/internal/room"
)

// Coordinator applies client commands and server-side posts.
// *room.Service implements it.
type Coordinator interface {
	Connect(id room.ConnID)
	Handle(ctx context.Context, id room.ConnID, cmd room.Command) room.Result
	Inject(ctx context.Context, roomID, author, text string) (*room.Outbox, error)
}

var _ Coordinator = (*room.Service)(nil)

// Config tunes the websocket transport.
type Config struct {
	// AllowedOrigins lists accepted browser origins; "*" accepts any.
	AllowedOrigins  []string
	MaxMessageBytes int64
	SendBuffer      int
	// RateLimit is the sustained number of inbound frames per second per connection.
	RateLimit    float64
	RateBurst    int
	WriteTimeout time.Duration
	PingInterval time.Duration
	// EventAliases adds client event names, mapped to join, send or leave.
	EventAliases map[string]string
}

// DefaultConfig returns the transport defaults.
func DefaultConfig() Config {
	return Config{
		AllowedOrigins:  []string{"*"},
		MaxMessageBytes: 8 << 20,
		SendBuffer:      256,
		RateLimit:       10,
		RateBurst:       20,
		WriteTimeout:    10 * time.Second,
		PingInterval:    54 * time.Second,
	}
}

// Option is a function that configures a Bridge.
type Option func(*Bridge)

// WithPublisher publishes client lifecycle events to the bus.
func WithPublisher(p pubsub.Publisher) Option {
	return func(b *Bridge) {
		b.publisher = p
	}
}

// WithLogger sets the bridge logger.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Bridge) {
		b.logger = logger
	}
}

// Bridge owns every websocket connection. A single loop goroutine (Run)
// applies commands and fans notifications out, so delivery order inside a
// room matches processing order.
type Bridge struct {
	coord     Coordinator
	publisher pubsub.Publisher
	events    *eventTable
	cfg       Config
	logger    *slog.Logger

	clients map[room.ConnID]*Client // owned by Run

	register   chan *Client
	unregister chan *Client
	incoming   chan inbound
	injections chan injection

	done    chan struct{}
	stopped atomic.Bool
	count   atomic.Int64
}

// NewBridge creates a bridge for coord. Zero config fields take their defaults.
func NewBridge(coord Coordinator, cfg Config, opts ...Option) *Bridge {
	def := DefaultConfig()
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = def.AllowedOrigins
	}
	if cfg.MaxMessageBytes <= 0 {
		cfg.MaxMessageBytes = def.MaxMessageBytes
	}
	if cfg.SendBuffer <= 0 {
		cfg.SendBuffer = def.SendBuffer
	}
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = def.RateLimit
	}
	if cfg.RateBurst <= 0 {
		cfg.RateBurst = def.RateBurst
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = def.WriteTimeout
	}
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = def.PingInterval
	}

	b := &Bridge{
		coord:      coord,
		events:     newEventTable(),
		cfg:        cfg,
		logger:     slog.Default().With("component", "websocket"),
		clients:    make(map[room.ConnID]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		incoming:   make(chan inbound, 256),
		injections: make(chan injection, 64),
		done:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(b)
	}
	for event, command := range cfg.EventAliases {
		if err := b.events.Alias(event, command); err != nil {
			b.logger.Warn("Ignoring event alias", "event", event, "command", command, "error", err)
		}
	}
	return b
}

// injection is a server-side post waiting for the loop.
type injection struct {
	roomID, author, text string
	result               chan error
}

// Run processes connection events until ctx is canceled. On return every
// remaining client is closed.
func (b *Bridge) Run(ctx context.Context) {
	b.logger.Info("WebSocket bridge started")
	defer func() {
		b.stopped.Store(true)
		close(b.done)
		for id, client := range b.clients {
			close(client.send)
			delete(b.clients, id)
		}
		b.logger.Info("WebSocket bridge stopped")
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case client := <-b.register:
			b.clients[client.ID] = client
			b.count.Add(1)
			b.coord.Connect(client.ID)
			client.logger.Info("Client registered")
			b.publishLifecycle(ctx, ClientConnectedEvent, ClientLifecycle{
				ConnID:     string(client.ID),
				RemoteAddr: client.RemoteAddr,
			})

		case client := <-b.unregister:
			if _, ok := b.clients[client.ID]; !ok {
				continue
			}
			delete(b.clients, client.ID)
			b.count.Add(-1)
			close(client.send)
			res := b.coord.Handle(ctx, client.ID, room.Disconnect{})
			b.deliver(res.Out)
			client.logger.Info("Client unregistered")
			b.publishLifecycle(ctx, ClientDisconnectedEvent, ClientLifecycle{
				ConnID: string(client.ID),
				Reason: "closed",
			})

		case msg := <-b.incoming:
			if _, ok := b.clients[msg.client.ID]; !ok {
				continue
			}
			res := room.Result{Err: msg.err}
			if msg.err == nil {
				res = b.coord.Handle(ctx, msg.client.ID, msg.cmd)
			}
			b.deliver(res.Out)
			if msg.id != nil {
				b.ack(msg.client, msg.id, res.Ack())
			}

		case req := <-b.injections:
			out, err := b.coord.Inject(ctx, req.roomID, req.author, req.text)
			if err == nil {
				b.deliver(out)
			}
			req.result <- err
		}
	}
}

// deliver fans an outbox out to the connected targets. Each envelope is
// encoded once.
func (b *Bridge) deliver(out *room.Outbox) {
	for _, env := range out.Envelopes() {
		payload, err := encodeFrame(env.Event.Name, nil, env.Event.Data)
		if err != nil {
			b.logger.Error("Failed to encode event", "event", env.Event.Name, "error", err)
			continue
		}
		for _, id := range env.Targets {
			if client, ok := b.clients[id]; ok {
				client.enqueue(payload)
			}
		}
	}
}

func (b *Bridge) ack(client *Client, id *uint64, ack room.Ack) {
	payload, err := encodeFrame(EventAck, id, ack)
	if err != nil {
		b.logger.Error("Failed to encode ack", "error", err)
		return
	}
	client.enqueue(payload)
}

// Inject posts text into a room under author, such as an assistant reply.
// Recipients are the room's members at the moment the loop applies it,
// so a connection that switched rooms in the meantime is not included.
func (b *Bridge) Inject(ctx context.Context, roomID, author, text string) error {
	req := injection{roomID: roomID, author: author, text: text, result: make(chan error, 1)}
	select {
	case b.injections <- req:
	case <-b.done:
		return context.Canceled
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-req.result:
		return err
	case <-b.done:
		return context.Canceled
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Clients returns the number of registered connections.
func (b *Bridge) Clients() int {
	return int(b.count.Load())
}

func (b *Bridge) enqueue(ctx context.Context, msg inbound) bool {
	select {
	case b.incoming <- msg:
		return true
	case <-b.done:
		return false
	case <-ctx.Done():
		return false
	}
}

func (b *Bridge) unregisterClient(c *Client) {
	select {
	case b.unregister <- c:
	case <-b.done:
	}
}

func (b *Bridge) publishLifecycle(ctx context.Context, event pubsub.Event[ClientLifecycle], payload ClientLifecycle) {
	if b.publisher == nil {
		return
	}
	if err := pubsub.Publish(ctx, b.publisher, event, payload.ConnID, payload); err != nil {
		b.logger.Warn("Failed to publish client lifecycle event", "topic", event.Name(), "error", err)
	}
}

// Handler returns an echo.HandlerFunc that upgrades the request and
// attaches the connection to the bridge.
func (b *Bridge) Handler() echo.HandlerFunc {
	opts := acceptOptions(b.cfg.AllowedOrigins)

	return func(c echo.Context) error {
		if b.stopped.Load() {
			return echo.ErrServiceUnavailable
		}

		conn, err := websocket.Accept(c.Response(), c.Request(), opts)
		if err != nil {
			b.logger.Warn("Failed to upgrade connection to WebSocket", "error", err)
			return nil
		}
		conn.SetReadLimit(b.cfg.MaxMessageBytes)

		id := room.ConnID(uuid.NewString())
		client := &Client{
			ID:         id,
			RemoteAddr: c.RealIP(),
			conn:       conn,
			send:       make(chan []byte, b.cfg.SendBuffer),
			limiter:    rate.NewLimiter(rate.Limit(b.cfg.RateLimit), b.cfg.RateBurst),
			bridge:     b,
			logger:     b.logger.With("conn_id", id),
		}

		select {
		case b.register <- client:
		case <-b.done:
			conn.Close(websocket.StatusGoingAway, "server shutting down")
			return nil
		case <-c.Request().Context().Done():
			conn.CloseNow()
			return nil
		}

		// The read loop must not die with the HTTP request context.
		ctx, cancel := context.WithCancel(context.Background())
		go func() {
			select {
			case <-b.done:
				cancel()
			case <-ctx.Done():
			}
		}()
		go client.writePump()
		go func() {
			defer cancel()
			client.readPump(ctx)
		}()
		return nil
	}
}

// acceptOptions maps configured origins such as "https://troom.vercel.app"
// to the host patterns coder/websocket matches against.
func acceptOptions(origins []string) *websocket.AcceptOptions {
	if len(origins) == 0 || slices.Contains(origins, "*") {
		return &websocket.AcceptOptions{InsecureSkipVerify: true}
	}
	patterns := make([]string, 0, len(origins))
	for _, o := range origins {
		if u, err := url.Parse(o); err == nil && u.Host != "" {
			patterns = append(patterns, u.Host)
			continue
		}
		patterns = append(patterns, o)
	}
	return &websocket.AcceptOptions{OriginPatterns: patterns}
}
