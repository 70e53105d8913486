package assistant

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"github.com/nfrund/troom/internal/pubsub"
	"github.com/nfrund/troom/internal/room"
)

// Poster posts a message into a room on behalf of a participant without
// a connection, and delivers it to the room's current members.
// *websocket.Bridge implements it.
type Poster interface {
	Inject(ctx context.Context, roomID, author, text string) error
}

// ResponderConfig tunes when and how the assistant answers.
type ResponderConfig struct {
	// Username is the display name replies are posted under.
	Username string
	// Trigger is a case-insensitive text prefix that asks for a reply.
	Trigger string
	Timeout time.Duration
	// MaxInFlight bounds concurrent backend calls; extra prompts are dropped.
	MaxInFlight int
}

// Responder answers relayed chat messages that ask for the assistant.
type Responder struct {
	gen    Generator
	poster Poster
	cfg    ResponderConfig
	group  errgroup.Group
	logger *slog.Logger
}

// NewResponder creates a responder. Zero config fields take defaults.
func NewResponder(gen Generator, poster Poster, cfg ResponderConfig) *Responder {
	if cfg.Username == "" {
		cfg.Username = "AI"
	}
	if cfg.Trigger == "" {
		cfg.Trigger = "@ai"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxInFlight <= 0 {
		cfg.MaxInFlight = 8
	}

	r := &Responder{
		gen:    gen,
		poster: poster,
		cfg:    cfg,
		logger: slog.Default().With("service", "assistant"),
	}
	r.group.SetLimit(cfg.MaxInFlight)
	return r
}

// Start subscribes to relayed messages. It returns once the subscription
// is active.
func (r *Responder) Start(ctx context.Context, sub pubsub.Subscriber) error {
	return pubsub.Subscribe(ctx, sub, room.MessageRelayedEvent, r.HandleRelayed)
}

// Wait blocks until every in-flight reply has finished.
func (r *Responder) Wait() {
	_ = r.group.Wait()
}

// HandleRelayed schedules a reply when the message asks for one. It never
// blocks on the backend.
func (r *Responder) HandleRelayed(_ context.Context, m room.MessageRelayed) error {
	prompt, ok := r.Prompt(m)
	if !ok {
		return nil
	}
	if !r.group.TryGo(func() error {
		r.answer(m.Room, prompt)
		return nil
	}) {
		r.logger.Warn("Assistant busy, dropping prompt", "room", m.Room, "author", m.Author)
	}
	return nil
}

// Prompt extracts the text to send to the backend, if the message asks
// for the assistant.
func (r *Responder) Prompt(m room.MessageRelayed) (string, bool) {
	if strings.EqualFold(m.Author, r.cfg.Username) {
		return "", false
	}
	text := strings.TrimSpace(m.Text)
	triggered := m.AskAI
	if rest, ok := r.stripTrigger(text); ok {
		text = rest
		triggered = true
	}
	if !triggered || text == "" {
		return "", false
	}
	return text, true
}

// stripTrigger removes a leading trigger that stands as its own word, so
// "@ai hi" and "@ai, hi" match but "@aiden" does not.
func (r *Responder) stripTrigger(text string) (string, bool) {
	n := len(r.cfg.Trigger)
	if len(text) < n || !strings.EqualFold(text[:n], r.cfg.Trigger) {
		return "", false
	}
	rest := text[n:]
	if next, _ := utf8.DecodeRuneInString(rest); rest != "" && !unicode.IsSpace(next) && !unicode.IsPunct(next) {
		return "", false
	}
	return strings.TrimSpace(strings.TrimLeftFunc(rest, unicode.IsPunct)), true
}

func (r *Responder) answer(roomID, prompt string) {
	// Not tied to the sender: the reply is wanted even if they disconnect.
	ctx, cancel := context.WithTimeout(context.Background(), r.cfg.Timeout)
	defer cancel()

	reply, err := r.gen.Generate(ctx, prompt)
	if err != nil {
		r.logger.Error("Assistant backend failed", "room", roomID, "error", room.Upstream(err))
		return
	}

	if err := r.poster.Inject(ctx, roomID, r.cfg.Username, reply); err != nil {
		if errors.Is(err, room.ErrInvalidRoom) {
			r.logger.Debug("Room closed before assistant replied", "room", roomID)
			return
		}
		r.logger.Warn("Failed to post assistant reply", "room", roomID, "error", err)
	}
}
