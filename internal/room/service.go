package room

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/nfrund/troom/internal/pubsub"
)

// Limits bounds the size of client-supplied fields, counted in runes.
type Limits struct {
	MaxRoomLength     int
	MaxUsernameLength int
	MaxTextLength     int
}

// DefaultLimits returns the limits used when none are configured.
func DefaultLimits() Limits {
	return Limits{
		MaxRoomLength:     100,
		MaxUsernameLength: 50,
		MaxTextLength:     5000,
	}
}

// Service is the coordination core. It owns the connection registry and
// the room directory, and turns commands into notifications.
type Service struct {
	mu        sync.Mutex
	registry  *Registry
	directory *Directory
	reserved  []string // folded
	limits    Limits
	now       func() time.Time
	publisher pubsub.Publisher
	logger    *slog.Logger
}

// Option is a function that configures a Service.
type Option func(*Service)

// WithClock replaces the time source used for server-assigned timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithLogger sets the service logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithPublisher publishes presence and relay events to the bus.
func WithPublisher(p pubsub.Publisher) Option {
	return func(s *Service) {
		s.publisher = p
	}
}

// WithReservedUsernames forbids clients from joining under these names.
func WithReservedUsernames(names ...string) Option {
	return func(s *Service) {
		s.reserved = append(s.reserved, names...)
	}
}

// WithLimits overrides the field length limits. Zero fields keep their default.
func WithLimits(l Limits) Option {
	return func(s *Service) {
		if l.MaxRoomLength > 0 {
			s.limits.MaxRoomLength = l.MaxRoomLength
		}
		if l.MaxUsernameLength > 0 {
			s.limits.MaxUsernameLength = l.MaxUsernameLength
		}
		if l.MaxTextLength > 0 {
			s.limits.MaxTextLength = l.MaxTextLength
		}
	}
}

// NewService creates an empty coordination service.
func NewService(opts ...Option) *Service {
	s := &Service{
		registry:  NewRegistry(),
		directory: NewDirectory(),
		limits:    DefaultLimits(),
		now:       func() time.Time { return time.Now().UTC() },
		logger:    slog.Default().With("service", "room"),
	}
	for _, opt := range opts {
		opt(s)
	}
	for i, name := range s.reserved {
		s.reserved[i] = s.directory.Fold(strings.TrimSpace(name))
	}
	return s
}

// notice is a bus event queued inside the critical section and published
// after the lock is released.
type notice func(ctx context.Context, p pubsub.Publisher) error

// Connect registers a newly opened connection.
func (s *Service) Connect(id ConnID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.registry.Register(id)
}

// Handle applies one command from connection id. Every state change and
// its recipient snapshot happen under a single lock.
func (s *Service) Handle(ctx context.Context, id ConnID, cmd Command) Result {
	out := &Outbox{}
	var notices []notice
	var err error

	s.mu.Lock()
	switch c := cmd.(type) {
	case Join:
		err = s.join(id, c, out, &notices)
	case Send:
		err = s.send(id, c, out, &notices)
	case Leave:
		err = s.leaveCommand(id, c, out, &notices)
	case Disconnect:
		s.disconnect(id, out, &notices)
	default:
		err = ErrUnknownCommand
	}
	s.mu.Unlock()

	if err != nil {
		s.logger.Debug("Command rejected", "conn_id", id, "command", commandName(cmd), "error", err)
	}
	s.publish(ctx, notices)
	return Result{Out: out, Err: err}
}

func (s *Service) join(id ConnID, c Join, out *Outbox, notices *[]notice) error {
	roomID := strings.TrimSpace(c.Room)
	username := strings.TrimSpace(c.Username)
	if err := s.validateJoin(roomID, username); err != nil {
		return err
	}

	if cur, ok := s.registry.Lookup(id); ok {
		if cur.Room == roomID && s.directory.Fold(cur.Username) == s.directory.Fold(username) {
			out.toConn(id, EventJoinedRoom, roomID)
			out.toConn(id, EventMembersInRoom, s.directory.ListMembers(roomID))
			return nil
		}
		s.leave(id, cur, out, notices)
	}

	if err := s.directory.AddMember(roomID, username, id); err != nil {
		return err
	}
	s.registry.SetAssignment(id, roomID, username)

	members := s.directory.ListMembers(roomID)
	targets := connIDs(members)
	out.toConn(id, EventJoinedRoom, roomID)
	out.toConns(targets, EventMemberJoined, MemberEvent{Room: roomID, Username: username})
	out.toConns(targets, EventMembersInRoom, members)

	s.logger.Info("Member joined", "conn_id", id, "room", roomID, "username", username, "members", len(members))
	*notices = append(*notices, presenceNotice(MemberJoinedEvent, id, roomID, username))
	return nil
}

func (s *Service) validateJoin(roomID, username string) error {
	switch {
	case roomID == "":
		return ErrMissingRoom
	case username == "":
		return ErrMissingUsername
	case utf8.RuneCountInString(roomID) > s.limits.MaxRoomLength:
		return ErrRoomTooLong
	case utf8.RuneCountInString(username) > s.limits.MaxUsernameLength:
		return ErrUsernameTooLong
	case slices.Contains(s.reserved, s.directory.Fold(username)):
		return ErrReservedUsername
	}
	return nil
}

// leave runs the full leave sequence for a joined connection.
func (s *Service) leave(id ConnID, cur Assignment, out *Outbox, notices *[]notice) {
	s.directory.RemoveMember(cur.Room, cur.Username)
	s.registry.ClearAssignment(id)

	remaining := s.directory.ListMembers(cur.Room)
	targets := connIDs(remaining)
	out.toConns(targets, EventMemberLeft, MemberEvent{Room: cur.Room, Username: cur.Username})
	out.toConns(targets, EventMembersInRoom, remaining)

	s.logger.Info("Member left", "conn_id", id, "room", cur.Room, "username", cur.Username, "members", len(remaining))
	*notices = append(*notices, presenceNotice(MemberLeftEvent, id, cur.Room, cur.Username))
}

func (s *Service) leaveCommand(id ConnID, c Leave, out *Outbox, notices *[]notice) error {
	cur, ok := s.registry.Lookup(id)
	if !ok {
		return ErrNotJoined
	}
	if roomID := strings.TrimSpace(c.Room); roomID != "" && roomID != cur.Room {
		return ErrInvalidRoom
	}
	s.leave(id, cur, out, notices)
	return nil
}

func (s *Service) disconnect(id ConnID, out *Outbox, notices *[]notice) {
	if cur, ok := s.registry.Lookup(id); ok {
		s.leave(id, cur, out, notices)
	}
	s.registry.Remove(id)
}

func (s *Service) send(id ConnID, c Send, out *Outbox, notices *[]notice) error {
	cur, ok := s.registry.Lookup(id)
	if !ok {
		return ErrNotJoined
	}
	roomID := strings.TrimSpace(c.Room)
	if roomID == "" || roomID != cur.Room || !s.directory.Exists(roomID) {
		return ErrInvalidRoom
	}
	text := strings.TrimSpace(c.Text)
	if (text == "" && c.Image == "") || utf8.RuneCountInString(text) > s.limits.MaxTextLength {
		return ErrInvalidMessage
	}

	msg := Message{
		Room:             roomID,
		Author:           cur.Username,
		Text:             text,
		Image:            c.Image,
		Timestamp:        s.timestamp(c.Timestamp),
		CorrelationToken: c.CorrelationToken,
	}
	out.toConns(connIDs(s.directory.ListMembers(roomID)), EventMessage, msg)

	relayed := MessageRelayed{
		Room:      roomID,
		Author:    msg.Author,
		Text:      text,
		HasImage:  c.Image != "",
		AskAI:     c.AskAI,
		Timestamp: msg.Timestamp,
	}
	*notices = append(*notices, func(ctx context.Context, p pubsub.Publisher) error {
		return pubsub.Publish(ctx, p, MessageRelayedEvent, string(id), relayed)
	})
	return nil
}

func (s *Service) timestamp(raw string) time.Time {
	if raw != "" {
		if ts, err := time.Parse(time.RFC3339, raw); err == nil {
			return ts.UTC()
		}
	}
	return s.now()
}

// Inject broadcasts a message from a participant without a connection,
// such as the assistant. The room must still exist.
func (s *Service) Inject(ctx context.Context, roomID, author, text string) (*Outbox, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrInvalidMessage
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.directory.Exists(roomID) {
		return nil, ErrInvalidRoom
	}
	out := &Outbox{}
	out.toConns(connIDs(s.directory.ListMembers(roomID)), EventMessage, Message{
		Room:      roomID,
		Author:    author,
		Text:      text,
		Timestamp: s.now(),
	})
	s.logger.Debug("Message injected", "room", roomID, "author", author)
	return out, nil
}

// Rooms lists the active rooms.
func (s *Service) Rooms() []Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.directory.Rooms()
}

// Members lists a room's members in join order.
func (s *Service) Members(roomID string) ([]Member, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.directory.Exists(roomID) {
		return nil, false
	}
	return s.directory.ListMembers(roomID), true
}

// Lookup returns the connection's current assignment.
func (s *Service) Lookup(id ConnID) (Assignment, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.registry.Lookup(id)
}

// Connections returns the number of live connections.
func (s *Service) Connections() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.registry.Len()
}

func (s *Service) publish(ctx context.Context, notices []notice) {
	if s.publisher == nil {
		return
	}
	for _, n := range notices {
		if err := n(ctx, s.publisher); err != nil {
			s.logger.Warn("Failed to publish room event", "error", err)
		}
	}
}

func presenceNotice(event pubsub.Event[PresenceChanged], id ConnID, roomID, username string) notice {
	payload := PresenceChanged{Room: roomID, Username: username, ConnID: string(id)}
	return func(ctx context.Context, p pubsub.Publisher) error {
		return pubsub.Publish(ctx, p, event, string(id), payload)
	}
}

func connIDs(members []Member) []ConnID {
	ids := make([]ConnID, len(members))
	for i, m := range members {
		ids[i] = m.ConnID
	}
	return ids
}

func commandName(cmd Command) string {
	switch cmd.(type) {
	case Join:
		return "join"
	case Send:
		return "send"
	case Leave:
		return "leave"
	case Disconnect:
		return "disconnect"
	}
	return "unknown"
}
