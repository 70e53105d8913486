package room

import (
	"time"

	"github.com/nfrund/troom/internal/pubsub"
)

// MessageRelayed is published after a chat message was broadcast.
type MessageRelayed struct {
	Room      string    `json:"room"`
	Author    string    `json:"author"`
	Text      string    `json:"text"`
	HasImage  bool      `json:"hasImage"`
	AskAI     bool      `json:"askAI"`
	Timestamp time.Time `json:"timestamp"`
}

// PresenceChanged is published when a username joins or leaves a room.
type PresenceChanged struct {
	Room     string `json:"room"`
	Username string `json:"username"`
	ConnID   string `json:"connectionId"`
}

var (
	MessageRelayedEvent = pubsub.NewEvent[MessageRelayed](
		"chat.message.relayed",
		"A chat message was broadcast to a room",
	)
	MemberJoinedEvent = pubsub.NewEvent[PresenceChanged](
		"presence.member.joined",
		"A username joined a room",
	)
	MemberLeftEvent = pubsub.NewEvent[PresenceChanged](
		"presence.member.left",
		"A username left a room",
	)
)
