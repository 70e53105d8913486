package websocket

import (
	"github.com/nfrund/troom/internal/pubsub"
)

// ClientLifecycle is published when a websocket connection opens or closes.
type ClientLifecycle struct {
	ConnID     string `json:"connectionId"`
	RemoteAddr string `json:"remoteAddr,omitempty"`
	Reason     string `json:"reason,omitempty"`
}

var (
	ClientConnectedEvent = pubsub.NewEvent[ClientLifecycle](
		"ws.client.connected",
		"A websocket client connected and was registered",
	)
	ClientDisconnectedEvent = pubsub.NewEvent[ClientLifecycle](
		"ws.client.disconnected",
		"A websocket client disconnected",
	)
)
