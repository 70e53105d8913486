package handlers

import (
	"time"

	"github.com/nfrund/troom/internal/room"
)

// ErrorResponse is the standard format for API error responses.
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthResponse reports liveness.
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// AIResponse carries generated text.
type AIResponse struct {
	Response string `json:"response"`
}

// RoomsResponse lists active rooms.
type RoomsResponse struct {
	Rooms []room.Summary `json:"rooms"`
	Count int            `json:"count"`
}

// MembersResponse lists one room's members in join order.
type MembersResponse struct {
	Room    string        `json:"room"`
	Members []room.Member `json:"members"`
}
