package websocket

import (
	"errors"
)

// Canonical client command names.
const (
	CommandJoin  = "join"
	CommandSend  = "send"
	CommandLeave = "leave"
)

var (
	// ErrEventAlreadyExists is returned when an alias is already mapped.
	ErrEventAlreadyExists = errors.New("event already exists in table")
	// ErrInvalidEvent is returned when an empty or unknown name is provided.
	ErrInvalidEvent = errors.New("invalid event name")
)

// eventTable maps every client event name the transport accepts to its
// canonical command. It is filled in NewBridge and read-only afterwards.
type eventTable struct {
	aliases map[string]string
}

// newEventTable returns the canonical commands plus the legacy
// joinRoom / sendMessage / chatMessage / leaveRoom names.
func newEventTable() *eventTable {
	return &eventTable{aliases: map[string]string{
		CommandJoin:   CommandJoin,
		CommandSend:   CommandSend,
		CommandLeave:  CommandLeave,
		"joinRoom":    CommandJoin,
		"sendMessage": CommandSend,
		"chatMessage": CommandSend,
		"leaveRoom":   CommandLeave,
	}}
}

// Resolve returns the canonical command for an event name.
func (t *eventTable) Resolve(event string) (string, bool) {
	name, ok := t.aliases[event]
	return name, ok
}

// Alias accepts event as another name for a canonical command.
func (t *eventTable) Alias(event, command string) error {
	if event == "" {
		return ErrInvalidEvent
	}

	if _, ok := t.aliases[event]; ok {
		return ErrEventAlreadyExists
	}
	switch command {
	case CommandJoin, CommandSend, CommandLeave:
	default:
		return ErrInvalidEvent
	}
	t.aliases[event] = command
	return nil
}
