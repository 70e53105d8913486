package websocket

import (
	"bytes"
	"encoding/json"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/nfrund/troom/internal/room"
)

// EventAck is the server event carrying a command acknowledgment.
const EventAck = "ack"

var validate = validator.New(validator.WithRequiredStructEnabled())

// frame is one inbound JSON text frame.
type frame struct {
	Event string          `json:"event" validate:"required,max=64"`
	ID    *uint64         `json:"id,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// outFrame is one outbound JSON text frame.
type outFrame struct {
	Event string  `json:"event"`
	ID    *uint64 `json:"id,omitempty"`
	Data  any     `json:"data"`
}

type joinPayload struct {
	Room     string `json:"room"`
	RoomID   string `json:"roomId"`
	Username string `json:"username"`
}

type sendPayload struct {
	Room             string          `json:"room"`
	RoomID           string          `json:"roomId"`
	Author           string          `json:"author"`
	User             string          `json:"user"`
	Text             string          `json:"text"`
	Message          string          `json:"message"`
	Image            string          `json:"image"`
	CorrelationToken json.RawMessage `json:"correlationToken"`
	TempID           json.RawMessage `json:"tempId"`
	Timestamp        json.RawMessage `json:"timestamp"`
	AI               bool            `json:"ai"`
}

type leavePayload struct {
	Room     string `json:"room"`
	RoomID   string `json:"roomId"`
	Username string `json:"username"`
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// looseString accepts a JSON string or number. Browsers commonly send
// temporary ids as Date.now().
func looseString(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return ""
	}
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return s
	}
	var n json.Number
	if json.Unmarshal(raw, &n) == nil {
		return n.String()
	}
	return ""
}

// looseTimestamp accepts an RFC 3339 string or epoch milliseconds.
func looseTimestamp(raw json.RawMessage) string {
	s := looseString(raw)
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.UnixMilli(ms).UTC().Format(time.RFC3339Nano)
	}
	return s
}

// parseFrame decodes and validates one inbound frame. The returned frame
// carries the ack id whenever it could be read, even if err is not nil.
func parseFrame(data []byte) (frame, error) {
	var f frame
	if err := json.Unmarshal(data, &f); err != nil {
		return frame{}, room.ErrMalformedCommand
	}
	if err := validate.Struct(f); err != nil {
		return f, room.ErrMalformedCommand
	}
	return f, nil
}

// decodeCommand turns a validated frame into a room command.
func decodeCommand(events *eventTable, f frame) (room.Command, error) {
	name, ok := events.Resolve(f.Event)
	if !ok {
		return nil, room.ErrUnknownCommand
	}

	data := bytes.TrimSpace(f.Data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		data = []byte("{}")
	}

	switch name {
	case CommandJoin:
		var p joinPayload
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, room.ErrMalformedCommand
		}
		return room.Join{Room: firstNonEmpty(p.Room, p.RoomID), Username: p.Username}, nil

	case CommandSend:
		var p sendPayload
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, room.ErrMalformedCommand
		}
		return room.Send{
			Room:             firstNonEmpty(p.Room, p.RoomID),
			Author:           firstNonEmpty(p.Author, p.User),
			Text:             firstNonEmpty(p.Text, p.Message),
			Image:            p.Image,
			CorrelationToken: firstNonEmpty(looseString(p.CorrelationToken), looseString(p.TempID)),
			Timestamp:        looseTimestamp(p.Timestamp),
			AskAI:            p.AI,
		}, nil

	case CommandLeave:
		var p leavePayload
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, room.ErrMalformedCommand
		}
		return room.Leave{Room: firstNonEmpty(p.Room, p.RoomID), Username: p.Username}, nil
	}
	return nil, room.ErrUnknownCommand
}

func encodeFrame(event string, id *uint64, data any) ([]byte, error) {
	return json.Marshal(outFrame{Event: event, ID: id, Data: data})
}
