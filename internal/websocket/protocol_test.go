package websocket

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nfrund/troom/internal/room"
)

func decode(t *testing.T, raw string) (room.Command, error) {
	t.Helper()
	f, err := parseFrame([]byte(raw))
	if err != nil {
		return nil, err
	}
	return decodeCommand(newEventTable(), f)
}

func TestDecodeCommand(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want room.Command
	}{
		{
			name: "join",
			raw:  `{"event":"join","data":{"room":"lobby","username":"alice"}}`,
			want: room.Join{Room: "lobby", Username: "alice"},
		},
		{
			name: "legacy join with roomId",
			raw:  `{"event":"joinRoom","id":3,"data":{"roomId":"lobby","username":"alice"}}`,
			want: room.Join{Room: "lobby", Username: "alice"},
		},
		{
			name: "legacy send",
			raw:  `{"event":"sendMessage","data":{"roomId":"lobby","user":"alice","text":"hi","tempId":1717243200123,"timestamp":"2024-06-01T12:00:00.000Z"}}`,
			want: room.Send{
				Room:             "lobby",
				Author:           "alice",
				Text:             "hi",
				CorrelationToken: "1717243200123",
				Timestamp:        "2024-06-01T12:00:00.000Z",
			},
		},
		{
			name: "legacy chatMessage carries its text in message",
			raw:  `{"event":"chatMessage","data":{"room":"lobby","message":"hello all"}}`,
			want: room.Send{Room: "lobby", Text: "hello all"},
		},
		{
			name: "send with epoch timestamp and ai flag",
			raw:  `{"event":"send","data":{"room":"lobby","text":"hi","correlationToken":"c-1","timestamp":0,"ai":true}}`,
			want: room.Send{
				Room:             "lobby",
				Text:             "hi",
				CorrelationToken: "c-1",
				Timestamp:        "1970-01-01T00:00:00Z",
				AskAI:            true,
			},
		},
		{
			name: "leave without data",
			raw:  `{"event":"leaveRoom"}`,
			want: room.Leave{},
		},
		{
			name: "leave with null data",
			raw:  `{"event":"leave","data":null}`,
			want: room.Leave{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, err := decode(t, tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, cmd)
		})
	}
}

func TestDecodeCommand_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr error
	}{
		{"invalid json", `{invalid json`, room.ErrMalformedCommand},
		{"missing event", `{"id":1,"data":{}}`, room.ErrMalformedCommand},
		{"unknown event", `{"event":"dance","id":1}`, room.ErrUnknownCommand},
		{"data is not an object", `{"event":"join","data":"lobby"}`, room.ErrMalformedCommand},
		{"wrong field type", `{"event":"send","data":{"text":42}}`, room.ErrMalformedCommand},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := decode(t, tt.raw)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestParseFrame_KeepsAckIDOnInvalidFrame(t *testing.T) {
	f, err := parseFrame([]byte(`{"id":7}`))
	require.Error(t, err)
	require.NotNil(t, f.ID)
	assert.Equal(t, uint64(7), *f.ID)
}

func TestEventTable_Alias(t *testing.T) {
	table := newEventTable()

	require.NoError(t, table.Alias("chat", CommandSend))
	name, ok := table.Resolve("chat")
	require.True(t, ok)
	assert.Equal(t, CommandSend, name)

	assert.ErrorIs(t, table.Alias("chat", CommandSend), ErrEventAlreadyExists)
	assert.ErrorIs(t, table.Alias("", CommandSend), ErrInvalidEvent)
	assert.ErrorIs(t, table.Alias("wave", "wave"), ErrInvalidEvent)
}

func TestAcceptOptions(t *testing.T) {
	assert.True(t, acceptOptions([]string{"*"}).InsecureSkipVerify)

	opts := acceptOptions([]string{"https://troom.vercel.app", "localhost:*"})
	assert.False(t, opts.InsecureSkipVerify)
	assert.Equal(t, []string{"troom.vercel.app", "localhost:*"}, opts.OriginPatterns)
}
