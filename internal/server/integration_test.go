package server_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nfrund/troom/internal/app"
	"github.com/nfrund/troom/internal/config"
	"github.com/nfrund/troom/internal/pubsub"
	"github.com/nfrund/troom/internal/server"
)

type frame struct {
	Event string          `json:"event"`
	ID    *uint64         `json:"id,omitempty"`
	Data  json.RawMessage `json:"data"`
}

// fakeCompletions answers every chat completion with reply.
func fakeCompletions(t *testing.T, reply string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "cmpl-1",
			"object":  "chat.completion",
			"created": 1700000000,
			"model":   "test-model",
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": reply},
			}},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

// setupIntegrationTest boots the full application behind an httptest server.
func setupIntegrationTest(t *testing.T, environ map[string]string) *httptest.Server {
	t.Helper()
	cfg, err := config.Load(environ)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	bus := pubsub.NewWatermillBridge()
	s := server.New(cfg, app.NewContainer(cfg, bus), app.NewModules())
	require.NoError(t, s.Boot(ctx))

	testServer := httptest.NewServer(s.E)
	t.Cleanup(func() {
		testServer.Close()
		cancel()
		shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
		defer done()
		assert.NoError(t, s.Shutdown(shutdownCtx))
		_ = bus.Close()
	})
	return testServer
}

func dial(t *testing.T, testServer *httptest.Server) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(testServer.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err, "Failed to connect to websocket")
	t.Cleanup(func() {
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		_ = conn.Close()
	})
	return conn
}

func send(t *testing.T, conn *websocket.Conn, event string, id uint64, data any) {
	t.Helper()
	raw, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, conn.WriteJSON(frame{Event: event, ID: &id, Data: raw}))
}

// readEvent reads frames until one named event arrives.
func readEvent(t *testing.T, conn *websocket.Conn, event string) frame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	for {
		var f frame
		require.NoError(t, conn.ReadJSON(&f), "waiting for %q", event)
		if f.Event == event {
			return f
		}
	}
}

func TestServer_HealthAndBanner(t *testing.T) {
	testServer := setupIntegrationTest(t, map[string]string{})

	resp, err := http.Get(testServer.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var health struct {
		Status    string    `json:"status"`
		Timestamp time.Time `json:"timestamp"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
	assert.Equal(t, "ok", health.Status)
	assert.False(t, health.Timestamp.IsZero())

	resp, err = http.Get(testServer.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-Id"))
}

func TestServer_ChatOverWebSocket(t *testing.T) {
	testServer := setupIntegrationTest(t, map[string]string{})

	alice := dial(t, testServer)
	send(t, alice, "join", 1, map[string]string{"room": "lobby", "username": "alice"})
	readEvent(t, alice, "ack")

	bob := dial(t, testServer)
	send(t, bob, "joinRoom", 1, map[string]string{"roomId": "lobby", "username": "bob"})
	readEvent(t, bob, "ack")

	send(t, bob, "send", 2, map[string]string{"room": "lobby", "text": "hi alice"})

	var msg struct {
		Room   string `json:"room"`
		Author string `json:"author"`
		Text   string `json:"text"`
	}
	require.NoError(t, json.Unmarshal(readEvent(t, alice, "message").Data, &msg))
	assert.Equal(t, "lobby", msg.Room)
	assert.Equal(t, "bob", msg.Author)
	assert.Equal(t, "hi alice", msg.Text)

	resp, err := http.Get(testServer.URL + "/api/rooms/lobby/members")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var members struct {
		Members []struct {
			Username string `json:"username"`
		} `json:"members"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&members))
	require.Len(t, members.Members, 2)
	assert.Equal(t, "alice", members.Members[0].Username)
	assert.Equal(t, "bob", members.Members[1].Username)
}

func TestServer_AIDisabled(t *testing.T) {
	testServer := setupIntegrationTest(t, map[string]string{})

	resp, err := http.Post(testServer.URL+"/api/ai/text", "application/json", strings.NewReader(`{"prompt":"hi"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	// The assistant's name stays reserved even without a backend.
	conn := dial(t, testServer)
	send(t, conn, "join", 1, map[string]string{"room": "lobby", "username": "ai"})
	var ack struct {
		Status string `json:"status"`
		Error  string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(readEvent(t, conn, "ack").Data, &ack))
	assert.Equal(t, "error", ack.Status)
	assert.Equal(t, "username is reserved", ack.Error)
}

func TestServer_AIRepliesInRoom(t *testing.T) {
	backend := fakeCompletions(t, "Paris.")
	testServer := setupIntegrationTest(t, map[string]string{
		"AI_API_KEY":  "test-key",
		"AI_BASE_URL": backend.URL + "/v1/",
	})

	conn := dial(t, testServer)
	send(t, conn, "join", 1, map[string]string{"room": "geo", "username": "carol"})
	readEvent(t, conn, "ack")

	send(t, conn, "sendMessage", 2, map[string]string{"roomId": "geo", "text": "@ai capital of France?"})

	var msg struct {
		Author string `json:"author"`
		Text   string `json:"text"`
	}
	for msg.Author != "AI" {
		require.NoError(t, json.Unmarshal(readEvent(t, conn, "message").Data, &msg))
	}
	assert.Equal(t, "Paris.", msg.Text)

	resp, err := http.Post(testServer.URL+"/api/ai", "application/json", strings.NewReader(`{"query":"capital of France?"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body struct {
		Response string `json:"response"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "Paris.", body.Response)
}
