package cmd

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestTopicsList_Table(t *testing.T) {
	out, err := run(t, "topics", "list")
	require.NoError(t, err)

	assert.Contains(t, out, "chat.message.relayed")
	assert.Contains(t, out, "presence.member.joined")
	assert.Contains(t, out, "ws.client.connected")
}

func TestTopicsList_ModuleFilterJSON(t *testing.T) {
	out, err := run(t, "topics", "list", "--module", "chat", "--format", "json")
	require.NoError(t, err)

	var resp struct {
		Topics []topicDisplay `json:"topics"`
		Count  int            `json:"count"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Equal(t, 1, resp.Count)
	assert.Equal(t, "chat.message.relayed", resp.Topics[0].Name)
	assert.Equal(t, "module", resp.Topics[0].Scope)
}

func TestTopicsList_ScopeFilter(t *testing.T) {
	out, err := run(t, "topics", "list", "--scope", "framework")
	require.NoError(t, err)
	assert.NotContains(t, out, "chat.message.relayed")
	assert.Contains(t, out, "presence.member.left")

	_, err = run(t, "topics", "list", "--scope", "galaxy")
	assert.Error(t, err)
}

func TestHealth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/health", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok","timestamp":"2025-01-02T03:04:05Z"}`))
	}))
	defer srv.Close()

	out, err := run(t, "health", "--url", srv.URL+"/")
	require.NoError(t, err)
	assert.Contains(t, out, "ok (server time 2025-01-02T03:04:05Z)")
}

func TestHealth_Unhealthy(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"status":"draining"}`))
	}))
	defer srv.Close()

	_, err := run(t, "health", "--url", srv.URL)
	assert.Error(t, err)
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "troom CLI v0.1.0\n", out)
}
