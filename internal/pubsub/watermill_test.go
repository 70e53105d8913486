package pubsub

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type greeting struct {
	Room string `json:"room"`
	Text string `json:"text,omitempty"`
}

var greetingEvent = NewEvent[greeting]("test.greeting.sent", "A greeting used by bus tests")

func TestNewEvent_RegistersTopic(t *testing.T) {
	topic := greetingEvent.Topic()

	assert.Equal(t, "test.greeting.sent", greetingEvent.Name())
	assert.Equal(t, "test", topic.Module())
	assert.Equal(t, []string{"room", "text"}, topic.Metadata()["payload_fields"])
	assert.Equal(t, "greeting", topic.Metadata()["type_name"])
}

func TestTypedPublishSubscribe(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bus := NewWatermillBridge()
	defer bus.Close()

	got := make(chan greeting, 1)
	require.NoError(t, Subscribe(ctx, bus, greetingEvent, func(_ context.Context, g greeting) error {
		got <- g
		return nil
	}))

	require.NoError(t, Publish(ctx, bus, greetingEvent, "conn-1", greeting{Room: "lobby", Text: "hi"}))

	select {
	case g := <-got:
		assert.Equal(t, greeting{Room: "lobby", Text: "hi"}, g)
	case <-time.After(2 * time.Second):
		t.Fatal("typed event was not delivered")
	}
}

func TestSubscribe_HandlerErrorDoesNotRedeliver(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bus := NewWatermillBridge()
	defer bus.Close()

	var calls atomic.Int32
	done := make(chan struct{}, 2)
	require.NoError(t, bus.Subscribe(ctx, "test.failing", func(context.Context, Message) error {
		calls.Add(1)
		done <- struct{}{}
		return errors.New("boom")
	}))

	require.NoError(t, bus.Publish(ctx, Message{Topic: "test.failing", Payload: []byte(`{}`)}))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("handler was not called")
	}
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())
}
