package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/nfrund/troom/internal/topicmgr"
)

// Event[T] is a bus topic whose payload is always a T. Declaring one
// registers it with the default topic manager.
type Event[T any] struct {
	topic topicmgr.Topic
}

// NewEvent declares a typed event. Names with a core prefix (ws.,
// presence., server.) become framework topics; anything else is owned by
// the module named by its first segment.
func NewEvent[T any](name, description string) Event[T] {
	t := reflect.TypeFor[T]()
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	var fields []string
	if t.Kind() == reflect.Struct {
		for i := range t.NumField() {
			tag, _, _ := strings.Cut(t.Field(i).Tag.Get("json"), ",")
			if tag != "" && tag != "-" {
				fields = append(fields, tag)
			}
		}
	}

	config := topicmgr.TopicConfig{
		Name:        name,
		Description: description,
		Metadata: map[string]any{
			"payload_fields": fields,
			"type_name":      t.Name(),
			"is_typed":       true,
		},
	}

	var topic topicmgr.Topic
	if topicmgr.IsFrameworkName(name) {
		topic = topicmgr.DefineFramework(config)
	} else {
		config.Module, _, _ = strings.Cut(name, ".")
		topic = topicmgr.DefineModule(config)
	}
	topicmgr.Default().MustRegister(topic)

	return Event[T]{topic: topic}
}

// Name returns the topic name.
func (e Event[T]) Name() string {
	return e.topic.Name()
}

// Topic returns the registered topic.
func (e Event[T]) Topic() topicmgr.Topic {
	return e.topic
}

// Publish sends a typed event.
func Publish[T any](ctx context.Context, p Publisher, event Event[T], connID string, payload T) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", event.Name(), err)
	}
	return p.Publish(ctx, Message{
		Topic:   event.Name(),
		ConnID:  connID,
		Payload: data,
	})
}

// Subscribe delivers decoded T payloads for event to handler.
func Subscribe[T any](ctx context.Context, s Subscriber, event Event[T], handler func(ctx context.Context, payload T) error) error {
	return s.Subscribe(ctx, event.Name(), func(ctx context.Context, msg Message) error {
		var payload T
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			return fmt.Errorf("decode %s payload: %w", event.Name(), err)
		}
		return handler(ctx, payload)
	})
}
