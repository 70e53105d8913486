package pubsub

import (
	"context"
)

// Message is the structure passed between components on the bus.
type Message struct {
	// Topic identifies the channel the message belongs to (e.g., "chat.message.relayed").
	Topic string
	// ConnID identifies the connection that caused the message, when there is one.
	ConnID string
	// Payload contains the JSON-encoded event.
	Payload []byte
	// Metadata carries arbitrary key-value context.
	Metadata map[string]string
}

// Handler defines the function signature for processing a received message.
type Handler func(ctx context.Context, msg Message) error

// Publisher defines the contract for sending messages to the bus.
type Publisher interface {
	Publish(ctx context.Context, msg Message) error
	Close() error
}

// Subscriber defines the contract for receiving messages from the bus.
type Subscriber interface {
	// Subscribe starts delivering messages for topic to handler in the
	// background. Delivery stops when ctx is canceled or the bus closes.
	Subscribe(ctx context.Context, topic string, handler Handler) error
	Close() error
}

// Bus is both ends of the in-process message bus.
type Bus interface {
	Publisher
	Subscriber
}
