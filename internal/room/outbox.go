package room

import (
	"iter"
	"time"
)

// Server-to-client event names.
const (
	EventJoinedRoom    = "joined-room"
	EventMemberJoined  = "member-joined"
	EventMemberLeft    = "member-left"
	EventMembersInRoom = "members-in-room"
	EventMessage       = "message"
)

// Event is one notification for a client.
type Event struct {
	Name string
	Data any
}

// MemberEvent is the payload of member-joined and member-left.
type MemberEvent struct {
	Room     string `json:"room"`
	Username string `json:"username"`
}

// Message is the payload of a relayed chat message.
type Message struct {
	Room             string    `json:"room"`
	Author           string    `json:"author"`
	Text             string    `json:"text,omitempty"`
	Image            string    `json:"image,omitempty"`
	Timestamp        time.Time `json:"timestamp"`
	CorrelationToken string    `json:"correlationToken,omitempty"`
}

// Envelope addresses one event to a fixed set of connections.
type Envelope struct {
	Event   Event
	Targets []ConnID
}

// Delivery is one event for one connection.
type Delivery struct {
	ConnID ConnID
	Event  Event
}

// Outbox collects the notifications produced by a command, in the order
// they must be delivered. A nil Outbox is empty.
type Outbox struct {
	envelopes []Envelope
}

func (o *Outbox) toConn(id ConnID, name string, data any) {
	o.toConns([]ConnID{id}, name, data)
}

func (o *Outbox) toConns(ids []ConnID, name string, data any) {
	if len(ids) == 0 {
		return
	}
	o.envelopes = append(o.envelopes, Envelope{
		Event:   Event{Name: name, Data: data},
		Targets: ids,
	})
}

// Envelopes returns the addressed events in delivery order.
func (o *Outbox) Envelopes() []Envelope {
	if o == nil {
		return nil
	}
	return o.envelopes
}

// Deliveries yields one Delivery per (event, target) pair.
func (o *Outbox) Deliveries() iter.Seq[Delivery] {
	return func(yield func(Delivery) bool) {
		for _, env := range o.Envelopes() {
			for _, id := range env.Targets {
				if !yield(Delivery{ConnID: id, Event: env.Event}) {
					return
				}
			}
		}
	}
}

// Len returns the number of envelopes.
func (o *Outbox) Len() int {
	return len(o.Envelopes())
}

// Empty reports whether there is nothing to deliver.
func (o *Outbox) Empty() bool {
	return o.Len() == 0
}
