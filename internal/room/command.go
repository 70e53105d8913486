package room

// Command is an inbound request from a connection.
type Command interface {
	isCommand()
}

// Join asks to hold Username in Room.
type Join struct {
	Room     string
	Username string
}

// Send relays a message to the connection's current room. Author is
// informational only; the registered username is used.
type Send struct {
	Room             string
	Author           string
	Text             string
	Image            string
	CorrelationToken string
	// Timestamp is kept when it parses as RFC 3339.
	Timestamp string
	// AskAI asks the assistant to answer this message.
	AskAI bool
}

// Leave drops the connection's current membership.
type Leave struct {
	Room     string
	Username string
}

// Disconnect is issued by the transport when a connection closes.
type Disconnect struct{}

func (Join) isCommand()       {}
func (Send) isCommand()       {}
func (Leave) isCommand()      {}
func (Disconnect) isCommand() {}

// Ack statuses.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// Ack is the reply sent to the originating connection.
type Ack struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// Result is the outcome of a command: the notifications to deliver and,
// when the command was rejected, the reason.
type Result struct {
	Out *Outbox
	Err error
}

// Ack converts the result into the reply for the originating connection.
func (r Result) Ack() Ack {
	if r.Err != nil {
		return Ack{Status: StatusError, Error: Reason(r.Err)}
	}
	return Ack{Status: StatusOK}
}
