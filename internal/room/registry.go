package room

// ConnID identifies one live transport connection.
type ConnID string

// Assignment is the (room, username) pair a connection currently holds.
type Assignment struct {
	Room     string `json:"room"`
	Username string `json:"username"`
}

// Registry maps live connections to at most one assignment each.
// It is not safe for concurrent use; Service serializes access to it.
type Registry struct {
	conns map[ConnID]*Assignment // nil value means registered but not joined
}

// NewRegistry creates an empty connection registry.
func NewRegistry() *Registry {
	return &Registry{conns: make(map[ConnID]*Assignment)}
}

// Register records a connection as live and unjoined. Registering an
// existing connection keeps its assignment.
func (r *Registry) Register(id ConnID) {
	if _, ok := r.conns[id]; !ok {
		r.conns[id] = nil
	}
}

// SetAssignment binds the connection to room and username, registering it if needed.
func (r *Registry) SetAssignment(id ConnID, room, username string) {
	r.conns[id] = &Assignment{Room: room, Username: username}
}

// ClearAssignment returns a connection to the unjoined state.
func (r *Registry) ClearAssignment(id ConnID) {
	if _, ok := r.conns[id]; ok {
		r.conns[id] = nil
	}
}

// Lookup returns the connection's assignment. Unknown and unjoined
// connections both report false.
func (r *Registry) Lookup(id ConnID) (Assignment, bool) {
	a, ok := r.conns[id]
	if !ok || a == nil {
		return Assignment{}, false
	}
	return *a, true
}

// Registered reports whether the connection is live.
func (r *Registry) Registered(id ConnID) bool {
	_, ok := r.conns[id]
	return ok
}

// Remove forgets the connection entirely.
func (r *Registry) Remove(id ConnID) {
	delete(r.conns, id)
}

// Len returns the number of live connections.
func (r *Registry) Len() int {
	return len(r.conns)
}
