package topicmgr

import (
	"fmt"
	"slices"
	"strings"
	"sync"
)

// Manager holds registered topics.
type Manager struct {
	mu     sync.RWMutex
	topics map[string]Topic
}

// NewManager creates an empty topic manager.
func NewManager() *Manager {
	return &Manager{topics: make(map[string]Topic)}
}

// DefineFramework creates a topic owned by the relay core.
func DefineFramework(config TopicConfig) Topic {
	config.Scope = ScopeFramework
	config.Module = ""
	return &typedTopic{cfg: config}
}

// DefineModule creates a topic owned by config.Module.
func DefineModule(config TopicConfig) Topic {
	config.Scope = ScopeModule
	return &typedTopic{cfg: config}
}

// Register validates and adds a topic. Names are unique.
func (m *Manager) Register(topic Topic) error {
	if err := validate(topic); err != nil {
		name := ""
		if topic != nil {
			name = topic.Name()
		}
		return &TopicError{
			Type:    ErrorValidationFailed,
			Topic:   name,
			Message: "topic validation failed",
			Cause:   err,
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.topics[topic.Name()]; exists {
		return &TopicError{
			Type:    ErrorDuplicateRegistration,
			Topic:   topic.Name(),
			Message: fmt.Sprintf("topic already registered: %s", topic.Name()),
		}
	}
	m.topics[topic.Name()] = topic
	return nil
}

// MustRegister registers a topic and panics on error (for static initialization)
func (m *Manager) MustRegister(topic Topic) {
	if err := m.Register(topic); err != nil {
		panic(fmt.Sprintf("failed to register topic %s: %v", topic.Name(), err))
	}
}

// Get retrieves a topic by name.
func (m *Manager) Get(name string) (Topic, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.topics[name]
	return t, ok
}

// List returns all topics ordered by name.
func (m *Manager) List() []Topic {
	return m.filter(func(Topic) bool { return true })
}

// ListByModule returns the topics owned by module.
func (m *Manager) ListByModule(module string) []Topic {
	return m.filter(func(t Topic) bool { return t.Module() == module })
}

// ListByScope returns the topics of one scope.
func (m *Manager) ListByScope(scope TopicScope) []Topic {
	return m.filter(func(t Topic) bool { return t.Scope() == scope })
}

// ListModules returns the sorted names of modules that own topics.
func (m *Manager) ListModules() []string {
	var modules []string
	for _, t := range m.ListByScope(ScopeModule) {
		if !slices.Contains(modules, t.Module()) {
			modules = append(modules, t.Module())
		}
	}
	slices.Sort(modules)
	return modules
}

// Count returns the number of registered topics.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.topics)
}

func (m *Manager) filter(keep func(Topic) bool) []Topic {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []Topic
	for _, t := range m.topics {
		if keep(t) {
			out = append(out, t)
		}
	}
	slices.SortFunc(out, func(a, b Topic) int {
		return strings.Compare(a.Name(), b.Name())
	})
	return out
}

var (
	defaultManager     *Manager
	defaultManagerOnce sync.Once
)

// Default returns the process-wide manager that package-level topic
// declarations register with.
func Default() *Manager {
	defaultManagerOnce.Do(func() {
		defaultManager = NewManager()
	})
	return defaultManager
}
