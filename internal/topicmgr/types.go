package topicmgr

import (
	"maps"
)

// Topic is a registered bus topic.
type Topic interface {
	Name() string
	// Module returns the owning module, empty for framework topics.
	Module() string
	Description() string
	Example() string
	Metadata() map[string]any
	Scope() TopicScope
}

// TopicScope says whether a topic belongs to the core or to a module.
type TopicScope string

const (
	ScopeFramework TopicScope = "framework"
	ScopeModule    TopicScope = "module"
)

// TopicConfig describes a topic before it is defined.
type TopicConfig struct {
	Name        string         `json:"name"`
	Module      string         `json:"module"`
	Scope       TopicScope     `json:"scope"`
	Description string         `json:"description"`
	Example     string         `json:"example"`
	Metadata    map[string]any `json:"metadata"`
}

type typedTopic struct {
	cfg TopicConfig
}

var _ Topic = (*typedTopic)(nil)

func (t *typedTopic) Name() string        { return t.cfg.Name }
func (t *typedTopic) Module() string      { return t.cfg.Module }
func (t *typedTopic) Description() string { return t.cfg.Description }
func (t *typedTopic) Example() string     { return t.cfg.Example }
func (t *typedTopic) Scope() TopicScope   { return t.cfg.Scope }
func (t *typedTopic) String() string      { return t.cfg.Name }

// Metadata returns a copy of the topic's metadata.
func (t *typedTopic) Metadata() map[string]any {
	if t.cfg.Metadata == nil {
		return map[string]any{}
	}
	return maps.Clone(t.cfg.Metadata)
}

// ErrorType classifies a TopicError.
type ErrorType string

const (
	ErrorDuplicateRegistration ErrorType = "duplicate_registration"
	ErrorValidationFailed      ErrorType = "validation_failed"
)

// TopicError is returned when a topic cannot be registered.
type TopicError struct {
	Type    ErrorType `json:"type"`
	Topic   string    `json:"topic"`
	Message string    `json:"message"`
	Cause   error     `json:"cause,omitempty"`
}

// Error implements the error interface
func (e *TopicError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

// Unwrap returns the underlying error
func (e *TopicError) Unwrap() error {
	return e.Cause
}
