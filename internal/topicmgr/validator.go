package topicmgr

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
)

var (
	namePattern   = regexp.MustCompile(`^[a-z][a-z0-9]*(\.[a-z][a-z0-9]*)*$`)
	modulePattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

	frameworkPrefixes = []string{"ws.", "presence.", "server."}
)

// ValidateName checks that name is a dotted lowercase identifier such as
// "chat.message.relayed".
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("name cannot be empty")
	}
	if len(name) > 100 {
		return fmt.Errorf("name too long (max 100 characters)")
	}
	if !namePattern.MatchString(name) {
		return fmt.Errorf("name must be lowercase dot-separated segments")
	}
	return nil
}

// IsFrameworkName reports whether name carries a core prefix.
func IsFrameworkName(name string) bool {
	return slices.ContainsFunc(frameworkPrefixes, func(p string) bool {
		return strings.HasPrefix(name, p)
	})
}

func validate(topic Topic) error {
	if topic == nil {
		return fmt.Errorf("topic cannot be nil")
	}
	if err := ValidateName(topic.Name()); err != nil {
		return fmt.Errorf("invalid topic name: %w", err)
	}
	if strings.TrimSpace(topic.Description()) == "" {
		return fmt.Errorf("topic description cannot be empty")
	}

	switch topic.Scope() {
	case ScopeFramework:
		if topic.Module() != "" {
			return fmt.Errorf("framework topics should not have a module")
		}
		if !IsFrameworkName(topic.Name()) {
			return fmt.Errorf("framework topic must start with one of %v", frameworkPrefixes)
		}
	case ScopeModule:
		if !modulePattern.MatchString(topic.Module()) {
			return fmt.Errorf("module name %q must be lowercase alphanumeric with underscores", topic.Module())
		}
	default:
		return fmt.Errorf("invalid topic scope: %q", topic.Scope())
	}
	return nil
}
