package app

import (
	"github.com/nfrund/troom/internal/module"
	"github.com/nfrund/troom/internal/modules/ai"
	"github.com/nfrund/troom/internal/modules/chat"
)

// NewModules creates and returns the list of all active modules for the application.
// This is the single source of truth for which features are enabled.
// Order matters: later modules may invoke services registered by earlier ones.
func NewModules() []module.Module {
	return []module.Module{
		chat.New(),
		ai.New(),
	}
}
