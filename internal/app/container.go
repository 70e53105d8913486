package app

import (
	"github.com/samber/do/v2"

	"github.com/nfrund/troom/internal/config"
	"github.com/nfrund/troom/internal/pubsub"
)

// NewContainer creates the dependency container holding the core services
// modules build on. Modules add their own services during Register.
func NewContainer(cfg *config.Config, bus pubsub.Bus) do.Injector {
	i := do.New()
	do.ProvideValue(i, cfg)
	do.ProvideValue[pubsub.Publisher](i, bus)
	do.ProvideValue[pubsub.Subscriber](i, bus)
	return i
}
