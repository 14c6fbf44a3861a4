package engine

import (
	"github.com/spaghettifunk/showroom/engine/assets"
	"github.com/spaghettifunk/showroom/engine/config"
)

type ApplicationConfig struct {
	// Viewport starting width.
	StartWidth int
	// Viewport starting height.
	StartHeight int
	// The application name used in log lines.
	Name string
	// Config overrides the environment. When nil, Initialize calls config.ParseEnv.
	Config *config.Config
	// Loaders overrides the default per-kind loaders.
	Loaders *assets.Loaders
}
