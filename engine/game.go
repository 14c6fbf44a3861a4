package engine

import (
	"time"

	"github.com/spaghettifunk/showroom/engine/assets"
	"github.com/spaghettifunk/showroom/engine/resources"
)

type Game struct {
	ApplicationConfig *ApplicationConfig
	State             interface{}
	FnBoot            Boot
	FnInitialize      Initialize
	FnUpdate          Update
	FnReload          Reload
	FnProgress        Progress
	FnOnResize        OnResize
	FnShutdown        Shutdown
}

type Boot func() error

// Initialize runs once, after every asset in the manifest resolved.
type Initialize func(items map[string]*resources.Resource) error
type Update func(deltaTime time.Duration) error

// Reload receives the items of a fresh load after a watched file changed.
type Reload func(items map[string]*resources.Resource) error
type Progress func(p assets.Progress)
type OnResize func(width, height int) error
type Shutdown func() error
