/*
Showroom loads the car viewer assets and runs the scene loop until it is
interrupted
*/
package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spaghettifunk/showroom/engine"
	"github.com/spaghettifunk/showroom/engine/config"
	"github.com/spaghettifunk/showroom/engine/core"
	"github.com/spaghettifunk/showroom/engine/scene"
	"github.com/spaghettifunk/showroom/testbed"
)

func main() {
	cfg, err := config.ParseEnv()
	if err != nil {
		core.LogFatal(err.Error())
	}

	params, err := scene.LoadParams(cfg.Manifest)
	if err != nil {
		core.LogFatal(err.Error())
	}

	viewer := testbed.NewViewer(cfg, params)

	engine, err := engine.New(viewer.Game)
	if err != nil {
		core.LogFatal(err.Error())
	}

	if err := engine.Initialize(); err != nil {
		core.LogFatal(err.Error())
	}

	// signal channel to capture system calls
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)

	// start shutdown goroutine
	go func() {
		// capture sigterm and other system call here
		<-sigCh
		_ = engine.Shutdown()
	}()

	// run engine
	if err := engine.Run(); err != nil {
		_ = engine.Shutdown()
		core.LogFatal(err.Error())
	}
	if err := engine.Shutdown(); err != nil {
		core.LogError(err.Error())
	}
}
