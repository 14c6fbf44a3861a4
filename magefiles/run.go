//go:build mage

package main

import (
	"fmt"

	"github.com/magefile/mage/mg"
)

type Run mg.Namespace

// Runs the viewer against the assets directory.
func (Run) Viewer() error {
	mg.Deps(Build.Vet)
	fmt.Println("Run viewer...")
	if _, err := executeCmd("go", withArgs("run", "."), withStream()); err != nil {
		return err
	}
	return nil
}

// Runs the viewer and reloads the scene when asset files change.
func (Run) Watch() error {
	fmt.Println("Run viewer in watch mode...")
	_, err := executeCmd("go", withArgs("run", "."), withEnv("SHOWROOM_WATCH=true", "SHOWROOM_LOG_LEVEL=debug"), withStream())
	return err
}
