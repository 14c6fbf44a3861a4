package scene

import (
	"fmt"

	"github.com/spaghettifunk/showroom/engine/config"
)

// Params are the tunables read from the [scene] table of the manifest file.
type Params struct {
	// Environment names the HDR/EXR asset used for lighting and the ground projection.
	Environment string `toml:"environment" yaml:"environment"`
	// Model names the glTF asset placed in the scene.
	Model        string  `toml:"model" yaml:"model"`
	GroundHeight float32 `toml:"ground_height" yaml:"ground_height"`
	GroundRadius float32 `toml:"ground_radius" yaml:"ground_radius"`
	GroundScale  float32 `toml:"ground_scale" yaml:"ground_scale"`
	Width        int     `toml:"width" yaml:"width"`
	Height       int     `toml:"height" yaml:"height"`
}

func DefaultParams() Params {
	return Params{
		Environment:  "blouberg_sunrise",
		Model:        "PorschePanameras4",
		GroundHeight: 10,
		GroundRadius: 50,
		GroundScale:  100,
		Width:        1280,
		Height:       720,
	}
}

type paramsFile struct {
	Scene Params `toml:"scene" yaml:"scene"`
}

// LoadParams reads the [scene] table of path. Missing keys keep their defaults.
func LoadParams(path string) (Params, error) {
	f := paramsFile{Scene: DefaultParams()}
	if err := config.DecodeFile(path, &f); err != nil {
		return Params{}, fmt.Errorf("load scene params %s: %w", path, err)
	}
	if f.Scene.Width <= 0 || f.Scene.Height <= 0 {
		return Params{}, fmt.Errorf("load scene params %s: %w: %dx%d", path, ErrViewport, f.Scene.Width, f.Scene.Height)
	}
	return f.Scene, nil
}

// Aspect is the viewport width over height.
func (p Params) Aspect() float32 {
	if p.Height == 0 {
		return 1
	}
	return float32(p.Width) / float32(p.Height)
}
