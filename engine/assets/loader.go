package assets

import (
	"context"
	"errors"
	"fmt"

	"github.com/spaghettifunk/showroom/engine/assets/loaders"
	"github.com/spaghettifunk/showroom/engine/resources"
)

var ErrMissingLoader = errors.New("no loader configured for asset type")

// Loader loads the asset stored at path.
type Loader interface {
	Load(ctx context.Context, name, path string) (*resources.Resource, error)
}

// CubeLoader loads a cube texture from its six face images.
type CubeLoader interface {
	LoadCube(ctx context.Context, name string, faces []string) (*resources.Resource, error)
}

// Loaders holds one loader per Kind.
type Loaders struct {
	Model   Loader
	Texture Loader
	Cube    CubeLoader
	EXR     Loader
	HDR     Loader
	Video   Loader
}

// DefaultLoaders returns the file based loaders for every Kind.
func DefaultLoaders() *Loaders {
	return &Loaders{
		Model:   &loaders.ModelLoader{},
		Texture: &loaders.TextureLoader{},
		Cube:    &loaders.CubeTextureLoader{},
		EXR:     &loaders.EXRLoader{},
		HDR:     &loaders.RGBELoader{},
		Video:   loaders.NewVideoLoader(),
	}
}

func (l *Loaders) validate() error {
	var errs []error
	check := func(k Kind, missing bool) {
		if missing {
			errs = append(errs, fmt.Errorf("%w: %s", ErrMissingLoader, k))
		}
	}
	check(KindModel, l.Model == nil)
	check(KindTexture, l.Texture == nil)
	check(KindCubeTexture, l.Cube == nil)
	check(KindEXR, l.EXR == nil)
	check(KindHDR, l.HDR == nil)
	check(KindVideo, l.Video == nil)
	return errors.Join(errs...)
}
