package loaders

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/spaghettifunk/showroom/engine/resources"
)

// CubeTextureLoader loads the six faces of a cube map concurrently. Faces
// are given in +X, -X, +Y, -Y, +Z, -Z order.
type CubeTextureLoader struct{}

func (cl *CubeTextureLoader) LoadCube(ctx context.Context, name string, faces []string) (*resources.Resource, error) {
	if len(faces) != int(resources.CubeFaceCount) {
		return nil, fmt.Errorf("cube texture %q needs %d faces, got %d", name, resources.CubeFaceCount, len(faces))
	}

	cube := &resources.CubeTexture{
		Name:    name,
		Mapping: resources.TextureMappingCubeReflection,
	}
	sizes := make([]uint64, len(faces))

	g, ctx := errgroup.WithContext(ctx)
	for i, path := range faces {
		i, path := i, path
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			tex, size, err := decodeTexture(fmt.Sprintf("%s[%d]", name, i), path)
			if err != nil {
				return err
			}
			tex.FlipY = false
			tex.Mapping = resources.TextureMappingCubeReflection
			cube.Faces[i] = tex
			sizes[i] = size
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	first := cube.Faces[0]
	var total uint64
	for i, face := range cube.Faces {
		if face.Width != first.Width || face.Height != first.Height {
			return nil, fmt.Errorf("cube texture %q face %d is %dx%d, expected %dx%d", name, i, face.Width, face.Height, first.Width, first.Height)
		}
		total += sizes[i]
	}

	return &resources.Resource{
		Name:     name,
		FullPath: faces[0],
		DataSize: total,
		Data:     cube,
	}, nil
}
