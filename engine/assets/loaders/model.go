package loaders

import (
	"context"
	"errors"
	"fmt"
	"os"
	"slices"

	"github.com/qmuntal/gltf"

	"github.com/spaghettifunk/showroom/engine/core"
	"github.com/spaghettifunk/showroom/engine/resources"
)

// DracoExtension is the glTF extension name for Draco compressed geometry.
const DracoExtension = "KHR_draco_mesh_compression"

var ErrDracoDecoderMissing = errors.New("model requires Draco decompression but no decoder is configured")

// DracoDecoder rebuilds the geometry of a Draco compressed primitive in place.
// ext is the raw value of the primitive's KHR_draco_mesh_compression entry.
type DracoDecoder interface {
	DecodePrimitive(doc *gltf.Document, mesh, primitive int, ext interface{}) error
}

// ModelLoader reads .gltf and .glb files. Compressed primitives are handed
// to Draco when set.
type ModelLoader struct {
	Draco DracoDecoder
}

func (ml *ModelLoader) Load(ctx context.Context, name, path string) (*resources.Resource, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	model := &resources.Model{Document: doc}
	if doc.Scene != nil {
		model.Scene = *doc.Scene
	}
	if err := ml.decompress(ctx, name, model); err != nil {
		return nil, err
	}

	return &resources.Resource{
		Name:     name,
		FullPath: path,
		DataSize: uint64(info.Size()),
		Data:     model,
	}, nil
}

func (ml *ModelLoader) decompress(ctx context.Context, name string, model *resources.Model) error {
	doc := model.Document
	for mi, mesh := range doc.Meshes {
		for pi, prim := range mesh.Primitives {
			ext, ok := prim.Extensions[DracoExtension]
			if !ok {
				continue
			}
			model.CompressedPrimitives++
			if ml.Draco == nil {
				continue
			}
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := ml.Draco.DecodePrimitive(doc, mi, pi, ext); err != nil {
				return fmt.Errorf("draco decode mesh %d primitive %d: %w", mi, pi, err)
			}
			model.DecodedPrimitives++
		}
	}

	if model.CompressedPrimitives == 0 || ml.Draco != nil {
		return nil
	}
	if slices.Contains(doc.ExtensionsRequired, DracoExtension) {
		return fmt.Errorf("%s: %w", name, ErrDracoDecoderMissing)
	}
	core.LogWarn("model %s has %d Draco primitives left undecoded, using uncompressed fallback", name, model.CompressedPrimitives)
	return nil
}
