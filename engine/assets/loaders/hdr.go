package loaders

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/mdouchement/hdr"
	"github.com/mdouchement/hdr/codec/rgbe"

	"github.com/spaghettifunk/showroom/engine/resources"
)

var ErrNotHDR = errors.New("decoded image carries no high dynamic range data")

// RGBELoader decodes Radiance .hdr files into float textures.
type RGBELoader struct{}

func (rl *RGBELoader) Load(ctx context.Context, name, path string) (*resources.Resource, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, err
	}

	img, err := rgbe.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	himg, ok := img.(hdr.Image)
	if !ok {
		return nil, fmt.Errorf("%s: %w", path, ErrNotHDR)
	}

	b := himg.Bounds()
	tex := newFloatTexture(name, b.Dx(), b.Dy())
	i := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, _ := himg.HDRAt(x, y).HDRRGBA()
			tex.Float[i+0] = float32(r)
			tex.Float[i+1] = float32(g)
			tex.Float[i+2] = float32(bl)
			tex.Float[i+3] = 1
			i += 4
		}
	}

	return &resources.Resource{
		Name:     name,
		FullPath: path,
		DataSize: uint64(info.Size()),
		Data:     tex,
	}, nil
}

func newFloatTexture(name string, width, height int) *resources.Texture {
	tex := resources.NewTexture(name)
	tex.Width = uint32(width)
	tex.Height = uint32(height)
	tex.Format = resources.PixelFormatRGBA32F
	tex.Float = make([]float32, width*height*4)
	return tex
}
