package loaders

import (
	"context"
	"fmt"
	"image"
	"os"

	// Decoders registered with image.Decode.
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/spaghettifunk/showroom/engine/resources"
)

type TextureLoader struct{}

func (tl *TextureLoader) Load(ctx context.Context, name, path string) (*resources.Resource, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	tex, size, err := decodeTexture(name, path)
	if err != nil {
		return nil, err
	}
	return &resources.Resource{
		Name:     name,
		FullPath: path,
		DataSize: size,
		Data:     tex,
	}, nil
}

// decodeTexture opens and decodes an 8-bit image file (PNG, JPEG, BMP, TIFF
// or WebP) into an RGBA texture.
func decodeTexture(name, path string) (*resources.Texture, uint64, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, 0, err
	}

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, 0, fmt.Errorf("decode %s: %w", path, err)
	}

	rgba, ok := img.(*image.RGBA)
	if !ok || rgba.Rect.Min != (image.Point{}) || rgba.Stride != 4*rgba.Rect.Dx() {
		b := img.Bounds()
		rgba = image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	}

	tex := resources.NewTexture(name)
	tex.Width = uint32(rgba.Rect.Dx())
	tex.Height = uint32(rgba.Rect.Dy())
	tex.Format = resources.PixelFormatRGBA8
	tex.Pixels = rgba.Pix
	tex.Image = img

	return tex, uint64(info.Size()), nil
}
