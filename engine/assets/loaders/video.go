package loaders

import (
	"context"
	"os"
	"strings"
	"sync"

	"github.com/spaghettifunk/showroom/engine/core"
	"github.com/spaghettifunk/showroom/engine/resources"
)

// VideoLoader creates one playing media element per asset name and wraps it
// in a texture. It resolves as soon as playback starts; frames are not
// awaited.
type VideoLoader struct {
	// NewClock builds the playback clock of each element. Defaults to core.NewClock.
	NewClock func() *core.Clock

	mu       sync.Mutex
	elements map[string]*resources.MediaElement
}

func NewVideoLoader() *VideoLoader {
	return &VideoLoader{
		NewClock: core.NewClock,
		elements: make(map[string]*resources.MediaElement),
	}
}

func (vl *VideoLoader) Load(ctx context.Context, name, path string) (*resources.Resource, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var size uint64
	if !strings.Contains(path, "://") {
		info, err := os.Stat(path)
		if err != nil {
			return nil, err
		}
		size = uint64(info.Size())
	}

	element := &resources.MediaElement{
		Src:         path,
		Muted:       true,
		PlaysInline: true,
		Autoplay:    true,
		Loop:        true,
	}
	newClock := vl.NewClock
	if newClock == nil {
		newClock = core.NewClock
	}
	player := resources.NewPlayer(element, newClock())
	player.Play()

	vl.mu.Lock()
	if vl.elements == nil {
		vl.elements = make(map[string]*resources.MediaElement)
	}
	vl.elements[name] = element
	vl.mu.Unlock()

	tex := resources.NewTexture(name)
	tex.MinFilter = resources.TextureFilterNearest
	tex.MagFilter = resources.TextureFilterNearest
	tex.GenerateMipmaps = false
	tex.Encoding = resources.TextureEncodingSRGB

	return &resources.Resource{
		Name:     name,
		FullPath: path,
		DataSize: size,
		Data: &resources.VideoTexture{
			Texture: tex,
			Element: element,
			Player:  player,
		},
	}, nil
}

// Element returns the media element created for the named asset.
func (vl *VideoLoader) Element(name string) (*resources.MediaElement, bool) {
	vl.mu.Lock()
	defer vl.mu.Unlock()
	e, ok := vl.elements[name]
	return e, ok
}
