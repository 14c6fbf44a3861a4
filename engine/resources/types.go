package resources

import (
	"image"

	"github.com/qmuntal/gltf"
)

/**
 * @brief A generic structure for a resource. All resource loaders
 * load data into these.
 */
type Resource struct {
	/** @brief The name of the asset this resource was loaded for. */
	Name string
	/** @brief The full file path of the resource. */
	FullPath string
	/** @brief The size of the source data in bytes. */
	DataSize uint64
	/** @brief The resource data: *Texture, *Model or *VideoTexture. */
	Data interface{}
}

/** @brief Represents supported texture filtering modes. */
type TextureFilter int

const (
	/** @brief Linear (i.e. bilinear) filtering. Default for decoded images. */
	TextureFilterLinear TextureFilter = iota
	/** @brief Linear filtering across mip levels. */
	TextureFilterLinearMipmapLinear
	/** @brief Nearest-neighbor filtering.*/
	TextureFilterNearest
)

/** @brief How a texture is projected when used as an environment. */
type TextureMapping int

const (
	/** @brief Plain UV mapping. */
	TextureMappingUV TextureMapping = iota
	/** @brief Six-face cube reflection mapping. */
	TextureMappingCubeReflection
	/** @brief Latitude/longitude reflection mapping, used for HDR environments. */
	TextureMappingEquirectangularReflection
)

/** @brief The color space of the texel data. */
type TextureEncoding int

const (
	TextureEncodingLinear TextureEncoding = iota
	TextureEncodingSRGB
)

/** @brief The layout of Texture.Pixels or Texture.Float. */
type PixelFormat int

const (
	/** @brief 8 bits per channel, RGBA, stored in Pixels. */
	PixelFormatRGBA8 PixelFormat = iota
	/** @brief 32-bit float per channel, RGBA, stored in Float. */
	PixelFormatRGBA32F
)

/**
 * @brief Represents a texture.
 */
type Texture struct {
	/** @brief The texture Name. */
	Name string
	/** @brief The texture Width. */
	Width uint32
	/** @brief The texture Height. */
	Height uint32
	/** @brief Layout of the texel data. */
	Format PixelFormat
	/** @brief 8-bit texel data, set when Format is PixelFormatRGBA8. */
	Pixels []uint8
	/** @brief Float texel data, set when Format is PixelFormatRGBA32F. */
	Float []float32
	/** @brief The decoded source image, kept for 8-bit textures. */
	Image image.Image

	GenerateMipmaps bool
	MinFilter       TextureFilter
	MagFilter       TextureFilter
	Mapping         TextureMapping
	Encoding        TextureEncoding
	FlipY           bool
}

// NewTexture returns a texture with the defaults every image loader starts
// from: mipmaps on, trilinear minification, linear magnification.
func NewTexture(name string) *Texture {
	return &Texture{
		Name:            name,
		GenerateMipmaps: true,
		MinFilter:       TextureFilterLinearMipmapLinear,
		MagFilter:       TextureFilterLinear,
		Mapping:         TextureMappingUV,
		Encoding:        TextureEncodingLinear,
		FlipY:           true,
	}
}

/** @brief The ordering of the faces of a cube texture. */
type CubeFace int

const (
	CubeFacePositiveX CubeFace = iota
	CubeFaceNegativeX
	CubeFacePositiveY
	CubeFaceNegativeY
	CubeFacePositiveZ
	CubeFaceNegativeZ
	CubeFaceCount
)

/**
 * @brief A cube texture, one image per face.
 */
type CubeTexture struct {
	Name    string
	Faces   [CubeFaceCount]*Texture
	Mapping TextureMapping
}

/**
 * @brief A loaded glTF/GLB model.
 */
type Model struct {
	/** @brief The parsed document. */
	Document *gltf.Document
	/** @brief Index of the scene to display. */
	Scene int
	/** @brief Number of primitives carrying Draco compressed geometry. */
	CompressedPrimitives int
	/** @brief Number of compressed primitives that were decoded. */
	DecodedPrimitives int
}

/**
 * @brief A media element playing back a video source. Playback state is
 * simulated by a clock; decoding frames is left to the consumer.
 */
type MediaElement struct {
	Src         string
	Muted       bool
	PlaysInline bool
	Autoplay    bool
	Loop        bool
}

/**
 * @brief A texture sampled from a playing media element.
 */
type VideoTexture struct {
	Texture *Texture
	Element *MediaElement
	Player  *Player
}
