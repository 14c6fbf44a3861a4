package loaders

import (
	"bytes"
	"compress/zlib"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/x448/float16"

	"github.com/spaghettifunk/showroom/engine/resources"
)

const (
	exrMagic = 20000630

	exrFlagTiled     = 0x200
	exrFlagDeep      = 0x800
	exrFlagMultipart = 0x1000

	// maxEXRPixels bounds the data window, 8192x4096 at most.
	maxEXRPixels = 1 << 25
)

type exrCompression uint8

const (
	exrCompressionNone exrCompression = 0
	exrCompressionRLE  exrCompression = 1
	exrCompressionZIPS exrCompression = 2
	exrCompressionZIP  exrCompression = 3
)

type exrPixelType int32

const (
	exrPixelUint  exrPixelType = 0
	exrPixelHalf  exrPixelType = 1
	exrPixelFloat exrPixelType = 2
)

func (p exrPixelType) size() int {
	if p == exrPixelHalf {
		return 2
	}
	return 4
}

var (
	ErrNotEXR              = errors.New("not an OpenEXR file")
	ErrEXRUnsupported      = errors.New("unsupported OpenEXR feature")
	ErrEXRCorrupt          = errors.New("corrupt OpenEXR file")
	errEXRMissingAttribute = errors.New("missing required OpenEXR attribute")
)

type exrChannel struct {
	name      string
	pixelType exrPixelType
	xSampling int32
	ySampling int32
}

type exrHeader struct {
	channels    []exrChannel
	compression exrCompression
	xMin, yMin  int32
	xMax, yMax  int32
}

func (h *exrHeader) width() int  { return int(int64(h.xMax)-int64(h.xMin)) + 1 }
func (h *exrHeader) height() int { return int(int64(h.yMax)-int64(h.yMin)) + 1 }

func (h *exrHeader) linesPerBlock() int {
	if h.compression == exrCompressionZIP {
		return 16
	}
	return 1
}

func (h *exrHeader) bytesPerLine() int {
	n := 0
	for _, c := range h.channels {
		n += c.pixelType.size() * h.width()
	}
	return n
}

// EXRLoader decodes single-part scanline OpenEXR files with NONE, RLE,
// ZIPS or ZIP compression into float textures.
type EXRLoader struct{}

func (el *EXRLoader) Load(ctx context.Context, name, path string) (*resources.Resource, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	tex, err := DecodeEXR(name, data)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return &resources.Resource{
		Name:     name,
		FullPath: path,
		DataSize: uint64(len(data)),
		Data:     tex,
	}, nil
}

// DecodeEXR decodes the R, G, B and A channels of an OpenEXR image. A lone
// Y channel is expanded to grey; missing alpha reads as 1.
func DecodeEXR(name string, data []byte) (*resources.Texture, error) {
	r := &exrReader{buf: data}

	if r.u32() != exrMagic {
		return nil, ErrNotEXR
	}
	version := r.u32()
	if version&0xff != 2 {
		return nil, fmt.Errorf("%w: version %d", ErrEXRUnsupported, version&0xff)
	}
	if version&(exrFlagTiled|exrFlagDeep|exrFlagMultipart) != 0 {
		return nil, fmt.Errorf("%w: only single-part scanline images are supported", ErrEXRUnsupported)
	}

	h, err := readEXRHeader(r)
	if err != nil {
		return nil, err
	}

	width, height := h.width(), h.height()
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: empty data window", ErrEXRCorrupt)
	}
	if width > maxEXRPixels || height > maxEXRPixels/width {
		return nil, fmt.Errorf("%w: data window %dx%d exceeds %d pixels", ErrEXRUnsupported, width, height, maxEXRPixels)
	}
	for _, c := range h.channels {
		if c.xSampling != 1 || c.ySampling != 1 {
			return nil, fmt.Errorf("%w: subsampled channel %q", ErrEXRUnsupported, c.name)
		}
	}

	lpb := h.linesPerBlock()
	chunks := (height + lpb - 1) / lpb
	if chunks > (len(data)-r.pos)/8 {
		return nil, fmt.Errorf("%w: chunk table of %d entries exceeds file size", ErrEXRCorrupt, chunks)
	}
	offsets := make([]uint64, chunks)
	for i := range offsets {
		offsets[i] = r.u64()
	}
	if r.err != nil {
		return nil, r.err
	}

	tex := newFloatTexture(name, width, height)
	for i := 3; i < len(tex.Float); i += 4 {
		tex.Float[i] = 1
	}

	dst := channelTargets(h.channels)
	lineBytes := h.bytesPerLine()
	for _, off := range offsets {
		if off == 0 || off >= uint64(len(data)) {
			return nil, fmt.Errorf("%w: chunk offset %d out of range", ErrEXRCorrupt, off)
		}
		cr := &exrReader{buf: data, pos: int(off)}
		y := int(int32(cr.u32()))
		size := int(int32(cr.u32()))
		if cr.err != nil || size < 0 || cr.pos+size > len(data) {
			return nil, fmt.Errorf("%w: truncated chunk at %d", ErrEXRCorrupt, off)
		}
		packed := data[cr.pos : cr.pos+size]

		first := y - int(h.yMin)
		lines := lpb
		if first+lines > height {
			lines = height - first
		}
		if first < 0 || lines <= 0 {
			return nil, fmt.Errorf("%w: chunk line %d outside data window", ErrEXRCorrupt, y)
		}

		raw, err := uncompressEXR(h.compression, packed, lines*lineBytes)
		if err != nil {
			return nil, err
		}

		pos := 0
		for line := 0; line < lines; line++ {
			row := (first + line) * width * 4
			for ci, c := range h.channels {
				for x := 0; x < width; x++ {
					v := readEXRValue(c.pixelType, raw[pos:])
					pos += c.pixelType.size()
					for _, comp := range dst[ci] {
						tex.Float[row+x*4+comp] = v
					}
				}
			}
		}
	}

	return tex, nil
}

// channelTargets maps each channel to the RGBA components it writes.
func channelTargets(channels []exrChannel) [][]int {
	hasColor := false
	for _, c := range channels {
		if c.name == "R" || c.name == "G" || c.name == "B" {
			hasColor = true
		}
	}
	out := make([][]int, len(channels))
	for i, c := range channels {
		switch c.name {
		case "R":
			out[i] = []int{0}
		case "G":
			out[i] = []int{1}
		case "B":
			out[i] = []int{2}
		case "A":
			out[i] = []int{3}
		case "Y":
			if !hasColor {
				out[i] = []int{0, 1, 2}
			}
		}
	}
	return out
}

func readEXRValue(t exrPixelType, b []byte) float32 {
	switch t {
	case exrPixelHalf:
		return float16.Frombits(binary.LittleEndian.Uint16(b)).Float32()
	case exrPixelFloat:
		return math.Float32frombits(binary.LittleEndian.Uint32(b))
	default:
		return float32(binary.LittleEndian.Uint32(b))
	}
}

func readEXRHeader(r *exrReader) (*exrHeader, error) {
	h := &exrHeader{}
	var seenChannels, seenCompression, seenWindow bool

	for {
		name := r.cstring()
		if r.err != nil {
			return nil, r.err
		}
		if name == "" {
			break
		}
		typ := r.cstring()
		size := int(int32(r.u32()))
		if r.err != nil || size < 0 || r.pos+size > len(r.buf) {
			return nil, fmt.Errorf("%w: attribute %q", ErrEXRCorrupt, name)
		}
		value := &exrReader{buf: r.buf[r.pos : r.pos+size]}
		r.pos += size

		switch {
		case name == "channels" && typ == "chlist":
			for {
				cname := value.cstring()
				if value.err != nil {
					return nil, fmt.Errorf("%w: channel list", ErrEXRCorrupt)
				}
				if cname == "" {
					break
				}
				c := exrChannel{name: cname, pixelType: exrPixelType(int32(value.u32()))}
				value.skip(4) // pLinear + reserved
				c.xSampling = int32(value.u32())
				c.ySampling = int32(value.u32())
				if c.pixelType < exrPixelUint || c.pixelType > exrPixelFloat {
					return nil, fmt.Errorf("%w: pixel type %d", ErrEXRCorrupt, c.pixelType)
				}
				h.channels = append(h.channels, c)
			}
			seenChannels = true
		case name == "compression" && typ == "compression":
			h.compression = exrCompression(value.u8())
			seenCompression = true
		case name == "dataWindow" && typ == "box2i":
			h.xMin = int32(value.u32())
			h.yMin = int32(value.u32())
			h.xMax = int32(value.u32())
			h.yMax = int32(value.u32())
			seenWindow = true
		}
		if value.err != nil {
			return nil, fmt.Errorf("%w: attribute %q", ErrEXRCorrupt, name)
		}
	}

	switch {
	case !seenChannels:
		return nil, fmt.Errorf("%w: channels", errEXRMissingAttribute)
	case !seenCompression:
		return nil, fmt.Errorf("%w: compression", errEXRMissingAttribute)
	case !seenWindow:
		return nil, fmt.Errorf("%w: dataWindow", errEXRMissingAttribute)
	}
	switch h.compression {
	case exrCompressionNone, exrCompressionRLE, exrCompressionZIPS, exrCompressionZIP:
	default:
		return nil, fmt.Errorf("%w: compression %d", ErrEXRUnsupported, h.compression)
	}
	return h, nil
}

func uncompressEXR(c exrCompression, packed []byte, expected int) ([]byte, error) {
	// Blocks that do not shrink are stored as-is.
	if c == exrCompressionNone || len(packed) == expected {
		if len(packed) != expected {
			return nil, fmt.Errorf("%w: block is %d bytes, want %d", ErrEXRCorrupt, len(packed), expected)
		}
		return packed, nil
	}

	var tmp []byte
	switch c {
	case exrCompressionRLE:
		var err error
		if tmp, err = rleUncompress(packed, expected); err != nil {
			return nil, err
		}
	case exrCompressionZIPS, exrCompressionZIP:
		zr, err := zlib.NewReader(bytes.NewReader(packed))
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrEXRCorrupt, err)
		}
		tmp = make([]byte, expected)
		if _, err := io.ReadFull(zr, tmp); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrEXRCorrupt, err)
		}
	}

	// Undo the delta predictor, then re-interleave the two byte halves.
	for i := 1; i < len(tmp); i++ {
		tmp[i] = tmp[i-1] + tmp[i] - 128
	}
	out := make([]byte, len(tmp))
	half := (len(tmp) + 1) / 2
	for i := range out {
		if i%2 == 0 {
			out[i] = tmp[i/2]
		} else {
			out[i] = tmp[half+i/2]
		}
	}
	return out, nil
}

func rleUncompress(in []byte, expected int) ([]byte, error) {
	out := make([]byte, 0, expected)
	for i := 0; i < len(in); {
		n := int(int8(in[i]))
		i++
		if n < 0 {
			n = -n
			if i+n > len(in) {
				return nil, fmt.Errorf("%w: rle literal overruns block", ErrEXRCorrupt)
			}
			out = append(out, in[i:i+n]...)
			i += n
		} else {
			if i >= len(in) {
				return nil, fmt.Errorf("%w: rle run overruns block", ErrEXRCorrupt)
			}
			for j := 0; j <= n; j++ {
				out = append(out, in[i])
			}
			i++
		}
	}
	if len(out) != expected {
		return nil, fmt.Errorf("%w: rle block is %d bytes, want %d", ErrEXRCorrupt, len(out), expected)
	}
	return out, nil
}

type exrReader struct {
	buf []byte
	pos int
	err error
}

func (r *exrReader) need(n int) bool {
	if r.err != nil {
		return false
	}
	if n < 0 || n > len(r.buf)-r.pos {
		r.err = fmt.Errorf("%w: unexpected end of data", ErrEXRCorrupt)
		return false
	}
	return true
}

func (r *exrReader) u8() uint8 {
	if !r.need(1) {
		return 0
	}
	v := r.buf[r.pos]
	r.pos++
	return v
}

func (r *exrReader) u32() uint32 {
	if !r.need(4) {
		return 0
	}
	v := binary.LittleEndian.Uint32(r.buf[r.pos:])
	r.pos += 4
	return v
}

func (r *exrReader) u64() uint64 {
	if !r.need(8) {
		return 0
	}
	v := binary.LittleEndian.Uint64(r.buf[r.pos:])
	r.pos += 8
	return v
}

func (r *exrReader) skip(n int) {
	if r.need(n) {
		r.pos += n
	}
}

func (r *exrReader) cstring() string {
	if r.err != nil {
		return ""
	}
	end := bytes.IndexByte(r.buf[r.pos:], 0)
	if end < 0 {
		r.err = fmt.Errorf("%w: unterminated string", ErrEXRCorrupt)
		return ""
	}
	s := string(r.buf[r.pos : r.pos+end])
	r.pos += end + 1
	return s
}
