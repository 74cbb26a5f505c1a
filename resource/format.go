package resource

import (
	"encoding/binary"
	"math"

	"github.com/gogpu/gputypes"
)

// ClearColor is a clear value interpreted according to the image format.
type ClearColor struct {
	Float32 [4]float32
	Uint32  [4]uint32
	Int32   [4]int32
}

// TexelSize returns the bytes per texel of format, or 0 when the format
// has no host representation.
func TexelSize(format gputypes.TextureFormat) uint32 {
	switch format {
	case gputypes.TextureFormatR8Unorm:
		return 1
	case gputypes.TextureFormatRGBA8Unorm, gputypes.TextureFormatRGBA8UnormSrgb,
		gputypes.TextureFormatBGRA8Unorm, gputypes.TextureFormatBGRA8UnormSrgb,
		gputypes.TextureFormatR32Float:
		return 4
	case gputypes.TextureFormatRG32Float:
		return 8
	case gputypes.TextureFormatRGBA32Float:
		return 16
	default:
		return 0
	}
}

// Formats lists the formats images can be created with.
func Formats() []gputypes.TextureFormat {
	return []gputypes.TextureFormat{
		gputypes.TextureFormatR8Unorm,
		gputypes.TextureFormatRGBA8Unorm,
		gputypes.TextureFormatRGBA8UnormSrgb,
		gputypes.TextureFormatBGRA8Unorm,
		gputypes.TextureFormatBGRA8UnormSrgb,
		gputypes.TextureFormatR32Float,
		gputypes.TextureFormatRG32Float,
		gputypes.TextureFormatRGBA32Float,
	}
}

// encodeTexel packs c into one texel of format.
func encodeTexel(format gputypes.TextureFormat, c ClearColor) []byte {
	f := c.Float32
	switch format {
	case gputypes.TextureFormatR8Unorm:
		return []byte{unorm8(f[0])}
	case gputypes.TextureFormatRGBA8Unorm:
		return []byte{unorm8(f[0]), unorm8(f[1]), unorm8(f[2]), unorm8(f[3])}
	case gputypes.TextureFormatRGBA8UnormSrgb:
		return []byte{srgb8(f[0]), srgb8(f[1]), srgb8(f[2]), unorm8(f[3])}
	case gputypes.TextureFormatBGRA8Unorm:
		return []byte{unorm8(f[2]), unorm8(f[1]), unorm8(f[0]), unorm8(f[3])}
	case gputypes.TextureFormatBGRA8UnormSrgb:
		return []byte{srgb8(f[2]), srgb8(f[1]), srgb8(f[0]), unorm8(f[3])}
	case gputypes.TextureFormatR32Float:
		return float32s(f[:1])
	case gputypes.TextureFormatRG32Float:
		return float32s(f[:2])
	case gputypes.TextureFormatRGBA32Float:
		return float32s(f[:])
	}
	return nil
}

func float32s(v []float32) []byte {
	b := make([]byte, 0, 4*len(v))
	for _, x := range v {
		b = binary.LittleEndian.AppendUint32(b, math.Float32bits(x))
	}
	return b
}

func unorm8(v float32) uint8 {
	switch {
	case v != v, v <= 0:
		return 0
	case v >= 1:
		return 255
	}
	return uint8(v*255 + 0.5)
}

// srgb8 encodes a linear value with the sRGB transfer function.
func srgb8(v float32) uint8 {
	if v <= 0.0031308 {
		return unorm8(v * 12.92)
	}
	return unorm8(float32(1.055*math.Pow(float64(v), 1/2.4) - 0.055))
}
