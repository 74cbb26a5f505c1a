package resource

import (
	"bytes"
	"errors"
	"testing"

	"github.com/gogpu/gputypes"
)

func newBoundImage(t *testing.T, desc ImageDesc) *Image {
	t.Helper()
	img, err := NewImage(desc)
	if err != nil {
		t.Fatalf("NewImage() error = %v", err)
	}
	mem, err := Allocate(NewHeap(1<<20), img.Requirements().Size, 0)
	if err != nil {
		t.Fatal(err)
	}
	if err := img.Bind(mem, 0); err != nil {
		t.Fatal(err)
	}
	mem.Release()
	t.Cleanup(img.Release)
	return img
}

func TestImageLayout(t *testing.T) {
	img, err := NewImage(ImageDesc{
		Dimension:   gputypes.TextureDimension2D,
		Format:      gputypes.TextureFormatRGBA8Unorm,
		Extent:      gputypes.Extent3D{Width: 8, Height: 4, DepthOrArrayLayers: 1},
		MipLevels:   3,
		ArrayLayers: 2,
		Tiling:      TilingLinear,
	})
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		level, layer uint32
		want         SubresourceLayout
	}{
		{0, 0, SubresourceLayout{Offset: 0, Size: 128, RowPitch: 32, ArrayPitch: 128, DepthPitch: 128}},
		{0, 1, SubresourceLayout{Offset: 128, Size: 128, RowPitch: 32, ArrayPitch: 128, DepthPitch: 128}},
		{1, 0, SubresourceLayout{Offset: 256, Size: 32, RowPitch: 16, ArrayPitch: 32, DepthPitch: 32}},
		{2, 1, SubresourceLayout{Offset: 328, Size: 8, RowPitch: 8, ArrayPitch: 8, DepthPitch: 8}},
	}
	for _, tt := range tests {
		got, err := img.Layout(tt.level, tt.layer)
		if err != nil {
			t.Fatalf("Layout(%d, %d) error = %v", tt.level, tt.layer, err)
		}
		if got != tt.want {
			t.Errorf("Layout(%d, %d) = %+v, want %+v", tt.level, tt.layer, got, tt.want)
		}
	}
	if got := img.Size(); got != 336 {
		t.Errorf("Size() = %d, want 336", got)
	}
	if _, err := img.Layout(3, 0); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("Layout(3, 0) error = %v, want ErrOutOfRange", err)
	}
}

func TestNewImageErrors(t *testing.T) {
	tests := []struct {
		name string
		desc ImageDesc
		want error
	}{
		{"format", ImageDesc{Format: gputypes.TextureFormatDepth24PlusStencil8,
			Extent: gputypes.Extent3D{Width: 1, Height: 1, DepthOrArrayLayers: 1}}, ErrUnsupportedFormat},
		{"extent", ImageDesc{Format: gputypes.TextureFormatR8Unorm}, ErrOutOfRange},
		{"samples", ImageDesc{Format: gputypes.TextureFormatR8Unorm, Samples: 4,
			Extent: gputypes.Extent3D{Width: 1, Height: 1, DepthOrArrayLayers: 1}}, ErrUnsupportedFormat},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewImage(tt.desc); !errors.Is(err, tt.want) {
				t.Errorf("NewImage() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestImageClear(t *testing.T) {
	tests := []struct {
		format gputypes.TextureFormat
		color  ClearColor
		want   []byte
	}{
		{gputypes.TextureFormatRGBA8Unorm, ClearColor{Float32: [4]float32{1, 0, 0.5, 1}}, []byte{255, 0, 128, 255}},
		{gputypes.TextureFormatBGRA8Unorm, ClearColor{Float32: [4]float32{1, 0, 0.5, 1}}, []byte{128, 0, 255, 255}},
		{gputypes.TextureFormatR8Unorm, ClearColor{Float32: [4]float32{2}}, []byte{255}},
		{gputypes.TextureFormatRGBA8UnormSrgb, ClearColor{Float32: [4]float32{0, 1, 0, 0}}, []byte{0, 255, 0, 0}},
		{gputypes.TextureFormatR32Float, ClearColor{Float32: [4]float32{1}}, []byte{0, 0, 0x80, 0x3f}},
	}
	for _, tt := range tests {
		img := newBoundImage(t, ImageDesc{
			Format: tt.format,
			Extent: gputypes.Extent3D{Width: 3, Height: 3, DepthOrArrayLayers: 1},
		})
		if err := img.Clear(tt.color); err != nil {
			t.Fatalf("Clear(%v) error = %v", tt.format, err)
		}
		data, _ := img.Bytes()
		want := bytes.Repeat(tt.want, 9)
		if !bytes.Equal(data[:img.Size()], want) {
			t.Errorf("Clear(%v) bytes = %v, want %v", tt.format, data[:img.Size()], want)
		}
	}
}

func TestImageCopyRoundTrip(t *testing.T) {
	img := newBoundImage(t, ImageDesc{
		Format: gputypes.TextureFormatR8Unorm,
		Extent: gputypes.Extent3D{Width: 4, Height: 4, DepthOrArrayLayers: 1},
		Tiling: TilingLinear,
	})

	src := []byte{1, 2, 0, 3, 4, 0}
	region := Region{
		BufferRowLength: 3,
		LayerCount:      1,
		Origin:          gputypes.Origin3D{X: 1, Y: 2},
		Extent:          gputypes.Extent3D{Width: 2, Height: 2, DepthOrArrayLayers: 1},
	}
	if err := img.CopyFromBuffer(src, region); err != nil {
		t.Fatalf("CopyFromBuffer() error = %v", err)
	}
	data, _ := img.Bytes()
	want := []byte{
		0, 0, 0, 0,
		0, 0, 0, 0,
		0, 1, 2, 0,
		0, 3, 4, 0,
	}
	if !bytes.Equal(data[:16], want) {
		t.Errorf("image = %v, want %v", data[:16], want)
	}

	dst := make([]byte, 4)
	region.BufferRowLength = 0
	if err := img.CopyToBuffer(dst, region); err != nil {
		t.Fatalf("CopyToBuffer() error = %v", err)
	}
	if !bytes.Equal(dst, []byte{1, 2, 3, 4}) {
		t.Errorf("CopyToBuffer() = %v, want [1 2 3 4]", dst)
	}

	region.Origin.X = 3
	if err := img.CopyToBuffer(dst, region); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("out-of-bounds copy error = %v, want ErrOutOfRange", err)
	}
}

func TestNewView(t *testing.T) {
	img, _ := NewImage(ImageDesc{
		Format:      gputypes.TextureFormatRGBA8Unorm,
		Extent:      gputypes.Extent3D{Width: 4, Height: 4, DepthOrArrayLayers: 1},
		MipLevels:   3,
		ArrayLayers: 2,
	})
	v, err := NewView(img, ImageView{BaseMip: 1, BaseLayer: 1})
	if err != nil {
		t.Fatalf("NewView() error = %v", err)
	}
	if v.MipCount != 2 || v.Layers != 1 || v.Format != gputypes.TextureFormatRGBA8Unorm {
		t.Errorf("NewView() = %+v", v)
	}
	if _, err := NewView(img, ImageView{Format: gputypes.TextureFormatR8Unorm}); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("incompatible view error = %v", err)
	}
	if _, err := NewView(img, ImageView{BaseMip: 1, MipCount: 3}); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("oversized view error = %v", err)
	}
}

func TestCheckRegionWraparound(t *testing.T) {
	img := newBoundImage(t, ImageDesc{
		Format:      gputypes.TextureFormatR8Unorm,
		Extent:      gputypes.Extent3D{Width: 4, Height: 4, DepthOrArrayLayers: 1},
		ArrayLayers: 2,
		Tiling:      TilingLinear,
	})
	full := Region{LayerCount: 1, Extent: gputypes.Extent3D{Width: 4, Height: 4, DepthOrArrayLayers: 1}}
	const wrap = 0xFFFFFFFF

	tests := []struct {
		name string
		edit func(r *Region)
	}{
		{"layers", func(r *Region) { r.BaseArrayLayer, r.LayerCount = wrap, 2 }},
		{"x", func(r *Region) { r.Origin.X, r.Extent.Width = wrap, 2 }},
		{"y", func(r *Region) { r.Origin.Y, r.Extent.Height = wrap, 2 }},
		{"z", func(r *Region) { r.Origin.Z, r.Extent.DepthOrArrayLayers = wrap, 2 }},
		{"buffer offset", func(r *Region) { r.BufferOffset = 1<<64 - 8 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := full
			tt.edit(&r)
			src := bytes.Repeat([]byte{0xab}, 64)
			if err := img.CopyFromBuffer(src, r); !errors.Is(err, ErrOutOfRange) {
				t.Errorf("CopyFromBuffer() error = %v, want ErrOutOfRange", err)
			}
			data, _ := img.Bytes()
			if bytes.IndexByte(data, 0xab) >= 0 {
				t.Error("rejected copy wrote into the image")
			}
		})
	}

	if _, err := NewView(img, ImageView{BaseLayer: 1, Layers: wrap}); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("NewView(wrapped layers) error = %v, want ErrOutOfRange", err)
	}
}
