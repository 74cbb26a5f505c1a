package resource

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gogpu/gputypes"
)

// ErrUnsupportedFormat is returned for formats with no host representation.
var ErrUnsupportedFormat = errors.New("resource: unsupported image format")

// ImageAlignment is the required alignment of image memory bindings.
const ImageAlignment = 16

// Tiling selects how texels are arranged in memory. Both tilings are stored
// row-major; only Linear exposes its layout to the host.
type Tiling uint8

const (
	TilingOptimal Tiling = iota
	TilingLinear
)

// ImageDesc describes an image.
type ImageDesc struct {
	Dimension   gputypes.TextureDimension
	Format      gputypes.TextureFormat
	Extent      gputypes.Extent3D
	MipLevels   uint32
	ArrayLayers uint32
	Samples     uint32
	Tiling      Tiling
	Usage       gputypes.TextureUsage
}

// SubresourceLayout locates one mip level of one array layer.
type SubresourceLayout struct {
	Offset     uint64
	Size       uint64
	RowPitch   uint64
	ArrayPitch uint64
	DepthPitch uint64
}

// Image is a multi-dimensional texel array backed by device memory.
type Image struct {
	desc  ImageDesc
	texel uint64
	mips  []SubresourceLayout // layer 0 of each level
	size  uint64

	mu      sync.Mutex
	binding Binding
}

// NewImage computes the image layout. The image is unbound.
func NewImage(desc ImageDesc) (*Image, error) {
	texel := uint64(TexelSize(desc.Format))
	if texel == 0 {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, desc.Format)
	}
	if desc.Extent.Width == 0 || desc.Extent.Height == 0 || desc.Extent.DepthOrArrayLayers == 0 {
		return nil, fmt.Errorf("%w: empty extent %dx%dx%d", ErrOutOfRange,
			desc.Extent.Width, desc.Extent.Height, desc.Extent.DepthOrArrayLayers)
	}
	desc.MipLevels = max(desc.MipLevels, 1)
	desc.ArrayLayers = max(desc.ArrayLayers, 1)
	desc.Samples = max(desc.Samples, 1)
	if desc.Samples != 1 {
		return nil, fmt.Errorf("%w: %d samples", ErrUnsupportedFormat, desc.Samples)
	}

	img := &Image{desc: desc, texel: texel, mips: make([]SubresourceLayout, desc.MipLevels)}
	var offset uint64
	for level := range desc.MipLevels {
		w, h, d := img.levelExtent(level)
		row := uint64(w) * texel
		depth := row * uint64(h)
		array := depth * uint64(d)
		img.mips[level] = SubresourceLayout{
			Offset:     offset,
			Size:       array,
			RowPitch:   row,
			ArrayPitch: array,
			DepthPitch: depth,
		}
		offset += array * uint64(desc.ArrayLayers)
	}
	img.size = offset
	checkHostSize(img.size, "image")
	return img, nil
}

func (img *Image) levelExtent(level uint32) (w, h, d uint32) {
	e := img.desc.Extent
	d = 1
	if img.desc.Dimension == gputypes.TextureDimension3D {
		d = max(e.DepthOrArrayLayers>>level, 1)
	}
	return max(e.Width>>level, 1), max(e.Height>>level, 1), d
}

// Desc returns the creation parameters after defaults were applied.
func (img *Image) Desc() ImageDesc { return img.desc }

// Size returns the number of bytes the image occupies.
func (img *Image) Size() uint64 { return img.size }

// Requirements returns the memory requirements of the image.
func (img *Image) Requirements() Requirements {
	return Requirements{
		Size:           alignUp(img.size, ImageAlignment),
		Alignment:      ImageAlignment,
		MemoryTypeBits: 1,
	}
}

// Layout returns the layout of one subresource.
func (img *Image) Layout(level, layer uint32) (SubresourceLayout, error) {
	if level >= img.desc.MipLevels || layer >= img.desc.ArrayLayers {
		return SubresourceLayout{}, fmt.Errorf("%w: subresource level %d layer %d",
			ErrOutOfRange, level, layer)
	}
	l := img.mips[level]
	l.Offset += uint64(layer) * l.ArrayPitch
	return l, nil
}

// Bind attaches the image to mem at offset.
func (img *Image) Bind(mem *Memory, offset uint64) error {
	img.mu.Lock()
	defer img.mu.Unlock()
	if img.binding.Bound() {
		return ErrAlreadyBound
	}
	if offset%ImageAlignment != 0 {
		return fmt.Errorf("%w: offset %d not aligned to %d", ErrOutOfRange, offset, ImageAlignment)
	}
	binding, err := Bind(mem, offset, img.size)
	if err != nil {
		return err
	}
	img.binding = binding
	return nil
}

// Bytes returns the memory backing the image.
func (img *Image) Bytes() ([]byte, error) {
	img.mu.Lock()
	binding := img.binding
	img.mu.Unlock()
	return binding.Bytes()
}

// Release drops the image's memory reference.
func (img *Image) Release() {
	img.mu.Lock()
	img.binding.Release()
	img.mu.Unlock()
}

// Clear fills every subresource with c.
func (img *Image) Clear(c ClearColor) error {
	data, err := img.Bytes()
	if err != nil {
		return err
	}
	texel := encodeTexel(img.desc.Format, c)
	if len(texel) == 0 {
		return fmt.Errorf("%w: %v", ErrUnsupportedFormat, img.desc.Format)
	}
	fill(data, texel)
	return nil
}

// fill repeats pattern across dst, doubling the copied prefix each step.
func fill(dst, pattern []byte) {
	if len(dst) == 0 {
		return
	}
	n := copy(dst, pattern)
	for n < len(dst) {
		n += copy(dst[n:], dst[:n])
	}
}

// Region selects a box of one mip level and a run of array layers, and the
// matching range of a tightly or explicitly pitched buffer.
type Region struct {
	BufferOffset      uint64
	BufferRowLength   uint32 // texels; 0 means tightly packed
	BufferImageHeight uint32 // rows; 0 means tightly packed
	MipLevel          uint32
	BaseArrayLayer    uint32
	LayerCount        uint32
	Origin            gputypes.Origin3D
	Extent            gputypes.Extent3D
}

// CopyFromBuffer writes the region of src into the image.
func (img *Image) CopyFromBuffer(src []byte, r Region) error {
	return img.copyRegion(src, r, true)
}

// CopyToBuffer reads the region of the image into dst.
func (img *Image) CopyToBuffer(dst []byte, r Region) error {
	return img.copyRegion(dst, r, false)
}

func (img *Image) copyRegion(buf []byte, r Region, toImage bool) error {
	data, err := img.Bytes()
	if err != nil {
		return err
	}
	if err := img.CheckRegion(r); err != nil {
		return err
	}

	bufRow, bufSlice, bufLayer := img.bufferPitches(r)
	span := uint64(r.Extent.Width) * img.texel
	if n, need := uint64(len(buf)), img.BufferSpan(r); r.BufferOffset > n || need > n-r.BufferOffset {
		return fmt.Errorf("%w: copy needs %d buffer bytes at offset %d, have %d",
			ErrOutOfRange, need, r.BufferOffset, len(buf))
	}

	for layer := range r.LayerCount {
		l, err := img.Layout(r.MipLevel, r.BaseArrayLayer+layer)
		if err != nil {
			return err
		}
		for z := range r.Extent.DepthOrArrayLayers {
			for y := range r.Extent.Height {
				io := l.Offset + uint64(r.Origin.Z+z)*l.DepthPitch +
					uint64(r.Origin.Y+y)*l.RowPitch + uint64(r.Origin.X)*img.texel
				bo := r.BufferOffset + uint64(layer)*bufLayer + uint64(z)*bufSlice + uint64(y)*bufRow
				if toImage {
					copy(data[io:io+span], buf[bo:bo+span])
				} else {
					copy(buf[bo:bo+span], data[io:io+span])
				}
			}
		}
	}
	return nil
}

func (img *Image) bufferPitches(r Region) (row, slice, layer uint64) {
	row = uint64(max(r.BufferRowLength, r.Extent.Width)) * img.texel
	slice = row * uint64(max(r.BufferImageHeight, r.Extent.Height))
	layer = slice * uint64(r.Extent.DepthOrArrayLayers)
	return row, slice, layer
}

// BufferSpan returns the number of buffer bytes past BufferOffset that a
// copy of r touches. r must already satisfy CheckRegion.
func (img *Image) BufferSpan(r Region) uint64 {
	row, slice, layer := img.bufferPitches(r)
	return layer*uint64(r.LayerCount-1) +
		slice*uint64(r.Extent.DepthOrArrayLayers-1) +
		row*uint64(r.Extent.Height-1) +
		uint64(r.Extent.Width)*img.texel
}

// CheckRegion reports whether r lies inside the image.
func (img *Image) CheckRegion(r Region) error {
	if r.MipLevel >= img.desc.MipLevels || r.LayerCount == 0 ||
		outside(r.BaseArrayLayer, r.LayerCount, img.desc.ArrayLayers) {
		return fmt.Errorf("%w: subresource level %d layers [%d, +%d)",
			ErrOutOfRange, r.MipLevel, r.BaseArrayLayer, r.LayerCount)
	}
	if r.Extent.Width == 0 || r.Extent.Height == 0 || r.Extent.DepthOrArrayLayers == 0 {
		return fmt.Errorf("%w: empty copy extent", ErrOutOfRange)
	}
	w, h, d := img.levelExtent(r.MipLevel)
	if outside(r.Origin.X, r.Extent.Width, w) || outside(r.Origin.Y, r.Extent.Height, h) ||
		outside(r.Origin.Z, r.Extent.DepthOrArrayLayers, d) {
		return fmt.Errorf("%w: box (%d,%d,%d)+(%dx%dx%d) outside %dx%dx%d", ErrOutOfRange,
			r.Origin.X, r.Origin.Y, r.Origin.Z,
			r.Extent.Width, r.Extent.Height, r.Extent.DepthOrArrayLayers, w, h, d)
	}
	return nil
}

// outside reports whether [base, base+count) leaves [0, n).
func outside(base, count, n uint32) bool {
	return base > n || count > n-base
}

// ImageView is a view of a subresource range of an image.
type ImageView struct {
	Image     *Image
	Format    gputypes.TextureFormat
	Dimension gputypes.TextureViewDimension
	BaseMip   uint32
	MipCount  uint32
	BaseLayer uint32
	Layers    uint32
}

// NewView creates a view of img. Zero counts select the remaining levels or
// layers.
func NewView(img *Image, v ImageView) (*ImageView, error) {
	d := img.desc
	if v.Format == gputypes.TextureFormatUndefined {
		v.Format = d.Format
	}
	if TexelSize(v.Format) != uint32(img.texel) {
		return nil, fmt.Errorf("%w: view format %v incompatible with %v",
			ErrUnsupportedFormat, v.Format, d.Format)
	}
	if v.BaseMip >= d.MipLevels || v.BaseLayer >= d.ArrayLayers {
		return nil, fmt.Errorf("%w: view base level %d layer %d", ErrOutOfRange, v.BaseMip, v.BaseLayer)
	}
	if v.MipCount == 0 {
		v.MipCount = d.MipLevels - v.BaseMip
	}
	if v.Layers == 0 {
		v.Layers = d.ArrayLayers - v.BaseLayer
	}
	if outside(v.BaseMip, v.MipCount, d.MipLevels) || outside(v.BaseLayer, v.Layers, d.ArrayLayers) {
		return nil, fmt.Errorf("%w: view range exceeds image", ErrOutOfRange)
	}
	v.Image = img
	return &v, nil
}
