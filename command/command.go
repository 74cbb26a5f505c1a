// Package command records device commands into replayable lists.
//
// A Buffer moves through the Initial, Recording and Executable states.
// Each recording call validates its operands up front and either appends a
// Command or remembers the first failure; recording continues either way and
// End reports the failure. Replaying an executable buffer runs its commands
// in order against a RunningState owned by the queue.
package command

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/gogpu/softvk/resource"
)

// Recording and replay errors.
var (
	// ErrUnsupported is recorded for commands the runtime does not implement.
	ErrUnsupported = errors.New("command: not supported")

	// ErrInvalidOperand is recorded when a command's operands fail validation.
	ErrInvalidOperand = errors.New("command: invalid operand")

	// ErrNotExecutable is returned when replaying a buffer that is not
	// executable or whose recording failed.
	ErrNotExecutable = errors.New("command: buffer not executable")
)

// Kind identifies a command.
type Kind uint8

const (
	KindNone Kind = iota
	KindCopyBuffer
	KindFillBuffer
	KindUpdateBuffer
	KindClearColorImage
	KindCopyBufferToImage
	KindCopyImageToBuffer
	KindPipelineBarrier
)

var kindNames = [...]string{
	KindNone:              "None",
	KindCopyBuffer:        "CopyBuffer",
	KindFillBuffer:        "FillBuffer",
	KindUpdateBuffer:      "UpdateBuffer",
	KindClearColorImage:   "ClearColorImage",
	KindCopyBufferToImage: "CopyBufferToImage",
	KindCopyImageToBuffer: "CopyImageToBuffer",
	KindPipelineBarrier:   "PipelineBarrier",
}

// String returns the command name.
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "Unknown"
}

// BufferCopy is one region of a buffer-to-buffer copy.
type BufferCopy struct {
	SrcOffset uint64
	DstOffset uint64
	Size      uint64
}

// Command is one recorded operation. Only the fields used by Kind are set.
// The zero Command records nothing.
type Command struct {
	Kind Kind

	Src   *resource.Buffer
	Dst   *resource.Buffer
	Image *resource.Image

	Copies  []BufferCopy
	Regions []resource.Region

	Offset uint64
	Size   uint64
	Value  uint32
	Data   []byte
	Color  resource.ClearColor
}

// RunningState is the per-queue context commands execute against.
type RunningState struct {
	executed atomic.Uint64
	barriers atomic.Uint64
}

// Executed returns the number of commands run so far.
func (s *RunningState) Executed() uint64 { return s.executed.Load() }

// Barriers returns the number of pipeline barriers run so far.
func (s *RunningState) Barriers() uint64 { return s.barriers.Load() }

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidOperand, fmt.Sprintf(format, args...))
}

func checkRange(b *resource.Buffer, offset, size uint64, what string) error {
	if b == nil {
		return invalid("%s buffer is nil", what)
	}
	if offset > b.Size() || size > b.Size()-offset {
		return invalid("%s range [%d, +%d) outside %d-byte buffer", what, offset, size, b.Size())
	}
	return nil
}

// CopyBuffer copies regions from src to dst.
func CopyBuffer(src, dst *resource.Buffer, regions []BufferCopy) (Command, error) {
	if len(regions) == 0 {
		return Command{}, invalid("CopyBuffer without regions")
	}
	for _, r := range regions {
		if err := checkRange(src, r.SrcOffset, r.Size, "source"); err != nil {
			return Command{}, err
		}
		if err := checkRange(dst, r.DstOffset, r.Size, "destination"); err != nil {
			return Command{}, err
		}
	}
	return Command{
		Kind:   KindCopyBuffer,
		Src:    src,
		Dst:    dst,
		Copies: append([]BufferCopy(nil), regions...),
	}, nil
}

// FillBuffer repeats the 32-bit value over size bytes of dst at offset.
// resource.WholeSize fills to the end of the buffer, rounded down to a
// multiple of four.
func FillBuffer(dst *resource.Buffer, offset, size uint64, value uint32) (Command, error) {
	if dst != nil && size == resource.WholeSize && offset <= dst.Size() {
		size = (dst.Size() - offset) &^ 3
	}
	if offset%4 != 0 || size%4 != 0 || size == 0 {
		return Command{}, invalid("FillBuffer offset %d size %d not multiples of 4", offset, size)
	}
	if err := checkRange(dst, offset, size, "destination"); err != nil {
		return Command{}, err
	}
	return Command{Kind: KindFillBuffer, Dst: dst, Offset: offset, Size: size, Value: value}, nil
}

// MaxUpdateSize bounds the inline data of UpdateBuffer.
const MaxUpdateSize = 65536

// UpdateBuffer writes a copy of data into dst at offset.
func UpdateBuffer(dst *resource.Buffer, offset uint64, data []byte) (Command, error) {
	size := uint64(len(data))
	if offset%4 != 0 || size%4 != 0 || size == 0 || size > MaxUpdateSize {
		return Command{}, invalid("UpdateBuffer offset %d size %d", offset, size)
	}
	if err := checkRange(dst, offset, size, "destination"); err != nil {
		return Command{}, err
	}
	return Command{
		Kind:   KindUpdateBuffer,
		Dst:    dst,
		Offset: offset,
		Size:   size,
		Data:   resource.Clone(data, "UpdateBuffer data"),
	}, nil
}

// ClearColorImage fills every subresource of img with color.
func ClearColorImage(img *resource.Image, color resource.ClearColor) (Command, error) {
	if img == nil {
		return Command{}, invalid("ClearColorImage image is nil")
	}
	return Command{Kind: KindClearColorImage, Image: img, Color: color}, nil
}

func checkImageRegions(buf *resource.Buffer, img *resource.Image, regions []resource.Region) error {
	if buf == nil || img == nil {
		return invalid("image copy with nil operand")
	}
	if len(regions) == 0 {
		return invalid("image copy without regions")
	}
	for _, r := range regions {
		if err := img.CheckRegion(r); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidOperand, err)
		}
		if err := checkRange(buf, r.BufferOffset, img.BufferSpan(r), "buffer"); err != nil {
			return err
		}
	}
	return nil
}

// CopyBufferToImage copies regions of src into img.
func CopyBufferToImage(src *resource.Buffer, img *resource.Image, regions []resource.Region) (Command, error) {
	if err := checkImageRegions(src, img, regions); err != nil {
		return Command{}, err
	}
	return Command{
		Kind:    KindCopyBufferToImage,
		Src:     src,
		Image:   img,
		Regions: append([]resource.Region(nil), regions...),
	}, nil
}

// CopyImageToBuffer copies regions of img into dst.
func CopyImageToBuffer(img *resource.Image, dst *resource.Buffer, regions []resource.Region) (Command, error) {
	if err := checkImageRegions(dst, img, regions); err != nil {
		return Command{}, err
	}
	return Command{
		Kind:    KindCopyImageToBuffer,
		Dst:     dst,
		Image:   img,
		Regions: append([]resource.Region(nil), regions...),
	}, nil
}

// PipelineBarrier orders memory accesses of earlier commands before later
// ones.
func PipelineBarrier() (Command, error) {
	return Command{Kind: KindPipelineBarrier}, nil
}

// Unsupported returns the failure recorded for an unimplemented command.
func Unsupported(name string) (Command, error) {
	return Command{}, fmt.Errorf("%w: %s", ErrUnsupported, name)
}

// Run executes the command.
func (c *Command) Run(s *RunningState) error {
	var err error
	switch c.Kind {
	case KindCopyBuffer:
		err = c.runCopyBuffer()
	case KindFillBuffer:
		var dst []byte
		if dst, err = c.Dst.Range(c.Offset, c.Size); err == nil {
			var pattern [4]byte
			binary.LittleEndian.PutUint32(pattern[:], c.Value)
			for i := 0; i < len(dst); i += 4 {
				copy(dst[i:], pattern[:])
			}
		}
	case KindUpdateBuffer:
		var dst []byte
		if dst, err = c.Dst.Range(c.Offset, c.Size); err == nil {
			copy(dst, c.Data)
		}
	case KindClearColorImage:
		err = c.Image.Clear(c.Color)
	case KindCopyBufferToImage:
		var src []byte
		if src, err = c.Src.Bytes(); err == nil {
			for _, r := range c.Regions {
				if err = c.Image.CopyFromBuffer(src, r); err != nil {
					break
				}
			}
		}
	case KindCopyImageToBuffer:
		var dst []byte
		if dst, err = c.Dst.Bytes(); err == nil {
			for _, r := range c.Regions {
				if err = c.Image.CopyToBuffer(dst, r); err != nil {
					break
				}
			}
		}
	case KindPipelineBarrier:
		// The atomic add is a sequentially consistent fence between the
		// memory effects of the commands on either side.
		s.barriers.Add(1)
	case KindNone:
		return nil
	default:
		return fmt.Errorf("command: unknown kind %d", c.Kind)
	}
	if err != nil {
		return fmt.Errorf("%v: %w", c.Kind, err)
	}
	s.executed.Add(1)
	return nil
}

func (c *Command) runCopyBuffer() error {
	src, err := c.Src.Bytes()
	if err != nil {
		return err
	}
	dst, err := c.Dst.Bytes()
	if err != nil {
		return err
	}
	for _, r := range c.Copies {
		// copy handles overlap when src and dst alias the same memory.
		copy(dst[r.DstOffset:r.DstOffset+r.Size], src[r.SrcOffset:r.SrcOffset+r.Size])
	}
	return nil
}
