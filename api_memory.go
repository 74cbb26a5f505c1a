package softvk

import (
	"fmt"

	"github.com/gogpu/softvk/resource"
)

// AllocateMemory allocates device memory from the heap of the memory type.
func AllocateMemory(dev Device, info *MemoryAllocateInfo, allocator *AllocationCallbacks, out *DeviceMemory) Result {
	noAllocator(allocator)
	d := lookupDevice(dev)
	return guard(func() error {
		mem, err := d.inner.AllocateMemory(info.AllocationSize, info.MemoryTypeIndex)
		if err != nil {
			return err
		}
		*out = register[DeviceMemory](memories, mem)
		slogger().Debug("softvk: memory allocated", "size", info.AllocationSize, "handle", *out)
		return nil
	})
}

// FreeMemory drops the handle's reference to the allocation. Buffers and
// images still bound to it keep the storage alive.
func FreeMemory(dev Device, memory DeviceMemory, allocator *AllocationCallbacks) {
	noAllocator(allocator)
	lookupDevice(dev)
	if mem, ok := unregister(memories, memory); ok {
		mem.Unmap()
		mem.Release()
	}
}

// MapMemory maps size bytes of memory at offset. WholeSize maps the rest.
func MapMemory(dev Device, memory DeviceMemory, offset, size uint64, flags uint32, data *[]byte) Result {
	lookupDevice(dev)
	mem := lookup(memories, memory)
	return guard(func() error {
		b, err := mem.Map(offset, size)
		if err != nil {
			return err
		}
		*data = b
		return nil
	})
}

// UnmapMemory unmaps memory.
func UnmapMemory(dev Device, memory DeviceMemory) {
	lookupDevice(dev)
	lookup(memories, memory).Unmap()
}

func checkMappedRanges(ranges []MappedMemoryRange) error {
	for _, r := range ranges {
		mem := lookup(memories, r.Memory)
		if !mem.Mapped() {
			return fmt.Errorf("%w: range of unmapped memory", ErrorMemoryMapFailed)
		}
		if _, err := mem.Slice(r.Offset, r.Size); err != nil {
			return ErrorMemoryMapFailed
		}
	}
	return nil
}

// FlushMappedMemoryRanges makes host writes visible to the device. All
// memory is coherent, so this only checks the ranges.
func FlushMappedMemoryRanges(dev Device, ranges []MappedMemoryRange) Result {
	lookupDevice(dev)
	return guard(func() error { return checkMappedRanges(ranges) })
}

// InvalidateMappedMemoryRanges makes device writes visible to the host.
// All memory is coherent, so this only checks the ranges.
func InvalidateMappedMemoryRanges(dev Device, ranges []MappedMemoryRange) Result {
	lookupDevice(dev)
	return guard(func() error { return checkMappedRanges(ranges) })
}

// GetDeviceMemoryCommitment reports the committed size of memory, which is
// always the full allocation.
func GetDeviceMemoryCommitment(dev Device, memory DeviceMemory, committed *uint64) {
	lookupDevice(dev)
	*committed = lookup(memories, memory).Size()
}

// CreateBuffer creates an unbound buffer.
func CreateBuffer(dev Device, info *BufferCreateInfo, allocator *AllocationCallbacks, out *Buffer) Result {
	noAllocator(allocator)
	lookupDevice(dev)
	return guard(func() error {
		b, err := resource.NewBuffer(resource.BufferDesc{Size: info.Size, Usage: info.Usage})
		if err != nil {
			return err
		}
		*out = register[Buffer](buffers, b)
		return nil
	})
}

// DestroyBuffer destroys a buffer and releases its memory reference.
func DestroyBuffer(dev Device, buffer Buffer, allocator *AllocationCallbacks) {
	noAllocator(allocator)
	lookupDevice(dev)
	if b, ok := unregister(buffers, buffer); ok {
		b.Release()
	}
}

// GetBufferMemoryRequirements reports the memory a buffer needs.
func GetBufferMemoryRequirements(dev Device, buffer Buffer, req *MemoryRequirements) {
	lookupDevice(dev)
	*req = lookup(buffers, buffer).Requirements()
}

// BindBufferMemory binds a buffer to memory at offset. Several buffers may
// alias the same range.
func BindBufferMemory(dev Device, buffer Buffer, memory DeviceMemory, offset uint64) Result {
	lookupDevice(dev)
	b, mem := lookup(buffers, buffer), lookup(memories, memory)
	return guard(func() error { return b.Bind(mem, offset) })
}

// CreateImage creates an unbound image with linear storage.
func CreateImage(dev Device, info *ImageCreateInfo, allocator *AllocationCallbacks, out *Image) Result {
	noAllocator(allocator)
	lookupDevice(dev)
	return guard(func() error {
		img, err := resource.NewImage(resource.ImageDesc{
			Dimension:   info.ImageType,
			Format:      info.Format,
			Extent:      info.Extent,
			MipLevels:   info.MipLevels,
			ArrayLayers: info.ArrayLayers,
			Samples:     info.Samples,
			Tiling:      info.Tiling,
			Usage:       info.Usage,
		})
		if err != nil {
			return err
		}
		*out = register[Image](images, img)
		return nil
	})
}

// DestroyImage destroys an image and releases its memory reference.
// Swapchain images are owned by their swapchain and must not be passed here.
func DestroyImage(dev Device, image Image, allocator *AllocationCallbacks) {
	noAllocator(allocator)
	lookupDevice(dev)
	if img, ok := unregister(images, image); ok {
		img.Release()
	}
}

// GetImageMemoryRequirements reports the memory an image needs.
func GetImageMemoryRequirements(dev Device, image Image, req *MemoryRequirements) {
	lookupDevice(dev)
	*req = lookup(images, image).Requirements()
}

// BindImageMemory binds an image to memory at offset.
func BindImageMemory(dev Device, image Image, memory DeviceMemory, offset uint64) Result {
	lookupDevice(dev)
	img, mem := lookup(images, image), lookup(memories, memory)
	return guard(func() error { return img.Bind(mem, offset) })
}

// GetImageSubresourceLayout reports where a subresource lives in memory.
// An out-of-range subresource panics.
func GetImageSubresourceLayout(dev Device, image Image, sub *ImageSubresource, layout *SubresourceLayout) {
	lookupDevice(dev)
	l, err := lookup(images, image).Layout(sub.MipLevel, sub.ArrayLayer)
	if err != nil {
		panic(fmt.Sprintf("softvk: GetImageSubresourceLayout: %v", err))
	}
	*layout = l
}

// CreateImageView creates a view of an image.
func CreateImageView(dev Device, info *ImageViewCreateInfo, allocator *AllocationCallbacks, out *ImageView) Result {
	noAllocator(allocator)
	lookupDevice(dev)
	img := lookup(images, info.Image)
	return guard(func() error {
		r := info.SubresourceRange
		v, err := resource.NewView(img, resource.ImageView{
			Format:    info.Format,
			Dimension: info.ViewType,
			BaseMip:   r.BaseMipLevel,
			MipCount:  r.LevelCount,
			BaseLayer: r.BaseArrayLayer,
			Layers:    r.LayerCount,
		})
		if err != nil {
			return err
		}
		*out = register[ImageView](imageViews, v)
		return nil
	})
}

// DestroyImageView destroys an image view.
func DestroyImageView(dev Device, view ImageView, allocator *AllocationCallbacks) {
	noAllocator(allocator)
	lookupDevice(dev)
	unregister(imageViews, view)
}
