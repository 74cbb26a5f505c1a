package softvk

import (
	"fmt"

	"github.com/gogpu/softvk/command"
)

// CreateCommandPool creates a command pool for a queue family.
func CreateCommandPool(dev Device, info *CommandPoolCreateInfo, allocator *AllocationCallbacks, out *CommandPool) Result {
	noAllocator(allocator)
	d := lookupDevice(dev)
	return guard(func() error {
		families := d.inner.Physical().Capabilities().QueueFamilies()
		if int(info.QueueFamilyIndex) >= len(families) {
			return fmt.Errorf("%w: queue family %d", ErrorInitializationFailed, info.QueueFamilyIndex)
		}
		*out = register[CommandPool](commandPools, command.NewPool(info.QueueFamilyIndex))
		return nil
	})
}

// DestroyCommandPool destroys a pool and every command buffer allocated
// from it.
func DestroyCommandPool(dev Device, pool CommandPool, allocator *AllocationCallbacks) {
	noAllocator(allocator)
	lookupDevice(dev)
	p, ok := unregister(commandPools, pool)
	if !ok {
		return
	}
	for _, b := range p.Destroy() {
		unregister(commandBuffers, CommandBuffer(b.Handle))
	}
}

// ResetCommandPool returns every command buffer of the pool to the initial
// state.
func ResetCommandPool(dev Device, pool CommandPool, flags uint32) Result {
	lookupDevice(dev)
	lookup(commandPools, pool).Reset()
	return Success
}

// AllocateCommandBuffers allocates info.CommandBufferCount command buffers
// into out, which must be at least that long.
func AllocateCommandBuffers(dev Device, info *CommandBufferAllocateInfo, out []CommandBuffer) Result {
	lookupDevice(dev)
	p := lookup(commandPools, info.CommandPool)
	n := int(info.CommandBufferCount)
	if len(out) < n {
		panic("softvk: AllocateCommandBuffers output shorter than CommandBufferCount")
	}
	return guard(func() error {
		for i, b := range p.Allocate(info.Level, n) {
			h := commandBuffers.Insert(b)
			b.Handle = h
			out[i] = CommandBuffer(h)
		}
		return nil
	})
}

// FreeCommandBuffers frees command buffers of a pool. Null handles are
// skipped.
func FreeCommandBuffers(dev Device, pool CommandPool, cbs []CommandBuffer) {
	lookupDevice(dev)
	p := lookup(commandPools, pool)
	for _, h := range cbs {
		if b, ok := unregister(commandBuffers, h); ok {
			p.Free(b)
		}
	}
}

// BeginCommandBuffer starts recording, discarding earlier contents.
func BeginCommandBuffer(cb CommandBuffer, info *CommandBufferBeginInfo) Result {
	lookup(commandBuffers, cb).Begin()
	return Success
}

// EndCommandBuffer stops recording and reports the first error any
// recorded command produced.
func EndCommandBuffer(cb CommandBuffer) Result {
	return guard(lookup(commandBuffers, cb).End)
}

// ResetCommandBuffer returns a command buffer to the initial state.
func ResetCommandBuffer(cb CommandBuffer, flags uint32) Result {
	lookup(commandBuffers, cb).Reset()
	return Success
}

func recording(cb CommandBuffer) *command.Buffer {
	return lookup(commandBuffers, cb)
}

// CmdCopyBuffer records a copy between buffers.
func CmdCopyBuffer(cb CommandBuffer, src, dst Buffer, regions []BufferCopy) {
	recording(cb).Record(command.CopyBuffer(lookup(buffers, src), lookup(buffers, dst), regions))
}

// CmdFillBuffer records filling a buffer range with a 32-bit value.
func CmdFillBuffer(cb CommandBuffer, dst Buffer, offset, size uint64, data uint32) {
	recording(cb).Record(command.FillBuffer(lookup(buffers, dst), offset, size, data))
}

// CmdUpdateBuffer records writing data into a buffer. data is copied.
func CmdUpdateBuffer(cb CommandBuffer, dst Buffer, offset uint64, data []byte) {
	recording(cb).Record(command.UpdateBuffer(lookup(buffers, dst), offset, data))
}

// CmdClearColorImage records clearing an image. The whole image is
// cleared; ranges are accepted for signature compatibility.
func CmdClearColorImage(cb CommandBuffer, image Image, layout ImageLayout, color *ClearColorValue, ranges []ImageSubresourceRange) {
	recording(cb).Record(command.ClearColorImage(lookup(images, image), *color))
}

// CmdCopyBufferToImage records copying buffer data into an image.
func CmdCopyBufferToImage(cb CommandBuffer, src Buffer, dst Image, layout ImageLayout, regions []BufferImageCopy) {
	recording(cb).Record(command.CopyBufferToImage(lookup(buffers, src), lookup(images, dst), regions))
}

// CmdCopyImageToBuffer records copying image texels into a buffer.
func CmdCopyImageToBuffer(cb CommandBuffer, src Image, layout ImageLayout, dst Buffer, regions []BufferImageCopy) {
	recording(cb).Record(command.CopyImageToBuffer(lookup(images, src), lookup(buffers, dst), regions))
}

// CmdPipelineBarrier records a memory-ordering barrier.
func CmdPipelineBarrier(cb CommandBuffer, srcStage, dstStage PipelineStageFlags, dependencyFlags uint32) {
	recording(cb).Record(command.PipelineBarrier())
}

// CmdBindPipeline is not implemented. EndCommandBuffer reports
// ErrorFeatureNotPresent.
func CmdBindPipeline(cb CommandBuffer, bindPoint PipelineBindPoint, p Pipeline) {
	recording(cb).Record(command.Unsupported("vkCmdBindPipeline"))
}

// CmdDraw is not implemented. EndCommandBuffer reports
// ErrorFeatureNotPresent.
func CmdDraw(cb CommandBuffer, vertexCount, instanceCount, firstVertex, firstInstance uint32) {
	recording(cb).Record(command.Unsupported("vkCmdDraw"))
}

// CmdDrawIndexed is not implemented.
func CmdDrawIndexed(cb CommandBuffer, indexCount, instanceCount, firstIndex uint32, vertexOffset int32, firstInstance uint32) {
	recording(cb).Record(command.Unsupported("vkCmdDrawIndexed"))
}

// CmdDispatch is not implemented.
func CmdDispatch(cb CommandBuffer, x, y, z uint32) {
	recording(cb).Record(command.Unsupported("vkCmdDispatch"))
}

// CmdCopyImage is not implemented.
func CmdCopyImage(cb CommandBuffer, src Image, srcLayout ImageLayout, dst Image, dstLayout ImageLayout) {
	recording(cb).Record(command.Unsupported("vkCmdCopyImage"))
}
