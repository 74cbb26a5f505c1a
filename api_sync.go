package softvk

import (
	"github.com/gogpu/softvk/syncobj"
)

// CreateFence creates a fence, signaled when info.Flags has
// FenceCreateSignaled.
func CreateFence(dev Device, info *FenceCreateInfo, allocator *AllocationCallbacks, out *Fence) Result {
	noAllocator(allocator)
	d := lookupDevice(dev)
	return guard(func() error {
		*out = register[Fence](fences, d.inner.NewFence(info.Flags&FenceCreateSignaled != 0))
		return nil
	})
}

// DestroyFence destroys a fence. The fence must not be pending.
func DestroyFence(dev Device, fence Fence, allocator *AllocationCallbacks) {
	noAllocator(allocator)
	lookupDevice(dev)
	unregister(fences, fence)
}

// ResetFences sets every fence to unsignaled.
func ResetFences(dev Device, fs []Fence) Result {
	lookupDevice(dev)
	for _, f := range lookupAll(fences, fs) {
		f.Reset()
	}
	return Success
}

// GetFenceStatus polls a fence: Success when signaled, NotReady when not,
// ErrorDeviceLost once the device is lost.
func GetFenceStatus(dev Device, fence Fence) Result {
	lookupDevice(dev)
	f := lookup(fences, fence)
	return guard(f.Status)
}

// WaitForFences waits up to timeout nanoseconds for all (waitAll) or any
// of the fences. A zero timeout polls. Expiry returns Timeout and changes
// no state.
func WaitForFences(dev Device, fs []Fence, waitAll bool, timeout uint64) Result {
	lookupDevice(dev)
	list := lookupAll(fences, fs)
	return guard(func() error {
		return syncobj.WaitMultiple(list, waitAll, timeout)
	})
}

// CreateSemaphore creates an unsignaled binary semaphore.
func CreateSemaphore(dev Device, info *SemaphoreCreateInfo, allocator *AllocationCallbacks, out *Semaphore) Result {
	noAllocator(allocator)
	d := lookupDevice(dev)
	return guard(func() error {
		*out = register[Semaphore](semaphores, d.inner.NewSemaphore())
		return nil
	})
}

// DestroySemaphore destroys a semaphore.
func DestroySemaphore(dev Device, sem Semaphore, allocator *AllocationCallbacks) {
	noAllocator(allocator)
	lookupDevice(dev)
	unregister(semaphores, sem)
}
