package softvk

import (
	"github.com/gogpu/softvk/device"
	"github.com/gogpu/softvk/extension"
	"github.com/gogpu/softvk/queue"
)

// CreateDevice creates a logical device on a physical device. Device
// extensions whose dependencies are not enabled on the instance fail with
// ErrorExtensionNotPresent.
func CreateDevice(p PhysicalDevice, info *DeviceCreateInfo, allocator *AllocationCallbacks, out *Device) Result {
	noAllocator(allocator)
	pobj := lookup(physicalDevices, p)
	return guard(func() error {
		if len(info.EnabledLayerNames) > 0 {
			return ErrorLayerNotPresent
		}
		if f := info.EnabledFeatures; f != nil && !featuresSupported(*f, pobj.inner.Capabilities().Features()) {
			return ErrorFeatureNotPresent
		}
		iobj := lookup(instances, pobj.instance)
		exts, err := extension.Negotiate(info.EnabledExtensionNames, extension.ScopeDevice, iobj.inner.Extensions())
		if err != nil {
			return err
		}
		requests := make([]device.QueueRequest, 0, len(info.QueueCreateInfos))
		for _, q := range info.QueueCreateInfos {
			// #nosec G115 -- queue counts are small
			requests = append(requests, device.QueueRequest{Family: q.QueueFamilyIndex, Count: uint32(len(q.QueuePriorities))})
		}
		inner, err := device.New(pobj.inner, exts, requests)
		if err != nil {
			return err
		}

		obj := &deviceObject{inner: inner, physical: p, cfg: iobj.cfg, queues: make(map[[2]uint32]Queue)}
		h := register[Device](devices, obj)
		for _, q := range inner.Queues() {
			obj.queues[[2]uint32{q.Family(), q.Index()}] = register[Queue](queues, &queueObject{inner: q, device: h})
		}
		slogger().Info("softvk: device created", "queues", len(obj.queues), "extensions", exts.String())
		*out = h
		return nil
	})
}

// DestroyDevice waits for the device's queues to drain and destroys it.
// Destroying the null handle is a no-op.
func DestroyDevice(dev Device, allocator *AllocationCallbacks) {
	noAllocator(allocator)
	obj, ok := unregister(devices, dev)
	if !ok {
		return
	}
	for _, q := range obj.queues {
		unregister(queues, q)
	}
	obj.inner.Destroy()
	obj.closeCompiler()
	slogger().Info("softvk: device destroyed")
}

// GetDeviceQueue returns the handle of a queue created with the device.
// Asking for a queue that was not requested panics.
func GetDeviceQueue(dev Device, family, index uint32, out *Queue) {
	q, ok := lookupDevice(dev).queues[[2]uint32{family, index}]
	if !ok {
		panic("softvk: GetDeviceQueue for a queue that was not created")
	}
	*out = q
}

// QueueSubmit enqueues one job per submit batch, followed by a fence
// signal when fence is not null.
func QueueSubmit(q Queue, submits []SubmitInfo, fence Fence) Result {
	qobj := lookup(queues, q)
	return guard(func() error {
		jobs := make([]queue.Job, 0, len(submits)+1)
		for _, s := range submits {
			jobs = append(jobs, queue.Submit(
				lookupAll(semaphores, s.WaitSemaphores),
				lookupAll(commandBuffers, s.CommandBuffers),
				lookupAll(semaphores, s.SignalSemaphores),
			))
		}
		if fence != 0 {
			jobs = append(jobs, queue.SignalFence(lookup(fences, fence)))
		}
		return qobj.inner.Submit(jobs...)
	})
}

// QueueWaitIdle blocks until every job submitted to q has run.
func QueueWaitIdle(q Queue) Result {
	qobj := lookup(queues, q)
	return guard(qobj.inner.WaitIdle)
}

// DeviceWaitIdle blocks until every queue of the device is idle.
func DeviceWaitIdle(dev Device) Result {
	return guard(lookupDevice(dev).inner.WaitIdle)
}

// featuresSupported reports whether every feature in want is in have.
func featuresSupported(want, have PhysicalDeviceFeatures) bool {
	pairs := [][2]bool{
		{want.RobustBufferAccess, have.RobustBufferAccess},
		{want.FullDrawIndexUint32, have.FullDrawIndexUint32},
		{want.IndependentBlend, have.IndependentBlend},
		{want.SamplerAnisotropy, have.SamplerAnisotropy},
		{want.ShaderFloat64, have.ShaderFloat64},
		{want.ShaderInt64, have.ShaderInt64},
		{want.ShaderInt16, have.ShaderInt16},
	}
	for _, p := range pairs {
		if p[0] && !p[1] {
			return false
		}
	}
	return true
}
