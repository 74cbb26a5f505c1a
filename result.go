package softvk

import (
	"errors"
	"fmt"

	"github.com/gogpu/softvk/command"
	"github.com/gogpu/softvk/extension"
	"github.com/gogpu/softvk/pipeline"
	"github.com/gogpu/softvk/resource"
	"github.com/gogpu/softvk/syncobj"
	"github.com/gogpu/softvk/wsi"
)

// Result is an API return code. Negative values are errors.
// Result implements error so internal code can return one directly.
type Result int32

// Result codes, with the values of the API headers.
const (
	Success                   Result = 0
	NotReady                  Result = 1
	Timeout                   Result = 2
	EventSet                  Result = 3
	EventReset                Result = 4
	Incomplete                Result = 5
	ErrorOutOfHostMemory      Result = -1
	ErrorOutOfDeviceMemory    Result = -2
	ErrorInitializationFailed Result = -3
	ErrorDeviceLost           Result = -4
	ErrorMemoryMapFailed      Result = -5
	ErrorLayerNotPresent      Result = -6
	ErrorExtensionNotPresent  Result = -7
	ErrorFeatureNotPresent    Result = -8
	ErrorIncompatibleDriver   Result = -9
	ErrorTooManyObjects       Result = -10
	ErrorFormatNotSupported   Result = -11
	ErrorSurfaceLostKHR       Result = -1000000000
	SuboptimalKHR             Result = 1000001003
	ErrorOutOfDateKHR         Result = -1000001004
)

var resultNames = map[Result]string{
	Success:                   "VK_SUCCESS",
	NotReady:                  "VK_NOT_READY",
	Timeout:                   "VK_TIMEOUT",
	EventSet:                  "VK_EVENT_SET",
	EventReset:                "VK_EVENT_RESET",
	Incomplete:                "VK_INCOMPLETE",
	ErrorOutOfHostMemory:      "VK_ERROR_OUT_OF_HOST_MEMORY",
	ErrorOutOfDeviceMemory:    "VK_ERROR_OUT_OF_DEVICE_MEMORY",
	ErrorInitializationFailed: "VK_ERROR_INITIALIZATION_FAILED",
	ErrorDeviceLost:           "VK_ERROR_DEVICE_LOST",
	ErrorMemoryMapFailed:      "VK_ERROR_MEMORY_MAP_FAILED",
	ErrorLayerNotPresent:      "VK_ERROR_LAYER_NOT_PRESENT",
	ErrorExtensionNotPresent:  "VK_ERROR_EXTENSION_NOT_PRESENT",
	ErrorFeatureNotPresent:    "VK_ERROR_FEATURE_NOT_PRESENT",
	ErrorIncompatibleDriver:   "VK_ERROR_INCOMPATIBLE_DRIVER",
	ErrorTooManyObjects:       "VK_ERROR_TOO_MANY_OBJECTS",
	ErrorFormatNotSupported:   "VK_ERROR_FORMAT_NOT_SUPPORTED",
	ErrorSurfaceLostKHR:       "VK_ERROR_SURFACE_LOST_KHR",
	SuboptimalKHR:             "VK_SUBOPTIMAL_KHR",
	ErrorOutOfDateKHR:         "VK_ERROR_OUT_OF_DATE_KHR",
}

// String returns the API name of the code.
func (r Result) String() string {
	if s, ok := resultNames[r]; ok {
		return s
	}
	return fmt.Sprintf("VkResult(%d)", int32(r))
}

// Error implements error.
func (r Result) Error() string { return r.String() }

// IsError reports whether r is an error code.
func (r Result) IsError() bool { return r < 0 }

// errorResults maps internal sentinel errors to result codes. The first
// match wins, so more specific errors come first.
var errorResults = []struct {
	err    error
	result Result
}{
	{syncobj.ErrDeviceLost, ErrorDeviceLost},
	{syncobj.ErrNotReady, NotReady},
	{syncobj.ErrTimeout, Timeout},
	{resource.ErrOutOfDeviceMemory, ErrorOutOfDeviceMemory},
	{resource.ErrAlreadyMapped, ErrorMemoryMapFailed},
	{resource.ErrUnsupportedFormat, ErrorFormatNotSupported},
	{extension.ErrNotPresent, ErrorExtensionNotPresent},
	{extension.ErrWrongScope, ErrorExtensionNotPresent},
	{extension.ErrMissingDependency, ErrorExtensionNotPresent},
	{command.ErrUnsupported, ErrorFeatureNotPresent},
	{wsi.ErrSurfaceLost, ErrorSurfaceLostKHR},
	{wsi.ErrUnknownPlatform, ErrorIncompatibleDriver},
	{pipeline.ErrInvalidSPIRV, ErrorInitializationFailed},
}

// resultOf converts an error returned by an internal package into the
// result code reported to the caller.
func resultOf(err error) Result {
	if err == nil {
		return Success
	}
	var r Result
	if errors.As(err, &r) {
		return r
	}
	var ae *resource.AllocError
	if errors.As(err, &ae) {
		return ErrorOutOfHostMemory
	}
	for _, e := range errorResults {
		if errors.Is(err, e.err) {
			return e.result
		}
	}
	return ErrorInitializationFailed
}

// statusResult converts a presentation status into a result code.
func statusResult(s wsi.Status) Result {
	switch s {
	case wsi.Success:
		return Success
	case wsi.Suboptimal:
		return SuboptimalKHR
	case wsi.OutOfDate:
		return ErrorOutOfDateKHR
	case wsi.SurfaceLost:
		return ErrorSurfaceLostKHR
	}
	return ErrorDeviceLost
}

// guard runs the body of an entry point and converts its error into a
// result. A host allocation failure raised as a panic by the resource
// package becomes ErrorOutOfHostMemory; any other panic is a contract
// violation and keeps unwinding.
func guard(fn func() error) (r Result) {
	defer func() {
		p := recover()
		if p == nil {
			return
		}
		if ae, ok := p.(*resource.AllocError); ok {
			slogger().Warn("softvk: host allocation failed", "what", ae.What, "size", ae.Size)
			r = ErrorOutOfHostMemory
			return
		}
		panic(p)
	}()
	r = resultOf(fn())
	if r.IsError() {
		slogger().Debug("softvk: entry point failed", "result", r)
	}
	return r
}
