package softvk

import (
	"log/slog"
	"os"
	"sync"

	"github.com/gogpu/softvk/device"
	"github.com/gogpu/softvk/pipeline"
)

// Option configures instances created after Configure is called.
//
// Example:
//
//	softvk.Configure(
//	    softvk.WithHeapSize(256<<20),
//	    softvk.WithQueueCount(2),
//	)
type Option func(*config)

// config holds the runtime settings snapshotted by CreateInstance.
type config struct {
	device        device.Config
	minImageCount uint32
	compiler      func() (pipeline.Compiler, error)
	logLevel      *slog.Level
}

func defaultConfig() config {
	return config{
		device:   device.DefaultConfig(),
		compiler: newHALCompiler,
	}
}

func newHALCompiler() (pipeline.Compiler, error) {
	return pipeline.NewHALCompiler()
}

var (
	settingsMu sync.Mutex
	settings   = defaultConfig()
)

// WithHeapSize sets the size in bytes of the device memory heap.
func WithHeapSize(size uint64) Option {
	return func(c *config) {
		c.device.HeapSize = size
	}
}

// WithQueueCount sets the number of queues in the single queue family.
func WithQueueCount(n uint32) Option {
	return func(c *config) {
		c.device.QueueCount = max(n, 1)
	}
}

// WithDeviceName sets the reported physical device name.
func WithDeviceName(name string) Option {
	return func(c *config) {
		c.device.Name = name
	}
}

// WithCompiler replaces the pipeline compiler. The factory is called once
// per device, when the device first creates a shader module or pipeline.
func WithCompiler(factory func() (pipeline.Compiler, error)) Option {
	return func(c *config) {
		c.compiler = factory
	}
}

// WithMinImageCount sets the minimum swapchain image count reported by
// headless surfaces.
func WithMinImageCount(n uint32) Option {
	return func(c *config) {
		c.minImageCount = n
	}
}

// withLogLevel installs a text logger on stderr at the given level.
func withLogLevel(level slog.Level) Option {
	return func(c *config) {
		c.logLevel = &level
	}
}

// Configure applies opts to the settings used by instances created
// afterwards. Existing instances keep the settings they were created with.
func Configure(opts ...Option) {
	settingsMu.Lock()
	for _, opt := range opts {
		opt(&settings)
	}
	level := settings.logLevel
	settings.logLevel = nil
	settingsMu.Unlock()

	if level != nil {
		SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: *level})))
	}
}

// ResetConfig restores the default settings.
func ResetConfig() {
	settingsMu.Lock()
	settings = defaultConfig()
	settingsMu.Unlock()
}

func currentConfig() config {
	applyEnvConfig()
	settingsMu.Lock()
	defer settingsMu.Unlock()
	return settings
}
