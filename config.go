package softvk

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
)

// ConfigEnv names an environment variable holding the path of a TOML
// configuration file. The file is applied once, before the first instance
// is created.
const ConfigEnv = "SOFTVK_CONFIG"

// softvk config.toml key mapping to runtime options.
type fileConfig struct {
	HeapSize      uint64 `toml:"heap_size"`
	QueueCount    uint32 `toml:"queue_count"`
	DeviceName    string `toml:"device_name"`
	MinImageCount uint32 `toml:"min_image_count"`
	LogLevel      string `toml:"log_level"`
}

// LoadConfig reads a TOML configuration file and returns the options it
// sets. Keys missing from the file produce no option.
//
//	heap_size = 268435456
//	queue_count = 2
//	device_name = "softvk test device"
//	min_image_count = 3
//	log_level = "debug"
func LoadConfig(path string) ([]Option, error) {
	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return nil, fmt.Errorf("load softvk config: %w", err)
	}

	var opts []Option
	if meta.IsDefined("heap_size") {
		if raw.HeapSize == 0 {
			return nil, fmt.Errorf("load softvk config: heap_size must be positive")
		}
		opts = append(opts, WithHeapSize(raw.HeapSize))
	}
	if meta.IsDefined("queue_count") {
		opts = append(opts, WithQueueCount(raw.QueueCount))
	}
	if meta.IsDefined("device_name") {
		opts = append(opts, WithDeviceName(strings.TrimSpace(raw.DeviceName)))
	}
	if meta.IsDefined("min_image_count") {
		opts = append(opts, WithMinImageCount(raw.MinImageCount))
	}
	if meta.IsDefined("log_level") {
		var level slog.Level
		if err := level.UnmarshalText([]byte(strings.TrimSpace(raw.LogLevel))); err != nil {
			return nil, fmt.Errorf("load softvk config: log_level: %w", err)
		}
		opts = append(opts, withLogLevel(level))
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		slogger().Warn("softvk: unknown config keys", "path", path, "keys", fmt.Sprint(undecoded))
	}
	return opts, nil
}

var envOnce sync.Once

// applyEnvConfig loads the file named by ConfigEnv, if set.
func applyEnvConfig() {
	envOnce.Do(func() {
		path := os.Getenv(ConfigEnv)
		if path == "" {
			return
		}
		opts, err := LoadConfig(path)
		if err != nil {
			slogger().Warn("softvk: ignoring config file", "path", path, "err", err)
			return
		}
		Configure(opts...)
		slogger().Info("softvk: config loaded", "path", path, "options", len(opts))
	})
}
