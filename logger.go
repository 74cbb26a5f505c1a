package softvk

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/gogpu/softvk/pipeline"
	"github.com/gogpu/softvk/queue"
	"github.com/gogpu/softvk/wsi"
)

// nopHandler is a slog.Handler that discards all log records. Enabled
// returns false so callers skip formatting entirely.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

func newNopLogger() *slog.Logger { return slog.New(nopHandler{}) }

// loggerPtr stores the active logger. Accessed atomically so that
// SetLogger can be called concurrently with logging from any goroutine.
var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(newNopLogger())
}

func slogger() *slog.Logger { return loggerPtr.Load() }

// SetLogger configures the logger for softvk and its sub-packages.
// By default softvk produces no log output. Pass nil to restore the
// silent default.
//
// Log levels used by softvk:
//   - [slog.LevelDebug]: handle churn, job execution, failed entry points
//   - [slog.LevelInfo]: instance and device lifecycle
//   - [slog.LevelWarn]: device loss, present failures, host allocation failures
//
// Example:
//
//	softvk.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	loggerPtr.Store(l)
	queue.SetLogger(l)
	pipeline.SetLogger(l)
	wsi.SetLogger(l)
}

// Logger returns the current logger.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}
