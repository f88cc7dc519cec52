// Package logging holds the process-wide zap logger used by the runner, scheduler and daemon.
//
// The logger is a no-op until Initialize is called, so library code can log unconditionally.
// Components take a named child via ComponentLogger.
package logging

import (
	"os"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Standard field names for consistent structured logging.
const (
	FieldRunID      = "run_id"
	FieldPID        = "pid"
	FieldComponent  = "component"
	FieldExecutable = "executable"
	FieldScript     = "script"
	FieldStream     = "stream"
	FieldOutcome    = "outcome"
	FieldExitCode   = "exit_code"
	FieldDurationMS = "duration_ms"
	FieldError      = "error"
	FieldPath       = "path"
	FieldNextRun    = "next_run"
	FieldRuns       = "runs"
	FieldInterval   = "interval"
	FieldOwner      = "owner"
	FieldAddress    = "address"
)

var (
	mu sync.RWMutex
	// Logger is the global logger. Never nil.
	Logger = zap.NewNop().Sugar()
)

// Options selects the encoder and minimum level.
type Options struct {
	// JSON switches to production JSON output.
	JSON bool
	// Level is one of debug, info, warn, error. Empty means info.
	Level string
}

// Initialize replaces the global logger.
func Initialize(opts Options) error {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return err
	}

	var zl *zap.Logger
	if opts.JSON {
		cfg := zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(level)
		zl, err = cfg.Build()
		if err != nil {
			return errors.Wrap(err, "build json logger")
		}
	} else {
		encCfg := zap.NewDevelopmentEncoderConfig()
		encCfg.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		zl = zap.New(zapcore.NewCore(
			zapcore.NewConsoleEncoder(encCfg),
			zapcore.AddSync(os.Stderr),
			level,
		))
	}

	Set(zl.Sugar())
	return nil
}

// Set swaps the global logger; used by tests and embedders.
func Set(l *zap.SugaredLogger) {
	if l == nil {
		l = zap.NewNop().Sugar()
	}
	mu.Lock()
	Logger = l
	mu.Unlock()
}

// ParseLevel maps a level name onto a zap level.
func ParseLevel(name string) (zapcore.Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "info":
		return zap.InfoLevel, nil
	case "debug":
		return zap.DebugLevel, nil
	case "warn", "warning":
		return zap.WarnLevel, nil
	case "error":
		return zap.ErrorLevel, nil
	default:
		return zap.InfoLevel, errors.Newf("unknown log level %q", name)
	}
}

// ComponentLogger returns a named logger for a specific component.
//
// Example:
//
//	type Runner struct {
//	    logger *zap.SugaredLogger
//	}
//
//	func NewRunner() *Runner {
//	    return &Runner{logger: logging.ComponentLogger("runner")}
//	}
func ComponentLogger(name string) *zap.SugaredLogger {
	mu.RLock()
	defer mu.RUnlock()
	return Logger.Named(name)
}

// Sync flushes buffered entries; call on shutdown.
func Sync() {
	mu.RLock()
	l := Logger
	mu.RUnlock()
	_ = l.Sync()
}
