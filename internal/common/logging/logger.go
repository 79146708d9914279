package logging

import (
	"fmt"
	"os"
	"time"
)

// New builds the process logger from a level name and an optional log file.
// An empty file name logs to stdout.
func New(level, file string) (Logger, func(), error) {
	config := LogConfig{
		Level:      ParseLevel(level),
		TimeFormat: time.RFC3339,
	}

	closeFn := func() {}
	if file != "" {
		f, err := os.OpenFile(file, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file %s: %w", file, err)
		}
		config.Output = f
		closeFn = func() { _ = f.Close() }
	}

	logger, err := NewZapLogger(config)
	if err != nil {
		closeFn()
		return nil, nil, err
	}

	return logger, func() {
		MustSync(logger)
		closeFn()
	}, nil
}

// MustSync flushes any buffered log entries for zap loggers.
// This should be called before application exit.
func MustSync(logger Logger) {
	if zapLogger, ok := logger.(*ZapAdapter); ok {
		_ = zapLogger.Sync()
	}
}
