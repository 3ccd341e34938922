// Package logging provides the process-wide structured logger used by the file organizations.
//
// It wraps log/slog. Call Init once at startup to choose level, destination and format, or rely on
// GetLogger creating a default stderr logger at INFO level lazily. Files pick up the logger when they are
// created or opened, so Init has to run before that. Page splits, chaining, unlinking and overflow buckets
// are logged at DEBUG level.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

var (
	logger   *slog.Logger
	loggerMu sync.RWMutex
	logFile  *os.File
	isInited bool
	initOnce sync.Once
)

// LogLevel - Logging verbosity
type LogLevel string

const (
	LevelDebug LogLevel = "DEBUG"
	LevelInfo  LogLevel = "INFO"
	LevelWarn  LogLevel = "WARN"
	LevelError LogLevel = "ERROR"
)

// Config - Logger configuration
//   - Level is the minimum level to log
//   - OutputPath is a file to append to, empty means Writer
//   - Writer is the destination when OutputPath is empty, nil means stderr
//   - Format is either "json" or "text"
type Config struct {
	Level      LogLevel
	OutputPath string
	Writer     io.Writer
	Format     string
}

// Init - Initializes the global logger. A second call fails until Close has been called.
func Init(config Config) error {
	loggerMu.Lock()
	defer loggerMu.Unlock()

	if isInited {
		return fmt.Errorf("logger already initialized; call Close() first to reinitialize")
	}

	var writer io.Writer = os.Stderr
	if config.Writer != nil {
		writer = config.Writer
	}
	if config.OutputPath != "" {
		if err := os.MkdirAll(filepath.Dir(config.OutputPath), 0o750); err != nil {
			return err
		}

		file, err := os.OpenFile(config.OutputPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return err
		}
		writer = file
		logFile = file
	}

	opts := &slog.HandlerOptions{Level: toSlogLevel(config.Level)}

	var handler slog.Handler
	if config.Format == "json" {
		handler = slog.NewJSONHandler(writer, opts)
	} else {
		handler = slog.NewTextHandler(writer, opts)
	}

	logger = slog.New(handler)
	isInited = true

	return nil
}

// InitDefault - Initializes the logger with INFO level text output to stderr, unless already initialized
func InitDefault() {
	loggerMu.Lock()
	defer loggerMu.Unlock()

	if isInited {
		return
	}

	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	isInited = true
}

// Close - Closes any log file and resets the logger so Init can be called again
func Close() error {
	loggerMu.Lock()
	defer loggerMu.Unlock()

	if !isInited {
		return nil
	}

	var err error
	if logFile != nil {
		err = logFile.Close()
		logFile = nil
	}

	logger = nil
	isInited = false
	initOnce = sync.Once{}

	return err
}

// GetLogger - Returns the current logger, initializing a default one on first use
func GetLogger() *slog.Logger {
	loggerMu.RLock()
	if isInited {
		l := logger
		loggerMu.RUnlock()
		return l
	}
	loggerMu.RUnlock()

	initOnce.Do(InitDefault)

	loggerMu.RLock()
	defer loggerMu.RUnlock()
	return logger
}

// WithComponent - Returns a logger tagged with a component name
func WithComponent(component string) *slog.Logger {
	return GetLogger().With("component", component)
}

// WithFile - Returns a logger tagged with a component name and the file it operates on
func WithFile(component, fileName string) *slog.Logger {
	return WithComponent(component).With("file", fileName)
}

func toSlogLevel(level LogLevel) slog.Level {
	switch level {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
