// Package log provides structured logging to both console and file.
package log

import (
	"fmt"
	"io"
	stdlog "log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// FileName is the log file created in the log directory.
const FileName = "eveuniverse.log"

// Config holds logging configuration.
type Config struct {
	// Level is the minimum level: trace, debug, info, warn, error.
	Level string
	// Format is console or json.
	Format string
	// Dir receives the log file. Empty logs to the console only.
	Dir string
	// Output overrides stderr, mainly for tests.
	Output io.Writer
}

var (
	mu      sync.RWMutex
	logger  = zerolog.New(os.Stderr).Level(zerolog.InfoLevel).With().Timestamp().Logger()
	logFile *os.File
	stdout  io.Writer = os.Stdout
)

// Init configures the global logger. It is safe to call more than once;
// each call closes the previous log file.
// Go's standard log package is redirected to the log file as well.
func Init(cfg Config) error {
	mu.Lock()
	defer mu.Unlock()

	if logFile != nil {
		_ = logFile.Close()
		logFile = nil
	}

	console := cfg.Output
	if console == nil {
		console = os.Stderr
	}
	if !strings.EqualFold(cfg.Format, "json") {
		console = zerolog.ConsoleWriter{Out: console, TimeFormat: "15:04:05"}
	}

	writers := []io.Writer{console}
	stdout = os.Stdout
	if cfg.Dir != "" {
		if err := os.MkdirAll(cfg.Dir, 0755); err != nil {
			return fmt.Errorf("create log directory: %w", err)
		}
		file, err := os.OpenFile(filepath.Join(cfg.Dir, FileName), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		logFile = file
		writers = append(writers, file)
		stdout = io.MultiWriter(os.Stdout, file)

		stdlog.SetOutput(file)
		stdlog.SetFlags(stdlog.Ldate | stdlog.Ltime)
	}

	zerolog.TimeFieldFormat = time.RFC3339
	logger = zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(ParseLevel(cfg.Level)).
		With().Timestamp().Logger()
	return nil
}

// ParseLevel converts a level name, defaulting to info.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "disabled", "off":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

// Logger returns the global logger.
func Logger() *zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	l := logger
	return &l
}

// With returns a child logger carrying entity fields.
func With(kind string, id int64) zerolog.Logger {
	return Logger().With().Str("kind", kind).Int64("id", id).Logger()
}

// Printf writes user-facing output to stdout and the log file.
func Printf(format string, args ...any) {
	mu.RLock()
	w := stdout
	mu.RUnlock()
	_, _ = fmt.Fprintf(w, format, args...)
}

// Println writes user-facing output with a newline.
func Println(args ...any) {
	mu.RLock()
	w := stdout
	mu.RUnlock()
	_, _ = fmt.Fprintln(w, args...)
}

// Errorf logs a formatted message at error level.
func Errorf(format string, args ...any) {
	Logger().Error().Msgf(format, args...)
}

// Close closes the log file.
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	stdout = os.Stdout
	if logFile != nil {
		err := logFile.Close()
		logFile = nil
		return err
	}
	return nil
}
