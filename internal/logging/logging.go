// Package logging carries the process-wide zerolog logger.
//
// Hook invocations speak JSON over stdout, so logs always go to stderr
// or to a file; nothing in this package may write to stdout.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Logger is the process-wide logger. Init replaces it; the leveled
// helpers below read it.
var Logger zerolog.Logger

// Level aliases zerolog's level type so callers need no direct zerolog
// import.
type Level = zerolog.Level

// Levels re-exported for the same reason.
const (
	DebugLevel = zerolog.DebugLevel
	InfoLevel  = zerolog.InfoLevel
	WarnLevel  = zerolog.WarnLevel
	ErrorLevel = zerolog.ErrorLevel
	FatalLevel = zerolog.FatalLevel
)

// Config selects the stream, format, and threshold for the logger.
type Config struct {
	// Level is the minimum level that gets written.
	Level Level
	// Output receives the log stream. Defaults to os.Stderr.
	Output io.Writer
	// Pretty renders human-readable console lines instead of JSON.
	Pretty bool
	// TimeFormat stamps each entry. Defaults to RFC3339.
	TimeFormat string
	// LogToFile tees the stream into a timestamped file under LogDir.
	LogToFile bool
	// LogDir is where log files land when LogToFile is set.
	LogDir string
}

// DefaultConfig returns the stderr JSON configuration at info level.
func DefaultConfig() Config {
	return Config{
		Level:      InfoLevel,
		Output:     os.Stderr,
		TimeFormat: time.RFC3339,
		LogDir:     "/tmp",
	}
}

// Init replaces the global logger with one built from cfg.
func Init(cfg Config) {
	if cfg.Output == nil {
		cfg.Output = os.Stderr
	}
	if cfg.TimeFormat == "" {
		cfg.TimeFormat = time.RFC3339
	}

	zerolog.TimeFieldFormat = cfg.TimeFormat

	Logger = zerolog.New(cfg.sink()).
		Level(cfg.Level).
		With().
		Timestamp().
		Logger()
}

// sink assembles the writer stack: the configured output, optionally
// wrapped for console rendering, optionally teed into a log file.
func (cfg Config) sink() io.Writer {
	var out io.Writer = cfg.Output
	if cfg.Pretty {
		out = zerolog.ConsoleWriter{
			Out:        cfg.Output,
			TimeFormat: cfg.TimeFormat,
		}
	}

	if !cfg.LogToFile {
		closeLogFile()
		return out
	}
	if f := openLogFile(cfg.LogDir); f != nil {
		out = io.MultiWriter(out, f)
	}
	return out
}

var (
	fileMu  sync.Mutex
	logFile *os.File
)

// openLogFile opens a fresh timestamped log file, closing any previous one.
func openLogFile(dir string) *os.File {
	if dir == "" {
		dir = "/tmp"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil
	}

	name := fmt.Sprintf("ork-hooks-%s.log", time.Now().Format("20060102-150405"))
	f, err := os.OpenFile(filepath.Join(dir, name), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil
	}

	fileMu.Lock()
	if logFile != nil {
		logFile.Close()
	}
	logFile = f
	fileMu.Unlock()

	return f
}

func closeLogFile() {
	fileMu.Lock()
	defer fileMu.Unlock()
	if logFile != nil {
		logFile.Close()
		logFile = nil
	}
}

// Close closes the log file, if any. Safe to call multiple times.
func Close() {
	closeLogFile()
}

// GetLogFilePath returns the path of the active log file, or "" when
// file logging is disabled.
func GetLogFilePath() string {
	fileMu.Lock()
	defer fileMu.Unlock()
	if logFile == nil {
		return ""
	}
	return logFile.Name()
}

var levelNames = map[string]Level{
	"DEBUG":   DebugLevel,
	"INFO":    InfoLevel,
	"WARN":    WarnLevel,
	"WARNING": WarnLevel,
	"ERROR":   ErrorLevel,
	"FATAL":   FatalLevel,
}

// ParseLevel maps a level name to its Level, case-insensitively.
// Unrecognized names fall back to InfoLevel.
func ParseLevel(level string) Level {
	if lvl, ok := levelNames[strings.ToUpper(strings.TrimSpace(level))]; ok {
		return lvl
	}
	return InfoLevel
}

// Debug opens a debug-level event on the global logger.
func Debug() *zerolog.Event { return Logger.Debug() }

// Info opens an info-level event on the global logger.
func Info() *zerolog.Event { return Logger.Info() }

// Warn opens a warn-level event on the global logger.
func Warn() *zerolog.Event { return Logger.Warn() }

// Error opens an error-level event on the global logger.
func Error() *zerolog.Event { return Logger.Error() }

// Fatal opens a fatal-level event. Sending it exits the process.
func Fatal() *zerolog.Event { return Logger.Fatal() }

// With opens a child logger context on the global logger.
func With() zerolog.Context { return Logger.With() }

// A default logger is live before any Init call.
func init() {
	Init(DefaultConfig())
}
