package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig_WritesToStderr(t *testing.T) {
	cfg := DefaultConfig()

	// Stdout carries the hook protocol, so the default sink must be stderr.
	assert.Equal(t, os.Stderr, cfg.Output)
	assert.Equal(t, InfoLevel, cfg.Level)
	assert.False(t, cfg.Pretty)
	assert.Equal(t, time.RFC3339, cfg.TimeFormat)
	assert.False(t, cfg.LogToFile)
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"DEBUG", DebugLevel},
		{"debug", DebugLevel},
		{"  warn  ", WarnLevel},
		{"WARNING", WarnLevel},
		{"Error", ErrorLevel},
		{"FATAL", FatalLevel},
		{"INFO", InfoLevel},
		{"", InfoLevel},
		{"verbose", InfoLevel},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseLevel(tt.in), "ParseLevel(%q)", tt.in)
	}
}

func TestInit_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: WarnLevel, Output: &buf})

	Debug().Msg("below the line")
	Info().Msg("still below")
	Warn().Msg("first visible")
	Error().Msg("also visible")

	out := buf.String()
	assert.NotContains(t, out, "below the line")
	assert.NotContains(t, out, "still below")
	assert.Contains(t, out, "first visible")
	assert.Contains(t, out, "also visible")
}

func TestInit_StructuredFields(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: DebugLevel, Output: &buf})

	Debug().Str("tool", "Bash").Int("denials", 3).Msg("repeat denial")

	out := buf.String()
	assert.Contains(t, out, `"tool":"Bash"`)
	assert.Contains(t, out, `"denials":3`)
	assert.Contains(t, out, "repeat denial")
}

func TestInit_PrettyConsole(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: InfoLevel, Output: &buf, Pretty: true})

	Info().Msg("console line")

	// Console output is not JSON.
	out := buf.String()
	assert.Contains(t, out, "console line")
	assert.NotContains(t, out, `"message"`)
}

func TestInit_NilOutputDefaults(t *testing.T) {
	assert.NotPanics(t, func() {
		Init(Config{Level: InfoLevel})
		Info().Msg("to stderr")
	})
}

func TestWith_ChildLogger(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: InfoLevel, Output: &buf})

	child := With().Str("component", "gate").Logger()
	child.Info().Msg("scoped")

	assert.Contains(t, buf.String(), `"component":"gate"`)
}

func TestFileSink(t *testing.T) {
	dir := t.TempDir()

	Init(Config{Level: InfoLevel, Output: &bytes.Buffer{}, LogToFile: true, LogDir: dir})
	defer Close()

	Info().Msg("written to disk")

	path := GetLogFilePath()
	require.NotEmpty(t, path)
	assert.Equal(t, dir, filepath.Dir(path))

	name := filepath.Base(path)
	assert.True(t, strings.HasPrefix(name, "ork-hooks-"), "file name %q", name)
	assert.True(t, strings.HasSuffix(name, ".log"), "file name %q", name)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "written to disk")
}

func TestFileSink_CloseAndReinit(t *testing.T) {
	dir := t.TempDir()

	Init(Config{Level: InfoLevel, Output: &bytes.Buffer{}, LogToFile: true, LogDir: dir})
	first := GetLogFilePath()
	require.NotEmpty(t, first)

	Close()
	assert.Empty(t, GetLogFilePath(), "path clears on close")

	// File names carry a second-resolution timestamp.
	time.Sleep(1100 * time.Millisecond)

	Init(Config{Level: InfoLevel, Output: &bytes.Buffer{}, LogToFile: true, LogDir: dir})
	defer Close()
	second := GetLogFilePath()

	require.NotEmpty(t, second)
	assert.NotEqual(t, first, second)
	assert.FileExists(t, first, "closed file stays on disk")
}

func TestGetLogFilePath_NoFileSink(t *testing.T) {
	Close()
	Init(Config{Level: InfoLevel, Output: &bytes.Buffer{}})

	assert.Empty(t, GetLogFilePath())
}
