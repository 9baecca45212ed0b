package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/tidwall/jsonc"
)

// Config holds the runtime configuration for the hook gate.
type Config struct {
	// StateDir is where stores, queues, and caches live.
	// Defaults to <project>/.ork/state.
	StateDir string `json:"stateDir,omitempty"`

	// LogLevel is one of DEBUG, INFO, WARN, ERROR, FATAL.
	LogLevel string `json:"logLevel,omitempty"`

	// ProtectedBranches are hard-denied for commits and pushes.
	ProtectedBranches []string `json:"protectedBranches,omitempty"`

	// DisableLearning turns off the learned-pattern allow pass.
	DisableLearning bool `json:"disableLearning,omitempty"`

	Browser BrowserConfig `json:"browser,omitempty"`
	Robots  RobotsConfig  `json:"robots,omitempty"`
	Memory  MemoryConfig  `json:"memory,omitempty"`
	Serve   ServeConfig   `json:"serve,omitempty"`
}

// BrowserConfig controls the browser-safety gate.
type BrowserConfig struct {
	RequestsPerMinute int `json:"requestsPerMinute,omitempty"`
	RequestsPerHour   int `json:"requestsPerHour,omitempty"`
	BurstLimit        int `json:"burstLimit,omitempty"`

	// ToolPrefixes identify browser navigation tools by tool_name prefix.
	ToolPrefixes []string `json:"toolPrefixes,omitempty"`
}

// RobotsConfig controls robots.txt enforcement for browser navigation.
type RobotsConfig struct {
	Disabled   bool `json:"disabled,omitempty"`
	TTLMinutes int  `json:"ttlMinutes,omitempty"`
}

// MemoryConfig points at the external memory MCP server used by queue sync.
type MemoryConfig struct {
	// Command launches the server over stdio, e.g. "npx -y @acme/memory-server".
	Command string   `json:"command,omitempty"`
	Args    []string `json:"args,omitempty"`
}

// ServeConfig controls the optional HTTP server mode.
type ServeConfig struct {
	Port       int  `json:"port,omitempty"`
	EnableCORS bool `json:"enableCors,omitempty"`
}

// Default returns the built-in configuration for a project directory.
func Default(projectDir string) *Config {
	return &Config{
		StateDir:          StateDir(projectDir),
		LogLevel:          "INFO",
		ProtectedBranches: []string{"main", "master"},
		Browser: BrowserConfig{
			RequestsPerMinute: 30,
			RequestsPerHour:   300,
			BurstLimit:        5,
			ToolPrefixes: []string{
				"mcp__claude-in-chrome",
				"mcp__browser",
				"mcp__playwright",
			},
		},
		Robots: RobotsConfig{
			TTLMinutes: 60,
		},
		Serve: ServeConfig{
			Port:       8080,
			EnableCORS: true,
		},
	}
}

// Load builds configuration from multiple sources (priority order):
// 1. Built-in defaults
// 2. Global settings (~/.config/ork-hooks/settings.json)
// 3. Project settings (<project>/.ork/settings.json)
// 4. ORK_SETTINGS file override
// 5. Environment variables
//
// Settings files may contain comments (JSONC) and {env:VAR} / {file:path}
// placeholders. A missing file is skipped; a malformed one is ignored so a
// broken settings file never blocks the gate.
func Load(projectDir string) (*Config, error) {
	config := Default(projectDir)

	loaded := make(map[string]bool)
	loadOnce := func(path, baseDir string) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return
		}
		if loaded[absPath] {
			return
		}
		if loadSettingsFile(path, config, baseDir) == nil {
			loaded[absPath] = true
		}
	}

	globalDir := globalConfigDir()
	loadOnce(filepath.Join(globalDir, "settings.json"), globalDir)

	if projectDir != "" {
		projectSettingsDir := filepath.Join(projectDir, projectDirName)
		loadOnce(filepath.Join(projectSettingsDir, "settings.json"), projectSettingsDir)
	}

	if settingsPath := os.Getenv("ORK_SETTINGS"); settingsPath != "" {
		loadOnce(settingsPath, filepath.Dir(settingsPath))
	}

	applyEnvOverrides(config)

	return config, nil
}

// loadSettingsFile reads, interpolates, and merges one settings file.
// The returned error only tells the caller the file contributed nothing;
// Load treats it the same either way.
func loadSettingsFile(path string, config *Config, baseDir string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	data = jsonc.ToJSON(data)
	data = interpolate(data, baseDir)

	var fileConfig Config
	if err := json.Unmarshal(data, &fileConfig); err != nil {
		return err
	}

	mergeConfig(config, &fileConfig)
	return nil
}

var (
	envPlaceholder  = regexp.MustCompile(`\{env:([^}]+)\}`)
	filePlaceholder = regexp.MustCompile(`\{file:([^}]+)\}`)
)

// jsonEscaper escapes file content for splicing into a JSON string.
var jsonEscaper = strings.NewReplacer(
	`\`, `\\`,
	`"`, `\"`,
	"\n", `\n`,
	"\r", `\r`,
	"\t", `\t`,
)

// interpolate expands {env:VAR} and {file:path} placeholders. A
// placeholder whose file cannot be read stays as written.
func interpolate(data []byte, baseDir string) []byte {
	data = envPlaceholder.ReplaceAllFunc(data, func(m []byte) []byte {
		name := envPlaceholder.FindSubmatch(m)[1]
		return []byte(os.Getenv(string(name)))
	})
	return filePlaceholder.ReplaceAllFunc(data, func(m []byte) []byte {
		ref := string(filePlaceholder.FindSubmatch(m)[1])
		content, err := os.ReadFile(resolveFileRef(ref, baseDir))
		if err != nil {
			return m
		}
		return []byte(jsonEscaper.Replace(string(content)))
	})
}

// resolveFileRef resolves a {file:} reference: ~/ expands to the home
// directory and relative paths anchor at the settings file's directory.
func resolveFileRef(path, baseDir string) string {
	if rest, ok := strings.CutPrefix(path, "~/"); ok {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, rest)
	}
	if !filepath.IsAbs(path) {
		return filepath.Join(baseDir, path)
	}
	return path
}

// mergeConfig merges source config into target. Zero values in source leave
// the target untouched, so a settings file only has to name what it changes.
func mergeConfig(target, source *Config) {
	if source.StateDir != "" {
		target.StateDir = source.StateDir
	}
	if source.LogLevel != "" {
		target.LogLevel = source.LogLevel
	}
	if len(source.ProtectedBranches) > 0 {
		target.ProtectedBranches = source.ProtectedBranches
	}
	if source.DisableLearning {
		target.DisableLearning = true
	}

	if source.Browser.RequestsPerMinute > 0 {
		target.Browser.RequestsPerMinute = source.Browser.RequestsPerMinute
	}
	if source.Browser.RequestsPerHour > 0 {
		target.Browser.RequestsPerHour = source.Browser.RequestsPerHour
	}
	if source.Browser.BurstLimit > 0 {
		target.Browser.BurstLimit = source.Browser.BurstLimit
	}
	if len(source.Browser.ToolPrefixes) > 0 {
		target.Browser.ToolPrefixes = source.Browser.ToolPrefixes
	}

	if source.Robots.Disabled {
		target.Robots.Disabled = true
	}
	if source.Robots.TTLMinutes > 0 {
		target.Robots.TTLMinutes = source.Robots.TTLMinutes
	}

	if source.Memory.Command != "" {
		target.Memory.Command = source.Memory.Command
		target.Memory.Args = source.Memory.Args
	}

	if source.Serve.Port > 0 {
		target.Serve.Port = source.Serve.Port
	}
	if source.Serve.EnableCORS {
		target.Serve.EnableCORS = true
	}
}

// applyEnvOverrides applies environment variable overrides.
func applyEnvOverrides(config *Config) {
	if dir := os.Getenv("ORK_STATE_DIR"); dir != "" {
		config.StateDir = dir
	}
	if level := os.Getenv("ORK_LOG_LEVEL"); level != "" {
		config.LogLevel = level
	}
	if branches := os.Getenv("ORK_PROTECTED_BRANCHES"); branches != "" {
		var list []string
		for _, b := range strings.Split(branches, ",") {
			if b = strings.TrimSpace(b); b != "" {
				list = append(list, b)
			}
		}
		if len(list) > 0 {
			config.ProtectedBranches = list
		}
	}
	if isEnvSet("ORK_DISABLE_LEARNING") {
		config.DisableLearning = true
	}

	if n := envInt("ORK_BROWSER_REQUESTS_PER_MINUTE"); n > 0 {
		config.Browser.RequestsPerMinute = n
	}
	if n := envInt("ORK_BROWSER_REQUESTS_PER_HOUR"); n > 0 {
		config.Browser.RequestsPerHour = n
	}
	if n := envInt("ORK_BROWSER_BURST_LIMIT"); n > 0 {
		config.Browser.BurstLimit = n
	}

	if v := os.Getenv("ORK_ROBOTS_ENFORCEMENT"); v != "" {
		switch strings.ToLower(v) {
		case "off", "false", "0":
			config.Robots.Disabled = true
		}
	}
	if n := envInt("ORK_ROBOTS_TTL_MINUTES"); n > 0 {
		config.Robots.TTLMinutes = n
	}

	if cmd := os.Getenv("ORK_MEMORY_COMMAND"); cmd != "" {
		fields := strings.Fields(cmd)
		config.Memory.Command = fields[0]
		config.Memory.Args = fields[1:]
	}

	if n := envInt("ORK_PORT"); n > 0 {
		config.Serve.Port = n
	}
}

// isEnvSet reports whether an env toggle is set to a truthy value.
func isEnvSet(key string) bool {
	switch strings.ToLower(os.Getenv(key)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

func envInt(key string) int {
	v := os.Getenv(key)
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}
