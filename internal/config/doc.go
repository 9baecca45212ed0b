// Package config provides configuration loading, merging, and path management
// for ork-hooks.
//
// # Configuration Loading
//
// The Load function merges configuration from multiple sources in priority
// order:
//
//  1. Built-in defaults
//  2. Global settings (~/.config/ork-hooks/settings.json)
//  3. Project settings (<project>/.ork/settings.json)
//  4. ORK_SETTINGS file override
//  5. Environment variables
//
// Settings files are JSONC (JSON with comments, processed using tidwall/jsonc)
// and support two kinds of variable interpolation:
//   - {env:VAR_NAME} - Expands to environment variable values
//   - {file:path} - Expands to file contents (escaped for JSON)
//
// File paths in {file:path} placeholders may be absolute, relative to the
// settings file directory, or home-relative (~/).
//
// A missing settings file is skipped and a malformed one is ignored, so a
// broken configuration never prevents the hook gate from answering.
//
// # Environment Variable Overrides
//
//   - ORK_STATE_DIR - Override the state directory
//   - ORK_LOG_LEVEL - DEBUG, INFO, WARN, ERROR, FATAL
//   - ORK_SETTINGS - Path to a specific settings file
//   - ORK_PROTECTED_BRANCHES - Comma-separated branch names
//   - ORK_DISABLE_LEARNING - Truthy value disables learned-pattern allows
//   - ORK_BROWSER_REQUESTS_PER_MINUTE / _PER_HOUR / ORK_BROWSER_BURST_LIMIT
//   - ORK_ROBOTS_ENFORCEMENT - "off", "false", or "0" disables robots checks
//   - ORK_ROBOTS_TTL_MINUTES - robots.txt cache lifetime
//   - ORK_MEMORY_COMMAND - Command line for the external memory MCP server
//   - ORK_PORT - HTTP server port for serve mode
//
// # Path Management
//
// Per-project state lives under <project>/.ork/state. Outside a project,
// state falls back to ~/.local/state/ork-hooks, and global settings are
// read from ~/.config/ork-hooks; both respect the XDG_STATE_HOME and
// XDG_CONFIG_HOME base overrides.
package config
