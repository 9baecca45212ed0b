package config

import (
	"os"
	"path/filepath"
)

// projectDirName is the dot-directory holding per-project settings and
// state.
const projectDirName = ".ork"

// StateDir returns the per-project state directory. ORK_STATE_DIR
// overrides the default <project>/.ork/state; an empty project directory
// falls back to the global XDG state path so the gate still works
// outside a project.
func StateDir(projectDir string) string {
	if dir := os.Getenv("ORK_STATE_DIR"); dir != "" {
		return dir
	}
	if projectDir == "" {
		return globalStateDir()
	}
	return filepath.Join(projectDir, projectDirName, "state")
}

// globalConfigDir returns the directory holding global settings,
// ~/.config/ork-hooks unless XDG_CONFIG_HOME moves the base.
func globalConfigDir() string {
	return filepath.Join(xdgBase("XDG_CONFIG_HOME", ".config"), "ork-hooks")
}

// globalStateDir returns the state directory used outside any project,
// ~/.local/state/ork-hooks unless XDG_STATE_HOME moves the base.
func globalStateDir() string {
	return filepath.Join(xdgBase("XDG_STATE_HOME", ".local", "state"), "ork-hooks")
}

// xdgBase returns the base directory named by env when set, otherwise
// the fallback elements joined under the home directory.
func xdgBase(env string, fallback ...string) string {
	if dir := os.Getenv(env); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(append([]string{home}, fallback...)...)
}
