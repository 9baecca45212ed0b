// Package vcs provides git integration: one-shot branch and staged-file
// lookups for the gate, and a HEAD watcher for serve mode.
package vcs

import (
	"context"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// gitTimeout bounds every git subprocess. A hung git must not stall a
// gating decision.
const gitTimeout = 2 * time.Second

// runGit runs one git command under gitTimeout and returns its trimmed
// stdout.
func runGit(dir string, args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), gitTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	out, err := cmd.Output()
	return strings.TrimSpace(string(out)), err
}

// CurrentBranch returns the checked-out branch for a directory, or ""
// when the lookup fails or the directory is not a repository. A detached
// HEAD reads as "HEAD".
func CurrentBranch(workDir string) string {
	branch, err := runGit(workDir, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return ""
	}
	return branch
}

// StagedFiles returns the paths staged for commit, or nil when the
// lookup fails. Callers treat nil as "no scope information", never as an
// error.
func StagedFiles(workDir string) []string {
	out, err := runGit(workDir, "diff", "--cached", "--name-only")
	if err != nil || out == "" {
		return nil
	}
	return strings.Split(out, "\n")
}

// findGitDir resolves the git directory behind workDir. Worktrees carry
// a .git file pointing elsewhere, so resolution goes through git itself
// rather than a filesystem probe.
func findGitDir(workDir string) string {
	gitDir, err := runGit(workDir, "rev-parse", "--git-dir")
	if err != nil {
		return ""
	}
	if !filepath.IsAbs(gitDir) {
		gitDir = filepath.Join(workDir, gitDir)
	}
	return gitDir
}
