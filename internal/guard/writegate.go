package guard

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/sergi/go-diff/diffmatchpatch"
)

// secretGlobs deny writes outright: credential material is edited by the
// operator, not by a tool call.
var secretGlobs = []string{
	"**/.env",
	"**/.env.*",
	"**/*.pem",
	"**/*.key",
	"**/*.p12",
	"**/*.pfx",
	"**/id_rsa*",
	"**/id_ed25519*",
	"**/*credentials*",
	"**/.aws/**",
	"**/.ssh/**",
	"**/secrets.*",
}

var credentialAssignment = regexp.MustCompile(`(?i)(api[_-]?key|secret|token|password)\s*[:=]\s*['"][^'"]{8,}`)

// largeChangeLines is the rewrite size, in changed lines, that draws an
// advisory.
const largeChangeLines = 400

// maxDiffBytes caps how much of an existing file is read for the diff
// advisory.
const maxDiffBytes = 1 << 20

// WriteFinding is the verdict on a file write: at most one denial plus
// advisories.
type WriteFinding struct {
	Deny       string
	Advisories []string
}

// CheckWrite vets a Write/Edit tool call. Credential files and .git
// internals deny; everything else allows, with advisories for rewrites
// that replace large parts of a file, writes outside the project, and
// config files that appear to embed a credential.
func CheckWrite(projectDir, path, content string) WriteFinding {
	if path == "" {
		return WriteFinding{}
	}

	var finding WriteFinding
	slashPath := strings.ToLower(filepath.ToSlash(path))

	for _, glob := range secretGlobs {
		match, err := doublestar.Match(glob, slashPath)
		if err != nil {
			continue
		}
		if match {
			finding.Deny = fmt.Sprintf("Write to credential file blocked (%s matches %s).", path, glob)
			return finding
		}
	}

	if hasPathSegment(slashPath, ".git") {
		finding.Deny = fmt.Sprintf("Write into .git blocked (%s); repository internals are managed by git itself.", path)
		return finding
	}

	if projectDir != "" && !isWithinDir(path, projectDir) {
		finding.Advisories = append(finding.Advisories, fmt.Sprintf(
			"%s is outside the project directory.", path))
	}

	if ClassifyPath(path) == LayerConfig && credentialAssignment.MatchString(content) {
		finding.Advisories = append(finding.Advisories,
			"Content looks like it embeds a credential; move secrets to the environment.")
	}

	if added, removed, ok := diffSize(path, content); ok && added+removed > largeChangeLines {
		finding.Advisories = append(finding.Advisories, fmt.Sprintf(
			"This write replaces a large part of %s (+%d/-%d lines); consider smaller, reviewable edits.",
			filepath.Base(path), added, removed))
	}

	return finding
}

// diffSize diffs the proposed content against the file on disk and counts
// changed lines. Missing files, oversized files, and empty content skip
// the check.
func diffSize(path, content string) (added, removed int, ok bool) {
	if content == "" {
		return 0, 0, false
	}
	info, err := os.Stat(path)
	if err != nil || info.IsDir() || info.Size() > maxDiffBytes {
		return 0, 0, false
	}
	old, err := os.ReadFile(path)
	if err != nil {
		return 0, 0, false
	}

	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(string(old), content)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	for _, d := range diffs {
		n := strings.Count(d.Text, "\n")
		if n == 0 && d.Text != "" {
			n = 1
		}
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			added += n
		case diffmatchpatch.DiffDelete:
			removed += n
		}
	}
	return added, removed, true
}

// isWithinDir reports whether path sits under dir once both are made
// absolute.
func isWithinDir(path, dir string) bool {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return true
	}
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return true
	}
	rel, err := filepath.Rel(absDir, absPath)
	if err != nil {
		return false
	}
	return rel == "." || (!strings.HasPrefix(rel, "..") && !filepath.IsAbs(rel))
}
