package guard

import (
	"fmt"
	"regexp"
	"strings"
)

// commitTypes is the fixed vocabulary for the first token of a commit
// message.
var commitTypes = "feat|fix|docs|style|refactor|perf|test|build|ci|chore|revert"

var (
	commitMsgRe  = regexp.MustCompile(`^(` + commitTypes + `)(\(#\d+\))?: .+`)
	branchNameRe = regexp.MustCompile(`^(feature|fix|docs|chore|refactor|test|perf|build|ci)/[a-z0-9._/-]+$`)
)

const subjectLineLimit = 72

// GitFinding is the outcome of validating the git invocations in a
// command: at most one denial, plus advisories to attach when the command
// is otherwise allowed.
type GitFinding struct {
	Deny       string
	Advisories []string
}

// validateGit inspects git calls for branch protection, commit message
// convention, branch naming, and commit scope. Only branch protection and
// a malformed commit message deny; the rest is guidance.
func validateGit(ctx *CheckContext, protected []string, command string) GitFinding {
	calls := FindCalls(ParseCalls(command), "git")
	if len(calls) == 0 {
		return GitFinding{}
	}

	var finding GitFinding
	for _, call := range calls {
		switch call.Subcommand {
		case "commit":
			if deny := checkProtectedBranch(ctx, protected, "commit"); deny != "" {
				finding.Deny = deny
				return finding
			}
			validateCommit(ctx, call, command, &finding)
			if finding.Deny != "" {
				return finding
			}
		case "push":
			if deny := checkProtectedBranch(ctx, protected, "push"); deny != "" {
				finding.Deny = deny
				return finding
			}
			if HasForcePushWithLease(command) {
				finding.Advisories = append(finding.Advisories,
					"--force-with-lease still rewrites remote history; make sure nobody else builds on the old commits.")
			}
		case "checkout", "switch", "branch":
			if name := newBranchName(call); name != "" && !branchNameRe.MatchString(name) {
				finding.Advisories = append(finding.Advisories, fmt.Sprintf(
					"Branch name %q does not follow type/short-slug (e.g. feature/retry-backoff, fix/nil-deref).", name))
			}
		}
	}

	return finding
}

func checkProtectedBranch(ctx *CheckContext, protected []string, verb string) string {
	branch := ctx.Branch()
	if branch == "" {
		return ""
	}
	for _, p := range protected {
		if branch != p {
			continue
		}
		return fmt.Sprintf(`%s on protected branch %q is blocked.

Move the work to a feature branch:

  git stash
  git checkout -b feature/<short-slug>
  git stash pop
  git commit -m "type(#issue): summary"
  git push -u origin feature/<short-slug>

then open a review from that branch.`, verbTitle(verb), branch)
	}
	return ""
}

func verbTitle(verb string) string {
	switch verb {
	case "commit":
		return "Committing"
	case "push":
		return "Pushing"
	default:
		return verb
	}
}

func validateCommit(ctx *CheckContext, call Call, command string, finding *GitFinding) {
	if strings.Contains(command, "<<") {
		// Heredoc-fed message; content is opaque here.
		finding.Advisories = append(finding.Advisories,
			"Commit message comes from a heredoc and cannot be checked; use the form \"type(#issue): summary\" with types "+commitTypes+".")
		return
	}

	messages := commitMessages(call)
	if len(messages) == 0 {
		// Editor or --amend without a new message.
		finding.Advisories = append(finding.Advisories,
			"Interactive commit; write the message as \"type(#issue): summary\" with types "+commitTypes+".")
		return
	}

	subject := firstLine(messages[0])
	if !commitMsgRe.MatchString(subject) {
		finding.Deny = fmt.Sprintf(`Commit message %q does not match the required format.

Use "type(#issue): summary" or "type: summary", where type is one of:
  %s

Examples:
  feat(#12): add retry backoff to fetcher
  fix: handle empty robots.txt response`, subject, commitTypes)
		return
	}

	if len(subject) > subjectLineLimit {
		finding.Advisories = append(finding.Advisories, fmt.Sprintf(
			"Commit subject is %d characters; keep it at or under %d.", len(subject), subjectLineLimit))
	}

	appendScopeAdvisories(ctx, commitType(subject), finding)
}

// commitMessages collects -m / --message values in order. The first one is
// the subject under the convention.
func commitMessages(call Call) []string {
	var msgs []string
	args := call.Args

	for i := 0; i < len(args); i++ {
		a := args[i]
		switch {
		case a == "-m" || a == "--message":
			if i+1 < len(args) {
				msgs = append(msgs, args[i+1])
				i++
			}
		case strings.HasPrefix(a, "--message="):
			msgs = append(msgs, strings.TrimPrefix(a, "--message="))
		case strings.HasPrefix(a, "-m") && len(a) > 2 && !strings.HasPrefix(a, "--"):
			msgs = append(msgs, a[2:])
		case strings.HasPrefix(a, "-") && !strings.HasPrefix(a, "--") &&
			strings.HasSuffix(a, "m") && len(a) > 2:
			// combined short options ending in -m, like -am
			if i+1 < len(args) {
				msgs = append(msgs, args[i+1])
				i++
			}
		}
	}
	return msgs
}

func firstLine(s string) string {
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		return s[:idx]
	}
	return s
}

func commitType(subject string) string {
	end := strings.IndexAny(subject, "(:")
	if end < 0 {
		return ""
	}
	return subject[:end]
}

// newBranchName returns the branch being created, or "" when the call is
// not a creation (listing, deleting, detached checkout of an existing
// ref).
func newBranchName(call Call) string {
	switch call.Subcommand {
	case "checkout":
		for i, a := range call.Args {
			if (a == "-b" || a == "-B") && i+1 < len(call.Args) {
				return call.Args[i+1]
			}
		}
	case "switch":
		for i, a := range call.Args {
			if (a == "-c" || a == "-C" || a == "--create") && i+1 < len(call.Args) {
				return call.Args[i+1]
			}
		}
	case "branch":
		var positional []string
		for _, a := range call.Args[1:] {
			if strings.HasPrefix(a, "-") {
				// deletion, rename, or listing flags; not a creation
				return ""
			}
			positional = append(positional, a)
		}
		if len(positional) == 1 {
			return positional[0]
		}
	}
	return ""
}

// appendScopeAdvisories applies the atomic-commit heuristics to the staged
// file list. A failed staged lookup yields no advisories.
func appendScopeAdvisories(ctx *CheckContext, typ string, finding *GitFinding) {
	staged := ctx.Staged()
	if len(staged) == 0 {
		return
	}

	dirs := map[string]bool{}
	var hasSource, hasTest, hasDocs, hasConfig bool
	for _, path := range staged {
		dirs[topLevelDir(path)] = true
		switch ClassifyPath(path) {
		case LayerSource:
			hasSource = true
		case LayerTest:
			hasTest = true
		case LayerDocs:
			hasDocs = true
		case LayerConfig:
			hasConfig = true
		}
	}

	if len(dirs) >= 4 {
		finding.Advisories = append(finding.Advisories, fmt.Sprintf(
			"Staged changes span %d top-level directories; consider splitting into focused commits.", len(dirs)))
	}
	if hasSource && hasDocs && hasConfig && !hasTest {
		finding.Advisories = append(finding.Advisories,
			"Source, docs, and config are staged together with no tests; consider adding tests or splitting the commit.")
	}

	switch {
	case typ == "docs" && hasSource:
		finding.Advisories = append(finding.Advisories,
			"Commit type is docs but source files are staged.")
	case typ == "test" && !hasTest:
		finding.Advisories = append(finding.Advisories,
			"Commit type is test but no test files are staged.")
	case (typ == "feat" || typ == "fix") && hasDocs && !hasSource && !hasTest:
		finding.Advisories = append(finding.Advisories, fmt.Sprintf(
			"Commit type is %s but only documentation is staged.", typ))
	}
}
