package guard

import (
	"fmt"
	"strings"
	"sync"

	"github.com/ork-ai/orkhooks/internal/config"
	"github.com/ork-ai/orkhooks/internal/event"
	"github.com/ork-ai/orkhooks/internal/hook"
	"github.com/ork-ai/orkhooks/internal/store"
	"github.com/ork-ai/orkhooks/internal/vcs"
)

// Gate evaluates tool calls against the command and write policies.
type Gate struct {
	cfg    *config.Config
	st     *store.Store
	dryRun bool
}

func New(cfg *config.Config, st *store.Store) *Gate {
	return &Gate{cfg: cfg, st: st}
}

// NewDryRun returns a gate that evaluates without recording: no denial
// history, no published events, so nothing reaches the audit trail.
// Serve mode uses it for check requests.
func NewDryRun(cfg *config.Config, st *store.Store) *Gate {
	return &Gate{cfg: cfg, st: st, dryRun: true}
}

// CheckContext carries per-invocation state for the validators. Branch and
// staged-file lookups run at most once per invocation and die with it;
// nothing is cached across tool calls.
type CheckContext struct {
	ProjectDir string

	branchOnce sync.Once
	branch     string
	branchFn   func() string

	stagedOnce sync.Once
	staged     []string
	stagedFn   func() []string
}

// NewCheckContext builds a context whose lookups shell out to git in
// projectDir.
func NewCheckContext(projectDir string) *CheckContext {
	return &CheckContext{
		ProjectDir: projectDir,
		branchFn:   func() string { return vcs.CurrentBranch(projectDir) },
		stagedFn:   func() []string { return vcs.StagedFiles(projectDir) },
	}
}

// Branch returns the current git branch, or "" outside a repository.
func (c *CheckContext) Branch() string {
	c.branchOnce.Do(func() {
		if c.branchFn != nil {
			c.branch = c.branchFn()
		}
	})
	return c.branch
}

// Staged returns the staged file list, or nil when the lookup fails.
func (c *CheckContext) Staged() []string {
	c.stagedOnce.Do(func() {
		if c.stagedFn != nil {
			c.staged = c.stagedFn()
		}
	})
	return c.staged
}

// Check routes a tool call to the matching policy. Tools with no policy
// pass through silently.
func (g *Gate) Check(in *hook.Input) *hook.Result {
	switch {
	case strings.EqualFold(in.ToolName, "Bash"):
		return g.checkBash(in)
	case isFileWriteTool(in.ToolName):
		return g.checkFileWrite(in)
	default:
		return hook.Allow()
	}
}

func isFileWriteTool(name string) bool {
	switch name {
	case "Write", "Edit", "MultiEdit", "NotebookEdit":
		return true
	}
	return false
}

// checkBash runs the full command pipeline: danger catalog, shell-feature
// validator, git validator, then learned patterns. The catalog always runs
// before learned patterns so a learned prefix can never clear a dangerous
// command.
func (g *Gate) checkBash(in *hook.Input) *hook.Result {
	command := strings.TrimSpace(in.ToolInput.Command)
	if command == "" {
		return hook.Allow()
	}

	cctx := NewCheckContext(projectDirOf(in))

	if det := DetectDangerous(command); det.Matches {
		return g.deny(in, "dangerous-command", det.Pattern, fmt.Sprintf(
			"Dangerous command blocked: %s (in %q).", det.Pattern, det.SubCommand))
	}

	if feature, ok := CheckShellFeatures(command); ok {
		return g.deny(in, "shell-feature", feature, fmt.Sprintf(
			"Blocked shell feature: %s. Rewrite the command without it so it can be checked.", feature))
	}

	finding := validateGit(cctx, g.cfg.ProtectedBranches, command)
	if finding.Deny != "" {
		return g.deny(in, "git", "git policy", finding.Deny)
	}

	if !g.cfg.DisableLearning {
		if pattern, ok := MatchLearned(g.st, command); ok {
			g.publishAllow(in, "command", "learned")
			res := hook.AllowApproved(fmt.Sprintf("Matches learned pattern %q.", pattern))
			g.attachAdvisories(in, "command", res, finding.Advisories)
			return res
		}
	}

	g.publishAllow(in, "command", "default")
	res := hook.Allow()
	g.attachAdvisories(in, "command", res, finding.Advisories)
	return res
}

func (g *Gate) checkFileWrite(in *hook.Input) *hook.Result {
	if in.ToolInput.FilePath == "" {
		return hook.Allow()
	}

	finding := CheckWrite(projectDirOf(in), in.ToolInput.FilePath, in.ToolInput.Content)
	if finding.Deny != "" {
		return g.deny(in, "write", "write policy", finding.Deny)
	}

	g.publishAllow(in, "write", "default")
	res := hook.Allow()
	g.attachAdvisories(in, "write", res, finding.Advisories)
	return res
}

func projectDirOf(in *hook.Input) string {
	if in.ProjectDir != "" {
		return in.ProjectDir
	}
	return in.Cwd
}

// deny records the denial, attaches repeat guidance once the same call has
// been denied enough times, and publishes the verdict before returning it.
func (g *Gate) deny(in *hook.Input, category, rule, message string) *hook.Result {
	if g.dryRun {
		return hook.Deny(message)
	}

	if RecordDenial(g.st, in.SessionID, in.ToolName, in.ToolInput.Raw()) {
		message += "\n\n" + RepeatGuidance
	}

	event.PublishSync(event.Event{
		Type: event.GateDenied,
		Data: event.GateDeniedData{
			SessionID: in.SessionID,
			Tool:      in.ToolName,
			Category:  category,
			Rule:      rule,
			Reason:    firstLine(message),
		},
	})
	return hook.Deny(message)
}

func (g *Gate) publishAllow(in *hook.Input, category, source string) {
	if g.dryRun {
		return
	}
	event.PublishSync(event.Event{
		Type: event.GateAllowed,
		Data: event.GateAllowedData{
			SessionID: in.SessionID,
			Tool:      in.ToolName,
			Category:  category,
			Source:    source,
		},
	})
}

func (g *Gate) attachAdvisories(in *hook.Input, category string, res *hook.Result, advisories []string) {
	for _, adv := range advisories {
		res.AddGuidance(adv)
		if g.dryRun {
			continue
		}
		event.PublishSync(event.Event{
			Type: event.GateAdvisory,
			Data: event.GateAdvisoryData{
				SessionID: in.SessionID,
				Tool:      in.ToolName,
				Category:  category,
				Message:   adv,
			},
		})
	}
}
