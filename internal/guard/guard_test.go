package guard

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ork-ai/orkhooks/internal/config"
	"github.com/ork-ai/orkhooks/internal/hook"
	"github.com/ork-ai/orkhooks/internal/store"
)

func newTestGate(t *testing.T) (*Gate, *store.Store, string) {
	t.Helper()
	project := t.TempDir()
	st := store.New(filepath.Join(project, ".ork", "state"))
	cfg := config.Default(project)
	return New(cfg, st), st, project
}

func bashInput(project, session, command string) *hook.Input {
	return &hook.Input{
		SessionID:     session,
		HookEventName: hook.EventPreToolUse,
		ToolName:      "Bash",
		ToolInput:     hook.ToolInput{Command: command},
		ProjectDir:    project,
	}
}

func writeInput(project, path, content string) *hook.Input {
	return &hook.Input{
		SessionID:     "write-session",
		HookEventName: hook.EventPreToolUse,
		ToolName:      "Write",
		ToolInput:     hook.ToolInput{FilePath: path, Content: content},
		ProjectDir:    project,
	}
}

// The canonical scenario: a safe command, a catastrophic one, a bad commit
// message, and a conventional commit, against a clean store.
func TestGate_EndToEnd(t *testing.T) {
	gate, _, project := newTestGate(t)

	scenarios := []struct {
		command string
		blocked bool
	}{
		{"ls -la", false},
		{"rm -rf /", true},
		{"git commit -m 'bad message'", true},
		{"git commit -m 'feat(#12): add x'", false},
	}

	for _, sc := range scenarios {
		res := gate.Check(bashInput(project, "e2e-session", sc.command))
		require.NotNil(t, res, "command %q", sc.command)
		assert.Equal(t, sc.blocked, res.Blocked(), "command %q", sc.command)
	}
}

func TestGate_DenyNamesThePattern(t *testing.T) {
	gate, _, project := newTestGate(t)

	res := gate.Check(bashInput(project, "s1", "rm -rf /"))
	require.True(t, res.Blocked())
	assert.Contains(t, res.SystemMessage, "rm targeting filesystem root")
}

func TestGate_QuietAllowSuppressesOutput(t *testing.T) {
	gate, _, project := newTestGate(t)

	res := gate.Check(bashInput(project, "s1", "ls -la"))
	assert.True(t, res.Continue)
	assert.True(t, res.SuppressOutput)
	assert.Empty(t, res.SystemMessage)
}

func TestGate_EmptyCommandAllows(t *testing.T) {
	gate, _, project := newTestGate(t)

	res := gate.Check(bashInput(project, "s1", ""))
	assert.False(t, res.Blocked())
}

func TestGate_UnknownToolAllows(t *testing.T) {
	gate, _, project := newTestGate(t)

	res := gate.Check(&hook.Input{
		SessionID:  "s1",
		ToolName:   "Glob",
		ToolInput:  hook.ToolInput{},
		ProjectDir: project,
	})
	assert.False(t, res.Blocked())
	assert.True(t, res.SuppressOutput)
}

func TestGate_ShellFeatureDeny(t *testing.T) {
	gate, _, project := newTestGate(t)

	res := gate.Check(bashInput(project, "s1", `bash <<< "rm -rf /"`))
	require.True(t, res.Blocked())
	assert.Contains(t, res.SystemMessage, "here-string")
}

func TestGate_LearnedPatternApproves(t *testing.T) {
	gate, st, project := newTestGate(t)
	require.NoError(t, AddPattern(st, "npm run "))

	res := gate.Check(bashInput(project, "s1", "npm run build"))
	assert.False(t, res.Blocked())
	require.NotNil(t, res.HookSpecificOutput)
	assert.Equal(t, "allow", res.HookSpecificOutput.PermissionDecision)
	assert.Contains(t, res.HookSpecificOutput.PermissionDecisionReason, "npm run ")
}

func TestGate_BlocklistBeatsLearnedPattern(t *testing.T) {
	gate, st, project := newTestGate(t)

	// AddPattern refuses dangerous patterns, so plant one directly.
	require.NoError(t, st.WriteDoc(store.LearnedPatternsFile, map[string]any{
		"autoApprovePatterns": []string{"rm -rf /"},
	}))

	res := gate.Check(bashInput(project, "s1", "rm -rf /"))
	require.True(t, res.Blocked(), "a learned pattern must never clear a deny-listed command")
	assert.Contains(t, res.SystemMessage, "rm targeting filesystem root")
}

func TestGate_LearningDisabled(t *testing.T) {
	gate, st, project := newTestGate(t)
	require.NoError(t, AddPattern(st, "npm run "))
	gate.cfg.DisableLearning = true

	res := gate.Check(bashInput(project, "s1", "npm run build"))
	assert.False(t, res.Blocked())
	assert.Nil(t, res.HookSpecificOutput, "no learned approval when learning is off")
}

func TestGate_RepeatedDenialAddsGuidance(t *testing.T) {
	gate, _, project := newTestGate(t)

	var res *hook.Result
	for i := 0; i < 3; i++ {
		res = gate.Check(bashInput(project, "loop-session", "rm -rf /"))
		require.True(t, res.Blocked())
	}
	assert.Contains(t, res.SystemMessage, "denied repeatedly",
		"third identical denial should carry repeat guidance")

	// A different session starts fresh.
	res = gate.Check(bashInput(project, "fresh-session", "rm -rf /"))
	assert.NotContains(t, res.SystemMessage, "denied repeatedly")
}

func TestGate_WriteDenyAndAllow(t *testing.T) {
	gate, _, project := newTestGate(t)

	res := gate.Check(writeInput(project, filepath.Join(project, ".env"), "SECRET=1"))
	require.True(t, res.Blocked())
	assert.Contains(t, res.SystemMessage, "credential")

	res = gate.Check(writeInput(project, filepath.Join(project, "main.go"), "package main\n"))
	assert.False(t, res.Blocked())
}

func TestGate_WriteMissingPathAllows(t *testing.T) {
	gate, _, project := newTestGate(t)

	res := gate.Check(&hook.Input{
		SessionID:  "s1",
		ToolName:   "Write",
		ToolInput:  hook.ToolInput{},
		ProjectDir: project,
	})
	assert.False(t, res.Blocked())
}

func TestRecordDenial_Threshold(t *testing.T) {
	st := newTestStore(t)

	input := []byte(`{"command":"rm -rf /"}`)
	assert.False(t, RecordDenial(st, "s1", "Bash", input))
	assert.False(t, RecordDenial(st, "s1", "Bash", input))
	assert.True(t, RecordDenial(st, "s1", "Bash", input), "third identical denial hits the threshold")

	// A different input resets the run.
	assert.False(t, RecordDenial(st, "s1", "Bash", []byte(`{"command":"other"}`)))
	assert.False(t, RecordDenial(st, "s1", "Bash", input))

	// Other sessions are independent.
	assert.False(t, RecordDenial(st, "s2", "Bash", input))
}

func TestRecordDenial_EmptySession(t *testing.T) {
	st := newTestStore(t)
	assert.False(t, RecordDenial(st, "", "Bash", []byte(`{}`)))
}
