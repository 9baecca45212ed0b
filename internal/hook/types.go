// Package hook implements the wire contract between the host runtime and the
// gating modules: JSON input on stdin describing one tool-use event, JSON
// result on stdout carrying the decision. Stdout belongs to the protocol;
// anything else a module wants to say goes through the logger (stderr).
package hook

import (
	"encoding/json"
	"strings"
)

// Event names used in hookSpecificOutput.hookEventName.
const (
	EventPreToolUse  = "PreToolUse"
	EventPostToolUse = "PostToolUse"
)

// Input is one tool-use event as delivered by the host. The host constructs
// it per event; gating modules treat it as immutable.
type Input struct {
	SessionID     string          `json:"session_id,omitempty"`
	HookEventName string          `json:"hook_event_name,omitempty"`
	ToolName      string          `json:"tool_name,omitempty"`
	ToolInput     ToolInput       `json:"tool_input,omitempty"`
	ToolResponse  json.RawMessage `json:"tool_response,omitempty"`
	ProjectDir    string          `json:"project_dir,omitempty"`
	Cwd           string          `json:"cwd,omitempty"`
}

// ToolInput carries the fields gating modules care about. Tools ship
// different shapes; unknown fields are ignored and a non-object tool_input
// decodes to the zero value so the gate short-circuits to a no-op allow
// instead of erroring.
type ToolInput struct {
	Command     string `json:"command,omitempty"`
	FilePath    string `json:"file_path,omitempty"`
	Content     string `json:"content,omitempty"`
	URL         string `json:"url,omitempty"`
	Description string `json:"description,omitempty"`

	raw json.RawMessage
}

func (ti *ToolInput) UnmarshalJSON(data []byte) error {
	raw := make(json.RawMessage, len(data))
	copy(raw, data)

	type plain ToolInput
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		*ti = ToolInput{raw: raw}
		return nil
	}
	*ti = ToolInput(p)
	ti.raw = raw
	return nil
}

func (ti ToolInput) MarshalJSON() ([]byte, error) {
	if ti.raw != nil {
		return ti.raw, nil
	}
	type plain ToolInput
	return json.Marshal(plain(ti))
}

// Raw returns the undecoded tool_input payload, if any.
func (ti ToolInput) Raw() json.RawMessage { return ti.raw }

// ResponseText flattens tool_response into free text for the decision
// extractor. The host sends either a bare string or an object whose output
// fields hold the text; anything else is returned verbatim.
func (in *Input) ResponseText() string {
	if len(in.ToolResponse) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(in.ToolResponse, &s); err == nil {
		return s
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(in.ToolResponse, &obj); err == nil {
		var parts []string
		for _, key := range []string{"output", "stdout", "stderr", "content", "text"} {
			var v string
			if raw, ok := obj[key]; ok && json.Unmarshal(raw, &v) == nil && v != "" {
				parts = append(parts, v)
			}
		}
		return strings.Join(parts, "\n")
	}

	return string(in.ToolResponse)
}

// Result is the decision returned to the host. Continue=false is the only
// way to block the underlying tool call.
type Result struct {
	Continue           bool            `json:"continue"`
	SuppressOutput     bool            `json:"suppressOutput,omitempty"`
	SystemMessage      string          `json:"systemMessage,omitempty"`
	HookSpecificOutput *SpecificOutput `json:"hookSpecificOutput,omitempty"`
}

// SpecificOutput carries event-scoped decision detail. PermissionDecision
// "allow" short-circuits the host's own permission prompt; AdditionalContext
// is guidance text surfaced to the invoking agent.
type SpecificOutput struct {
	HookEventName            string `json:"hookEventName,omitempty"`
	PermissionDecision       string `json:"permissionDecision,omitempty"`
	PermissionDecisionReason string `json:"permissionDecisionReason,omitempty"`
	AdditionalContext        string `json:"additionalContext,omitempty"`
}

// Allow is the quiet pass: the tool call proceeds and the operator sees
// nothing.
func Allow() *Result {
	return &Result{Continue: true, SuppressOutput: true}
}

// Deny blocks the tool call, naming the rule that fired.
func Deny(message string) *Result {
	return &Result{Continue: false, SystemMessage: message}
}

// AllowApproved passes the call and tells the host to skip its own
// permission prompt. Used when a learned pattern matches.
func AllowApproved(reason string) *Result {
	return &Result{
		Continue: true,
		HookSpecificOutput: &SpecificOutput{
			HookEventName:            EventPreToolUse,
			PermissionDecision:       "allow",
			PermissionDecisionReason: reason,
		},
	}
}

// AllowWithGuidance passes the call but attaches advisory text the operator
// sees. Advisories never block.
func AllowWithGuidance(message string) *Result {
	return &Result{Continue: true, SystemMessage: message}
}

// AllowWithContext passes the call and hands extracted context back to the
// invoking agent.
func AllowWithContext(eventName, context string) *Result {
	return &Result{
		Continue:       true,
		SuppressOutput: true,
		HookSpecificOutput: &SpecificOutput{
			HookEventName:     eventName,
			AdditionalContext: context,
		},
	}
}

// Blocked reports whether the result denies the tool call.
func (r *Result) Blocked() bool {
	return r != nil && !r.Continue
}

// AddGuidance appends advisory text to an existing result, joining multiple
// advisories with blank lines.
func (r *Result) AddGuidance(message string) {
	if message == "" {
		return
	}
	if r.SystemMessage == "" {
		r.SystemMessage = message
	} else {
		r.SystemMessage += "\n\n" + message
	}
	r.SuppressOutput = false
}
