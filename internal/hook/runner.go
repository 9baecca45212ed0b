package hook

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/ork-ai/orkhooks/internal/logging"
)

// maxInputBytes bounds how much of stdin we read; tool output on
// PostToolUse events can be large.
const maxInputBytes = 10 << 20

// HandlerFunc evaluates one tool-use event and returns the decision.
type HandlerFunc func(ctx context.Context, in *Input) *Result

// Runner drives a single hook invocation: decode one Input from stdin,
// evaluate it, encode exactly one Result to stdout.
//
// The runner is the recovery boundary for the whole pipeline. Malformed
// input, handler panics, and nil results all collapse to a quiet allow so an
// internal failure can never wedge the host's tool loop. Deny decisions only
// come out of handlers that returned them deliberately.
type Runner struct {
	Name    string
	Handler HandlerFunc

	// In and Out default to stdin/stdout; tests substitute buffers.
	In  io.Reader
	Out io.Writer
}

// NewRunner returns a runner wired to the process's stdin and stdout.
func NewRunner(name string, handler HandlerFunc) *Runner {
	return &Runner{
		Name:    name,
		Handler: handler,
		In:      os.Stdin,
		Out:     os.Stdout,
	}
}

// Run executes one invocation. The returned error reports output-encoding
// failures only; every other failure mode has already been absorbed into
// the emitted result.
func (r *Runner) Run(ctx context.Context) error {
	in := r.decode()
	result := r.evaluate(ctx, in)

	if err := json.NewEncoder(r.Out).Encode(result); err != nil {
		return fmt.Errorf("encoding hook result: %w", err)
	}
	return nil
}

// decode reads the event off stdin. Anything unreadable comes back as an
// empty Input, which handlers treat as a no-op allow.
func (r *Runner) decode() *Input {
	data, err := io.ReadAll(io.LimitReader(r.In, maxInputBytes))
	if err != nil {
		logging.Warn().Err(err).Str("hook", r.Name).Msg("Failed to read hook input")
		return &Input{}
	}

	var in Input
	if err := json.Unmarshal(data, &in); err != nil {
		logging.Warn().Err(err).Str("hook", r.Name).Msg("Malformed hook input")
		return &Input{}
	}
	return &in
}

func (r *Runner) evaluate(ctx context.Context, in *Input) (result *Result) {
	defer func() {
		if rec := recover(); rec != nil {
			logging.Error().
				Str("hook", r.Name).
				Interface("panic", rec).
				Msg("Hook handler panicked, allowing")
			result = Allow()
		}
	}()

	if r.Handler == nil {
		return Allow()
	}
	result = r.Handler(ctx, in)
	if result == nil {
		result = Allow()
	}
	return result
}
