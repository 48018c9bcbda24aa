// Package tactile executes actions that live outside the process: shell
// scripts and HTTP endpoints.
package tactile

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"time"

	"tools4ai/internal/actions"
	"tools4ai/internal/logging"
)

const (
	defaultTimeout   = 60 * time.Second
	defaultMaxOutput = 50000
	// waitDelay bounds how long Run waits on pipes held open by children of
	// a killed script.
	waitDelay = 2 * time.Second
)

// ErrTimeout is returned when a shell action outlives its timeout.
var ErrTimeout = errors.New("action timed out")

// ShellExecutor runs shell actions with their args as positional parameters.
type ShellExecutor struct {
	// Timeout applies when ShellSpec.TimeoutSecs is zero.
	Timeout time.Duration
	// MaxOutput caps the combined output returned to the caller.
	MaxOutput int
}

// NewShellExecutor returns an executor with the default limits.
func NewShellExecutor() *ShellExecutor {
	return &ShellExecutor{Timeout: defaultTimeout, MaxOutput: defaultMaxOutput}
}

// Run executes spec.Script with args in declared order and returns stdout,
// followed by stderr when there is any.
func (e *ShellExecutor) Run(ctx context.Context, spec *actions.ShellSpec, args []any) (string, error) {
	if spec == nil || spec.Script == "" {
		return "", fmt.Errorf("%w: shell action has no script", actions.ErrInvalidSpec)
	}

	timeout := e.Timeout
	if spec.TimeoutSecs > 0 {
		timeout = time.Duration(spec.TimeoutSecs) * time.Second
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	execCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	name, argv := command(spec, args)
	cmd := exec.CommandContext(execCtx, name, argv...)
	cmd.Dir = spec.WorkingDir
	cmd.Env = os.Environ()
	cmd.WaitDelay = waitDelay

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	logging.TactileDebug("shell: %s %v (timeout=%v)", name, argv, timeout)
	err := cmd.Run()

	output := stdout.String()
	if stderr.Len() > 0 {
		if output != "" {
			output += "\n--- stderr ---\n"
		}
		output += stderr.String()
	}
	output = truncate(output, e.maxOutput())

	if err != nil {
		if errors.Is(execCtx.Err(), context.DeadlineExceeded) {
			return output, fmt.Errorf("%w: %s after %v", ErrTimeout, spec.Script, timeout)
		}
		logging.Tactile("shell action failed: %s (%v)", spec.Script, err)
		return output, fmt.Errorf("script %s failed: %w", spec.Script, err)
	}

	logging.Tactile("shell action completed: %s (%d bytes output)", spec.Script, len(output))
	return output, nil
}

func (e *ShellExecutor) maxOutput() int {
	if e.MaxOutput > 0 {
		return e.MaxOutput
	}
	return defaultMaxOutput
}

// command builds the argv. With no interpreter the script is handed to the
// platform shell, which also receives the args as $1..$n.
func command(spec *actions.ShellSpec, args []any) (string, []string) {
	positional := make([]string, len(args))
	for i, a := range args {
		positional[i] = Stringify(a)
	}

	if spec.Interpreter != "" {
		return spec.Interpreter, append([]string{spec.Script}, positional...)
	}
	if runtime.GOOS == "windows" {
		return "cmd", append([]string{"/C", spec.Script}, positional...)
	}
	return "sh", append([]string{spec.Script}, positional...)
}

// Stringify renders one argument for a command line or query string.
// Scalars print as themselves; maps, slices and structs are encoded as JSON.
func Stringify(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return fmt.Sprintf("%g", x)
	case float32:
		return fmt.Sprintf("%g", x)
	case bool, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, fmt.Stringer:
		return fmt.Sprint(x)
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(data)
}

func truncate(s string, limit int) string {
	if len(s) > limit {
		return s[:limit] + "\n...[truncated]"
	}
	return s
}
