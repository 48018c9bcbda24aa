// Package script runs line-oriented instruction scripts. Each line after the
// first only runs if the model still thinks it is needed given the results
// recorded so far.
package script

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"tools4ai/internal/logging"
	"tools4ai/internal/pipeline"
	"tools4ai/internal/predict"
)

// ErrScriptNotFound is returned with partial results when the script
// resource cannot be opened.
var ErrScriptNotFound = errors.New("script not found")

const (
	previousMarker = " - here are previous action results "
	skippedPrefix  = "No action taken due to "
	notApproved    = "Action not approved"
	failedPrefix   = "Action failed: "
)

// Entry is one (line, outcome) record.
type Entry struct {
	Line   string `json:"line"`
	Result string `json:"result"`
}

// Result is the append-only record of a run.
type Result struct {
	Entries []Entry `json:"results"`
}

// JSON serializes the result the way it is shown to the model.
func (r *Result) JSON() string {
	data, err := json.Marshal(r)
	if err != nil {
		return "{}"
	}
	return string(data)
}

func (r *Result) add(line, outcome string) {
	r.Entries = append(r.Entries, Entry{Line: line, Result: outcome})
}

// Callback may rewrite each line's outcome before it is recorded.
type Callback func(line, result string) string

// Runner executes one instruction. *pipeline.Processor satisfies it.
type Runner interface {
	Process(ctx context.Context, prompt string) (*pipeline.Outcome, error)
}

// Decider answers the continue and summarize questions. *predict.Engine
// satisfies it.
type Decider interface {
	ScriptContinue(ctx context.Context, line, previous string) (string, error)
	Summarize(ctx context.Context, results string) (string, error)
}

var _ Decider = (*predict.Engine)(nil)

// Orchestrator loads scripts by name from a filesystem.
type Orchestrator struct {
	scripts fs.FS
	runner  Runner
	decider Decider
}

// New returns an Orchestrator reading scripts from fsys.
func New(fsys fs.FS, runner Runner, decider Decider) *Orchestrator {
	return &Orchestrator{scripts: fsys, runner: runner, decider: decider}
}

// Run executes the named script. A missing or unreadable script ends the run
// early with the partial result and an error wrapping ErrScriptNotFound.
// A line whose action fails is recorded as "Action failed: <cause>" and the
// run continues. A failed continue decision stops the run and is returned
// alongside the entries recorded before it.
func (o *Orchestrator) Run(ctx context.Context, name string, cb Callback) (*Result, error) {
	result := &Result{Entries: []Entry{}}

	f, err := o.scripts.Open(name)
	if err != nil {
		logging.ScriptWarn("script %s unavailable: %v", name, err)
		return result, fmt.Errorf("%w: %s: %w", ErrScriptNotFound, name, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if err := o.step(ctx, result, line, cb); err != nil {
			return result, err
		}
	}
	if err := scanner.Err(); err != nil {
		logging.ScriptWarn("script %s read failed: %v", name, err)
		return result, fmt.Errorf("%w: %s: %w", ErrScriptNotFound, name, err)
	}

	logging.Script("script %s finished with %d entries", name, len(result.Entries))
	return result, nil
}

func (o *Orchestrator) step(ctx context.Context, result *Result, line string, cb Callback) error {
	previous := result.JSON()

	proceed := true
	if len(result.Entries) > 0 {
		decision, err := o.decider.ScriptContinue(ctx, line, previous)
		if err != nil {
			return fmt.Errorf("line %q: %w", line, err)
		}
		proceed = strings.Contains(strings.ToLower(decision), "yes")
	}

	var outcome string
	start := time.Now()
	if proceed {
		out, err := o.runner.Process(ctx, line+previousMarker+previous)
		switch {
		case errors.Is(err, pipeline.ErrNotApproved):
			outcome = notApproved
		case err != nil:
			logging.ScriptWarn("line %q failed: %v", line, err)
			outcome = failedPrefix + err.Error()
		default:
			outcome = out.Result
		}
	} else {
		outcome = skippedPrefix + previous
	}

	if cb != nil {
		outcome = cb(line, outcome)
	}
	logging.Script("%s -> %s", line, outcome)
	logging.Audit().ScriptLine(line, proceed, time.Since(start).Milliseconds())
	result.add(line, outcome)
	return nil
}

// Summarize asks the model to summarize a finished run.
func (o *Orchestrator) Summarize(ctx context.Context, result *Result) (string, error) {
	return o.decider.Summarize(ctx, result.JSON())
}
