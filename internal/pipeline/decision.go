package pipeline

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"tools4ai/internal/logging"
)

// HumanDecision may veto an action before it runs.
type HumanDecision interface {
	Approve(ctx context.Context, prompt, action string) bool
}

// ExplainDecision receives the model's explanation of a selection.
type ExplainDecision interface {
	OnExplain(prompt, action, explanation string)
}

// HumanDecisionFunc adapts a function to HumanDecision.
type HumanDecisionFunc func(ctx context.Context, prompt, action string) bool

// Approve calls f.
func (f HumanDecisionFunc) Approve(ctx context.Context, prompt, action string) bool {
	return f(ctx, prompt, action)
}

// ExplainDecisionFunc adapts a function to ExplainDecision.
type ExplainDecisionFunc func(prompt, action, explanation string)

// OnExplain calls f.
func (f ExplainDecisionFunc) OnExplain(prompt, action, explanation string) {
	f(prompt, action, explanation)
}

// LoggingHumanDecision approves everything and logs that it did.
type LoggingHumanDecision struct{}

// Approve implements HumanDecision.
func (LoggingHumanDecision) Approve(ctx context.Context, prompt, action string) bool {
	logging.Get(logging.CategoryPipeline).Info("auto-approved %s for %q", action, prompt)
	return true
}

// LoggingExplainDecision logs explanations.
type LoggingExplainDecision struct{}

// OnExplain implements ExplainDecision.
func (LoggingExplainDecision) OnExplain(prompt, action, explanation string) {
	logging.Get(logging.CategoryPipeline).Info("%s chosen for %q: %s", action, prompt, explanation)
}

// ConsoleHumanDecision asks y/N on a terminal-like pair of streams.
// Anything but y or yes is a veto, including EOF.
type ConsoleHumanDecision struct {
	In  io.Reader
	Out io.Writer

	once   sync.Once
	reader *bufio.Reader
}

// Approve implements HumanDecision.
func (c *ConsoleHumanDecision) Approve(ctx context.Context, prompt, action string) bool {
	c.once.Do(func() { c.reader = bufio.NewReader(c.In) })

	fmt.Fprintf(c.Out, "Run action %q for %q? [y/N]: ", action, prompt)
	line, err := c.reader.ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}
