package predict

import (
	"regexp"
	"strings"

	"tools4ai/internal/actions"
)

// ParseActionList splits a multi-action reply on commas, falling back to
// newlines when the model ignored the delimiter. Tokens are trimmed; empty
// tokens are dropped.
func ParseActionList(raw string) []string {
	tokens := strings.Split(raw, ",")
	if len(tokens) <= 1 {
		tokens = strings.Split(raw, "\n")
	}
	names := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if t = strings.TrimSpace(t); t != "" {
			names = append(names, t)
		}
	}
	return names
}

var listMarker = regexp.MustCompile(`^(?:[-*]|\d+[.)])\s+`)

// Step is one (sub-prompt, action) pair of a decomposition.
type Step struct {
	Prompt string
	Action string
}

// IsNoOp reports whether the step was marked as matching no action.
func (s Step) IsNoOp() bool {
	return s.Action == actions.NoOpName
}

// ParseSteps parses "sub-prompt,action" lines. The action is whatever follows
// the last comma, so sub-prompts may themselves contain commas. Lines without
// a comma become no-op steps.
func ParseSteps(raw string) []Step {
	var steps []Step
	for _, line := range strings.Split(raw, "\n") {
		line = listMarker.ReplaceAllString(strings.TrimSpace(line), "")
		if line == "" {
			continue
		}
		i := strings.LastIndex(line, ",")
		if i < 0 {
			steps = append(steps, Step{Prompt: line, Action: actions.NoOpName})
			continue
		}
		action := strings.TrimSpace(line[i+1:])
		if action == "" {
			action = actions.NoOpName
		}
		steps = append(steps, Step{
			Prompt: strings.TrimSpace(line[:i]),
			Action: action,
		})
	}
	return steps
}
