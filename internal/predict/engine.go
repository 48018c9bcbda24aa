// Package predict asks the model which registered actions fit an instruction.
//
// The Engine keeps two long-lived chat sessions: one for selection (and the
// script decisions layered on top of it) and one for explanations. Sessions
// hold history and must not be shared between concurrent instruction streams;
// build one Engine per stream instead.
package predict

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"tools4ai/internal/actions"
	"tools4ai/internal/logging"
	"tools4ai/internal/perception"
)

const (
	preAction      = "here is my prompt - "
	actionQuestion = "- what action do you think we should take "
	replyWith      = " - reply back with "
	singleSuffix   = " action only"
	multiSuffix    = " actions only, in comma separated list without any additional special characters"
)

// Engine is the prediction front end over the selection and explain sessions.
type Engine struct {
	registry  *actions.Registry
	selection perception.Chat
	explain   perception.Chat
}

// New starts both sessions on client.
func New(ctx context.Context, client perception.Client, registry *actions.Registry) (*Engine, error) {
	selection, err := client.StartChat(ctx)
	if err != nil {
		return nil, fmt.Errorf("start selection session: %w", err)
	}
	explain, err := client.StartChat(ctx)
	if err != nil {
		return nil, fmt.Errorf("start explain session: %w", err)
	}
	return &Engine{registry: registry, selection: selection, explain: explain}, nil
}

// Registry returns the registry the engine renders names from.
func (e *Engine) Registry() *actions.Registry {
	return e.registry
}

// SelectionPrompt renders the selection prompt asking for n actions.
func SelectionPrompt(prompt, names string, n int) string {
	suffix := singleSuffix
	if n > 1 {
		suffix = multiSuffix
	}
	return preAction + prompt + actionQuestion + names + replyWith + strconv.Itoa(n) + suffix
}

// DecompositionPrompt renders the multi-step breakdown prompt.
func DecompositionPrompt(prompt, names string) string {
	return "break down this prompt into multiple prompts and associated action in comma separated list, " +
		"this is your prompt - " + prompt + " - action list is here -" + names +
		" you will provide the result in this format - sub-prompt,action. " +
		"If no action matches the sub-prompt please put " + actions.NoOpName
}

// PredictSingle returns the model's candidate action name for prompt. The
// name is not checked against the registry.
func (e *Engine) PredictSingle(ctx context.Context, prompt string) (string, error) {
	text, err := e.send(ctx, e.selection, "predictSingle", SelectionPrompt(prompt, e.registry.RenderedNames(), 1))
	if err != nil {
		return "", err
	}
	name := strings.TrimSpace(text)
	logging.PredictDebug("predicted %q for %q", name, prompt)
	return name, nil
}

// PredictMultiple returns up to n candidate action names, in model order.
func (e *Engine) PredictMultiple(ctx context.Context, prompt string, n int) ([]string, error) {
	if n < 1 {
		n = 1
	}
	text, err := e.send(ctx, e.selection, "predictMultiple", SelectionPrompt(prompt, e.registry.RenderedNames(), n))
	if err != nil {
		return nil, err
	}
	names := ParseActionList(text)
	logging.PredictDebug("predicted %v for %q", names, prompt)
	return names, nil
}

// PredictDecomposition returns the raw sub-prompt,action text. ParseSteps
// turns it into structured steps.
func (e *Engine) PredictDecomposition(ctx context.Context, prompt string) (string, error) {
	return e.send(ctx, e.selection, "predictDecomposition", DecompositionPrompt(prompt, e.registry.RenderedNames()))
}

// Explain asks the explain session why action suits prompt.
func (e *Engine) Explain(ctx context.Context, prompt, action string) (string, error) {
	msg := "explain why this action " + action + " is appropriate for this command " + prompt +
		" out of all these actions " + e.registry.RenderedNames()
	return e.send(ctx, e.explain, "explain", msg)
}

// ScriptContinue asks whether line still needs an action given the results
// so far. Callers look for "yes" in the reply.
func (e *Engine) ScriptContinue(ctx context.Context, line, previous string) (string, error) {
	msg := "here are the previous results of a script - " + previous +
		" - here is the next line of the script - " + line +
		" - based on the previous results should we still take an action for this line, reply yes or no"
	return e.send(ctx, e.selection, "scriptContinue", msg)
}

// Summarize asks for a free-text summary of accumulated script results.
func (e *Engine) Summarize(ctx context.Context, results string) (string, error) {
	msg := "summarize the results of this script execution - " + results
	return e.send(ctx, e.selection, "summarize", msg)
}

func (e *Engine) send(ctx context.Context, chat perception.Chat, call, msg string) (string, error) {
	reply, err := chat.Send(ctx, msg)
	if err != nil {
		return "", fmt.Errorf("%s: %w", call, err)
	}
	return reply.Text, nil
}
