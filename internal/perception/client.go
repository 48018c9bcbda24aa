// Package perception is the boundary to the language model. Everything the
// engine asks the model goes through a Chat: a conversational session that
// appends each exchange to its own history.
package perception

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"
)

var (
	// ErrTransport wraps every failure talking to the model service.
	ErrTransport = errors.New("model transport failure")

	// ErrNoFunctionCall is returned when a tool-constrained reply carries no call.
	ErrNoFunctionCall = errors.New("model reply has no function call")
)

// Client starts chat sessions against one model.
type Client interface {
	StartChat(ctx context.Context, opts ...ChatOption) (Chat, error)
}

// Chat is a single conversational session. Sessions keep history and are
// not safe for concurrent use.
type Chat interface {
	Send(ctx context.Context, text string) (*Reply, error)
}

// Reply is the model's answer to one Send.
type Reply struct {
	Text  string
	Calls []*genai.FunctionCall
}

// Call returns the first function call named name, or the first call of
// any name when name is empty.
func (r *Reply) Call(name string) (*genai.FunctionCall, error) {
	for _, c := range r.Calls {
		if name == "" || c.Name == name {
			return c, nil
		}
	}
	if name == "" {
		return nil, ErrNoFunctionCall
	}
	return nil, fmt.Errorf("%w: %s", ErrNoFunctionCall, name)
}

// ChatConfig collects ChatOption settings.
type ChatConfig struct {
	SystemPrompt string
	Tools        []*genai.FunctionDeclaration
	// ForceCall restricts the model to answering with a call to one of Tools.
	ForceCall bool
	// JSON asks for an application/json response body.
	JSON bool
}

// ChatOption configures a chat session.
type ChatOption func(*ChatConfig)

// WithSystemPrompt sets the session's system instruction.
func WithSystemPrompt(prompt string) ChatOption {
	return func(c *ChatConfig) { c.SystemPrompt = prompt }
}

// WithTools exposes function declarations to the model.
func WithTools(decls ...*genai.FunctionDeclaration) ChatOption {
	return func(c *ChatConfig) { c.Tools = append(c.Tools, decls...) }
}

// WithForcedCall makes the model answer with a function call.
func WithForcedCall() ChatOption {
	return func(c *ChatConfig) { c.ForceCall = true }
}

// WithJSONOutput asks the model for a JSON document instead of prose.
func WithJSONOutput() ChatOption {
	return func(c *ChatConfig) { c.JSON = true }
}

// ApplyOptions folds opts into a ChatConfig.
func ApplyOptions(opts ...ChatOption) ChatConfig {
	var cfg ChatConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}
