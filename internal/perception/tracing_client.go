package perception

import (
	"context"
	"time"

	"tools4ai/internal/logging"
)

// TracingClient wraps a Client and logs every exchange on the api category.
type TracingClient struct {
	underlying Client
	label      string
}

// NewTracingClient creates a tracing wrapper around an existing client.
// label names the session family in log lines (e.g. "select", "explain").
func NewTracingClient(underlying Client, label string) *TracingClient {
	return &TracingClient{underlying: underlying, label: label}
}

// StartChat starts a traced session.
func (tc *TracingClient) StartChat(ctx context.Context, opts ...ChatOption) (Chat, error) {
	chat, err := tc.underlying.StartChat(ctx, opts...)
	if err != nil {
		return nil, err
	}
	cfg := ApplyOptions(opts...)
	logging.APIDebug("[%s] chat started (tools=%d, json=%v)", tc.label, len(cfg.Tools), cfg.JSON)
	return &tracingChat{underlying: chat, label: tc.label}, nil
}

type tracingChat struct {
	underlying Chat
	label      string
	turns      int
}

func (c *tracingChat) Send(ctx context.Context, text string) (*Reply, error) {
	c.turns++
	start := time.Now()
	reply, err := c.underlying.Send(ctx, text)
	duration := time.Since(start)

	log := logging.Get(logging.CategoryAPI).With("session", c.label, "turn", c.turns)
	if err != nil {
		log.Error("send failed after %v: %v", duration, err)
		return nil, err
	}
	log.Debug("prompt=%q", text)
	log.Debug("reply in %v: text=%q calls=%d", duration, reply.Text, len(reply.Calls))
	return reply, nil
}
