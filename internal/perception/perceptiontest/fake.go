// Package perceptiontest provides a scripted in-memory model for tests.
package perceptiontest

import (
	"context"
	"fmt"
	"sync"

	"google.golang.org/genai"

	"tools4ai/internal/perception"
)

// Exchange records one Send seen by the fake.
type Exchange struct {
	Chat   int
	Config perception.ChatConfig
	Text   string
}

type step struct {
	reply *perception.Reply
	err   error
}

// Client replays queued replies in FIFO order across all of its chats.
// When the queue is empty it falls back to Respond, if set.
type Client struct {
	mu       sync.Mutex
	queue    []step
	sent     []Exchange
	chats    []perception.ChatConfig
	startErr error

	// Respond answers sends once the queue is drained.
	Respond func(cfg perception.ChatConfig, text string) (*perception.Reply, error)
}

// New returns an empty fake.
func New() *Client {
	return &Client{}
}

// Text queues a plain text reply.
func (c *Client) Text(text string) *Client {
	return c.push(step{reply: &perception.Reply{Text: text}})
}

// Call queues a reply holding one function call.
func (c *Client) Call(name string, args map[string]any) *Client {
	return c.push(step{reply: &perception.Reply{
		Calls: []*genai.FunctionCall{{Name: name, Args: args}},
	}})
}

// Fail queues a transport failure.
func (c *Client) Fail(err error) *Client {
	return c.push(step{err: fmt.Errorf("%w: %w", perception.ErrTransport, err)})
}

// FailStart makes every StartChat fail with err.
func (c *Client) FailStart(err error) *Client {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.startErr = err
	return c
}

func (c *Client) push(s step) *Client {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.queue = append(c.queue, s)
	return c
}

// Sent returns every exchange so far.
func (c *Client) Sent() []Exchange {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Exchange, len(c.sent))
	copy(out, c.sent)
	return out
}

// Chats returns the config of every chat started so far.
func (c *Client) Chats() []perception.ChatConfig {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]perception.ChatConfig, len(c.chats))
	copy(out, c.chats)
	return out
}

// Pending returns the number of queued replies not yet consumed.
func (c *Client) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.queue)
}

// StartChat implements perception.Client.
func (c *Client) StartChat(ctx context.Context, opts ...perception.ChatOption) (perception.Chat, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.startErr != nil {
		return nil, fmt.Errorf("%w: %w", perception.ErrTransport, c.startErr)
	}
	c.chats = append(c.chats, perception.ApplyOptions(opts...))
	return &chat{owner: c, id: len(c.chats) - 1}, nil
}

type chat struct {
	owner *Client
	id    int
}

func (ch *chat) Send(ctx context.Context, text string) (*perception.Reply, error) {
	c := ch.owner
	c.mu.Lock()
	cfg := c.chats[ch.id]
	c.sent = append(c.sent, Exchange{Chat: ch.id, Config: cfg, Text: text})
	if len(c.queue) > 0 {
		s := c.queue[0]
		c.queue = c.queue[1:]
		c.mu.Unlock()
		return s.reply, s.err
	}
	respond := c.Respond
	c.mu.Unlock()

	if respond != nil {
		return respond(cfg, text)
	}
	return nil, fmt.Errorf("%w: perceptiontest: no scripted reply for %q", perception.ErrTransport, text)
}
