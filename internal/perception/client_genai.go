package perception

import (
	"context"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"
)

// =============================================================================
// VERTEX AI GEMINI CLIENT
// =============================================================================

// GenAIClient talks to Gemini on Vertex AI through the genai SDK.
type GenAIClient struct {
	client *genai.Client
	model  string

	// Timeout bounds each Send. Zero means only the caller's context applies.
	Timeout time.Duration
}

// NewGenAIClient creates a Vertex AI backed client for project/location.
func NewGenAIClient(ctx context.Context, project, location, model string) (*GenAIClient, error) {
	if project == "" || location == "" || model == "" {
		return nil, fmt.Errorf("project, location and model are required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		Backend:  genai.BackendVertexAI,
		Project:  project,
		Location: location,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	return &GenAIClient{client: client, model: model}, nil
}

// Model returns the model identifier.
func (c *GenAIClient) Model() string {
	return c.model
}

// StartChat opens a new session with empty history.
func (c *GenAIClient) StartChat(ctx context.Context, opts ...ChatOption) (Chat, error) {
	cfg := ApplyOptions(opts...)

	chat, err := c.client.Chats.Create(ctx, c.model, generateConfig(cfg), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: start chat: %w", ErrTransport, err)
	}
	return &genAIChat{chat: chat, timeout: c.Timeout}, nil
}

func generateConfig(cfg ChatConfig) *genai.GenerateContentConfig {
	gc := &genai.GenerateContentConfig{}
	if cfg.SystemPrompt != "" {
		gc.SystemInstruction = genai.NewContentFromText(cfg.SystemPrompt, genai.RoleUser)
	}
	if len(cfg.Tools) > 0 {
		gc.Tools = []*genai.Tool{{FunctionDeclarations: cfg.Tools}}
		if cfg.ForceCall {
			names := make([]string, len(cfg.Tools))
			for i, t := range cfg.Tools {
				names[i] = t.Name
			}
			gc.ToolConfig = &genai.ToolConfig{
				FunctionCallingConfig: &genai.FunctionCallingConfig{
					Mode:                 genai.FunctionCallingConfigModeAny,
					AllowedFunctionNames: names,
				},
			}
		}
	}
	if cfg.JSON {
		gc.ResponseMIMEType = "application/json"
	}
	return gc
}

type genAIChat struct {
	chat    *genai.Chat
	timeout time.Duration
}

// Send appends text to the session and returns the model's reply.
func (c *genAIChat) Send(ctx context.Context, text string) (*Reply, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	resp, err := c.chat.SendMessage(ctx, genai.Part{Text: text})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	return replyFrom(resp), nil
}

// replyFrom flattens the first candidate into text plus function calls.
// Thought parts are dropped.
func replyFrom(resp *genai.GenerateContentResponse) *Reply {
	reply := &Reply{}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return reply
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part == nil {
			continue
		}
		if part.FunctionCall != nil {
			reply.Calls = append(reply.Calls, part.FunctionCall)
			continue
		}
		if part.Text != "" && !part.Thought {
			sb.WriteString(part.Text)
		}
	}
	reply.Text = sb.String()
	return reply
}
