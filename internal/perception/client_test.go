package perception

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func TestReplyCall(t *testing.T) {
	reply := &Reply{Calls: []*genai.FunctionCall{
		{Name: "a", Args: map[string]any{"x": 1.0}},
		{Name: "b"},
	}}

	c, err := reply.Call("b")
	require.NoError(t, err)
	assert.Equal(t, "b", c.Name)

	c, err = reply.Call("")
	require.NoError(t, err)
	assert.Equal(t, "a", c.Name)

	_, err = reply.Call("missing")
	assert.ErrorIs(t, err, ErrNoFunctionCall)

	_, err = (&Reply{}).Call("")
	assert.ErrorIs(t, err, ErrNoFunctionCall)
}

func TestGenerateConfig(t *testing.T) {
	decl := &genai.FunctionDeclaration{Name: "search"}

	gc := generateConfig(ApplyOptions(WithTools(decl), WithForcedCall(), WithSystemPrompt("be terse")))
	require.Len(t, gc.Tools, 1)
	assert.Equal(t, []*genai.FunctionDeclaration{decl}, gc.Tools[0].FunctionDeclarations)
	require.NotNil(t, gc.ToolConfig)
	assert.Equal(t, genai.FunctionCallingConfigModeAny, gc.ToolConfig.FunctionCallingConfig.Mode)
	assert.Equal(t, []string{"search"}, gc.ToolConfig.FunctionCallingConfig.AllowedFunctionNames)
	require.NotNil(t, gc.SystemInstruction)
	assert.Equal(t, "be terse", gc.SystemInstruction.Parts[0].Text)
	assert.Empty(t, gc.ResponseMIMEType)

	gc = generateConfig(ApplyOptions(WithJSONOutput()))
	assert.Equal(t, "application/json", gc.ResponseMIMEType)
	assert.Nil(t, gc.Tools)
	assert.Nil(t, gc.ToolConfig)

	gc = generateConfig(ApplyOptions(WithTools(decl)))
	assert.Nil(t, gc.ToolConfig, "tools without ForceCall leave calling mode to the model")
}

func TestReplyFrom(t *testing.T) {
	resp := &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{
		Content: &genai.Content{Parts: []*genai.Part{
			{Text: "thinking...", Thought: true},
			{Text: "search"},
			{FunctionCall: &genai.FunctionCall{Name: "search", Args: map[string]any{"query": "X"}}},
			{Text: " done"},
		}},
	}}}

	reply := replyFrom(resp)
	assert.Equal(t, "search done", reply.Text)
	require.Len(t, reply.Calls, 1)
	assert.Equal(t, "X", reply.Calls[0].Args["query"])

	assert.Equal(t, &Reply{}, replyFrom(nil))
	assert.Equal(t, &Reply{}, replyFrom(&genai.GenerateContentResponse{}))
}

func TestNewGenAIClientRequiresSettings(t *testing.T) {
	_, err := NewGenAIClient(context.Background(), "", "us-central1", "gemini-2.0-flash")
	assert.Error(t, err)
}

type stubClient struct {
	chat Chat
	err  error
}

func (s stubClient) StartChat(ctx context.Context, opts ...ChatOption) (Chat, error) {
	return s.chat, s.err
}

type stubChat struct {
	reply *Reply
	err   error
}

func (s stubChat) Send(ctx context.Context, text string) (*Reply, error) {
	return s.reply, s.err
}

func TestTracingClientPassesThrough(t *testing.T) {
	ctx := context.Background()

	tc := NewTracingClient(stubClient{chat: stubChat{reply: &Reply{Text: "ok"}}}, "select")
	chat, err := tc.StartChat(ctx)
	require.NoError(t, err)
	reply, err := chat.Send(ctx, "hi")
	require.NoError(t, err)
	assert.Equal(t, "ok", reply.Text)

	boom := errors.New("boom")
	tc = NewTracingClient(stubClient{chat: stubChat{err: boom}}, "select")
	chat, err = tc.StartChat(ctx)
	require.NoError(t, err)
	_, err = chat.Send(ctx, "hi")
	assert.ErrorIs(t, err, boom)

	tc = NewTracingClient(stubClient{err: boom}, "select")
	_, err = tc.StartChat(ctx)
	assert.ErrorIs(t, err, boom)
}
