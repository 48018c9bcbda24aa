package predict

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tools4ai/internal/actions"
	"tools4ai/internal/perception"
	"tools4ai/internal/perception/perceptiontest"
)

func newRegistry(t *testing.T, names ...string) *actions.Registry {
	t.Helper()
	r := actions.NewRegistry()
	for _, n := range names {
		r.MustRegister(actions.NewMethod(n, n, func(context.Context, []any) (any, error) { return n, nil }))
	}
	return r
}

func TestParseActionList(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{"comma", "search,summarize", []string{"search", "summarize"}},
		{"newline fallback", "search\nsummarize", []string{"search", "summarize"}},
		{"padded", " search , summarize \n", []string{"search", "summarize"}},
		{"single", "search", []string{"search"}},
		{"trailing comma", "search,", []string{"search"}},
		{"empty", "", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, ParseActionList(tt.raw)); diff != "" {
				t.Errorf("ParseActionList(%q) mismatch (-want +got):\n%s", tt.raw, diff)
			}
		})
	}
}

func TestParseSteps(t *testing.T) {
	raw := "1. find flights to Delhi, next friday,searchFlights\n" +
		"\n" +
		"- book a hotel,bookHotel\n" +
		"tell me a joke,blankAction\n" +
		"3 tickets please,\n" +
		"nothing here"

	want := []Step{
		{Prompt: "find flights to Delhi, next friday", Action: "searchFlights"},
		{Prompt: "book a hotel", Action: "bookHotel"},
		{Prompt: "tell me a joke", Action: actions.NoOpName},
		{Prompt: "3 tickets please", Action: actions.NoOpName},
		{Prompt: "nothing here", Action: actions.NoOpName},
	}
	got := ParseSteps(raw)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ParseSteps mismatch (-want +got):\n%s", diff)
	}
	assert.True(t, got[2].IsNoOp())
	assert.False(t, got[0].IsNoOp())
}

func TestSelectionPrompt(t *testing.T) {
	assert.Equal(t,
		"here is my prompt - hi- what action do you think we should take a,b, - reply back with 1 action only",
		SelectionPrompt("hi", "a,b,", 1))
	assert.True(t, strings.HasSuffix(SelectionPrompt("hi", "a,b,", 2),
		" - reply back with 2 actions only, in comma separated list without any additional special characters"))
}

func TestPredictSingle(t *testing.T) {
	ctx := context.Background()
	fake := perceptiontest.New().Text("  search \n")
	e, err := New(ctx, fake, newRegistry(t, "search", "notify"))
	require.NoError(t, err)

	name, err := e.PredictSingle(ctx, "search google for X")
	require.NoError(t, err)
	assert.Equal(t, "search", name)

	sent := fake.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, 0, sent[0].Chat, "selection uses the first session")
	assert.Contains(t, sent[0].Text, "search,notify,")
	assert.Contains(t, sent[0].Text, "search google for X")
}

func TestPredictSingleDoesNotValidate(t *testing.T) {
	ctx := context.Background()
	e, err := New(ctx, perceptiontest.New().Text("Search"), newRegistry(t, "search"))
	require.NoError(t, err)

	name, err := e.PredictSingle(ctx, "x")
	require.NoError(t, err)
	assert.Equal(t, "Search", name)
}

func TestPredictMultiple(t *testing.T) {
	ctx := context.Background()
	fake := perceptiontest.New().Text("search\nsummarize")
	e, err := New(ctx, fake, newRegistry(t, "search", "summarize"))
	require.NoError(t, err)

	names, err := e.PredictMultiple(ctx, "find and sum up", 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"search", "summarize"}, names)
	assert.Contains(t, fake.Sent()[0].Text, "reply back with 2 actions only")
}

func TestExplainUsesSeparateSession(t *testing.T) {
	ctx := context.Background()
	fake := perceptiontest.New().Text("because")
	e, err := New(ctx, fake, newRegistry(t, "search"))
	require.NoError(t, err)

	text, err := e.Explain(ctx, "find X", "search")
	require.NoError(t, err)
	assert.Equal(t, "because", text)

	sent := fake.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, 1, sent[0].Chat)
	assert.Equal(t, "explain why this action search is appropriate for this command find X out of all these actions search,", sent[0].Text)
}

func TestDecompositionMentionsNoOp(t *testing.T) {
	ctx := context.Background()
	fake := perceptiontest.New().Text("a,search")
	e, err := New(ctx, fake, newRegistry(t, "search"))
	require.NoError(t, err)

	raw, err := e.PredictDecomposition(ctx, "do things")
	require.NoError(t, err)
	assert.Equal(t, "a,search", raw)
	assert.Contains(t, fake.Sent()[0].Text, actions.NoOpName)
}

func TestTransportFailureSurfaces(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("unavailable")
	e, err := New(ctx, perceptiontest.New().Fail(boom), newRegistry(t, "search"))
	require.NoError(t, err)

	_, err = e.PredictSingle(ctx, "x")
	require.Error(t, err)
	assert.ErrorIs(t, err, perception.ErrTransport)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "predictSingle")
}

func TestNewFailsWhenSessionCannotStart(t *testing.T) {
	_, err := New(context.Background(), perceptiontest.New().FailStart(errors.New("no creds")), newRegistry(t))
	assert.ErrorIs(t, err, perception.ErrTransport)
}
