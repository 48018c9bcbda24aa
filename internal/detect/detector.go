// Package detect implements a zero-shot self-consistency check for model
// answers.
//
// The candidate answer is broken into probing questions, the questions are
// answered again under a reference context through a forced function call,
// and every (question, answer) pair is scored for discrepancy against the
// candidate. The mean discrepancy above the threshold flags a likely
// hallucination.
package detect

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"tools4ai/internal/actions"
	"tools4ai/internal/logging"
	"tools4ai/internal/perception"
	"tools4ai/internal/schema"
)

const (
	DefaultQuestions = 4
	DefaultThreshold = 80.0

	answerAction = "answerQuestions"

	// maxConcurrentScores caps scorer calls in flight for one Detect.
	maxConcurrentScores = 4
)

// ErrNoPairs is returned when the model answered none of the questions.
var ErrNoPairs = errors.New("no question/answer pairs in reply")

// Pair is one probing question and the answer given under the reference.
type Pair struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Assessment is the outcome of one detection call.
type Assessment struct {
	Pairs []Pair `json:"pairs"`
	// Scores holds one discrepancy percentage per pair.
	Scores    []float64 `json:"scores"`
	Score     float64   `json:"score"`
	Threshold float64   `json:"threshold"`
	Flagged   bool      `json:"flagged"`
}

// Detector runs self-consistency checks.
type Detector struct {
	client    perception.Client
	questions int
	threshold float64
	scorer    Scorer
}

// Option configures a Detector.
type Option func(*Detector)

// WithQuestions sets how many probing questions to derive.
func WithQuestions(n int) Option {
	return func(d *Detector) {
		if n > 0 {
			d.questions = n
		}
	}
}

// WithThreshold sets the flagging threshold.
func WithThreshold(t float64) Option {
	return func(d *Detector) { d.threshold = t }
}

// WithScorer replaces the per-pair scoring policy.
func WithScorer(s Scorer) Option {
	return func(d *Detector) { d.scorer = s }
}

// New returns a Detector with 4 questions, threshold 80 and the lexical
// scorer.
func New(client perception.Client, opts ...Option) *Detector {
	d := &Detector{
		client:    client,
		questions: DefaultQuestions,
		threshold: DefaultThreshold,
		scorer:    LexicalScorer{},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Detect assesses answer. reference is the context the questions are
// answered under; empty means answer itself. Any failure aborts the call.
func (d *Detector) Detect(ctx context.Context, answer, reference string) (*Assessment, error) {
	if reference == "" {
		reference = answer
	}

	questions, err := d.decompose(ctx, answer)
	if err != nil {
		return nil, fmt.Errorf("decompose: %w", err)
	}
	logging.DetectDebug("derived questions: %s", questions)

	pairs, err := d.answer(ctx, questions, reference)
	if err != nil {
		return nil, fmt.Errorf("answer: %w", err)
	}

	a := &Assessment{Pairs: pairs, Scores: make([]float64, len(pairs)), Threshold: d.threshold}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentScores)
	for i, p := range pairs {
		g.Go(func() error {
			s, err := d.scorer.Score(gctx, answer, p)
			if err != nil {
				return fmt.Errorf("score %q: %w", p.Question, err)
			}
			a.Scores[i] = clamp(s)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	a.Score = Aggregate(a.Scores)
	a.Flagged = a.Score > a.Threshold

	logging.Detect("assessment: score=%.1f threshold=%.1f flagged=%v", a.Score, a.Threshold, a.Flagged)
	logging.Audit().DetectResult(answer, a.Score, a.Flagged)
	return a, nil
}

// QuestionPrompt renders the decomposition request for n questions.
func QuestionPrompt(n int) string {
	return "Can you derive " + strconv.Itoa(n) + " questions from this context and provide me a single line " +
		"without line breaks or backslash n character, you should reply with questions and nothing else - "
}

func (d *Detector) decompose(ctx context.Context, answer string) (string, error) {
	chat, err := d.client.StartChat(ctx)
	if err != nil {
		return "", err
	}
	reply, err := chat.Send(ctx, QuestionPrompt(d.questions)+answer)
	if err != nil {
		return "", err
	}
	questions := strings.Join(strings.Fields(reply.Text), " ")
	if questions == "" {
		return "", errors.New("model returned no questions")
	}
	return questions, nil
}

// answer registers the throwaway answering action, forces the model to call
// it and runs its handler over the extracted arguments.
func (d *Detector) answer(ctx context.Context, questions, reference string) ([]Pair, error) {
	var pairs []Pair
	collect := func(ctx context.Context, args []any) (any, error) {
		for i := 0; i+1 < len(args); i += 2 {
			q, _ := args[i].(string)
			a, _ := args[i+1].(string)
			if q == "" {
				continue
			}
			pairs = append(pairs, Pair{Question: q, Answer: a})
		}
		return pairs, nil
	}

	registry := actions.NewRegistry()
	if err := registry.Register(answerDescriptor(d.questions, reference, collect)); err != nil {
		return nil, err
	}
	desc, err := registry.Resolve(answerAction)
	if err != nil {
		return nil, err
	}
	s := schema.Build(desc)

	chat, err := d.client.StartChat(ctx, perception.WithTools(s.Declaration()), perception.WithForcedCall())
	if err != nil {
		return nil, err
	}
	reply, err := chat.Send(ctx, "ask these questions -  "+questions+" - end of questions")
	if err != nil {
		return nil, err
	}
	call, err := reply.Call(answerAction)
	if err != nil {
		return nil, err
	}
	if _, err := desc.Handler(ctx, schema.Arguments(desc, schema.Extract(s, call))); err != nil {
		return nil, err
	}
	if len(pairs) == 0 {
		return nil, ErrNoPairs
	}
	return pairs, nil
}

func answerDescriptor(n int, reference string, handler actions.Handler) *actions.Descriptor {
	params := make([]actions.Param, 0, 2*n)
	for i := 1; i <= n; i++ {
		params = append(params,
			actions.String(fmt.Sprintf("question_%d", i)),
			actions.String(fmt.Sprintf("answer_%d", i)),
		)
	}
	return actions.NewMethod(answerAction,
		"answer each question using only this context, put each question with its answer - "+reference,
		handler, params...)
}

// Aggregate combines pairwise scores by arithmetic mean. No scores yield 0.
func Aggregate(scores []float64) float64 {
	if len(scores) == 0 {
		return 0
	}
	var sum float64
	for _, s := range scores {
		sum += s
	}
	return sum / float64(len(scores))
}

func clamp(s float64) float64 {
	switch {
	case s < 0:
		return 0
	case s > 100:
		return 100
	}
	return s
}
