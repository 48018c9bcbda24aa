package detect

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"tools4ai/internal/perception"
)

// Scorer rates how far one pair departs from the candidate answer, as a
// percentage in [0,100]. Higher means less consistent. Detect calls Score
// concurrently for the pairs of one answer.
type Scorer interface {
	Score(ctx context.Context, candidate string, pair Pair) (float64, error)
}

// ScorerFunc adapts a function to Scorer.
type ScorerFunc func(ctx context.Context, candidate string, pair Pair) (float64, error)

// Score calls f.
func (f ScorerFunc) Score(ctx context.Context, candidate string, pair Pair) (float64, error) {
	return f(ctx, candidate, pair)
}

var stopwords = map[string]bool{
	"the": true, "and": true, "was": true, "were": true, "are": true, "for": true,
	"from": true, "with": true, "that": true, "this": true, "his": true, "her": true,
	"its": true, "has": true, "had": true, "have": true, "not": true, "but": true,
	"who": true, "what": true, "when": true, "where": true, "which": true, "why": true,
	"how": true, "did": true, "does": true, "into": true, "than": true, "then": true,
}

// LexicalScorer is a deterministic scorer: the share of the answer's content
// words that never appear in the candidate. An answer without content words
// scores 100.
type LexicalScorer struct{}

// Score implements Scorer.
func (LexicalScorer) Score(ctx context.Context, candidate string, pair Pair) (float64, error) {
	known := make(map[string]bool)
	for _, w := range contentWords(candidate) {
		known[w] = true
	}
	words := contentWords(pair.Answer)
	if len(words) == 0 {
		return 100, nil
	}
	missing := 0
	for _, w := range words {
		if !known[w] {
			missing++
		}
	}
	return 100 * float64(missing) / float64(len(words)), nil
}

// contentWords returns the distinct lower-cased words of s with at least
// three characters, stopwords removed, in first-seen order.
func contentWords(s string) []string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	seen := make(map[string]bool, len(fields))
	var words []string
	for _, f := range fields {
		if len([]rune(f)) < 3 || stopwords[f] || seen[f] {
			continue
		}
		seen[f] = true
		words = append(words, f)
	}
	return words
}

var firstNumber = regexp.MustCompile(`-?\d+(?:\.\d+)?`)

// ModelScorer asks the model to rate each pair.
type ModelScorer struct {
	Client perception.Client
}

// Score implements Scorer. The first number in the reply is the score,
// clamped to [0,100].
func (m ModelScorer) Score(ctx context.Context, candidate string, pair Pair) (float64, error) {
	chat, err := m.Client.StartChat(ctx)
	if err != nil {
		return 0, err
	}
	msg := "here is the original context - " + candidate +
		" - here is a question - " + pair.Question +
		" - here is an answer - " + pair.Answer +
		" - on a scale of 0 to 100 how much does the answer disagree with the original context, reply with the number only"
	reply, err := chat.Send(ctx, msg)
	if err != nil {
		return 0, err
	}
	return ParseScore(reply.Text)
}

// ParseScore reads the first number in text and clamps it to [0,100].
func ParseScore(text string) (float64, error) {
	m := firstNumber.FindString(text)
	if m == "" {
		return 0, fmt.Errorf("no score in %q", text)
	}
	f, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0, fmt.Errorf("parse score %q: %w", m, err)
	}
	return clamp(f), nil
}
