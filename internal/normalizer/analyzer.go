package normalizer

import (
	"errors"
)

// maxTokens caps the closure for a single text.
const maxTokens = 4096

// Analyzer is the single text-analysis path shared by indexing and querying.
//
// Analyze splits text into fields on whitespace, punctuation and symbols, folds
// each field, then closes the token set under segmentation: every produced
// token is segmented again until no new token appears. Tokens never contain
// separators, so analyzing the space-joined output of Analyze yields the same
// set again.
type Analyzer struct {
	tokenizer Tokenizer
}

// NewAnalyzer binds a tokenizer to a new analyzer.
func NewAnalyzer(tokenizer Tokenizer) (*Analyzer, error) {
	if tokenizer == nil {
		return nil, errors.New("analyzer requires a tokenizer")
	}
	return &Analyzer{tokenizer: tokenizer}, nil
}

// Analyze returns unique tokens in first-seen order.
func (a *Analyzer) Analyze(text string) []string {
	seen := make(map[string]struct{})
	var out, queue []string

	add := func(raw string) {
		for _, tok := range splitFields(FoldToken(raw)) {
			if _, ok := seen[tok]; ok || len(out) >= maxTokens {
				continue
			}
			seen[tok] = struct{}{}
			out = append(out, tok)
			queue = append(queue, tok)
		}
	}

	for _, field := range splitFields(text) {
		add(field)
	}
	for len(queue) > 0 {
		tok := queue[0]
		queue = queue[1:]
		for _, sub := range a.tokenizer.Segment(tok) {
			add(sub)
		}
	}
	return out
}
