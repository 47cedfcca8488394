package normalizer

import (
	"fmt"

	"github.com/go-ego/gse"
)

// Tokenizer segments text into word tokens. Implementations must be safe for
// concurrent use once constructed.
type Tokenizer interface {
	Segment(text string) []string
}

// GseTokenizer CJK segmentation in search mode: every dictionary word is
// emitted together with its in-dictionary sub-words, so "浦东新区" also
// yields "浦东" and "新区".
type GseTokenizer struct {
	seg gse.Segmenter
	hmm bool
}

// NewGseTokenizer loads the given dictionary files, or the embedded Chinese
// dictionary when none are given.
func NewGseTokenizer(dictFiles ...string) (*GseTokenizer, error) {
	gt := &GseTokenizer{hmm: true}

	var err error
	if len(dictFiles) == 0 {
		err = gt.seg.LoadDictEmbed()
	} else {
		err = gt.seg.LoadDict(dictFiles...)
	}
	if err != nil {
		return nil, fmt.Errorf("load gse dictionary: %w", err)
	}
	return gt, nil
}

// Segment returns the search-mode cut of text.
func (gt *GseTokenizer) Segment(text string) []string {
	return gt.seg.CutSearch(text, gt.hmm)
}

// TokenizerFunc adapts a plain function to Tokenizer.
type TokenizerFunc func(text string) []string

func (f TokenizerFunc) Segment(text string) []string { return f(text) }
