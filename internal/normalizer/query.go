package normalizer

import (
	"sort"
	"strings"
)

// QueryNormalizer rewrites free-text queries into the canonical term string.
type QueryNormalizer struct {
	analyzer *Analyzer
}

func NewQueryNormalizer(analyzer *Analyzer) *QueryNormalizer {
	return &QueryNormalizer{analyzer: analyzer}
}

// Terms returns the deduplicated query terms in lexicographic order.
// Term order never matters to an OR query; sorting keeps cache keys stable.
func (qn *QueryNormalizer) Terms(raw string) []string {
	terms := qn.analyzer.Analyze(raw)
	sort.Strings(terms)
	return terms
}

// Normalize joins Terms with a single space. Normalize is idempotent.
func (qn *QueryNormalizer) Normalize(raw string) string {
	return strings.Join(qn.Terms(raw), " ")
}
