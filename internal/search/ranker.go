package search

import (
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/KonghaYao/text2location/app/models"
)

// Strategy selects how level weights reach the score.
type Strategy string

const (
	// StrategyPerField boosts each level field at query time.
	StrategyPerField Strategy = "per_field"
	// StrategyMerged bakes weights into a single full_address field at index time.
	StrategyMerged Strategy = "merged"
)

func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(strings.ToLower(strings.TrimSpace(s))) {
	case "", StrategyPerField:
		return StrategyPerField, nil
	case StrategyMerged:
		return StrategyMerged, nil
	}
	return "", InitError(fmt.Sprintf("unknown strategy %q", s), nil)
}

// Ranker turns addresses into engine documents and query terms into engine
// queries. A ranker owns the scoring shape of one strategy.
type Ranker interface {
	Strategy() Strategy
	Document(addr models.ResolvedAddress, levels [4][]string, w FieldWeights) map[string]interface{}
	Query(terms []string, w FieldWeights) query.Query
}

// NewRanker returns the ranker for strategy over schema.
func NewRanker(strategy Strategy, schema *Schema) (Ranker, error) {
	switch strategy {
	case StrategyPerField:
		return perFieldRanker{}, nil
	case StrategyMerged:
		if !schema.Has(FieldFullAddress) {
			return nil, fieldError(ErrInit, string(FieldFullAddress), "merged strategy needs the full_address field")
		}
		return mergedRanker{}, nil
	}
	return nil, InitError(fmt.Sprintf("unknown strategy %q", strategy), nil)
}

// baseDocument level tokens, display values and the identifier.
func baseDocument(addr models.ResolvedAddress, levels [4][]string) map[string]interface{} {
	display := addr.Levels()
	doc := make(map[string]interface{}, 2*len(LevelFields)+2)
	for i, f := range LevelFields {
		doc[string(f)] = strings.Join(levels[i], " ")
		doc[displayField(f)] = display[i]
	}
	doc[string(FieldAddressCode)] = addr.AddressCode
	return doc
}

type perFieldRanker struct{}

func (perFieldRanker) Strategy() Strategy { return StrategyPerField }

func (perFieldRanker) Document(addr models.ResolvedAddress, levels [4][]string, _ FieldWeights) map[string]interface{} {
	return baseDocument(addr, levels)
}

// Query one boosted term clause per (term, level), summed by a disjunction.
func (perFieldRanker) Query(terms []string, w FieldWeights) query.Query {
	clauses := make([]query.Query, 0, len(terms)*len(LevelFields))
	for _, f := range LevelFields {
		weight := w.For(f)
		if weight == 0 {
			continue
		}
		for _, term := range terms {
			tq := bleve.NewTermQuery(term)
			tq.SetField(string(f))
			tq.SetBoost(weight)
			clauses = append(clauses, tq)
		}
	}
	return bleve.NewDisjunctionQuery(clauses...)
}

type mergedRanker struct{}

func (mergedRanker) Strategy() Strategy { return StrategyMerged }

// Document repeats each level's tokens round(weight) times, at least once,
// so term frequency carries the weight.
func (mergedRanker) Document(addr models.ResolvedAddress, levels [4][]string, w FieldWeights) map[string]interface{} {
	doc := baseDocument(addr, levels)

	var sb strings.Builder
	for i, f := range LevelFields {
		if len(levels[i]) == 0 {
			continue
		}
		joined := strings.Join(levels[i], " ")
		for n := w.repeats(f); n > 0; n-- {
			if sb.Len() > 0 {
				sb.WriteByte(' ')
			}
			sb.WriteString(joined)
		}
	}
	doc[string(FieldFullAddress)] = sb.String()
	return doc
}

func (mergedRanker) Query(terms []string, _ FieldWeights) query.Query {
	clauses := make([]query.Query, 0, len(terms))
	for _, term := range terms {
		tq := bleve.NewTermQuery(term)
		tq.SetField(string(FieldFullAddress))
		clauses = append(clauses, tq)
	}
	return bleve.NewDisjunctionQuery(clauses...)
}
