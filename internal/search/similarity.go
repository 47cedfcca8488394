package search

import (
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
	"github.com/mozillazg/go-unidecode"
	"github.com/xrash/smetrics"
)

// Similarity blends Jaro-Winkler with normalized Levenshtein distance.
// Scores are in [0, 1]; 1 means identical.
type Similarity struct {
	JWWeight  float64
	LevWeight float64
}

func DefaultSimilarity() Similarity {
	return Similarity{JWWeight: 0.6, LevWeight: 0.4}
}

func (s Similarity) Score(query, candidate string) float64 {
	a := strings.ToLower(strings.TrimSpace(query))
	b := strings.ToLower(strings.TrimSpace(candidate))
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1
	}

	total := s.JWWeight + s.LevWeight
	if total <= 0 {
		return 0
	}

	ja, jb := runeBytes(a, b)
	jw := smetrics.JaroWinkler(ja, jb, 0.7, 4)

	maxLen := utf8.RuneCountInString(a)
	if n := utf8.RuneCountInString(b); n > maxLen {
		maxLen = n
	}
	lev := 1 - float64(levenshtein.ComputeDistance(a, b))/float64(maxLen)

	return (s.JWWeight*jw + s.LevWeight*lev) / total
}

// runeBytes recodes a and b over a shared one-byte alphabet so that
// smetrics, which compares bytes, counts one match per rune. Pairs with more
// than 256 distinct runes are transliterated instead.
func runeBytes(a, b string) (string, string) {
	alphabet := make(map[rune]byte)
	encode := func(s string) ([]byte, bool) {
		out := make([]byte, 0, len(s))
		for _, r := range s {
			c, ok := alphabet[r]
			if !ok {
				if len(alphabet) == 256 {
					return nil, false
				}
				c = byte(len(alphabet))
				alphabet[r] = c
			}
			out = append(out, c)
		}
		return out, true
	}
	ea, ok := encode(a)
	if !ok {
		return unidecode.Unidecode(a), unidecode.Unidecode(b)
	}
	eb, ok := encode(b)
	if !ok {
		return unidecode.Unidecode(a), unidecode.Unidecode(b)
	}
	return string(ea), string(eb)
}
