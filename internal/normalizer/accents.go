package normalizer

import (
	"strings"
	"unicode"

	"github.com/mozillazg/go-unidecode"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// StripDiacritics removes combining marks.
func StripDiacritics(s string) string {
	t := transform.Chain(norm.NFD, transform.RemoveFunc(isMn), norm.NFC)
	out, _, _ := transform.String(t, s)
	return out
}

// isMn reports whether r is a nonspacing mark
func isMn(r rune) bool {
	return unicode.Is(unicode.Mn, r)
}

// FoldToken maps a token to its canonical form: NFKC (full-width to ASCII),
// lowercase, and for tokens without Han characters also unaccent + ASCII
// transliteration so "Běijīng" and "beijing" fold together.
// FoldToken(FoldToken(s)) == FoldToken(s).
func FoldToken(s string) string {
	s = strings.ToLower(norm.NFKC.String(s))
	if !HasHan(s) {
		s = strings.ToLower(unidecode.Unidecode(StripDiacritics(s)))
	}
	return strings.TrimSpace(s)
}

// HasHan reports whether s contains at least one Han ideograph.
func HasHan(s string) bool {
	for _, r := range s {
		if unicode.Is(unicode.Han, r) {
			return true
		}
	}
	return false
}

// isSeparator splits fields: whitespace, punctuation and symbols never belong to a token.
func isSeparator(r rune) bool {
	return unicode.IsSpace(r) || unicode.IsPunct(r) || unicode.IsSymbol(r)
}

func splitFields(s string) []string {
	return strings.FieldsFunc(s, isSeparator)
}
