package types

import (
	"strings"
	"unicode"
)

// NormalizePlate canonicalizes a plate reading for watchlist keying and
// lookup: uppercase with all whitespace and common OCR separators (hyphens,
// dots, middots) removed. Snapshot load, Lookup, and the resolver all
// apply this same function so the three can never disagree on a key.
func NormalizePlate(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsSpace(r) {
			continue
		}
		switch r {
		case '-', '.', '·':
			continue
		}
		b.WriteRune(unicode.ToUpper(r))
	}
	return b.String()
}

// NormalizeJurisdiction canonicalizes a 2-letter region code for adjacency
// comparison.
func NormalizeJurisdiction(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
