// Package match resolves free-text hints against the user's configured
// entities and reconciles messages with previously scheduled ledger rows.
package match

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var stripDiacritics = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalize lowercases, strips diacritics and trims surrounding whitespace.
// Both hints and candidate names go through this before any comparison.
func Normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if out, _, err := transform.String(stripDiacritics, s); err == nil {
		return out
	}
	return s
}

// stopwords dropped before word-overlap scoring. Mostly Portuguese function
// words plus the filler verbs typical of spoken expense reports.
var stopwords = map[string]struct{}{
	"a": {}, "o": {}, "as": {}, "os": {},
	"de": {}, "da": {}, "do": {}, "das": {}, "dos": {},
	"em": {}, "na": {}, "no": {}, "nas": {}, "nos": {},
	"um": {}, "uma": {}, "uns": {}, "umas": {},
	"para": {}, "pra": {}, "pro": {}, "com": {}, "por": {},
	"e": {}, "ou": {}, "que": {},
	"conta": {}, "pagamento": {}, "pagar": {}, "paguei": {},
	"gastei": {}, "comprei": {}, "recebi": {}, "chegou": {},
}

// tokenize normalizes and splits a string into non-stopword tokens.
func tokenize(s string) []string {
	fields := strings.Fields(Normalize(s))
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if _, skip := stopwords[f]; skip {
			continue
		}
		tokens = append(tokens, f)
	}
	return tokens
}

// WordOverlap computes a tolerant similarity between two phrases: the count
// of word pairs that are equal or where one contains the other, divided by
// the longer token list. Substring containment is counted on purpose so that
// inflected or partial spoken forms still score ("luz" vs "conta de luz").
// Overlap of a non-empty phrase with itself is 1.
func WordOverlap(a, b string) float64 {
	wordsA := tokenize(a)
	wordsB := tokenize(b)
	if len(wordsA) == 0 || len(wordsB) == 0 {
		return 0
	}

	matched := 0
	used := make([]bool, len(wordsB))
	for _, wa := range wordsA {
		for j, wb := range wordsB {
			if used[j] {
				continue
			}
			if wa == wb || strings.Contains(wa, wb) || strings.Contains(wb, wa) {
				used[j] = true
				matched++
				break
			}
		}
	}

	denom := len(wordsA)
	if len(wordsB) > denom {
		denom = len(wordsB)
	}
	return float64(matched) / float64(denom)
}
