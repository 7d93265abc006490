// Package textnorm reduces quote and subtitle text to a canonical
// lowercase ASCII form so the same dialogue compares equal regardless
// of punctuation, capitalization, or styling differences.
package textnorm

import (
	"regexp"
	"strings"
)

// quoteReplacer removes straight and curly quote characters before the
// alphanumeric fold so contractions collapse ("don't" -> "dont")
// instead of splitting into two words.
var quoteReplacer = strings.NewReplacer(
	"'", "",
	"‘", "",
	"’", "",
	"“", "",
	"”", "",
	`"`, "",
)

// nonAlnumRe folds everything outside lowercase ASCII alphanumerics to
// a space. Accented characters become separators rather than being
// transliterated; both sides of a comparison pass through the same
// fold, so matching is unaffected.
var nonAlnumRe = regexp.MustCompile(`[^a-z0-9 ]`)

// Normalize lowercases s, strips quote characters, replaces every
// remaining character outside [a-z0-9 ] with a space, and collapses
// whitespace runs. The result is trimmed and idempotent.
func Normalize(s string) string {
	s = strings.ToLower(s)
	s = quoteReplacer.Replace(s)
	s = nonAlnumRe.ReplaceAllString(s, " ")
	return strings.Join(strings.Fields(s), " ")
}

// Words returns the normalized word sequence of s.
func Words(s string) []string {
	return strings.Fields(Normalize(s))
}

// Overlap is the word-set similarity of two word lists: the size of
// the intersection divided by the size of the larger set. Extra words
// on either side dilute the score symmetrically. Returns a value in
// [0, 1], zero when either list is empty.
func Overlap(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	setA := make(map[string]struct{}, len(a))
	for _, w := range a {
		setA[w] = struct{}{}
	}
	setB := make(map[string]struct{}, len(b))
	for _, w := range b {
		setB[w] = struct{}{}
	}
	common := 0
	for w := range setA {
		if _, ok := setB[w]; ok {
			common++
		}
	}
	larger := len(setA)
	if len(setB) > larger {
		larger = len(setB)
	}
	return float64(common) / float64(larger)
}
