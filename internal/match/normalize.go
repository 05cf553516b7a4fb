// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package match

import (
	"strings"
	"unicode"
)

// stopWords are excluded from keyword-overlap matching.
var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "or": true,
	"but": true, "in": true, "on": true, "at": true, "to": true,
	"for": true, "of": true, "with": true, "by": true, "from": true,
}

// Normalize lowercases, strips non-word/non-space runes, and collapses
// whitespace. All matching operates on normalized text.
func Normalize(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		default:
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// stripArticle removes a leading definite/indefinite article from
// normalized text.
func stripArticle(s string) string {
	for _, art := range []string{"the ", "a ", "an "} {
		if strings.HasPrefix(s, art) {
			return s[len(art):]
		}
	}
	return s
}

// significantWords returns the normalized words longer than two runes
// that are not stop words, in order.
func significantWords(s string) []string {
	var words []string
	for _, w := range strings.Fields(Normalize(s)) {
		if len(w) > 2 && !stopWords[w] {
			words = append(words, w)
		}
	}
	return words
}

// wordSet returns significant words as a set.
func wordSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, w := range significantWords(s) {
		set[w] = true
	}
	return set
}

func intersectCount(a, b map[string]bool) int {
	n := 0
	for w := range a {
		if b[w] {
			n++
		}
	}
	return n
}
