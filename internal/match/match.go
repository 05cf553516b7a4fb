// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package match maps free text (usually a PDF filename) back to a
// canonical (title, author) pair.
// Implements: prd003-matching (R1-R4);
//
//	docs/ARCHITECTURE § Matching.
package match

import (
	"strings"

	"github.com/pdiddy/alexandria/pkg/types"
)

// Score thresholds. Callers accept a match at ConfidentThreshold;
// batch callers that opt in may use anything at or above MinThreshold.
const (
	ConfidentThreshold = 0.7
	MinThreshold       = 0.4
)

// Result is the outcome of a table match.
type Result struct {
	// Entry is the best-matching knowledge entry; nil when nothing
	// reached MinThreshold.
	Entry *types.KnowledgeEntry

	// Score is the match score in [0, 1].
	Score float64
}

// Match finds the knowledge entry best matching freeText. Every strategy
// is evaluated and the maximum score wins, except an exact key hit which
// is definitive. Deterministic for a fixed table.
func (t *Table) Match(freeText string) Result {
	input := Normalize(freeText)
	if input == "" {
		return Result{}
	}

	// Exact key match: identity, no later strategy can beat 1.0.
	if e, ok := t.index[input]; ok {
		return Result{Entry: e, Score: 1.0}
	}

	var best Result
	for _, e := range t.entries {
		if s := t.scoreEntry(e, input); s > best.Score {
			best = Result{Entry: e, Score: s}
		}
	}
	if best.Score < MinThreshold {
		return Result{Score: best.Score}
	}
	return best
}

// scoreEntry evaluates the substring and keyword-overlap strategies for
// one entry and returns the higher score.
func (t *Table) scoreEntry(e *types.KnowledgeEntry, input string) float64 {
	var best float64

	titleNorm := Normalize(e.Title)

	// Substring key match: a key inside the input or the input inside a
	// key. Short keys are skipped, they match everything.
	for _, key := range e.LookupKeys {
		if len(key) <= 3 {
			continue
		}
		if strings.Contains(input, key) || strings.Contains(key, input) {
			s := 0.9
			if strings.Contains(input, titleNorm) {
				s = 1.0
			}
			if s > best {
				best = s
			}
			break
		}
	}

	// Keyword overlap.
	if s := t.overlapScore(e, input, titleNorm); s > best {
		best = s
	}
	return best
}

func (t *Table) overlapScore(e *types.KnowledgeEntry, input, titleNorm string) float64 {
	titleWords := significantWords(e.Title)
	if len(titleWords) == 0 {
		return 0
	}

	inputSet := wordSet(input)
	titleSet := make(map[string]bool, len(titleWords))
	for _, w := range titleWords {
		titleSet[w] = true
	}

	overlap := intersectCount(titleSet, inputSet)
	required := 1
	if len(titleWords) > 3 {
		required = 2
	}
	if overlap < required {
		return 0
	}

	s := 0.6 + 0.3*float64(overlap)/float64(len(titleWords))

	// Author words corroborate, up to +0.15.
	if authorOverlap := intersectCount(wordSet(e.Author), inputSet); authorOverlap > 0 {
		bonus := 0.075 * float64(authorOverlap)
		if bonus > 0.15 {
			bonus = 0.15
		}
		s += bonus
	}

	// Leading title words appearing contiguously and in order are a
	// stronger signal than scattered overlap.
	prefix := strings.Join(titleWords[:min(3, len(titleWords))], " ")
	if prefix != "" && strings.Contains(input, prefix) {
		s += 0.05
	}

	if s > 1.0 {
		s = 1.0
	}
	return s
}

// ParseTitleAuthor is the structural fallback when no table entry clears
// the threshold: split the text on a title/author separator. When the
// right side is long and the left side is short, the two are swapped,
// since author names run 1-4 words and titles run longer.
func ParseTitleAuthor(s string) (title, author string) {
	s = strings.TrimSpace(s)

	separators := []string{" — ", " – ", " - "}
	for _, sep := range separators {
		if i := strings.Index(s, sep); i >= 0 {
			return orientTitleAuthor(s[:i], s[i+len(sep):])
		}
	}

	// " by " is matched case-insensitively.
	lower := strings.ToLower(s)
	if i := strings.Index(lower, " by "); i >= 0 {
		return orientTitleAuthor(s[:i], s[i+4:])
	}

	return s, ""
}

func orientTitleAuthor(left, right string) (string, string) {
	left = strings.TrimSpace(left)
	right = strings.TrimSpace(right)

	leftWords := len(strings.Fields(left))
	rightWords := len(strings.Fields(right))
	if rightWords > 4 && leftWords >= 1 && leftWords <= 4 {
		return right, left
	}
	return left, right
}
